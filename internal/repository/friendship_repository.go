package repository

import (
	"context"
	"database/sql"
)

// FriendshipRepository reads the friendship graph owned by the user service.
// This service never writes friendships; it only checks them at game creation.
type FriendshipRepository struct {
	db *sql.DB
}

func NewFriendshipRepository(db *sql.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE status = 'accepted'
			  AND ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))
		)
	`
	var accepted bool
	err := r.db.QueryRowContext(ctx, query, userID, otherID).Scan(&accepted)
	return accepted, err
}
