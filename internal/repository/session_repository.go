package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"duel-service/internal/constants"
	"duel-service/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")

	// ErrVersionConflict means the stored row changed between read and write.
	// The engine serializes writers per session, so this only fires if that
	// guarantee is violated (e.g. a second service instance).
	ErrVersionConflict = errors.New("session version conflict")
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *models.GameSession) error {
	questions, hostAnswers, guestAnswers, err := marshalSessionJSON(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO duel_sessions (
			id, host_id, guest_id, topic, difficulty, rounds, questions_per_round,
			status, questions, host_answers, guest_answers,
			current_question_index, current_round, host_score, guest_score,
			winner_id, question_start_time, created_at, started_at, completed_at,
			expires_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.HostID,
		session.GuestID,
		session.Topic,
		session.Difficulty,
		session.Rounds,
		session.QuestionsPerRound,
		session.Status,
		questions,
		hostAnswers,
		guestAnswers,
		session.CurrentQuestionIndex,
		session.CurrentRound,
		session.HostScore,
		session.GuestScore,
		nullString(session.WinnerID),
		session.QuestionStartTime,
		session.CreatedAt,
		session.StartedAt,
		session.CompletedAt,
		session.ExpiresAt,
		session.Version,
	)
	return err
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (*models.GameSession, error) {
	query := selectColumns + ` WHERE id = $1`
	session, err := r.scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

// UpdateSession writes the full session state back, conditional on the version
// the caller read. On success the in-memory version is bumped to match.
func (r *SessionRepository) UpdateSession(ctx context.Context, session *models.GameSession) error {
	questions, hostAnswers, guestAnswers, err := marshalSessionJSON(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE duel_sessions
		SET status = $1, questions = $2, host_answers = $3, guest_answers = $4,
			current_question_index = $5, current_round = $6,
			host_score = $7, guest_score = $8, winner_id = $9,
			question_start_time = $10, started_at = $11, completed_at = $12,
			version = version + 1
		WHERE id = $13 AND version = $14
	`
	result, err := r.db.ExecContext(ctx, query,
		session.Status,
		questions,
		hostAnswers,
		guestAnswers,
		session.CurrentQuestionIndex,
		session.CurrentRound,
		session.HostScore,
		session.GuestScore,
		nullString(session.WinnerID),
		session.QuestionStartTime,
		session.StartedAt,
		session.CompletedAt,
		session.ID,
		session.Version,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	session.Version++
	return nil
}

// FindActiveByUser returns the user's waiting or in-progress session, if any.
func (r *SessionRepository) FindActiveByUser(ctx context.Context, userID string) (*models.GameSession, error) {
	query := selectColumns + `
		WHERE (host_id = $1 OR guest_id = $1) AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`
	session, err := r.scanSession(r.db.QueryRowContext(ctx, query, userID,
		constants.SessionStatusWaiting, constants.SessionStatusInProgress))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

// FindActiveSessions lists every waiting or in-progress session, used to
// rebuild the in-memory session directory on startup.
func (r *SessionRepository) FindActiveSessions(ctx context.Context) ([]*models.GameSession, error) {
	query := selectColumns + ` WHERE status IN ($1, $2)`
	rows, err := r.db.QueryContext(ctx, query,
		constants.SessionStatusWaiting, constants.SessionStatusInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.GameSession
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

const selectColumns = `
	SELECT id, host_id, guest_id, topic, difficulty, rounds, questions_per_round,
		status, questions, host_answers, guest_answers,
		current_question_index, current_round, host_score, guest_score,
		winner_id, question_start_time, created_at, started_at, completed_at,
		expires_at, version
	FROM duel_sessions
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepository) scanSession(row rowScanner) (*models.GameSession, error) {
	session := &models.GameSession{}
	var questions, hostAnswers, guestAnswers []byte
	var winnerID sql.NullString

	err := row.Scan(
		&session.ID,
		&session.HostID,
		&session.GuestID,
		&session.Topic,
		&session.Difficulty,
		&session.Rounds,
		&session.QuestionsPerRound,
		&session.Status,
		&questions,
		&hostAnswers,
		&guestAnswers,
		&session.CurrentQuestionIndex,
		&session.CurrentRound,
		&session.HostScore,
		&session.GuestScore,
		&winnerID,
		&session.QuestionStartTime,
		&session.CreatedAt,
		&session.StartedAt,
		&session.CompletedAt,
		&session.ExpiresAt,
		&session.Version,
	)
	if err != nil {
		return nil, err
	}

	session.WinnerID = winnerID.String
	if err := json.Unmarshal(questions, &session.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	if err := json.Unmarshal(hostAnswers, &session.HostAnswers); err != nil {
		return nil, fmt.Errorf("failed to decode host answers: %w", err)
	}
	if err := json.Unmarshal(guestAnswers, &session.GuestAnswers); err != nil {
		return nil, fmt.Errorf("failed to decode guest answers: %w", err)
	}
	return session, nil
}

func marshalSessionJSON(session *models.GameSession) (questions, hostAnswers, guestAnswers []byte, err error) {
	if questions, err = json.Marshal(session.Questions); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	if session.HostAnswers == nil {
		session.HostAnswers = models.AnswerList{}
	}
	if session.GuestAnswers == nil {
		session.GuestAnswers = models.AnswerList{}
	}
	if hostAnswers, err = json.Marshal(session.HostAnswers); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode host answers: %w", err)
	}
	if guestAnswers, err = json.Marshal(session.GuestAnswers); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode guest answers: %w", err)
	}
	return questions, hostAnswers, guestAnswers, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
