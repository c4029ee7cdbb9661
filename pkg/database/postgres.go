package database

import (
	"context"
	"database/sql"
	"fmt"

	"duel-service/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	createDuelSessionsTable := `
		CREATE TABLE IF NOT EXISTS duel_sessions (
			id VARCHAR(64) PRIMARY KEY,
			host_id VARCHAR(255) NOT NULL,
			guest_id VARCHAR(255) NOT NULL,
			topic VARCHAR(255) NOT NULL,
			difficulty VARCHAR(16) NOT NULL,
			rounds INTEGER NOT NULL,
			questions_per_round INTEGER NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'waiting',
			questions JSONB NOT NULL DEFAULT '[]',
			host_answers JSONB NOT NULL DEFAULT '[]',
			guest_answers JSONB NOT NULL DEFAULT '[]',
			current_question_index INTEGER NOT NULL DEFAULT 0,
			current_round INTEGER NOT NULL DEFAULT 1,
			host_score INTEGER NOT NULL DEFAULT 0,
			guest_score INTEGER NOT NULL DEFAULT 0,
			winner_id VARCHAR(255),
			question_start_time TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at TIMESTAMP,
			completed_at TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			version INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_duel_sessions_host_id ON duel_sessions(host_id);
		CREATE INDEX IF NOT EXISTS idx_duel_sessions_guest_id ON duel_sessions(guest_id);
		CREATE INDEX IF NOT EXISTS idx_duel_sessions_status ON duel_sessions(status);
	`

	if _, err := c.db.ExecContext(ctx, createDuelSessionsTable); err != nil {
		return fmt.Errorf("failed to create duel_sessions table: %w", err)
	}

	return nil
}
