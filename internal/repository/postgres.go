package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type PostgresDB struct {
	*sqlStore
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &PostgresDB{
		sqlStore: &sqlStore{db: db},
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating postgres: %w", err)
	}

	return s, nil
}

func (s *PostgresDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			photo_url TEXT NOT NULL,
			category TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			user_id TEXT NOT NULL DEFAULT '',
			user_email TEXT NOT NULL DEFAULT '',
			solution_photo_url TEXT,
			solution_notes TEXT,
			solved_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS verifications (
			id TEXT PRIMARY KEY,
			issue_id TEXT NOT NULL REFERENCES issues(id),
			solution_photo_url TEXT NOT NULL,
			verified BOOLEAN NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			method TEXT NOT NULL,
			message TEXT NOT NULL,
			distance_meters DOUBLE PRECISION,
			similarity DOUBLE PRECISION,
			technical_error TEXT,
			verified_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
		CREATE INDEX IF NOT EXISTS idx_issues_category ON issues(category);
		CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);
		CREATE INDEX IF NOT EXISTS idx_issues_latitude ON issues(latitude);
		CREATE INDEX IF NOT EXISTS idx_verifications_issue_id ON verifications(issue_id);
	`

	_, err := s.db.Exec(schema)
	return err
}
