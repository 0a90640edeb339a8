package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	*sqlStore
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases
	// from splitting across pool connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		sqlStore: &sqlStore{db: db},
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			photo_url TEXT NOT NULL,
			category TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			latitude REAL,
			longitude REAL,
			user_id TEXT NOT NULL DEFAULT '',
			user_email TEXT NOT NULL DEFAULT '',
			solution_photo_url TEXT,
			solution_notes TEXT,
			solved_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS verifications (
			id TEXT PRIMARY KEY,
			issue_id TEXT NOT NULL,
			solution_photo_url TEXT NOT NULL,
			verified BOOLEAN NOT NULL,
			confidence REAL NOT NULL,
			method TEXT NOT NULL,
			message TEXT NOT NULL,
			distance_meters REAL,
			similarity REAL,
			technical_error TEXT,
			verified_by TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (issue_id) REFERENCES issues(id)
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
