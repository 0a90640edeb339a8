package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/models"
)

const issueColumns = `id, photo_url, category, notes, status, latitude, longitude,
	user_id, user_email, solution_photo_url, solution_notes, solved_at, created_at, updated_at`

// sqlStore implements Store over any sqlx database. Queries are written with
// ? placeholders and rebound for the driver.
type sqlStore struct {
	db *sqlx.DB
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) Add(ctx context.Context, issue *models.Issue) error {
	query := s.db.Rebind(`INSERT INTO issues (` + issueColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		issue.ID, issue.PhotoURL, issue.Category, issue.Notes, issue.Status,
		issue.Latitude, issue.Longitude, issue.UserID, issue.UserEmail,
		issue.SolutionPhotoURL, issue.SolutionNotes, utcPtr(issue.SolvedAt),
		issue.CreatedAt.UTC(), issue.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert issue %s: %w", issue.ID, err)
	}
	return nil
}

func (s *sqlStore) GetByID(ctx context.Context, id string) (*models.Issue, error) {
	var issue models.Issue
	query := s.db.Rebind(`SELECT ` + issueColumns + ` FROM issues WHERE id = ?`)
	if err := s.db.GetContext(ctx, &issue, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get issue %s: %w", id, err)
	}
	return &issue, nil
}

func (s *sqlStore) List(ctx context.Context, opts Filter) ([]models.Issue, error) {
	var (
		where []string
		args  []any
	)
	if opts.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *opts.Status)
	}
	if opts.Category != nil {
		where = append(where, "category = ?")
		args = append(args, *opts.Category)
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	issues := []models.Issue{}
	if err := s.db.SelectContext(ctx, &issues, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

func (s *sqlStore) UpdateStatus(ctx context.Context, id string, status models.Status, at time.Time) (*models.Issue, error) {
	query := s.db.Rebind(`UPDATE issues SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`)
	res, err := s.db.ExecContext(ctx, query, status, at.UTC(), id, models.StatusSolved)
	if err != nil {
		return nil, fmt.Errorf("update issue %s status: %w", id, err)
	}
	if err := s.checkUpdated(ctx, res, id); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// MarkSolved records the solution and moves the issue to solved. It fails
// with ErrAlreadySolved when another solve won the race.
func (s *sqlStore) MarkSolved(ctx context.Context, id string, sol models.Solution) (*models.Issue, error) {
	query := s.db.Rebind(`UPDATE issues
		SET status = ?, solution_photo_url = ?, solution_notes = ?, solved_at = ?, updated_at = ?
		WHERE id = ? AND status <> ?`)
	solvedAt := sol.SolvedAt.UTC()
	var notes *string
	if sol.Notes != "" {
		notes = &sol.Notes
	}
	res, err := s.db.ExecContext(ctx, query,
		models.StatusSolved, sol.PhotoURL, notes, solvedAt, solvedAt, id, models.StatusSolved)
	if err != nil {
		return nil, fmt.Errorf("mark issue %s solved: %w", id, err)
	}
	if err := s.checkUpdated(ctx, res, id); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// checkUpdated turns a zero-row update into ErrNotFound or ErrAlreadySolved.
func (s *sqlStore) checkUpdated(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("issue %s: %w", id, ErrAlreadySolved)
}

// Nearby returns issues within radiusMeters of center, closest first. A
// latitude bounding box narrows the scan before exact haversine filtering.
func (s *sqlStore) Nearby(ctx context.Context, center geo.Coordinate, radiusMeters float64, limit int) ([]NearbyIssue, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return []NearbyIssue{}, nil
	}

	latDelta := radiusMeters / geo.EarthRadiusMeters * 180 / math.Pi
	query := s.db.Rebind(`SELECT ` + issueColumns + ` FROM issues
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		AND latitude BETWEEN ? AND ?`)

	var candidates []models.Issue
	if err := s.db.SelectContext(ctx, &candidates, query,
		math.Max(center.Latitude-latDelta, -90), math.Min(center.Latitude+latDelta, 90)); err != nil {
		return nil, fmt.Errorf("nearby issues: %w", err)
	}

	found := []NearbyIssue{}
	for _, issue := range candidates {
		loc := issue.Location()
		d, err := geo.Distance(center, *loc)
		if err != nil || d > radiusMeters {
			continue
		}
		found = append(found, NearbyIssue{Issue: issue, DistanceMeters: d})
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].DistanceMeters < found[j].DistanceMeters
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (s *sqlStore) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verifications`); err != nil {
		return 0, fmt.Errorf("delete verifications: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM issues`)
	if err != nil {
		return 0, fmt.Errorf("delete issues: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reset: %w", err)
	}
	return n, nil
}

func (s *sqlStore) AddVerification(ctx context.Context, rec *models.VerificationRecord) error {
	query := s.db.Rebind(`INSERT INTO verifications (id, issue_id, solution_photo_url, verified,
		confidence, method, message, distance_meters, similarity, technical_error, verified_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.IssueID, rec.SolutionPhotoURL, rec.Verified,
		rec.Confidence, rec.Method, rec.Message, rec.DistanceMeters, rec.Similarity,
		rec.TechnicalError, rec.VerifiedBy, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert verification for issue %s: %w", rec.IssueID, err)
	}
	return nil
}

func (s *sqlStore) ListVerifications(ctx context.Context, issueID string) ([]models.VerificationRecord, error) {
	query := s.db.Rebind(`SELECT id, issue_id, solution_photo_url, verified, confidence, method,
		message, distance_meters, similarity, technical_error, verified_by, created_at
		FROM verifications WHERE issue_id = ? ORDER BY created_at, id`)
	records := []models.VerificationRecord{}
	if err := s.db.SelectContext(ctx, &records, query, issueID); err != nil {
		return nil, fmt.Errorf("list verifications for issue %s: %w", issueID, err)
	}
	return records, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
