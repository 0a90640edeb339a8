package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadySolved = errors.New("issue already solved")
)

type Filter struct {
	Limit    int
	Offset   int
	Status   *models.Status
	Category *models.Category
}

type NearbyIssue struct {
	models.Issue
	DistanceMeters float64 `json:"distanceMeters"`
}

type IssueRepository interface {
	Add(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id string) (*models.Issue, error)
	List(ctx context.Context, opts Filter) ([]models.Issue, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, at time.Time) (*models.Issue, error)
	MarkSolved(ctx context.Context, id string, sol models.Solution) (*models.Issue, error)
	Nearby(ctx context.Context, center geo.Coordinate, radiusMeters float64, limit int) ([]NearbyIssue, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type VerificationRepository interface {
	AddVerification(ctx context.Context, rec *models.VerificationRecord) error
	ListVerifications(ctx context.Context, issueID string) ([]models.VerificationRecord, error)
}

// Store is the full persistence surface the server depends on.
type Store interface {
	IssueRepository
	VerificationRepository
	Ping(ctx context.Context) error
	Close() error
}
