//go:build integration

package integration_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/models"
	"github.com/mr1hm/civic-eye/internal/repository"
)

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "civic",
				"POSTGRES_PASSWORD": "civic",
				"POSTGRES_DB":       "civic",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://civic:civic@%s:%s/civic?sslmode=disable", host, port.Port())
}

func TestPostgresDB_IssueLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := repository.NewPostgresDB(startPostgres(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	baseTime := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	loc := geo.Coordinate{Latitude: 40.7128, Longitude: -74.0060}
	issue := &models.Issue{
		ID:        "pg-1",
		PhotoURL:  "https://photos.example/pg-1.jpg",
		Category:  models.CategoryPothole,
		Status:    models.StatusReported,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	issue.SetLocation(&loc)
	require.NoError(t, db.Add(ctx, issue))

	got, err := db.GetByID(ctx, "pg-1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPothole, got.Category)
	assert.WithinDuration(t, baseTime, got.CreatedAt, time.Millisecond)

	pothole := models.CategoryPothole
	listed, err := db.List(ctx, repository.Filter{Category: &pothole, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	nearby, err := db.Nearby(ctx, loc, 100, 0)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.InDelta(t, 0, nearby[0].DistanceMeters, 1e-6)

	solved, err := db.MarkSolved(ctx, "pg-1", models.Solution{PhotoURL: "https://photos.example/fixed.jpg", SolvedAt: baseTime})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSolved, solved.Status)
	assert.Nil(t, solved.SolutionNotes)

	_, err = db.MarkSolved(ctx, "pg-1", models.Solution{PhotoURL: "x", SolvedAt: baseTime})
	assert.True(t, errors.Is(err, repository.ErrAlreadySolved))

	require.NoError(t, db.AddVerification(ctx, &models.VerificationRecord{
		ID: "pv-1", IssueID: "pg-1", SolutionPhotoURL: "https://photos.example/fixed.jpg",
		Verified: true, Confidence: 0.95, Method: "GPS", Message: "GPS coordinates confirm same location",
		VerifiedBy: "admin@city.gov", CreatedAt: baseTime,
	}))
	records, err := db.ListVerifications(ctx, "pg-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Verified)

	n, err := db.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
