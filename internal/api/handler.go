package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/civic-eye/internal/events"
	"github.com/mr1hm/civic-eye/internal/observability"
	"github.com/mr1hm/civic-eye/internal/repository"
	"github.com/mr1hm/civic-eye/internal/verification"
)

const (
	defaultListLimit    = 100
	maxListLimit        = 500
	defaultNearbyRadius = 500.0
	maxNearbyRadius     = 10000.0
	defaultMaxUpload    = 20 << 20
)

// Verifier checks a solution photo against the original issue.
type Verifier interface {
	Verify(ctx context.Context, req verification.Request) (verification.Result, error)
	Policy() verification.Policy
}

// Dispatcher queues issue events for asynchronous delivery.
type Dispatcher interface {
	Dispatch(e events.IssueEvent) bool
}

type Deps struct {
	Issues        repository.IssueRepository
	Verifications repository.VerificationRepository
	Verifier      Verifier
	Authorizer    Authorizer
	Dispatcher    Dispatcher
	Broadcaster   *events.Broadcaster
	Metrics       *observability.Metrics
	Clock         clockwork.Clock
	Logger        *slog.Logger
	// MaxUploadBytes caps preview uploads. Zero means 20 MB.
	MaxUploadBytes int64
}

type Handler struct {
	issues        repository.IssueRepository
	verifications repository.VerificationRepository
	verifier      Verifier
	authz         Authorizer
	dispatcher    Dispatcher
	broadcaster   *events.Broadcaster
	metrics       *observability.Metrics
	clock         clockwork.Clock
	logger        *slog.Logger
	maxUpload     int64
	newID         func() string
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		issues:        d.Issues,
		verifications: d.Verifications,
		verifier:      d.Verifier,
		authz:         d.Authorizer,
		dispatcher:    d.Dispatcher,
		broadcaster:   d.Broadcaster,
		metrics:       d.Metrics,
		clock:         d.Clock,
		logger:        d.Logger,
		maxUpload:     d.MaxUploadBytes,
		newID:         uuid.NewString,
	}
	if h.clock == nil {
		h.clock = clockwork.NewRealClock()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxUpload <= 0 {
		h.maxUpload = defaultMaxUpload
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	pub := r.Group("/api")
	pub.POST("/issues", h.createIssue)
	pub.POST("/issues/classify", h.classifyIssue)
	pub.GET("/issues/map", h.issueMap)
	pub.GET("/issues/nearby", h.nearbyIssues)
	pub.POST("/photos/location-preview", h.locationPreview)
	if h.broadcaster != nil {
		pub.GET("/events", h.streamEvents)
	}

	admin := r.Group("/api/admin", RequireAdmin(h.authz))
	admin.GET("/issues", h.listIssues)
	admin.GET("/issues/:id", h.getIssue)
	admin.PATCH("/issues/:id/status", h.updateStatus)
	admin.POST("/issues/:id/solve", h.solveIssue)
	admin.GET("/issues/:id/verifications", h.listVerifications)
	admin.DELETE("/reset", h.reset)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (h *Handler) health(c *gin.Context) {
	if p, ok := h.issues.(pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) dispatch(e events.IssueEvent) {
	if h.dispatcher != nil {
		h.dispatcher.Dispatch(e)
	}
}

// respondRepoError maps repository failures onto HTTP statuses.
func (h *Handler) respondRepoError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
	case errors.Is(err, repository.ErrAlreadySolved):
		c.JSON(http.StatusConflict, gin.H{"error": "issue already solved"})
	default:
		h.logger.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + op})
	}
}

func queryInt(c *gin.Context, key string, fallback, lo, hi int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= lo && n <= hi {
			return n
		}
	}
	return fallback
}
