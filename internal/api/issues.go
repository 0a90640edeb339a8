package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/civic-eye/internal/classify"
	"github.com/mr1hm/civic-eye/internal/events"
	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/models"
	"github.com/mr1hm/civic-eye/internal/repository"
)

type createIssueRequest struct {
	PhotoURL  string   `json:"photoUrl"`
	Category  string   `json:"category"`
	Notes     string   `json:"notes"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	UserID    string   `json:"userId"`
	UserEmail string   `json:"userEmail"`
}

func (h *Handler) createIssue(c *gin.Context) {
	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.PhotoURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photoUrl is required"})
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loc, err := optionalLocation(req.Latitude, req.Longitude)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := h.clock.Now().UTC()
	issue := &models.Issue{
		ID:        h.newID(),
		PhotoURL:  strings.TrimSpace(req.PhotoURL),
		Category:  category,
		Notes:     strings.TrimSpace(req.Notes),
		Status:    models.StatusReported,
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	issue.SetLocation(loc)

	if err := h.issues.Add(c.Request.Context(), issue); err != nil {
		h.respondRepoError(c, "create issue", err)
		return
	}
	if h.metrics != nil {
		h.metrics.IssuesCreated.WithLabelValues(string(category)).Inc()
	}
	h.logger.Info("issue created", "issue_id", issue.ID, "category", category, "has_location", loc != nil)
	h.dispatch(events.FromIssue(events.TypeIssueCreated, issue, now))

	c.JSON(http.StatusCreated, issue)
}

// optionalLocation accepts both coordinates or neither.
func optionalLocation(lat, lng *float64) (*geo.Coordinate, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, errors.New("latitude and longitude must be provided together")
	}
	c := geo.Coordinate{Latitude: *lat, Longitude: *lng}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (h *Handler) classifyIssue(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, classify.Text(req.Notes))
}

func (h *Handler) issueMap(c *gin.Context) {
	issues, err := h.issues.List(c.Request.Context(), repository.Filter{})
	if err != nil {
		h.respondRepoError(c, "fetch issues", err)
		return
	}

	fc := toGeoJSON(issues)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) nearbyIssues(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}
	center := geo.Coordinate{Latitude: lat, Longitude: lng}
	if err := center.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	radius := defaultNearbyRadius
	if r := c.Query("radius"); r != "" {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil || v <= 0 || v > maxNearbyRadius {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be between 0 and 10000 meters"})
			return
		}
		radius = v
	}
	limit := queryInt(c, "limit", 50, 1, maxListLimit)

	found, err := h.issues.Nearby(c.Request.Context(), center, radius, limit)
	if err != nil {
		h.respondRepoError(c, "search nearby issues", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": found, "count": len(found), "radius": radius})
}

func (h *Handler) listIssues(c *gin.Context) {
	filter := repository.Filter{
		Limit:  queryInt(c, "limit", defaultListLimit, 1, maxListLimit),
		Offset: queryInt(c, "offset", 0, 0, 1<<30),
	}
	if s := c.Query("status"); s != "" {
		status, err := models.ParseStatus(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Status = &status
	}
	if s := c.Query("category"); s != "" {
		category, err := models.ParseCategory(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Category = &category
	}

	issues, err := h.issues.List(c.Request.Context(), filter)
	if err != nil {
		h.respondRepoError(c, "fetch issues", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "count": len(issues)})
}

func (h *Handler) getIssue(c *gin.Context) {
	issue, err := h.issues.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondRepoError(c, "fetch issue", err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	issue, err := h.issues.GetByID(ctx, id)
	if err != nil {
		h.respondRepoError(c, "fetch issue", err)
		return
	}
	if issue.Status == status {
		c.JSON(http.StatusOK, issue)
		return
	}
	if !models.CanTransition(issue.Status, status) {
		msg := "solved issues cannot change status"
		if status == models.StatusSolved {
			msg = "issues can only be solved through verified solution submission"
		}
		c.JSON(http.StatusConflict, gin.H{"error": msg})
		return
	}

	now := h.clock.Now().UTC()
	updated, err := h.issues.UpdateStatus(ctx, id, status, now)
	if err != nil {
		h.respondRepoError(c, "update status", err)
		return
	}
	if h.metrics != nil {
		h.metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	}
	h.logger.Info("issue status changed", "issue_id", id, "from", issue.Status, "to", status, "admin", adminEmail(c))
	h.dispatch(events.FromIssue(events.TypeStatusChanged, updated, now))

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) listVerifications(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.issues.GetByID(ctx, id); err != nil {
		h.respondRepoError(c, "fetch issue", err)
		return
	}
	records := []models.VerificationRecord{}
	if h.verifications != nil {
		var err error
		records, err = h.verifications.ListVerifications(ctx, id)
		if err != nil {
			h.respondRepoError(c, "fetch verifications", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"verifications": records, "count": len(records)})
}

func (h *Handler) reset(c *gin.Context) {
	n, err := h.issues.DeleteAll(c.Request.Context())
	if err != nil {
		h.respondRepoError(c, "reset issues", err)
		return
	}
	h.logger.Warn("all issues deleted", "count", n, "admin", adminEmail(c))
	h.dispatch(events.IssueEvent{Type: events.TypeIssuesReset, OccurredAt: h.clock.Now().UTC()})
	c.JSON(http.StatusOK, gin.H{"message": "all issues deleted", "deleted": n})
}
