package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/civic-eye/internal/events"
	"github.com/mr1hm/civic-eye/internal/models"
	"github.com/mr1hm/civic-eye/internal/verification"
)

type solveRequest struct {
	SolutionPhotoURL string `json:"solutionPhotoUrl"`
	Notes            string `json:"notes"`
}

// solveIssue verifies a solution photo and, when verified, marks the issue
// solved. Every attempt is written to the verification audit trail.
//
//	200 {success, verified, message, confidence, details, issue}
//	400 {success:false, verified:false, message, confidence, details}
//	500 {success:false, verified:false, error, message, confidence:0, details}
func (h *Handler) solveIssue(c *gin.Context) {
	var req solveRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SolutionPhotoURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "solutionPhotoUrl is required"})
		return
	}
	solutionURL := strings.TrimSpace(req.SolutionPhotoURL)

	ctx := c.Request.Context()
	id := c.Param("id")
	issue, err := h.issues.GetByID(ctx, id)
	if err != nil {
		h.respondRepoError(c, "fetch issue", err)
		return
	}
	if issue.Status == models.StatusSolved {
		c.JSON(http.StatusConflict, gin.H{"error": "issue already solved"})
		return
	}

	res, err := h.verifier.Verify(ctx, verification.Request{
		OriginalPhotoURL: issue.PhotoURL,
		SolutionPhotoURL: solutionURL,
		OriginalLocation: issue.Location(),
	})
	if err != nil {
		h.logger.Error("verification rejected stored issue location", "issue_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process solution",
			"details": err.Error(),
		})
		return
	}
	h.audit(ctx, issue.ID, solutionURL, adminEmail(c), res)

	if res.TechnicalError() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"verified":   false,
			"error":      "Failed to process solution",
			"message":    res.Message,
			"confidence": res.Confidence,
			"details":    res.Details,
		})
		return
	}
	if !res.Verified {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":    false,
			"verified":   false,
			"message":    res.Message,
			"confidence": res.Confidence,
			"details":    res.Details,
		})
		return
	}

	now := h.clock.Now().UTC()
	solved, err := h.issues.MarkSolved(ctx, id, models.Solution{
		PhotoURL: solutionURL,
		Notes:    strings.TrimSpace(req.Notes),
		SolvedAt: now,
	})
	if err != nil {
		h.respondRepoError(c, "mark issue solved", err)
		return
	}
	if h.metrics != nil {
		h.metrics.StatusTransitions.WithLabelValues(string(models.StatusSolved)).Inc()
	}
	h.logger.Info("issue solved",
		"issue_id", id,
		"method", res.Details.Method,
		"confidence", res.Confidence,
		"admin", adminEmail(c),
	)

	e := events.FromIssue(events.TypeIssueSolved, solved, now)
	e.Method = string(res.Details.Method)
	e.Confidence = &res.Confidence
	h.dispatch(e)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"verified":   true,
		"message":    "Issue marked as solved - location verified",
		"confidence": res.Confidence,
		"details":    res.Details,
		"issue":      solved,
	})
}

// audit records the attempt. A failed write is logged and does not change the
// response.
func (h *Handler) audit(ctx context.Context, issueID, solutionURL, admin string, res verification.Result) {
	if h.verifications == nil {
		return
	}
	rec := &models.VerificationRecord{
		ID:               h.newID(),
		IssueID:          issueID,
		SolutionPhotoURL: solutionURL,
		Verified:         res.Verified,
		Confidence:       res.Confidence,
		Method:           string(res.Details.Method),
		Message:          res.Message,
		DistanceMeters:   res.Details.DistanceMeters,
		Similarity:       res.Details.Similarity,
		VerifiedBy:       admin,
		CreatedAt:        h.clock.Now().UTC(),
	}
	if res.Details.Error != "" {
		msg := res.Details.Error
		rec.TechnicalError = &msg
	}
	if err := h.verifications.AddVerification(ctx, rec); err != nil {
		h.logger.Error("failed to record verification", "issue_id", issueID, "error", err)
	}
}
