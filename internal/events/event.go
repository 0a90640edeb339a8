// Package events fans issue lifecycle events out to live map subscribers and,
// when enabled, to a Kafka topic.
package events

import (
	"time"

	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/models"
)

type Type string

const (
	TypeIssueCreated  Type = "issue.created"
	TypeStatusChanged Type = "issue.status_changed"
	TypeIssueSolved   Type = "issue.solved"
	TypeIssuesReset   Type = "issues.reset"
)

type IssueEvent struct {
	Type       Type            `json:"type"`
	IssueID    string          `json:"issueId,omitempty"`
	Category   models.Category `json:"category,omitempty"`
	Status     models.Status   `json:"status,omitempty"`
	Location   *geo.Coordinate `json:"location,omitempty"`
	Method     string          `json:"verificationMethod,omitempty"`
	Confidence *float64        `json:"confidence,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// FromIssue builds an event carrying the issue's current state.
func FromIssue(t Type, issue *models.Issue, at time.Time) IssueEvent {
	return IssueEvent{
		Type:       t,
		IssueID:    issue.ID,
		Category:   issue.Category,
		Status:     issue.Status,
		Location:   issue.Location(),
		OccurredAt: at,
	}
}
