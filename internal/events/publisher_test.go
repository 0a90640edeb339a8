package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/models"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, logger: discardLogger()}

	at := time.Date(2025, time.June, 1, 12, 30, 0, 0, time.UTC)
	issue := &models.Issue{ID: "issue-9", Category: models.CategoryPothole, Status: models.StatusSolved}
	issue.SetLocation(&geo.Coordinate{Latitude: 1.5, Longitude: 2.5})
	event := FromIssue(TypeIssueSolved, issue, at)

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("issue-9"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "issue.solved", headers["event_type"])
	assert.Equal(t, "2025-06-01T12:30:00Z", headers["occurred_at"])

	var decoded IssueEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.IssueID, decoded.IssueID)
	assert.Equal(t, models.StatusSolved, decoded.Status)
	require.NotNil(t, decoded.Location)
	assert.Equal(t, 1.5, decoded.Location.Latitude)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("leader not available")}, logger: discardLogger()}

	err := p.Publish(context.Background(), IssueEvent{Type: TypeIssueCreated, IssueID: "issue-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue.created")
	assert.Contains(t, err.Error(), "leader not available")
}
