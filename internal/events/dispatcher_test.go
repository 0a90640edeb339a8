package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/civic-eye/internal/observability"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []IssueEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, e IssueEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_BroadcastsThenPublishes(t *testing.T) {
	b := NewBroadcaster()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	pub := &recordingPublisher{}
	metrics := observability.NewMetricsForTesting()
	d := NewDispatcher(2, 10, b, pub, discardLogger(), metrics)
	d.Start(context.Background())

	at := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, d.Dispatch(IssueEvent{Type: TypeIssueSolved, IssueID: "issue-1", OccurredAt: at}))

	select {
	case e := <-ch:
		assert.Equal(t, "issue-1", e.IssueID)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast")
	}

	require.NoError(t, d.Stop())

	assert.True(t, pub.closed)
	require.Len(t, pub.events, 1)
	assert.Equal(t, TypeIssueSolved, pub.events[0].Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsDispatched.WithLabelValues("broadcast", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsDispatched.WithLabelValues("publisher", "success")))
}

func TestDispatcher_PublishFailureIsCounted(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	metrics := observability.NewMetricsForTesting()
	d := NewDispatcher(1, 10, NewBroadcaster(), pub, discardLogger(), metrics)
	d.Start(context.Background())

	d.Dispatch(IssueEvent{Type: TypeIssueCreated, IssueID: "issue-2"})
	require.NoError(t, d.Stop())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsDispatched.WithLabelValues("publisher", "error")))
}

func TestDispatcher_DrainsOnStop(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(1, 50, nil, pub, discardLogger(), nil)
	d.Start(context.Background())

	for i := 0; i < 20; i++ {
		require.True(t, d.Dispatch(IssueEvent{Type: TypeStatusChanged, IssueID: "issue"}))
	}
	require.NoError(t, d.Stop())

	assert.Len(t, pub.events, 20)
	assert.False(t, d.Dispatch(IssueEvent{Type: TypeStatusChanged}), "dispatch after stop must be rejected")
}

func TestDispatcher_DrainsAfterContextCanceled(t *testing.T) {
	for round := 0; round < 10; round++ {
		pub := &recordingPublisher{}
		d := NewDispatcher(2, 50, NewBroadcaster(), pub, discardLogger(), nil)

		for i := 0; i < 20; i++ {
			require.True(t, d.Dispatch(IssueEvent{Type: TypeIssueSolved, IssueID: "issue"}))
		}
		ctx, cancel := context.WithCancel(context.Background())
		d.Start(ctx)
		cancel()
		require.NoError(t, d.Stop())

		require.Len(t, pub.events, 20, "round %d", round)
	}
}

func TestDispatcher_NilPublisher(t *testing.T) {
	d := NewDispatcher(1, 1, NewBroadcaster(), nil, discardLogger(), nil)
	d.Start(context.Background())
	assert.True(t, d.Dispatch(IssueEvent{Type: TypeIssuesReset}))
	assert.NoError(t, d.Stop())
}
