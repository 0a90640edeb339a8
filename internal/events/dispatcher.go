package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/mr1hm/civic-eye/internal/observability"
	"github.com/mr1hm/civic-eye/internal/worker"
)

const publishTimeout = 10 * time.Second

// Dispatcher delivers events off the request path: each queued event is
// broadcast to live subscribers and then handed to the publisher.
type Dispatcher struct {
	pool        *worker.WorkerPool[IssueEvent]
	broadcaster *Broadcaster
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
}

func NewDispatcher(workers, buffer int, b *Broadcaster, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	if p == nil {
		p = NopPublisher{}
	}
	d := &Dispatcher{
		broadcaster: b,
		publisher:   p,
		logger:      logger,
		metrics:     metrics,
	}
	d.pool = worker.NewWorkerPool(workers, buffer, d.deliver)
	d.pool.OnError(func(e IssueEvent, err error) {
		d.logger.Error("event publish failed", "type", e.Type, "issue_id", e.IssueID, "error", err)
	})
	return d
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.pool.Start(ctx)
}

// Dispatch queues e without blocking. A full queue drops the event and
// reports false.
func (d *Dispatcher) Dispatch(e IssueEvent) bool {
	if d.pool.TrySubmit(e) {
		return true
	}
	d.logger.Warn("event queue full, dropping event", "type", e.Type, "issue_id", e.IssueID)
	d.count("queue", "dropped")
	return false
}

// Stop drains queued events and closes the publisher.
func (d *Dispatcher) Stop() error {
	d.pool.Stop()
	return d.publisher.Close()
}

func (d *Dispatcher) deliver(ctx context.Context, e IssueEvent) error {
	if d.broadcaster != nil {
		n := d.broadcaster.Broadcast(e)
		d.logger.Debug("event broadcast", "type", e.Type, "issue_id", e.IssueID, "subscribers", n)
		d.count("broadcast", "success")
	}

	// The dispatcher context may already be canceled during shutdown drain.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err := d.publisher.Publish(pubCtx, e)
	d.count("publisher", observability.Outcome(err))
	return err
}

func (d *Dispatcher) count(sink, outcome string) {
	if d.metrics != nil {
		d.metrics.EventsDispatched.WithLabelValues(sink, outcome).Inc()
	}
}
