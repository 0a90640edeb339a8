package events

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 100

// Filter selects the events a subscriber receives. A nil Filter accepts all.
type Filter func(IssueEvent) bool

// CategoryFilter accepts events for the given categories, plus
// category-less events such as resets.
func CategoryFilter(categories ...string) Filter {
	if len(categories) == 0 {
		return nil
	}
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	return func(e IssueEvent) bool {
		return e.Category == "" || want[string(e.Category)]
	}
}

type subscriber struct {
	ch     chan IssueEvent
	filter Filter
}

// Broadcaster fans issue events out to live subscribers without blocking on
// any of them.
type Broadcaster struct {
	subscribers map[uint64]subscriber
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]subscriber),
	}
}

// Subscribe registers a subscriber that receives every event.
func (b *Broadcaster) Subscribe() (uint64, <-chan IssueEvent) {
	return b.SubscribeFiltered(nil)
}

// SubscribeFiltered registers a subscriber that only receives events
// accepted by filter.
func (b *Broadcaster) SubscribeFiltered(filter Filter) (uint64, <-chan IssueEvent) {
	id := b.nextID.Add(1)
	sub := subscriber{ch: make(chan IssueEvent, subscriberBuffer), filter: filter}

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	return id, sub.ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast delivers e to every interested subscriber with buffer room and
// returns how many received it. Full subscribers miss the event and are
// counted in Dropped.
func (b *Broadcaster) Broadcast(e IssueEvent) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subscribers {
		if sub.filter != nil && !sub.filter(e) {
			continue
		}
		select {
		case sub.ch <- e:
			delivered++
		default:
			b.dropped.Add(1)
		}
	}
	return delivered
}

// Dropped reports how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, ending their streams.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}
