package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a progress notification published as a run moves through the
// pipeline. Sequence numbers are global and strictly increasing, so a
// client can resume from the last sequence it saw.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	RunID     uuid.UUID `json:"run_id"`
	Stage     Stage     `json:"stage,omitempty"`
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message,omitempty"`
}

// EventKind classifies a progress event.
type EventKind string

// Event kinds.
const (
	EventStageStarted   EventKind = "stage_started"
	EventStageCompleted EventKind = "stage_completed"
	EventRunDone        EventKind = "run_done"
	EventRunFailed      EventKind = "run_failed"
	EventRunCanceled    EventKind = "run_canceled"
)

// Bus stores recent progress events and wakes waiters when new events
// arrive. The buffer is bounded; slow consumers that fall behind more
// than the capacity miss the oldest events.
type Bus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
}

// NewBus constructs a bounded in-memory progress event buffer.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 256
	}
	b := &Bus{capacity: capacity}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish appends an event to the bus and wakes blocked Fetch calls.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	evt.Sequence = b.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	if len(b.buffer) == b.capacity {
		copy(b.buffer, b.buffer[1:])
		b.buffer = b.buffer[:b.capacity-1]
	}
	b.buffer = append(b.buffer, evt)
	b.cond.Broadcast()
}

// Fetch returns events for runID with sequence greater than since. When
// wait is true and no matching events are buffered, Fetch blocks until
// one arrives or the context ends.
func (b *Bus) Fetch(ctx context.Context, runID uuid.UUID, since uint64, wait bool) ([]Event, uint64, error) {
	cancelWait := make(chan struct{})
	if wait && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				b.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		events, next := b.snapshotLocked(runID, since)
		if len(events) > 0 || !wait {
			return events, next, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, since, err
		}
		b.cond.Wait()
	}
}

func (b *Bus) snapshotLocked(runID uuid.UUID, since uint64) ([]Event, uint64) {
	next := since
	var events []Event
	for _, evt := range b.buffer {
		if evt.Sequence <= since || evt.RunID != runID {
			continue
		}
		events = append(events, evt)
		if evt.Sequence > next {
			next = evt.Sequence
		}
	}
	return events, next
}
