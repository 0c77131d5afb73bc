package tracker

import (
	"context"
	"sync"
	"time"

	"freighter/internal/task"
)

// EventSink receives every published event (for persistence, etc.).
type EventSink interface {
	Append(task.Event)
}

// EventHub stores recent lifecycle events in a bounded ring buffer and fans
// them out to subscribers in emission order.
type EventHub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []task.Event
	nextSeq  uint64
	sinks    []EventSink

	nextSubID   int
	subscribers map[int]func(task.Event)
}

// NewEventHub constructs a bounded in-memory event fan-out buffer.
func NewEventHub(capacity int) *EventHub {
	if capacity <= 0 {
		capacity = 512
	}
	h := &EventHub{
		capacity:    capacity,
		subscribers: make(map[int]func(task.Event)),
	}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// AddSink wires an additional sink that receives every published event.
func (h *EventHub) AddSink(sink EventSink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Subscribe registers a listener for every subsequent event and returns an
// idempotent unsubscribe handle. Listeners are invoked synchronously on the
// publishing goroutine and must not call back into the tracker's mutating
// operations.
func (h *EventHub) Subscribe(listener func(task.Event)) func() {
	if h == nil || listener == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.subscribers[id] = listener
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
		})
	}
}

// Publish appends a new event to the hub and delivers it to sinks and
// subscribers. Callers serialize Publish invocations, which preserves the
// per-task ordering guarantee.
func (h *EventHub) Publish(evt task.Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)

	sinks := append([]EventSink(nil), h.sinks...)
	listeners := make([]func(task.Event), 0, len(h.subscribers))
	for id := 0; id < h.nextSubID; id++ {
		if fn, ok := h.subscribers[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	h.cond.Broadcast()
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
	for _, listener := range listeners {
		listener(evt)
	}
}

// Fetch returns all events with sequence greater than since. When wait is
// true, Fetch blocks until at least one event is available or the context
// ends.
func (h *EventHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]task.Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

// Tail returns the most recent limit events without blocking.
func (h *EventHub) Tail(limit int) ([]task.Event, uint64) {
	if h == nil {
		return nil, 0
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buffer) == 0 {
		return nil, h.nextSeq
	}
	start := len(h.buffer) - limit
	if start < 0 {
		start = 0
	}
	out := make([]task.Event, len(h.buffer)-start)
	copy(out, h.buffer[start:])
	return out, h.nextSeq
}

func (h *EventHub) snapshotLocked(since uint64, limit int) ([]task.Event, uint64) {
	if len(h.buffer) == 0 {
		return nil, h.nextSeq
	}
	startIdx := 0
	for i, evt := range h.buffer {
		if evt.Sequence > since {
			startIdx = i
			break
		}
		if i == len(h.buffer)-1 {
			return nil, h.nextSeq
		}
	}
	end := startIdx + limit
	if end > len(h.buffer) {
		end = len(h.buffer)
	}
	out := make([]task.Event, end-startIdx)
	copy(out, h.buffer[startIdx:end])
	return out, h.nextSeq
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
