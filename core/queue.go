package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/sunday/core/events"
)

// eventQueue is an unbounded FIFO feeding the event loop. Producers never
// block, so collaborators may post from inside a call made by the loop.
type eventQueue struct {
	mu     sync.Mutex
	items  []events.Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{signal: make(chan struct{}, 1)}
}

func (q *eventQueue) push(event events.Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		logger.Debug("event dropped after close", "kind", event.Kind())
		return
	}
	q.items = append(q.items, event)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop blocks until an event is available or ctx is done.
func (q *eventQueue) pop(ctx context.Context) (events.Event, bool) {
	for {
		if event, ok := q.tryPop(); ok {
			return event, true
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.signal:
		}
	}
}

func (q *eventQueue) tryPop() (events.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	event := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return event, true
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
}
