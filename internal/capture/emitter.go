package capture

import (
	"sync"
	"time"
)

// emitter batches raw backend writes into chunks and sends one EventData
// per flush interval, the way a browser recorder emits on a timeslice.
type emitter struct {
	mu      sync.Mutex
	pending []byte
	events  chan<- Event
	done    <-chan struct{}
}

func newEmitter(events chan<- Event, done <-chan struct{}) *emitter {
	return &emitter{events: events, done: done}
}

// Write buffers p until the next flush.
func (e *emitter) Write(p []byte) (int, error) {
	e.mu.Lock()
	e.pending = append(e.pending, p...)
	e.mu.Unlock()
	return len(p), nil
}

// Flush emits buffered bytes as one chunk. Empty buffers emit nothing.
func (e *emitter) Flush() {
	e.mu.Lock()
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return
	}
	chunk := e.pending
	e.pending = nil
	e.mu.Unlock()

	e.send(Event{Kind: EventData, Data: chunk})
}

// run flushes on every tick until stop is closed.
func (e *emitter) run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.Flush()
		case <-stop:
			return
		}
	}
}

// send delivers ev unless the device is closing.
func (e *emitter) send(ev Event) bool {
	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}
