// Package capturetest provides a scripted capture.Device for tests.
package capturetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexrolguin/voicebox/internal/capture"
)

// Device is an in-memory capture.Device. Tests push chunks with Emit and
// control what Open and Stop do.
type Device struct {
	// OpenErr is returned by Open when set.
	OpenErr error
	// StartErr is returned by Start when set.
	StartErr error
	// ManualStop keeps Stop from emitting EventStopped; call Finish instead.
	ManualStop bool
	// Type is returned by MediaType. Defaults to audio/webm.
	Type string

	mu      sync.Mutex
	events  chan capture.Event
	opened  int
	started int
	stopped int
	closed  bool
}

// New returns a Device with a buffered event channel.
func New() *Device {
	return &Device{events: make(chan capture.Event, 256)}
}

// Open implements capture.Device.
func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened++
	return d.OpenErr
}

// Start implements capture.Device.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.StartErr != nil {
		return d.StartErr
	}
	d.started++
	return nil
}

// Stop implements capture.Device.
func (d *Device) Stop() error {
	d.mu.Lock()
	d.stopped++
	manual := d.ManualStop
	d.mu.Unlock()
	if !manual {
		d.Finish()
	}
	return nil
}

// Emit queues one data chunk.
func (d *Device) Emit(chunk string) {
	d.events <- capture.Event{Kind: capture.EventData, Data: []byte(chunk)}
}

// Fail queues an error event.
func (d *Device) Fail(err error) {
	d.events <- capture.Event{Kind: capture.EventError, Err: err}
}

// Finish queues EventStopped.
func (d *Device) Finish() {
	d.events <- capture.Event{Kind: capture.EventStopped}
}

// Next returns the next queued event without blocking.
func (d *Device) Next() (capture.Event, error) {
	select {
	case ev, ok := <-d.events:
		if !ok {
			return capture.Event{}, fmt.Errorf("events closed")
		}
		return ev, nil
	default:
		return capture.Event{}, fmt.Errorf("no pending event")
	}
}

// Events implements capture.Device.
func (d *Device) Events() <-chan capture.Event { return d.events }

// MediaType implements capture.Device.
func (d *Device) MediaType() string {
	if d.Type == "" {
		return "audio/webm"
	}
	return d.Type
}

// Close implements capture.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	return nil
}

// Counts reports how often Open, Start and Stop were called.
func (d *Device) Counts() (opened, started, stopped int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened, d.started, d.stopped
}
