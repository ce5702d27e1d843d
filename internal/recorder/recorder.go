// Package recorder turns a capture.Device's event stream into finalized
// Recordings. A Recorder is owned by one goroutine (the UI loop); only
// OpenDevice may run elsewhere.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexrolguin/voicebox/internal/capture"
	apperrors "github.com/alexrolguin/voicebox/internal/errors"
	"github.com/alexrolguin/voicebox/internal/logger"
)

// State is the recorder lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateArmed
	StateRecording
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting-permission"
	case StateArmed:
		return "armed"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options tunes a Recorder.
type Options struct {
	// PlaybackDir is where finalized recordings are written. Defaults to
	// $TMPDIR/voicebox.
	PlaybackDir string
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Recorder is the recording session controller.
type Recorder struct {
	device    capture.Device
	presenter Presenter
	log       *logger.Logger
	opts      Options

	state      State
	finalizing bool
	chunks     [][]byte
	sessionID  uuid.UUID
	startedAt  time.Time
	recording  *Recording
}

// New returns an idle Recorder and resets the presenter to the ready state.
func New(device capture.Device, presenter Presenter, log *logger.Logger, opts Options) *Recorder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Recorder{
		device:    device,
		presenter: presenter,
		log:       log.WithComponent("recorder"),
		opts:      opts,
		state:     StateIdle,
	}
	presenter.SetRecordEnabled(true)
	presenter.SetStopEnabled(false)
	presenter.SetIndicator(false)
	presenter.HidePlayback()
	presenter.SetStatus(StatusReady)
	return r
}

// State returns the current state.
func (r *Recorder) State() State { return r.state }

// Recording returns the held Recording, or nil.
func (r *Recorder) Recording() *Recording { return r.recording }

// Events returns the device event channel the caller must feed to HandleEvent.
func (r *Recorder) Events() <-chan capture.Event { return r.device.Events() }

// RequestAccess opens the device synchronously. Equivalent to BeginAccess,
// OpenDevice and CompleteAccess in sequence.
func (r *Recorder) RequestAccess(ctx context.Context) error {
	if !r.BeginAccess() {
		return nil
	}
	return r.CompleteAccess(r.OpenDevice(ctx))
}

// BeginAccess moves Idle to RequestingPermission. It returns false when the
// device is already open or a request is in flight.
func (r *Recorder) BeginAccess() bool {
	if r.state != StateIdle {
		return false
	}
	r.state = StateRequestingPermission
	r.presenter.SetRecordEnabled(false)
	r.presenter.SetStatus(StatusRequest)
	return true
}

// OpenDevice opens the capture device. It touches no recorder state and may
// run off the UI goroutine.
func (r *Recorder) OpenDevice(ctx context.Context) error {
	return r.device.Open(ctx)
}

// CompleteAccess applies the result of OpenDevice. A failure returns a
// PERMISSION_DENIED error and leaves the recorder Idle.
func (r *Recorder) CompleteAccess(err error) error {
	if r.state != StateRequestingPermission {
		return apperrors.InvalidState("complete access", r.state.String())
	}
	r.presenter.SetRecordEnabled(true)
	if err != nil {
		r.state = StateIdle
		r.presenter.SetStatus(StatusReady)
		r.log.WithError(err).Warn("microphone access failed")
		return apperrors.PermissionDenied(err)
	}
	r.state = StateArmed
	r.presenter.SetStatus(StatusReady)
	r.log.Info("microphone access granted")
	return nil
}

// Start begins a new session, discarding the previous one.
func (r *Recorder) Start() error {
	if r.state != StateArmed && r.state != StateStopped {
		return apperrors.InvalidState("start", r.state.String())
	}
	if r.finalizing {
		return apperrors.InvalidState("start", "finalizing")
	}

	r.chunks = nil
	if r.recording != nil {
		r.recording.removePlayback()
		r.recording = nil
	}
	r.presenter.HidePlayback()

	if err := r.device.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	r.state = StateRecording
	r.sessionID = uuid.New()
	r.startedAt = r.opts.Now()

	r.presenter.SetRecordEnabled(false)
	r.presenter.SetStopEnabled(true)
	r.presenter.SetStatus(StatusRecording)
	r.presenter.SetIndicator(true)

	r.log.Info("recording started", logger.Fields(logger.FieldRecording, r.sessionID.String()))
	return nil
}

// Stop asks the device to finalize. The Recording is produced when the
// device reports EventStopped.
func (r *Recorder) Stop() error {
	if r.state != StateRecording {
		return apperrors.InvalidState("stop", r.state.String())
	}
	if err := r.device.Stop(); err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	r.state = StateStopped
	r.finalizing = true
	r.presenter.SetRecordEnabled(true)
	r.presenter.SetStopEnabled(false)
	return nil
}

// HandleEvent consumes one device event. It returns the Recording when the
// event finalized one.
func (r *Recorder) HandleEvent(ev capture.Event) (*Recording, error) {
	switch ev.Kind {
	case capture.EventData:
		if r.state != StateRecording && !r.finalizing {
			r.log.Debug("dropping chunk outside a session", logger.Fields(logger.FieldBytes, len(ev.Data)))
			return nil, nil
		}
		chunk := make([]byte, len(ev.Data))
		copy(chunk, ev.Data)
		r.chunks = append(r.chunks, chunk)
		return nil, nil

	case capture.EventStopped:
		if r.state != StateRecording && !r.finalizing {
			return nil, nil
		}
		return r.finalize(), nil

	case capture.EventError:
		r.log.WithError(ev.Err).Error("capture error")
		return nil, fmt.Errorf("capture: %w", ev.Err)
	}
	return nil, nil
}

// finalize merges the buffered chunks into the held Recording.
func (r *Recorder) finalize() *Recording {
	size := 0
	for _, c := range r.chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range r.chunks {
		data = append(data, c...)
	}

	rec := &Recording{
		ID:        r.sessionID,
		Data:      data,
		MediaType: r.device.MediaType(),
		Chunks:    len(r.chunks),
		StartedAt: r.startedAt,
		Duration:  r.opts.Now().Sub(r.startedAt),
	}
	if err := rec.writePlayback(r.opts.PlaybackDir); err != nil {
		r.log.WithError(err).Warn("playback unavailable")
	}

	r.chunks = nil
	r.recording = rec
	r.state = StateStopped
	r.finalizing = false

	if rec.PlaybackURL != "" {
		r.presenter.ShowPlayback(rec.PlaybackURL)
	}
	r.presenter.SetStatus(StatusComplete)
	r.presenter.SetIndicator(false)
	r.presenter.SetStopEnabled(false)
	r.presenter.SetRecordEnabled(true)

	r.log.Info("recording finalized", logger.Fields(
		logger.FieldRecording, rec.ID.String(),
		logger.FieldBytes, rec.Size(),
		logger.FieldChunks, rec.Chunks,
		logger.FieldDuration, rec.Duration.Milliseconds(),
	))
	return rec
}

// Discard drops the held Recording and its playback file.
func (r *Recorder) Discard() {
	if r.recording == nil {
		return
	}
	r.recording.removePlayback()
	r.recording = nil
	r.presenter.HidePlayback()
}

// Close releases the device and removes any playback file.
func (r *Recorder) Close() error {
	if r.recording != nil {
		r.recording.removePlayback()
	}
	return r.device.Close()
}
