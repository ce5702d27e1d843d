// Package capture provides microphone capture backends behind one Device
// port. A device emits audio as a stream of Events; the recorder is the only
// reader of that stream.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/alexrolguin/voicebox/internal/logger"
)

// EventKind identifies what a capture Event carries.
type EventKind int

const (
	// EventData carries one chunk of encoded audio.
	EventData EventKind = iota
	// EventStopped is sent once after the last chunk of a session.
	EventStopped
	// EventError reports a backend failure during a session.
	EventError
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventStopped:
		return "stopped"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is emitted by a Device on its event channel.
type Event struct {
	Kind EventKind
	Data []byte // EventData only
	Err  error  // EventError only
}

// Device is a microphone capture backend.
type Device interface {
	// Open acquires the input device. A failure means the user cannot record.
	Open(ctx context.Context) error
	// Start begins a capture session. Chunks arrive as EventData.
	Start() error
	// Stop asks the backend to finalize the session. EventStopped follows
	// the last EventData.
	Stop() error
	// Events returns the channel all sessions report on.
	Events() <-chan Event
	// MediaType is the MIME type of the concatenated chunks.
	MediaType() string
	// Close releases the device. Events is closed afterwards.
	Close() error
}

// Options configures a capture backend.
type Options struct {
	Backend       string
	Device        string
	InputFormat   string
	SampleRate    int
	Channels      int
	ChunkInterval time.Duration
	FFmpegPath    string
}

// New returns the backend named in opts.Backend.
func New(opts Options, log *logger.Logger) (Device, error) {
	if opts.ChunkInterval <= 0 {
		opts.ChunkInterval = 250 * time.Millisecond
	}
	switch opts.Backend {
	case "", BackendFFmpeg:
		return NewFFmpeg(opts, log), nil
	case BackendPortAudio:
		return NewPortAudio(opts, log)
	default:
		return nil, fmt.Errorf("unknown capture backend %q", opts.Backend)
	}
}

// Backend names.
const (
	BackendFFmpeg    = "ffmpeg"
	BackendPortAudio = "portaudio"
)
