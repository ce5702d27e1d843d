package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recording is one finalized capture session: every chunk the device emitted,
// concatenated in arrival order.
type Recording struct {
	ID           uuid.UUID
	Data         []byte
	MediaType    string
	FileName     string // upload file name; empty uses the client default
	Chunks       int
	StartedAt    time.Time
	Duration     time.Duration
	PlaybackPath string
	PlaybackURL  string
}

// Size returns the number of audio bytes.
func (r *Recording) Size() int { return len(r.Data) }

// Extension returns the file extension matching the media type.
func (r *Recording) Extension() string {
	return extensionFor(r.MediaType)
}

func extensionFor(mediaType string) string {
	base, _, _ := strings.Cut(mediaType, ";")
	switch strings.TrimSpace(base) {
	case "audio/webm":
		return ".webm"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".bin"
	}
}

// MediaTypeFor returns the audio MIME type for a file extension, or
// application/octet-stream.
func MediaTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".webm":
		return "audio/webm"
	case ".wav", ".wave":
		return "audio/wav"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// LoadFile reads an existing audio file into a Recording for upload.
func LoadFile(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read audio file: %s is empty", path)
	}
	var started time.Time
	if fi, err := os.Stat(path); err == nil {
		started = fi.ModTime()
	}
	return &Recording{
		ID:        uuid.New(),
		Data:      data,
		MediaType: MediaTypeFor(filepath.Ext(path)),
		FileName:  filepath.Base(path),
		Chunks:    1,
		StartedAt: started,
	}, nil
}

// writePlayback stores the recording under dir and fills in its playback
// path and file URL.
func (r *Recording) writePlayback(dir string) error {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "voicebox")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create playback dir: %w", err)
	}
	path := filepath.Join(dir, "recording-"+r.ID.String()+r.Extension())
	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		return fmt.Errorf("write playback file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	r.PlaybackPath = abs
	r.PlaybackURL = "file://" + filepath.ToSlash(abs)
	return nil
}

// removePlayback deletes the playback file, if one was written.
func (r *Recording) removePlayback() {
	if r.PlaybackPath != "" {
		_ = os.Remove(r.PlaybackPath)
		r.PlaybackPath = ""
		r.PlaybackURL = ""
	}
}
