package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexrolguin/voicebox/internal/capture"
	"github.com/alexrolguin/voicebox/internal/capture/capturetest"
	apperrors "github.com/alexrolguin/voicebox/internal/errors"
	"github.com/alexrolguin/voicebox/internal/logger"
)

// fakePresenter records the last value of every presentation effect.
type fakePresenter struct {
	recordEnabled bool
	stopEnabled   bool
	status        string
	indicator     bool
	playbackURL   string
	playback      bool
}

func (p *fakePresenter) SetRecordEnabled(v bool) { p.recordEnabled = v }
func (p *fakePresenter) SetStopEnabled(v bool)   { p.stopEnabled = v }
func (p *fakePresenter) SetStatus(s string)      { p.status = s }
func (p *fakePresenter) SetIndicator(v bool)     { p.indicator = v }
func (p *fakePresenter) ShowPlayback(url string) { p.playback, p.playbackURL = true, url }
func (p *fakePresenter) HidePlayback()           { p.playback, p.playbackURL = false, "" }

func newTestRecorder(t *testing.T) (*Recorder, *capturetest.Device, *fakePresenter) {
	t.Helper()
	dev := capturetest.New()
	p := &fakePresenter{}
	r := New(dev, p, logger.Nop(), Options{PlaybackDir: t.TempDir()})
	t.Cleanup(func() { r.Close() })
	return r, dev, p
}

// drain feeds every pending device event to the recorder and returns the
// last finalized Recording.
func drain(t *testing.T, r *Recorder, dev *capturetest.Device) *Recording {
	t.Helper()
	var last *Recording
	for {
		ev, err := dev.Next()
		if err != nil {
			return last
		}
		rec, err := r.HandleEvent(ev)
		if err != nil {
			t.Fatalf("HandleEvent(%v) error: %v", ev.Kind, err)
		}
		if rec != nil {
			last = rec
		}
	}
}

func TestNewRecorderIsIdle(t *testing.T) {
	r, _, p := newTestRecorder(t)
	if r.State() != StateIdle {
		t.Errorf("state = %v, want idle", r.State())
	}
	if !p.recordEnabled || p.stopEnabled {
		t.Errorf("controls record=%v stop=%v, want true/false", p.recordEnabled, p.stopEnabled)
	}
	if p.status != StatusReady {
		t.Errorf("status = %q", p.status)
	}
}

func TestRequestAccessDenied(t *testing.T) {
	r, dev, p := newTestRecorder(t)
	dev.OpenErr = fmt.Errorf("permission denied")

	err := r.RequestAccess(context.Background())
	if !apperrors.IsPermissionDenied(err) {
		t.Fatalf("error = %v, want PERMISSION_DENIED", err)
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want idle", r.State())
	}
	if !p.recordEnabled {
		t.Error("record control should be usable again after denial")
	}
}

func TestStartRequiresAccess(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	err := r.Start()
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidState) {
		t.Errorf("Start() from idle error = %v, want INVALID_STATE", err)
	}
}

func TestRecordingIsConcatenationOfChunks(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
	}{
		{"no chunks", nil},
		{"one chunk", []string{"abc"}},
		{"many chunks", []string{"a", "bc", "", "def", "g"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, dev, _ := newTestRecorder(t)
			if err := r.RequestAccess(context.Background()); err != nil {
				t.Fatalf("RequestAccess: %v", err)
			}
			if err := r.Start(); err != nil {
				t.Fatalf("Start: %v", err)
			}
			for _, c := range tt.chunks {
				dev.Emit(c)
			}
			if err := r.Stop(); err != nil {
				t.Fatalf("Stop: %v", err)
			}
			rec := drain(t, r, dev)
			if rec == nil {
				t.Fatal("expected a finalized recording")
			}

			want := strings.Join(tt.chunks, "")
			if string(rec.Data) != want {
				t.Errorf("data = %q, want %q", rec.Data, want)
			}
			if rec.Chunks != len(tt.chunks) {
				t.Errorf("chunks = %d, want %d", rec.Chunks, len(tt.chunks))
			}
			if r.Recording() != rec {
				t.Error("recorder should hold the finalized recording")
			}
		})
	}
}

func TestStartDiscardsPreviousSession(t *testing.T) {
	r, dev, _ := newTestRecorder(t)
	r.RequestAccess(context.Background())

	r.Start()
	dev.Emit("old-1")
	dev.Emit("old-2")
	r.Stop()
	first := drain(t, r, dev)
	if first == nil {
		t.Fatal("first session should finalize")
	}
	firstPath := first.PlaybackPath

	if err := r.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if r.Recording() != nil {
		t.Error("starting a new session should drop the held recording")
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Errorf("old playback file should be removed, stat err = %v", err)
	}

	dev.Emit("new")
	r.Stop()
	second := drain(t, r, dev)
	if string(second.Data) != "new" {
		t.Errorf("data = %q, want only the new session", second.Data)
	}
}

func TestStartWhileFinalizingIsRejected(t *testing.T) {
	r, dev, _ := newTestRecorder(t)
	dev.ManualStop = true
	r.RequestAccess(context.Background())
	r.Start()
	r.Stop()

	if err := r.Start(); !apperrors.HasCode(err, apperrors.ErrCodeInvalidState) {
		t.Errorf("Start() while finalizing error = %v, want INVALID_STATE", err)
	}

	dev.Finish()
	drain(t, r, dev)
	if err := r.Start(); err != nil {
		t.Errorf("Start() after finalize error = %v", err)
	}
}

func TestPresenterEffects(t *testing.T) {
	r, dev, p := newTestRecorder(t)
	r.RequestAccess(context.Background())

	r.Start()
	if p.recordEnabled || !p.stopEnabled {
		t.Errorf("recording: record=%v stop=%v, want false/true", p.recordEnabled, p.stopEnabled)
	}
	if p.status != StatusRecording || !p.indicator {
		t.Errorf("recording: status=%q indicator=%v", p.status, p.indicator)
	}

	dev.Emit("x")
	r.Stop()
	rec := drain(t, r, dev)

	if !p.recordEnabled || p.stopEnabled {
		t.Errorf("stopped: record=%v stop=%v, want true/false", p.recordEnabled, p.stopEnabled)
	}
	if p.status != StatusComplete || p.indicator {
		t.Errorf("stopped: status=%q indicator=%v", p.status, p.indicator)
	}
	if !p.playback || p.playbackURL != rec.PlaybackURL {
		t.Errorf("playback = %v %q, want shown with %q", p.playback, p.playbackURL, rec.PlaybackURL)
	}
	if !strings.HasPrefix(rec.PlaybackURL, "file://") || !strings.HasSuffix(rec.PlaybackURL, ".webm") {
		t.Errorf("playback url = %q", rec.PlaybackURL)
	}
	data, err := os.ReadFile(rec.PlaybackPath)
	if err != nil || string(data) != "x" {
		t.Errorf("playback file = %q, %v", data, err)
	}
}

func TestStopOnlyFromRecording(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	r.RequestAccess(context.Background())
	if err := r.Stop(); !apperrors.HasCode(err, apperrors.ErrCodeInvalidState) {
		t.Errorf("Stop() from armed error = %v, want INVALID_STATE", err)
	}
}

func TestChunksOutsideSessionAreDropped(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	r.RequestAccess(context.Background())

	rec, err := r.HandleEvent(capture.Event{Kind: capture.EventData, Data: []byte("noise")})
	if rec != nil || err != nil {
		t.Errorf("HandleEvent = %v, %v", rec, err)
	}
	rec, _ = r.HandleEvent(capture.Event{Kind: capture.EventStopped})
	if rec != nil {
		t.Error("stray stop should not finalize")
	}
}

func TestDeviceErrorIsReported(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	_, err := r.HandleEvent(capture.Event{Kind: capture.EventError, Err: fmt.Errorf("xrun")})
	if err == nil || !strings.Contains(err.Error(), "xrun") {
		t.Errorf("error = %v", err)
	}
}

func TestDiscard(t *testing.T) {
	r, dev, p := newTestRecorder(t)
	r.RequestAccess(context.Background())
	r.Start()
	dev.Emit("x")
	r.Stop()
	rec := drain(t, r, dev)

	r.Discard()
	if r.Recording() != nil {
		t.Error("Discard should clear the recording")
	}
	if p.playback {
		t.Error("Discard should hide playback")
	}
	if _, err := os.Stat(rec.PlaybackPath); err == nil {
		t.Error("playback file should be removed")
	}
}

func TestDurationUsesClock(t *testing.T) {
	dev := capturetest.New()
	p := &fakePresenter{}
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	r := New(dev, p, logger.Nop(), Options{
		PlaybackDir: t.TempDir(),
		Now:         func() time.Time { return now },
	})
	defer r.Close()

	r.RequestAccess(context.Background())
	r.Start()
	now = now.Add(3 * time.Second)
	r.Stop()
	rec := drain(t, r, dev)
	if rec.Duration != 3*time.Second {
		t.Errorf("duration = %v, want 3s", rec.Duration)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"audio/webm":               ".webm",
		"audio/webm;codecs=opus":   ".webm",
		"audio/wav":                ".wav",
		"application/octet-stream": ".bin",
	}
	for in, want := range tests {
		if got := extensionFor(in); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMediaTypeFor(t *testing.T) {
	tests := map[string]string{
		".webm": "audio/webm",
		".WAV":  "audio/wav",
		".opus": "audio/ogg",
		".mp3":  "audio/mpeg",
		".txt":  "application/octet-stream",
	}
	for in, want := range tests {
		if got := MediaTypeFor(in); got != want {
			t.Errorf("MediaTypeFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(rec.Data) != "RIFFdata" {
		t.Errorf("data = %q", rec.Data)
	}
	if rec.MediaType != "audio/wav" {
		t.Errorf("media type = %q, want audio/wav", rec.MediaType)
	}
	if rec.FileName != "memo.wav" {
		t.Errorf("file name = %q, want memo.wav", rec.FileName)
	}

	empty := filepath.Join(t.TempDir(), "empty.webm")
	os.WriteFile(empty, nil, 0o644)
	if _, err := LoadFile(empty); err == nil {
		t.Error("empty file should fail")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.webm")); err == nil {
		t.Error("missing file should fail")
	}
}
