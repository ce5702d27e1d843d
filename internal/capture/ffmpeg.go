package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/alexrolguin/voicebox/internal/logger"
)

const probeTimeout = 5 * time.Second

// FFmpeg captures from the system input through an ffmpeg subprocess that
// encodes Opus into a WebM stream on stdout.
type FFmpeg struct {
	opts   Options
	log    *logger.Logger
	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	cmd    *exec.Cmd
	active bool
	wg     sync.WaitGroup
	closed bool

	// lookPath and command are swapped in tests.
	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewFFmpeg returns an ffmpeg-backed Device.
func NewFFmpeg(opts Options, log *logger.Logger) *FFmpeg {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.ChunkInterval <= 0 {
		opts.ChunkInterval = 250 * time.Millisecond
	}
	return &FFmpeg{
		opts:     opts,
		log:      log.WithComponent("capture.ffmpeg"),
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}
}

// Open checks that ffmpeg exists and that it can read from the input device.
func (f *FFmpeg) Open(ctx context.Context) error {
	bin, err := f.lookPath(f.opts.FFmpegPath)
	if err != nil {
		return fmt.Errorf("find ffmpeg: %w", err)
	}
	f.opts.FFmpegPath = bin

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := append(f.inputArgs(), "-t", "0.1", "-f", "null", "-")
	out, err := f.command(ctx, bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("probe input %s:%s: %w: %s", f.opts.InputFormat, f.opts.Device, err, lastLine(out))
	}
	f.log.Info("input device ready", logger.Fields("device", f.opts.Device, "format", f.opts.InputFormat))
	return nil
}

// Start launches ffmpeg and streams its stdout as chunks.
func (f *FFmpeg) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("device closed")
	}
	if f.active {
		return fmt.Errorf("already recording")
	}

	args := append(f.inputArgs(), f.outputArgs()...)
	cmd := f.command(context.Background(), f.opts.FFmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	f.cmd = cmd
	f.active = true
	f.wg.Add(1)
	go f.pump(cmd, stdout)
	return nil
}

// pump copies ffmpeg output into the emitter until the process exits.
func (f *FFmpeg) pump(cmd *exec.Cmd, stdout io.Reader) {
	defer f.wg.Done()

	em := newEmitter(f.events, f.done)
	stopTicks := make(chan struct{})
	go em.run(f.opts.ChunkInterval, stopTicks)

	_, copyErr := io.Copy(em, stdout)
	waitErr := cmd.Wait()
	close(stopTicks)
	em.Flush()

	f.mu.Lock()
	f.active = false
	f.cmd = nil
	f.mu.Unlock()

	// ffmpeg exits non-zero when interrupted; only a copy failure is fatal.
	if copyErr != nil && !errors.Is(copyErr, os.ErrClosed) {
		em.send(Event{Kind: EventError, Err: fmt.Errorf("read ffmpeg output: %w", copyErr)})
	} else if waitErr != nil {
		f.log.Debug("ffmpeg exited", logger.Fields("error", waitErr.Error()))
	}
	em.send(Event{Kind: EventStopped})
}

// Stop interrupts ffmpeg so it writes the container trailer and exits.
func (f *FFmpeg) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.active || f.cmd == nil || f.cmd.Process == nil {
		return fmt.Errorf("not recording")
	}
	if runtime.GOOS == "windows" {
		return f.cmd.Process.Kill()
	}
	if err := f.cmd.Process.Signal(os.Interrupt); err != nil {
		return f.cmd.Process.Kill()
	}
	return nil
}

// Events returns the event channel.
func (f *FFmpeg) Events() <-chan Event { return f.events }

// MediaType reports WebM audio.
func (f *FFmpeg) MediaType() string { return "audio/webm" }

// Close stops any session and closes the event channel.
func (f *FFmpeg) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	if f.active && f.cmd != nil && f.cmd.Process != nil {
		_ = f.cmd.Process.Kill()
	}
	f.mu.Unlock()

	close(f.done)
	f.wg.Wait()
	close(f.events)
	return nil
}

func (f *FFmpeg) inputArgs() []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", f.opts.InputFormat,
		"-i", f.opts.Device,
	}
}

func (f *FFmpeg) outputArgs() []string {
	return []string{
		"-ac", strconv.Itoa(f.opts.Channels),
		"-ar", strconv.Itoa(f.opts.SampleRate),
		"-c:a", "libopus",
		"-f", "webm",
		"-flush_packets", "1",
		"pipe:1",
	}
}

func lastLine(out []byte) string {
	end := len(out)
	for end > 0 && (out[end-1] == '\n' || out[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && out[start-1] != '\n' {
		start--
	}
	return string(out[start:end])
}
