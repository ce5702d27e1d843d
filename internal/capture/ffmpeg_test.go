package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/alexrolguin/voicebox/internal/logger"
)

// TestHelperProcess stands in for ffmpeg. It is not a real test.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("VOICEBOX_WANT_HELPER") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}

	// probe mode: "-f null -"
	if len(args) > 0 && args[len(args)-1] == "-" {
		if os.Getenv("VOICEBOX_PROBE_FAIL") == "1" {
			fmt.Fprintln(os.Stderr, "default: Permission denied")
			os.Exit(1)
		}
		os.Exit(0)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	os.Stdout.Write([]byte("chunk-a"))
	time.Sleep(30 * time.Millisecond)
	os.Stdout.Write([]byte("chunk-b"))
	<-sig
	os.Stdout.Write([]byte("trailer"))
	os.Exit(255)
}

func helperFFmpeg(t *testing.T, probeFail bool) *FFmpeg {
	t.Helper()
	f := NewFFmpeg(Options{
		InputFormat:   "pulse",
		Device:        "default",
		SampleRate:    48000,
		Channels:      1,
		ChunkInterval: 10 * time.Millisecond,
	}, logger.Nop())
	f.lookPath = func(string) (string, error) { return os.Args[0], nil }
	f.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "VOICEBOX_WANT_HELPER=1")
		if probeFail {
			cmd.Env = append(cmd.Env, "VOICEBOX_PROBE_FAIL=1")
		}
		return cmd
	}
	return f
}

func TestFFmpegOpenProbe(t *testing.T) {
	f := helperFFmpeg(t, false)
	defer f.Close()
	if err := f.Open(context.Background()); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
}

func TestFFmpegOpenProbeFailure(t *testing.T) {
	f := helperFFmpeg(t, true)
	defer f.Close()
	err := f.Open(context.Background())
	if err == nil {
		t.Fatal("expected probe failure")
	}
	if !strings.Contains(err.Error(), "Permission denied") {
		t.Errorf("error = %v, want ffmpeg stderr included", err)
	}
}

func TestFFmpegOpenMissingBinary(t *testing.T) {
	f := helperFFmpeg(t, false)
	defer f.Close()
	f.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	if err := f.Open(context.Background()); err == nil {
		t.Fatal("expected error when ffmpeg is missing")
	}
}

func TestFFmpegSessionConcatenatesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("interrupt signal not supported on windows")
	}
	f := helperFFmpeg(t, false)
	defer f.Close()

	if err := f.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := f.Start(); err == nil {
		t.Error("second Start() should fail while recording")
	}

	var got bytes.Buffer
	deadline := time.After(5 * time.Second)
	stopped := false
	for !stopped {
		select {
		case ev := <-f.Events():
			switch ev.Kind {
			case EventData:
				got.Write(ev.Data)
				if strings.Contains(got.String(), "chunk-b") {
					if err := f.Stop(); err != nil {
						t.Fatalf("Stop() error: %v", err)
					}
				}
			case EventStopped:
				stopped = true
			case EventError:
				t.Fatalf("unexpected error event: %v", ev.Err)
			}
		case <-deadline:
			t.Fatalf("timed out, got %q", got.String())
		}
	}

	if got.String() != "chunk-achunk-btrailer" {
		t.Errorf("output = %q, want %q", got.String(), "chunk-achunk-btrailer")
	}
	if err := f.Stop(); err == nil {
		t.Error("Stop() after session end should fail")
	}
}

func TestFFmpegArgs(t *testing.T) {
	f := NewFFmpeg(Options{InputFormat: "alsa", Device: "hw:1", SampleRate: 16000, Channels: 2}, logger.Nop())
	args := strings.Join(append(f.inputArgs(), f.outputArgs()...), " ")
	for _, want := range []string{"-f alsa", "-i hw:1", "-ac 2", "-ar 16000", "-c:a libopus", "-f webm", "pipe:1"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if f.MediaType() != "audio/webm" {
		t.Errorf("MediaType() = %q", f.MediaType())
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine([]byte("a\nb\nlast\n")); got != "last" {
		t.Errorf("lastLine = %q, want last", got)
	}
	if got := lastLine(nil); got != "" {
		t.Errorf("lastLine(nil) = %q", got)
	}
}
