//go:build portaudio

package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/alexrolguin/voicebox/internal/logger"
)

// PortAudio captures 16-bit PCM through the PortAudio C library and emits a
// streaming WAV: the first chunk of every session starts with the header.
type PortAudio struct {
	opts   Options
	log    *logger.Logger
	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	device  *portaudio.DeviceInfo
	stream  *portaudio.Stream
	stopReq chan struct{}
	active  bool
	opened  bool
	closed  bool
	wg      sync.WaitGroup
}

// NewPortAudio returns a PortAudio-backed Device.
func NewPortAudio(opts Options, log *logger.Logger) (Device, error) {
	return &PortAudio{
		opts:   opts,
		log:    log.WithComponent("capture.portaudio"),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}, nil
}

// Open initializes PortAudio and resolves the input device.
func (p *PortAudio) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opened {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}

	dev, err := p.resolveDevice()
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}
	if dev.MaxInputChannels < p.opts.Channels {
		_ = portaudio.Terminate()
		return fmt.Errorf("device %q has %d input channels, need %d", dev.Name, dev.MaxInputChannels, p.opts.Channels)
	}

	p.device = dev
	p.opened = true
	p.log.Info("input device ready", logger.Fields("device", dev.Name))
	return nil
}

func (p *PortAudio) resolveDevice() (*portaudio.DeviceInfo, error) {
	if p.opts.Device == "" || p.opts.Device == "default" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return dev, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.EqualFold(d.Name, p.opts.Device) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", p.opts.Device)
}

// Start opens a blocking stream and reads one buffer per chunk interval.
func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.opened || p.closed {
		return fmt.Errorf("device not open")
	}
	if p.active {
		return fmt.Errorf("already recording")
	}

	frames := int(float64(p.opts.SampleRate) * p.opts.ChunkInterval.Seconds())
	buf := make([]int16, frames*p.opts.Channels)

	params := portaudio.LowLatencyParameters(p.device, nil)
	params.Input.Channels = p.opts.Channels
	params.SampleRate = float64(p.opts.SampleRate)
	params.FramesPerBuffer = frames

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	p.stream = stream
	p.stopReq = make(chan struct{})
	p.active = true
	p.wg.Add(1)
	go p.read(stream, buf, p.stopReq)
	return nil
}

func (p *PortAudio) read(stream *portaudio.Stream, buf []int16, stop <-chan struct{}) {
	defer p.wg.Done()
	em := newEmitter(p.events, p.done)

	_, _ = em.Write(wavHeader(p.opts.SampleRate, p.opts.Channels, 16))
	for {
		select {
		case <-stop:
			_ = stream.Stop()
			_ = stream.Close()
			em.Flush()
			p.mu.Lock()
			p.active = false
			p.stream = nil
			p.mu.Unlock()
			em.send(Event{Kind: EventStopped})
			return
		default:
		}

		if err := stream.Read(); err != nil && err != portaudio.InputOverflowed {
			em.send(Event{Kind: EventError, Err: fmt.Errorf("read stream: %w", err)})
			continue
		}
		_, _ = em.Write(pcm16Bytes(buf))
		em.Flush()
	}
}

// Stop ends the current session after the in-flight buffer.
func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return fmt.Errorf("not recording")
	}
	p.requestStop()
	return nil
}

// requestStop closes stopReq once. Callers hold p.mu.
func (p *PortAudio) requestStop() {
	select {
	case <-p.stopReq:
	default:
		close(p.stopReq)
	}
}

// Events returns the event channel.
func (p *PortAudio) Events() <-chan Event { return p.events }

// MediaType reports WAV audio.
func (p *PortAudio) MediaType() string { return "audio/wav" }

// Close stops any session, terminates PortAudio and closes the event channel.
func (p *PortAudio) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.active {
		p.requestStop()
	}
	opened := p.opened
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
	close(p.events)
	if opened {
		return portaudio.Terminate()
	}
	return nil
}
