//go:build !portaudio

package capture

import (
	"fmt"

	"github.com/alexrolguin/voicebox/internal/logger"
)

// NewPortAudio reports that this binary was built without PortAudio.
func NewPortAudio(opts Options, log *logger.Logger) (Device, error) {
	return nil, fmt.Errorf("portaudio backend not available: rebuild with -tags portaudio")
}
