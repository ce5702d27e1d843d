// Package config loads voicebox configuration from config.yml, .env and
// VOICEBOX_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alexrolguin/voicebox/internal/logger"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Capture  CaptureConfig  `yaml:"capture" mapstructure:"capture"`
	Playback PlaybackConfig `yaml:"playback" mapstructure:"playback"`
	Log      logger.Config  `yaml:"log" mapstructure:"log"`
}

// ServerConfig describes the transcription server.
type ServerConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	UploadPath  string        `yaml:"upload_path" mapstructure:"upload_path" validate:"required,startswith=/"`
	HistoryPath string        `yaml:"history_path" mapstructure:"history_path" validate:"required,startswith=/"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	FieldName   string        `yaml:"field_name" mapstructure:"field_name" validate:"required"`
	FileName    string        `yaml:"file_name" mapstructure:"file_name" validate:"required"`
}

// CaptureConfig selects and tunes the capture backend.
type CaptureConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend" validate:"oneof=ffmpeg portaudio"`
	Device        string        `yaml:"device" mapstructure:"device"`
	InputFormat   string        `yaml:"input_format" mapstructure:"input_format"`
	SampleRate    int           `yaml:"sample_rate" mapstructure:"sample_rate" validate:"min=8000,max=192000"`
	Channels      int           `yaml:"channels" mapstructure:"channels" validate:"min=1,max=2"`
	ChunkInterval time.Duration `yaml:"chunk_interval" mapstructure:"chunk_interval" validate:"gt=0"`
	FFmpegPath    string        `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
}

// PlaybackConfig controls where finalized recordings are written for playback.
type PlaybackConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:     "http://localhost:5000",
			UploadPath:  "/api/upload",
			HistoryPath: "/api/transcriptions",
			Timeout:     5 * time.Minute,
			FieldName:   "audio",
			FileName:    "recording.webm",
		},
		Capture: CaptureConfig{
			Backend:       "ffmpeg",
			SampleRate:    48000,
			Channels:      1,
			ChunkInterval: 250 * time.Millisecond,
			FFmpegPath:    "ffmpeg",
		},
	}
}

// ApplyDefaults fills zero values that depend on other fields.
func (c *Config) ApplyDefaults() {
	if c.Capture.InputFormat == "" {
		c.Capture.InputFormat = defaultInputFormat()
	}
	if c.Capture.Device == "" {
		c.Capture.Device = defaultDevice(c.Capture.InputFormat)
	}
	c.Log.ApplyDefaults()
}

var validate = validator.New()

// Validate checks struct tags and the nested logging config.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
