package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/alexrolguin/voicebox/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. VOICEBOX_SERVER_BASE_URL.
const EnvPrefix = "VOICEBOX"

// LoaderConfig holds optional file overrides.
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads defaults, then config.yml, then .env and the environment, and
// returns a validated Config.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.ConfigFile != "" && !exists(lc.ConfigFile) {
		return nil, apperrors.Config(fmt.Errorf("config file %s not found", lc.ConfigFile))
	}
	if lc.ConfigFile == "" {
		lc.ConfigFile = findConfigFile()
	}
	if lc.EnvFile == "" && exists(".env") {
		lc.EnvFile = ".env"
	}

	// .env never overrides variables already set in the process.
	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return nil, apperrors.Config(fmt.Errorf("load env file %s: %w", lc.EnvFile, err))
		}
	}

	v := viper.New()
	setDefaults(v, Defaults())

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.Config(fmt.Errorf("read config file %s: %w", lc.ConfigFile, err))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Config(fmt.Errorf("unmarshal config: %w", err))
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Config(err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.upload_path", d.Server.UploadPath)
	v.SetDefault("server.history_path", d.Server.HistoryPath)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("server.field_name", d.Server.FieldName)
	v.SetDefault("server.file_name", d.Server.FileName)

	v.SetDefault("capture.backend", d.Capture.Backend)
	v.SetDefault("capture.device", d.Capture.Device)
	v.SetDefault("capture.input_format", d.Capture.InputFormat)
	v.SetDefault("capture.sample_rate", d.Capture.SampleRate)
	v.SetDefault("capture.channels", d.Capture.Channels)
	v.SetDefault("capture.chunk_interval", d.Capture.ChunkInterval)
	v.SetDefault("capture.ffmpeg_path", d.Capture.FFmpegPath)

	v.SetDefault("playback.dir", d.Playback.Dir)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "")
	v.SetDefault("log.output", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.caller", false)
}

// findConfigFile searches for config.yml in standard locations.
func findConfigFile() string {
	searchPaths := []string{
		"./config.yml",
		"./config/config.yml",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(dir, "voicebox", "config.yml"))
	}

	for _, path := range searchPaths {
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
