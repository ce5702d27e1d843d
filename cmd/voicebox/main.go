package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexrolguin/voicebox/internal/api"
	"github.com/alexrolguin/voicebox/internal/app"
	"github.com/alexrolguin/voicebox/internal/capture"
	"github.com/alexrolguin/voicebox/internal/config"
	apperrors "github.com/alexrolguin/voicebox/internal/errors"
	"github.com/alexrolguin/voicebox/internal/logger"
	"github.com/alexrolguin/voicebox/internal/recorder"
	"github.com/alexrolguin/voicebox/internal/transcripts"
)

const usageText = `Usage: voicebox [flags] [command]

Commands:
  tui            record, upload and browse transcriptions (default)
  list           print the transcription history, newest first
  show <id>      print one transcription
  upload <file>  upload an existing audio file

Flags:
`

func fail(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, "voicebox: "+msg+"\n", a...)
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configFile string
		envFile    string
		serverURL  string
		backend    string
		device     string
		logLevel   string
	)

	flag.StringVar(&configFile, "config", "", "Config file path (default: search for config.yml)")
	flag.StringVar(&envFile, "env", "", "Env file path (default: ./.env if present)")
	flag.StringVar(&serverURL, "server", "", "Transcription server base URL")
	flag.StringVar(&backend, "backend", "", "Capture backend: ffmpeg|portaudio")
	flag.StringVar(&device, "device", "", "Capture input device")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fail("%v", err)
		return 1
	}

	if serverURL != "" {
		cfg.Server.BaseURL = serverURL
	}
	if backend != "" {
		cfg.Capture.Backend = backend
	}
	if device != "" {
		cfg.Capture.Device = device
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fail("%v", err)
		return 1
	}

	command := "tui"
	args := flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	log := logger.New(&cfg.Log, "voicebox")
	defer log.Close()

	client, err := api.New(api.Config{
		BaseURL:     cfg.Server.BaseURL,
		UploadPath:  cfg.Server.UploadPath,
		HistoryPath: cfg.Server.HistoryPath,
		Timeout:     cfg.Server.Timeout,
		FieldName:   cfg.Server.FieldName,
		FileName:    cfg.Server.FileName,
	}, log)
	if err != nil {
		fail("%v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "tui":
		err = runTUI(cfg, client, log)
	case "list":
		err = runList(ctx, client)
	case "show":
		err = runShow(ctx, client, args)
	case "upload":
		err = runUpload(ctx, client, args)
	default:
		fail("unknown command: %s", command)
		flag.Usage()
		return 2
	}
	if err != nil {
		fail("%s", describe(err))
		return 1
	}
	return 0
}

func runTUI(cfg *config.Config, client *api.Client, log *logger.Logger) error {
	dev, err := capture.New(capture.Options{
		Backend:       cfg.Capture.Backend,
		Device:        cfg.Capture.Device,
		InputFormat:   cfg.Capture.InputFormat,
		SampleRate:    cfg.Capture.SampleRate,
		Channels:      cfg.Capture.Channels,
		ChunkInterval: cfg.Capture.ChunkInterval,
		FFmpegPath:    cfg.Capture.FFmpegPath,
	}, log)
	if err != nil {
		return err
	}

	m := app.New(app.Options{
		Device:      dev,
		Service:     client,
		Log:         log,
		PlaybackDir: cfg.Playback.Dir,
		ServerURL:   cfg.Server.BaseURL,
		DeviceName:  cfg.Capture.Device,
	})
	log.Info("starting tui", logger.Fields("backend", cfg.Capture.Backend, "server", cfg.Server.BaseURL))

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func runList(ctx context.Context, client *api.Client) error {
	recs, err := client.Transcriptions(ctx)
	if err != nil {
		return err
	}
	list := transcripts.NewList()
	list.LoadBatch(recs)

	for _, e := range list.Items() {
		if e.Placeholder {
			fmt.Println(e.Text)
			continue
		}
		fmt.Printf("%s  %s\n  %s\n", e.Label, e.Timestamp, e.Text)
	}
	return nil
}

func runShow(ctx context.Context, client *api.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: voicebox show <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}
	rec, err := client.Transcription(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Recording #%d  %s\n", rec.ID, transcripts.FormatTimestamp(rec.Timestamp))
	if rec.Filename != "" {
		fmt.Printf("File: %s\n", rec.Filename)
	}
	fmt.Println()
	fmt.Println(rec.Transcription)
	return nil
}

func runUpload(ctx context.Context, client *api.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: voicebox upload <file>")
	}
	rec, err := recorder.LoadFile(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Uploading %s (%d bytes)...\n", rec.FileName, rec.Size())
	tr, err := client.Upload(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Printf("Recording #%d  %s\n\n%s\n", tr.ID, transcripts.FormatTimestamp(tr.Timestamp), tr.Transcription)
	return nil
}

// describe prefers the user-facing message of an AppError.
func describe(err error) string {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return err.Error()
	}
	if appErr.Cause == nil || (appErr.UserFacing() && appErr.Code != apperrors.ErrCodeConfig) {
		return appErr.Message
	}
	return appErr.Message + ": " + appErr.Cause.Error()
}
