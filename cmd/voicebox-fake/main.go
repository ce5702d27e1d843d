package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexrolguin/voicebox/internal/fakeserver"
	"github.com/alexrolguin/voicebox/internal/logger"
)

func main() {
	var (
		addr     string
		logLevel string
		debug    bool
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:5000", "Listen address")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flag.BoolVar(&debug, "debug", false, "Run gin in debug mode")
	flag.Parse()

	logCfg := logger.Config{Level: logLevel, Format: "console", Output: "stderr", Timestamp: true}
	logCfg.ApplyDefaults()
	log := logger.New(&logCfg, "voicebox-fake")
	defer log.Close()

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	fake := fakeserver.New(fakeserver.WithLogger(log))
	srv := &http.Server{
		Addr:              addr,
		Handler:           fake.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", logger.Fields("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down", logger.Fields("transcriptions", len(fake.Records())))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}
