package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"github.com/myuser/astrobase/internal/config"
	"github.com/myuser/astrobase/internal/metrics"
	"github.com/myuser/astrobase/internal/server"
	"github.com/myuser/astrobase/internal/storage"
)

func main() {
	configFile := flag.String("config", config.DefaultFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Astrobase key-value database server\n\nUsage: %s [-config FILE] [run]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 || (flag.NArg() == 1 && flag.Arg(0) != "run") {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := cfg.Logger()

	backend, err := storage.Open(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open storage")
	}

	stats := metrics.NewStats(metrics.NewRegistry())
	n, err := backend.Len()
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("failed to read storage")
	}
	stats.SetRecords(n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interval := cfg.MonitoringInterval(); interval > 0 {
		go stats.Run(ctx, interval, logger)
	}
	svc := server.New(backend, stats, logger)
	if interval := cfg.CompactionInterval(); interval > 0 {
		if c, ok := backend.(server.Compacter); ok {
			go svc.RunCompactor(ctx, c, interval)
		} else {
			logger.Warn().Str("backend", cfg.Storage.Backend).Msg("compaction not supported by backend")
		}
	}

	srv := &http.Server{
		Addr:    cfg.Server.Endpoint,
		Handler: svc.Handler(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("endpoint", cfg.Server.Endpoint).Msg("listen failed")
		}
	}()
	logger.Info().Str("endpoint", cfg.Server.Endpoint).Str("backend", cfg.Storage.Backend).Int("records", n).Msg("ready")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	stats.Dump(logger)
	logger.Info().Msg("done")
}

// loadConfig reads the config file. A missing default file falls back to
// the built-in defaults; a missing file named on the command line is an error.
func loadConfig(filename string) (config.Astrobase, error) {
	cfg, err := config.Load(filename)
	if errors.Is(err, fs.ErrNotExist) && !flagSet("config") {
		return config.Default(), nil
	}
	return cfg, err
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
