// Package config loads the server configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/phuslu/log"

	"github.com/myuser/astrobase/internal/storage"
)

const (
	DefaultFile     = "astrobase.json"
	DefaultEndpoint = "127.0.0.1:50051"
	DefaultDB       = "/tmp/astrobase.db"
)

type Server struct {
	Endpoint string `json:"endpoint"`
}

type Monitoring struct {
	Interval int64 `json:"interval"` // seconds
}

type Compaction struct {
	Interval int64 `json:"interval"` // seconds, 0 disables
}

// Astrobase is the main config.
type Astrobase struct {
	Environment string         `json:"environment"`
	LogLevel    string         `json:"log_level"`
	Server      Server         `json:"server"`
	Monitoring  Monitoring     `json:"monitoring"`
	Storage     storage.Config `json:"storage"`
	Compaction  Compaction     `json:"compaction"`
}

// Default returns the config used for every field the file leaves out.
func Default() Astrobase {
	return Astrobase{
		Environment: "development",
		LogLevel:    "info",
		Server:      Server{Endpoint: DefaultEndpoint},
		Monitoring:  Monitoring{Interval: 60},
		Storage:     storage.Config{Backend: storage.BackendPersistent, Path: DefaultDB},
	}
}

// Load reads and validates the config at filename.
func Load(filename string) (Astrobase, error) {
	text, err := os.ReadFile(filename)
	if err != nil {
		return Astrobase{}, fmt.Errorf("failed to read config '%s': %w", filename, err)
	}
	cfg := Default()
	if err := json.Unmarshal(text, &cfg); err != nil {
		return Astrobase{}, fmt.Errorf("failed to parse config '%s': %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return Astrobase{}, fmt.Errorf("invalid config '%s': %w", filename, err)
	}
	return cfg, nil
}

func (c Astrobase) Validate() error {
	if c.Server.Endpoint == "" {
		return fmt.Errorf("server.endpoint is empty")
	}
	switch c.Storage.Backend {
	case storage.BackendInMemory:
	case storage.BackendPersistent:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is empty")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Monitoring.Interval < 0 {
		return fmt.Errorf("monitoring.interval is negative")
	}
	if c.Compaction.Interval < 0 {
		return fmt.Errorf("compaction.interval is negative")
	}
	return nil
}

func (c Astrobase) MonitoringInterval() time.Duration {
	return time.Duration(c.Monitoring.Interval) * time.Second
}

func (c Astrobase) CompactionInterval() time.Duration {
	return time.Duration(c.Compaction.Interval) * time.Second
}

// Logger builds the process logger: colored console output in development,
// JSON lines on stderr otherwise.
func (c Astrobase) Logger() *log.Logger {
	logger := &log.Logger{
		Level: log.ParseLevel(c.LogLevel),
	}
	if c.Environment == "development" {
		logger.Writer = &log.ConsoleWriter{ColorOutput: true}
	} else {
		logger.Writer = &log.IOWriter{Writer: os.Stderr}
	}
	return logger
}
