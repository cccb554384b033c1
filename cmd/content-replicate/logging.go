package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/toothbrush/content-replicate/internal/logging"
)

var (
	Logger    = zerolog.Nop()
	logCloser io.Closer
)

func setupLogger() error {
	cfg := logging.DefaultConfig()
	if c := ParsedConfig.Logging; c.Level != "" || c.Format != "" || c.File != "" {
		cfg.Level = orDefault(c.Level, cfg.Level)
		if c.Format != "" {
			cfg.Format = c.Format
		}
		cfg.File = c.File
		if c.MaxSizeMB > 0 {
			cfg.MaxSizeMB = c.MaxSizeMB
		}
		if c.MaxBackups > 0 {
			cfg.MaxBackups = c.MaxBackups
		}
	}
	if Debug {
		cfg.Level = "debug"
	}

	logger, closer, err := logging.New(cfg)
	if err != nil {
		return err
	}
	Logger = logger
	logCloser = closer
	return nil
}

func closeLogger() error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
