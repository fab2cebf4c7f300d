package main

import (
	"log"
	"log/slog"
	"os"

	"rest-gateway/config"
)

func setupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(config.NewLogHandler(cfg, os.Stdout)))

	log.SetFlags(0)
	log.SetOutput(
		slog.NewLogLogger(
			slog.Default().Handler(),
			slog.LevelInfo,
		).Writer(),
	)
}
