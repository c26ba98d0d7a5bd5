// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/JuliaLoth/slimmermetai-sub004/internal/config"
	"github.com/JuliaLoth/slimmermetai-sub004/internal/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version = "dev"
)

func main() {
	loadLocalEnv()

	cmd := &cli.Command{
		Name:    "slimmermetai",
		Usage:   "SlimmerMetAI web application",
		Version: Version,
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server (default)",
				Action: server.Run,
			},
			migrateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadLocalEnv reads a .env file when present. Variables already set in
// the environment win.
func loadLocalEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
}
