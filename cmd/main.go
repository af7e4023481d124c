// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/absmach/mrelay"
	"github.com/absmach/mrelay/pkg/tap"
	"github.com/absmach/mrelay/tcp"
	"github.com/caarlos0/env/v10"
	"golang.org/x/sync/errgroup"
)

const (
	svcName   = "mrelay"
	envPrefix = "MRELAY_"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := mrelay.NewConfig(env.Options{Prefix: envPrefix})
	if err != nil {
		log.Fatalf("failed to load %s configuration: %s", svcName, err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level %q: %s", cfg.LogLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	streamer := tap.New(cfg.ChunkSize(), logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		switch cfg.Mode {
		case mrelay.ModeBridge:
			return tcp.Bridge(ctx, cfg, streamer, logger)
		default:
			return tcp.Listen(ctx, cfg, streamer, logger)
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
		os.Exit(1)
	}
}
