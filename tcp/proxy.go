// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package tcp drives the relay in its two operating modes: Listen
// accepts inbound connections and dials the target per connection,
// Bridge dials both endpoints itself and retries with a fixed backoff.
package tcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/absmach/mrelay"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Listen binds the relay address and pairs every accepted connection
// with a fresh connection to the target. This will block until ctx is
// cancelled.
func Listen(ctx context.Context, config mrelay.Config, streamer mrelay.Streamer, logger *slog.Logger) error {
	l, err := net.Listen("tcp", config.Address)
	if err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("Relay server started at %s, forwarding to %s", config.Address, config.Target))
	g, ctx := errgroup.WithContext(ctx)

	// Acceptor loop
	g.Go(func() error {
		return accept(ctx, streamer, config, l, logger)
	})

	g.Go(func() error {
		<-ctx.Done()
		return l.Close()
	})
	if err := g.Wait(); err != nil {
		logger.Info(fmt.Sprintf("Relay server at %s exiting with errors", config.Address), slog.String("error", err.Error()))
	} else {
		logger.Info(fmt.Sprintf("Relay server at %s exiting...", config.Address))
	}
	return nil
}

func accept(ctx context.Context, streamer mrelay.Streamer, config mrelay.Config, l net.Listener, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			in, err := l.Accept()
			if err != nil {
				logger.Warn("Accept error " + err.Error())
				continue
			}
			logger.Info("Accepted new client " + in.RemoteAddr().String())
			go func() {
				defer close(in, logger)
				out, err := net.DialTimeout("tcp", config.Target, config.DialTimeout)
				if err != nil {
					logger.Error("Cannot connect to target " + config.Target + " due to: " + err.Error())
					return
				}
				defer close(out, logger)

				sctx := mrelay.NewContext(ctx, newSession(in, out))
				// A session failure never terminates the acceptor.
				if err := streamer.Stream(sctx, in, out); err != nil {
					logger.Warn(err.Error())
				}
			}()
		}
	}
}

// Bridge dials both configured endpoints itself and relays between
// them, one session at a time. A failed dial of either side discards
// the partial pair and retries after a fixed backoff; a finished
// session is followed immediately by a new dial attempt. This will
// block until ctx is cancelled.
func Bridge(ctx context.Context, config mrelay.Config, streamer mrelay.Streamer, logger *slog.Logger) error {
	logger.Info(fmt.Sprintf("Relay bridge started between %s and %s", config.Address, config.Target))
	for {
		select {
		case <-ctx.Done():
			logger.Info(fmt.Sprintf("Relay bridge between %s and %s exiting...", config.Address, config.Target))
			return nil
		default:
		}

		in, out, err := dialPair(config)
		if err != nil {
			logger.Error("Cannot establish bridge due to: " + err.Error())
			select {
			case <-ctx.Done():
			case <-time.After(config.RetryBackoff):
			}
			continue
		}

		logger.Info(fmt.Sprintf("Bridge established between %s and %s", config.Address, config.Target))
		sctx := mrelay.NewContext(ctx, newSession(in, out))
		if err := streamer.Stream(sctx, in, out); err != nil {
			logger.Warn(err.Error())
		}
		close(in, logger)
		close(out, logger)
	}
}

// dialPair connects both bridge endpoints. Partial success is not
// reused: if the second dial fails the first connection is closed and
// the whole attempt is retried.
func dialPair(config mrelay.Config) (net.Conn, net.Conn, error) {
	in, err := net.Dial("tcp", config.Address)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", config.Address, err)
	}
	out, err := net.Dial("tcp", config.Target)
	if err != nil {
		in.Close()
		return nil, nil, fmt.Errorf("dial %s: %w", config.Target, err)
	}
	return in, out, nil
}

func newSession(in, out net.Conn) *mrelay.Session {
	return &mrelay.Session{
		ID:         uuid.NewString(),
		ClientAddr: in.RemoteAddr().String(),
		TargetAddr: out.RemoteAddr().String(),
	}
}

func close(conn net.Conn, logger *slog.Logger) {
	if err := conn.Close(); err != nil {
		logger.Warn(fmt.Sprintf("Error closing connection %s", err.Error()))
	}
}
