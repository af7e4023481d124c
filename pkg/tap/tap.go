// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package tap implements the relay streaming engine. It copies bytes
// between the two connections of a session, one goroutine per
// direction, and logs volume, hex dumps and protocol annotations for
// every chunk that passes through.
package tap

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/absmach/mrelay"
)

// DefaultChunkSize is the read chunk size used when none is configured.
const DefaultChunkSize = 8192

type direction int

const (
	up direction = iota
	down
)

func (d direction) String() string {
	switch d {
	case up:
		return "client to target"
	case down:
		return "target to client"
	default:
		return "unknown"
	}
}

const unknownID = "unknown"

var (
	errUp   = "failed to relay from client to target for session %s: %s"
	errDown = "failed to relay from target to client for session %s: %s"
)

type streamer struct {
	chunkSize int
	logger    *slog.Logger
}

// New returns a Streamer that relays raw bytes between two connections,
// reading at most chunkSize bytes at a time.
func New(chunkSize int, logger *slog.Logger) mrelay.Streamer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &streamer{
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Stream starts the relay between conn1 and conn2.
func (s *streamer) Stream(ctx context.Context, conn1, conn2 net.Conn) error {
	// In parallel read from the client, send to the target
	// and read from the target, send to the client.
	errs := make(chan error, 2)

	go s.forward(ctx, up, conn1, conn2, errs)
	go s.forward(ctx, down, conn2, conn1, errs)

	// Wait for both directions. Neither goroutine blocks on its send
	// because the channel is buffered.
	return errors.Join(<-errs, <-errs)
}

func (s *streamer) forward(ctx context.Context, dir direction, src, dst net.Conn, errs chan error) {
	buf := make([]byte, s.chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			s.logger.Info("Relayed chunk",
				slog.String("direction", dir.String()),
				slog.Int("bytes", n),
				sessionAttr(ctx),
			)
			s.logger.Debug("Chunk dump",
				slog.String("direction", dir.String()),
				slog.String("hex", hex.EncodeToString(chunk)),
				slog.String("ascii", printable(chunk)),
				sessionAttr(ctx),
			)
			s.classify(ctx, dir, chunk)

			if err := writeFull(dst, chunk); err != nil {
				s.logger.Error("Failed to write chunk",
					slog.String("direction", dir.String()),
					slog.Any("error", err),
					sessionAttr(ctx),
				)
				errs <- wrap(ctx, err, dir)
				return
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.logger.Info("Connection closed",
				slog.String("direction", dir.String()),
				sessionAttr(ctx),
			)
			errs <- nil
			return
		default:
			s.logger.Error("Failed to read chunk",
				slog.String("direction", dir.String()),
				slog.Any("error", err),
				sessionAttr(ctx),
			)
			errs <- wrap(ctx, err, dir)
			return
		}
	}
}

// writeFull writes the whole chunk in a single call. A short write is a
// failure for the direction; it is never completed with a follow-up
// write.
func writeFull(dst io.Writer, chunk []byte) error {
	n, err := dst.Write(chunk)
	if err != nil {
		return err
	}
	if n != len(chunk) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(chunk))
	}
	return nil
}

func sessionAttr(ctx context.Context) slog.Attr {
	if s, ok := mrelay.FromContext(ctx); ok {
		return slog.String("session", s.ID)
	}
	return slog.String("session", unknownID)
}

func wrap(ctx context.Context, err error, dir direction) error {
	sid := unknownID
	if s, ok := mrelay.FromContext(ctx); ok {
		sid = s.ID
	}
	switch dir {
	case up:
		return fmt.Errorf(errUp, sid, err.Error())
	case down:
		return fmt.Errorf(errDown, sid, err.Error())
	default:
		return err
	}
}
