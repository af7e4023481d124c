// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package mrelay

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

// Operating modes of the relay.
const (
	// ModeListen accepts inbound connections and dials the target per
	// connection.
	ModeListen = "listen"
	// ModeBridge dials both endpoints itself and retries indefinitely.
	ModeBridge = "bridge"
)

// Default chunk sizes per operating mode.
const (
	listenChunkSize = 8192
	bridgeChunkSize = 1024
)

var (
	// ErrMissingAddress indicates a missing listen/source address.
	ErrMissingAddress = errors.New("relay address not configured")
	// ErrMissingTarget indicates a missing target address.
	ErrMissingTarget = errors.New("relay target not configured")
	// ErrSameEndpoint indicates identical relay endpoints.
	ErrSameEndpoint = errors.New("relay address and target address must differ")
	// ErrUnknownMode indicates an unsupported operating mode.
	ErrUnknownMode = errors.New("unknown relay mode")
)

type Config struct {
	Address      string        `env:"ADDRESS"       envDefault:""`
	Target       string        `env:"TARGET"        envDefault:""`
	Mode         string        `env:"MODE"          envDefault:"listen"`
	BufferSize   int           `env:"BUFFER_SIZE"   envDefault:"0"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT"  envDefault:"5s"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"5s"`
	LogLevel     string        `env:"LOG_LEVEL"     envDefault:"info"`
}

func NewConfig(opts env.Options) (Config, error) {
	c := Config{}
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the endpoint preconditions before the relay starts.
// Both addresses must be set and must differ.
func (c Config) Validate() error {
	if c.Address == "" {
		return ErrMissingAddress
	}
	if c.Target == "" {
		return ErrMissingTarget
	}
	if c.Address == c.Target {
		return ErrSameEndpoint
	}
	if c.Mode != ModeListen && c.Mode != ModeBridge {
		return ErrUnknownMode
	}
	return nil
}

// ChunkSize returns the configured read chunk size, falling back to the
// per-mode default when unset.
func (c Config) ChunkSize() int {
	if c.BufferSize > 0 {
		return c.BufferSize
	}
	if c.Mode == ModeBridge {
		return bridgeChunkSize
	}
	return listenChunkSize
}
