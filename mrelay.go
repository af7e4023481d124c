// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package mrelay provides a transparent TCP relay. It pairs an inbound
// connection with an outbound one and copies bytes in both directions,
// logging traffic volume and best-effort protocol annotations along the
// way. The relay never alters the bytes it forwards.
package mrelay

import (
	"context"
	"net"
)

// Streamer is used for streaming traffic between two connections.
type Streamer interface {
	// Stream relays the traffic between conn1 and conn2 in both
	// directions until both have terminated. It returns the first
	// failure encountered, or nil if both directions ended cleanly.
	Stream(ctx context.Context, conn1, conn2 net.Conn) error
}

// Session identifies one relayed connection pair.
type Session struct {
	ID         string
	ClientAddr string
	TargetAddr string
}

type sessionKey struct{}

// NewContext stores Session in context.Context values.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext retrieves Session from context.Context.
func FromContext(ctx context.Context) (*Session, bool) {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s, true
	}
	return nil, false
}
