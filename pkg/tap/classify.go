// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tap

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"
)

var httpPrefixes = []string{"HTTP/", "GET ", "POST "}

// classify emits best-effort protocol annotations for a chunk. It is
// stateless per chunk, so a signature split across two reads is missed.
// Annotations never gate the relay.
func (s *streamer) classify(ctx context.Context, dir direction, chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if chunk[0] == 'Q' {
		s.logger.Info("Possible database query detected",
			slog.String("direction", dir.String()),
			sessionAttr(ctx),
		)
		return
	}
	if !utf8.Valid(chunk) {
		return
	}
	text := string(chunk)
	for _, prefix := range httpPrefixes {
		if strings.HasPrefix(text, prefix) {
			line, _, _ := strings.Cut(text, "\n")
			s.logger.Info("HTTP traffic detected",
				slog.String("direction", dir.String()),
				slog.String("first_line", strings.TrimRight(line, "\r")),
				sessionAttr(ctx),
			)
			return
		}
	}
}

// printable renders a chunk with non-printable, non-whitespace bytes
// substituted by '.'.
func printable(chunk []byte) string {
	var b strings.Builder
	b.Grow(len(chunk))
	for _, c := range chunk {
		switch {
		case c > 0x20 && c < 0x7f:
			b.WriteByte(c)
		case c == ' ', c == '\t', c == '\n', c == '\f', c == '\r':
			b.WriteByte(c)
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}
