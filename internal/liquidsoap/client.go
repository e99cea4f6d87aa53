/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package liquidsoap implements the line-oriented command protocol spoken by
// the external audio engine. Every call opens a fresh connection, sends one
// command, and reads until the engine's END terminator. There is no pooling
// and no reconnect state machine; commands are infrequent and the caller
// decides what a failure means.
package liquidsoap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald_radio/internal/telemetry"
)

// Terminator marks the end of an engine response.
const Terminator = "END"

// ErrNoTerminator is returned when the connection closed or timed out before
// the terminator appeared.
var ErrNoTerminator = errors.New("liquidsoap: response ended without terminator")

// Client is a per-call TCP client for the engine command endpoint.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
	logger  zerolog.Logger
}

// New creates an engine client for addr (host:port).
func New(addr string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		logger:  logger.With().Str("component", "liquidsoap").Logger(),
	}
}

// Send writes command to the engine and reads the response up to and
// including the terminator. The terminator stays in the returned string for
// the caller to strip. A connect error, read timeout, or early close is
// returned as an error; no retries are attempted.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "liquidsoap", "Send")
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, command)
	telemetry.EngineCommandDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.EngineCommandErrorsTotal.Inc()
		telemetry.RecordError(span, err)
		c.logger.Warn().Err(err).Str("command", commandName(command)).Msg("engine command failed")
		return "", err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, command string) (string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.addr)
	if err != nil {
		return "", fmt.Errorf("dial engine %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	var buf strings.Builder
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if strings.Contains(buf.String(), Terminator) {
				return strings.TrimSpace(buf.String()), nil
			}
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNoTerminator, err)
		}
	}
}

// IsEngineError reports whether a response carries the engine's protocol
// level failure marker. The check is substring based regardless of where the
// terminator sits.
func IsEngineError(response string) bool {
	return strings.Contains(response, "ERROR")
}

// commandName trims command arguments for log and metric labels, so file
// paths never leak into label cardinality.
func commandName(command string) string {
	if i := strings.IndexByte(command, ' '); i > 0 {
		return command[:i]
	}
	return command
}
