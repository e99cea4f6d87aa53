/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/skald_radio/internal/events"
)

// NATSBus implements a NATS-backed event bus. Events are published on
// subjects named after the event type; the in-memory fallback keeps local
// subscribers served while NATS is unreachable.
type NATSBus struct {
	conn     *nats.Conn
	logger   zerolog.Logger
	fallback *events.Bus
	nodeID   string
	prefix   string
}

// NewNATSBus connects to the given NATS URL. With reconnect handling left to
// the client library, a failed initial connection is an error; the caller
// may then fall back to the in-memory bus.
func NewNATSBus(url, nodeID string, fallback *events.Bus, logger zerolog.Logger) (*NATSBus, error) {
	log := logger.With().Str("component", "nats_bus").Logger()

	conn, err := nats.Connect(url,
		nats.Name("skald-radio-"+nodeID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", url, err)
	}

	log.Info().Str("url", url).Msg("NATS event bus initialized")
	return &NATSBus{
		conn:     conn,
		logger:   log,
		fallback: fallback,
		nodeID:   nodeID,
		prefix:   "skald.events.",
	}, nil
}

// Publish sends an event payload to local subscribers and to NATS.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.fallback.Publish(eventType, payload)

	data, err := json.Marshal(busMessage{NodeID: nb.nodeID, Event: string(eventType), Payload: payload})
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	if err := nb.conn.Publish(nb.prefix+string(eventType), data); err != nil {
		nb.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to NATS")
	}
}

// Close drains and closes the NATS connection.
func (nb *NATSBus) Close() error {
	if err := nb.conn.Drain(); err != nil {
		nb.conn.Close()
		return err
	}
	return nil
}
