/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus provides distributed event bus backends. Each backend
// mirrors every publish onto an in-process fallback bus, so local
// subscribers keep working when the broker is down.
package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/skald_radio/internal/events"
)

// busMessage is the wire form of a distributed event.
type busMessage struct {
	NodeID  string         `json:"node_id"`
	Event   string         `json:"event"`
	Payload events.Payload `json:"payload"`
}

// RedisBus implements a Redis-backed event bus with a circuit breaker that
// degrades to the in-memory bus after repeated failures.
type RedisBus struct {
	client   *redis.Client
	logger   zerolog.Logger
	fallback *events.Bus
	nodeID   string

	mu          sync.Mutex
	failCount   int
	maxFails    int
	useFallback bool

	ctx    context.Context
	cancel context.CancelFunc
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisBus creates a Redis-backed event bus. When the initial ping fails
// the bus starts in fallback mode rather than erroring out.
func NewRedisBus(cfg RedisConfig, nodeID string, fallback *events.Bus, logger zerolog.Logger) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rb := &RedisBus{
		client:   client,
		logger:   logger.With().Str("component", "redis_bus").Logger(),
		fallback: fallback,
		nodeID:   nodeID,
		maxFails: 5,
		ctx:      ctx,
		cancel:   cancel,
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		rb.logger.Warn().Err(err).Msg("Redis connection failed, using in-memory fallback")
		rb.useFallback = true
	} else {
		rb.logger.Info().Str("addr", cfg.Addr).Msg("Redis event bus initialized")
	}

	return rb
}

// Publish sends an event payload to local subscribers and to Redis.
func (rb *RedisBus) Publish(eventType events.EventType, payload events.Payload) {
	rb.fallback.Publish(eventType, payload)

	rb.mu.Lock()
	degraded := rb.useFallback
	rb.mu.Unlock()
	if degraded {
		return
	}

	data, err := json.Marshal(busMessage{NodeID: rb.nodeID, Event: string(eventType), Payload: payload})
	if err != nil {
		rb.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(rb.ctx, 2*time.Second)
	defer cancel()

	if err := rb.client.Publish(ctx, string(eventType), data).Err(); err != nil {
		rb.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to Redis")
		rb.handleFailure()
		return
	}

	rb.mu.Lock()
	rb.failCount = 0
	rb.mu.Unlock()
}

// Close closes the Redis connection.
func (rb *RedisBus) Close() error {
	rb.cancel()
	return rb.client.Close()
}

// handleFailure implements the circuit breaker.
func (rb *RedisBus) handleFailure() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.failCount++
	if rb.failCount >= rb.maxFails && !rb.useFallback {
		rb.logger.Warn().
			Int("fail_count", rb.failCount).
			Msg("Redis failure threshold reached, switching to in-memory fallback")
		rb.useFallback = true
	}
}
