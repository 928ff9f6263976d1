// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRelayChannel is the pub/sub channel session changes travel on.
const DefaultRelayChannel = "randomweb:auth-events"

// RedisRelayOptions configures a RedisRelay.
type RedisRelayOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string
	// Channel defaults to DefaultRelayChannel.
	Channel string
	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// relayEnvelope is the wire form of a relayed ChangeEvent.
type relayEnvelope struct {
	Origin string      `json:"origin"`
	Event  ChangeEvent `json:"event"`
}

// RedisRelay shares session changes between application instances: local
// events are published to Redis and events from other instances are
// re-emitted on the local bus with Remote set.
type RedisRelay struct {
	client  *redis.Client
	bus     *Bus
	channel string
	origin  string
	logger  *slog.Logger

	mu          sync.Mutex
	unsubscribe Unsubscribe
	pubsub      *redis.PubSub
	done        chan struct{}
}

// NewRedisRelay connects to Redis and returns a relay for bus. Call Start to
// begin relaying.
func NewRedisRelay(bus *Bus, opts RedisRelayOptions) (*RedisRelay, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	if opts.Channel == "" {
		opts.Channel = DefaultRelayChannel
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisRelay{
		client:  client,
		bus:     bus,
		channel: opts.Channel,
		origin:  uuid.NewString(),
		logger:  opts.Logger,
	}, nil
}

// Start subscribes to the channel and to the local bus.
func (r *RedisRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pubsub != nil {
		return nil
	}

	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}

	r.pubsub = pubsub
	r.done = make(chan struct{})
	r.unsubscribe = r.bus.Subscribe(r.forward)

	go r.receive(pubsub.Channel(), r.done)

	r.logger.Info("session event relay started", "channel", r.channel, "origin", r.origin)
	return nil
}

// Stop detaches from the bus, closes the subscription and the client.
func (r *RedisRelay) Stop() {
	r.mu.Lock()
	pubsub, done, unsubscribe := r.pubsub, r.done, r.unsubscribe
	r.pubsub, r.unsubscribe = nil, nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if pubsub != nil {
		_ = pubsub.Close()
		<-done
	}
	if err := r.client.Close(); err != nil {
		r.logger.Warn("closing redis client", "error", err)
	}
	r.logger.Info("session event relay stopped")
}

// forward publishes a local event to Redis.
func (r *RedisRelay) forward(ev ChangeEvent) {
	if ev.Remote {
		return
	}
	payload, err := encodeEnvelope(r.origin, ev)
	if err != nil {
		r.logger.Error("encoding session event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("publishing session event", "error", err, "kind", ev.Kind)
	}
}

func (r *RedisRelay) receive(messages <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range messages {
		ev, ok, err := decodeEnvelope(r.origin, []byte(msg.Payload))
		if err != nil {
			r.logger.Warn("decoding session event", "error", err)
			continue
		}
		if !ok {
			continue
		}
		r.bus.Publish(ev)
	}
}

func encodeEnvelope(origin string, ev ChangeEvent) ([]byte, error) {
	return json.Marshal(relayEnvelope{Origin: origin, Event: ev})
}

// decodeEnvelope returns the event and false when it came from origin.
func decodeEnvelope(origin string, payload []byte) (ChangeEvent, bool, error) {
	var env relayEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return ChangeEvent{}, false, err
	}
	if env.Origin == origin {
		return ChangeEvent{}, false, nil
	}
	env.Event.Remote = true
	return env.Event, true, nil
}
