/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/telemetry"
)

const natsSubjectPrefix = "wayfarer.events."

// NATSBus implements a NATS-backed event bus for multi-node deployments.
// Local delivery always goes through the in-process bus; NATS carries
// events between nodes. Falls back to local-only delivery if NATS is
// unavailable.
type NATSBus struct {
	conn     *nats.Conn
	logger   zerolog.Logger
	local    *events.Bus
	nodeID   string

	mu       sync.Mutex
	natsSubs map[events.EventType]*nats.Subscription
}

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		MaxReconnects: -1, // unlimited
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NewNATSBus creates a NATS-backed event bus. If the initial connection
// fails the bus still works for same-node subscribers.
func NewNATSBus(cfg NATSConfig, nodeID string, logger zerolog.Logger) (*NATSBus, error) {
	if nodeID == "" {
		nodeID = "node-" + uuid.NewString()
	}

	nb := &NATSBus{
		logger:   logger,
		local:    events.NewBus(),
		nodeID:   nodeID,
		natsSubs: make(map[events.EventType]*nats.Subscription),
	}

	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		logger.Warn().Err(err).Str("url", cfg.URL).Msg("NATS connection failed, using local-only delivery")
		return nb, nil
	}

	nb.conn = conn
	logger.Info().Str("url", cfg.URL).Str("node_id", nodeID).Msg("NATS event bus initialized")
	return nb, nil
}

// Subscribe registers a subscriber for an event type. The first subscriber
// for a type also opens the matching NATS subscription.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	sub := nb.local.Subscribe(eventType)

	if nb.conn == nil {
		return sub
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()

	if _, exists := nb.natsSubs[eventType]; !exists {
		subject := natsSubjectPrefix + string(eventType)
		natsSub, err := nb.conn.Subscribe(subject, func(msg *nats.Msg) {
			nb.handleRemote(eventType, msg.Data)
		})
		if err != nil {
			nb.logger.Error().Err(err).Str("subject", subject).Msg("NATS subscribe failed")
			return sub
		}
		nb.natsSubs[eventType] = natsSub
	}

	return sub
}

// handleRemote delivers a NATS message to same-node subscribers.
func (nb *NATSBus) handleRemote(eventType events.EventType, data []byte) {
	msg, err := unmarshalNATSMessage(data)
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to unmarshal NATS message")
		return
	}

	// Skip messages from ourselves (prevent echo).
	if msg.NodeID == nb.nodeID {
		return
	}

	nb.local.Publish(eventType, msg.Payload)
}

// Publish sends an event payload to all subscribers (local and remote).
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.local.Publish(eventType, payload)
	telemetry.EventsPublishedTotal.WithLabelValues(string(eventType)).Inc()

	if nb.conn == nil {
		return
	}

	data, err := marshalNATSMessage(eventType, payload, nb.nodeID)
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to marshal NATS message")
		return
	}

	subject := natsSubjectPrefix + string(eventType)
	if err := nb.conn.Publish(subject, data); err != nil {
		nb.logger.Error().Err(err).Str("subject", subject).Msg("failed to publish to NATS")
	}
}

// Unsubscribe removes a subscriber.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.local.Unsubscribe(eventType, sub)
}

// Close drains the NATS connection.
func (nb *NATSBus) Close() error {
	nb.mu.Lock()
	for eventType, natsSub := range nb.natsSubs {
		_ = natsSub.Unsubscribe()
		delete(nb.natsSubs, eventType)
	}
	nb.mu.Unlock()

	if nb.conn != nil {
		if err := nb.conn.Drain(); err != nil {
			nb.conn.Close()
			return err
		}
	}
	return nil
}

// natsMessage represents a message published to NATS.
type natsMessage struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

func marshalNATSMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	msg := natsMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	}
	return json.Marshal(msg)
}

func unmarshalNATSMessage(data []byte) (*natsMessage, error) {
	var msg natsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal nats message: %w", err)
	}
	return &msg, nil
}
