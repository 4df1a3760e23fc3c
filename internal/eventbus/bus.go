/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus provides distributed event bus backends. All backends
// mirror events through an in-process bus for same-node subscribers and
// degrade to it when the broker is unreachable.
package eventbus

import (
	"github.com/wayfarerhq/wayfarer/internal/events"
	"github.com/wayfarerhq/wayfarer/internal/telemetry"
)

// Bus is the pluggable event transport used by the server.
type Bus interface {
	Subscribe(eventType events.EventType) events.Subscriber
	Publish(eventType events.EventType, payload events.Payload)
	Unsubscribe(eventType events.EventType, sub events.Subscriber)
	Close() error
}

// MemoryBus wraps the in-process bus behind the Bus interface.
type MemoryBus struct {
	*events.Bus
}

// NewMemoryBus creates an in-process bus backend.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{Bus: events.NewBus()}
}

// Publish delivers to same-node subscribers.
func (mb *MemoryBus) Publish(eventType events.EventType, payload events.Payload) {
	mb.Bus.Publish(eventType, payload)
	telemetry.EventsPublishedTotal.WithLabelValues(string(eventType)).Inc()
}

// Close is a no-op for the in-process backend.
func (mb *MemoryBus) Close() error { return nil }
