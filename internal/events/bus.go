/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventTripCreated   EventType = "trip.created"
	EventTripUpdated   EventType = "trip.updated"
	EventTripDeleted   EventType = "trip.deleted"
	EventMemberJoined  EventType = "member.joined"
	EventMemberRemoved EventType = "member.removed"

	EventDayAdded   EventType = "day.added"
	EventDayRemoved EventType = "day.removed"

	EventActivityCreated EventType = "activity.created"
	EventActivityUpdated EventType = "activity.updated"
	EventActivityDeleted EventType = "activity.deleted"

	EventWishlistAdded    EventType = "wishlist.added"
	EventWishlistUpdated  EventType = "wishlist.updated"
	EventWishlistRemoved  EventType = "wishlist.removed"
	EventWishlistPromoted EventType = "wishlist.promoted"
	EventVoteCast         EventType = "vote.cast"
	EventCommentPosted    EventType = "comment.posted"

	// Audit events (for operations that need explicit audit logging)
	EventAuditUserSuspend  EventType = "audit.user.suspend"
	EventAuditAPIKeyCreate EventType = "audit.apikey.create"
	EventAuditAPIKeyRevoke EventType = "audit.apikey.revoke"
	EventAuditTripCreate   EventType = "audit.trip.create"
	EventAuditTripUpdate   EventType = "audit.trip.update"
	EventAuditTripDelete   EventType = "audit.trip.delete"
	EventAuditMemberJoin   EventType = "audit.member.join"
	EventAuditMemberRemove EventType = "audit.member.remove"
	EventAuditPromote      EventType = "audit.wishlist.promote"
)

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. Slow subscribers are skipped
// rather than blocking the publisher.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[eventType]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[eventType] = subs
	close(sub)
}
