/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventSessionStart    EventType = "session.start"
	EventSessionStop     EventType = "session.stop"
	EventSessionTimeout  EventType = "session.timeout"
	EventTrackChange     EventType = "track.change"
	EventScheduleTrigger EventType = "schedule.trigger"
	EventCommandFailed   EventType = "command.failed"
	EventPowerChange     EventType = "power.change"
	EventRelayDegraded   EventType = "relay.degraded"
	EventBackendFallback EventType = "backend.fallback"
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
	ch := make(Subscriber, 16)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber for event type.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			b.subs[eventType] = append(subs[:i], subs[i+1:]...)
			close(candidate)
			return
		}
	}
}

// Publish delivers payload to all subscribers without blocking. Slow
// subscribers drop events rather than stall the tick.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	if payload == nil {
		payload = Payload{}
	}
	payload["event"] = string(eventType)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[eventType] {
		select {
		case sub <- payload:
		default:
		}
	}
}
