/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "testing"

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventSessionStart)

	bus.Publish(EventSessionStart, Payload{"playlist_id": 3})

	select {
	case payload := <-sub:
		if payload["playlist_id"] != 3 {
			t.Errorf("payload = %v", payload)
		}
		if payload["event"] != string(EventSessionStart) {
			t.Errorf("event key = %v, want %s", payload["event"], EventSessionStart)
		}
	default:
		t.Fatal("no payload delivered")
	}
}

func TestPublishOtherTypeNotDelivered(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventSessionStart)

	bus.Publish(EventSessionStop, Payload{})

	select {
	case payload := <-sub:
		t.Fatalf("unexpected delivery: %v", payload)
	default:
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventTrackChange)

	// Fill well past the subscriber buffer; the publisher must drop
	// rather than stall.
	for i := 0; i < 100; i++ {
		bus.Publish(EventTrackChange, Payload{"i": i})
	}
	if got := len(sub); got != cap(sub) {
		t.Errorf("buffered %d payloads, want full buffer %d", got, cap(sub))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventPowerChange)
	bus.Unsubscribe(EventPowerChange, sub)

	if _, ok := <-sub; ok {
		t.Error("channel not closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	bus.Publish(EventPowerChange, Payload{})
}
