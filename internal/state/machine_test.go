package state

import (
	"context"
	"errors"
	"testing"
)

func TestReservationLifecycle(t *testing.T) {
	ctx := context.Background()

	event, err := Reservation.Transition(ctx, "pending", "confirmed")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if event != EventConfirm {
		t.Fatalf("event = %q, want %q", event, EventConfirm)
	}

	event, err = Reservation.Transition(ctx, "confirmed", "completed")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if event != EventComplete {
		t.Fatalf("event = %q, want %q", event, EventComplete)
	}
}

func TestSameStateIsNoop(t *testing.T) {
	event, err := Slot.Transition(context.Background(), "available", "available")
	if err != nil || event != "" {
		t.Fatalf("expected noop, got event=%q err=%v", event, err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		lifecycle Lifecycle
		from, to  string
	}{
		{Reservation, "pending", "completed"},
		{Reservation, "completed", "pending"},
		{Payment, "verified", "pending"},
		{Payment, "verified", "failed"},
		{Penalty, "paid", "unpaid"},
		{Slot, "available", "occupied"},
	}
	for _, tc := range cases {
		_, err := tc.lifecycle.Transition(context.Background(), tc.from, tc.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s %s->%s: expected ErrInvalidTransition, got %v", tc.lifecycle.Name, tc.from, tc.to, err)
		}
	}
}

func TestValidTransitions(t *testing.T) {
	cases := []struct {
		lifecycle Lifecycle
		from, to  string
	}{
		{Slot, "available", "reserved"},
		{Slot, "reserved", "available"},
		{Payment, "pending", "verified"},
		{Payment, "pending", "failed"},
		{Payment, "failed", "pending"},
		{Penalty, "unpaid", "paid"},
	}
	for _, tc := range cases {
		event, err := tc.lifecycle.Transition(context.Background(), tc.from, tc.to)
		if err != nil {
			t.Fatalf("%s %s->%s: %v", tc.lifecycle.Name, tc.from, tc.to, err)
		}
		if event == "" {
			t.Fatalf("%s %s->%s: empty event", tc.lifecycle.Name, tc.from, tc.to)
		}
	}
}
