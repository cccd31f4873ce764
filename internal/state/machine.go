package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/Tonkaw007/Pabu/internal/models"
)

// 事件常量
const (
	EventConfirm  = "confirm"
	EventComplete = "complete"
	EventReserve  = "reserve"
	EventRelease  = "release"
	EventVerify   = "verify"
	EventFail     = "fail"
	EventRetry    = "retry"
	EventSettle   = "settle"
)

// ErrInvalidTransition 状态迁移不合法
var ErrInvalidTransition = errors.New("invalid status transition")

// Lifecycle 一类实体的状态迁移定义
type Lifecycle struct {
	Name   string
	events fsm.Events
}

var (
	// Reservation pending -> confirmed -> completed
	Reservation = Lifecycle{
		Name: "reservation",
		events: fsm.Events{
			{Name: EventConfirm, Src: []string{string(models.ReservationPending)}, Dst: string(models.ReservationConfirmed)},
			{Name: EventComplete, Src: []string{string(models.ReservationConfirmed)}, Dst: string(models.ReservationCompleted)},
		},
	}

	// Slot available <-> reserved
	Slot = Lifecycle{
		Name: "parking slot",
		events: fsm.Events{
			{Name: EventReserve, Src: []string{string(models.SlotAvailable)}, Dst: string(models.SlotReserved)},
			{Name: EventRelease, Src: []string{string(models.SlotReserved)}, Dst: string(models.SlotAvailable)},
		},
	}

	// Payment pending -> verified | failed, failed -> pending
	Payment = Lifecycle{
		Name: "payment",
		events: fsm.Events{
			{Name: EventVerify, Src: []string{string(models.PaymentPending)}, Dst: string(models.PaymentVerified)},
			{Name: EventFail, Src: []string{string(models.PaymentPending)}, Dst: string(models.PaymentFailed)},
			{Name: EventRetry, Src: []string{string(models.PaymentFailed)}, Dst: string(models.PaymentPending)},
		},
	}

	// Penalty unpaid -> paid
	Penalty = Lifecycle{
		Name: "penalty",
		events: fsm.Events{
			{Name: EventSettle, Src: []string{string(models.PenaltyUnpaid)}, Dst: string(models.PenaltyPaid)},
		},
	}
)

// Transition 校验 from -> to，返回触发的事件名
// 目标与当前状态相同时返回空事件名
func (l Lifecycle) Transition(ctx context.Context, from, to string) (string, error) {
	if from == to {
		return "", nil
	}

	m := fsm.NewFSM(from, l.events, fsm.Callbacks{})
	for _, e := range l.events {
		if e.Dst != to || !m.Can(e.Name) {
			continue
		}
		if err := m.Event(ctx, e.Name); err != nil {
			return "", fmt.Errorf("trigger event %s: %w", e.Name, err)
		}
		return e.Name, nil
	}

	return "", fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, l.Name, from, to)
}
