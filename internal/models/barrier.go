package models

import "time"

// BarrierAction 道闸动作
type BarrierAction string

const (
	BarrierOpen  BarrierAction = "open"
	BarrierClose BarrierAction = "close"
)

// Valid 是否为合法动作
func (a BarrierAction) Valid() bool {
	return a == BarrierOpen || a == BarrierClose
}

// BarrierControl 道闸操作日志（只追加）
type BarrierControl struct {
	ID            int64         `json:"control_id" db:"control_id"`
	ReservationID int64         `json:"reservation_id" db:"reservation_id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	Action        BarrierAction `json:"action" db:"action"`
	ActionTime    time.Time     `json:"action_time" db:"action_time"`
}
