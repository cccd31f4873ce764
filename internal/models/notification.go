package models

import "time"

// NotificationKind 通知类型
type NotificationKind string

const (
	NotificationCustom     NotificationKind = "custom"
	NotificationEndingSoon NotificationKind = "ending_soon"
	NotificationEnded      NotificationKind = "ended"
)

// 系统改写的通知文案
const (
	MessageEndingSoon = "Your parking reservation will end in 5 minutes. Please prepare to leave."
	MessageEnded      = "Your parking reservation has ended. You will be charged a penalty for exceeding the reserved time."
)

// Notification 预约通知
type Notification struct {
	ID            int64            `json:"notification_id" db:"notification_id"`
	ReservationID int64            `json:"reservation_id" db:"reservation_id"`
	Message       string           `json:"message" db:"message"`
	IsRead        bool             `json:"is_read" db:"is_read"`
	Kind          NotificationKind `json:"kind" db:"kind"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
