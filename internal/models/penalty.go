package models

import "time"

// PenaltyStatus 罚款状态
type PenaltyStatus string

const (
	PenaltyUnpaid PenaltyStatus = "unpaid"
	PenaltyPaid   PenaltyStatus = "paid"
)

// Valid 是否为合法状态
func (s PenaltyStatus) Valid() bool {
	return s == PenaltyUnpaid || s == PenaltyPaid
}

// Penalty 超时罚款
type Penalty struct {
	ID             int64         `json:"penalty_id" db:"penalty_id"`
	ReservationID  int64         `json:"reservation_id" db:"reservation_id"`
	ActualExitTime time.Time     `json:"actual_exit_time" db:"actual_exit_time"`
	Amount         float64       `json:"amount" db:"amount"`
	Status         PenaltyStatus `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// PenaltyFilter 罚款查询条件
type PenaltyFilter struct {
	UserID        *int64
	ReservationID *int64
}
