package models

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentFailed   PaymentStatus = "failed"
)

// Valid 是否为合法状态
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentVerified, PaymentFailed:
		return true
	}
	return false
}

// Payment 支付记录
// PenaltyID 为空时表示支付预约费用，否则为支付罚款
type Payment struct {
	ID                  int64         `json:"payment_id" db:"payment_id"`
	ReservationID       int64         `json:"reservation_id" db:"reservation_id"`
	PenaltyID           null.Int      `json:"penalty_id" db:"penalty_id"`
	Amount              float64       `json:"amount" db:"amount"`
	Status              PaymentStatus `json:"payment_status" db:"payment_status"`
	BankReferenceNumber string        `json:"bank_reference_number" db:"bank_reference_number"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
}
