package models

import "time"

// BookingType 计费方式
type BookingType string

const (
	BookingHourly  BookingType = "hourly"
	BookingDaily   BookingType = "daily"
	BookingMonthly BookingType = "monthly"
)

// Valid 是否为合法计费方式
func (b BookingType) Valid() bool {
	switch b {
	case BookingHourly, BookingDaily, BookingMonthly:
		return true
	}
	return false
}

// ReservationStatus 预约状态
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
)

// Valid 是否为合法状态
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCompleted:
		return true
	}
	return false
}

// Active 未完成的预约仍占用车位
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// Reservation 车位预约
// slot_number 和 floor 在创建时从车位复制
type Reservation struct {
	ID          int64             `json:"reservation_id" db:"reservation_id"`
	UserID      int64             `json:"user_id" db:"user_id"`
	SlotID      int64             `json:"slot_id" db:"slot_id"`
	SlotNumber  string            `json:"slot_number" db:"slot_number"`
	Floor       int               `json:"floor" db:"floor"`
	StartTime   time.Time         `json:"start_time" db:"start_time"`
	EndTime     time.Time         `json:"end_time" db:"end_time"`
	BookingType BookingType       `json:"booking_type" db:"booking_type"`
	TotalPrice  float64           `json:"total_price" db:"total_price"`
	RateVersion string            `json:"rate_version" db:"rate_version"`
	Status      ReservationStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}

// Overlaps 时间段是否与 [start, end) 重叠
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// ReservationFilter 预约查询条件
type ReservationFilter struct {
	UserID *int64
	SlotID *int64
	Status *ReservationStatus
	// EndingBefore 只返回 end_time 早于该时间的预约
	EndingBefore *time.Time
}
