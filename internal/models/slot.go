package models

import "time"

// SlotStatus 车位状态
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotReserved  SlotStatus = "reserved"
)

// Valid 是否为合法状态
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotReserved:
		return true
	}
	return false
}

// ParkingSlot 车位
type ParkingSlot struct {
	ID         int64      `json:"slot_id" db:"slot_id"`
	SlotNumber string     `json:"slot_number" db:"slot_number"`
	Floor      int        `json:"floor" db:"floor"`
	Status     SlotStatus `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// SlotFilter 车位查询条件
type SlotFilter struct {
	Floor  *int
	Status *SlotStatus
}
