// Package pricing 服务端计价：预约费用与超时罚款
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Tonkaw007/Pabu/internal/models"
)

var (
	ErrInvalidRange   = errors.New("end_time must be after start_time")
	ErrUnknownBooking = errors.New("unknown booking type")
	ErrNoOvertime     = errors.New("actual_exit_time is not after the reservation end")
)

// RateTable 版本化费率表
type RateTable struct {
	Version        string
	Hourly         float64
	Daily          float64
	Monthly        float64
	PenaltyPerHour float64
}

// DefaultRateTable 默认费率（与移动端原费率一致）
func DefaultRateTable() RateTable {
	return RateTable{
		Version:        "v1",
		Hourly:         50,
		Daily:          500,
		Monthly:        1000,
		PenaltyPerHour: 100,
	}
}

// Quote 报价结果
type Quote struct {
	BookingType models.BookingType `json:"booking_type"`
	Units       int                `json:"units"`
	UnitPrice   float64            `json:"unit_price"`
	Total       float64            `json:"total"`
	RateVersion string             `json:"rate_version"`
}

// Quote 按计费方式计算 [start, end) 的费用
// 不足一个计费单位按一个单位计
func (t RateTable) Quote(bt models.BookingType, start, end time.Time) (Quote, error) {
	if !end.After(start) {
		return Quote{}, ErrInvalidRange
	}

	var units int
	var unitPrice float64
	switch bt {
	case models.BookingHourly:
		units = ceilUnits(end.Sub(start), time.Hour)
		unitPrice = t.Hourly
	case models.BookingDaily:
		units = ceilUnits(end.Sub(start), 24*time.Hour)
		unitPrice = t.Daily
	case models.BookingMonthly:
		units = monthsBetween(start, end)
		unitPrice = t.Monthly
	default:
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownBooking, bt)
	}

	return Quote{
		BookingType: bt,
		Units:       units,
		UnitPrice:   unitPrice,
		Total:       Round(float64(units) * unitPrice),
		RateVersion: t.Version,
	}, nil
}

// Overtime 计算超时罚款，按开始的小时数计
func (t RateTable) Overtime(end, actualExit time.Time) (float64, error) {
	if !actualExit.After(end) {
		return 0, ErrNoOvertime
	}
	hours := ceilUnits(actualExit.Sub(end), time.Hour)
	return Round(float64(hours) * t.PenaltyPerHour), nil
}

// Equal 金额是否相等（精确到分）
func Equal(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

// Round 保留两位小数
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

func ceilUnits(d, unit time.Duration) int {
	n := int(d / unit)
	if d%unit != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// monthsBetween 按自然月计算，不足一个月按一个月
func monthsBetween(start, end time.Time) int {
	months := 1
	for start.AddDate(0, months, 0).Before(end) {
		months++
	}
	return months
}
