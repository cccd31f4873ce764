package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

const reservationColumns = `reservation_id, user_id, slot_id, slot_number, floor, start_time, end_time,
	booking_type, total_price, rate_version, status, created_at`

// ReservationRepository 预约数据仓库
type ReservationRepository struct {
	q querier
}

var _ repository.ReservationRepository = (*ReservationRepository)(nil)

// Create 创建预约
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (
			user_id, slot_id, slot_number, floor, start_time, end_time,
			booking_type, total_price, rate_version, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING reservation_id, created_at
	`
	err := r.q.QueryRowContext(ctx, query,
		res.UserID,
		res.SlotID,
		res.SlotNumber,
		res.Floor,
		res.StartTime,
		res.EndTime,
		string(res.BookingType),
		res.TotalPrice,
		res.RateVersion,
		string(res.Status),
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", mapError(err))
	}
	return nil
}

// GetByID 根据 ID 获取预约
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1`
	res, err := scanReservation(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, mapError(err))
	}
	return res, nil
}

// List 按条件查询预约
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	var c conditions
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.SlotID != nil {
		c.add("slot_id = $%d", *filter.SlotID)
	}
	if filter.Status != nil {
		c.add("status = $%d", string(*filter.Status))
	}
	if filter.EndingBefore != nil {
		c.add("end_time < $%d", *filter.EndingBefore)
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations` + c.where() + ` ORDER BY start_time, reservation_id`

	rows, err := r.q.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// HasOverlap 车位在 [start, end) 内是否已有未完成预约
func (r *ReservationRepository) HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE slot_id = $1
			  AND status <> 'completed'
			  AND start_time < $3
			  AND end_time > $2
		)
	`
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, slotID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check reservation overlap: %w", err)
	}
	return exists, nil
}

// CountActiveBySlot 统计车位上未完成的预约
func (r *ReservationRepository) CountActiveBySlot(ctx context.Context, slotID int64) (int, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE slot_id = $1 AND status <> 'completed'`
	var n int
	if err := r.q.QueryRowContext(ctx, query, slotID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return n, nil
}

// UpdateStatus 仅当当前状态为 from 时更新
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id int64, from, to models.ReservationStatus) (int64, error) {
	query := `UPDATE reservations SET status = $3 WHERE reservation_id = $1 AND status = $2`
	res, err := r.q.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return 0, fmt.Errorf("update reservation status: %w", mapError(err))
	}
	return rowsAffected(res)
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var res models.Reservation
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.SlotID,
		&res.SlotNumber,
		&res.Floor,
		&res.StartTime,
		&res.EndTime,
		&res.BookingType,
		&res.TotalPrice,
		&res.RateVersion,
		&res.Status,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
