package postgres

import (
	"context"
	"fmt"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

// BarrierRepository 道闸日志仓库
type BarrierRepository struct {
	q querier
}

var _ repository.BarrierRepository = (*BarrierRepository)(nil)

// Create 追加道闸操作记录
func (r *BarrierRepository) Create(ctx context.Context, b *models.BarrierControl) error {
	query := `
		INSERT INTO barrier_control (reservation_id, user_id, action, action_time)
		VALUES ($1, $2, $3, $4)
		RETURNING control_id
	`
	err := r.q.QueryRowContext(ctx, query, b.ReservationID, b.UserID, string(b.Action), b.ActionTime).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert barrier control: %w", mapError(err))
	}
	return nil
}

// ListByReservation 按时间顺序返回预约的道闸操作
func (r *BarrierRepository) ListByReservation(ctx context.Context, reservationID int64) ([]*models.BarrierControl, error) {
	query := `
		SELECT control_id, reservation_id, user_id, action, action_time
		FROM barrier_control
		WHERE reservation_id = $1
		ORDER BY action_time, control_id
	`
	rows, err := r.q.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("query barrier control: %w", err)
	}
	defer rows.Close()

	list := make([]*models.BarrierControl, 0)
	for rows.Next() {
		var b models.BarrierControl
		if err := rows.Scan(&b.ID, &b.ReservationID, &b.UserID, &b.Action, &b.ActionTime); err != nil {
			return nil, fmt.Errorf("scan barrier control: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
