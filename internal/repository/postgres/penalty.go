package postgres

import (
	"context"
	"fmt"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

const penaltyColumns = `p.penalty_id, p.reservation_id, p.actual_exit_time, p.amount, p.status, p.created_at`

// PenaltyRepository 罚款数据仓库
type PenaltyRepository struct {
	q querier
}

var _ repository.PenaltyRepository = (*PenaltyRepository)(nil)

// Create 创建罚款
func (r *PenaltyRepository) Create(ctx context.Context, p *models.Penalty) error {
	query := `
		INSERT INTO penalties (reservation_id, actual_exit_time, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING penalty_id, created_at
	`
	err := r.q.QueryRowContext(ctx, query, p.ReservationID, p.ActualExitTime, p.Amount, string(p.Status)).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert penalty: %w", mapError(err))
	}
	return nil
}

// GetByID 根据 ID 获取罚款
func (r *PenaltyRepository) GetByID(ctx context.Context, id int64) (*models.Penalty, error) {
	query := `SELECT ` + penaltyColumns + ` FROM penalties p WHERE p.penalty_id = $1`
	p, err := scanPenalty(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get penalty %d: %w", id, mapError(err))
	}
	return p, nil
}

// List 按用户或预约筛选罚款
func (r *PenaltyRepository) List(ctx context.Context, filter models.PenaltyFilter) ([]*models.Penalty, error) {
	var c conditions
	if filter.UserID != nil {
		c.add("r.user_id = $%d", *filter.UserID)
	}
	if filter.ReservationID != nil {
		c.add("p.reservation_id = $%d", *filter.ReservationID)
	}
	query := `
		SELECT ` + penaltyColumns + `
		FROM penalties p
		JOIN reservations r ON r.reservation_id = p.reservation_id` + c.where() + `
		ORDER BY p.penalty_id`

	rows, err := r.q.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("query penalties: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Penalty, 0)
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan penalty: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateStatus 仅当当前状态为 from 时更新
func (r *PenaltyRepository) UpdateStatus(ctx context.Context, id int64, from, to models.PenaltyStatus) (int64, error) {
	query := `UPDATE penalties SET status = $3 WHERE penalty_id = $1 AND status = $2`
	res, err := r.q.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return 0, fmt.Errorf("update penalty status: %w", mapError(err))
	}
	return rowsAffected(res)
}

func scanPenalty(row rowScanner) (*models.Penalty, error) {
	var p models.Penalty
	if err := row.Scan(&p.ID, &p.ReservationID, &p.ActualExitTime, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
