package postgres

import (
	"context"
	"fmt"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

const slotColumns = `slot_id, slot_number, floor, status, created_at`

// SlotRepository 车位数据仓库
type SlotRepository struct {
	q querier
}

var _ repository.SlotRepository = (*SlotRepository)(nil)

// Create 创建车位
func (r *SlotRepository) Create(ctx context.Context, slot *models.ParkingSlot) error {
	query := `
		INSERT INTO parking_slots (slot_number, floor, status)
		VALUES ($1, $2, $3)
		RETURNING slot_id, created_at
	`
	err := r.q.QueryRowContext(ctx, query, slot.SlotNumber, slot.Floor, string(slot.Status)).
		Scan(&slot.ID, &slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert parking slot: %w", mapError(err))
	}
	return nil
}

// GetByID 根据 ID 获取车位
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE slot_id = $1`
	slot, err := scanSlot(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get parking slot %d: %w", id, mapError(err))
	}
	return slot, nil
}

// GetByIDForUpdate 获取并锁定车位，需在事务中调用
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE slot_id = $1 FOR UPDATE`
	slot, err := scanSlot(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("lock parking slot %d: %w", id, mapError(err))
	}
	return slot, nil
}

// List 按楼层、状态筛选车位
func (r *SlotRepository) List(ctx context.Context, filter models.SlotFilter) ([]*models.ParkingSlot, error) {
	var c conditions
	if filter.Floor != nil {
		c.add("floor = $%d", *filter.Floor)
	}
	if filter.Status != nil {
		c.add("status = $%d", string(*filter.Status))
	}
	query := `SELECT ` + slotColumns + ` FROM parking_slots` + c.where() + ` ORDER BY floor, slot_number`

	rows, err := r.q.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("query parking slots: %w", err)
	}
	defer rows.Close()

	slots := make([]*models.ParkingSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parking slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// UpdateStatus 仅当当前状态为 from 时更新
func (r *SlotRepository) UpdateStatus(ctx context.Context, id int64, from, to models.SlotStatus) (int64, error) {
	query := `UPDATE parking_slots SET status = $3 WHERE slot_id = $1 AND status = $2`
	res, err := r.q.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return 0, fmt.Errorf("update parking slot status: %w", mapError(err))
	}
	return rowsAffected(res)
}

func scanSlot(row rowScanner) (*models.ParkingSlot, error) {
	var s models.ParkingSlot
	if err := row.Scan(&s.ID, &s.SlotNumber, &s.Floor, &s.Status, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
