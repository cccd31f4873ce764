package postgres

import (
	"context"
	"fmt"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

const paymentColumns = `payment_id, reservation_id, penalty_id, amount, payment_status, bank_reference_number, created_at`

// PaymentRepository 支付数据仓库
type PaymentRepository struct {
	q querier
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

// Create 创建支付记录
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (reservation_id, penalty_id, amount, payment_status, bank_reference_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING payment_id, created_at
	`
	err := r.q.QueryRowContext(ctx, query,
		p.ReservationID,
		p.PenaltyID,
		p.Amount,
		string(p.Status),
		p.BankReferenceNumber,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", mapError(err))
	}
	return nil
}

// GetByID 根据 ID 获取支付记录
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get payment %d: %w", id, mapError(err))
	}
	return p, nil
}

// ListByReservation 获取预约下的支付记录
func (r *PaymentRepository) ListByReservation(ctx context.Context, reservationID int64) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reservation_id = $1 ORDER BY payment_id`
	rows, err := r.q.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdateStatus 仅当当前状态为 from 时更新
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, from, to models.PaymentStatus) (int64, error) {
	query := `UPDATE payments SET payment_status = $3 WHERE payment_id = $1 AND payment_status = $2`
	res, err := r.q.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return 0, fmt.Errorf("update payment status: %w", mapError(err))
	}
	return rowsAffected(res)
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.ReservationID,
		&p.PenaltyID,
		&p.Amount,
		&p.Status,
		&p.BankReferenceNumber,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
