package postgres

import (
	"context"
	"fmt"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

const notificationColumns = `notification_id, reservation_id, message, is_read, kind, created_at`

// NotificationRepository 通知数据仓库
type NotificationRepository struct {
	q querier
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

// Create 创建通知
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (reservation_id, message, is_read, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING notification_id, created_at
	`
	err := r.q.QueryRowContext(ctx, query, n.ReservationID, n.Message, n.IsRead, string(n.Kind)).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", mapError(err))
	}
	return nil
}

// GetByID 根据 ID 获取通知
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE notification_id = $1`
	n, err := scanNotification(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get notification %d: %w", id, mapError(err))
	}
	return n, nil
}

// ListByReservation 获取预约下的通知，最新的在前
func (r *NotificationRepository) ListByReservation(ctx context.Context, reservationID int64) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE reservation_id = $1 ORDER BY created_at DESC, notification_id DESC`
	rows, err := r.q.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// SetRead 更新已读标记
func (r *NotificationRepository) SetRead(ctx context.Context, id int64, isRead bool) (int64, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = $2 WHERE notification_id = $1`, id, isRead)
	if err != nil {
		return 0, fmt.Errorf("update notification: %w", err)
	}
	return rowsAffected(res)
}

// ExistsKind 预约是否已有该类型通知
func (r *NotificationRepository) ExistsKind(ctx context.Context, reservationID int64, kind models.NotificationKind) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notifications WHERE reservation_id = $1 AND kind = $2)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, reservationID, string(kind)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check notification kind: %w", err)
	}
	return exists, nil
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.ReservationID, &n.Message, &n.IsRead, &n.Kind, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
