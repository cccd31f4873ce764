package service

import (
	"context"
	"strings"
	"time"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
)

// EndingSoonWindow 预约结束前多久发出提醒
const EndingSoonWindow = 5 * time.Minute

// NotificationInput 新建通知参数
type NotificationInput struct {
	ReservationID int64
	Message       string
	IsRead        bool
}

// classifyNotification 按预约剩余时间决定通知类型与文案
func classifyNotification(end, now time.Time, message string) (models.NotificationKind, string) {
	remaining := end.Sub(now)
	switch {
	case remaining <= 0:
		return models.NotificationEnded, models.MessageEnded
	case remaining <= EndingSoonWindow:
		return models.NotificationEndingSoon, models.MessageEndingSoon
	default:
		return models.NotificationCustom, message
	}
}

// CreateNotification 新建通知，临近结束或已结束的预约使用系统文案
func (s *BookingService) CreateNotification(ctx context.Context, caller auth.Identity, in NotificationInput) (*models.Notification, error) {
	in.Message = strings.TrimSpace(in.Message)
	if in.ReservationID <= 0 || in.Message == "" {
		return nil, validationf("Missing required fields")
	}

	res, err := loadReservation(ctx, s.store, caller, in.ReservationID)
	if err != nil {
		return nil, err
	}

	kind, message := classifyNotification(res.EndTime, s.now(), in.Message)
	n := &models.Notification{
		ReservationID: res.ID,
		Message:       message,
		IsRead:        in.IsRead,
		Kind:          kind,
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return nil, translate(err, "Notification")
	}
	return n, nil
}

// ListNotifications 获取预约下的通知
func (s *BookingService) ListNotifications(ctx context.Context, caller auth.Identity, reservationID int64) ([]*models.Notification, error) {
	if _, err := loadReservation(ctx, s.store, caller, reservationID); err != nil {
		return nil, err
	}
	list, err := s.store.Notifications().ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

// MarkNotification 更新已读标记
func (s *BookingService) MarkNotification(ctx context.Context, caller auth.Identity, id int64, isRead bool) error {
	n, err := s.store.Notifications().GetByID(ctx, id)
	if err != nil {
		return translate(err, "Notification")
	}
	if _, err := loadReservation(ctx, s.store, caller, n.ReservationID); err != nil {
		return err
	}

	affected, err := s.store.Notifications().SetRead(ctx, id, isRead)
	if err != nil {
		return internal(err)
	}
	if affected == 0 {
		return notFound("Notification")
	}
	return nil
}
