package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/models"
)

// ReservationAlert reservation_alert 推送内容
type ReservationAlert struct {
	ReservationID  int64                   `json:"reservation_id"`
	UserID         int64                   `json:"user_id"`
	NotificationID int64                   `json:"notification_id"`
	Kind           models.NotificationKind `json:"kind"`
	Message        string                  `json:"message"`
	EndTime        time.Time               `json:"end_time"`
}

// OverrunMonitor 定时检查即将结束或已超时的预约并生成提醒
type OverrunMonitor struct {
	logger   *zap.Logger
	booking  *BookingService
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewOverrunMonitor 创建超时巡检
func NewOverrunMonitor(logger *zap.Logger, booking *BookingService, interval time.Duration) *OverrunMonitor {
	return &OverrunMonitor{
		logger:   logger,
		booking:  booking,
		interval: interval,
	}
}

// Start 启动巡检，interval 为 0 时不启动
func (m *OverrunMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.interval <= 0 {
		return
	}
	m.stopCh = make(chan struct{})
	m.running = true

	m.wg.Add(1)
	go m.loop(ctx)
	m.logger.Info("Overrun monitor started", zap.Duration("interval", m.interval))
}

// Stop 停止巡检并等待当前轮次结束
func (m *OverrunMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("Overrun monitor stopped")
}

func (m *OverrunMonitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.logger.Error("Overrun sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep 执行一轮巡检，返回新建的提醒数量
// 每个预约最多一条 ending_soon 与一条 ended 提醒
func (m *OverrunMonitor) Sweep(ctx context.Context) (int, error) {
	s := m.booking
	now := s.now()
	confirmed := models.ReservationConfirmed
	deadline := now.Add(EndingSoonWindow)

	list, err := s.store.Reservations().List(ctx, models.ReservationFilter{
		Status:       &confirmed,
		EndingBefore: &deadline,
	})
	if err != nil {
		return 0, err
	}

	created := 0
	for _, res := range list {
		kind, message := classifyNotification(res.EndTime, now, "")
		if kind == models.NotificationCustom {
			continue
		}

		exists, err := s.store.Notifications().ExistsKind(ctx, res.ID, kind)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		n := &models.Notification{ReservationID: res.ID, Message: message, Kind: kind}
		if err := s.store.Notifications().Create(ctx, n); err != nil {
			return created, err
		}
		created++

		m.logger.Info("Reservation alert",
			zap.Int64("reservation_id", res.ID),
			zap.String("kind", string(kind)))
		s.publish(EventReservationAlert, ReservationAlert{
			ReservationID:  res.ID,
			UserID:         res.UserID,
			NotificationID: n.ID,
			Kind:           kind,
			Message:        message,
			EndTime:        res.EndTime,
		})
	}
	return created, nil
}
