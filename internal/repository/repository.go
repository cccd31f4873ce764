// Package repository 定义数据访问接口，具体实现见 postgres 与 memory 子包
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Tonkaw007/Pabu/internal/models"
)

var (
	// ErrNotFound 记录不存在或外键引用不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("duplicate entry")
)

// UserRepository 用户仓库
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// FindByIdentifier 按用户名、手机号或邮箱查找
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// ExistsAny 用户名、手机号、邮箱任一已存在
	ExistsAny(ctx context.Context, username, phone, email string) (bool, error)
}

// SlotRepository 车位仓库
type SlotRepository interface {
	Create(ctx context.Context, slot *models.ParkingSlot) error
	GetByID(ctx context.Context, id int64) (*models.ParkingSlot, error)
	// GetByIDForUpdate 在事务中锁定车位行
	GetByIDForUpdate(ctx context.Context, id int64) (*models.ParkingSlot, error)
	List(ctx context.Context, filter models.SlotFilter) ([]*models.ParkingSlot, error)
	// UpdateStatus 仅当当前状态为 from 时更新，返回影响行数
	UpdateStatus(ctx context.Context, id int64, from, to models.SlotStatus) (int64, error)
}

// ReservationRepository 预约仓库
type ReservationRepository interface {
	Create(ctx context.Context, r *models.Reservation) error
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	// HasOverlap 车位在 [start, end) 内是否存在未完成的预约
	HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error)
	// CountActiveBySlot 车位上未完成预约的数量
	CountActiveBySlot(ctx context.Context, slotID int64) (int, error)
	UpdateStatus(ctx context.Context, id int64, from, to models.ReservationStatus) (int64, error)
}

// PaymentRepository 支付仓库
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	ListByReservation(ctx context.Context, reservationID int64) ([]*models.Payment, error)
	UpdateStatus(ctx context.Context, id int64, from, to models.PaymentStatus) (int64, error)
}

// PenaltyRepository 罚款仓库
type PenaltyRepository interface {
	Create(ctx context.Context, p *models.Penalty) error
	GetByID(ctx context.Context, id int64) (*models.Penalty, error)
	List(ctx context.Context, filter models.PenaltyFilter) ([]*models.Penalty, error)
	UpdateStatus(ctx context.Context, id int64, from, to models.PenaltyStatus) (int64, error)
}

// NotificationRepository 通知仓库
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	ListByReservation(ctx context.Context, reservationID int64) ([]*models.Notification, error)
	SetRead(ctx context.Context, id int64, isRead bool) (int64, error)
	// ExistsKind 预约是否已有该类型的通知
	ExistsKind(ctx context.Context, reservationID int64, kind models.NotificationKind) (bool, error)
}

// BarrierRepository 道闸日志仓库
type BarrierRepository interface {
	Create(ctx context.Context, b *models.BarrierControl) error
	ListByReservation(ctx context.Context, reservationID int64) ([]*models.BarrierControl, error)
}

// Store 全部仓库的集合
type Store interface {
	Users() UserRepository
	Slots() SlotRepository
	Reservations() ReservationRepository
	Payments() PaymentRepository
	Penalties() PenaltyRepository
	Notifications() NotificationRepository
	Barriers() BarrierRepository

	// WithTx 在同一事务中执行 fn，fn 返回错误时回滚
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
