package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/pricing"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

// 实时推送消息类型
const (
	EventSlotUpdate        = "slot_update"
	EventReservationUpdate = "reservation_update"
	EventBarrierAction     = "barrier_action"
	EventReservationAlert  = "reservation_alert"
)

// Publisher 实时推送，由 ws.Hub 实现
type Publisher interface {
	BroadcastMessage(msgType string, data interface{})
}

// BookingService 车位、预约、支付、罚款、通知与道闸
type BookingService struct {
	logger    *zap.Logger
	store     repository.Store
	rates     pricing.RateTable
	publisher Publisher
	now       func() time.Time
}

// NewBookingService 创建预约服务，publisher 可为空
func NewBookingService(logger *zap.Logger, store repository.Store, rates pricing.RateTable, publisher Publisher) *BookingService {
	return &BookingService{
		logger:    logger,
		store:     store,
		rates:     rates,
		publisher: publisher,
		now:       time.Now,
	}
}

// SetClock 替换时钟
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *BookingService) publish(msgType string, data interface{}) {
	if s.publisher != nil {
		s.publisher.BroadcastMessage(msgType, data)
	}
}

// authorize 本人或管理员
func authorize(caller auth.Identity, ownerID int64) error {
	if caller.IsAdmin() || caller.UserID == ownerID {
		return nil
	}
	return forbidden()
}

func requireAdmin(caller auth.Identity) error {
	if caller.IsAdmin() {
		return nil
	}
	return forbidden()
}

const refAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newBankReference 生成 RES- 开头的支付参考号
func newBankReference() (string, error) {
	buf := make([]byte, 9)
	base := big.NewInt(int64(len(refAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		buf[i] = refAlphabet[n.Int64()]
	}
	return "RES-" + string(buf), nil
}

// loadReservation 获取预约并校验访问权限
func loadReservation(ctx context.Context, store repository.Store, caller auth.Identity, id int64) (*models.Reservation, error) {
	res, err := store.Reservations().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Reservation")
	}
	if err := authorize(caller, res.UserID); err != nil {
		return nil, err
	}
	return res, nil
}
