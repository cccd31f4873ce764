package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/pricing"
	"github.com/Tonkaw007/Pabu/internal/repository"
	"github.com/Tonkaw007/Pabu/internal/state"
)

// ReservationInput 新建预约参数
// UserID 为空时使用调用者；TotalPrice 仅用于与服务端报价核对
type ReservationInput struct {
	UserID      *int64
	SlotID      int64
	StartTime   time.Time
	EndTime     time.Time
	BookingType models.BookingType
	TotalPrice  *float64
	Status      models.ReservationStatus
}

// Quote 计算预约报价
func (s *BookingService) Quote(bt models.BookingType, start, end time.Time) (pricing.Quote, error) {
	if !bt.Valid() {
		return pricing.Quote{}, validationf("Invalid booking type")
	}
	q, err := s.rates.Quote(bt, start, end)
	if err != nil {
		return pricing.Quote{}, validationf("%s", err.Error())
	}
	return q, nil
}

// CreateReservation 新建预约
// 锁定车位、检查时段冲突、写入预约并占用车位在同一事务内完成
func (s *BookingService) CreateReservation(ctx context.Context, caller auth.Identity, in ReservationInput) (*models.Reservation, error) {
	userID := caller.UserID
	if in.UserID != nil && *in.UserID != caller.UserID {
		if !caller.IsAdmin() {
			return nil, forbidden()
		}
		userID = *in.UserID
	}

	if in.SlotID <= 0 || in.StartTime.IsZero() || in.EndTime.IsZero() || in.BookingType == "" {
		return nil, validationf("Missing required fields")
	}
	if !in.BookingType.Valid() {
		return nil, validationf("Invalid booking type")
	}
	if in.Status == "" {
		in.Status = models.ReservationPending
	}
	if !in.Status.Valid() {
		return nil, validationf("Invalid status value")
	}
	if in.Status != models.ReservationPending {
		return nil, &Error{Kind: KindValidation, Code: CodeInvalidTransition, Message: "New reservations must start as pending"}
	}

	quote, err := s.Quote(in.BookingType, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if in.TotalPrice != nil && !pricing.Equal(*in.TotalPrice, quote.Total) {
		return nil, &Error{
			Kind:    KindValidation,
			Code:    CodePriceMismatch,
			Message: "total_price does not match the current rate",
		}
	}

	var (
		res          *models.Reservation
		slotReserved *models.ParkingSlot
	)
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return translate(err, "User")
		}
		slot, err := tx.Slots().GetByIDForUpdate(ctx, in.SlotID)
		if err != nil {
			return translate(err, "Parking slot")
		}

		overlap, err := tx.Reservations().HasOverlap(ctx, slot.ID, in.StartTime, in.EndTime)
		if err != nil {
			return internal(err)
		}
		if overlap {
			return conflict(CodeSlotUnavailable, "Parking slot is already reserved for this time")
		}

		res = &models.Reservation{
			UserID:      userID,
			SlotID:      slot.ID,
			SlotNumber:  slot.SlotNumber,
			Floor:       slot.Floor,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			BookingType: in.BookingType,
			TotalPrice:  quote.Total,
			RateVersion: quote.RateVersion,
			Status:      models.ReservationPending,
		}
		if err := tx.Reservations().Create(ctx, res); err != nil {
			return translate(err, "Reservation")
		}

		if slot.Status == models.SlotAvailable {
			n, err := tx.Slots().UpdateStatus(ctx, slot.ID, models.SlotAvailable, models.SlotReserved)
			if err != nil {
				return internal(err)
			}
			if n == 0 {
				return staleUpdate("Parking slot")
			}
			slot.Status = models.SlotReserved
			slotReserved = slot
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", res.UserID),
		zap.Int64("slot_id", res.SlotID),
		zap.Float64("total_price", res.TotalPrice))
	s.publish(EventReservationUpdate, res)
	if slotReserved != nil {
		s.publish(EventSlotUpdate, slotReserved)
	}
	return res, nil
}

// ListReservations 查询预约，普通用户只能看到自己的
func (s *BookingService) ListReservations(ctx context.Context, caller auth.Identity, filter models.ReservationFilter) ([]*models.Reservation, error) {
	if !caller.IsAdmin() {
		uid := caller.UserID
		filter.UserID = &uid
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, validationf("Invalid status value")
	}
	list, err := s.store.Reservations().List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

// GetReservation 获取预约
func (s *BookingService) GetReservation(ctx context.Context, caller auth.Identity, id int64) (*models.Reservation, error) {
	return loadReservation(ctx, s.store, caller, id)
}

// UpdateReservationStatus 推进预约状态，完成时释放车位
func (s *BookingService) UpdateReservationStatus(ctx context.Context, caller auth.Identity, id int64, status models.ReservationStatus) error {
	if !status.Valid() {
		return validationf("Invalid status value")
	}

	var (
		changed  *models.Reservation
		released *models.ParkingSlot
		event    string
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		res, err := loadReservation(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		event, err = state.Reservation.Transition(ctx, string(res.Status), string(status))
		if err != nil {
			return translate(err, "Reservation")
		}
		if res.Status == status {
			return nil
		}

		n, err := tx.Reservations().UpdateStatus(ctx, id, res.Status, status)
		if err != nil {
			return internal(err)
		}
		if n == 0 {
			return staleUpdate("Reservation")
		}
		res.Status = status
		changed = res

		if status == models.ReservationCompleted {
			released, err = releaseSlot(ctx, tx, res.SlotID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if changed != nil {
		s.logger.Info("Reservation status changed",
			zap.Int64("reservation_id", id),
			zap.String("event", event),
			zap.String("status", string(status)))
		s.publish(EventReservationUpdate, changed)
	}
	if released != nil {
		s.publish(EventSlotUpdate, released)
	}
	return nil
}

// releaseSlot 车位上没有其他未完成预约时置为 available
func releaseSlot(ctx context.Context, tx repository.Store, slotID int64) (*models.ParkingSlot, error) {
	active, err := tx.Reservations().CountActiveBySlot(ctx, slotID)
	if err != nil {
		return nil, internal(err)
	}
	if active > 0 {
		return nil, nil
	}

	slot, err := tx.Slots().GetByIDForUpdate(ctx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, internal(err)
	}
	if slot.Status != models.SlotReserved {
		return nil, nil
	}

	if _, err := tx.Slots().UpdateStatus(ctx, slotID, models.SlotReserved, models.SlotAvailable); err != nil {
		return nil, internal(err)
	}
	slot.Status = models.SlotAvailable
	return slot, nil
}
