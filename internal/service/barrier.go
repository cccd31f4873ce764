package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
)

// BarrierInput 道闸操作参数
type BarrierInput struct {
	ReservationID int64
	Action        models.BarrierAction
}

// ControlBarrier 记录道闸操作并推送，仅限已确认的预约
func (s *BookingService) ControlBarrier(ctx context.Context, caller auth.Identity, in BarrierInput) (*models.BarrierControl, error) {
	if in.ReservationID <= 0 || in.Action == "" {
		return nil, validationf("Missing required fields")
	}
	if !in.Action.Valid() {
		return nil, validationf("Invalid action. Must be 'open' or 'close'")
	}

	res, err := loadReservation(ctx, s.store, caller, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != models.ReservationConfirmed {
		return nil, conflict(CodeReservationState, "Reservation is not confirmed")
	}

	control := &models.BarrierControl{
		ReservationID: res.ID,
		UserID:        caller.UserID,
		Action:        in.Action,
		ActionTime:    s.now().UTC(),
	}
	if err := s.store.Barriers().Create(ctx, control); err != nil {
		return nil, translate(err, "Barrier control")
	}

	s.logger.Info("Barrier control action recorded",
		zap.Int64("control_id", control.ID),
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", caller.UserID),
		zap.String("action", string(control.Action)))
	s.publish(EventBarrierAction, control)
	return control, nil
}

// ListBarrierControls 预约的道闸操作记录
func (s *BookingService) ListBarrierControls(ctx context.Context, caller auth.Identity, reservationID int64) ([]*models.BarrierControl, error) {
	if _, err := loadReservation(ctx, s.store, caller, reservationID); err != nil {
		return nil, err
	}
	list, err := s.store.Barriers().ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}
