package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/pricing"
	"github.com/Tonkaw007/Pabu/internal/repository"
	"github.com/Tonkaw007/Pabu/internal/state"
)

// PenaltyInput 新建罚款参数
type PenaltyInput struct {
	ReservationID  int64
	ActualExitTime time.Time
	Amount         *float64
	Status         models.PenaltyStatus
}

// CreatePenalty 记录超时罚款（管理员），金额按超出的小时数计算
func (s *BookingService) CreatePenalty(ctx context.Context, caller auth.Identity, in PenaltyInput) (*models.Penalty, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if in.ReservationID <= 0 || in.ActualExitTime.IsZero() {
		return nil, validationf("Missing required fields")
	}
	if in.Status == "" {
		in.Status = models.PenaltyUnpaid
	}
	if !in.Status.Valid() {
		return nil, validationf("Invalid penalty status")
	}
	if in.Status != models.PenaltyUnpaid {
		return nil, &Error{Kind: KindValidation, Code: CodeInvalidTransition, Message: "New penalties must start as unpaid"}
	}

	res, err := s.store.Reservations().GetByID(ctx, in.ReservationID)
	if err != nil {
		return nil, translate(err, "Reservation")
	}

	amount, err := s.rates.Overtime(res.EndTime, in.ActualExitTime)
	if err != nil {
		return nil, validationf("%s", err.Error())
	}
	if in.Amount != nil && !pricing.Equal(*in.Amount, amount) {
		return nil, &Error{Kind: KindValidation, Code: CodeAmountMismatch, Message: "amount does not match the overtime penalty"}
	}

	penalty := &models.Penalty{
		ReservationID:  res.ID,
		ActualExitTime: in.ActualExitTime,
		Amount:         amount,
		Status:         models.PenaltyUnpaid,
	}
	if err := s.store.Penalties().Create(ctx, penalty); err != nil {
		return nil, translate(err, "Penalty")
	}

	s.logger.Info("Penalty recorded",
		zap.Int64("penalty_id", penalty.ID),
		zap.Int64("reservation_id", res.ID),
		zap.Float64("amount", amount))
	return penalty, nil
}

// ListPenalties 查询罚款，普通用户只能看到自己预约下的
func (s *BookingService) ListPenalties(ctx context.Context, caller auth.Identity, reservationID *int64) ([]*models.Penalty, error) {
	filter := models.PenaltyFilter{ReservationID: reservationID}
	if !caller.IsAdmin() {
		uid := caller.UserID
		filter.UserID = &uid
	}
	list, err := s.store.Penalties().List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

// GetPenalty 获取罚款
func (s *BookingService) GetPenalty(ctx context.Context, caller auth.Identity, id int64) (*models.Penalty, error) {
	penalty, err := s.store.Penalties().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Penalty")
	}
	if _, err := loadReservation(ctx, s.store, caller, penalty.ReservationID); err != nil {
		return nil, err
	}
	return penalty, nil
}

// UpdatePenaltyStatus 修改罚款状态（管理员）
func (s *BookingService) UpdatePenaltyStatus(ctx context.Context, caller auth.Identity, id int64, status models.PenaltyStatus) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if !status.Valid() {
		return validationf("Invalid penalty status")
	}

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		penalty, err := tx.Penalties().GetByID(ctx, id)
		if err != nil {
			return translate(err, "Penalty")
		}
		event, err := state.Penalty.Transition(ctx, string(penalty.Status), string(status))
		if err != nil {
			return translate(err, "Penalty")
		}
		if penalty.Status == status {
			return nil
		}

		n, err := tx.Penalties().UpdateStatus(ctx, id, penalty.Status, status)
		if err != nil {
			return internal(err)
		}
		if n == 0 {
			return staleUpdate("Penalty")
		}
		s.logger.Info("Penalty status changed",
			zap.Int64("penalty_id", id),
			zap.String("event", event),
			zap.String("status", string(status)))
		return nil
	})
}
