package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/pricing"
	"github.com/Tonkaw007/Pabu/internal/repository"
	"github.com/Tonkaw007/Pabu/internal/state"
)

// PaymentInput 新建支付参数
// PenaltyID 为空表示支付预约费用；Amount 仅用于核对应付金额
type PaymentInput struct {
	ReservationID       int64
	PenaltyID           *int64
	Amount              *float64
	Status              models.PaymentStatus
	BankReferenceNumber string
}

// CreatePayment 新建支付记录，初始状态为 pending
func (s *BookingService) CreatePayment(ctx context.Context, caller auth.Identity, in PaymentInput) (*models.Payment, error) {
	if in.ReservationID <= 0 {
		return nil, validationf("Missing required fields")
	}
	if in.Status == "" {
		in.Status = models.PaymentPending
	}
	if !in.Status.Valid() {
		return nil, validationf("Invalid payment status")
	}
	if in.Status != models.PaymentPending {
		return nil, &Error{Kind: KindValidation, Code: CodeInvalidTransition, Message: "New payments must start as pending"}
	}

	ref := strings.TrimSpace(in.BankReferenceNumber)
	if ref == "" {
		generated, err := newBankReference()
		if err != nil {
			return nil, internal(err)
		}
		ref = generated
	}

	var payment *models.Payment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		res, err := loadReservation(ctx, tx, caller, in.ReservationID)
		if err != nil {
			return err
		}

		owed := res.TotalPrice
		penaltyID := null.Int{}
		if in.PenaltyID != nil {
			penalty, err := tx.Penalties().GetByID(ctx, *in.PenaltyID)
			if err != nil {
				return translate(err, "Penalty")
			}
			if penalty.ReservationID != res.ID {
				return validationf("Penalty does not belong to this reservation")
			}
			if penalty.Status == models.PenaltyPaid {
				return conflict(CodeConflict, "Penalty is already paid")
			}
			owed = penalty.Amount
			penaltyID = null.IntFrom(penalty.ID)
		}

		settled, err := settledBy(ctx, tx, &models.Payment{ReservationID: res.ID, PenaltyID: penaltyID})
		if err != nil {
			return internal(err)
		}
		if settled {
			return alreadyPaid(&models.Payment{PenaltyID: penaltyID})
		}

		if in.Amount != nil && !pricing.Equal(*in.Amount, owed) {
			return &Error{Kind: KindValidation, Code: CodeAmountMismatch, Message: "amount does not match the amount owed"}
		}

		payment = &models.Payment{
			ReservationID:       res.ID,
			PenaltyID:           penaltyID,
			Amount:              owed,
			Status:              models.PaymentPending,
			BankReferenceNumber: ref,
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return translate(err, "Payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment processed",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("reservation_id", payment.ReservationID),
		zap.Float64("amount", payment.Amount))
	return payment, nil
}

// GetPayment 获取支付记录
func (s *BookingService) GetPayment(ctx context.Context, caller auth.Identity, id int64) (*models.Payment, error) {
	payment, err := s.store.Payments().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Payment")
	}
	if _, err := loadReservation(ctx, s.store, caller, payment.ReservationID); err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPayments 获取预约下的支付记录
func (s *BookingService) ListPayments(ctx context.Context, caller auth.Identity, reservationID int64) ([]*models.Payment, error) {
	if _, err := loadReservation(ctx, s.store, caller, reservationID); err != nil {
		return nil, err
	}
	list, err := s.store.Payments().ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

// UpdatePaymentStatus 修改支付状态
// 核验通过时同一事务内结清罚款或确认待支付的预约
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, caller auth.Identity, id int64, status models.PaymentStatus) error {
	if !status.Valid() {
		return validationf("Invalid payment status")
	}

	var (
		confirmed *models.Reservation
		changed   bool
		event     string
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		payment, err := tx.Payments().GetByID(ctx, id)
		if err != nil {
			return translate(err, "Payment")
		}
		res, err := loadReservation(ctx, tx, caller, payment.ReservationID)
		if err != nil {
			return err
		}
		event, err = state.Payment.Transition(ctx, string(payment.Status), string(status))
		if err != nil {
			return translate(err, "Payment")
		}
		if payment.Status == status {
			return nil
		}

		if status == models.PaymentVerified {
			// 车位行锁串行化同一预约下的核验
			if _, err := tx.Slots().GetByIDForUpdate(ctx, res.SlotID); err != nil {
				return translate(err, "Parking slot")
			}
			settled, err := settledBy(ctx, tx, payment)
			if err != nil {
				return internal(err)
			}
			if settled {
				return alreadyPaid(payment)
			}
		}

		n, err := tx.Payments().UpdateStatus(ctx, id, payment.Status, status)
		if err != nil {
			return internal(err)
		}
		if n == 0 {
			return staleUpdate("Payment")
		}
		changed = true

		if status != models.PaymentVerified {
			return nil
		}
		if payment.PenaltyID.Valid {
			n, err := tx.Penalties().UpdateStatus(ctx, payment.PenaltyID.Int64, models.PenaltyUnpaid, models.PenaltyPaid)
			if err != nil {
				return internal(err)
			}
			if n == 0 {
				return alreadyPaid(payment)
			}
			return nil
		}
		if res.Status == models.ReservationPending {
			n, err := tx.Reservations().UpdateStatus(ctx, res.ID, models.ReservationPending, models.ReservationConfirmed)
			if err != nil {
				return internal(err)
			}
			if n == 0 {
				return staleUpdate("Reservation")
			}
			res.Status = models.ReservationConfirmed
			confirmed = res
		}
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.logger.Info("Payment status changed",
			zap.Int64("payment_id", id),
			zap.String("event", event),
			zap.String("payment_status", string(status)))
	}
	if confirmed != nil {
		s.publish(EventReservationUpdate, confirmed)
	}
	return nil
}

// settledBy 同一笔预约费用或同一罚款是否已有其他核验通过的支付
func settledBy(ctx context.Context, tx repository.Store, p *models.Payment) (bool, error) {
	list, err := tx.Payments().ListByReservation(ctx, p.ReservationID)
	if err != nil {
		return false, err
	}
	for _, other := range list {
		if other.ID == p.ID || other.Status != models.PaymentVerified {
			continue
		}
		if other.PenaltyID.Valid == p.PenaltyID.Valid && other.PenaltyID.Int64 == p.PenaltyID.Int64 {
			return true, nil
		}
	}
	return false, nil
}

func alreadyPaid(p *models.Payment) *Error {
	if p.PenaltyID.Valid {
		return conflict(CodeConflict, "Penalty is already paid")
	}
	return conflict(CodeConflict, "Reservation fee is already paid")
}
