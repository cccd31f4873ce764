package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
	"github.com/Tonkaw007/Pabu/internal/state"
)

var slotNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// SlotInput 新建车位参数
type SlotInput struct {
	SlotNumber string
	Floor      int
	Status     models.SlotStatus
}

// CreateSlot 新建车位（管理员）
func (s *BookingService) CreateSlot(ctx context.Context, caller auth.Identity, in SlotInput) (*models.ParkingSlot, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	in.SlotNumber = strings.TrimSpace(in.SlotNumber)
	if in.SlotNumber == "" {
		return nil, validationf("Missing required fields")
	}
	if in.Status == "" {
		in.Status = models.SlotAvailable
	}
	if !in.Status.Valid() {
		return nil, validationf("Invalid status. Must be 'available' or 'reserved'")
	}
	if in.Floor <= 0 {
		return nil, validationf("Invalid floor number")
	}
	if !slotNumberPattern.MatchString(in.SlotNumber) {
		return nil, validationf("Invalid slot number format")
	}

	slot := &models.ParkingSlot{SlotNumber: in.SlotNumber, Floor: in.Floor, Status: in.Status}
	if err := s.store.Slots().Create(ctx, slot); err != nil {
		return nil, translate(err, "Parking slot")
	}

	s.logger.Info("Parking slot added",
		zap.Int64("slot_id", slot.ID),
		zap.String("slot_number", slot.SlotNumber),
		zap.Int("floor", slot.Floor))
	s.publish(EventSlotUpdate, slot)
	return slot, nil
}

// ListSlots 按楼层、状态查询车位
func (s *BookingService) ListSlots(ctx context.Context, filter models.SlotFilter) ([]*models.ParkingSlot, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, validationf("Invalid status value")
	}
	slots, err := s.store.Slots().List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return slots, nil
}

// GetSlot 获取车位
func (s *BookingService) GetSlot(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	slot, err := s.store.Slots().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Parking slot")
	}
	return slot, nil
}

// UpdateSlotStatus 修改车位状态（管理员）
// 车位上仍有未完成预约时不可释放
func (s *BookingService) UpdateSlotStatus(ctx context.Context, caller auth.Identity, id int64, status models.SlotStatus) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if !status.Valid() {
		return validationf("Invalid status value")
	}

	var (
		updated *models.ParkingSlot
		event   string
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		slot, err := tx.Slots().GetByIDForUpdate(ctx, id)
		if err != nil {
			return translate(err, "Parking slot")
		}
		event, err = state.Slot.Transition(ctx, string(slot.Status), string(status))
		if err != nil {
			return translate(err, "Parking slot")
		}
		if slot.Status == status {
			return nil
		}

		if status == models.SlotAvailable {
			active, err := tx.Reservations().CountActiveBySlot(ctx, id)
			if err != nil {
				return internal(err)
			}
			if active > 0 {
				return conflict(CodeSlotUnavailable, "Parking slot has active reservations")
			}
		}

		n, err := tx.Slots().UpdateStatus(ctx, id, slot.Status, status)
		if err != nil {
			return internal(err)
		}
		if n == 0 {
			return staleUpdate("Parking slot")
		}
		slot.Status = status
		updated = slot
		return nil
	})
	if err != nil {
		return err
	}

	if updated != nil {
		s.logger.Info("Parking slot status changed",
			zap.Int64("slot_id", id),
			zap.String("event", event),
			zap.String("status", string(status)))
		s.publish(EventSlotUpdate, updated)
	}
	return nil
}
