package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Username == user.Username || u.Phone == user.Phone || u.Email == user.Email {
			return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
	}
	user.ID = r.s.data.next("users")
	user.CreatedAt = now()
	r.s.data.users[user.ID] = clone(user)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	defer r.s.lock()()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %d: %w", id, repository.ErrNotFound)
	}
	return clone(u), nil
}

func (r *userRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	defer r.s.lock()()
	var found *models.User
	for _, u := range r.s.data.users {
		if u.Username == identifier || u.Phone == identifier || u.Email == identifier {
			if found == nil || u.ID < found.ID {
				found = u
			}
		}
	}
	if found == nil {
		return nil, fmt.Errorf("find user: %w", repository.ErrNotFound)
	}
	return clone(found), nil
}

func (r *userRepo) ExistsAny(ctx context.Context, username, phone, email string) (bool, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Username == username || u.Phone == phone || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type slotRepo struct{ s *Store }

func (r *slotRepo) Create(ctx context.Context, slot *models.ParkingSlot) error {
	defer r.s.lock()()
	for _, existing := range r.s.data.slots {
		if existing.SlotNumber == slot.SlotNumber {
			return fmt.Errorf("insert parking slot: %w", repository.ErrDuplicate)
		}
	}
	slot.ID = r.s.data.next("parking_slots")
	slot.CreatedAt = now()
	r.s.data.slots[slot.ID] = clone(slot)
	return nil
}

func (r *slotRepo) GetByID(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	defer r.s.lock()()
	slot, ok := r.s.data.slots[id]
	if !ok {
		return nil, fmt.Errorf("get parking slot %d: %w", id, repository.ErrNotFound)
	}
	return clone(slot), nil
}

// GetByIDForUpdate 事务本身已串行，无需额外加锁
func (r *slotRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	return r.GetByID(ctx, id)
}

func (r *slotRepo) List(ctx context.Context, filter models.SlotFilter) ([]*models.ParkingSlot, error) {
	defer r.s.lock()()
	out := make([]*models.ParkingSlot, 0, len(r.s.data.slots))
	for _, slot := range r.s.data.slots {
		if filter.Floor != nil && slot.Floor != *filter.Floor {
			continue
		}
		if filter.Status != nil && slot.Status != *filter.Status {
			continue
		}
		out = append(out, clone(slot))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].SlotNumber < out[j].SlotNumber
	})
	return out, nil
}

func (r *slotRepo) UpdateStatus(ctx context.Context, id int64, from, to models.SlotStatus) (int64, error) {
	defer r.s.lock()()
	slot, ok := r.s.data.slots[id]
	if !ok || slot.Status != from {
		return 0, nil
	}
	slot.Status = to
	return 1, nil
}

type reservationRepo struct{ s *Store }

func (r *reservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	defer r.s.lock()()
	if _, ok := r.s.data.users[res.UserID]; !ok {
		return fmt.Errorf("insert reservation: user %d: %w", res.UserID, repository.ErrNotFound)
	}
	if _, ok := r.s.data.slots[res.SlotID]; !ok {
		return fmt.Errorf("insert reservation: slot %d: %w", res.SlotID, repository.ErrNotFound)
	}
	res.ID = r.s.data.next("reservations")
	res.CreatedAt = now()
	r.s.data.reservations[res.ID] = clone(res)
	return nil
}

func (r *reservationRepo) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	defer r.s.lock()()
	res, ok := r.s.data.reservations[id]
	if !ok {
		return nil, fmt.Errorf("get reservation %d: %w", id, repository.ErrNotFound)
	}
	return clone(res), nil
}

func (r *reservationRepo) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	defer r.s.lock()()
	out := make([]*models.Reservation, 0)
	for _, res := range r.s.data.reservations {
		if filter.UserID != nil && res.UserID != *filter.UserID {
			continue
		}
		if filter.SlotID != nil && res.SlotID != *filter.SlotID {
			continue
		}
		if filter.Status != nil && res.Status != *filter.Status {
			continue
		}
		if filter.EndingBefore != nil && !res.EndTime.Before(*filter.EndingBefore) {
			continue
		}
		out = append(out, clone(res))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *reservationRepo) HasOverlap(ctx context.Context, slotID int64, start, end time.Time) (bool, error) {
	defer r.s.lock()()
	for _, res := range r.s.data.reservations {
		if res.SlotID == slotID && res.Status.Active() && res.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *reservationRepo) CountActiveBySlot(ctx context.Context, slotID int64) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, res := range r.s.data.reservations {
		if res.SlotID == slotID && res.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (r *reservationRepo) UpdateStatus(ctx context.Context, id int64, from, to models.ReservationStatus) (int64, error) {
	defer r.s.lock()()
	res, ok := r.s.data.reservations[id]
	if !ok || res.Status != from {
		return 0, nil
	}
	res.Status = to
	return 1, nil
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	defer r.s.lock()()
	if _, ok := r.s.data.reservations[p.ReservationID]; !ok {
		return fmt.Errorf("insert payment: reservation %d: %w", p.ReservationID, repository.ErrNotFound)
	}
	if p.PenaltyID.Valid {
		if _, ok := r.s.data.penalties[p.PenaltyID.Int64]; !ok {
			return fmt.Errorf("insert payment: penalty %d: %w", p.PenaltyID.Int64, repository.ErrNotFound)
		}
	}
	for _, existing := range r.s.data.payments {
		if existing.BankReferenceNumber == p.BankReferenceNumber {
			return fmt.Errorf("insert payment: %w", repository.ErrDuplicate)
		}
	}
	p.ID = r.s.data.next("payments")
	p.CreatedAt = now()
	r.s.data.payments[p.ID] = clone(p)
	return nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	defer r.s.lock()()
	p, ok := r.s.data.payments[id]
	if !ok {
		return nil, fmt.Errorf("get payment %d: %w", id, repository.ErrNotFound)
	}
	return clone(p), nil
}

func (r *paymentRepo) ListByReservation(ctx context.Context, reservationID int64) ([]*models.Payment, error) {
	defer r.s.lock()()
	out := make([]*models.Payment, 0)
	for _, p := range r.s.data.payments {
		if p.ReservationID == reservationID {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id int64, from, to models.PaymentStatus) (int64, error) {
	defer r.s.lock()()
	p, ok := r.s.data.payments[id]
	if !ok || p.Status != from {
		return 0, nil
	}
	p.Status = to
	return 1, nil
}

type penaltyRepo struct{ s *Store }

func (r *penaltyRepo) Create(ctx context.Context, p *models.Penalty) error {
	defer r.s.lock()()
	if _, ok := r.s.data.reservations[p.ReservationID]; !ok {
		return fmt.Errorf("insert penalty: reservation %d: %w", p.ReservationID, repository.ErrNotFound)
	}
	p.ID = r.s.data.next("penalties")
	p.CreatedAt = now()
	r.s.data.penalties[p.ID] = clone(p)
	return nil
}

func (r *penaltyRepo) GetByID(ctx context.Context, id int64) (*models.Penalty, error) {
	defer r.s.lock()()
	p, ok := r.s.data.penalties[id]
	if !ok {
		return nil, fmt.Errorf("get penalty %d: %w", id, repository.ErrNotFound)
	}
	return clone(p), nil
}

func (r *penaltyRepo) List(ctx context.Context, filter models.PenaltyFilter) ([]*models.Penalty, error) {
	defer r.s.lock()()
	out := make([]*models.Penalty, 0)
	for _, p := range r.s.data.penalties {
		if filter.ReservationID != nil && p.ReservationID != *filter.ReservationID {
			continue
		}
		if filter.UserID != nil {
			res, ok := r.s.data.reservations[p.ReservationID]
			if !ok || res.UserID != *filter.UserID {
				continue
			}
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *penaltyRepo) UpdateStatus(ctx context.Context, id int64, from, to models.PenaltyStatus) (int64, error) {
	defer r.s.lock()()
	p, ok := r.s.data.penalties[id]
	if !ok || p.Status != from {
		return 0, nil
	}
	p.Status = to
	return 1, nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	defer r.s.lock()()
	if _, ok := r.s.data.reservations[n.ReservationID]; !ok {
		return fmt.Errorf("insert notification: reservation %d: %w", n.ReservationID, repository.ErrNotFound)
	}
	n.ID = r.s.data.next("notifications")
	n.CreatedAt = now()
	r.s.data.notifications[n.ID] = clone(n)
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	defer r.s.lock()()
	n, ok := r.s.data.notifications[id]
	if !ok {
		return nil, fmt.Errorf("get notification %d: %w", id, repository.ErrNotFound)
	}
	return clone(n), nil
}

func (r *notificationRepo) ListByReservation(ctx context.Context, reservationID int64) ([]*models.Notification, error) {
	defer r.s.lock()()
	out := make([]*models.Notification, 0)
	for _, n := range r.s.data.notifications {
		if n.ReservationID == reservationID {
			out = append(out, clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *notificationRepo) SetRead(ctx context.Context, id int64, isRead bool) (int64, error) {
	defer r.s.lock()()
	n, ok := r.s.data.notifications[id]
	if !ok {
		return 0, nil
	}
	n.IsRead = isRead
	return 1, nil
}

func (r *notificationRepo) ExistsKind(ctx context.Context, reservationID int64, kind models.NotificationKind) (bool, error) {
	defer r.s.lock()()
	for _, n := range r.s.data.notifications {
		if n.ReservationID == reservationID && n.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

type barrierRepo struct{ s *Store }

func (r *barrierRepo) Create(ctx context.Context, b *models.BarrierControl) error {
	defer r.s.lock()()
	if _, ok := r.s.data.reservations[b.ReservationID]; !ok {
		return fmt.Errorf("insert barrier control: reservation %d: %w", b.ReservationID, repository.ErrNotFound)
	}
	if _, ok := r.s.data.users[b.UserID]; !ok {
		return fmt.Errorf("insert barrier control: user %d: %w", b.UserID, repository.ErrNotFound)
	}
	b.ID = r.s.data.next("barrier_control")
	r.s.data.barriers[b.ID] = clone(b)
	return nil
}

func (r *barrierRepo) ListByReservation(ctx context.Context, reservationID int64) ([]*models.BarrierControl, error) {
	defer r.s.lock()()
	out := make([]*models.BarrierControl, 0)
	for _, b := range r.s.data.barriers {
		if b.ReservationID == reservationID {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ActionTime.Equal(out[j].ActionTime) {
			return out[i].ActionTime.Before(out[j].ActionTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
