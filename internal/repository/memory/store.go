// Package memory 内存数据仓库，用于测试与 DB_DRIVER=memory
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

// tables 全部数据及自增序列
type tables struct {
	users         map[int64]*models.User
	slots         map[int64]*models.ParkingSlot
	reservations  map[int64]*models.Reservation
	payments      map[int64]*models.Payment
	penalties     map[int64]*models.Penalty
	notifications map[int64]*models.Notification
	barriers      map[int64]*models.BarrierControl

	seq map[string]int64
}

func newTables() *tables {
	return &tables{
		users:         make(map[int64]*models.User),
		slots:         make(map[int64]*models.ParkingSlot),
		reservations:  make(map[int64]*models.Reservation),
		payments:      make(map[int64]*models.Payment),
		penalties:     make(map[int64]*models.Penalty),
		notifications: make(map[int64]*models.Notification),
		barriers:      make(map[int64]*models.BarrierControl),
		seq:           make(map[string]int64),
	}
}

func (t *tables) next(table string) int64 {
	t.seq[table]++
	return t.seq[table]
}

// snapshot 深拷贝，用于事务回滚
func (t *tables) snapshot() *tables {
	c := &tables{
		users:         cloneMap(t.users),
		slots:         cloneMap(t.slots),
		reservations:  cloneMap(t.reservations),
		payments:      cloneMap(t.payments),
		penalties:     cloneMap(t.penalties),
		notifications: cloneMap(t.notifications),
		barriers:      cloneMap(t.barriers),
		seq:           make(map[string]int64, len(t.seq)),
	}
	for k, v := range t.seq {
		c.seq[k] = v
	}
	return c
}

func cloneMap[T any](m map[int64]*T) map[int64]*T {
	out := make(map[int64]*T, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

func clone[T any](v *T) *T {
	cp := *v
	return &cp
}

// Store repository.Store 的内存实现
type Store struct {
	mu   *sync.Mutex
	data *tables
	inTx bool
}

var _ repository.Store = (*Store)(nil)

// NewStore 创建空的内存仓库
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: newTables()}
}

// lock 事务内已持有锁
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s: s} }
func (s *Store) Slots() repository.SlotRepository                 { return &slotRepo{s: s} }
func (s *Store) Reservations() repository.ReservationRepository   { return &reservationRepo{s: s} }
func (s *Store) Payments() repository.PaymentRepository           { return &paymentRepo{s: s} }
func (s *Store) Penalties() repository.PenaltyRepository          { return &penaltyRepo{s: s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s: s} }
func (s *Store) Barriers() repository.BarrierRepository           { return &barrierRepo{s: s} }

// WithTx 串行执行 fn，出错时恢复快照
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.data.snapshot()
	if err := fn(&Store{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = *before
		return err
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
