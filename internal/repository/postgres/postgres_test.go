package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"users", "parking_slots", "reservations", "penalties", "payments", "notifications", "barrier_control"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table + " ").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSlotCreateDuplicate(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO parking_slots").
		WithArgs("A01", 1, "available").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "parking_slots_slot_number_key"})

	slot := &models.ParkingSlot{SlotNumber: "A01", Floor: 1, Status: models.SlotAvailable}
	err := store.Slots().Create(context.Background(), slot)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSlotGetByIDNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("FROM parking_slots WHERE slot_id = \\$1").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"slot_id", "slot_number", "floor", "status", "created_at"}))

	_, err := store.Slots().GetByID(context.Background(), 9)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSlotListFilters(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_slots WHERE floor = $1 AND status = $2 ORDER BY floor, slot_number")).
		WithArgs(2, "available").
		WillReturnRows(sqlmock.NewRows([]string{"slot_id", "slot_number", "floor", "status", "created_at"}).
			AddRow(int64(3), "B01", int64(2), "available", now).
			AddRow(int64(4), "B02", int64(2), "available", now))

	floor := 2
	status := models.SlotAvailable
	slots, err := store.Slots().List(context.Background(), models.SlotFilter{Floor: &floor, Status: &status})
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].SlotNumber != "B01" || slots[0].Floor != 2 || slots[0].Status != models.SlotAvailable {
		t.Fatalf("unexpected slot: %+v", slots[0])
	}
}

func TestReservationCreateForeignKey(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO reservations").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "reservations_slot_id_fkey"})

	res := &models.Reservation{
		UserID:      1,
		SlotID:      404,
		StartTime:   time.Now(),
		EndTime:     time.Now().Add(time.Hour),
		BookingType: models.BookingHourly,
		Status:      models.ReservationPending,
	}
	err := store.Reservations().Create(context.Background(), res)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationUpdateStatusReportsAffectedRows(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE reservations SET status = \\$3 WHERE reservation_id = \\$1 AND status = \\$2").
		WithArgs(int64(77), "pending", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := store.Reservations().UpdateStatus(context.Background(), 77, models.ReservationPending, models.ReservationConfirmed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 affected rows, got %d", n)
	}
}

func TestReservationHasOverlap(t *testing.T) {
	store, mock := newMock(t)
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	overlap, err := store.Reservations().HasOverlap(context.Background(), 5, start, end)
	if err != nil {
		t.Fatalf("overlap: %v", err)
	}
	if !overlap {
		t.Fatalf("expected overlap")
	}
}

func TestPaymentScanNullPenalty(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("FROM payments WHERE payment_id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "reservation_id", "penalty_id", "amount", "payment_status", "bank_reference_number", "created_at"}).
			AddRow(int64(1), int64(2), nil, 50.0, "pending", "RES-ABC", now))

	p, err := store.Payments().GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if p.PenaltyID.Valid {
		t.Fatalf("expected null penalty_id, got %v", p.PenaltyID)
	}
	if p.Status != models.PaymentPending || p.Amount != 50 {
		t.Fatalf("unexpected payment: %+v", p)
	}
}

func TestPenaltyListScopedToUser(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN reservations r ON r.reservation_id = p.reservation_id WHERE r.user_id = $1")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"penalty_id", "reservation_id", "actual_exit_time", "amount", "status", "created_at"}).
			AddRow(int64(1), int64(3), time.Now(), 100.0, "unpaid", time.Now()))

	userID := int64(8)
	list, err := store.Penalties().List(context.Background(), models.PenaltyFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("list penalties: %v", err)
	}
	if len(list) != 1 || list[0].Status != models.PenaltyUnpaid {
		t.Fatalf("unexpected penalties: %+v", list)
	}
}

func TestWithTxCommit(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM parking_slots WHERE slot_id = \\$1 FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"slot_id", "slot_number", "floor", "status", "created_at"}).
			AddRow(int64(1), "A01", int64(1), "available", time.Now()))
	mock.ExpectExec("UPDATE parking_slots SET status").
		WithArgs(int64(1), "available", "reserved").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx repository.Store) error {
		slot, err := tx.Slots().GetByIDForUpdate(context.Background(), 1)
		if err != nil {
			return err
		}
		_, err = tx.Slots().UpdateStatus(context.Background(), slot.ID, slot.Status, models.SlotReserved)
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	store, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Store) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
