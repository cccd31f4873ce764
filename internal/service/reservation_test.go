package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/pricing"
	"github.com/Tonkaw007/Pabu/internal/repository/postgres"
)

func TestCreateReservationLocksSlotBeforeOverlapCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	svc := NewBookingService(zap.NewNop(), postgres.NewStore(db), pricing.DefaultRateTable(), nil)
	caller := auth.Identity{UserID: 3, Role: models.RoleUser}
	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE user_id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "phone", "email", "password", "car_plate", "role", "created_at"}).
			AddRow(int64(3), "alice", "0800000002", "a@x.com", "hash", "1AB234", "user", start))
	mock.ExpectQuery("SELECT (.+) FROM parking_slots WHERE slot_id = \\$1 FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"slot_id", "slot_number", "floor", "status", "created_at"}).
			AddRow(int64(5), "A01", 1, "reserved", start))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = svc.CreateReservation(context.Background(), caller, ReservationInput{
		SlotID: 5, StartTime: start, EndTime: end, BookingType: models.BookingHourly,
	})
	assertCode(t, err, CodeSlotUnavailable)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
