package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate 执行数据库迁移
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		migrationCreateUsers,
		migrationCreateParkingSlots,
		migrationCreateReservations,
		migrationCreatePenalties,
		migrationCreatePayments,
		migrationCreateNotifications,
		migrationCreateBarrierControl,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateUsers = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGSERIAL PRIMARY KEY,
    username VARCHAR(100) NOT NULL UNIQUE,
    phone VARCHAR(32) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    password TEXT NOT NULL,
    car_plate VARCHAR(32) NOT NULL DEFAULT '',
    role VARCHAR(16) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migrationCreateParkingSlots = `
CREATE TABLE IF NOT EXISTS parking_slots (
    slot_id BIGSERIAL PRIMARY KEY,
    slot_number VARCHAR(32) NOT NULL UNIQUE,
    floor INT NOT NULL CHECK (floor > 0),
    status VARCHAR(16) NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'reserved')),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_parking_slots_floor ON parking_slots(floor);
`

// slot_number 不唯一：同一车位会被多次预约
const migrationCreateReservations = `
CREATE TABLE IF NOT EXISTS reservations (
    reservation_id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    slot_id BIGINT NOT NULL REFERENCES parking_slots(slot_id),
    slot_number VARCHAR(32) NOT NULL,
    floor INT NOT NULL,
    start_time TIMESTAMP WITH TIME ZONE NOT NULL,
    end_time TIMESTAMP WITH TIME ZONE NOT NULL,
    booking_type VARCHAR(16) NOT NULL CHECK (booking_type IN ('hourly', 'daily', 'monthly')),
    total_price NUMERIC(12, 2) NOT NULL,
    rate_version VARCHAR(32) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'confirmed', 'completed')),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CHECK (end_time > start_time)
);
CREATE INDEX IF NOT EXISTS idx_reservations_user_id ON reservations(user_id);
CREATE INDEX IF NOT EXISTS idx_reservations_slot_status ON reservations(slot_id, status);
CREATE INDEX IF NOT EXISTS idx_reservations_end_time ON reservations(end_time);
`

const migrationCreatePenalties = `
CREATE TABLE IF NOT EXISTS penalties (
    penalty_id BIGSERIAL PRIMARY KEY,
    reservation_id BIGINT NOT NULL REFERENCES reservations(reservation_id),
    actual_exit_time TIMESTAMP WITH TIME ZONE NOT NULL,
    amount NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
    status VARCHAR(16) NOT NULL DEFAULT 'unpaid' CHECK (status IN ('unpaid', 'paid')),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_penalties_reservation_id ON penalties(reservation_id);
`

const migrationCreatePayments = `
CREATE TABLE IF NOT EXISTS payments (
    payment_id BIGSERIAL PRIMARY KEY,
    reservation_id BIGINT NOT NULL REFERENCES reservations(reservation_id),
    penalty_id BIGINT REFERENCES penalties(penalty_id),
    amount NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
    payment_status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending', 'verified', 'failed')),
    bank_reference_number VARCHAR(64) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_reservation_id ON payments(reservation_id);
`

const migrationCreateNotifications = `
CREATE TABLE IF NOT EXISTS notifications (
    notification_id BIGSERIAL PRIMARY KEY,
    reservation_id BIGINT NOT NULL REFERENCES reservations(reservation_id),
    message TEXT NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    kind VARCHAR(16) NOT NULL DEFAULT 'custom' CHECK (kind IN ('custom', 'ending_soon', 'ended')),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notifications_reservation_kind ON notifications(reservation_id, kind);
`

// 道闸日志只追加
const migrationCreateBarrierControl = `
CREATE TABLE IF NOT EXISTS barrier_control (
    control_id BIGSERIAL PRIMARY KEY,
    reservation_id BIGINT NOT NULL REFERENCES reservations(reservation_id),
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    action VARCHAR(8) NOT NULL CHECK (action IN ('open', 'close')),
    action_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_barrier_control_reservation_id ON barrier_control(reservation_id);
`
