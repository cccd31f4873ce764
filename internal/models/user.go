package models

import "time"

// Role 用户角色
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User 用户
type User struct {
	ID           int64     `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Phone        string    `json:"phone" db:"phone"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	CarPlate     string    `json:"car_plate" db:"car_plate"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}
