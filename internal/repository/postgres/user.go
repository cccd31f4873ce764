package postgres

import (
	"context"
	"fmt"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

const userColumns = `user_id, username, phone, email, password, car_plate, role, created_at`

// UserRepository 用户数据仓库
type UserRepository struct {
	q querier
}

var _ repository.UserRepository = (*UserRepository)(nil)

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, phone, email, password, car_plate, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id, created_at
	`
	err := r.q.QueryRowContext(ctx, query,
		user.Username,
		user.Phone,
		user.Email,
		user.PasswordHash,
		user.CarPlate,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	return nil
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, mapError(err))
	}
	return user, nil
}

// FindByIdentifier 按用户名、手机号或邮箱查找
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE username = $1 OR phone = $1 OR email = $1
		ORDER BY user_id
		LIMIT 1
	`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, identifier))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", mapError(err))
	}
	return user, nil
}

// ExistsAny 用户名、手机号、邮箱任一已被占用
func (r *UserRepository) ExistsAny(ctx context.Context, username, phone, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR phone = $2 OR email = $3)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, username, phone, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Phone,
		&u.Email,
		&u.PasswordHash,
		&u.CarPlate,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
