// Package postgres PostgreSQL 数据仓库实现（database/sql + pgx 驱动）
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Tonkaw007/Pabu/internal/repository"
)

// PostgreSQL 错误码
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Options 连接池参数
type Options struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open 创建数据库连接
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	db, err := sql.Open("pgx", opts.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// 连接池配置
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	// 测试连接
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// querier *sql.DB 与 *sql.Tx 的公共方法
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store repository.Store 的 PostgreSQL 实现
type Store struct {
	db   *sql.DB
	q    querier
	inTx bool

	users         *UserRepository
	slots         *SlotRepository
	reservations  *ReservationRepository
	payments      *PaymentRepository
	penalties     *PenaltyRepository
	notifications *NotificationRepository
	barriers      *BarrierRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore 创建数据仓库
func NewStore(db *sql.DB) *Store {
	return newStore(db, db, false)
}

func newStore(db *sql.DB, q querier, inTx bool) *Store {
	return &Store{
		db:            db,
		q:             q,
		inTx:          inTx,
		users:         &UserRepository{q: q},
		slots:         &SlotRepository{q: q},
		reservations:  &ReservationRepository{q: q},
		payments:      &PaymentRepository{q: q},
		penalties:     &PenaltyRepository{q: q},
		notifications: &NotificationRepository{q: q},
		barriers:      &BarrierRepository{q: q},
	}
}

func (s *Store) Users() repository.UserRepository                 { return s.users }
func (s *Store) Slots() repository.SlotRepository                 { return s.slots }
func (s *Store) Reservations() repository.ReservationRepository   { return s.reservations }
func (s *Store) Payments() repository.PaymentRepository           { return s.payments }
func (s *Store) Penalties() repository.PenaltyRepository          { return s.penalties }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }
func (s *Store) Barriers() repository.BarrierRepository           { return s.barriers }

// WithTx 在事务中执行 fn，已在事务中时直接复用
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(newStore(s.db, tx, true)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapError 将驱动错误转换为仓库哨兵错误
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// conditions 动态拼接 WHERE 子句
type conditions struct {
	clauses []string
	args    []any
}

// add expr 中的 %d 替换为参数序号
func (c *conditions) add(expr string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(expr, len(c.args)))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
