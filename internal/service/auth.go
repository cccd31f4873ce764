package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/repository"
)

// AuthService 注册、登录与用户查询
type AuthService struct {
	logger  *zap.Logger
	store   repository.Store
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenManager
	isAdmin func(username string) bool
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username string `validate:"required"`
	Phone    string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	CarPlate string `validate:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAuthService 创建认证服务，isAdmin 决定注册时是否授予管理员角色
func NewAuthService(
	logger *zap.Logger,
	store repository.Store,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	isAdmin func(username string) bool,
) *AuthService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthService{
		logger:  logger,
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		isAdmin: isAdmin,
	}
}

func userExists() *Error {
	return &Error{Kind: KindValidation, Code: CodeUserExists, Message: "User already exists"}
}

func passwordTooLong() *Error {
	return validationf("Password must be at most %d bytes", auth.MaxPasswordBytes)
}

func invalidCredentials() *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidCredentials, Message: "Invalid credentials"}
}

// Register 注册用户，用户名、手机号、邮箱均不可重复
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.CarPlate = strings.TrimSpace(in.CarPlate)

	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, passwordTooLong()
	}

	exists, err := s.store.Users().ExistsAny(ctx, in.Username, in.Phone, in.Email)
	if err != nil {
		return nil, internal(err)
	}
	if exists {
		return nil, userExists()
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, passwordTooLong()
	}
	if err != nil {
		return nil, internal(err)
	}

	role := models.RoleUser
	if s.isAdmin(in.Username) {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username:     in.Username,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		CarPlate:     in.CarPlate,
		Role:         role,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		// 并发注册撞上唯一约束
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, userExists()
		}
		return nil, internal(err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Login 以用户名、手机号或邮箱登录，任何失败都返回同一错误
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, validationf("Missing required fields")
	}

	user, err := s.store.Users().FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, internal(err)
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalidCredentials()
		}
		return nil, internal(err)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, internal(err)
	}

	return &LoginResult{Token: token, UserID: user.ID, ExpiresAt: expiresAt}, nil
}

// GetUser 获取用户，仅本人或管理员
func (s *AuthService) GetUser(ctx context.Context, caller auth.Identity, id int64) (*models.User, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "User")
	}
	return user, nil
}
