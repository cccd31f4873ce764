package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Tonkaw007/Pabu/internal/repository"
	"github.com/Tonkaw007/Pabu/internal/state"
)

// Kind 错误类别，决定 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// 稳定的错误码
const (
	CodeValidation         = "validation_error"
	CodeUserExists         = "user_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeDuplicate          = "duplicate"
	CodeSlotUnavailable    = "slot_unavailable"
	CodePriceMismatch      = "price_mismatch"
	CodeAmountMismatch     = "amount_mismatch"
	CodeInvalidTransition  = "invalid_transition"
	CodeConflict           = "conflict"
	CodeReservationState   = "reservation_not_active"
	CodeInternal           = "internal_error"
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

func forbidden() *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: "You are not allowed to access this resource"}
}

func conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "Internal server error", Err: err}
}

// AsError 提取业务错误，非业务错误视为内部错误
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return internal(err)
}

// translate 将仓库和状态机错误转换为业务错误
func translate(err error, resource string) error {
	var e *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return e
	case errors.Is(err, repository.ErrNotFound):
		return notFound(resource)
	case errors.Is(err, repository.ErrDuplicate):
		return &Error{Kind: KindConflict, Code: CodeDuplicate, Message: resource + " already exists", Err: err}
	case errors.Is(err, state.ErrInvalidTransition):
		return &Error{Kind: KindValidation, Code: CodeInvalidTransition, Message: err.Error()}
	default:
		return internal(err)
	}
}

// staleUpdate CAS 更新未命中时区分不存在与并发修改
func staleUpdate(resource string) *Error {
	return conflict(CodeConflict, resource+" was modified concurrently, please retry")
}

var validate = validator.New()

// validationError 将 validator 的字段错误转换为业务错误
func validationError(err error) *Error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return internal(err)
	}
	for _, f := range fields {
		if f.Tag() == "required" {
			return validationf("Missing required fields")
		}
	}
	if fields[0].Tag() == "email" {
		return validationf("Invalid email address")
	}
	return validationf("Invalid %s", fields[0].Field())
}
