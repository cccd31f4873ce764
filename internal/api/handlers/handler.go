package handlers

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/api/middleware"
	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/service"
	"github.com/Tonkaw007/Pabu/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger     *zap.Logger
	authSvc    *service.AuthService
	bookingSvc *service.BookingService
	wsHub      *ws.Hub
	upgrader   websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	authSvc *service.AuthService,
	bookingSvc *service.BookingService,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:     logger,
		authSvc:    authSvc,
		bookingSvc: bookingSvc,
		wsHub:      wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 移动端不带 Origin
			},
		},
	}
}

// statusFor 错误类别对应的 HTTP 状态码
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError 渲染业务错误，内部错误只记录日志不外泄细节
func (h *Handler) respondError(c *gin.Context, err error) {
	e := service.AsError(err)
	if e.Kind == service.KindInternal {
		h.logger.Error("Request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	middleware.WriteError(c, statusFor(e.Kind), e.Code, e.Message)
}

func (h *Handler) badRequest(c *gin.Context, message string) {
	middleware.WriteError(c, http.StatusBadRequest, service.CodeValidation, message)
}

func init() {
	// 校验错误使用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON 解析并校验请求体，空请求体视为空对象
func (h *Handler) bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return true
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		h.badRequest(c, "Invalid request body")
		return false
	}
	h.badRequest(c, validationMessage(fields))
	return false
}

// validationMessage 缺字段优先，其余按第一个出错字段提示
func validationMessage(fields validator.ValidationErrors) string {
	for _, f := range fields {
		if f.Tag() == "required" {
			return "Missing required fields"
		}
	}
	switch f := fields[0]; f.Tag() {
	case "email":
		return "Invalid email address"
	default:
		return "Invalid " + f.Field()
	}
}

// paramID 解析路径中的整数 ID
func (h *Handler) paramID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// queryID 解析可选的整数查询参数
func (h *Handler) queryID(c *gin.Context, name string) (*int64, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// caller 当前调用者，路由保证已经过认证
func caller(c *gin.Context) auth.Identity {
	id, _ := middleware.CurrentIdentity(c)
	return id
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseTime 接受 RFC3339 及不带时区的常见格式（按 UTC）
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
