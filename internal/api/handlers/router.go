package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/api/middleware"
	"github.com/Tonkaw007/Pabu/internal/auth"
)

// RouterConfig 路由配置
type RouterConfig struct {
	Debug          bool
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter 创建 gin 引擎并挂载中间件和全部路由
func NewRouter(logger *zap.Logger, h *Handler, tokens *auth.TokenManager, cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	h.RegisterRoutes(r, tokens)
	return r
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine, tokens *auth.TokenManager) {
	// 公开接口
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/parking_slots", h.ListSlots)
	r.GET("/parking_slots/:id", h.GetSlot)

	// 需要登录
	api := r.Group("/", middleware.Authenticate(tokens))
	admin := api.Group("/", middleware.RequireAdmin())
	{
		api.GET("/users/:id", h.GetUser)

		// 车位（写操作仅管理员）
		admin.POST("/parking_slots", h.CreateSlot)
		admin.PUT("/parking_slots/:id", h.UpdateSlot)

		// 预约
		api.POST("/reservations", h.CreateReservation)
		api.GET("/reservations", h.ListReservations)
		api.GET("/reservations/:id", h.GetReservation)
		api.PUT("/reservations/:id", h.UpdateReservation)

		// 支付
		api.POST("/payments", h.CreatePayment)
		api.GET("/payments", h.ListPayments)
		api.GET("/payments/:id", h.GetPayment)
		api.PUT("/payments/:id", h.UpdatePayment)

		// 罚款
		admin.POST("/penalties", h.CreatePenalty)
		api.GET("/penalties", h.ListPenalties)
		api.GET("/penalties/:id", h.GetPenalty)
		admin.PUT("/penalties/:id", h.UpdatePenalty)

		// 通知
		api.POST("/notifications", h.CreateNotification)
		api.GET("/notifications/:id", h.ListNotifications)
		api.PUT("/notifications/:id", h.UpdateNotification)

		// 道闸
		api.POST("/barrier-control", h.ControlBarrier)
		api.GET("/barrier-control/:id", h.ListBarrierControls)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}
