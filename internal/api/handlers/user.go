package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/service"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	CarPlate string `json:"car_plate" binding:"required"`
}

// loginRequest identifier 可以是用户名、手机号或邮箱
type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required"`
}

func (r loginRequest) id() string {
	for _, v := range []string{r.Identifier, r.Username, r.Email, r.Phone} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Register 注册
// POST /register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Phone:    req.Phone,
		Email:    req.Email,
		Password: req.Password,
		CarPlate: req.CarPlate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

// Login 登录并签发令牌
// POST /login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.id(), req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser 获取用户信息
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := h.paramID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.authSvc.GetUser(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
