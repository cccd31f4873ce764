package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/service"
)

type penaltyRequest struct {
	ReservationID  int64    `json:"reservation_id" binding:"required"`
	ActualExitTime string   `json:"actual_exit_time" binding:"required"`
	Amount         *float64 `json:"amount"`
	Status         string   `json:"status" binding:"omitempty,oneof=unpaid paid"`
}

// CreatePenalty 记录超时罚款（管理员），金额按超时小时数计算
// POST /penalties
func (h *Handler) CreatePenalty(c *gin.Context) {
	var req penaltyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	exit, err := parseTime(req.ActualExitTime)
	if err != nil {
		h.badRequest(c, "Invalid actual_exit_time")
		return
	}

	p, err := h.bookingSvc.CreatePenalty(c.Request.Context(), caller(c), service.PenaltyInput{
		ReservationID:  req.ReservationID,
		ActualExitTime: exit,
		Amount:         req.Amount,
		Status:         models.PenaltyStatus(req.Status),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Penalty recorded successfully",
		"penalty_id": p.ID,
		"amount":     p.Amount,
	})
}

// ListPenalties 罚款列表
// GET /penalties?reservation_id=1
func (h *Handler) ListPenalties(c *gin.Context) {
	reservationID, ok := h.queryID(c, "reservation_id")
	if !ok {
		return
	}

	list, err := h.bookingSvc.ListPenalties(c.Request.Context(), caller(c), reservationID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"penalties": list})
}

// GetPenalty 罚款详情
func (h *Handler) GetPenalty(c *gin.Context) {
	id, ok := h.paramID(c, "id", "penalty")
	if !ok {
		return
	}

	p, err := h.bookingSvc.GetPenalty(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"penalty": p})
}

// UpdatePenalty 更新罚款状态（管理员）
func (h *Handler) UpdatePenalty(c *gin.Context) {
	id, ok := h.paramID(c, "id", "penalty")
	if !ok {
		return
	}
	var req statusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.bookingSvc.UpdatePenaltyStatus(c.Request.Context(), caller(c), id, models.PenaltyStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Penalty status updated successfully"})
}
