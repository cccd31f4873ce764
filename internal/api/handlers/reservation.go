package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/service"
)

type reservationRequest struct {
	UserID      *int64   `json:"user_id"`
	SlotID      int64    `json:"slot_id" binding:"required"`
	StartTime   string   `json:"start_time" binding:"required"`
	EndTime     string   `json:"end_time" binding:"required"`
	BookingType string   `json:"booking_type" binding:"required,oneof=hourly daily monthly"`
	TotalPrice  *float64 `json:"total_price"`
	Status      string   `json:"status" binding:"omitempty,oneof=pending confirmed completed"`
}

// CreateReservation 创建预约，价格由服务端计算
// POST /reservations
func (h *Handler) CreateReservation(c *gin.Context) {
	var req reservationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	start, err := parseTime(req.StartTime)
	if err != nil {
		h.badRequest(c, "Invalid start_time")
		return
	}
	end, err := parseTime(req.EndTime)
	if err != nil {
		h.badRequest(c, "Invalid end_time")
		return
	}

	res, err := h.bookingSvc.CreateReservation(c.Request.Context(), caller(c), service.ReservationInput{
		UserID:      req.UserID,
		SlotID:      req.SlotID,
		StartTime:   start,
		EndTime:     end,
		BookingType: models.BookingType(req.BookingType),
		TotalPrice:  req.TotalPrice,
		Status:      models.ReservationStatus(req.Status),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Reservation created successfully",
		"reservation_id": res.ID,
		"total_price":    res.TotalPrice,
	})
}

// ListReservations 预约列表，普通用户只返回自己的
// GET /reservations?status=pending&slot_id=1
func (h *Handler) ListReservations(c *gin.Context) {
	var filter models.ReservationFilter
	slotID, ok := h.queryID(c, "slot_id")
	if !ok {
		return
	}
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	filter.SlotID = slotID
	filter.UserID = userID
	if raw := c.Query("status"); raw != "" {
		status := models.ReservationStatus(raw)
		filter.Status = &status
	}

	list, err := h.bookingSvc.ListReservations(c.Request.Context(), caller(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

// GetReservation 预约详情
func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := h.paramID(c, "id", "reservation")
	if !ok {
		return
	}

	res, err := h.bookingSvc.GetReservation(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reservation": res})
}

// UpdateReservation 推进预约状态
func (h *Handler) UpdateReservation(c *gin.Context) {
	id, ok := h.paramID(c, "id", "reservation")
	if !ok {
		return
	}
	var req statusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.bookingSvc.UpdateReservationStatus(c.Request.Context(), caller(c), id, models.ReservationStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation status updated successfully"})
}
