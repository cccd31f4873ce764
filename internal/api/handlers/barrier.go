package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/service"
)

type barrierRequest struct {
	ReservationID int64  `json:"reservation_id" binding:"required"`
	Action        string `json:"action" binding:"required,oneof=open close"`
}

// ControlBarrier 记录道闸动作
// POST /barrier-control
func (h *Handler) ControlBarrier(c *gin.Context) {
	var req barrierRequest
	if !h.bindJSON(c, &req) {
		return
	}

	bc, err := h.bookingSvc.ControlBarrier(c.Request.Context(), caller(c), service.BarrierInput{
		ReservationID: req.ReservationID,
		Action:        models.BarrierAction(req.Action),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Barrier control action recorded",
		"control_id": bc.ID,
	})
}

// ListBarrierControls 某个预约的道闸记录
// GET /barrier-control/:reservation_id
func (h *Handler) ListBarrierControls(c *gin.Context) {
	reservationID, ok := h.paramID(c, "id", "reservation")
	if !ok {
		return
	}

	list, err := h.bookingSvc.ListBarrierControls(c.Request.Context(), caller(c), reservationID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"barrier_controls": list})
}
