package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/service"
)

type slotRequest struct {
	SlotNumber string            `json:"slot_number" binding:"required"`
	Floor      *int              `json:"floor" binding:"required"`
	Status     models.SlotStatus `json:"status" binding:"omitempty,oneof=available reserved"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateSlot 新增车位（管理员）
// POST /parking_slots
func (h *Handler) CreateSlot(c *gin.Context) {
	var req slotRequest
	if !h.bindJSON(c, &req) {
		return
	}

	slot, err := h.bookingSvc.CreateSlot(c.Request.Context(), caller(c), service.SlotInput{
		SlotNumber: req.SlotNumber,
		Floor:      *req.Floor,
		Status:     req.Status,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Parking slot added",
		"slot_id": slot.ID,
	})
}

// ListSlots 车位列表
// GET /parking_slots?floor=1&status=available
func (h *Handler) ListSlots(c *gin.Context) {
	var filter models.SlotFilter
	if raw := c.Query("floor"); raw != "" {
		floor, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, "Invalid floor number")
			return
		}
		filter.Floor = &floor
	}
	if raw := c.Query("status"); raw != "" {
		status := models.SlotStatus(raw)
		filter.Status = &status
	}

	slots, err := h.bookingSvc.ListSlots(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"parking_slots": slots})
}

// GetSlot 车位详情
func (h *Handler) GetSlot(c *gin.Context) {
	id, ok := h.paramID(c, "id", "slot")
	if !ok {
		return
	}

	slot, err := h.bookingSvc.GetSlot(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"parking_slot": slot})
}

// UpdateSlot 修改车位状态（管理员）
func (h *Handler) UpdateSlot(c *gin.Context) {
	id, ok := h.paramID(c, "id", "slot")
	if !ok {
		return
	}
	var req statusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.bookingSvc.UpdateSlotStatus(c.Request.Context(), caller(c), id, models.SlotStatus(req.Status)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Parking slot status updated successfully"})
}
