package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/service"
)

type notificationRequest struct {
	ReservationID int64  `json:"reservation_id" binding:"required"`
	Message       string `json:"message" binding:"required"`
	IsRead        bool   `json:"is_read"`
}

type markRequest struct {
	IsRead *bool `json:"is_read"`
}

// CreateNotification 发送通知，临近结束或已超时的预约会改写文案
// POST /notifications
func (h *Handler) CreateNotification(c *gin.Context) {
	var req notificationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	n, err := h.bookingSvc.CreateNotification(c.Request.Context(), caller(c), service.NotificationInput{
		ReservationID: req.ReservationID,
		Message:       req.Message,
		IsRead:        req.IsRead,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Notification sent successfully",
		"notification_id": n.ID,
	})
}

// ListNotifications 某个预约的通知
// GET /notifications/:reservation_id
func (h *Handler) ListNotifications(c *gin.Context) {
	reservationID, ok := h.paramID(c, "id", "reservation")
	if !ok {
		return
	}

	list, err := h.bookingSvc.ListNotifications(c.Request.Context(), caller(c), reservationID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// UpdateNotification 标记已读/未读
func (h *Handler) UpdateNotification(c *gin.Context) {
	id, ok := h.paramID(c, "id", "notification")
	if !ok {
		return
	}
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsRead == nil {
		h.badRequest(c, "is_read must be a boolean")
		return
	}

	if err := h.bookingSvc.MarkNotification(c.Request.Context(), caller(c), id, *req.IsRead); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification updated successfully"})
}
