package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/models"
	"github.com/Tonkaw007/Pabu/internal/service"
)

type paymentRequest struct {
	ReservationID       int64    `json:"reservation_id" binding:"required"`
	PenaltyID           *int64   `json:"penalty_id"`
	Amount              *float64 `json:"amount"`
	PaymentStatus       string   `json:"payment_status" binding:"omitempty,oneof=pending verified failed"`
	BankReferenceNumber string   `json:"bank_reference_number"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// CreatePayment 提交支付，参考号缺省时由服务端生成
// POST /payments
func (h *Handler) CreatePayment(c *gin.Context) {
	var req paymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	p, err := h.bookingSvc.CreatePayment(c.Request.Context(), caller(c), service.PaymentInput{
		ReservationID:       req.ReservationID,
		PenaltyID:           req.PenaltyID,
		Amount:              req.Amount,
		Status:              models.PaymentStatus(req.PaymentStatus),
		BankReferenceNumber: req.BankReferenceNumber,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":               "Payment processed successfully",
		"payment_id":            p.ID,
		"bank_reference_number": p.BankReferenceNumber,
	})
}

// ListPayments 某个预约的支付记录
// GET /payments?reservation_id=1
func (h *Handler) ListPayments(c *gin.Context) {
	reservationID, ok := h.queryID(c, "reservation_id")
	if !ok {
		return
	}
	if reservationID == nil {
		h.badRequest(c, "Missing required fields")
		return
	}

	list, err := h.bookingSvc.ListPayments(c.Request.Context(), caller(c), *reservationID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": list})
}

// GetPayment 支付详情
func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := h.paramID(c, "id", "payment")
	if !ok {
		return
	}

	p, err := h.bookingSvc.GetPayment(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": p})
}

// UpdatePayment 更新支付状态，verified 时联动预约或罚款
func (h *Handler) UpdatePayment(c *gin.Context) {
	id, ok := h.paramID(c, "id", "payment")
	if !ok {
		return
	}
	var req paymentStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.bookingSvc.UpdatePaymentStatus(c.Request.Context(), caller(c), id, models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated successfully"})
}
