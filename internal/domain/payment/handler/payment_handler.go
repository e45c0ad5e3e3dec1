package handler

import (
	"net/http"
	"strconv"

	"cakery_api/internal/domain/payment/service"
	"cakery_api/internal/pkg/middleware"
	"cakery_api/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

// InitiatePush queues an STK push for one of the caller's orders. The push
// itself runs in the background; the client polls the payment status
// endpoint (or waits for the notification) for the outcome.
// @Summary Initiate payment
// @Tags Payment
// @Produce json
// @Router /orders/{id}/pay [post]
func (h *PaymentHandler) InitiatePush(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid order id")
		return
	}

	attempt, err := h.service.QueuePayment(c.Request.Context(), middleware.UserIDFromContext(c), uint(id))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "payment queued",
		"data": gin.H{
			"attempt_id": attempt.ID,
			"order_id":   attempt.OrderID,
			"gateway":    attempt.Gateway,
			"status":     attempt.Status,
		},
	})
}

// PaymentStatus returns the latest payment attempt for one of the caller's
// orders.
// @Summary Poll payment status
// @Tags Payment
// @Produce json
// @Router /orders/{id}/payment-status [get]
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid order id")
		return
	}

	attempt, err := h.service.AttemptStatus(uint(id), middleware.UserIDFromContext(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"attempt_id":  attempt.ID,
		"order_id":    attempt.OrderID,
		"gateway":     attempt.Gateway,
		"status":      attempt.Status,
		"receipt":     attempt.ReceiptNumber,
		"result_desc": attempt.ResultDesc,
	})
}

// MpesaCallback receives the Daraja STK result. Everything except a
// literal JSON parse failure is acknowledged with 200 so Safaricom does not
// retry-storm a payload it considers delivered.
// @Summary M-Pesa STK callback
// @Tags Payment
// @Router /payments/mpesa/callback [post]
func (h *PaymentHandler) MpesaCallback(c *gin.Context) {
	var cb service.MpesaCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid payload")
		return
	}

	msg := h.service.HandleMpesaCallback(cb)
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// KopoKopoWebhook receives K2 payment events. Same acknowledgment policy
// as the M-Pesa callback.
// @Summary KopoKopo webhook
// @Tags Payment
// @Router /payments/kopokopo/webhook [post]
func (h *PaymentHandler) KopoKopoWebhook(c *gin.Context) {
	var hook service.KopoKopoWebhook
	if err := c.ShouldBindJSON(&hook); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid payload")
		return
	}

	msg := h.service.HandleKopoKopoWebhook(hook)
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
