package handler

import (
	"net/http"
	"strconv"

	"cakery_api/internal/domain/order/service"
	"cakery_api/internal/pkg/middleware"
	"cakery_api/pkg/response"
	"cakery_api/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type orderItemInput struct {
	Product  uint            `json:"product" binding:"required"`
	Kg       decimal.Decimal `json:"kg"`
	Quantity int             `json:"quantity"`
}

type createOrderInput struct {
	OrderItems     []orderItemInput `json:"order_items" binding:"required"`
	PaymentMethod  string           `json:"payment_method" binding:"required"`
	DeliveryMethod string           `json:"delivery_method" binding:"required"`
	Address        string           `json:"address"`
}

type updateStatusInput struct {
	Status string `json:"status"`
}

type bulkUpdateInput struct {
	Updates []service.StatusUpdate `json:"updates"`
}

// Create submits a checkout.
// @Summary Create order
// @Tags Order
// @Accept json
// @Produce json
// @Param input body createOrderInput true "Order"
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var input createOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	items := make([]service.OrderItemInput, 0, len(input.OrderItems))
	for _, it := range input.OrderItems {
		items = append(items, service.OrderItemInput{
			ProductID: it.Product,
			Kg:        it.Kg,
			Quantity:  it.Quantity,
		})
	}

	order, err := h.service.Create(middleware.UserIDFromContext(c), service.CreateOrderInput{
		Items:          items,
		PaymentMethod:  input.PaymentMethod,
		DeliveryMethod: input.DeliveryMethod,
		Address:        input.Address,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, order)
}

// List returns the caller's orders; admins see all orders.
// @Summary List orders
// @Tags Order
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.List(middleware.UserIDFromContext(c), middleware.IsAdmin(c), &p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateStatus moves one order through the state machine.
// @Summary Update order status
// @Tags Order
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid order id")
		return
	}

	var input updateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	_, _, err = h.service.UpdateStatus(uint(id), input.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"detail": "Status updated to '" + input.Status + "' and notification sent.",
	})
}

// BulkUpdateStatus applies many status updates with per-item outcomes.
// The batch itself always succeeds; individual failures are reported in the
// result list.
// @Summary Bulk update order statuses
// @Tags Order
// @Router /orders/bulk-status [patch]
func (h *OrderHandler) BulkUpdateStatus(c *gin.Context) {
	var input bulkUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil || len(input.Updates) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Provide a non-empty 'updates' list.")
		return
	}

	results := h.service.BulkUpdateStatus(input.Updates)
	response.Success(c, gin.H{"results": results})
}
