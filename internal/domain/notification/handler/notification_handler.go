package handler

import (
	"net/http"
	"strconv"

	"cakery_api/internal/domain/notification/service"
	"cakery_api/internal/pkg/middleware"
	"cakery_api/pkg/response"
	"cakery_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

// List returns the caller's notifications, newest first.
// @Summary List notifications
// @Tags Notification
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.List(middleware.UserIDFromContext(c), &p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// MarkRead marks one of the caller's notifications as read.
// @Summary Mark notification read
// @Tags Notification
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid notification id")
		return
	}

	if err := h.service.MarkRead(uint(id), middleware.UserIDFromContext(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"detail": "Notification marked as read."})
}
