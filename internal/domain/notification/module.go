package notification

import (
	"cakery_api/internal/domain/notification/handler"
	"cakery_api/internal/domain/notification/repository"
	"cakery_api/internal/domain/notification/service"
	"cakery_api/internal/pkg/middleware"
	"cakery_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// NotificationModule exposes the in-app notification surface.
type NotificationModule struct{}

func init() {
	registry.Register(&NotificationModule{})
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) Priority() int {
	return 30
}

func (m *NotificationModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewNotificationRepository(ctx.DB)
	svc := service.NewNotificationService(repo, ctx.Mailer)
	h := handler.NewNotificationHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.NotificationHandler) {
	g := r.Group("/notifications")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("", h.List)
		g.PATCH("/:id/read", h.MarkRead)
	}
}
