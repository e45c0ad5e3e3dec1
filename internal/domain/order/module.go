package order

import (
	catalogRepo "cakery_api/internal/domain/catalog/repository"
	notificationRepo "cakery_api/internal/domain/notification/repository"
	notificationService "cakery_api/internal/domain/notification/service"
	"cakery_api/internal/domain/order/handler"
	"cakery_api/internal/domain/order/repository"
	"cakery_api/internal/domain/order/service"
	userRepo "cakery_api/internal/domain/user/repository"
	"cakery_api/internal/pkg/middleware"
	"cakery_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// OrderModule wires the order aggregate: ledger, state machine, bulk updates.
type OrderModule struct {
	service service.OrderService
}

// Service exposes the order service to dependent modules (payment).
func (m *OrderModule) Service() service.OrderService {
	return m.service
}

var Module = &OrderModule{}

func init() {
	registry.Register(Module)
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	return 10
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	oRepo := repository.NewOrderRepository(ctx.DB)
	vRepo := catalogRepo.NewVariantRepository(ctx.DB)
	uRepo := userRepo.NewUserRepository(ctx.DB)

	nRepo := notificationRepo.NewNotificationRepository(ctx.DB)
	notifier := notificationService.NewNotificationService(nRepo, ctx.Mailer)

	m.service = service.NewOrderService(oRepo, vRepo, uRepo, notifier)
	h := handler.NewOrderHandler(m.service)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/orders")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("", h.Create)
		g.GET("", h.List)
		g.PATCH("/:id/status", h.UpdateStatus)
		g.PATCH("/bulk-status", middleware.AdminMiddleware(), h.BulkUpdateStatus)
	}
}
