package payment

import (
	notificationRepo "cakery_api/internal/domain/notification/repository"
	notificationService "cakery_api/internal/domain/notification/service"
	orderModule "cakery_api/internal/domain/order"
	"cakery_api/internal/domain/payment/gateway"
	"cakery_api/internal/domain/payment/handler"
	"cakery_api/internal/domain/payment/repository"
	"cakery_api/internal/domain/payment/service"
	userRepo "cakery_api/internal/domain/user/repository"
	"cakery_api/internal/pkg/config"
	"cakery_api/internal/pkg/middleware"
	"cakery_api/internal/pkg/registry"
	"cakery_api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentModule wires gateway clients, the initiation worker pool and the
// webhook reconcilers.
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	// Depends on the order module's service.
	return 20
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	pRepo := repository.NewPaymentRepository(ctx.DB)
	uRepo := userRepo.NewUserRepository(ctx.DB)
	notifier := notificationService.NewNotificationService(
		notificationRepo.NewNotificationRepository(ctx.DB), ctx.Mailer)

	pService := service.NewPaymentService(pRepo, orderModule.Module.Service(), uRepo, notifier)

	pool := service.NewInitiationPool(pService, 2, 64)
	pool.Start()
	pService.SetQueue(pool)

	tokens := gateway.NewTokenCache(ctx.Redis)

	// Both providers serve the "mpesa" payment method; Daraja wins when both
	// are configured, KopoKopo is the fallback.
	switch {
	case config.GlobalConfig.Mpesa.ConsumerKey != "":
		pService.RegisterGateway("mpesa", gateway.NewMpesaGateway(tokens))
	case config.GlobalConfig.KopoKopo.ClientID != "":
		pService.RegisterGateway("mpesa", gateway.NewKopoKopoGateway(tokens))
	default:
		logger.Log.Warn("no payment gateway configured; STK push disabled")
	}

	pHandler := handler.NewPaymentHandler(pService)
	setupRoutes(ctx.Router, pHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	// Gateway callbacks: unauthenticated but internet-facing, so throttled.
	webhookLimiter := middleware.NewIPRateLimiter(50, 100)
	g := r.Group("/payments")
	g.Use(middleware.RateLimitMiddleware(webhookLimiter))
	{
		g.POST("/mpesa/callback", h.MpesaCallback)
		g.POST("/kopokopo/webhook", h.KopoKopoWebhook)
	}

	auth := r.Group("/orders")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/:id/pay", h.InitiatePush)
		auth.GET("/:id/payment-status", h.PaymentStatus)
	}
}
