package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	notificationService "cakery_api/internal/domain/notification/service"
	orderModel "cakery_api/internal/domain/order/model"
	orderService "cakery_api/internal/domain/order/service"
	"cakery_api/internal/domain/payment/gateway"
	"cakery_api/internal/domain/payment/model"
	"cakery_api/internal/domain/payment/repository"
	userRepo "cakery_api/internal/domain/user/repository"
	"cakery_api/pkg/apperr"
	"cakery_api/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// pushTimeout bounds one background gateway call (resty carries its own
// transport timeout; this also covers token refresh).
const pushTimeout = 45 * time.Second

// MpesaCallback is the Daraja STK push result payload.
type MpesaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ReceiptNumber extracts the MpesaReceiptNumber metadata item, "" if absent.
func (c *MpesaCallback) ReceiptNumber() string {
	for _, item := range c.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// KopoKopoWebhook is the K2 webhook envelope.
type KopoKopoWebhook struct {
	Event    string `json:"event"`
	Resource struct {
		Reference         string `json:"reference"`
		SenderPhoneNumber string `json:"sender_phone_number"`
		Status            string `json:"status"`
		Timestamp         string `json:"timestamp"`
		Amount            struct {
			Value string `json:"value"`
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"`
	} `json:"resource"`
}

// k2 event types that settle a payment.
var k2PaymentEvents = map[string]bool{
	"buygoods_transaction_received": true,
	"stk_payment_received":          true,
}

// InitiationTask is one queued gateway push. The request snapshot lets the
// worker run without re-reading the order.
type InitiationTask struct {
	AttemptID uint
	OrderID   uint
	UserID    uint
	Email     string
	Method    string
	Request   gateway.PushRequest
	Retry     int
}

// Enqueuer accepts initiation tasks for background processing.
type Enqueuer interface {
	Enqueue(task InitiationTask) error
}

// PaymentService owns initiation and callback reconciliation. Initiation is
// queued: the request path validates and records a queued attempt, a worker
// performs the gateway call with retries, and the caller polls the attempt
// (or waits for the notification). Callbacks route every state change
// through the order service so the derivation invariants hold.
type PaymentService interface {
	RegisterGateway(method string, gw gateway.Gateway)
	SetQueue(q Enqueuer)

	// QueuePayment validates and enqueues an STK push for an order owned by
	// userID. The returned attempt starts in status "queued"; the order row
	// is untouched until the push is accepted.
	QueuePayment(ctx context.Context, userID, orderID uint) (*model.PaymentAttempt, error)

	// AttemptStatus returns the most recent attempt for one of the caller's
	// orders, for polling a queued initiation.
	AttemptStatus(orderID, userID uint) (*model.PaymentAttempt, error)

	// ProcessInitiation performs one queued gateway call. Returned errors
	// signal the worker to retry.
	ProcessInitiation(ctx context.Context, task InitiationTask) error

	// FailInitiation marks a queued attempt conclusively failed after the
	// worker exhausts its retries.
	FailInitiation(task InitiationTask, resultDesc string)

	// HandleMpesaCallback reconciles a Daraja STK result. The returned
	// message is always acknowledged with HTTP 200; internal failures are
	// logged, never surfaced to the gateway.
	HandleMpesaCallback(cb MpesaCallback) string

	// HandleKopoKopoWebhook reconciles a K2 webhook event.
	HandleKopoKopoWebhook(hook KopoKopoWebhook) string
}

type paymentService struct {
	repo     repository.PaymentRepository
	orders   orderService.OrderService
	users    userRepo.UserRepository
	notifier notificationService.NotificationService
	queue    Enqueuer
	gateways map[string]gateway.Gateway
}

func NewPaymentService(
	repo repository.PaymentRepository,
	orders orderService.OrderService,
	users userRepo.UserRepository,
	notifier notificationService.NotificationService,
) PaymentService {
	return &paymentService{
		repo:     repo,
		orders:   orders,
		users:    users,
		notifier: notifier,
		gateways: make(map[string]gateway.Gateway),
	}
}

func (s *paymentService) RegisterGateway(method string, gw gateway.Gateway) {
	s.gateways[method] = gw
}

func (s *paymentService) SetQueue(q Enqueuer) {
	s.queue = q
}

func (s *paymentService) QueuePayment(ctx context.Context, userID, orderID uint) (*model.PaymentAttempt, error) {
	order, err := s.orders.GetOwned(orderID, userID)
	if err != nil {
		return nil, err
	}

	gw, ok := s.gateways[order.PaymentMethod]
	if !ok {
		return nil, apperr.Validationf("payment_method",
			"Payment method %q does not support STK push.", order.PaymentMethod)
	}

	if order.PaymentStatus == orderModel.PaymentPaid {
		return nil, apperr.Validationf("order", "Order is already paid.")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	phone, err := gateway.NormalizePhone(user.Phone)
	if err != nil {
		return nil, err
	}

	// Gateways take whole shillings; always round up.
	amount := order.TotalPrice.Ceil().IntPart()
	if amount <= 0 {
		return nil, apperr.Validationf("amount", "Order amount must be greater than 0.")
	}

	first, last := splitName(user.FullName)
	req := gateway.PushRequest{
		AccountReference: fmt.Sprintf("Order%d", order.ID),
		Phone:            phone,
		AmountKES:        amount,
		FirstName:        first,
		LastName:         last,
		Email:            user.Email,
		Description:      "Payment",
	}

	attempt := &model.PaymentAttempt{
		OrderID:          order.ID,
		Gateway:          gw.Name(),
		AccountReference: req.AccountReference,
		Phone:            phone,
		Amount:           decimal.NewFromInt(amount),
		Status:           model.AttemptQueued,
	}
	if err := s.repo.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	task := InitiationTask{
		AttemptID: attempt.ID,
		OrderID:   order.ID,
		UserID:    userID,
		Email:     user.Email,
		Method:    order.PaymentMethod,
		Request:   req,
	}
	if err := s.queue.Enqueue(task); err != nil {
		s.FailInitiation(task, "payment queue unavailable")
		return nil, err
	}

	return attempt, nil
}

func (s *paymentService) AttemptStatus(orderID, userID uint) (*model.PaymentAttempt, error) {
	if _, err := s.orders.GetOwned(orderID, userID); err != nil {
		return nil, err
	}
	return s.repo.LatestAttempt(orderID)
}

func (s *paymentService) ProcessInitiation(ctx context.Context, task InitiationTask) error {
	gw, ok := s.gateways[task.Method]
	if !ok {
		// Registration cannot change at runtime; do not retry.
		s.FailInitiation(task, fmt.Sprintf("no gateway registered for %q", task.Method))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	resp, err := gw.InitiatePush(ctx, task.Request)
	if err != nil {
		return err
	}

	ok, err = s.repo.MarkPushed(task.AttemptID, resp.CheckoutRequestID, resp.MerchantRequestID)
	if err != nil {
		logger.Log.Error("failed to record pushed attempt",
			zap.Uint("attempt_id", task.AttemptID), zap.Error(err))
		return nil
	}
	if !ok {
		logger.Log.Warn("attempt left queued state before push result landed",
			zap.Uint("attempt_id", task.AttemptID))
		return nil
	}

	if err := s.orders.AttachPaymentCorrelation(task.OrderID, resp.CheckoutRequestID, resp.MerchantRequestID); err != nil {
		logger.Log.Error("failed to mirror payment correlation onto order",
			zap.Uint("order_id", task.OrderID), zap.Error(err))
	}

	s.notifier.NotifyOrder(task.UserID, task.Email,
		"Payment Prompt Sent",
		"Payment Prompt Sent - Adorable Cakery",
		fmt.Sprintf("A payment prompt for order #%d (KES %d) was sent to %s. "+
			"Enter your PIN on your phone to complete the payment.",
			task.OrderID, task.Request.AmountKES, task.Request.Phone))
	return nil
}

func (s *paymentService) FailInitiation(task InitiationTask, resultDesc string) {
	ok, err := s.repo.FailQueued(task.AttemptID, resultDesc)
	if err != nil {
		logger.Log.Error("failed to mark queued attempt failed",
			zap.Uint("attempt_id", task.AttemptID), zap.Error(err))
		return
	}
	if !ok {
		return
	}

	if err := s.orders.MarkPaymentFailed(task.OrderID); err != nil {
		logger.Log.Error("failed to mark order payment failed",
			zap.Uint("order_id", task.OrderID), zap.Error(err))
	}

	s.notifier.NotifyOrder(task.UserID, task.Email,
		"Payment Failed",
		"Payment Failed - Adorable Cakery",
		fmt.Sprintf("We could not initiate the payment for order #%d. "+
			"Please try again or contact support.", task.OrderID))
}

func (s *paymentService) HandleMpesaCallback(cb MpesaCallback) string {
	stk := cb.Body.StkCallback

	attempt, err := s.repo.GetByCheckoutRequestID(stk.CheckoutRequestID)
	if err != nil {
		logger.Log.Warn("mpesa callback did not match any payment attempt",
			zap.String("checkout_request_id", stk.CheckoutRequestID))
		return "Unmatched callback"
	}

	if stk.ResultCode == 0 {
		return s.settle(attempt.ID, attempt.OrderID, cb.ReceiptNumber(), stk.ResultDesc)
	}
	return s.fail(attempt.ID, attempt.OrderID, stk.ResultDesc)
}

func (s *paymentService) HandleKopoKopoWebhook(hook KopoKopoWebhook) string {
	if !k2PaymentEvents[hook.Event] {
		logger.Log.Warn("unhandled kopokopo event", zap.String("event", hook.Event))
		return "Unhandled event"
	}

	ref := hook.Resource.Metadata["reference"]
	if ref == "" {
		ref = hook.Resource.Reference
	}

	attempt, err := s.repo.GetLatestByAccountReference(ref)
	if err != nil {
		logger.Log.Warn("kopokopo webhook did not match any payment attempt",
			zap.String("reference", ref))
		return "Unmatched event"
	}

	switch hook.Resource.Status {
	case "Received", "Success":
		return s.settle(attempt.ID, attempt.OrderID, hook.Resource.Reference, hook.Resource.Status)
	case "Failed":
		return s.fail(attempt.ID, attempt.OrderID, hook.Resource.Status)
	default:
		logger.Log.Warn("kopokopo webhook with unknown status",
			zap.String("status", hook.Resource.Status))
		return "Unhandled status"
	}
}

// settle finalizes a successful attempt and drives the order to paid.
// Settling twice is a no-op: the attempt row flips pending->succeeded
// exactly once, and the order-level settle checks payment_status under the
// same row lock as every other order mutation.
func (s *paymentService) settle(attemptID, orderID uint, receipt, resultDesc string) string {
	ok, err := s.repo.Settle(attemptID, model.AttemptSucceeded, receipt, resultDesc)
	if err != nil {
		logger.Log.Error("failed to settle payment attempt",
			zap.Uint("attempt_id", attemptID), zap.Error(err))
		return "Webhook processed"
	}
	if !ok {
		return "Already processed"
	}

	if _, _, err := s.orders.SettlePayment(orderID, receipt); err != nil {
		logger.Log.Error("failed to settle order payment",
			zap.Uint("order_id", orderID), zap.Error(err))
	}
	return "Webhook processed"
}

func (s *paymentService) fail(attemptID, orderID uint, resultDesc string) string {
	ok, err := s.repo.Settle(attemptID, model.AttemptFailed, "", resultDesc)
	if err != nil {
		logger.Log.Error("failed to mark payment attempt failed",
			zap.Uint("attempt_id", attemptID), zap.Error(err))
		return "Webhook processed"
	}
	if !ok {
		return "Already processed"
	}

	if err := s.orders.MarkPaymentFailed(orderID); err != nil {
		logger.Log.Error("failed to mark order payment failed",
			zap.Uint("order_id", orderID), zap.Error(err))
	}
	return "Webhook processed"
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
