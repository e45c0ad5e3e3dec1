package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	catalogRepo "cakery_api/internal/domain/catalog/repository"
	notificationService "cakery_api/internal/domain/notification/service"
	"cakery_api/internal/domain/order/model"
	"cakery_api/internal/domain/order/repository"
	userRepo "cakery_api/internal/domain/user/repository"
	"cakery_api/pkg/apperr"
	"cakery_api/pkg/logger"
	"cakery_api/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderItemInput is one submitted cart line.
type OrderItemInput struct {
	ProductID uint
	Kg        decimal.Decimal
	Quantity  int
}

// CreateOrderInput is the checkout submission.
type CreateOrderInput struct {
	Items          []OrderItemInput
	PaymentMethod  string
	DeliveryMethod string
	Address        string
}

// StatusUpdate is one entry of a bulk status update.
type StatusUpdate struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// StatusUpdateResult is the per-entry outcome of a bulk status update.
type StatusUpdateResult struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// OrderService owns order creation, the status state machine, and payment
// settlement. Payment callbacks and user-triggered updates all funnel
// through the same locked transition path so the is_paid/paid_at derivation
// holds after every mutation.
type OrderService interface {
	Create(userID uint, input CreateOrderInput) (*model.Order, error)
	List(userID uint, isAdmin bool, p *utils.Pagination) (*utils.PageResult, error)
	GetOwned(orderID, userID uint) (*model.Order, error)
	UpdateStatus(orderID uint, newStatus string) (*model.Order, string, error)
	BulkUpdateStatus(updates []StatusUpdate) []StatusUpdateResult

	// SettlePayment records a confirmed gateway payment and drives the order
	// toward paid. Returns changed=false when the order was already settled,
	// which makes duplicate callback delivery a no-op.
	SettlePayment(orderID uint, receipt string) (*model.Order, bool, error)

	// MarkPaymentFailed records a conclusively failed payment attempt.
	// Never regresses an already-paid order.
	MarkPaymentFailed(orderID uint) error

	// AttachPaymentCorrelation mirrors gateway correlation ids onto the
	// order after a successful initiation.
	AttachPaymentCorrelation(orderID uint, checkoutRequestID, merchantRequestID string) error
}

type orderService struct {
	repo     repository.OrderRepository
	variants catalogRepo.VariantRepository
	users    userRepo.UserRepository
	notifier notificationService.NotificationService
}

func NewOrderService(
	repo repository.OrderRepository,
	variants catalogRepo.VariantRepository,
	users userRepo.UserRepository,
	notifier notificationService.NotificationService,
) OrderService {
	return &orderService{repo: repo, variants: variants, users: users, notifier: notifier}
}

func (s *orderService) Create(userID uint, input CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperr.Validationf("order_items", "Order must contain at least one item.")
	}
	if !model.ValidPaymentMethod(input.PaymentMethod) {
		return nil, apperr.Validationf("payment_method", "Invalid payment method.")
	}

	address := strings.TrimSpace(input.Address)
	switch input.DeliveryMethod {
	case model.DeliveryUber:
		if address == "" {
			return nil, apperr.Validationf("address", "Address is required for Uber delivery.")
		}
	case model.DeliveryPickup:
		// Pickup orders carry no address regardless of what was submitted.
		address = ""
	default:
		return nil, apperr.Validationf("delivery_method", "Invalid delivery method.")
	}

	// Snapshot prices before anything persists; a missing variant fails the
	// whole submission with no partial rows.
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Quantity < 1 {
			return nil, apperr.Validationf("quantity", "Quantity must be at least 1.")
		}
		if !model.ValidKg(in.Kg) {
			return nil, apperr.Validationf("kg", "%s is not a valid weight option.", in.Kg.String())
		}

		price, err := s.variants.PriceFor(in.ProductID, in.Kg)
		if err != nil {
			var notFound *apperr.NotFoundError
			if errors.As(err, &notFound) {
				return nil, apperr.Validationf("order_items",
					"%skg variant for product %d is not available.", in.Kg.String(), in.ProductID)
			}
			return nil, err
		}

		name, err := s.variants.ProductName(in.ProductID)
		if err != nil {
			return nil, err
		}

		items = append(items, model.OrderItem{
			ProductID:       in.ProductID,
			ProductName:     name,
			Quantity:        in.Quantity,
			Kg:              in.Kg,
			PriceAtPurchase: price,
		})
	}

	order := &model.Order{
		UserID:         userID,
		Status:         model.StatusPending,
		PaymentMethod:  input.PaymentMethod,
		PaymentStatus:  model.PaymentPending,
		DeliveryMethod: input.DeliveryMethod,
		Address:        address,
	}

	if err := s.repo.CreateWithItems(order, items); err != nil {
		return nil, err
	}

	s.sendCreationNotifications(order)
	return order, nil
}

func (s *orderService) List(userID uint, isAdmin bool, p *utils.Pagination) (*utils.PageResult, error) {
	offset, limit := p.GetPageOffset()
	orders, total, err := s.repo.List(userID, isAdmin, offset, limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{List: orders, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *orderService) GetOwned(orderID, userID uint) (*model.Order, error) {
	return s.repo.GetOwned(orderID, userID)
}

func (s *orderService) UpdateStatus(orderID uint, newStatus string) (*model.Order, string, error) {
	var oldStatus string

	order, err := s.repo.UpdateLocked(orderID, func(o *model.Order) error {
		if newStatus == "" || newStatus == o.Status {
			return apperr.Validationf("status", "Invalid or unchanged status.")
		}
		if !model.ValidStatus(newStatus) {
			return apperr.Validationf("status", "Unknown status %q.", newStatus)
		}
		if !model.CanTransition(o.Status, newStatus) {
			return apperr.Validationf("status", "Cannot transition from %q to %q.", o.Status, newStatus)
		}

		oldStatus = o.Status
		o.ApplyStatus(newStatus, time.Now())
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.notifyStatusChange(order, oldStatus, newStatus)
	return order, oldStatus, nil
}

func (s *orderService) BulkUpdateStatus(updates []StatusUpdate) []StatusUpdateResult {
	results := make([]StatusUpdateResult, 0, len(updates))

	type pendingNote struct {
		order   *model.Order
		message string
	}
	perUser := make(map[uint][]pendingNote)

	for _, u := range updates {
		if u.OrderID == 0 || u.Status == "" {
			results = append(results, StatusUpdateResult{OrderID: u.OrderID, Status: "Invalid data"})
			continue
		}

		var oldStatus string
		newStatus := u.Status

		order, err := s.repo.UpdateLocked(u.OrderID, func(o *model.Order) error {
			if o.Status == newStatus {
				return apperr.Validationf("status", "Status unchanged")
			}
			if !model.ValidStatus(newStatus) || !model.CanTransition(o.Status, newStatus) {
				return apperr.Validationf("status", "Invalid transition")
			}
			oldStatus = o.Status
			o.ApplyStatus(newStatus, time.Now())
			return nil
		})

		// Every entry is processed independently; a failure is recorded in
		// the per-item result list and never aborts the batch.
		if err != nil {
			var notFound *apperr.NotFoundError
			var validation *apperr.ValidationError
			switch {
			case errors.As(err, &notFound):
				results = append(results, StatusUpdateResult{OrderID: u.OrderID, Status: "Order not found"})
			case errors.As(err, &validation):
				results = append(results, StatusUpdateResult{OrderID: u.OrderID, Status: validation.Message})
			default:
				logger.Log.Error("bulk status update failed",
					zap.Uint("order_id", u.OrderID), zap.Error(err))
				results = append(results, StatusUpdateResult{OrderID: u.OrderID, Status: "Update failed"})
			}
			continue
		}

		results = append(results, StatusUpdateResult{OrderID: u.OrderID, Status: "Updated"})

		msg := fmt.Sprintf("Order #%d (%s)\nItems:\n%s\nPrevious Status: %s\nNew Status: %s",
			order.ID, order.CreatedAt.Format("2006-01-02 15:04"),
			itemLines(order.Items), oldStatus, newStatus)
		perUser[order.UserID] = append(perUser[order.UserID], pendingNote{order: order, message: msg})
	}

	// One combined notification and one combined email per affected user.
	for userID, notes := range perUser {
		user, err := s.users.GetByID(userID)
		if err != nil {
			logger.Log.Warn("cannot notify user for bulk update",
				zap.Uint("user_id", userID), zap.Error(err))
			continue
		}

		messages := make([]string, 0, len(notes))
		for _, n := range notes {
			messages = append(messages, n.message)
		}

		s.notifier.NotifyOrderBatch(user.ID, user.Email,
			"Order Status Updates",
			"Multiple Order Updates - Adorable Cakery",
			messages)
	}

	return results
}

func (s *orderService) SettlePayment(orderID uint, receipt string) (*model.Order, bool, error) {
	changed := false
	oldStatus := ""

	order, err := s.repo.UpdateLocked(orderID, func(o *model.Order) error {
		if o.PaymentStatus == model.PaymentPaid {
			// Already settled: duplicate callback delivery is a no-op.
			return nil
		}

		o.PaymentStatus = model.PaymentPaid
		if receipt != "" {
			o.MpesaReceiptNumber = receipt
		}
		oldStatus = o.Status

		// Drive toward paid through the same transition sequence manual
		// updates use. Terminal orders keep their status; the payment
		// record alone reflects the received funds.
		now := time.Now()
		for _, next := range model.PathTo(o.Status, model.StatusPaid) {
			o.ApplyStatus(next, now)
		}

		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed && order.Status != oldStatus {
		s.notifyStatusChange(order, oldStatus, order.Status)
	}
	return order, changed, nil
}

func (s *orderService) MarkPaymentFailed(orderID uint) error {
	_, err := s.repo.UpdateLocked(orderID, func(o *model.Order) error {
		if o.PaymentStatus == model.PaymentPaid {
			return nil
		}
		o.PaymentStatus = model.PaymentFailed
		return nil
	})
	return err
}

func (s *orderService) AttachPaymentCorrelation(orderID uint, checkoutRequestID, merchantRequestID string) error {
	_, err := s.repo.UpdateLocked(orderID, func(o *model.Order) error {
		o.MpesaCheckoutRequestID = checkoutRequestID
		o.MpesaMerchantRequestID = merchantRequestID
		return nil
	})
	return err
}

func (s *orderService) sendCreationNotifications(order *model.Order) {
	user, err := s.users.GetByID(order.UserID)
	if err != nil {
		logger.Log.Warn("cannot send order confirmation",
			zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}

	lines := itemLines(order.Items)
	created := order.CreatedAt.Format("2006-01-02 15:04")

	userMessage := fmt.Sprintf(
		"Hi %s,\n\nThank you for your order at Adorable Cakery!\n\n"+
			"Order ID: %d\nDate: %s\nPayment Method: %s\nStatus: %s\n\nItems:\n%s\n\n"+
			"Order Total: KES %s\n\nYou will receive updates as your order progresses.\n\n"+
			"With love,\nAdorable Cakery Team",
		user.FullName, order.ID, created, order.PaymentMethod, order.Status,
		lines, order.TotalPrice.StringFixed(2))

	s.notifier.SendEmail(user.Email, "Order Confirmation - Adorable Cakery", userMessage)

	if admin := s.notifier.AdminEmail(); admin != "" {
		adminMessage := fmt.Sprintf(
			"A new order has been placed on Adorable Cakery!\n\n"+
				"Customer: %s\nPhone: %s\nEmail: %s\nAddress: %s\n\n"+
				"Order ID: %d\nDate: %s\nPayment Method: %s\nStatus: %s\n\nItems:\n%s\n\n"+
				"Total: KES %s",
			user.FullName, user.Phone, user.Email, order.Address,
			order.ID, created, order.PaymentMethod, order.Status,
			lines, order.TotalPrice.StringFixed(2))

		s.notifier.SendEmail(admin, "New Order Placed - Adorable Cakery", adminMessage)
	}
}

func (s *orderService) notifyStatusChange(order *model.Order, oldStatus, newStatus string) {
	user, err := s.users.GetByID(order.UserID)
	if err != nil {
		logger.Log.Warn("cannot notify status change",
			zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}

	message := fmt.Sprintf(
		"Your order #%d placed on %s has been updated.\n\nItems:\n%s\n\n"+
			"Previous Status: %s\nNew Status: %s",
		order.ID, order.CreatedAt.Format("2006-01-02 15:04"),
		itemLines(order.Items), oldStatus, newStatus)

	s.notifier.NotifyOrder(user.ID, user.Email,
		"Order Status Updated",
		"Order Status Updated - Adorable Cakery",
		message)
}

// itemLines renders the storefront email shape: "- <name> – <n> kg", with
// n the line's total weight.
func itemLines(items []model.OrderItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		weight := item.Kg.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, fmt.Sprintf("- %s – %s kg", item.ProductName, weight.String()))
	}
	return strings.Join(lines, "\n")
}
