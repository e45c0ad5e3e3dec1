package model

import (
	"time"

	baseModel "cakery_api/pkg/model"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment methods.
const (
	MethodMpesa  = "mpesa"
	MethodPayPal = "paypal"
	MethodCOD    = "cod"
)

// Payment statuses, independent of the order status.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Delivery methods.
const (
	DeliveryUber   = "UBER"
	DeliveryPickup = "PICKUP"
)

// allowedTransitions is the explicit order state machine. delivered and
// cancelled are terminal.
var allowedTransitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ValidStatus reports whether s names a known order status.
func ValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is an allowed transition.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PathTo returns the transition chain from `from` toward `to`, empty when
// unreachable. Payment reconciliation uses it to drive a pending order to
// paid through the normal transition sequence.
func PathTo(from, to string) []string {
	if from == to {
		return nil
	}
	if CanTransition(from, to) {
		return []string{to}
	}
	// Single intermediate hop is the deepest chain in this graph.
	for _, mid := range allowedTransitions[from] {
		if CanTransition(mid, to) {
			return []string{mid, to}
		}
	}
	return nil
}

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	return m == MethodMpesa || m == MethodPayPal || m == MethodCOD
}

// ValidKg reports whether kg is one of the fixed weight tiers
// (0.5 .. 5.0 in 0.5 steps).
func ValidKg(kg decimal.Decimal) bool {
	doubled := kg.Mul(decimal.NewFromInt(2))
	if !doubled.IsInteger() {
		return false
	}
	n := doubled.IntPart()
	return n >= 1 && n <= 10
}

// Order is the aggregate root for a customer order.
type Order struct {
	baseModel.BaseModel
	UserID        uint            `gorm:"index;not null" json:"userId"`
	TotalPrice    decimal.Decimal `gorm:"type:numeric(10,2)" json:"totalPrice"`
	Status        string          `gorm:"size:20;default:'pending'" json:"status"`
	PaymentMethod string          `gorm:"size:20" json:"paymentMethod"`
	IsPaid        bool            `gorm:"default:false" json:"isPaid"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`

	// Mirrors of the latest payment attempt, kept for API compatibility;
	// PaymentAttempt rows are authoritative.
	MpesaCheckoutRequestID string `gorm:"size:100" json:"mpesaCheckoutRequestId,omitempty"`
	MpesaMerchantRequestID string `gorm:"size:100" json:"mpesaMerchantRequestId,omitempty"`
	MpesaReceiptNumber     string `gorm:"size:100" json:"mpesaReceiptNumber,omitempty"`

	PaymentStatus  string      `gorm:"size:20;default:'pending'" json:"paymentStatus"`
	DeliveryMethod string      `gorm:"size:10;default:'UBER'" json:"deliveryMethod"`
	Address        string      `gorm:"size:255" json:"address"`
	Items          []OrderItem `gorm:"foreignKey:OrderID" json:"orderItems,omitempty"`
}

// ApplyStatus sets the status and maintains the derived payment fields:
// IsPaid always equals (status == paid); PaidAt is stamped on the first
// entry into paid and cleared whenever the status leaves paid.
func (o *Order) ApplyStatus(newStatus string, now time.Time) {
	o.Status = newStatus

	if newStatus == StatusPaid {
		o.IsPaid = true
		if o.PaidAt == nil {
			t := now
			o.PaidAt = &t
		}
	} else {
		o.IsPaid = false
		o.PaidAt = nil
	}
}

// OrderItem is one line of an order. Unique per (order, product, kg).
// PriceAtPurchase is snapshotted from the product variant at creation time
// and never re-derived.
type OrderItem struct {
	baseModel.BaseModel
	OrderID         uint            `gorm:"uniqueIndex:idx_order_product_kg;not null" json:"orderId"`
	ProductID       uint            `gorm:"uniqueIndex:idx_order_product_kg;not null" json:"productId"`
	ProductName     string          `gorm:"size:100" json:"productName"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	Kg              decimal.Decimal `gorm:"type:numeric(3,1);uniqueIndex:idx_order_product_kg" json:"kg"`
	PriceAtPurchase decimal.Decimal `gorm:"type:numeric(8,2)" json:"priceAtPurchase"`
}

// ItemTotal returns quantity x price at purchase.
func (i *OrderItem) ItemTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
