package model

import (
	baseModel "cakery_api/pkg/model"

	"github.com/shopspring/decimal"
)

// Gateways.
const (
	GatewayMpesa    = "mpesa"
	GatewayKopoKopo = "kopokopo"
)

// Attempt statuses. queued -> pending happens when the background push is
// accepted by the gateway; pending -> succeeded/failed happens on callback.
const (
	AttemptQueued    = "queued"
	AttemptPending   = "pending"
	AttemptSucceeded = "succeeded"
	AttemptFailed    = "failed"
)

// PaymentAttempt records one push request sent to a gateway for an order.
// An order may accumulate several attempts (mobile-money networks are
// flaky); callbacks are matched against attempts by correlation id, and an
// attempt settles exactly once. Uniqueness of checkout_request_id is a
// partial index in the migration (queued attempts have none yet).
type PaymentAttempt struct {
	baseModel.BaseModel
	OrderID           uint            `gorm:"index;not null" json:"orderId"`
	Gateway           string          `gorm:"size:20;not null" json:"gateway"`
	CheckoutRequestID string          `gorm:"size:100;index" json:"checkoutRequestId"`
	MerchantRequestID string          `gorm:"size:100" json:"merchantRequestId"`
	AccountReference  string          `gorm:"size:50;index" json:"accountReference"`
	Phone             string          `gorm:"size:20" json:"phone"`
	Amount            decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Status            string          `gorm:"size:20;default:'pending'" json:"status"`
	ReceiptNumber     string          `gorm:"size:100" json:"receiptNumber,omitempty"`
	ResultDesc        string          `gorm:"size:255" json:"resultDesc,omitempty"`
}
