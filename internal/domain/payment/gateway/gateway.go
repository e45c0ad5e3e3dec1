// Package gateway abstracts the mobile-money push providers behind one
// capability interface: authenticate, then initiate an STK push. Each
// provider speaks its own auth and payload dialect; callers only see
// PushRequest/PushResponse.
package gateway

import (
	"context"
	"time"
)

// Token is a bearer token with its advertised lifetime.
type Token struct {
	Value     string
	ExpiresIn time.Duration
}

// PushRequest is the gateway-neutral initiation request. Phone must already
// be normalized to 254-prefixed digits; AmountKES is whole shillings
// (ceiling of the order total).
type PushRequest struct {
	AccountReference string
	Phone            string
	AmountKES        int64
	FirstName        string
	LastName         string
	Email            string
	Description      string
}

// PushResponse carries the gateway correlation ids the asynchronous
// callback will be matched against.
type PushResponse struct {
	CheckoutRequestID string
	MerchantRequestID string
	Description       string
}

// Gateway is the provider capability interface.
type Gateway interface {
	Name() string
	Authenticate(ctx context.Context) (Token, error)
	InitiatePush(ctx context.Context, req PushRequest) (*PushResponse, error)
}
