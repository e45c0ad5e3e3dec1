package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"cakery_api/internal/pkg/config"
	"cakery_api/pkg/apperr"

	"github.com/go-resty/resty/v2"
)

// MpesaGateway is the Safaricom Daraja STK push client.
type MpesaGateway struct {
	cfg    config.MpesaConfig
	client *resty.Client
	tokens *TokenCache
}

func NewMpesaGateway(tokens *TokenCache) *MpesaGateway {
	return &MpesaGateway{
		cfg:    config.GlobalConfig.Mpesa,
		client: resty.New().SetTimeout(30 * time.Second),
		tokens: tokens,
	}
}

func (g *MpesaGateway) Name() string {
	return "mpesa"
}

type darajaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Authenticate exchanges the consumer key/secret for a bearer token.
func (g *MpesaGateway) Authenticate(ctx context.Context) (Token, error) {
	var body darajaTokenResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetBasicAuth(g.cfg.ConsumerKey, g.cfg.ConsumerSecret).
		SetResult(&body).
		Get(g.cfg.AccessTokenURL)
	if err != nil {
		return Token{}, &apperr.PaymentGatewayError{Gateway: g.Name(), Err: err}
	}
	if resp.StatusCode() != 200 || body.AccessToken == "" {
		return Token{}, &apperr.PaymentGatewayError{
			Gateway: g.Name(),
			Err:     fmt.Errorf("token request failed with status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	expires := time.Hour // Daraja advertises 3599s; fall back to an hour
	if secs, err := strconv.Atoi(body.ExpiresIn); err == nil && secs > 0 {
		expires = time.Duration(secs) * time.Second
	}

	return Token{Value: body.AccessToken, ExpiresIn: expires}, nil
}

type darajaPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// InitiatePush sends the STK push. The password is
// base64(shortcode + passkey + timestamp) with the same timestamp echoed in
// the payload.
func (g *MpesaGateway) InitiatePush(ctx context.Context, req PushRequest) (*PushResponse, error) {
	token, err := g.tokens.Token(ctx, g)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString(
		[]byte(g.cfg.Shortcode + g.cfg.Passkey + timestamp))

	payload := map[string]interface{}{
		"BusinessShortCode": g.cfg.Shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.AmountKES,
		"PartyA":            req.Phone,
		"PartyB":            g.cfg.Shortcode,
		"PhoneNumber":       req.Phone,
		"CallBackURL":       g.cfg.CallbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   "Payment",
	}

	var body darajaPushResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&body).
		Post(g.cfg.STKPushURL)
	if err != nil {
		return nil, &apperr.PaymentGatewayError{Gateway: g.Name(), Err: err}
	}
	if resp.StatusCode() != 200 {
		return nil, &apperr.PaymentGatewayError{
			Gateway: g.Name(),
			Err:     fmt.Errorf("stk push failed with status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	return &PushResponse{
		CheckoutRequestID: body.CheckoutRequestID,
		MerchantRequestID: body.MerchantRequestID,
		Description:       body.ResponseDescription,
	}, nil
}

var _ Gateway = (*MpesaGateway)(nil)
