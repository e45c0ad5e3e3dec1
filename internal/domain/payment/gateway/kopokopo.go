package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"cakery_api/internal/pkg/config"
	"cakery_api/pkg/apperr"

	"github.com/go-resty/resty/v2"
)

// KopoKopoGateway is the KopoKopo (K2) merchant STK push client.
type KopoKopoGateway struct {
	cfg    config.KopoKopoConfig
	client *resty.Client
	tokens *TokenCache
}

func NewKopoKopoGateway(tokens *TokenCache) *KopoKopoGateway {
	return &KopoKopoGateway{
		cfg:    config.GlobalConfig.KopoKopo,
		client: resty.New().SetTimeout(30 * time.Second),
		tokens: tokens,
	}
}

func (g *KopoKopoGateway) Name() string {
	return "kopokopo"
}

type k2TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticate runs the OAuth client-credentials exchange. K2 wants HTTP
// basic auth plus its own apiKey header on the token endpoint.
func (g *KopoKopoGateway) Authenticate(ctx context.Context) (Token, error) {
	authEncoded := base64.StdEncoding.EncodeToString(
		[]byte(g.cfg.ClientID + ":" + g.cfg.ClientSecret))

	var body k2TokenResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Basic "+authEncoded).
		SetHeader("Accept", "application/json").
		SetHeader("apiKey", g.cfg.APIKey).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&body).
		Post(g.cfg.BaseURL + "/oauth/token")
	if err != nil {
		return Token{}, &apperr.PaymentGatewayError{Gateway: g.Name(), Err: err}
	}
	if resp.StatusCode() != 200 || body.AccessToken == "" {
		return Token{}, &apperr.PaymentGatewayError{
			Gateway: g.Name(),
			Err:     fmt.Errorf("token request failed with status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	expires := time.Hour
	if body.ExpiresIn > 0 {
		expires = time.Duration(body.ExpiresIn) * time.Second
	}

	return Token{Value: body.AccessToken, ExpiresIn: expires}, nil
}

type k2PushResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (g *KopoKopoGateway) InitiatePush(ctx context.Context, req PushRequest) (*PushResponse, error) {
	token, err := g.tokens.Token(ctx, g)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"payment_channel": "M-PESA",
		"till_number":     g.cfg.TillNumber,
		"first_name":      req.FirstName,
		"last_name":       req.LastName,
		"phone_number":    req.Phone,
		"amount":          req.AmountKES,
		"currency":        "KES",
		"callback_url":    g.cfg.CallbackURL,
		"metadata":        map[string]string{"reference": req.AccountReference},
	}
	if req.Email != "" {
		payload["email"] = req.Email
	}

	var body k2PushResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&body).
		Post(g.cfg.BaseURL + "/api/v1/merchant/stk-push")
	if err != nil {
		return nil, &apperr.PaymentGatewayError{Gateway: g.Name(), Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &apperr.PaymentGatewayError{
			Gateway: g.Name(),
			Err:     fmt.Errorf("stk push failed with status %d: %s", resp.StatusCode(), resp.Body()),
		}
	}

	return &PushResponse{
		CheckoutRequestID: body.Data.ID,
		Description:       "STK push accepted",
	}, nil
}

var _ Gateway = (*KopoKopoGateway)(nil)
