package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/contenivelabs/renewal/internal/payment/domain"
)

type paymentIntent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Client) Processor() string { return "stripe" }

// CreateCharge creates and confirms an off-session payment intent. The
// Idempotency-Key header makes a repeated submission of the same renewal
// cycle a no-op on the provider side; the caller never retries.
func (c *Client) CreateCharge(ctx context.Context, req paymentdomain.ChargeRequest) (*paymentdomain.ChargeResult, error) {
	if c.apiKey == "" {
		return nil, errors.New("stripe api key is not configured")
	}

	values := url.Values{}
	values.Set("amount", strconv.FormatInt(req.Amount, 10))
	values.Set("currency", strings.ToLower(req.Currency))
	values.Set("customer", strings.TrimSpace(req.CustomerID))
	values.Set("payment_method", strings.TrimSpace(req.PaymentMethodID))
	values.Set("confirm", "true")
	values.Set("off_session", "true")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return nil, errors.New("stripe_request_failed")
		}
		if stripeErr.Error.Type == "card_error" {
			return nil, paymentdomain.ErrCardDeclined
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return nil, errors.New(message)
	}

	var intent paymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, err
	}
	if intent.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}

	return &paymentdomain.ChargeResult{
		ProviderPaymentID: intent.ID,
		Status:            intent.Status,
	}, nil
}
