package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joshua-takyi/eventix/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	StripeIntentSucceeded = "payment_intent.succeeded"
	StripeIntentFailed    = "payment_intent.payment_failed"
)

type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is required")
	}

	stripe.Key = secretKey

	return &StripeGateway{webhookSecret: webhookSecret}, nil
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

type IntentRequest struct {
	BookingID   string
	UserID      string
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// CreateIntent opens a PaymentIntent for a pending booking. The booking and
// order ids travel in the metadata and come back on the webhook.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(pricing.ToMinorUnits(req.Amount)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"booking_id": req.BookingID,
			"user_id":    req.UserID,
			"order_id":   req.OrderID,
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// WebhookEvent is the subset of a Stripe event the booking ledger acts on.
type WebhookEvent struct {
	ID             string
	Type           string
	IntentID       string
	Amount         int64
	Currency       string
	BookingID      string
	UserID         string
	OrderID        string
	FailureMessage string
}

// ParseWebhook checks the Stripe-Signature header and decodes payment intent
// events. Other event types are returned with only ID and Type set.
func (g *StripeGateway) ParseWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid stripe signature: %w", err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || event.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}

	out.IntentID = pi.ID
	out.Amount = pi.Amount
	out.Currency = string(pi.Currency)
	out.BookingID = pi.Metadata["booking_id"]
	out.UserID = pi.Metadata["user_id"]
	out.OrderID = pi.Metadata["order_id"]
	if pi.LastPaymentError != nil {
		out.FailureMessage = pi.LastPaymentError.Msg
	}
	return out, nil
}
