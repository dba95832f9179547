package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/pricing"
	"github.com/shopspring/decimal"
)

// Order is what the client needs to open the hosted checkout.
type Order struct {
	ID       string
	Amount   int64 // minor units
	Currency string
	Receipt  string
}

// OrderGateway creates checkout orders and verifies the signature the
// gateway returns to the browser once the customer has paid.
type OrderGateway interface {
	Name() string
	KeyID() string
	CreateOrder(amount decimal.Decimal, currency, receipt string) (*Order, error)
	Verify(orderID, paymentID, signature string) bool
}

// SignedOrderGateway is a Razorpay-style gateway: orders are identified by
// locally generated ids and payments are proven with
// hex(HMAC-SHA256(orderId + "|" + paymentId, keySecret)).
type SignedOrderGateway struct {
	keyID     string
	keySecret []byte
	now       func() time.Time
}

func NewSignedOrderGateway(keyID, keySecret string) (*SignedOrderGateway, error) {
	if keySecret == "" {
		return nil, fmt.Errorf("payment key secret is required")
	}
	return &SignedOrderGateway{
		keyID:     keyID,
		keySecret: []byte(keySecret),
		now:       time.Now,
	}, nil
}

func (g *SignedOrderGateway) Name() string {
	return "razorpay"
}

func (g *SignedOrderGateway) KeyID() string {
	return g.keyID
}

func (g *SignedOrderGateway) CreateOrder(amount decimal.Decimal, currency, receipt string) (*Order, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("order amount must be positive, got %s", amount)
	}
	id, err := g.newOrderID()
	if err != nil {
		return nil, err
	}
	return &Order{
		ID:       id,
		Amount:   pricing.ToMinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

// order_<unix millis>_<9 base36 chars>
func (g *SignedOrderGateway) newOrderID() (string, error) {
	suffix, err := helpers.RandomString(9, helpers.Base36)
	if err != nil {
		return "", fmt.Errorf("failed to generate order id: %w", err)
	}
	return "order_" + strconv.FormatInt(g.now().UnixMilli(), 10) + "_" + suffix, nil
}

func (g *SignedOrderGateway) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, g.keySecret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *SignedOrderGateway) Verify(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := g.Sign(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
