package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *SignedOrderGateway {
	t.Helper()
	g, err := NewSignedOrderGateway("rzp_test_key", "s3cret")
	require.NoError(t, err)
	g.now = func() time.Time { return time.UnixMilli(1760000000123) }
	return g
}

func TestNewSignedOrderGatewayRequiresSecret(t *testing.T) {
	_, err := NewSignedOrderGateway("rzp_test_key", "")
	assert.Error(t, err)
}

func TestCreateOrder(t *testing.T) {
	g := newTestGateway(t)

	order, err := g.CreateOrder(decimal.NewFromInt(300), "INR", "booking-1")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^order_1760000000123_[0-9a-z]{9}$`), order.ID)
	assert.Equal(t, int64(30000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "booking-1", order.Receipt)
}

func TestCreateOrderIDsAreUnique(t *testing.T) {
	g := newTestGateway(t)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		order, err := g.CreateOrder(decimal.NewFromInt(1), "INR", "")
		require.NoError(t, err)
		_, dup := seen[order.ID]
		require.False(t, dup, "duplicate order id %s", order.ID)
		seen[order.ID] = struct{}{}
	}
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	g := newTestGateway(t)
	_, err := g.CreateOrder(decimal.Zero, "INR", "")
	assert.Error(t, err)
}

func TestSignMatchesHMACSHA256(t *testing.T) {
	g := newTestGateway(t)

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte("order_1|pay_1"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, g.Sign("order_1", "pay_1"))
}

func TestVerify(t *testing.T) {
	g := newTestGateway(t)
	sig := g.Sign("order_1", "pay_1")

	assert.True(t, g.Verify("order_1", "pay_1", sig))
	assert.False(t, g.Verify("order_1", "pay_2", sig))
	assert.False(t, g.Verify("order_2", "pay_1", sig))
	assert.False(t, g.Verify("order_1", "pay_1", "deadbeef"))
	assert.False(t, g.Verify("order_1", "pay_1", ""))

	other, err := NewSignedOrderGateway("rzp_test_key", "another")
	require.NoError(t, err)
	assert.False(t, other.Verify("order_1", "pay_1", sig))
}
