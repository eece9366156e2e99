package payment

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/module/order"
	"github.com/stylekart/server/internal/shared/config"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := NewGateway(&config.GatewayConfig{
		Environment: EnvSandbox,
		SuccessURL:  "https://shop.example.com/payment/success",
		FailureURL:  "https://shop.example.com/payment/failure",
		CallbackURL: "https://api.example.com/api/v1/payments/callback",
	}, zap.NewNop())
	assert.NoError(t, err)
	return g
}

func testOrder() *order.Order {
	id := uuid.New()
	return &order.Order{
		ID:            id,
		UserID:        uuid.New(),
		Items:         []order.Item{{Name: "Jacket", Quantity: 2, UnitPrice: 15000}},
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "9999999999",
		Subtotal:      30000,
		Tax:           2400,
		Total:         32400,
		Status:        order.StatusPending,
		Payment: order.PaymentDetails{
			Method:         order.MethodGateway,
			Status:         order.PaymentPending,
			GatewayOrderID: "TXN_" + id.String() + "_1700000000",
		},
	}
}

// signedResponse builds a callback payload carrying a valid reverse hash, as
// the gateway would produce it.
func signedResponse(g *Gateway, o *order.Order, status, amount string) *GatewayResponse {
	r := &GatewayResponse{
		Status:      status,
		TxnID:       o.Payment.GatewayOrderID,
		Amount:      amount,
		ProductInfo: o.ProductInfo(),
		Firstname:   o.CustomerName,
		Email:       o.CustomerEmail,
		MihPayID:    "403993715531",
		UDF1:        o.ID.String(),
	}
	r.Hash = g.reverseHash(r)
	return r
}

func TestGateway_SandboxFallback(t *testing.T) {
	g := newTestGateway(t)
	assert.Equal(t, sandboxMerchantKey, g.merchantKey)
	assert.Equal(t, sandboxSalt, g.salt)
	assert.Equal(t, sandboxPaymentURL, g.PaymentURL())
}

func TestGateway_ProductionRequiresCredentials(t *testing.T) {
	_, err := NewGateway(&config.GatewayConfig{Environment: EnvProduction}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	g, err := NewGateway(&config.GatewayConfig{
		Environment: EnvProduction,
		MerchantKey: "livekey",
		Salt:        "livesalt",
	}, zap.NewNop())
	assert.NoError(t, err)
	assert.Equal(t, productionPaymentURL, g.PaymentURL())
}

func TestGateway_PrepareCheckout(t *testing.T) {
	g := newTestGateway(t)
	o := testOrder()

	session, err := g.PrepareCheckout(o)
	assert.NoError(t, err)
	assert.Equal(t, sandboxPaymentURL, session.URL)
	assert.Equal(t, o.Payment.GatewayOrderID, session.Params["txnid"])
	assert.Equal(t, "32400.00", session.Params["amount"])
	assert.Equal(t, o.ID.String(), session.Params["udf1"])
	assert.Equal(t, sandboxMerchantKey, session.Params["key"])
	assert.Len(t, session.Params["hash"], 128)
}

func TestGateway_ForwardHashDeterministic(t *testing.T) {
	g := newTestGateway(t)
	o := testOrder()

	first, err := g.PrepareCheckout(o)
	assert.NoError(t, err)
	second, err := g.PrepareCheckout(o)
	assert.NoError(t, err)
	assert.Equal(t, first.Params["hash"], second.Params["hash"])
}

func TestGateway_VerifySignature(t *testing.T) {
	g := newTestGateway(t)
	o := testOrder()

	t.Run("valid payload passes", func(t *testing.T) {
		r := signedResponse(g, o, "success", "32400.00")
		assert.NoError(t, g.VerifySignature(r))
	})

	t.Run("altered amount is rejected", func(t *testing.T) {
		r := signedResponse(g, o, "success", "32400.00")
		r.Amount = "32400.01"
		assert.ErrorIs(t, g.VerifySignature(r), ErrInvalidSignature)
	})

	t.Run("altered txnid is rejected", func(t *testing.T) {
		r := signedResponse(g, o, "success", "32400.00")
		r.TxnID = r.TxnID + "x"
		assert.ErrorIs(t, g.VerifySignature(r), ErrInvalidSignature)
	})

	t.Run("altered status is rejected", func(t *testing.T) {
		r := signedResponse(g, o, "failure", "32400.00")
		r.Status = "success"
		assert.ErrorIs(t, g.VerifySignature(r), ErrInvalidSignature)
	})

	t.Run("case-shifted hash is rejected", func(t *testing.T) {
		// the comparison is byte-for-byte, hex case included
		r := signedResponse(g, o, "success", "32400.00")
		r.Hash = strings.ToUpper(r.Hash)
		assert.ErrorIs(t, g.VerifySignature(r), ErrInvalidSignature)
	})

	t.Run("missing hash is rejected", func(t *testing.T) {
		r := signedResponse(g, o, "success", "32400.00")
		r.Hash = ""
		assert.ErrorIs(t, g.VerifySignature(r), ErrInvalidSignature)
	})

	t.Run("udf values participate in the digest", func(t *testing.T) {
		r := signedResponse(g, o, "success", "32400.00")
		r.UDF1 = uuid.New().String()
		assert.ErrorIs(t, g.VerifySignature(r), ErrInvalidSignature)
	})
}

func TestGateway_IsSuccessful(t *testing.T) {
	g := newTestGateway(t)

	assert.True(t, g.IsSuccessful(&GatewayResponse{Status: "success"}))
	// the status contract is case-sensitive
	assert.False(t, g.IsSuccessful(&GatewayResponse{Status: "Success"}))
	assert.False(t, g.IsSuccessful(&GatewayResponse{Status: "failure"}))
	assert.False(t, g.IsSuccessful(&GatewayResponse{Status: "pending"}))
	assert.False(t, g.IsSuccessful(&GatewayResponse{Status: "cancel"}))
}

func TestGateway_FailureReason(t *testing.T) {
	g := newTestGateway(t)

	assert.Equal(t, "payment failed", g.FailureReason(&GatewayResponse{Status: "failure"}))
	assert.Equal(t, "payment failed: card declined", g.FailureReason(&GatewayResponse{Status: "failure", ErrorMsg: "card declined"}))
	assert.Equal(t, "payment cancelled by customer", g.FailureReason(&GatewayResponse{Status: "cancel"}))
	assert.Equal(t, "payment pending at gateway", g.FailureReason(&GatewayResponse{Status: "pending"}))
	assert.Contains(t, g.FailureReason(&GatewayResponse{Status: "bogus"}), "bogus")
}
