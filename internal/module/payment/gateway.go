package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/stylekart/server/internal/module/order"
	"github.com/stylekart/server/internal/shared/config"
)

// Gateway environment names.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Gateway payment endpoints.
const (
	sandboxPaymentURL    = "https://test.payu.in/_payment"
	productionPaymentURL = "https://secure.payu.in/_payment"
)

// Public sandbox credential pair. Used only when no credentials are
// configured outside production.
const (
	sandboxMerchantKey = "gtKFFx"
	sandboxSalt        = "eCwWELxi"
)

// Gateway signs outbound checkout requests and verifies inbound callbacks
// against the shared merchant credential pair.
type Gateway struct {
	merchantKey string
	salt        string
	environment string
	successURL  string
	failureURL  string
	callbackURL string
	logger      *zap.Logger
}

// NewGateway creates a gateway from configuration. Outside production,
// missing credentials fall back to the public sandbox pair.
func NewGateway(cfg *config.GatewayConfig, logger *zap.Logger) (*Gateway, error) {
	key, salt := cfg.MerchantKey, cfg.Salt
	if key == "" || salt == "" {
		if cfg.Environment == EnvProduction {
			return nil, ErrMissingCredentials
		}
		key, salt = sandboxMerchantKey, sandboxSalt
		logger.Warn("gateway credentials not configured, using sandbox pair")
	}

	return &Gateway{
		merchantKey: key,
		salt:        salt,
		environment: cfg.Environment,
		successURL:  cfg.SuccessURL,
		failureURL:  cfg.FailureURL,
		callbackURL: cfg.CallbackURL,
		logger:      logger,
	}, nil
}

// PaymentURL returns the environment-selected gateway endpoint.
func (g *Gateway) PaymentURL() string {
	if g.environment == EnvProduction {
		return productionPaymentURL
	}
	return sandboxPaymentURL
}

// SuccessURL returns the landing page for successful payments.
func (g *Gateway) SuccessURL() string { return g.successURL }

// FailureURL returns the landing page for failed payments.
func (g *Gateway) FailureURL() string { return g.failureURL }

// PrepareCheckout builds the signed form payload the browser posts to the
// gateway. The amount is formatted as a fixed-point string so both sides
// hash the same byte sequence.
func (g *Gateway) PrepareCheckout(o *order.Order) (*order.CheckoutSession, error) {
	if o.Payment.GatewayOrderID == "" {
		return nil, fmt.Errorf("order %s has no gateway order id", o.ID)
	}

	amount := fmt.Sprintf("%.2f", o.Total)
	productInfo := o.ProductInfo()
	udf1 := o.ID.String()

	params := map[string]string{
		"key":         g.merchantKey,
		"txnid":       o.Payment.GatewayOrderID,
		"amount":      amount,
		"productinfo": productInfo,
		"firstname":   o.CustomerName,
		"email":       o.CustomerEmail,
		"phone":       o.CustomerPhone,
		"surl":        g.callbackURL,
		"furl":        g.callbackURL,
		"udf1":        udf1,
	}
	params["hash"] = g.forwardHash(o.Payment.GatewayOrderID, amount, productInfo, o.CustomerName, o.CustomerEmail, udf1)

	return &order.CheckoutSession{
		URL:    g.PaymentURL(),
		Params: params,
	}, nil
}

// forwardHash computes the outbound request signature:
// sha512(key|txnid|amount|productinfo|firstname|email|udf1|udf2|udf3|udf4|udf5||||||salt).
func (g *Gateway) forwardHash(txnid, amount, productInfo, firstname, email, udf1 string) string {
	fields := []string{
		g.merchantKey,
		txnid,
		amount,
		productInfo,
		firstname,
		email,
		udf1, "", "", "", "", // udf1..udf5
		"", "", "", "", "", // five reserved slots
		g.salt,
	}
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// reverseHash computes the signature expected on an inbound callback:
// sha512(salt|status|udf10..udf1|email|firstname|productinfo|amount|txnid|key).
// The udf values the gateway echoed back participate in the digest.
func (g *Gateway) reverseHash(r *GatewayResponse) string {
	fields := []string{
		g.salt,
		r.Status,
		"", "", "", "", "", // udf10..udf6, unused
		r.UDF5, r.UDF4, r.UDF3, r.UDF2, r.UDF1,
		r.Email,
		r.Firstname,
		r.ProductInfo,
		r.Amount,
		r.TxnID,
		g.merchantKey,
	}
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// VerifySignature authenticates an inbound callback with a byte-for-byte
// constant-time comparison. Any mismatch is a hard rejection, nothing in the
// payload may be trusted afterwards.
func (g *Gateway) VerifySignature(r *GatewayResponse) error {
	if r.Hash == "" {
		return ErrInvalidSignature
	}
	expected := g.reverseHash(r)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(r.Hash)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// IsSuccessful reports whether the gateway declared the payment successful.
// The status comparison is case-sensitive per the gateway contract.
func (g *Gateway) IsSuccessful(r *GatewayResponse) bool {
	return r.Status == "success"
}

// FailureReason maps a non-success callback to a human-readable reason.
func (g *Gateway) FailureReason(r *GatewayResponse) string {
	switch r.Status {
	case "failure":
		if r.ErrorMsg != "" {
			return "payment failed: " + r.ErrorMsg
		}
		return "payment failed"
	case "cancel":
		return "payment cancelled by customer"
	case "pending":
		return "payment pending at gateway"
	default:
		return "payment not successful (status: " + r.Status + ")"
	}
}
