package payment

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/module/order"
	"github.com/stylekart/server/internal/shared/response"
)

// Handler exposes the two reconciliation entry points. Both delegate to the
// same service; only the response shape differs.
type Handler struct {
	service *Service
	gateway *Gateway
	logger  *zap.Logger
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service, gateway *Gateway, logger *zap.Logger) *Handler {
	return &Handler{service: service, gateway: gateway, logger: logger}
}

// RegisterRoutes registers the unauthenticated gateway-facing routes and the
// authenticated audit route.
func (h *Handler) RegisterRoutes(public *gin.RouterGroup, authed *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	payments := public.Group("/payments")
	{
		payments.POST("/webhook", h.Webhook)
		payments.GET("/callback", h.Callback)
		payments.POST("/callback", h.Callback)
	}

	authed.GET("/payments/orders/:id/events", requireAdmin, h.ListEvents)
}

var errorMappings = []response.ErrorMapping{
	{Err: ErrInvalidSignature, Status: http.StatusBadRequest, Code: "INVALID_SIGNATURE"},
	{Err: ErrMissingOrderRef, Status: http.StatusBadRequest, Code: "MISSING_ORDER_REF"},
	{Err: order.ErrNotFound, Status: http.StatusNotFound, Code: "ORDER_NOT_FOUND"},
	{Err: ErrAmountMismatch, Status: http.StatusBadRequest, Code: "AMOUNT_MISMATCH"},
	{Err: ErrTransactionConflict, Status: http.StatusConflict, Code: "TRANSACTION_CONFLICT"},
	{Err: ErrOrderCancelled, Status: http.StatusConflict, Code: "ORDER_CANCELLED"},
}

// Webhook handles the server-to-server callback. The gateway posts a
// form-encoded body and expects a structured response.
func (h *Handler) Webhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.BadRequest(c, "malformed form body")
		return
	}

	resp := ParseGatewayResponse(c.Request.PostForm)
	result, err := h.service.Reconcile(c.Request.Context(), resp)
	if err != nil {
		response.HandleErrorWithDefault(c, err, errorMappings)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        result.Success,
		"replayed":       result.Replayed,
		"order_id":       result.Order.ID,
		"order_status":   result.Order.Status,
		"payment_status": result.Order.Payment.Status,
		"reason":         result.Reason,
	})
}

// Callback handles the browser redirect leg. The gateway sends the user back
// with the same payload, via GET query or POST form. The response is a
// redirect to a landing page carrying only the order id, never payment
// credentials.
func (h *Handler) Callback(c *gin.Context) {
	values := c.Request.URL.Query()
	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err != nil {
			response.BadRequest(c, "malformed form body")
			return
		}
		values = c.Request.PostForm
	}

	resp := ParseGatewayResponse(values)
	result, err := h.service.Reconcile(c.Request.Context(), resp)
	if err != nil {
		h.logger.Warn("callback reconciliation rejected", zap.Error(err))
		c.Redirect(http.StatusSeeOther, h.gateway.FailureURL())
		return
	}

	target := h.gateway.FailureURL()
	if result.Success {
		target = h.gateway.SuccessURL()
	}
	c.Redirect(http.StatusSeeOther, landingURL(target, result.Order.ID))
}

// ListEvents handles GET /payments/orders/:id/events. Admin only.
func (h *Handler) ListEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	events, err := h.service.Events(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func landingURL(base string, orderID uuid.UUID) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("order_id", orderID.String())
	u.RawQuery = q.Encode()
	return u.String()
}
