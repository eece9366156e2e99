package order

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/shared/middleware"
	"github.com/stylekart/server/internal/shared/response"
)

// Handler exposes the order lifecycle over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new order handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the order routes on the given group.
// All routes require authentication; status updates additionally require the
// admin role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/cancel", h.Cancel)
		orders.PATCH("/:id/status", requireAdmin, h.UpdateStatus)
	}
}

var errorMappings = []response.ErrorMapping{
	{Err: ErrValidation, Status: http.StatusBadRequest},
	{Err: ErrNotFound, Status: http.StatusNotFound},
	{Err: ErrForbidden, Status: http.StatusForbidden},
	{Err: ErrInvalidTransition, Status: http.StatusUnprocessableEntity},
	{Err: ErrCancelNotAllowed, Status: http.StatusUnprocessableEntity},
}

// Create handles POST /orders.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	email, _ := c.Get(middleware.ContextEmailKey)
	emailStr, _ := email.(string)

	resp, err := h.service.Create(c.Request.Context(), userID, emailStr, &req)
	if err != nil {
		h.logger.Warn("order creation failed", zap.Error(err))
		response.HandleErrorWithDefault(c, err, errorMappings)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get handles GET /orders/:id.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	o, err := h.service.Get(c.Request.Context(), id, userID, middleware.IsAdmin(c))
	if err != nil {
		response.HandleErrorWithDefault(c, err, errorMappings)
		return
	}

	c.JSON(http.StatusOK, o)
}

// List handles GET /orders.
func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var filter ListFilter
	if s := c.Query("status"); s != "" {
		status := OrderStatus(s)
		if !IsValidStatus(status) {
			response.BadRequest(c, "unknown status filter")
			return
		}
		filter.Status = &status
	}
	filter.Page = intQuery(c, "page", 1)
	filter.PageSize = intQuery(c, "page_size", 20)

	resp, err := h.service.List(c.Request.Context(), userID, middleware.IsAdmin(c), filter)
	if err != nil {
		response.HandleErrorWithDefault(c, err, errorMappings)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateStatus handles PATCH /orders/:id/status. Admin only.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		response.HandleErrorWithDefault(c, err, errorMappings)
		return
	}

	c.JSON(http.StatusOK, o)
}

// Cancel handles POST /orders/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	o, err := h.service.Cancel(c.Request.Context(), id, userID, middleware.IsAdmin(c), req.Reason)
	if err != nil {
		response.HandleErrorWithDefault(c, err, errorMappings)
		return
	}

	c.JSON(http.StatusOK, o)
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
