package order

import "github.com/google/uuid"

// CreateItemRequest is a single line item in an order creation request.
type CreateItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity" binding:"required"`
	UnitPrice float64   `json:"unit_price"`
}

// AddressRequest is a postal address in an order creation request.
type AddressRequest struct {
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// CreateOrderRequest is the payload for creating a new order.
type CreateOrderRequest struct {
	Items           []CreateItemRequest `json:"items" binding:"required,min=1"`
	CustomerName    string              `json:"customer_name" binding:"required"`
	CustomerPhone   string              `json:"customer_phone"`
	ShippingAddress AddressRequest      `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressRequest     `json:"billing_address"`
	PaymentMethod   string              `json:"payment_method"`
	Notes           string              `json:"notes"`
}

// UpdateStatusRequest is the payload for an admin status update.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
	Notes  string      `json:"notes"`
}

// CancelOrderRequest is the payload for cancelling an order.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CreateOrderResponse returns the persisted order together with the gateway
// checkout session the browser should be redirected with.
type CreateOrderResponse struct {
	Order    *Order           `json:"order"`
	Checkout *CheckoutSession `json:"checkout,omitempty"`
}

// ListOrdersResponse is a paginated order listing.
type ListOrdersResponse struct {
	Orders   []*Order `json:"orders"`
	Total    int64    `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

func (r *CreateItemRequest) toItem() Item {
	return Item{
		ProductID: r.ProductID,
		Name:      r.Name,
		Variant: Variant{
			Color: r.Color,
			Size:  r.Size,
			SKU:   r.SKU,
		},
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
	}
}

func (r *AddressRequest) toAddress() Address {
	return Address{
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
}
