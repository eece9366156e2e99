package order

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the customer-visible lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents the payment sub-state of an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment method constants.
const (
	MethodGateway        = "gateway"
	MethodCashOnDelivery = "cod"
)

// Variant identifies the specific product variant ordered.
type Variant struct {
	Color string `json:"color"`
	Size  string `json:"size"`
	SKU   string `json:"sku"`
}

// Item is a single order line.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Variant   Variant   `json:"variant"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// Address is a structured postal address, immutable after order creation.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentDetails is the payment sub-object of an order.
// GatewayOrderID is assigned at creation and sent to the gateway as the
// correlation key. TransactionID and GatewayPaymentID are assigned only once
// reconciliation succeeds.
type PaymentDetails struct {
	Method             string        `json:"method" gorm:"column:method"`
	Status             PaymentStatus `json:"status" gorm:"column:status;index"`
	TransactionID      string        `json:"transaction_id,omitempty" gorm:"column:transaction_id"`
	GatewayOrderID     string        `json:"gateway_order_id,omitempty" gorm:"column:gateway_order_id;index"`
	GatewayPaymentID   string        `json:"gateway_payment_id,omitempty" gorm:"column:gateway_payment_id"`
	GatewayRawResponse string        `json:"-" gorm:"column:gateway_raw_response;type:text"`
}

// Order is the aggregate root for the order lifecycle.
type Order struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`

	Items []Item `json:"items" gorm:"serializer:json;type:jsonb"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	ShippingAddress Address `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress  Address `json:"billing_address" gorm:"embedded;embeddedPrefix:billing_"`

	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	Total        float64 `json:"total"`

	Status  OrderStatus    `json:"status" gorm:"index"`
	Payment PaymentDetails `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for orders.
func (Order) TableName() string {
	return "orders"
}

// ProductInfo returns a short human-readable description of the order
// contents, sent to the gateway as the product info field.
func (o *Order) ProductInfo() string {
	if len(o.Items) == 0 {
		return "Order " + o.ID.String()
	}
	info := o.Items[0].Name
	if len(o.Items) > 1 {
		info += " and more"
	}
	return info
}

// IsSettled reports whether the payment sub-state has left pending.
func (o *Order) IsSettled() bool {
	return o.Payment.Status != PaymentPending
}
