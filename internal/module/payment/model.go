package payment

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// GatewayResponse is the canonical shape of an inbound gateway callback.
// It arrives either as a redirect query string or as a webhook form body,
// identical fields either way. Nothing in it is trusted until the reverse
// hash has been verified.
type GatewayResponse struct {
	Status      string `form:"status" json:"status"`
	TxnID       string `form:"txnid" json:"txnid"`
	Amount      string `form:"amount" json:"amount"`
	ProductInfo string `form:"productinfo" json:"productinfo"`
	Firstname   string `form:"firstname" json:"firstname"`
	Email       string `form:"email" json:"email"`
	Phone       string `form:"phone" json:"phone"`
	Hash        string `form:"hash" json:"hash"`
	MihPayID    string `form:"mihpayid" json:"mihpayid"`
	Mode        string `form:"mode" json:"mode"`
	ErrorMsg    string `form:"error_Message" json:"error_Message"`

	UDF1 string `form:"udf1" json:"udf1"`
	UDF2 string `form:"udf2" json:"udf2"`
	UDF3 string `form:"udf3" json:"udf3"`
	UDF4 string `form:"udf4" json:"udf4"`
	UDF5 string `form:"udf5" json:"udf5"`

	raw url.Values
}

// ParseGatewayResponse builds the canonical response from raw form or query
// values, keeping the raw values for audit storage.
func ParseGatewayResponse(values url.Values) *GatewayResponse {
	return &GatewayResponse{
		Status:      values.Get("status"),
		TxnID:       values.Get("txnid"),
		Amount:      values.Get("amount"),
		ProductInfo: values.Get("productinfo"),
		Firstname:   values.Get("firstname"),
		Email:       values.Get("email"),
		Phone:       values.Get("phone"),
		Hash:        values.Get("hash"),
		MihPayID:    values.Get("mihpayid"),
		Mode:        values.Get("mode"),
		ErrorMsg:    values.Get("error_Message"),
		UDF1:        values.Get("udf1"),
		UDF2:        values.Get("udf2"),
		UDF3:        values.Get("udf3"),
		UDF4:        values.Get("udf4"),
		UDF5:        values.Get("udf5"),
		raw:         values,
	}
}

// RawJSON serializes the raw callback for audit storage. Falls back to the
// canonical fields when the response was built directly.
func (r *GatewayResponse) RawJSON() string {
	if len(r.raw) > 0 {
		flat := make(map[string]string, len(r.raw))
		for k := range r.raw {
			flat[k] = r.raw.Get(k)
		}
		b, err := json.Marshal(flat)
		if err == nil {
			return string(b)
		}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(b)
}

// GatewayEvent is the stored audit record for every reconciliation attempt
// that passed signature verification.
type GatewayEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;index"`
	TxnID     string    `json:"txn_id" gorm:"index"`
	MihPayID  string    `json:"mihpay_id"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount"`
	Outcome   string    `json:"outcome"`
	Raw       string    `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for gateway events.
func (GatewayEvent) TableName() string {
	return "gateway_events"
}

// Reconciliation outcomes recorded on gateway events and metrics.
const (
	OutcomeCompleted      = "completed"
	OutcomeFailed         = "failed"
	OutcomeReplayed       = "replayed"
	OutcomeAmountMismatch = "amount_mismatch"
	OutcomeConflict       = "conflict"
	OutcomeCancelledOrder = "cancelled_order"
)
