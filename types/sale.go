package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for payment dates on the wire.
const DateLayout = "2006-01-02"

// Sale represents a single jewelry sale registered by a reseller.
type Sale struct {
	// ID is the unique identifier of the sale.
	ID int `json:"id" db:"id"`

	// UserID identifies the reseller who owns the sale.
	UserID int `json:"user_id" db:"user_id"`

	// ProductCode is the reseller's code for the piece sold.
	ProductCode string `json:"product_code" db:"product_code"`

	// ClientName is the name of the buyer.
	ClientName string `json:"client_name" db:"client_name"`

	// Type is the kind of jewelry (e.g., "Anel", "Colar").
	Type string `json:"type" db:"type"`

	// Value is the gross sale amount, always kept at two decimal places.
	Value decimal.Decimal `json:"value" db:"value"`

	// PaymentMethod is how the client paid (e.g., "PIX", "Dinheiro").
	PaymentMethod string `json:"payment_method" db:"payment_method"`

	// PaymentDate is the calendar date the payment was received.
	// Only the date part is meaningful.
	PaymentDate time.Time `json:"payment_date" db:"payment_date"`

	// CreatedAt is the timestamp at which the sale was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the sale.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SalePatch lists the mutable columns of a sale. Nil fields are left
// unchanged by an update.
type SalePatch struct {
	ProductCode   *string
	ClientName    *string
	Type          *string
	Value         *decimal.Decimal
	PaymentMethod *string
	PaymentDate   *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p SalePatch) IsEmpty() bool {
	return p.ProductCode == nil &&
		p.ClientName == nil &&
		p.Type == nil &&
		p.Value == nil &&
		p.PaymentMethod == nil &&
		p.PaymentDate == nil
}
