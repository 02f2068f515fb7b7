package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote cotización. A diferencia de la factura, recibe su número consecutivo al crearse.
type Quote struct {
	ID        string
	CompanyID string
	Number    int64
	ClientID  string
	Total     decimal.Decimal
	IssuedOn  time.Time
	ExpiresOn time.Time
	Voided    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
