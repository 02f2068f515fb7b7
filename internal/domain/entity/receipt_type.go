package entity

import "time"

// ReceiptType tipo de comprobante fiscal (ej: "B01" crédito fiscal, "B02" consumidor final).
// El código no cambia una vez que alguna serie lo referencia.
type ReceiptType struct {
	ID          string
	CompanyID   string
	Code        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
