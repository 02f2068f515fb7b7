package entity

import "time"

// Receipt es un NCF individual materializado a partir de una serie.
// La serie a la que pertenece se deduce de (ReceiptTypeID, Number); no se almacena.
type Receipt struct {
	ID            string
	CompanyID     string
	ReceiptTypeID string
	Number        int64
	FullNumber    string // código del tipo + número con ceros a la izquierda (ancho fijo)
	IssuedOn      time.Time
	ExpiresOn     time.Time
	Voided        bool
	ClientID      *string
	InvoiceID     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAvailable es verdadero si el comprobante no está anulado ni ligado a cliente o factura.
func (r *Receipt) IsAvailable() bool {
	return !r.Voided && r.ClientID == nil && r.InvoiceID == nil
}

// IsAssigned indica si el comprobante ya fue ligado a una factura.
func (r *Receipt) IsAssigned() bool {
	return r.InvoiceID != nil
}
