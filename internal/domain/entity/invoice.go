package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceState estado de la factura.
type InvoiceState string

// Estados de la factura. Paid y Void son terminales.
const (
	InvoiceDraft   InvoiceState = "Draft"
	InvoicePending InvoiceState = "Pending"
	InvoiceActive  InvoiceState = "Active"
	InvoicePaid    InvoiceState = "Paid"
	InvoiceVoid    InvoiceState = "Void"
)

var invoiceTransitions = map[InvoiceState][]InvoiceState{
	InvoiceDraft:   {InvoicePending, InvoiceActive, InvoiceVoid},
	InvoicePending: {InvoiceActive, InvoiceVoid},
	InvoiceActive:  {InvoicePaid, InvoiceVoid},
}

// ParseInvoiceState valida un estado recibido como texto.
func ParseInvoiceState(s string) (InvoiceState, bool) {
	switch st := InvoiceState(s); st {
	case InvoiceDraft, InvoicePending, InvoiceActive, InvoicePaid, InvoiceVoid:
		return st, true
	}
	return "", false
}

// IsTerminal indica si no hay transiciones de salida.
func (s InvoiceState) IsTerminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// CanTransitionTo indica si la transición s -> to es legal.
func (s InvoiceState) CanTransitionTo(to InvoiceState) bool {
	for _, next := range invoiceTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice cabecera de factura. Number y ReceiptID se asignan juntos al activar
// y no se liberan aunque la factura se anule después.
type Invoice struct {
	ID            string
	CompanyID     string
	Number        *int64
	ReceiptTypeID string
	ReceiptID     *string
	State         InvoiceState
	ClientID      string
	Total         decimal.Decimal
	IssuedOn      time.Time
	DueOn         time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAllocated indica si ya tiene número de factura y NCF ligado.
func (i *Invoice) IsAllocated() bool {
	return i.Number != nil && i.ReceiptID != nil
}
