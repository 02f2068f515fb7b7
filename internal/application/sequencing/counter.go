package sequencing

import (
	"context"
	"fmt"
)

// NumberSource devuelve el mayor número ya emitido para la empresa (0 si ninguno).
type NumberSource interface {
	MaxNumber(ctx context.Context, companyID string) (int64, error)
}

// SequenceCounter genera el siguiente consecutivo de una empresa.
// Lee max+1 bajo el lock de la clave scope:company; el lock dura hasta el commit,
// así dos llamadas concurrentes nunca observan el mismo máximo.
type SequenceCounter struct {
	scope  string
	source func(r Repos) NumberSource
}

var (
	// InvoiceCounter numeración de facturas.
	InvoiceCounter = SequenceCounter{scope: "invoice-number", source: func(r Repos) NumberSource { return r.Invoices }}
	// QuoteCounter numeración de cotizaciones.
	QuoteCounter = SequenceCounter{scope: "quote-number", source: func(r Repos) NumberSource { return r.Quotes }}
)

// Key clave de serialización del contador para la empresa.
func (c SequenceCounter) Key(companyID string) string {
	return c.scope + ":" + companyID
}

// Next devuelve max+1, o 1 si la empresa no tiene números emitidos.
func (c SequenceCounter) Next(ctx context.Context, r Repos, companyID string) (int64, error) {
	if err := r.Locker.Lock(ctx, c.Key(companyID)); err != nil {
		return 0, fmt.Errorf("lock %s: %w", c.scope, err)
	}
	last, err := c.source(r).MaxNumber(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("max %s: %w", c.scope, err)
	}
	return last + 1, nil
}
