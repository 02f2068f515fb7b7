package sequencing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
)

func TestCreateQuote_NumeracionPorEmpresa(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	for i := int64(1); i <= 3; i++ {
		q, err := e.quotes.CreateQuote(ctx, companyA, dto.CreateQuoteRequest{ClientID: "c", Total: decimal.NewFromInt(50)})
		require.NoError(t, err)
		assert.Equal(t, i, q.Number)
		assert.Equal(t, q.IssuedOn.AddDate(0, 0, 30), q.ExpiresOn)
	}
	q, err := e.quotes.CreateQuote(ctx, companyB, dto.CreateQuoteRequest{ClientID: "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.Number)

	_, err = e.quotes.GetQuote(ctx, companyA, q.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateQuote_Concurrente(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := e.quotes.CreateQuote(gctx, companyA, dto.CreateQuoteRequest{ClientID: "c"})
			return err
		})
	}
	require.NoError(t, g.Wait())

	list, err := e.quotes.ListQuotes(ctx, companyA, 100, 0)
	require.NoError(t, err)
	require.Len(t, list, 25)
	for i, q := range list {
		assert.Equal(t, int64(25-i), q.Number)
	}
}

func TestCreateQuote_Validaciones(t *testing.T) {
	e := newEnv()
	_, err := e.quotes.CreateQuote(context.Background(), companyA, dto.CreateQuoteRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.quotes.CreateQuote(context.Background(), companyA, dto.CreateQuoteRequest{ClientID: "c", IssuedOn: "ayer"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
