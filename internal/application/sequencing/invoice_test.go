package sequencing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

func TestActivateInvoice_AsignaNumeroYNCF(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B01")
	s := e.newSeries(t, companyA, rt.ID, 1, 5)

	inv := e.pendingInvoice(t, companyA, rt.ID)
	assert.Equal(t, entity.InvoicePending, inv.State)
	assert.Nil(t, inv.Number)

	active, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceActive, active.State)
	require.NotNil(t, active.Number)
	assert.Equal(t, int64(1), *active.Number)
	require.NotNil(t, active.ReceiptID)

	rc, err := e.store.Receipts().GetByID(ctx, *active.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, "B0100000001", rc.FullNumber)
	require.NotNil(t, rc.InvoiceID)
	assert.Equal(t, inv.ID, *rc.InvoiceID)
	require.NotNil(t, rc.ClientID)
	assert.Equal(t, "cliente-1", *rc.ClientID)

	series, err := e.series.GetSeries(ctx, companyA, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), series.Current)
	assert.Equal(t, int64(4), series.Remaining())
}

func TestActivateInvoice_Idempotente(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 5)
	inv := e.pendingInvoice(t, companyA, rt.ID)

	first, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
	require.NoError(t, err)
	second, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, *first.Number, *second.Number)
	assert.Equal(t, *first.ReceiptID, *second.ReceiptID)

	available, err := e.series.ListAvailableReceipts(ctx, companyA, rt.ID)
	require.NoError(t, err)
	assert.Len(t, available, 4, "reactivar no consume otro NCF")
}

func TestActivateInvoice_SecuenciaSinSaltos(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 10)

	for i := int64(1); i <= 10; i++ {
		inv := e.pendingInvoice(t, companyA, rt.ID)
		active, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, i, *active.Number)
		rc, err := e.store.Receipts().GetByID(ctx, *active.ReceiptID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("B%010d", i), rc.FullNumber)
	}
}

func TestActivateInvoice_AgotadoNoConsumeNumero(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 5)

	for i := 0; i < 5; i++ {
		inv := e.pendingInvoice(t, companyA, rt.ID)
		_, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
		require.NoError(t, err)
	}

	sixth := e.pendingInvoice(t, companyA, rt.ID)
	_, err := e.invoices.ActivateInvoice(ctx, companyA, sixth.ID)
	require.ErrorIs(t, err, domain.ErrExhausted)
	var exhausted *domain.ExhaustionError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "B", exhausted.Code)

	got, err := e.invoices.GetInvoice(ctx, companyA, sixth.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePending, got.State, "la factura queda en su estado anterior")
	assert.Nil(t, got.Number)
	assert.Nil(t, got.ReceiptID)

	// Con una serie nueva el número de factura continúa en 6.
	e.newSeries(t, companyA, rt.ID, 6, 10)
	active, err := e.invoices.ActivateInvoice(ctx, companyA, sixth.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), *active.Number)
}

func TestActivateInvoice_SaltaComprobantesAnulados(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	s1 := e.newSeries(t, companyA, rt.ID, 1, 5)
	e.newSeries(t, companyA, rt.ID, 6, 10)
	_, err := e.series.VoidSeries(ctx, companyA, s1.ID)
	require.NoError(t, err)

	inv := e.pendingInvoice(t, companyA, rt.ID)
	active, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
	require.NoError(t, err)
	rc, err := e.store.Receipts().GetByID(ctx, *active.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), rc.Number)
	assert.Equal(t, int64(1), *active.Number, "el número de factura es independiente del NCF")
}

func TestActivateInvoice_ConcurrenteSinDuplicados(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 50)

	const n = 40
	ids := make([]string, n)
	for i := range ids {
		ids[i] = e.pendingInvoice(t, companyA, rt.ID).ID
	}

	var (
		mu       sync.Mutex
		numbers  = make(map[int64]bool)
		receipts = make(map[string]bool)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			inv, err := e.invoices.ActivateInvoice(gctx, companyA, id)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if numbers[*inv.Number] {
				return fmt.Errorf("número de factura duplicado %d", *inv.Number)
			}
			if receipts[*inv.ReceiptID] {
				return fmt.Errorf("NCF duplicado %s", *inv.ReceiptID)
			}
			numbers[*inv.Number] = true
			receipts[*inv.ReceiptID] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i := int64(1); i <= n; i++ {
		assert.True(t, numbers[i], "falta el número %d", i)
	}
	available, err := e.series.ListAvailableReceipts(ctx, companyA, rt.ID)
	require.NoError(t, err)
	require.Len(t, available, 50-n)
	assert.Equal(t, int64(n+1), available[0].Number, "los NCF asignados son el prefijo 1..n")
}

func TestActivateInvoice_ConcurrenteConAgotamiento(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 5)

	ids := make([]string, 8)
	for i := range ids {
		ids[i] = e.pendingInvoice(t, companyA, rt.ID).ID
	}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		exhausted int
	)
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.invoices.ActivateInvoice(ctx, companyA, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrExhausted):
				exhausted++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, ok)
	assert.Equal(t, 3, exhausted)

	last, err := e.store.Invoices().MaxNumber(ctx, companyA)
	require.NoError(t, err)
	assert.Equal(t, int64(5), last, "las activaciones fallidas no consumen números")
}

func TestCreateInvoice_ActivaEnLaMismaOperacion(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 1)

	inv, err := e.invoices.CreateInvoice(ctx, companyA, dto.CreateInvoiceRequest{
		ClientID: "cliente-1", ReceiptTypeID: rt.ID, Total: decimal.NewFromInt(10), State: "Active",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceActive, inv.State)
	assert.Equal(t, int64(1), *inv.Number)

	_, err = e.invoices.CreateInvoice(ctx, companyA, dto.CreateInvoiceRequest{
		ClientID: "cliente-2", ReceiptTypeID: rt.ID, Total: decimal.NewFromInt(10), State: "Active",
	})
	require.ErrorIs(t, err, domain.ErrExhausted)

	list, err := e.invoices.ListInvoices(ctx, companyA, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1, "la factura cuya activación falla no se crea")
}

func TestCreateInvoice_Validaciones(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")

	cases := []struct {
		name string
		in   dto.CreateInvoiceRequest
		want error
	}{
		{"sin cliente", dto.CreateInvoiceRequest{ReceiptTypeID: rt.ID}, domain.ErrInvalidInput},
		{"sin tipo", dto.CreateInvoiceRequest{ClientID: "c"}, domain.ErrInvalidInput},
		{"total negativo", dto.CreateInvoiceRequest{ClientID: "c", ReceiptTypeID: rt.ID, Total: decimal.NewFromInt(-1)}, domain.ErrInvalidInput},
		{"estado inicial Paid", dto.CreateInvoiceRequest{ClientID: "c", ReceiptTypeID: rt.ID, State: "Paid"}, domain.ErrInvalidInput},
		{"tipo inexistente", dto.CreateInvoiceRequest{ClientID: "c", ReceiptTypeID: "nope"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.invoices.CreateInvoice(ctx, companyA, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTransitionInvoice_MaquinaDeEstados(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 5)

	inv, err := e.invoices.CreateInvoice(ctx, companyA, dto.CreateInvoiceRequest{
		ClientID: "c", ReceiptTypeID: rt.ID, State: "Draft",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceDraft, inv.State)

	_, err = e.invoices.TransitionInvoice(ctx, companyA, inv.ID, "Paid")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "Draft no puede pasar a Paid")

	active, err := e.invoices.TransitionInvoice(ctx, companyA, inv.ID, "Active")
	require.NoError(t, err)
	require.NotNil(t, active.Number)

	paid, err := e.invoices.TransitionInvoice(ctx, companyA, inv.ID, "Paid")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoicePaid, paid.State)

	_, err = e.invoices.TransitionInvoice(ctx, companyA, inv.ID, "Void")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "Paid es terminal")

	_, err = e.invoices.TransitionInvoice(ctx, companyA, inv.ID, "Archivada")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransitionInvoice_AnularNoLiberaNCF(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	e.newSeries(t, companyA, rt.ID, 1, 5)
	inv := e.pendingInvoice(t, companyA, rt.ID)
	active, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
	require.NoError(t, err)

	voided, err := e.invoices.TransitionInvoice(ctx, companyA, inv.ID, "Void")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceVoid, voided.State)

	ok, err := e.series.IsAvailable(ctx, companyA, rt.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "un NCF asignado nunca vuelve al pool")
	assert.Equal(t, *active.ReceiptID, *voided.ReceiptID)
}

func TestInvoices_AisladasPorEmpresa(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rtA := e.receiptType(t, companyA, "B")
	rtB := e.receiptType(t, companyB, "B")
	e.newSeries(t, companyA, rtA.ID, 1, 5)
	e.newSeries(t, companyB, rtB.ID, 1, 5)

	invA := e.pendingInvoice(t, companyA, rtA.ID)
	invB := e.pendingInvoice(t, companyB, rtB.ID)

	a, err := e.invoices.ActivateInvoice(ctx, companyA, invA.ID)
	require.NoError(t, err)
	b, err := e.invoices.ActivateInvoice(ctx, companyB, invB.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *a.Number)
	assert.Equal(t, int64(1), *b.Number, "cada empresa tiene su propia numeración")

	_, err = e.invoices.GetInvoice(ctx, companyB, invA.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.invoices.ActivateInvoice(ctx, companyB, invA.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
