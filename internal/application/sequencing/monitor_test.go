package sequencing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

func TestListAlerts_SegunUmbral(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	small := e.newSeries(t, companyA, rt.ID, 1, 5)
	e.newSeries(t, companyA, rt.ID, 100, 199)

	alerts, err := e.monitor.ListAlerts(ctx, companyA, entity.DefaultAlertThreshold)
	require.NoError(t, err)
	require.Len(t, alerts, 1, "solo la serie con 5 restantes alcanza el umbral por defecto")
	assert.Equal(t, small.ID, alerts[0].Series.ID)
	assert.Equal(t, "B", alerts[0].ReceiptTypeCode)
	assert.Equal(t, int64(5), alerts[0].Remaining)
	assert.True(t, alerts[0].IsNearExhaustion)
	assert.False(t, alerts[0].IsExhausted)

	alerts, err = e.monitor.ListAlerts(ctx, companyA, 4)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = e.monitor.ListAlerts(ctx, companyA, 100)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestListAlerts_SerieAgotada(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	s := e.newSeries(t, companyA, rt.ID, 1, 2)
	for i := 0; i < 2; i++ {
		inv := e.pendingInvoice(t, companyA, rt.ID)
		_, err := e.invoices.ActivateInvoice(ctx, companyA, inv.ID)
		require.NoError(t, err)
	}

	alerts, err := e.monitor.ListAlerts(ctx, companyA, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, s.ID, alerts[0].Series.ID)
	assert.True(t, alerts[0].IsExhausted)
	assert.False(t, alerts[0].IsNearExhaustion)
	assert.Equal(t, int64(0), alerts[0].Remaining)
}

func TestListAlerts_IgnoraAnuladasYOtrasEmpresas(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	s := e.newSeries(t, companyA, rt.ID, 1, 3)
	rtB := e.receiptType(t, companyB, "B")
	e.newSeries(t, companyB, rtB.ID, 1, 3)

	_, err := e.series.VoidSeries(ctx, companyA, s.ID)
	require.NoError(t, err)

	alerts, err := e.monitor.ListAlerts(ctx, companyA, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestListAlerts_UmbralNegativo(t *testing.T) {
	e := newEnv()
	_, err := e.monitor.ListAlerts(context.Background(), companyA, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListAlerts_CurrentEditadoManualmente(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	rt := e.receiptType(t, companyA, "B")
	s := e.newSeries(t, companyA, rt.ID, 1, 100)

	current := int64(97)
	_, err := e.series.UpdateSeries(ctx, companyA, s.ID, dto.UpdateSeriesRequest{Current: &current})
	require.NoError(t, err)

	alerts, err := e.monitor.ListAlerts(ctx, companyA, entity.DefaultAlertThreshold)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(3), alerts[0].Remaining)
}
