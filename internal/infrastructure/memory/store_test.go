package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/infrastructure/memory"
)

const companyID = "00000000-0000-0000-0000-000000000002"

func receipt(id, typeID string, n int64) *entity.Receipt {
	return &entity.Receipt{ID: id, CompanyID: companyID, ReceiptTypeID: typeID, Number: n}
}

func TestRunSequencing_RollbackDeshaceEscrituras(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.ReceiptTypes().Create(ctx, &entity.ReceiptType{ID: "rt-1", CompanyID: companyID, Code: "B"}))

	boom := errors.New("boom")
	err := s.RunSequencing(ctx, func(r sequencing.Repos) error {
		require.NoError(t, r.Receipts.CreateBatch(ctx, []*entity.Receipt{receipt("r-1", "rt-1", 1), receipt("r-2", "rt-1", 2)}))
		require.NoError(t, r.Receipts.Bind(ctx, "r-1", "cliente", "factura"))
		require.NoError(t, r.ReceiptTypes.Update(ctx, &entity.ReceiptType{ID: "rt-1", CompanyID: companyID, Code: "E"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rc, err := s.Receipts().GetByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Nil(t, rc, "el comprobante creado en la transacción fallida no debe existir")

	byNumber, err := s.Receipts().GetByTypeAndNumber(ctx, companyID, "rt-1", 2)
	require.NoError(t, err)
	assert.Nil(t, byNumber, "el índice por número también se revierte")

	rt, err := s.ReceiptTypes().GetByID(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "B", rt.Code)
}

func TestRunSequencing_CommitPersiste(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	err := s.RunSequencing(ctx, func(r sequencing.Repos) error {
		return r.Receipts.CreateBatch(ctx, []*entity.Receipt{receipt("r-1", "rt-1", 1)})
	})
	require.NoError(t, err)

	rc, err := s.Receipts().GetByID(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.True(t, rc.IsAvailable())
}

func TestLock_ReentranteYLiberadoAlTerminar(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	err := s.RunSequencing(ctx, func(r sequencing.Repos) error {
		require.NoError(t, r.Locker.Lock(ctx, "k"))
		return r.Locker.Lock(ctx, "k")
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = s.RunSequencing(ctx, func(r sequencing.Repos) error { return r.Locker.Lock(ctx, "k") })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("el lock no se liberó al terminar la transacción")
	}
}

func TestLock_SerializaMismaClave(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunSequencing(ctx, func(r sequencing.Repos) error {
				if err := r.Locker.Lock(ctx, "receipts:c:t"); err != nil {
					return err
				}
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestReceiptRepo_BindRechazaNoDisponible(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	repo := s.Receipts()
	require.NoError(t, repo.CreateBatch(ctx, []*entity.Receipt{receipt("r-1", "rt-1", 1)}))
	require.NoError(t, repo.Bind(ctx, "r-1", "c1", "f1"))

	err := repo.Bind(ctx, "r-1", "c2", "f2")
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = repo.CreateBatch(ctx, []*entity.Receipt{receipt("r-9", "rt-1", 1)})
	assert.ErrorIs(t, err, domain.ErrDuplicate, "el número ya existe para el tipo")
}

func TestReceiptRepo_NextAvailableMenorNumero(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	repo := s.Receipts()
	require.NoError(t, repo.CreateBatch(ctx, []*entity.Receipt{
		receipt("r-3", "rt-1", 3), receipt("r-1", "rt-1", 1), receipt("r-2", "rt-1", 2),
	}))
	require.NoError(t, repo.Bind(ctx, "r-1", "c", "f"))

	next, err := repo.NextAvailable(ctx, companyID, "rt-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, int64(2), next.Number)

	n, err := repo.VoidAvailableInRange(ctx, companyID, "rt-1", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	next, err = repo.NextAvailable(ctx, companyID, "rt-1")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRepos_LecturasDevuelvenCopias(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Receipts().CreateBatch(ctx, []*entity.Receipt{receipt("r-1", "rt-1", 1)}))

	rc, err := s.Receipts().GetByID(ctx, "r-1")
	require.NoError(t, err)
	rc.Voided = true

	again, err := s.Receipts().GetByID(ctx, "r-1")
	require.NoError(t, err)
	assert.False(t, again.Voided, "mutar el resultado no debe alterar el almacén")
}

func TestReceiptRepo_NextAvailableTrasRollbackVuelveAlMenor(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Receipts().CreateBatch(ctx, []*entity.Receipt{
		receipt("r-1", "rt-1", 1), receipt("r-2", "rt-1", 2),
	}))

	boom := errors.New("falla")
	err := s.RunSequencing(ctx, func(r sequencing.Repos) error {
		next, err := r.Receipts.NextAvailable(ctx, companyID, "rt-1")
		require.NoError(t, err)
		require.NoError(t, r.Receipts.Bind(ctx, next.ID, "c", "f"))
		next, err = r.Receipts.NextAvailable(ctx, companyID, "rt-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), next.Number)
		return boom
	})
	require.ErrorIs(t, err, boom)

	next, err := s.Receipts().NextAvailable(ctx, companyID, "rt-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, int64(1), next.Number, "el rollback libera el 1 otra vez")
}

func TestReceiptRepo_NextAvailableVeLoteMenorNuevo(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	repo := s.Receipts()
	require.NoError(t, repo.CreateBatch(ctx, []*entity.Receipt{receipt("r-10", "rt-1", 10)}))
	require.NoError(t, repo.Bind(ctx, "r-10", "c", "f"))

	next, err := repo.NextAvailable(ctx, companyID, "rt-1")
	require.NoError(t, err)
	assert.Nil(t, next)

	require.NoError(t, repo.CreateBatch(ctx, []*entity.Receipt{
		receipt("r-5", "rt-1", 5), receipt("r-20", "rt-1", 20), receipt("x-1", "rt-2", 1),
	}))
	next, err = repo.NextAvailable(ctx, companyID, "rt-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, int64(5), next.Number)
}

func TestReceiptRepo_DeleteRangeActualizaIndice(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	repo := s.Receipts()
	require.NoError(t, repo.CreateBatch(ctx, []*entity.Receipt{
		receipt("r-1", "rt-1", 1), receipt("r-2", "rt-1", 2), receipt("r-3", "rt-1", 3),
	}))

	err := s.RunSequencing(ctx, func(r sequencing.Repos) error {
		n, err := r.Receipts.DeleteRange(ctx, companyID, "rt-1", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		return errors.New("revertir")
	})
	require.Error(t, err)
	all, err := repo.ListRange(ctx, companyID, "rt-1", 1, 3)
	require.NoError(t, err)
	assert.Len(t, all, 3, "el rollback restaura el índice")

	n, err := repo.DeleteRange(ctx, companyID, "rt-1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err = repo.ListRange(ctx, companyID, "rt-1", 1, 3)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(3), all[0].Number)

	next, err := repo.NextAvailable(ctx, companyID, "rt-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, int64(3), next.Number)
}
