// Package memory implementa los repositorios de secuencias en memoria.
//
// Las escrituras se aplican de inmediato y registran su inversa; Rollback las deshace
// en orden inverso. La serialización por clave usa un mutex por clave que se libera
// al terminar la transacción.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
)

var _ sequencing.TxRunner = (*Store)(nil)

// ErrLockOutsideTx se devuelve al pedir un lock sin transacción.
var ErrLockOutsideTx = errors.New("memory: lock fuera de una transacción")

type receiptKey struct {
	companyID     string
	receiptTypeID string
	number        int64
}

type typeKey struct {
	companyID     string
	receiptTypeID string
}

// Store almacén en memoria seguro para uso concurrente.
type Store struct {
	mu sync.RWMutex

	types    map[string]entity.ReceiptType
	series   map[string]entity.ReceiptSeries
	receipts map[string]entity.Receipt
	byNumber map[receiptKey]string
	invoices map[string]entity.Invoice
	quotes   map[string]entity.Quote

	// numbers números de comprobante por tipo, ascendentes. Los slices no se mutan:
	// cada escritura guarda uno nuevo para que el undo restaure el anterior.
	numbers map[typeKey][]int64
	// floor por debajo de este número no hay comprobantes disponibles del tipo.
	// No es transaccional: un rollback lo descarta entero.
	floor map[typeKey]int64

	locks *keyedMutex
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		types:    make(map[string]entity.ReceiptType),
		series:   make(map[string]entity.ReceiptSeries),
		receipts: make(map[string]entity.Receipt),
		byNumber: make(map[receiptKey]string),
		invoices: make(map[string]entity.Invoice),
		quotes:   make(map[string]entity.Quote),
		numbers:  make(map[typeKey][]int64),
		floor:    make(map[typeKey]int64),
		locks:    newKeyedMutex(),
	}
}

// tx registro de locks tomados y escrituras a deshacer.
type tx struct {
	s     *Store
	held  map[string]bool
	order []string
	undo  []func()
}

// Lock es reentrante dentro de la misma transacción.
func (t *tx) Lock(ctx context.Context, key string) error {
	if t == nil {
		return ErrLockOutsideTx
	}
	if t.held[key] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.locks.Lock(key)
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.s.locks.Unlock(t.order[i])
	}
	t.order = nil
	t.held = nil
}

func (t *tx) rollback() {
	t.s.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	if len(t.undo) > 0 {
		t.s.floor = make(map[typeKey]int64)
	}
	t.s.mu.Unlock()
	t.undo = nil
}

// put escribe m[k] = v y, dentro de una transacción, registra cómo deshacerlo.
// Debe llamarse con s.mu tomado.
func put[K comparable, V any](t *tx, m map[K]V, k K, v V) {
	prev, existed := m[k]
	m[k] = v
	if t == nil {
		return
	}
	t.undo = append(t.undo, func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// del borra m[k] registrando la inversa. Debe llamarse con s.mu tomado.
func del[K comparable, V any](t *tx, m map[K]V, k K) {
	prev, existed := m[k]
	if !existed {
		return
	}
	delete(m, k)
	if t == nil {
		return
	}
	t.undo = append(t.undo, func() { m[k] = prev })
}

// RunSequencing ejecuta fn con repos atados a una transacción en memoria.
func (s *Store) RunSequencing(ctx context.Context, fn func(r sequencing.Repos) error) (err error) {
	t := &tx{s: s, held: make(map[string]bool)}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			t.release()
			panic(p)
		}
		if err != nil {
			t.rollback()
		}
		t.release()
	}()
	if err = fn(s.repos(t)); err != nil {
		return err
	}
	return nil
}

func (s *Store) repos(t *tx) sequencing.Repos {
	return sequencing.Repos{
		Locker:       t,
		ReceiptTypes: &ReceiptTypeRepo{s: s, t: t},
		Series:       &SeriesRepo{s: s, t: t},
		Receipts:     &ReceiptRepo{s: s, t: t},
		Invoices:     &InvoiceRepo{s: s, t: t},
		Quotes:       &QuoteRepo{s: s, t: t},
	}
}

// ReceiptTypes repositorio fuera de transacción.
func (s *Store) ReceiptTypes() *ReceiptTypeRepo { return &ReceiptTypeRepo{s: s} }

// Series repositorio fuera de transacción.
func (s *Store) Series() *SeriesRepo { return &SeriesRepo{s: s} }

// Receipts repositorio fuera de transacción.
func (s *Store) Receipts() *ReceiptRepo { return &ReceiptRepo{s: s} }

// Invoices repositorio fuera de transacción.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }

// Quotes repositorio fuera de transacción.
func (s *Store) Quotes() *QuoteRepo { return &QuoteRepo{s: s} }

// keyedMutex un mutex por clave; las claves sin uso se liberan.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()
	l.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic(fmt.Sprintf("memory: unlock de clave no bloqueada %q", key))
	}
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
	l.Unlock()
}

// numberRange subslice de números del tipo en [from, to]. Debe llamarse con s.mu tomado.
func (s *Store) numberRange(tk typeKey, from, to int64) []int64 {
	nums := s.numbers[tk]
	lo := sort.Search(len(nums), func(i int) bool { return nums[i] >= from })
	hi := sort.Search(len(nums), func(i int) bool { return nums[i] > to })
	return nums[lo:hi]
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
