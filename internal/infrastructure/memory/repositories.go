package memory

import (
	"context"
	"math"
	"sort"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

var (
	_ repository.ReceiptTypeRepository   = (*ReceiptTypeRepo)(nil)
	_ repository.ReceiptSeriesRepository = (*SeriesRepo)(nil)
	_ repository.ReceiptRepository       = (*ReceiptRepo)(nil)
	_ repository.InvoiceRepository       = (*InvoiceRepo)(nil)
	_ repository.QuoteRepository         = (*QuoteRepo)(nil)
)

// ── receipt types ────────────────────────────────────────────────────────────

// ReceiptTypeRepo tipos de comprobante en memoria.
type ReceiptTypeRepo struct {
	s *Store
	t *tx
}

func (r *ReceiptTypeRepo) Create(_ context.Context, rt *entity.ReceiptType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.types {
		if existing.CompanyID == rt.CompanyID && existing.Code == rt.Code {
			return domain.ErrDuplicate
		}
	}
	put(r.t, r.s.types, rt.ID, *rt)
	return nil
}

func (r *ReceiptTypeRepo) GetByID(_ context.Context, id string) (*entity.ReceiptType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rt, ok := r.s.types[id]
	if !ok {
		return nil, nil
	}
	return &rt, nil
}

func (r *ReceiptTypeRepo) GetByCompanyAndCode(_ context.Context, companyID, code string) (*entity.ReceiptType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rt := range r.s.types {
		if rt.CompanyID == companyID && rt.Code == code {
			found := rt
			return &found, nil
		}
	}
	return nil, nil
}

func (r *ReceiptTypeRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.ReceiptType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.ReceiptType, 0)
	for _, rt := range r.s.types {
		if rt.CompanyID == companyID {
			v := rt
			list = append(list, &v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (r *ReceiptTypeRepo) Update(_ context.Context, rt *entity.ReceiptType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.types[rt.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.s.types {
		if existing.ID != rt.ID && existing.CompanyID == rt.CompanyID && existing.Code == rt.Code {
			return domain.ErrDuplicate
		}
	}
	put(r.t, r.s.types, rt.ID, *rt)
	return nil
}

// ── series ───────────────────────────────────────────────────────────────────

// SeriesRepo series de NCF en memoria.
type SeriesRepo struct {
	s *Store
	t *tx
}

func (r *SeriesRepo) Create(_ context.Context, s *entity.ReceiptSeries) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.series[s.ID]; ok {
		return domain.ErrDuplicate
	}
	put(r.t, r.s.series, s.ID, *s)
	return nil
}

func (r *SeriesRepo) GetByID(_ context.Context, id string) (*entity.ReceiptSeries, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	s, ok := r.s.series[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// GetForUpdate el lock lo aporta la clave (empresa, tipo) tomada por el llamador.
func (r *SeriesRepo) GetForUpdate(ctx context.Context, id string) (*entity.ReceiptSeries, error) {
	return r.GetByID(ctx, id)
}

func (r *SeriesRepo) filter(keep func(s *entity.ReceiptSeries) bool) []*entity.ReceiptSeries {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.ReceiptSeries, 0)
	for _, s := range r.s.series {
		v := s
		if keep(&v) {
			list = append(list, &v)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ReceiptTypeID != list[j].ReceiptTypeID {
			return list[i].ReceiptTypeID < list[j].ReceiptTypeID
		}
		return list[i].RangeFrom < list[j].RangeFrom
	})
	return list
}

func (r *SeriesRepo) ListByType(_ context.Context, companyID, receiptTypeID string) ([]*entity.ReceiptSeries, error) {
	return r.filter(func(s *entity.ReceiptSeries) bool {
		return s.CompanyID == companyID && s.ReceiptTypeID == receiptTypeID
	}), nil
}

func (r *SeriesRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.ReceiptSeries, error) {
	return r.filter(func(s *entity.ReceiptSeries) bool { return s.CompanyID == companyID }), nil
}

func (r *SeriesRepo) FindContaining(_ context.Context, companyID, receiptTypeID string, number int64) (*entity.ReceiptSeries, error) {
	list := r.filter(func(s *entity.ReceiptSeries) bool {
		return s.CompanyID == companyID && s.ReceiptTypeID == receiptTypeID && !s.Voided && s.Contains(number)
	})
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *SeriesRepo) CountByType(_ context.Context, companyID, receiptTypeID string) (int64, error) {
	list := r.filter(func(s *entity.ReceiptSeries) bool {
		return s.CompanyID == companyID && s.ReceiptTypeID == receiptTypeID
	})
	return int64(len(list)), nil
}

func (r *SeriesRepo) Update(_ context.Context, s *entity.ReceiptSeries) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.series[s.ID]; !ok {
		return domain.ErrNotFound
	}
	put(r.t, r.s.series, s.ID, *s)
	return nil
}

// ── receipts ─────────────────────────────────────────────────────────────────

// ReceiptRepo pool de NCF en memoria.
type ReceiptRepo struct {
	s *Store
	t *tx
}

func cloneReceipt(rc entity.Receipt) *entity.Receipt {
	rc.ClientID = cloneString(rc.ClientID)
	rc.InvoiceID = cloneString(rc.InvoiceID)
	return &rc
}

func keyOf(rc *entity.Receipt) receiptKey {
	return receiptKey{companyID: rc.CompanyID, receiptTypeID: rc.ReceiptTypeID, number: rc.Number}
}

func (r *ReceiptRepo) CreateBatch(_ context.Context, receipts []*entity.Receipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[receiptKey]bool, len(receipts))
	for _, rc := range receipts {
		k := keyOf(rc)
		if _, exists := r.s.byNumber[k]; exists || seen[k] {
			return domain.ErrDuplicate
		}
		seen[k] = true
	}
	added := make(map[typeKey][]int64)
	for _, rc := range receipts {
		put(r.t, r.s.receipts, rc.ID, *cloneReceipt(*rc))
		put(r.t, r.s.byNumber, keyOf(rc), rc.ID)
		tk := typeKey{companyID: rc.CompanyID, receiptTypeID: rc.ReceiptTypeID}
		added[tk] = append(added[tk], rc.Number)
	}
	for tk, nums := range added {
		merged := make([]int64, 0, len(r.s.numbers[tk])+len(nums))
		merged = append(merged, r.s.numbers[tk]...)
		merged = append(merged, nums...)
		sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
		put(r.t, r.s.numbers, tk, merged)
		delete(r.s.floor, tk)
	}
	return nil
}

func (r *ReceiptRepo) GetByID(_ context.Context, id string) (*entity.Receipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rc, ok := r.s.receipts[id]
	if !ok {
		return nil, nil
	}
	return cloneReceipt(rc), nil
}

func (r *ReceiptRepo) GetByTypeAndNumber(_ context.Context, companyID, receiptTypeID string, number int64) (*entity.Receipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byNumber[receiptKey{companyID: companyID, receiptTypeID: receiptTypeID, number: number}]
	if !ok {
		return nil, nil
	}
	return cloneReceipt(r.s.receipts[id]), nil
}

// at comprobante (tipo, número). Debe llamarse con s.mu tomado.
func (r *ReceiptRepo) at(tk typeKey, number int64) (entity.Receipt, string) {
	id := r.s.byNumber[receiptKey{companyID: tk.companyID, receiptTypeID: tk.receiptTypeID, number: number}]
	return r.s.receipts[id], id
}

// scan devuelve los comprobantes del tipo en [from, to] que cumplen keep, ascendente por número.
func (r *ReceiptRepo) scan(companyID, receiptTypeID string, from, to int64, keep func(rc *entity.Receipt) bool) []*entity.Receipt {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tk := typeKey{companyID: companyID, receiptTypeID: receiptTypeID}
	list := make([]*entity.Receipt, 0)
	for _, n := range r.s.numberRange(tk, from, to) {
		rc, _ := r.at(tk, n)
		c := cloneReceipt(rc)
		if keep(c) {
			list = append(list, c)
		}
	}
	return list
}

// NextAvailable recorre el índice del tipo desde floor; el primer disponible
// pasa a ser el nuevo floor.
func (r *ReceiptRepo) NextAvailable(_ context.Context, companyID, receiptTypeID string) (*entity.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tk := typeKey{companyID: companyID, receiptTypeID: receiptTypeID}
	for _, n := range r.s.numberRange(tk, r.s.floor[tk], math.MaxInt64) {
		rc, _ := r.at(tk, n)
		if rc.IsAvailable() {
			r.s.floor[tk] = n
			return cloneReceipt(rc), nil
		}
	}
	if nums := r.s.numbers[tk]; len(nums) > 0 {
		r.s.floor[tk] = nums[len(nums)-1] + 1
	}
	return nil, nil
}

func (r *ReceiptRepo) ListAvailable(_ context.Context, companyID, receiptTypeID string) ([]*entity.Receipt, error) {
	return r.scan(companyID, receiptTypeID, math.MinInt64, math.MaxInt64, (*entity.Receipt).IsAvailable), nil
}

func (r *ReceiptRepo) ListRange(_ context.Context, companyID, receiptTypeID string, from, to int64) ([]*entity.Receipt, error) {
	return r.scan(companyID, receiptTypeID, from, to, func(*entity.Receipt) bool { return true }), nil
}

func (r *ReceiptRepo) Bind(_ context.Context, receiptID, clientID, invoiceID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rc, ok := r.s.receipts[receiptID]
	if !ok {
		return domain.ErrNotFound
	}
	if !rc.IsAvailable() {
		return domain.ErrConflict
	}
	rc.ClientID = &clientID
	rc.InvoiceID = &invoiceID
	put(r.t, r.s.receipts, receiptID, rc)
	return nil
}

func (r *ReceiptRepo) VoidAvailableInRange(_ context.Context, companyID, receiptTypeID string, from, to int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tk := typeKey{companyID: companyID, receiptTypeID: receiptTypeID}
	var n int64
	for _, num := range r.s.numberRange(tk, from, to) {
		rc, id := r.at(tk, num)
		if !rc.IsAvailable() {
			continue
		}
		rc.Voided = true
		put(r.t, r.s.receipts, id, rc)
		n++
	}
	return n, nil
}

func (r *ReceiptRepo) CountAssignedInRange(_ context.Context, companyID, receiptTypeID string, from, to int64) (int64, error) {
	list := r.scan(companyID, receiptTypeID, from, to, (*entity.Receipt).IsAssigned)
	return int64(len(list)), nil
}

func (r *ReceiptRepo) DeleteRange(_ context.Context, companyID, receiptTypeID string, from, to int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tk := typeKey{companyID: companyID, receiptTypeID: receiptTypeID}
	gone := r.s.numberRange(tk, from, to)
	if len(gone) == 0 {
		return 0, nil
	}
	for _, num := range gone {
		_, id := r.at(tk, num)
		del(r.t, r.s.receipts, id)
		del(r.t, r.s.byNumber, receiptKey{companyID: companyID, receiptTypeID: receiptTypeID, number: num})
	}
	nums := r.s.numbers[tk]
	kept := make([]int64, 0, len(nums)-len(gone))
	for _, num := range nums {
		if num < from || num > to {
			kept = append(kept, num)
		}
	}
	put(r.t, r.s.numbers, tk, kept)
	return int64(len(gone)), nil
}

// ── invoices ─────────────────────────────────────────────────────────────────

// InvoiceRepo facturas en memoria.
type InvoiceRepo struct {
	s *Store
	t *tx
}

func cloneInvoice(inv entity.Invoice) *entity.Invoice {
	inv.Number = cloneInt(inv.Number)
	inv.ReceiptID = cloneString(inv.ReceiptID)
	return &inv
}

func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[inv.ID]; ok {
		return domain.ErrDuplicate
	}
	if err := r.checkNumber(inv); err != nil {
		return err
	}
	put(r.t, r.s.invoices, inv.ID, *cloneInvoice(*inv))
	return nil
}

// checkNumber emula el índice único (company_id, number). Debe llamarse con s.mu tomado.
func (r *InvoiceRepo) checkNumber(inv *entity.Invoice) error {
	if inv.Number == nil {
		return nil
	}
	for id, other := range r.s.invoices {
		if id != inv.ID && other.CompanyID == inv.CompanyID && other.Number != nil && *other.Number == *inv.Number {
			return domain.ErrDuplicate
		}
	}
	return nil
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	return cloneInvoice(inv), nil
}

// GetForUpdate el lock lo aporta la clave invoice:<id> tomada por el llamador.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *InvoiceRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error) {
	r.s.mu.RLock()
	list := make([]*entity.Invoice, 0)
	for _, inv := range r.s.invoices {
		if inv.CompanyID == companyID {
			list = append(list, cloneInvoice(inv))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), nil
}

func (r *InvoiceRepo) MaxNumber(_ context.Context, companyID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var maxNum int64
	for _, inv := range r.s.invoices {
		if inv.CompanyID == companyID && inv.Number != nil && *inv.Number > maxNum {
			maxNum = *inv.Number
		}
	}
	return maxNum, nil
}

func (r *InvoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	if err := r.checkNumber(inv); err != nil {
		return err
	}
	put(r.t, r.s.invoices, inv.ID, *cloneInvoice(*inv))
	return nil
}

// ── quotes ───────────────────────────────────────────────────────────────────

// QuoteRepo cotizaciones en memoria.
type QuoteRepo struct {
	s *Store
	t *tx
}

func (r *QuoteRepo) Create(_ context.Context, q *entity.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.quotes {
		if other.ID == q.ID || (other.CompanyID == q.CompanyID && other.Number == q.Number) {
			return domain.ErrDuplicate
		}
	}
	put(r.t, r.s.quotes, q.ID, *q)
	return nil
}

func (r *QuoteRepo) GetByID(_ context.Context, id string) (*entity.Quote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.quotes[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r *QuoteRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Quote, error) {
	r.s.mu.RLock()
	list := make([]*entity.Quote, 0)
	for _, q := range r.s.quotes {
		if q.CompanyID == companyID {
			v := q
			list = append(list, &v)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Number > list[j].Number })
	return page(list, limit, offset), nil
}

func (r *QuoteRepo) MaxNumber(_ context.Context, companyID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var maxNum int64
	for _, q := range r.s.quotes {
		if q.CompanyID == companyID && q.Number > maxNum {
			maxNum = q.Number
		}
	}
	return maxNum, nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return list[:0]
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
