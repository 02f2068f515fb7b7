package sequencing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
	"github.com/jhoicas/facturacion-ncf/pkg/logger"
)

// InvoiceUseCase ciclo de vida de la factura. La activación asigna número de factura
// y NCF en una sola transacción.
type InvoiceUseCase struct {
	tx       TxRunner
	invoices repository.InvoiceRepository
	types    repository.ReceiptTypeRepository
	log      *logger.Logger
	now      Clock
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(tx TxRunner, invoices repository.InvoiceRepository, types repository.ReceiptTypeRepository, log *logger.Logger) *InvoiceUseCase {
	return &InvoiceUseCase{tx: tx, invoices: invoices, types: types, log: log.Component("invoices"), now: time.Now}
}

// WithClock reemplaza la fuente de hora (tests).
func (uc *InvoiceUseCase) WithClock(c Clock) *InvoiceUseCase {
	uc.now = c
	return uc
}

// allocation resultado de una activación, para el log posterior al commit.
type allocation struct {
	number  int64
	receipt *entity.Receipt
}

// CreateInvoice crea la factura en Draft o Pending. Si in.State es Active la activa
// en la misma transacción.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, companyID string, in dto.CreateInvoiceRequest) (*entity.Invoice, error) {
	if in.ClientID == "" {
		return nil, domain.NewValidationError("client_id", "requerido")
	}
	if in.ReceiptTypeID == "" {
		return nil, domain.NewValidationError("receipt_type_id", "requerido")
	}
	if in.Total.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("total", "no puede ser negativo")
	}
	state := entity.InvoicePending
	if in.State != "" {
		st, ok := entity.ParseInvoiceState(in.State)
		if !ok || (st != entity.InvoiceDraft && st != entity.InvoicePending && st != entity.InvoiceActive) {
			return nil, domain.NewValidationError("state", "estado inicial inválido")
		}
		state = st
	}
	rt, err := uc.types.GetByID(ctx, in.ReceiptTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil || rt.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	now := uc.now()
	issuedOn := today(now)
	if in.IssuedOn != "" {
		if issuedOn, err = parseDate("issued_on", in.IssuedOn); err != nil {
			return nil, err
		}
	}
	dueOn := issuedOn
	if in.DueOn != "" {
		if dueOn, err = parseDate("due_on", in.DueOn); err != nil {
			return nil, err
		}
	}

	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		ReceiptTypeID: rt.ID,
		State:         state,
		ClientID:      in.ClientID,
		Total:         in.Total,
		IssuedOn:      issuedOn,
		DueOn:         dueOn,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if state == entity.InvoiceActive {
		inv.State = entity.InvoicePending
	}

	var alloc *allocation
	err = uc.tx.RunSequencing(ctx, func(r Repos) error {
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		if state != entity.InvoiceActive {
			return nil
		}
		if err := r.Locker.Lock(ctx, invoiceKey(inv.ID)); err != nil {
			return err
		}
		var aerr error
		alloc, aerr = uc.activate(ctx, r, inv, now)
		return aerr
	})
	if err != nil {
		uc.logActivationFailure(companyID, inv, err)
		return nil, err
	}
	uc.logAllocation(inv, alloc)
	return inv, nil
}

// ActivateInvoice mueve la factura a Active. Verifica que haya un NCF disponible antes
// de tomar el número de factura; si no hay, no se consume ningún número y la factura
// queda en su estado anterior. Reactivar una factura ya numerada no asigna nada.
func (uc *InvoiceUseCase) ActivateInvoice(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	var inv *entity.Invoice
	var alloc *allocation
	err := uc.tx.RunSequencing(ctx, func(r Repos) error {
		var err error
		inv, err = uc.lockInvoice(ctx, r, companyID, id)
		if err != nil {
			return err
		}
		alloc, err = uc.activate(ctx, r, inv, uc.now())
		return err
	})
	if err != nil {
		uc.logActivationFailure(companyID, inv, err)
		return nil, err
	}
	uc.logAllocation(inv, alloc)
	return inv, nil
}

func (uc *InvoiceUseCase) lockInvoice(ctx context.Context, r Repos, companyID, id string) (*entity.Invoice, error) {
	if err := r.Locker.Lock(ctx, invoiceKey(id)); err != nil {
		return nil, err
	}
	inv, err := r.Invoices.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// activate asigna NCF (si falta) y número de factura (si falta) y persiste la factura Active.
// Devuelve nil si no hubo asignación.
func (uc *InvoiceUseCase) activate(ctx context.Context, r Repos, inv *entity.Invoice, now time.Time) (*allocation, error) {
	if inv.State == entity.InvoiceActive && inv.IsAllocated() {
		return nil, nil
	}
	if inv.State != entity.InvoiceActive && !inv.State.CanTransitionTo(entity.InvoiceActive) {
		return nil, domain.NewValidationError("state",
			fmt.Sprintf("no se puede activar una factura en estado %s", inv.State))
	}

	var rc *entity.Receipt
	if inv.ReceiptID == nil {
		rt, err := loadReceiptType(ctx, r, inv.CompanyID, inv.ReceiptTypeID)
		if err != nil {
			return nil, err
		}
		if rc, err = claimNext(ctx, r, inv.CompanyID, rt); err != nil {
			return nil, err
		}
	}

	alloc := &allocation{receipt: rc}
	if inv.Number == nil {
		n, err := InvoiceCounter.Next(ctx, r, inv.CompanyID)
		if err != nil {
			return nil, err
		}
		inv.Number = &n
		alloc.number = n
	}
	if rc != nil {
		if err := bindReceipt(ctx, r, rc, inv.ClientID, inv.ID, now); err != nil {
			return nil, err
		}
		inv.ReceiptID = &rc.ID
	}
	inv.State = entity.InvoiceActive
	inv.UpdatedAt = now
	if err := r.Invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return alloc, nil
}

// TransitionInvoice aplica una transición de estado. Active delega en ActivateInvoice.
func (uc *InvoiceUseCase) TransitionInvoice(ctx context.Context, companyID, id, state string) (*entity.Invoice, error) {
	to, ok := entity.ParseInvoiceState(state)
	if !ok {
		return nil, domain.NewValidationError("state", "estado desconocido")
	}
	if to == entity.InvoiceActive {
		return uc.ActivateInvoice(ctx, companyID, id)
	}
	var inv *entity.Invoice
	err := uc.tx.RunSequencing(ctx, func(r Repos) error {
		var err error
		inv, err = uc.lockInvoice(ctx, r, companyID, id)
		if err != nil {
			return err
		}
		if inv.State == to {
			return nil
		}
		if !inv.State.CanTransitionTo(to) {
			return domain.NewValidationError("state",
				fmt.Sprintf("transición %s -> %s no permitida", inv.State, to))
		}
		inv.State = to
		inv.UpdatedAt = uc.now()
		return r.Invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetInvoice devuelve domain.ErrNotFound si no existe o es de otra empresa.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	inv, err := uc.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// ListInvoices lista facturas de la empresa.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.invoices.ListByCompany(ctx, companyID, limit, offset)
}

func (uc *InvoiceUseCase) logAllocation(inv *entity.Invoice, alloc *allocation) {
	if alloc == nil {
		return
	}
	ev := uc.log.ForCompany(inv.CompanyID).Info().
		Str("invoice_id", inv.ID).
		Int64("invoice_number", alloc.number)
	if alloc.receipt != nil {
		ev = ev.Str("ncf", alloc.receipt.FullNumber)
	}
	ev.Msg("factura activada")
}

func (uc *InvoiceUseCase) logActivationFailure(companyID string, inv *entity.Invoice, err error) {
	ev := uc.log.ForCompany(companyID).Warn().Err(err)
	if inv != nil {
		ev = ev.Str("invoice_id", inv.ID).Str("receipt_type_id", inv.ReceiptTypeID)
	}
	ev.Msg("activación de factura fallida")
}
