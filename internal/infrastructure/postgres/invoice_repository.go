package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, company_id, number, receipt_type_id, receipt_id, state, client_id,
	total, issued_on, due_on, created_at, updated_at`

// Create persiste la factura. El número nulo no choca con el índice único.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	const q = `
		INSERT INTO invoices
			(id, company_id, number, receipt_type_id, receipt_id, state, client_id,
			 total, issued_on, due_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, q,
		inv.ID, inv.CompanyID, inv.Number, inv.ReceiptTypeID, inv.ReceiptID, string(inv.State), inv.ClientID,
		inv.Total, inv.IssuedOn, inv.DueOn, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) getOne(ctx context.Context, q, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByID obtiene una factura por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate obtiene la factura y bloquea la fila (SELECT FOR UPDATE).
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

// ListByCompany facturas de la empresa, más recientes primero.
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error) {
	q := `
		SELECT ` + invoiceColumns + ` FROM invoices
		WHERE company_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, q, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func (r *InvoiceRepo) MaxNumber(ctx context.Context, companyID string) (int64, error) {
	const q = `SELECT COALESCE(MAX(number), 0) FROM invoices WHERE company_id = $1`
	var n int64
	if err := r.q.QueryRow(ctx, q, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("max invoice number: %w", err)
	}
	return n, nil
}

// Update persiste número, NCF y estado.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	const q = `
		UPDATE invoices
		SET number = $2, receipt_id = $3, state = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, inv.ID, inv.Number, inv.ReceiptID, string(inv.State), inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanInvoice(row pgxScanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var state string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Number, &inv.ReceiptTypeID, &inv.ReceiptID, &state, &inv.ClientID,
		&inv.Total, &inv.IssuedOn, &inv.DueOn, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.State = entity.InvoiceState(state)
	return &inv, nil
}
