package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo implementación del pool de NCF sobre PostgreSQL (usable con pool o tx).
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

const receiptColumns = `
	id, company_id, receipt_type_id, number, full_number, issued_on, expires_on,
	voided, client_id, invoice_id, created_at, updated_at`

// availableCond comprobante no anulado ni ligado a cliente o factura.
const availableCond = `NOT voided AND invoice_id IS NULL AND client_id IS NULL`

var copyColumns = []string{
	"id", "company_id", "receipt_type_id", "number", "full_number",
	"issued_on", "expires_on", "voided", "created_at", "updated_at",
}

// CreateBatch inserta con COPY; una serie puede materializar cientos de miles de filas.
func (r *ReceiptRepo) CreateBatch(ctx context.Context, receipts []*entity.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	// COPY usa formato binario: las columnas UUID se envían como uuid.UUID.
	src := pgx.CopyFromSlice(len(receipts), func(i int) ([]any, error) {
		rc := receipts[i]
		ids := make([]uuid.UUID, 3)
		for j, raw := range []string{rc.ID, rc.CompanyID, rc.ReceiptTypeID} {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("uuid %q: %w", raw, err)
			}
			ids[j] = id
		}
		return []any{
			ids[0], ids[1], ids[2], rc.Number, rc.FullNumber,
			rc.IssuedOn, rc.ExpiresOn, rc.Voided, rc.CreatedAt, rc.UpdatedAt,
		}, nil
	})
	n, err := r.q.CopyFrom(ctx, pgx.Identifier{"receipts"}, copyColumns, src)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("copy receipts: %w", err)
	}
	if n != int64(len(receipts)) {
		return fmt.Errorf("copy receipts: %d de %d filas", n, len(receipts))
	}
	return nil
}

func (r *ReceiptRepo) getOne(ctx context.Context, q string, args ...any) (*entity.Receipt, error) {
	rc, err := scanReceipt(r.q.QueryRow(ctx, q, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return rc, nil
}

func (r *ReceiptRepo) list(ctx context.Context, q string, args ...any) ([]*entity.Receipt, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Receipt, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, rc)
	}
	return list, rows.Err()
}

func (r *ReceiptRepo) GetByID(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.getOne(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
}

func (r *ReceiptRepo) GetByTypeAndNumber(ctx context.Context, companyID, receiptTypeID string, number int64) (*entity.Receipt, error) {
	return r.getOne(ctx, `
		SELECT `+receiptColumns+` FROM receipts
		WHERE company_id = $1 AND receipt_type_id = $2 AND number = $3`,
		companyID, receiptTypeID, number)
}

// NextAvailable menor número disponible, bloqueado (SELECT FOR UPDATE).
func (r *ReceiptRepo) NextAvailable(ctx context.Context, companyID, receiptTypeID string) (*entity.Receipt, error) {
	return r.getOne(ctx, `
		SELECT `+receiptColumns+` FROM receipts
		WHERE company_id = $1 AND receipt_type_id = $2 AND `+availableCond+`
		ORDER BY number
		LIMIT 1
		FOR UPDATE`, companyID, receiptTypeID)
}

func (r *ReceiptRepo) ListAvailable(ctx context.Context, companyID, receiptTypeID string) ([]*entity.Receipt, error) {
	return r.list(ctx, `
		SELECT `+receiptColumns+` FROM receipts
		WHERE company_id = $1 AND receipt_type_id = $2 AND `+availableCond+`
		ORDER BY number`, companyID, receiptTypeID)
}

func (r *ReceiptRepo) ListRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) ([]*entity.Receipt, error) {
	return r.list(ctx, `
		SELECT `+receiptColumns+` FROM receipts
		WHERE company_id = $1 AND receipt_type_id = $2 AND number BETWEEN $3 AND $4
		ORDER BY number`, companyID, receiptTypeID, from, to)
}

// Bind escritura condicional: solo liga si el comprobante sigue disponible.
func (r *ReceiptRepo) Bind(ctx context.Context, receiptID, clientID, invoiceID string) error {
	const q = `
		UPDATE receipts
		SET client_id = $2, invoice_id = $3, updated_at = now()
		WHERE id = $1 AND ` + availableCond
	tag, err := r.q.Exec(ctx, q, receiptID, clientID, invoiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("bind receipt: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	existing, err := r.GetByID(ctx, receiptID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (r *ReceiptRepo) VoidAvailableInRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) (int64, error) {
	const q = `
		UPDATE receipts SET voided = true, updated_at = now()
		WHERE company_id = $1 AND receipt_type_id = $2 AND number BETWEEN $3 AND $4
		  AND ` + availableCond
	tag, err := r.q.Exec(ctx, q, companyID, receiptTypeID, from, to)
	if err != nil {
		return 0, fmt.Errorf("void receipts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReceiptRepo) CountAssignedInRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) (int64, error) {
	const q = `
		SELECT count(*) FROM receipts
		WHERE company_id = $1 AND receipt_type_id = $2 AND number BETWEEN $3 AND $4
		  AND invoice_id IS NOT NULL`
	var n int64
	if err := r.q.QueryRow(ctx, q, companyID, receiptTypeID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assigned receipts: %w", err)
	}
	return n, nil
}

func (r *ReceiptRepo) DeleteRange(ctx context.Context, companyID, receiptTypeID string, from, to int64) (int64, error) {
	const q = `
		DELETE FROM receipts
		WHERE company_id = $1 AND receipt_type_id = $2 AND number BETWEEN $3 AND $4
		  AND invoice_id IS NULL`
	tag, err := r.q.Exec(ctx, q, companyID, receiptTypeID, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete receipts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReceipt(row pgxScanner) (*entity.Receipt, error) {
	var rc entity.Receipt
	err := row.Scan(
		&rc.ID, &rc.CompanyID, &rc.ReceiptTypeID, &rc.Number, &rc.FullNumber,
		&rc.IssuedOn, &rc.ExpiresOn, &rc.Voided, &rc.ClientID, &rc.InvoiceID,
		&rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}
