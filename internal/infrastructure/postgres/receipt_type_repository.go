package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

var _ repository.ReceiptTypeRepository = (*ReceiptTypeRepo)(nil)

// ReceiptTypeRepo implementa ReceiptTypeRepository sobre PostgreSQL (pool o tx).
type ReceiptTypeRepo struct {
	q Querier
}

// NewReceiptTypeRepository construye el repositorio.
func NewReceiptTypeRepository(q Querier) *ReceiptTypeRepo {
	return &ReceiptTypeRepo{q: q}
}

const receiptTypeColumns = `id, company_id, code, description, created_at, updated_at`

func (r *ReceiptTypeRepo) Create(ctx context.Context, rt *entity.ReceiptType) error {
	const q = `
		INSERT INTO receipt_types (id, company_id, code, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, q, rt.ID, rt.CompanyID, rt.Code, rt.Description, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receipt_type: %w", err)
	}
	return nil
}

func (r *ReceiptTypeRepo) GetByID(ctx context.Context, id string) (*entity.ReceiptType, error) {
	q := `SELECT ` + receiptTypeColumns + ` FROM receipt_types WHERE id = $1`
	rt, err := scanReceiptType(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt_type: %w", err)
	}
	return rt, nil
}

func (r *ReceiptTypeRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.ReceiptType, error) {
	q := `SELECT ` + receiptTypeColumns + ` FROM receipt_types WHERE company_id = $1 AND code = $2`
	rt, err := scanReceiptType(r.q.QueryRow(ctx, q, companyID, code))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt_type by code: %w", err)
	}
	return rt, nil
}

func (r *ReceiptTypeRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.ReceiptType, error) {
	q := `SELECT ` + receiptTypeColumns + ` FROM receipt_types WHERE company_id = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list receipt_types: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.ReceiptType, 0)
	for rows.Next() {
		rt, err := scanReceiptType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt_type: %w", err)
		}
		list = append(list, rt)
	}
	return list, rows.Err()
}

func (r *ReceiptTypeRepo) Update(ctx context.Context, rt *entity.ReceiptType) error {
	const q = `UPDATE receipt_types SET code = $2, description = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, rt.ID, rt.Code, rt.Description, rt.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update receipt_type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReceiptType(row pgxScanner) (*entity.ReceiptType, error) {
	var rt entity.ReceiptType
	if err := row.Scan(&rt.ID, &rt.CompanyID, &rt.Code, &rt.Description, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	return &rt, nil
}
