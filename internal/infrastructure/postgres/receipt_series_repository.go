package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

var _ repository.ReceiptSeriesRepository = (*ReceiptSeriesRepo)(nil)

// ReceiptSeriesRepo implementa ReceiptSeriesRepository sobre PostgreSQL (pool o tx).
type ReceiptSeriesRepo struct {
	q Querier
}

// NewReceiptSeriesRepository construye el repositorio.
func NewReceiptSeriesRepository(q Querier) *ReceiptSeriesRepo {
	return &ReceiptSeriesRepo{q: q}
}

const seriesColumns = `
	id, company_id, receipt_type_id, range_from, range_to, current,
	expires_on, voided, created_at, updated_at`

func (r *ReceiptSeriesRepo) Create(ctx context.Context, s *entity.ReceiptSeries) error {
	const q = `
		INSERT INTO receipt_series
			(id, company_id, receipt_type_id, range_from, range_to, current, expires_on, voided, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, q,
		s.ID, s.CompanyID, s.ReceiptTypeID, s.RangeFrom, s.RangeTo, s.Current,
		s.ExpiresOn, s.Voided, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receipt_series: %w", err)
	}
	return nil
}

func (r *ReceiptSeriesRepo) GetByID(ctx context.Context, id string) (*entity.ReceiptSeries, error) {
	return r.getOne(ctx, `SELECT `+seriesColumns+` FROM receipt_series WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *ReceiptSeriesRepo) GetForUpdate(ctx context.Context, id string) (*entity.ReceiptSeries, error) {
	return r.getOne(ctx, `SELECT `+seriesColumns+` FROM receipt_series WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReceiptSeriesRepo) getOne(ctx context.Context, q string, args ...any) (*entity.ReceiptSeries, error) {
	s, err := scanSeries(r.q.QueryRow(ctx, q, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt_series: %w", err)
	}
	return s, nil
}

func (r *ReceiptSeriesRepo) list(ctx context.Context, q string, args ...any) ([]*entity.ReceiptSeries, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipt_series: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.ReceiptSeries, 0)
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt_series: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *ReceiptSeriesRepo) ListByType(ctx context.Context, companyID, receiptTypeID string) ([]*entity.ReceiptSeries, error) {
	return r.list(ctx, `
		SELECT `+seriesColumns+` FROM receipt_series
		WHERE company_id = $1 AND receipt_type_id = $2
		ORDER BY range_from`, companyID, receiptTypeID)
}

func (r *ReceiptSeriesRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.ReceiptSeries, error) {
	return r.list(ctx, `
		SELECT `+seriesColumns+` FROM receipt_series
		WHERE company_id = $1
		ORDER BY receipt_type_id, range_from`, companyID)
}

func (r *ReceiptSeriesRepo) FindContaining(ctx context.Context, companyID, receiptTypeID string, number int64) (*entity.ReceiptSeries, error) {
	return r.getOne(ctx, `
		SELECT `+seriesColumns+` FROM receipt_series
		WHERE company_id = $1 AND receipt_type_id = $2
		  AND NOT voided
		  AND $3 BETWEEN range_from AND range_to
		ORDER BY range_from
		LIMIT 1`, companyID, receiptTypeID, number)
}

func (r *ReceiptSeriesRepo) CountByType(ctx context.Context, companyID, receiptTypeID string) (int64, error) {
	const q = `SELECT count(*) FROM receipt_series WHERE company_id = $1 AND receipt_type_id = $2`
	var n int64
	if err := r.q.QueryRow(ctx, q, companyID, receiptTypeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count receipt_series: %w", err)
	}
	return n, nil
}

func (r *ReceiptSeriesRepo) Update(ctx context.Context, s *entity.ReceiptSeries) error {
	const q = `
		UPDATE receipt_series
		SET receipt_type_id = $2, range_from = $3, range_to = $4, current = $5,
		    expires_on = $6, voided = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		s.ID, s.ReceiptTypeID, s.RangeFrom, s.RangeTo, s.Current,
		s.ExpiresOn, s.Voided, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update receipt_series: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSeries(row pgxScanner) (*entity.ReceiptSeries, error) {
	var s entity.ReceiptSeries
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.ReceiptTypeID,
		&s.RangeFrom, &s.RangeTo, &s.Current,
		&s.ExpiresOn, &s.Voided, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
