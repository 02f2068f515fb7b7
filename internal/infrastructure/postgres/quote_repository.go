package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

var _ repository.QuoteRepository = (*QuoteRepo)(nil)

// QuoteRepo cotizaciones sobre PostgreSQL (pool o tx).
type QuoteRepo struct {
	q Querier
}

// NewQuoteRepository construye el repositorio.
func NewQuoteRepository(q Querier) *QuoteRepo {
	return &QuoteRepo{q: q}
}

const quoteColumns = `id, company_id, number, client_id, total, issued_on, expires_on, voided, created_at, updated_at`

func (r *QuoteRepo) Create(ctx context.Context, qt *entity.Quote) error {
	const q = `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, q,
		qt.ID, qt.CompanyID, qt.Number, qt.ClientID, qt.Total,
		qt.IssuedOn, qt.ExpiresOn, qt.Voided, qt.CreatedAt, qt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

func (r *QuoteRepo) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	qt, err := scanQuote(r.q.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return qt, nil
}

func (r *QuoteRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Quote, error) {
	q := `
		SELECT ` + quoteColumns + ` FROM quotes
		WHERE company_id = $1
		ORDER BY number DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, q, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Quote, 0)
	for rows.Next() {
		qt, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		list = append(list, qt)
	}
	return list, rows.Err()
}

func (r *QuoteRepo) MaxNumber(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(number), 0) FROM quotes WHERE company_id = $1`, companyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max quote number: %w", err)
	}
	return n, nil
}

func scanQuote(row pgxScanner) (*entity.Quote, error) {
	var qt entity.Quote
	err := row.Scan(
		&qt.ID, &qt.CompanyID, &qt.Number, &qt.ClientID, &qt.Total,
		&qt.IssuedOn, &qt.ExpiresOn, &qt.Voided, &qt.CreatedAt, &qt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &qt, nil
}
