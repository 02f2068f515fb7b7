package sequencing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

// QuoteUseCase cotizaciones; el número se asigna al crear con QuoteCounter.
type QuoteUseCase struct {
	tx     TxRunner
	quotes repository.QuoteRepository
	now    Clock
}

// NewQuoteUseCase construye el caso de uso.
func NewQuoteUseCase(tx TxRunner, quotes repository.QuoteRepository) *QuoteUseCase {
	return &QuoteUseCase{tx: tx, quotes: quotes, now: time.Now}
}

// CreateQuote crea la cotización con el siguiente número de la empresa.
func (uc *QuoteUseCase) CreateQuote(ctx context.Context, companyID string, in dto.CreateQuoteRequest) (*entity.Quote, error) {
	if in.ClientID == "" {
		return nil, domain.NewValidationError("client_id", "requerido")
	}
	if in.Total.LessThan(decimal.Zero) {
		return nil, domain.NewValidationError("total", "no puede ser negativo")
	}
	now := uc.now()
	issuedOn := today(now)
	var err error
	if in.IssuedOn != "" {
		if issuedOn, err = parseDate("issued_on", in.IssuedOn); err != nil {
			return nil, err
		}
	}
	expiresOn := issuedOn.AddDate(0, 0, 30)
	if in.ExpiresOn != "" {
		if expiresOn, err = parseDate("expires_on", in.ExpiresOn); err != nil {
			return nil, err
		}
	}
	q := &entity.Quote{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		ClientID:  in.ClientID,
		Total:     in.Total,
		IssuedOn:  issuedOn,
		ExpiresOn: expiresOn,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = uc.tx.RunSequencing(ctx, func(r Repos) error {
		n, err := QuoteCounter.Next(ctx, r, companyID)
		if err != nil {
			return err
		}
		q.Number = n
		return r.Quotes.Create(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuote devuelve domain.ErrNotFound si no existe o es de otra empresa.
func (uc *QuoteUseCase) GetQuote(ctx context.Context, companyID, id string) (*entity.Quote, error) {
	q, err := uc.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil || q.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

// ListQuotes lista cotizaciones de la empresa.
func (uc *QuoteUseCase) ListQuotes(ctx context.Context, companyID string, limit, offset int) ([]*entity.Quote, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.quotes.ListByCompany(ctx, companyID, limit, offset)
}
