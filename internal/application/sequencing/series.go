package sequencing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/ncf"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
	"github.com/jhoicas/facturacion-ncf/pkg/logger"
)

// MaxSeriesSize tope de comprobantes materializados por serie.
const MaxSeriesSize int64 = 1_000_000

// SeriesUseCase administra series de NCF y el pool de comprobantes que materializan.
type SeriesUseCase struct {
	tx       TxRunner
	types    repository.ReceiptTypeRepository
	series   repository.ReceiptSeriesRepository
	receipts repository.ReceiptRepository
	log      *logger.Logger
	now      Clock
}

// NewSeriesUseCase construye el caso de uso.
func NewSeriesUseCase(
	tx TxRunner,
	types repository.ReceiptTypeRepository,
	series repository.ReceiptSeriesRepository,
	receipts repository.ReceiptRepository,
	log *logger.Logger,
) *SeriesUseCase {
	return &SeriesUseCase{tx: tx, types: types, series: series, receipts: receipts, log: log.Component("series"), now: time.Now}
}

// WithClock reemplaza la fuente de hora (tests).
func (uc *SeriesUseCase) WithClock(c Clock) *SeriesUseCase {
	uc.now = c
	return uc
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "fecha inválida, formato YYYY-MM-DD")
	}
	return t, nil
}

func validateRange(code string, from, to int64) error {
	if from <= 0 {
		return domain.NewValidationError("range_from", "requerido y mayor que cero")
	}
	if to <= 0 {
		return domain.NewValidationError("range_to", "requerido y mayor que cero")
	}
	if from >= to {
		return domain.NewValidationError("range_from", "debe ser menor que range_to")
	}
	if to > ncf.MaxNumber(code) {
		return domain.NewValidationError("range_to",
			fmt.Sprintf("excede el máximo %d para el código %s", ncf.MaxNumber(code), code))
	}
	if to-from+1 > MaxSeriesSize {
		return domain.NewValidationError("range_to", fmt.Sprintf("una serie admite hasta %d comprobantes", MaxSeriesSize))
	}
	return nil
}

// ensureNoOverlap rechaza rangos que intersectan otra serie del mismo tipo.
// Las series anuladas también cuentan: sus números ya existen y no se reutilizan.
func ensureNoOverlap(ctx context.Context, r Repos, companyID, receiptTypeID string, from, to int64, excludeID string) error {
	existing, err := r.Series.ListByType(ctx, companyID, receiptTypeID)
	if err != nil {
		return fmt.Errorf("listar series del tipo: %w", err)
	}
	for _, s := range existing {
		if s.ID == excludeID || !s.HasBounds() {
			continue
		}
		if s.Overlaps(from, to) {
			return &domain.RangeOverlapError{SeriesID: s.ID, From: s.RangeFrom, To: s.RangeTo}
		}
	}
	return nil
}

// materialize crea un Receipt por cada número del rango de la serie.
func materialize(ctx context.Context, r Repos, s *entity.ReceiptSeries, code string, now time.Time) error {
	receipts := make([]*entity.Receipt, 0, s.Size())
	issuedOn := today(now)
	for n := s.RangeFrom; n <= s.RangeTo; n++ {
		full, err := ncf.Format(code, n)
		if err != nil {
			return domain.NewValidationError("range_to", err.Error())
		}
		receipts = append(receipts, &entity.Receipt{
			ID:            uuid.New().String(),
			CompanyID:     s.CompanyID,
			ReceiptTypeID: s.ReceiptTypeID,
			Number:        n,
			FullNumber:    full,
			IssuedOn:      issuedOn,
			ExpiresOn:     s.ExpiresOn,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if err := r.Receipts.CreateBatch(ctx, receipts); err != nil {
		return fmt.Errorf("materializar comprobantes: %w", err)
	}
	return nil
}

func (uc *SeriesUseCase) receiptTypeFor(ctx context.Context, companyID, receiptTypeID string) (*entity.ReceiptType, error) {
	if receiptTypeID == "" {
		return nil, domain.NewValidationError("receipt_type_id", "requerido")
	}
	rt, err := uc.types.GetByID(ctx, receiptTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil || rt.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return rt, nil
}

// CreateSeries registra la serie y materializa hasta-desde+1 comprobantes en una sola transacción.
// El rango no puede intersectar ninguna otra serie del tipo, incluidas las anuladas:
// sus números siguen existiendo y no se reutilizan (domain.RangeOverlapError).
// Los NCF se arman con el código del tipo leído bajo el lock (empresa, tipo).
func (uc *SeriesUseCase) CreateSeries(ctx context.Context, companyID string, in dto.CreateSeriesRequest) (*entity.ReceiptSeries, error) {
	rt, err := uc.receiptTypeFor(ctx, companyID, in.ReceiptTypeID)
	if err != nil {
		return nil, err
	}
	if err := validateRange(rt.Code, in.RangeFrom, in.RangeTo); err != nil {
		return nil, err
	}
	if in.ExpiresOn == "" {
		return nil, domain.NewValidationError("expires_on", "requerido")
	}
	expiresOn, err := parseDate("expires_on", in.ExpiresOn)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	code := rt.Code
	series := &entity.ReceiptSeries{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		ReceiptTypeID: rt.ID,
		RangeFrom:     in.RangeFrom,
		RangeTo:       in.RangeTo,
		Current:       in.RangeFrom - 1,
		ExpiresOn:     expiresOn,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = uc.tx.RunSequencing(ctx, func(r Repos) error {
		if err := lockReceiptType(ctx, r, companyID, rt.ID); err != nil {
			return err
		}
		locked, err := loadReceiptType(ctx, r, companyID, rt.ID)
		if err != nil {
			return err
		}
		code = locked.Code
		if err := validateRange(code, series.RangeFrom, series.RangeTo); err != nil {
			return err
		}
		if err := ensureNoOverlap(ctx, r, companyID, rt.ID, series.RangeFrom, series.RangeTo, ""); err != nil {
			return err
		}
		if err := r.Series.Create(ctx, series); err != nil {
			return err
		}
		return materialize(ctx, r, series, code, now)
	})
	if err != nil {
		return nil, err
	}
	uc.log.ForCompany(companyID).Info().
		Str("series_id", series.ID).
		Str("receipt_type", code).
		Int64("range_from", series.RangeFrom).
		Int64("range_to", series.RangeTo).
		Msg("serie de comprobantes creada")
	return series, nil
}

// UpdateSeries aplica el patch. Con comprobantes asignados solo se admiten expires_on y current.
func (uc *SeriesUseCase) UpdateSeries(ctx context.Context, companyID, id string, in dto.UpdateSeriesRequest) (*entity.ReceiptSeries, error) {
	current, err := uc.GetSeries(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	typeID := current.ReceiptTypeID
	if in.ReceiptTypeID != nil {
		typeID = *in.ReceiptTypeID
	}
	if _, err := uc.receiptTypeFor(ctx, companyID, typeID); err != nil {
		return nil, err
	}
	var expiresOn *time.Time
	if in.ExpiresOn != nil {
		t, err := parseDate("expires_on", *in.ExpiresOn)
		if err != nil {
			return nil, err
		}
		expiresOn = &t
	}

	// Lock de ambos tipos en orden estable para no interbloquear con otra edición.
	keys := []string{current.ReceiptTypeID}
	if typeID != current.ReceiptTypeID {
		keys = append(keys, typeID)
		sort.Strings(keys)
	}

	now := uc.now()
	var updated *entity.ReceiptSeries
	err = uc.tx.RunSequencing(ctx, func(r Repos) error {
		for _, k := range keys {
			if err := lockReceiptType(ctx, r, companyID, k); err != nil {
				return err
			}
		}
		s, err := r.Series.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if s == nil || s.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if s.ReceiptTypeID != current.ReceiptTypeID {
			// otra edición cambió el tipo después de elegir los locks
			return domain.ErrConflict
		}
		if s.Voided {
			return domain.ErrAlreadyVoided
		}
		rt, err := loadReceiptType(ctx, r, companyID, typeID)
		if err != nil {
			return err
		}

		from, to := s.RangeFrom, s.RangeTo
		if in.RangeFrom != nil {
			from = *in.RangeFrom
		}
		if in.RangeTo != nil {
			to = *in.RangeTo
		}
		structural := from != s.RangeFrom || to != s.RangeTo || typeID != s.ReceiptTypeID

		if structural {
			assigned, err := r.Receipts.CountAssignedInRange(ctx, companyID, s.ReceiptTypeID, s.RangeFrom, s.RangeTo)
			if err != nil {
				return fmt.Errorf("contar comprobantes asignados: %w", err)
			}
			if assigned > 0 {
				return domain.ErrImmutableSeries
			}
			if err := validateRange(rt.Code, from, to); err != nil {
				return err
			}
			if err := ensureNoOverlap(ctx, r, companyID, typeID, from, to, s.ID); err != nil {
				return err
			}
			if _, err := r.Receipts.DeleteRange(ctx, companyID, s.ReceiptTypeID, s.RangeFrom, s.RangeTo); err != nil {
				return fmt.Errorf("borrar comprobantes de la serie: %w", err)
			}
			s.ReceiptTypeID, s.RangeFrom, s.RangeTo = typeID, from, to
			s.Current = from - 1
		}
		if expiresOn != nil {
			s.ExpiresOn = *expiresOn
		}
		if in.Current != nil {
			if *in.Current < s.RangeFrom-1 || *in.Current > s.RangeTo {
				return domain.NewValidationError("current",
					fmt.Sprintf("debe estar entre %d y %d", s.RangeFrom-1, s.RangeTo))
			}
			s.Current = *in.Current
		}
		s.UpdatedAt = now
		if err := r.Series.Update(ctx, s); err != nil {
			return err
		}
		if structural {
			if err := materialize(ctx, r, s, rt.Code, now); err != nil {
				return err
			}
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetSeries devuelve domain.ErrNotFound si la serie no existe o es de otra empresa.
func (uc *SeriesUseCase) GetSeries(ctx context.Context, companyID, id string) (*entity.ReceiptSeries, error) {
	s, err := uc.series.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || s.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// ListSeries lista las series de la empresa.
func (uc *SeriesUseCase) ListSeries(ctx context.Context, companyID string) ([]*entity.ReceiptSeries, error) {
	return uc.series.ListByCompany(ctx, companyID)
}

// ListSeriesReceipts comprobantes del rango de la serie, ascendente.
func (uc *SeriesUseCase) ListSeriesReceipts(ctx context.Context, companyID, id string) ([]*entity.Receipt, error) {
	s, err := uc.GetSeries(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return uc.receipts.ListRange(ctx, companyID, s.ReceiptTypeID, s.RangeFrom, s.RangeTo)
}

// IsAvailable indica si el NCF (tipo, número) existe, no está anulado y no está ligado.
func (uc *SeriesUseCase) IsAvailable(ctx context.Context, companyID, receiptTypeID string, number int64) (bool, error) {
	rc, err := uc.receipts.GetByTypeAndNumber(ctx, companyID, receiptTypeID, number)
	if err != nil {
		return false, err
	}
	return rc != nil && rc.IsAvailable(), nil
}

// ListAvailableReceipts comprobantes disponibles del tipo, ascendente por número.
func (uc *SeriesUseCase) ListAvailableReceipts(ctx context.Context, companyID, receiptTypeID string) ([]*entity.Receipt, error) {
	if _, err := uc.receiptTypeFor(ctx, companyID, receiptTypeID); err != nil {
		return nil, err
	}
	return uc.receipts.ListAvailable(ctx, companyID, receiptTypeID)
}
