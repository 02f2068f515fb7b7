package sequencing

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-ncf/internal/domain"
)

// VoidSeries anula la serie y todos sus comprobantes aún disponibles; los ya ligados
// a una factura no se tocan. Devuelve cuántos comprobantes se anularon.
// Comparte el lock (empresa, tipo) con la asignación, así ningún comprobante se
// asigna y se anula a la vez.
func (uc *SeriesUseCase) VoidSeries(ctx context.Context, companyID, id string) (int64, error) {
	s, err := uc.GetSeries(ctx, companyID, id)
	if err != nil {
		return 0, err
	}
	if s.Voided {
		return 0, domain.ErrAlreadyVoided
	}

	var voided int64
	err = uc.tx.RunSequencing(ctx, func(r Repos) error {
		if err := lockReceiptType(ctx, r, companyID, s.ReceiptTypeID); err != nil {
			return err
		}
		locked, err := r.Series.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked == nil || locked.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if locked.ReceiptTypeID != s.ReceiptTypeID {
			// la serie cambió de tipo y el lock tomado ya no la cubre
			return domain.ErrConflict
		}
		if locked.Voided {
			return domain.ErrAlreadyVoided
		}
		locked.Voided = true
		locked.UpdatedAt = uc.now()
		if err := r.Series.Update(ctx, locked); err != nil {
			return err
		}
		n, err := r.Receipts.VoidAvailableInRange(ctx, companyID, locked.ReceiptTypeID, locked.RangeFrom, locked.RangeTo)
		if err != nil {
			return fmt.Errorf("anular comprobantes de la serie: %w", err)
		}
		voided = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.log.ForCompany(companyID).Info().
		Str("series_id", id).
		Int64("voided_count", voided).
		Msg("serie de comprobantes anulada")
	return voided, nil
}
