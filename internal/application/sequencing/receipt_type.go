package sequencing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-ncf/internal/application/dto"
	"github.com/jhoicas/facturacion-ncf/internal/domain"
	"github.com/jhoicas/facturacion-ncf/internal/domain/entity"
	"github.com/jhoicas/facturacion-ncf/internal/domain/ncf"
	"github.com/jhoicas/facturacion-ncf/internal/domain/repository"
)

// ReceiptTypeUseCase casos de uso para tipos de comprobante.
type ReceiptTypeUseCase struct {
	tx    TxRunner
	types repository.ReceiptTypeRepository
	now   Clock
}

// NewReceiptTypeUseCase construye el caso de uso.
func NewReceiptTypeUseCase(tx TxRunner, types repository.ReceiptTypeRepository) *ReceiptTypeUseCase {
	return &ReceiptTypeUseCase{tx: tx, types: types, now: time.Now}
}

func normalizedCode(code string) (string, error) {
	c := ncf.NormalizeCode(code)
	if err := ncf.ValidateCode(c); err != nil {
		return "", domain.NewValidationError("code", err.Error())
	}
	return c, nil
}

// Create registra un tipo de comprobante; el código es único por empresa.
func (uc *ReceiptTypeUseCase) Create(ctx context.Context, companyID string, in dto.CreateReceiptTypeRequest) (*entity.ReceiptType, error) {
	code, err := normalizedCode(in.Code)
	if err != nil {
		return nil, err
	}
	existing, err := uc.types.GetByCompanyAndCode(ctx, companyID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := uc.now()
	rt := &entity.ReceiptType{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Code:        code,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.types.Create(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// Get devuelve domain.ErrNotFound si no existe o es de otra empresa.
func (uc *ReceiptTypeUseCase) Get(ctx context.Context, companyID, id string) (*entity.ReceiptType, error) {
	rt, err := uc.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rt == nil || rt.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return rt, nil
}

// List tipos de comprobante de la empresa.
func (uc *ReceiptTypeUseCase) List(ctx context.Context, companyID string) ([]*entity.ReceiptType, error) {
	return uc.types.ListByCompany(ctx, companyID)
}

// Update cambia la descripción; el código solo mientras ninguna serie lo use.
// Corre bajo el lock (empresa, tipo), el mismo que toma la creación de series,
// así el conteo de series y el cambio de código no se cruzan con una serie nueva.
func (uc *ReceiptTypeUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateReceiptTypeRequest) (*entity.ReceiptType, error) {
	var code string
	if in.Code != "" {
		c, err := normalizedCode(in.Code)
		if err != nil {
			return nil, err
		}
		code = c
	}
	if _, err := uc.Get(ctx, companyID, id); err != nil {
		return nil, err
	}

	var updated *entity.ReceiptType
	err := uc.tx.RunSequencing(ctx, func(r Repos) error {
		if err := lockReceiptType(ctx, r, companyID, id); err != nil {
			return err
		}
		rt, err := loadReceiptType(ctx, r, companyID, id)
		if err != nil {
			return err
		}
		if code != "" && code != rt.Code {
			n, err := r.Series.CountByType(ctx, companyID, rt.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.ErrReceiptTypeInUse
			}
			other, err := r.ReceiptTypes.GetByCompanyAndCode(ctx, companyID, code)
			if err != nil {
				return err
			}
			if other != nil {
				return domain.ErrDuplicate
			}
			rt.Code = code
		}
		if in.Description != "" {
			rt.Description = in.Description
		}
		rt.UpdatedAt = uc.now()
		if err := r.ReceiptTypes.Update(ctx, rt); err != nil {
			return err
		}
		updated = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
