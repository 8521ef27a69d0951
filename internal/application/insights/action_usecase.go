package insights

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// RecordActionUseCase cierra el ciclo de una predicción: marca la fila viva
// como accionada con su feedback score y, si la acción mueve stock, aplica el
// cambio de cantidad y escribe el ledger en la misma transacción. Una pasada
// de scoring posterior creará una fila fresca en lugar de reabrir la cerrada.
type RecordActionUseCase struct {
	txRunner TxRunner
	itemRepo repository.ItemRepository
	predRepo repository.PredictionRepository
}

// NewRecordActionUseCase construye el caso de uso.
func NewRecordActionUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	predRepo repository.PredictionRepository,
) *RecordActionUseCase {
	return &RecordActionUseCase{
		txRunner: txRunner,
		itemRepo: itemRepo,
		predRepo: predRepo,
	}
}

// Record registra la acción humana sobre la predicción viva de (orgID, item, kind)
// y devuelve la cantidad actualizada del item.
//   - restocked: suma Quantity (reorden ejecutado) -> ledger tipo restock.
//   - discarded: resta Quantity (merma descartada) -> ledger tipo adjustment.
//   - dismissed: cierra la predicción sin mover stock.
//
// El caché de unicidad solo aplica a filas no accionadas; evitar re-feedback
// sobre una ya cerrada es responsabilidad del caller.
func (uc *RecordActionUseCase) Record(
	ctx context.Context,
	orgID, userID string,
	kind entity.PredictionKind,
	in dto.PredictionActionRequest,
) (*dto.PredictionActionResponse, error) {
	if !kind.Valid() || in.ItemID == "" || in.Action == "" {
		return nil, domain.ErrInvalidInput
	}

	item, err := uc.itemRepo.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.OrganizationID != orgID {
		return nil, domain.ErrForbidden
	}

	live, err := uc.predRepo.FindLive(ctx, orgID, item.ID, kind)
	if err != nil {
		return nil, err
	}

	newQty := item.Quantity
	changeType := ""
	switch in.Action {
	case entity.ActionRestocked:
		if in.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		newQty = item.Quantity + in.Quantity
		changeType = entity.ChangeTypeRestock
	case entity.ActionDiscarded:
		if in.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if in.Quantity > item.Quantity {
			return nil, domain.ErrInsufficientStock
		}
		newQty = item.Quantity - in.Quantity
		changeType = entity.ChangeTypeAdjustment
	case entity.ActionDismissed:
		// cierra la predicción sin cambio de stock
	default:
		return nil, domain.ErrInvalidInput
	}

	if live == nil && newQty == item.Quantity {
		// Sin predicción viva y sin movimiento de stock no hay nada que registrar.
		return nil, domain.ErrNotFound
	}

	score := entity.FeedbackScoreFor(in.Feedback)
	now := time.Now().UTC()

	err = uc.txRunner.Run(ctx, func(
		predRepo repository.PredictionRepository,
		itemRepo repository.ItemRepository,
		changeRepo repository.InventoryChangeRepository,
	) error {
		if live != nil {
			if err := predRepo.Close(ctx, live.ID, score); err != nil {
				return err
			}
		}
		if newQty != item.Quantity {
			if err := itemRepo.UpdateQuantity(ctx, item.ID, newQty); err != nil {
				return err
			}
			ch := &entity.InventoryChange{
				ID:             uuid.New().String(),
				ItemID:         item.ID,
				OrganizationID: orgID,
				QuantityBefore: item.Quantity,
				QuantityAfter:  newQty,
				Type:           changeType,
				Reason:         "acción sobre predicción " + string(kind) + ": " + in.Action,
				UserID:         userID,
				LocationID:     item.LocationID,
				CreatedAt:      now,
			}
			return changeRepo.Create(ctx, ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.PredictionActionResponse{ItemID: item.ID, Quantity: newQty}, nil
}
