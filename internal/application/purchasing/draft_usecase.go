package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

// DraftUseCase convierte una recomendación en un borrador concreto de orden de
// compra. Garantiza idempotencia dura contra borradores ya abiertos, resuelve
// la cantidad por cadena de prioridad (pedido explícito > predicción viva de
// reorden > umbral de reorden del item) y decide el estado inicial según la
// política aiRequireApproval de la organización.
type DraftUseCase struct {
	txRunner  TxRunner
	orderRepo repository.PurchaseOrderRepository
	itemRepo  repository.ItemRepository
	predRepo  repository.PredictionRepository
	orgRepo   repository.OrganizationRepository
	ranker    *insights.SupplierRanker
	log       *logger.Logger
}

// NewDraftUseCase construye el orquestador de borradores.
func NewDraftUseCase(
	txRunner TxRunner,
	orderRepo repository.PurchaseOrderRepository,
	itemRepo repository.ItemRepository,
	predRepo repository.PredictionRepository,
	orgRepo repository.OrganizationRepository,
	ranker *insights.SupplierRanker,
	log *logger.Logger,
) *DraftUseCase {
	return &DraftUseCase{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		predRepo:  predRepo,
		orgRepo:   orgRepo,
		ranker:    ranker,
		log:       log,
	}
}

// CreateOrGet devuelve el borrador abierto existente para el item
// (Existing=true) o crea uno nuevo con su única línea de forma atómica.
// Llamar dos veces seguidas con los mismos argumentos nunca crea una segunda
// orden.
func (uc *DraftUseCase) CreateOrGet(ctx context.Context, orgID, userID string, in dto.CreateDraftRequest) (*dto.CreateDraftResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OrganizationID != orgID {
		return nil, domain.ErrNotFound
	}

	if open, err := uc.orderRepo.FindOpenByItem(ctx, orgID, item.ID); err != nil {
		return nil, err
	} else if open != nil {
		d, err := uc.toDraftDTO(ctx, *open)
		if err != nil {
			return nil, err
		}
		return &dto.CreateDraftResponse{Draft: d, Existing: true}, nil
	}

	quantity, predictionID, err := uc.resolveQuantity(ctx, orgID, item, in.Quantity)
	if err != nil {
		return nil, err
	}

	options, err := uc.ranker.OrderingOptions(ctx, item, quantity, orgID)
	if err != nil {
		// Degradado a la opción de costo propio; nunca bloquea la creación.
		uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("ranking de proveedores degradado a fallback")
	}
	best := options[0]

	org, err := uc.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	status := entity.OrderStatusDraft
	if org.AI.RequireApproval {
		status = entity.OrderStatusPendingApproval
	}

	source := in.Source
	if source == "" {
		source = entity.OrderSourceAIInsights
	}

	now := time.Now().UTC()
	order := &entity.PurchaseOrder{
		ID:                 uuid.New().String(),
		OrganizationID:     orgID,
		LocationID:         item.LocationID,
		CreatedBy:          userID,
		Status:             status,
		Source:             source,
		TotalEstimatedCost: best.EstimatedCost,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	line := &entity.PurchaseOrderItem{
		ID:              uuid.New().String(),
		PurchaseOrderID: order.ID,
		ItemID:          item.ID,
		Quantity:        quantity,
		UnitCost:        item.UnitCost,
		EstimatedCost:   best.EstimatedCost,
		SupplierID:      best.SupplierID,
		SupplierName:    best.SupplierName,
		OrderingURL:     best.OrderingURL,
		PredictionID:    predictionID,
	}

	existing := false
	err = uc.txRunner.RunPurchasing(ctx, func(orderRepo repository.PurchaseOrderRepository) error {
		// Re-chequeo bajo la transacción: dos requests concurrentes para el
		// mismo item no deben producir órdenes duplicadas.
		open, err := orderRepo.FindOpenByItem(ctx, orgID, item.ID)
		if err != nil {
			return err
		}
		if open != nil {
			*order = *open
			existing = true
			return nil
		}
		if err := orderRepo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return orderRepo.CreateOrderItem(ctx, line)
	})
	if errors.Is(err, domain.ErrDuplicate) {
		// Perdimos la carrera contra otro request: devolver la orden ganadora.
		open, ferr := uc.orderRepo.FindOpenByItem(ctx, orgID, item.ID)
		if ferr != nil || open == nil {
			return nil, err
		}
		*order = *open
		existing = true
	} else if err != nil {
		return nil, err
	}

	d, err := uc.toDraftDTO(ctx, *order)
	if err != nil {
		return nil, err
	}
	return &dto.CreateDraftResponse{Draft: d, Existing: existing}, nil
}

// DraftsForItems lookup batch de borradores abiertos que referencian los items dados.
func (uc *DraftUseCase) DraftsForItems(ctx context.Context, orgID string, itemIDs []string) (*dto.DraftListResponse, error) {
	if len(itemIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	orders, err := uc.orderRepo.ListOpenByItems(ctx, orgID, itemIDs)
	if err != nil {
		return nil, err
	}
	drafts := make([]dto.DraftDTO, 0, len(orders))
	for _, o := range orders {
		d, err := uc.toDraftDTO(ctx, o)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return &dto.DraftListResponse{Drafts: drafts}, nil
}

// resolveQuantity aplica la cadena de prioridad y devuelve además el id de la
// predicción usada, si la cantidad salió de una predicción viva.
func (uc *DraftUseCase) resolveQuantity(ctx context.Context, orgID string, item *entity.Item, requested int) (int, *string, error) {
	if requested > 0 {
		return requested, nil, nil
	}
	live, err := uc.predRepo.FindLive(ctx, orgID, item.ID, entity.PredictionKindReorder)
	if err != nil {
		return 0, nil, err
	}
	if live != nil {
		value, err := entity.DecodePredictionValue(live.Kind, live.Value)
		if err == nil && value.Reorder != nil && value.Reorder.RecommendedQuantity > 0 {
			id := live.ID
			return value.Reorder.RecommendedQuantity, &id, nil
		}
	}
	if item.ReorderThreshold > 0 {
		return item.ReorderThreshold, nil, nil
	}
	return 0, nil, domain.ErrInvalidInput
}

func (uc *DraftUseCase) toDraftDTO(ctx context.Context, order entity.PurchaseOrder) (dto.DraftDTO, error) {
	lines, err := uc.orderRepo.ListItemsByOrders(ctx, []string{order.ID})
	if err != nil {
		return dto.DraftDTO{}, err
	}
	items := make([]dto.DraftItemDTO, 0, len(lines))
	for _, li := range lines {
		predID := ""
		if li.PredictionID != nil {
			predID = *li.PredictionID
		}
		items = append(items, dto.DraftItemDTO{
			ItemID:        li.ItemID,
			Quantity:      li.Quantity,
			UnitCost:      li.UnitCost,
			EstimatedCost: li.EstimatedCost,
			SupplierID:    li.SupplierID,
			SupplierName:  li.SupplierName,
			OrderingURL:   li.OrderingURL,
			PredictionID:  predID,
		})
	}
	total := order.TotalEstimatedCost
	if total.IsZero() && len(items) > 0 {
		total = decimal.Zero
		for _, it := range items {
			total = total.Add(it.EstimatedCost)
		}
	}
	return dto.DraftDTO{
		ID:                 order.ID,
		Status:             order.Status,
		Source:             order.Source,
		TotalEstimatedCost: total,
		CreatedAt:          order.CreatedAt,
		Items:              items,
	}, nil
}
