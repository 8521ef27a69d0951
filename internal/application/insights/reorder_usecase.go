package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/ports"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	domaininsights "github.com/tu-usuario/medstock-pro/internal/domain/insights"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

// ReorderInsightsUseCase agrega las predicciones de reorden de una
// organización: puntúa el set de items en paralelo acotado, filtra al
// subconjunto accionable (horizonte de 30 días), persiste vía el caché de
// predicciones, resuelve opciones de compra y devuelve la lista rankeada con
// su resumen. Un item que falla al puntuarse o persistirse se excluye del
// lote; nunca aborta el request completo.
type ReorderInsightsUseCase struct {
	itemRepo   repository.ItemRepository
	changeRepo repository.InventoryChangeRepository
	scope      *LocationScope
	cache      *PredictionCache
	ranker     *SupplierRanker
	scorer     ports.InventoryScorer
	log        *logger.Logger

	parallelism  int
	scoreTimeout time.Duration
}

// NewReorderInsightsUseCase construye el caso de uso.
func NewReorderInsightsUseCase(
	itemRepo repository.ItemRepository,
	changeRepo repository.InventoryChangeRepository,
	scope *LocationScope,
	cache *PredictionCache,
	ranker *SupplierRanker,
	scorer ports.InventoryScorer,
	log *logger.Logger,
	parallelism int,
	scoreTimeout time.Duration,
) *ReorderInsightsUseCase {
	if parallelism <= 0 {
		parallelism = 8
	}
	if scoreTimeout <= 0 {
		scoreTimeout = 5 * time.Second
	}
	return &ReorderInsightsUseCase{
		itemRepo:     itemRepo,
		changeRepo:   changeRepo,
		scope:        scope,
		cache:        cache,
		ranker:       ranker,
		scorer:       scorer,
		log:          log,
		parallelism:  parallelism,
		scoreTimeout: scoreTimeout,
	}
}

type reorderCandidate struct {
	item entity.Item
	res  *ports.ScoreResult
}

// Generate corre la pasada de reorden. locationID es opcional y solo se honra
// si el plan incluye multi_location; itemIDs opcional restringe el lote (POST
// de recomendaciones personalizadas). Solo el fallo al resolver organización o
// listar items es fatal.
func (uc *ReorderInsightsUseCase) Generate(ctx context.Context, orgID, locationID string, itemIDs []string) (*dto.ReorderInsightsResponse, error) {
	filter, err := uc.scope.ItemScope(ctx, orgID, locationID)
	if err != nil {
		return nil, err
	}
	filter.IDs = itemIDs

	// Items con quantity > 0: los agotados los cubre la alerta de stock-out,
	// no un ranking de "reordenar pronto".
	items, err := uc.itemRepo.ListInStock(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("listar items en stock: %w", err)
	}

	usage := uc.usageByItem(ctx, orgID, items)
	scored := uc.scoreBatch(ctx, items, usage)

	list := make([]dto.ReorderPredictionDTO, 0, len(scored))
	for _, c := range scored {
		pred, err := uc.cache.Upsert(ctx, orgID, c.item.ID, c.res)
		if err != nil {
			uc.log.Warn().Err(err).Str("item_id", c.item.ID).
				Msg("persistencia de predicción falló; item excluido del lote")
			continue
		}
		rv := c.res.Value.Reorder

		options, err := uc.ranker.OrderingOptions(ctx, &c.item, rv.RecommendedQuantity, orgID)
		if err != nil {
			// El ranker ya degradó a la opción de costo propio.
			uc.log.Warn().Err(err).Str("item_id", c.item.ID).Msg("ranking de proveedores degradado a fallback")
		}
		if len(options) > 3 {
			options = options[:3]
		}

		estimated := c.item.UnitCost.Mul(decimal.NewFromInt(int64(rv.RecommendedQuantity))).Round(2)
		list = append(list, dto.ReorderPredictionDTO{
			PredictionID:        pred.ID,
			ItemID:              c.item.ID,
			ItemName:            c.item.Name,
			SKU:                 c.item.SKU,
			Quantity:            c.item.Quantity,
			DaysUntilReorder:    *rv.DaysUntilReorder,
			RecommendedQuantity: rv.RecommendedQuantity,
			Priority:            rv.Priority,
			Confidence:          c.res.Confidence,
			Rationale:           c.res.Rationale,
			EstimatedOrderCost:  estimated,
			OrderingOptions:     options,
			ExpiresAt:           c.res.ExpiresAt,
		})
	}

	// Tier de prioridad descendente, desempate por días ascendente. Estable
	// sobre el orden determinista del listado de items.
	sort.SliceStable(list, func(i, j int) bool {
		wi, wj := list[i].Priority.Weight(), list[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return list[i].DaysUntilReorder < list[j].DaysUntilReorder
	})

	summary := dto.ReorderSummaryDTO{TotalActionable: len(list), TotalOrderValue: decimal.Zero}
	for _, p := range list {
		switch p.Priority {
		case entity.TierHigh:
			summary.ByPriority.High++
		case entity.TierMedium:
			summary.ByPriority.Medium++
		case entity.TierLow:
			summary.ByPriority.Low++
		}
		summary.TotalOrderValue = summary.TotalOrderValue.Add(p.EstimatedOrderCost)
	}
	summary.TotalOrderValue = summary.TotalOrderValue.Round(2)

	return &dto.ReorderInsightsResponse{Predictions: list, Summary: summary}, nil
}

// scoreBatch puntúa el lote con fan-out acotado. Cada item corre bajo su
// propio timeout: uno lento o fallido se descarta con un warn y no frena al
// resto. El slice de salida preserva el orden de entrada.
func (uc *ReorderInsightsUseCase) scoreBatch(ctx context.Context, items []entity.Item, usage map[string]int) []reorderCandidate {
	results := make([]*reorderCandidate, len(items))

	g := new(errgroup.Group)
	g.SetLimit(uc.parallelism)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, uc.scoreTimeout)
			defer cancel()

			in := ports.ScoringInput{
				Item:          it,
				AvgDailyUsage: domaininsights.AverageDailyUsage(usage[it.ID], domaininsights.UsageWindowDays),
			}
			res, err := uc.scorer.ScoreReorder(sctx, in)
			if err != nil {
				uc.log.Warn().Err(err).Str("item_id", it.ID).
					Msg("scoring de reorden falló; item excluido del lote")
				return nil
			}
			if res == nil || !domaininsights.ActionableReorder(res.Value.Reorder) {
				return nil
			}
			results[i] = &reorderCandidate{item: it, res: res}
			return nil
		})
	}
	_ = g.Wait() // los workers nunca devuelven error; Wait solo sincroniza

	out := make([]reorderCandidate, 0, len(items))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// usageByItem trae el consumo de la ventana trasera para alimentar al scorer.
// Es señal de contexto: si el ledger falla se sigue con consumo cero.
func (uc *ReorderInsightsUseCase) usageByItem(ctx context.Context, orgID string, items []entity.Item) map[string]int {
	if len(items) == 0 {
		return map[string]int{}
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	since := time.Now().UTC().AddDate(0, 0, -domaininsights.UsageWindowDays)
	usage, err := uc.changeRepo.UsageSince(ctx, orgID, ids, since)
	if err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo derivar consumo del ledger; se continúa sin historial")
		return map[string]int{}
	}
	return usage
}
