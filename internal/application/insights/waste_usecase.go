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

// WasteInsightsUseCase espejo del agregador de reorden para riesgo de merma:
// candidatos con stock que vencen dentro de los próximos 60 días (no vencidos),
// ranking por tier de riesgo descendente con desempate por días a vencer
// ascendente, y resumen que además suma el valor estimado de merma. El consumo
// promedio diario se adjunta como contexto, sin afectar el ranking.
type WasteInsightsUseCase struct {
	itemRepo   repository.ItemRepository
	changeRepo repository.InventoryChangeRepository
	scope      *LocationScope
	cache      *PredictionCache
	scorer     ports.InventoryScorer
	log        *logger.Logger

	parallelism  int
	scoreTimeout time.Duration
}

// NewWasteInsightsUseCase construye el caso de uso.
func NewWasteInsightsUseCase(
	itemRepo repository.ItemRepository,
	changeRepo repository.InventoryChangeRepository,
	scope *LocationScope,
	cache *PredictionCache,
	scorer ports.InventoryScorer,
	log *logger.Logger,
	parallelism int,
	scoreTimeout time.Duration,
) *WasteInsightsUseCase {
	if parallelism <= 0 {
		parallelism = 8
	}
	if scoreTimeout <= 0 {
		scoreTimeout = 5 * time.Second
	}
	return &WasteInsightsUseCase{
		itemRepo:     itemRepo,
		changeRepo:   changeRepo,
		scope:        scope,
		cache:        cache,
		scorer:       scorer,
		log:          log,
		parallelism:  parallelism,
		scoreTimeout: scoreTimeout,
	}
}

type wasteCandidate struct {
	item  entity.Item
	res   *ports.ScoreResult
	usage decimal.Decimal
}

// Generate corre la pasada de riesgo de merma. Mismas reglas de alcance y
// tolerancia a fallos por item que el agregador de reorden.
func (uc *WasteInsightsUseCase) Generate(ctx context.Context, orgID, locationID string, itemIDs []string) (*dto.WasteInsightsResponse, error) {
	filter, err := uc.scope.ItemScope(ctx, orgID, locationID)
	if err != nil {
		return nil, err
	}
	filter.IDs = itemIDs

	items, err := uc.itemRepo.ListExpiringWithin(ctx, orgID, domaininsights.WasteHorizonDays, filter)
	if err != nil {
		return nil, fmt.Errorf("listar items por vencer: %w", err)
	}

	usage := uc.usageByItem(ctx, orgID, items)
	scored := uc.scoreBatch(ctx, items, usage)

	list := make([]dto.WastePredictionDTO, 0, len(scored))
	for _, c := range scored {
		pred, err := uc.cache.Upsert(ctx, orgID, c.item.ID, c.res)
		if err != nil {
			uc.log.Warn().Err(err).Str("item_id", c.item.ID).
				Msg("persistencia de predicción falló; item excluido del lote")
			continue
		}
		wv := c.res.Value.WasteRisk
		list = append(list, dto.WastePredictionDTO{
			PredictionID:        pred.ID,
			ItemID:              c.item.ID,
			ItemName:            c.item.Name,
			SKU:                 c.item.SKU,
			Quantity:            c.item.Quantity,
			RiskLevel:           wv.RiskLevel,
			DaysUntilExpiration: wv.DaysUntilExpiration,
			EstimatedWasteValue: wv.EstimatedWasteValue,
			AvgDailyUsage:       c.usage,
			Confidence:          c.res.Confidence,
			Rationale:           c.res.Rationale,
			ExpiresAt:           c.res.ExpiresAt,
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		wi, wj := list[i].RiskLevel.Weight(), list[j].RiskLevel.Weight()
		if wi != wj {
			return wi > wj
		}
		return list[i].DaysUntilExpiration < list[j].DaysUntilExpiration
	})

	summary := dto.WasteSummaryDTO{TotalAtRisk: len(list), TotalWasteValue: decimal.Zero}
	for _, p := range list {
		switch p.RiskLevel {
		case entity.TierHigh:
			summary.ByRisk.High++
		case entity.TierMedium:
			summary.ByRisk.Medium++
		case entity.TierLow:
			summary.ByRisk.Low++
		}
		summary.TotalWasteValue = summary.TotalWasteValue.Add(p.EstimatedWasteValue)
	}
	summary.TotalWasteValue = summary.TotalWasteValue.Round(2)

	return &dto.WasteInsightsResponse{Predictions: list, Summary: summary}, nil
}

func (uc *WasteInsightsUseCase) scoreBatch(ctx context.Context, items []entity.Item, usage map[string]int) []wasteCandidate {
	results := make([]*wasteCandidate, len(items))

	g := new(errgroup.Group)
	g.SetLimit(uc.parallelism)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, uc.scoreTimeout)
			defer cancel()

			avg := domaininsights.AverageDailyUsage(usage[it.ID], domaininsights.UsageWindowDays)
			res, err := uc.scorer.ScoreWasteRisk(sctx, ports.ScoringInput{Item: it, AvgDailyUsage: avg})
			if err != nil {
				uc.log.Warn().Err(err).Str("item_id", it.ID).
					Msg("scoring de merma falló; item excluido del lote")
				return nil
			}
			if res == nil || res.Value.WasteRisk == nil {
				return nil
			}
			results[i] = &wasteCandidate{item: it, res: res, usage: avg}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]wasteCandidate, 0, len(items))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (uc *WasteInsightsUseCase) usageByItem(ctx context.Context, orgID string, items []entity.Item) map[string]int {
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
