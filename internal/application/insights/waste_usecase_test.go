package insights_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	"github.com/tu-usuario/medstock-pro/internal/application/ports"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

func wasteResult(risk entity.PriorityTier, daysLeft int, wasteValue float64) *ports.ScoreResult {
	return &ports.ScoreResult{
		Value: entity.PredictionValue{
			Kind: entity.PredictionKindWasteRisk,
			WasteRisk: &entity.WasteRiskValue{
				RiskLevel:           risk,
				DaysUntilExpiration: daysLeft,
				EstimatedWasteValue: decimal.NewFromFloat(wasteValue),
			},
		},
		Confidence: 0.8,
		Rationale:  "merma de prueba",
		ExpiresAt:  time.Now().Add(time.Duration(daysLeft) * 24 * time.Hour),
	}
}

func expiringItem(id, name string, qty int, cost float64, inDays int) entity.Item {
	it := item(id, name, qty, cost)
	exp := time.Now().Add(time.Duration(inDays) * 24 * time.Hour)
	it.ExpirationDate = &exp
	return it
}

func buildWasteUC(
	itemRepo *fakeItemRepo,
	predRepo *fakePredictionRepo,
	changeRepo *fakeChangeRepo,
	orgRepo *fakeOrgRepo,
	scorer *fakeScorer,
) *insights.WasteInsightsUseCase {
	return insights.NewWasteInsightsUseCase(
		itemRepo, changeRepo,
		insights.NewLocationScope(orgRepo),
		insights.NewPredictionCache(predRepo),
		scorer, logger.Nop(), 4, time.Second,
	)
}

func TestWaste_RankeaPorRiesgoYVencimiento(t *testing.T) {
	items := []entity.Item{
		expiringItem("a", "Lidocaína", 30, 2, 20),
		expiringItem("b", "Epinefrina", 10, 5, 4),
		expiringItem("c", "Insulina", 15, 8, 10),
	}
	scorer := &fakeScorer{waste: map[string]*ports.ScoreResult{
		"a": wasteResult(entity.TierMedium, 20, 40),
		"b": wasteResult(entity.TierHigh, 4, 35),
		"c": wasteResult(entity.TierHigh, 10, 80),
	}}
	uc := buildWasteUC(newFakeItemRepo(items...), newFakePredictionRepo(), newFakeChangeRepo(nil), multiLocationOrg(), scorer)

	res, err := uc.Generate(context.Background(), testOrg, "", nil)
	require.NoError(t, err)
	require.Len(t, res.Predictions, 3)

	got := make([]string, 3)
	for i, p := range res.Predictions {
		got[i] = p.ItemID
	}
	// high antes que medium; dentro de high, el que vence antes primero.
	assert.Equal(t, []string{"b", "c", "a"}, got)

	assert.Equal(t, 3, res.Summary.TotalAtRisk)
	assert.Equal(t, 2, res.Summary.ByRisk.High)
	assert.Equal(t, 1, res.Summary.ByRisk.Medium)
	assert.True(t, decimal.NewFromInt(155).Equal(res.Summary.TotalWasteValue),
		"total esperado 155.00, got %s", res.Summary.TotalWasteValue)
}

func TestWaste_SoloItemsDentroDelHorizonte(t *testing.T) {
	items := []entity.Item{
		expiringItem("cerca", "Lidocaína", 30, 2, 30),
		expiringItem("lejos", "Suero", 30, 2, 90), // fuera de los 60 días
		item("sinfecha", "Gasas", 30, 2),          // sin fecha de vencimiento
	}
	scorer := &fakeScorer{waste: map[string]*ports.ScoreResult{
		"cerca": wasteResult(entity.TierMedium, 30, 10),
		"lejos": wasteResult(entity.TierLow, 90, 10),
	}}
	uc := buildWasteUC(newFakeItemRepo(items...), newFakePredictionRepo(), newFakeChangeRepo(nil), multiLocationOrg(), scorer)

	res, err := uc.Generate(context.Background(), testOrg, "", nil)
	require.NoError(t, err)
	require.Len(t, res.Predictions, 1)
	assert.Equal(t, "cerca", res.Predictions[0].ItemID)
}

func TestWaste_AdjuntaConsumoPromedio(t *testing.T) {
	items := []entity.Item{expiringItem("a", "Lidocaína", 30, 2, 15)}
	scorer := &fakeScorer{waste: map[string]*ports.ScoreResult{
		"a": wasteResult(entity.TierMedium, 15, 20),
	}}
	// 60 unidades en 30 días = 2.00/día.
	changeRepo := newFakeChangeRepo(map[string]int{"a": 60})
	uc := buildWasteUC(newFakeItemRepo(items...), newFakePredictionRepo(), changeRepo, multiLocationOrg(), scorer)

	res, err := uc.Generate(context.Background(), testOrg, "", nil)
	require.NoError(t, err)
	require.Len(t, res.Predictions, 1)
	assert.True(t, decimal.NewFromInt(2).Equal(res.Predictions[0].AvgDailyUsage),
		"consumo esperado 2.00, got %s", res.Predictions[0].AvgDailyUsage)
}

func TestWaste_CacheaPorKindIndependienteDelReorden(t *testing.T) {
	it := expiringItem("a", "Lidocaína", 30, 2, 15)
	predRepo := newFakePredictionRepo()

	// Pasada de reorden primero: crea la fila viva de kind reorder.
	reorderScorer := &fakeScorer{reorder: map[string]*ports.ScoreResult{
		"a": reorderResult(5, 10, entity.TierHigh),
	}}
	ruc := buildReorderUC(newFakeItemRepo(it), predRepo, newFakeChangeRepo(nil), multiLocationOrg(), reorderScorer)
	_, err := ruc.Generate(context.Background(), testOrg, "", nil)
	require.NoError(t, err)

	// Pasada de merma: fila viva propia, sin pisar la de reorden.
	wasteScorer := &fakeScorer{waste: map[string]*ports.ScoreResult{
		"a": wasteResult(entity.TierHigh, 15, 20),
	}}
	wuc := buildWasteUC(newFakeItemRepo(it), predRepo, newFakeChangeRepo(nil), multiLocationOrg(), wasteScorer)
	_, err = wuc.Generate(context.Background(), testOrg, "", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, predRepo.liveCount(testOrg, "a", entity.PredictionKindReorder))
	assert.Equal(t, 1, predRepo.liveCount(testOrg, "a", entity.PredictionKindWasteRisk))
}
