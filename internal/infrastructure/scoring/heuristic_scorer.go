package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/application/ports"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/insights"
)

// Verificar en tiempo de compilación que HeuristicScorer implementa InventoryScorer.
var _ ports.InventoryScorer = (*HeuristicScorer)(nil)

// Umbrales de prioridad en días hasta el punto de reorden.
const (
	reorderHighDays   = 7
	reorderMediumDays = 14
)

// Umbrales de riesgo en días hasta el vencimiento.
const (
	wasteHighDays   = 7
	wasteMediumDays = 21
)

// Vigencia del pronóstico de reorden antes de recalcular.
const forecastTTL = 7 * 24 * time.Hour

// HeuristicScorer función de scoring local, sin dependencias externas:
// proyecta el consumo promedio diario del ledger sobre el stock actual.
// Determinista: misma entrada, misma salida.
type HeuristicScorer struct {
	now func() time.Time
}

// NewHeuristicScorer construye el scorer con reloj de sistema.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{now: time.Now}
}

// NewHeuristicScorerWithClock permite inyectar el reloj en tests.
func NewHeuristicScorerWithClock(now func() time.Time) *HeuristicScorer {
	return &HeuristicScorer{now: now}
}

// ScoreReorder estima cuántos días faltan para cruzar el umbral de reorden y
// cuánto conviene pedir. Sin historial de consumo devuelve DaysUntilReorder
// nil (no se puede proyectar una fecha), que aguas abajo queda fuera del
// listado accionable.
func (s *HeuristicScorer) ScoreReorder(_ context.Context, in ports.ScoringInput) (*ports.ScoreResult, error) {
	item := in.Item
	now := s.now()

	if in.AvgDailyUsage.IsZero() || in.AvgDailyUsage.IsNegative() {
		return &ports.ScoreResult{
			Value: entity.PredictionValue{
				Kind: entity.PredictionKindReorder,
				Reorder: &entity.ReorderValue{
					DaysUntilReorder:    nil,
					RecommendedQuantity: 0,
					Priority:            entity.TierLow,
				},
			},
			Confidence: 0.3,
			Rationale:  fmt.Sprintf("%s: sin consumo registrado en los últimos %d días; no se proyecta reorden", item.Name, insights.UsageWindowDays),
			ExpiresAt:  now.Add(forecastTTL),
		}, nil
	}

	// Días hasta cruzar el umbral: (stock - umbral) / consumo diario.
	// Negativo = el umbral ya se cruzó (reorden vencido).
	surplus := decimal.NewFromInt(int64(item.Quantity - item.ReorderThreshold))
	days := int(math.Floor(surplus.Div(in.AvgDailyUsage).InexactFloat64()))

	// Pedir cobertura para la ventana de consumo completa, nunca menos que el umbral.
	coverage := int(in.AvgDailyUsage.Mul(decimal.NewFromInt(insights.UsageWindowDays)).Ceil().IntPart())
	recommended := coverage
	if recommended < item.ReorderThreshold {
		recommended = item.ReorderThreshold
	}

	priority := entity.TierLow
	switch {
	case days <= reorderHighDays:
		priority = entity.TierHigh
	case days <= reorderMediumDays:
		priority = entity.TierMedium
	}

	rationale := fmt.Sprintf("%s: consumo promedio %s/día; el stock (%d) cruza el umbral (%d) en %d días",
		item.Name, in.AvgDailyUsage.String(), item.Quantity, item.ReorderThreshold, days)
	if days <= 0 {
		rationale = fmt.Sprintf("%s: stock (%d) ya en o bajo el umbral de reorden (%d) con consumo %s/día",
			item.Name, item.Quantity, item.ReorderThreshold, in.AvgDailyUsage.String())
	}

	return &ports.ScoreResult{
		Value: entity.PredictionValue{
			Kind: entity.PredictionKindReorder,
			Reorder: &entity.ReorderValue{
				DaysUntilReorder:    &days,
				RecommendedQuantity: recommended,
				Priority:            priority,
			},
		},
		Confidence: 0.8,
		Rationale:  rationale,
		ExpiresAt:  now.Add(forecastTTL),
	}, nil
}

// ScoreWasteRisk estima cuánto stock quedará sin consumir al vencimiento y su
// valor. Requiere fecha de expiración; los items sin fecha no llegan acá.
func (s *HeuristicScorer) ScoreWasteRisk(_ context.Context, in ports.ScoringInput) (*ports.ScoreResult, error) {
	item := in.Item
	if item.ExpirationDate == nil {
		return nil, fmt.Errorf("score waste risk: item %s sin fecha de expiración", item.ID)
	}
	now := s.now()

	daysLeft := int(math.Ceil(item.ExpirationDate.Sub(now).Hours() / 24))
	if daysLeft < 0 {
		daysLeft = 0
	}

	// Consumo esperado hasta el vencimiento vs. stock disponible.
	expected := in.AvgDailyUsage.Mul(decimal.NewFromInt(int64(daysLeft)))
	unconsumed := decimal.NewFromInt(int64(item.Quantity)).Sub(expected)
	if unconsumed.IsNegative() {
		unconsumed = decimal.Zero
	}
	wasteValue := unconsumed.Mul(item.UnitCost).Round(2)

	risk := entity.TierLow
	if unconsumed.IsPositive() {
		switch {
		case daysLeft <= wasteHighDays:
			risk = entity.TierHigh
		case daysLeft <= wasteMediumDays:
			risk = entity.TierMedium
		}
	}

	confidence := 0.8
	if in.AvgDailyUsage.IsZero() {
		// Sin historial todo el stock cuenta como merma potencial; menos certeza.
		confidence = 0.5
	}

	return &ports.ScoreResult{
		Value: entity.PredictionValue{
			Kind: entity.PredictionKindWasteRisk,
			WasteRisk: &entity.WasteRiskValue{
				RiskLevel:           risk,
				DaysUntilExpiration: daysLeft,
				EstimatedWasteValue: wasteValue,
			},
		},
		Confidence: confidence,
		Rationale: fmt.Sprintf("%s: vence en %d días; al ritmo actual quedarían %s unidades sin consumir ($%s)",
			item.Name, daysLeft, unconsumed.Round(2).String(), wasteValue.String()),
		ExpiresAt: *item.ExpirationDate,
	}, nil
}
