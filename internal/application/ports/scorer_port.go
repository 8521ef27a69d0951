package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// ScoringInput estado actual de un item más la señal histórica opcional
// derivada del ledger (consumo promedio diario; cero = sin historial).
type ScoringInput struct {
	Item          entity.Item
	AvgDailyUsage decimal.Decimal
}

// ScoreResult predicción cruda de la función de scoring: valor tipado,
// confianza en [0,1], rationale legible y expiración del pronóstico.
type ScoreResult struct {
	Value      entity.PredictionValue
	Confidence float64
	Rationale  string
	ExpiresAt  time.Time
}

// InventoryScorer puerto de la función de scoring. Se asume pura y sin efectos
// secundarios; el motor la invoca, cachea su salida y la convierte en flujo de
// compras, pero no la implementa. Intercambiable (heurística local, LLM, mock).
type InventoryScorer interface {
	ScoreReorder(ctx context.Context, in ScoringInput) (*ScoreResult, error)
	ScoreWasteRisk(ctx context.Context, in ScoringInput) (*ScoreResult, error)
}
