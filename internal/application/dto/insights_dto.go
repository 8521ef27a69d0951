package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// OrderingOptionDTO opción de compra rankeada para un item (mejor primero).
type OrderingOptionDTO struct {
	SupplierID    string           `json:"supplier_id,omitempty"`
	SupplierName  string           `json:"supplier_name"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"` // cotizado; nil = estimado por costo del item
	EstimatedCost decimal.Decimal  `json:"estimated_cost"`
	LeadTimeDays  int              `json:"lead_time_days"`
	OrderingURL   string           `json:"ordering_url,omitempty"`
	Preference    string           `json:"preference"`         // preferred | neutral
	Fallback      bool             `json:"fallback,omitempty"` // true = opción de costo propio, sin proveedor
}

// ReorderPredictionDTO predicción de reorden lista para el cliente.
type ReorderPredictionDTO struct {
	PredictionID        string              `json:"prediction_id"`
	ItemID              string              `json:"item_id"`
	ItemName            string              `json:"item_name"`
	SKU                 string              `json:"sku,omitempty"`
	Quantity            int                 `json:"quantity"`
	DaysUntilReorder    int                 `json:"days_until_reorder"`
	RecommendedQuantity int                 `json:"recommended_quantity"`
	Priority            entity.PriorityTier `json:"priority"`
	Confidence          float64             `json:"confidence"`
	Rationale           string              `json:"rationale"`
	EstimatedOrderCost  decimal.Decimal     `json:"estimated_order_cost"`
	OrderingOptions     []OrderingOptionDTO `json:"ordering_options"`
	ExpiresAt           time.Time           `json:"expires_at"`
}

// TierCountDTO conteo de predicciones por tier.
type TierCountDTO struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// ReorderSummaryDTO resumen del lote de reorden.
type ReorderSummaryDTO struct {
	TotalActionable int             `json:"total_actionable"`
	ByPriority      TierCountDTO    `json:"by_priority"`
	TotalOrderValue decimal.Decimal `json:"total_order_value"` // Σ recommendedQuantity × unitCost, a centavos
}

// ReorderInsightsResponse respuesta de los endpoints de reorden.
type ReorderInsightsResponse struct {
	Predictions []ReorderPredictionDTO `json:"predictions"`
	Summary     ReorderSummaryDTO      `json:"summary"`
}

// WastePredictionDTO predicción de riesgo de merma lista para el cliente.
// AvgDailyUsage es contexto informativo; no participa del ranking.
type WastePredictionDTO struct {
	PredictionID        string              `json:"prediction_id"`
	ItemID              string              `json:"item_id"`
	ItemName            string              `json:"item_name"`
	SKU                 string              `json:"sku,omitempty"`
	Quantity            int                 `json:"quantity"`
	RiskLevel           entity.PriorityTier `json:"risk_level"`
	DaysUntilExpiration int                 `json:"days_until_expiration"`
	EstimatedWasteValue decimal.Decimal     `json:"estimated_waste_value"`
	AvgDailyUsage       decimal.Decimal     `json:"avg_daily_usage"`
	Confidence          float64             `json:"confidence"`
	Rationale           string              `json:"rationale"`
	ExpiresAt           time.Time           `json:"expires_at"`
}

// WasteSummaryDTO resumen del lote de merma.
type WasteSummaryDTO struct {
	TotalAtRisk     int             `json:"total_at_risk"`
	ByRisk          TierCountDTO    `json:"by_risk"`
	TotalWasteValue decimal.Decimal `json:"total_waste_value"`
}

// WasteInsightsResponse respuesta de los endpoints de merma.
type WasteInsightsResponse struct {
	Predictions []WastePredictionDTO `json:"predictions"`
	Summary     WasteSummaryDTO      `json:"summary"`
}

// InsightsBatchRequest POST de recomendaciones personalizadas: restringe el
// lote a items concretos y/o a una ubicación.
type InsightsBatchRequest struct {
	ItemIDs    []string `json:"item_ids" validate:"omitempty,dive,uuid4"`
	LocationID string   `json:"location_id" validate:"omitempty,uuid4"`
}

// PredictionActionRequest PATCH de feedback/acción sobre la predicción viva de un item.
type PredictionActionRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Action   string `json:"action" validate:"required,oneof=restocked discarded dismissed"`
	Feedback string `json:"feedback" validate:"omitempty,oneof=helpful not_helpful"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1"`
}

// PredictionActionResponse cantidad del item tras aplicar la acción.
type PredictionActionResponse struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}
