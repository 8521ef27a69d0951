package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PredictionKind categoría de pronóstico; determina la forma del payload de valor.
type PredictionKind string

const (
	PredictionKindReorder   PredictionKind = "reorder"
	PredictionKindWasteRisk PredictionKind = "waste_risk"
)

// Valid informa si el kind es uno de los soportados.
func (k PredictionKind) Valid() bool {
	return k == PredictionKindReorder || k == PredictionKindWasteRisk
}

// PriorityTier nivel de prioridad/riesgo de una predicción.
type PriorityTier string

const (
	TierHigh   PriorityTier = "high"
	TierMedium PriorityTier = "medium"
	TierLow    PriorityTier = "low"
)

// Weight devuelve el peso numérico del tier para ordenamiento (high=3, medium=2, low=1).
func (t PriorityTier) Weight() int {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	}
	return 0
}

// ReorderValue payload de una predicción de reorden.
// DaysUntilReorder nil = "no hace falta reordenar con la tendencia actual";
// esos items se excluyen aguas abajo.
type ReorderValue struct {
	DaysUntilReorder    *int         `json:"daysUntilReorder"`
	RecommendedQuantity int          `json:"recommendedQuantity"`
	Priority            PriorityTier `json:"priority"`
}

// WasteRiskValue payload de una predicción de riesgo de merma.
type WasteRiskValue struct {
	RiskLevel           PriorityTier    `json:"riskLevel"`
	DaysUntilExpiration int             `json:"daysUntilExpiration"`
	EstimatedWasteValue decimal.Decimal `json:"estimatedWasteValue"`
}

// PredictionValue unión etiquetada por Kind: exactamente una rama no nil.
// Permite pattern-matching exhaustivo en ordenamiento y resúmenes en lugar
// de sondear campos opcionales en un blob suelto.
type PredictionValue struct {
	Kind      PredictionKind
	Reorder   *ReorderValue
	WasteRisk *WasteRiskValue
}

// MarshalPayload serializa la rama activa a JSON para persistencia.
func (v PredictionValue) MarshalPayload() (json.RawMessage, error) {
	switch v.Kind {
	case PredictionKindReorder:
		if v.Reorder == nil {
			return nil, fmt.Errorf("prediction value: rama reorder vacía")
		}
		return json.Marshal(v.Reorder)
	case PredictionKindWasteRisk:
		if v.WasteRisk == nil {
			return nil, fmt.Errorf("prediction value: rama waste_risk vacía")
		}
		return json.Marshal(v.WasteRisk)
	}
	return nil, fmt.Errorf("prediction value: kind desconocido %q", v.Kind)
}

// DecodePredictionValue reconstruye la unión etiquetada desde el JSON persistido.
func DecodePredictionValue(kind PredictionKind, raw json.RawMessage) (PredictionValue, error) {
	switch kind {
	case PredictionKindReorder:
		var rv ReorderValue
		if err := json.Unmarshal(raw, &rv); err != nil {
			return PredictionValue{}, fmt.Errorf("decodificar valor reorder: %w", err)
		}
		return PredictionValue{Kind: kind, Reorder: &rv}, nil
	case PredictionKindWasteRisk:
		var wv WasteRiskValue
		if err := json.Unmarshal(raw, &wv); err != nil {
			return PredictionValue{}, fmt.Errorf("decodificar valor waste_risk: %w", err)
		}
		return PredictionValue{Kind: kind, WasteRisk: &wv}, nil
	}
	return PredictionValue{}, fmt.Errorf("kind de predicción desconocido %q", kind)
}

// Prediction salida cacheada de la función de scoring.
// Invariante: por (organización, item, kind) existe a lo sumo una fila con
// Actioned=false; esa es la clave del caché. Nunca se borra físicamente.
type Prediction struct {
	ID             string
	OrganizationID string
	ItemID         string
	Kind           PredictionKind
	Value          json.RawMessage // payload según Kind; ver DecodePredictionValue
	Confidence     float64         // [0,1]
	Rationale      string
	ExpiresAt      time.Time
	Actioned       bool
	FeedbackScore  int // -1 | 0 | 1, solo significativo con Actioned=true
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Valores de feedback aceptados en el cierre de una predicción.
const (
	FeedbackHelpful    = "helpful"
	FeedbackNotHelpful = "not_helpful"
)

// FeedbackScoreFor mapea el feedback textual al score de tres vías:
// helpful -> +1, not_helpful -> -1, cualquier otro -> 0.
func FeedbackScoreFor(feedback string) int {
	switch feedback {
	case FeedbackHelpful:
		return 1
	case FeedbackNotHelpful:
		return -1
	}
	return 0
}

// Acciones que un humano puede registrar sobre una predicción.
const (
	ActionRestocked = "restocked" // reorden ejecutado: suma cantidad
	ActionDiscarded = "discarded" // merma descartada: resta cantidad
	ActionDismissed = "dismissed" // predicción descartada sin cambio de stock
)
