package entity

import "time"

// Features medibles del pipeline (una marca por request de servicio, no por item puntuado).
const (
	FeatureUsageReorder = "reorder_insights"
	FeatureUsageWaste   = "waste_insights"
)

// AIFeatureUsage contador mensual por (organización, feature, mes "YYYY-MM").
// Se crea en 1 con el primer uso del mes y solo se incrementa, nunca decrementa.
type AIFeatureUsage struct {
	ID             string
	OrganizationID string
	FeatureType    string
	Month          string // "YYYY-MM"
	Count          int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MonthKey devuelve la clave de mes calendario ("YYYY-MM") para un instante dado.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
