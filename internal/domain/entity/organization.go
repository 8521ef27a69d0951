package entity

import "time"

// Organization representa una práctica médica/tenant del sistema (multi-tenant).
type Organization struct {
	ID        string
	Name      string
	Status    string // active, suspended, inactive
	AI        AISettings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AISettings política de la organización sobre el pipeline de predicciones.
type AISettings struct {
	// RequireApproval: true = los borradores de orden generados por IA nacen
	// en PENDING_APPROVAL en lugar de DRAFT.
	RequireApproval bool
}

// Features del plan (deben coincidir con el CHECK de la tabla organization_features).
const (
	FeatureAIInsights        = "ai_insights"
	FeatureMultiLocation     = "multi_location"
	FeatureAdvancedAnalytics = "advanced_analytics"
)

// Roles de usuario dentro de una organización.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)
