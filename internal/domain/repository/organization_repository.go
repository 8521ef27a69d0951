package repository

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// OrganizationRepository puerto de organizaciones y sus features de plan.
type OrganizationRepository interface {
	// GetByID devuelve (nil, nil) si la organización no existe.
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
	// HasFeature informa si el plan de la organización incluye la feature y no
	// está vencida. false sin error si no está contratada; error solo ante
	// fallos de infraestructura.
	HasFeature(ctx context.Context, orgID, feature string) (bool, error)
}
