package insights

import (
	"context"
	"fmt"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// LocationScope resuelve el filtro de ubicación de un lote según el plan de la
// organización. La regla mono-ubicación vive solo aquí para poder revisarla
// sin tocar el resto del pipeline.
type LocationScope struct {
	orgRepo repository.OrganizationRepository
}

// NewLocationScope construye el resolutor de alcance.
func NewLocationScope(orgRepo repository.OrganizationRepository) *LocationScope {
	return &LocationScope{orgRepo: orgRepo}
}

// ItemScope devuelve el ItemFilter a aplicar. Organizaciones sin multi_location
// ignoran el filtro pedido y solo ven items sin ubicación asignada (regla de
// compatibilidad con planes mono-ubicación). Error solo ante fallo al resolver
// el plan; ese fallo sí es fatal para el request.
func (s *LocationScope) ItemScope(ctx context.Context, orgID, locationID string) (repository.ItemFilter, error) {
	multi, err := s.orgRepo.HasFeature(ctx, orgID, entity.FeatureMultiLocation)
	if err != nil {
		return repository.ItemFilter{}, fmt.Errorf("resolver plan de la organización: %w", err)
	}
	if !multi {
		return repository.ItemFilter{UnassignedOnly: true}, nil
	}
	if locationID != "" {
		return repository.ItemFilter{LocationID: &locationID}, nil
	}
	return repository.ItemFilter{}, nil
}
