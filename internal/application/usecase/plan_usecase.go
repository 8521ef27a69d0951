package usecase

import (
	"context"
	"fmt"

	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// PlanService verifica qué features de plan tiene activas una organización.
// Es el único punto de la aplicación que conoce la lógica de activación; el
// pipeline lo consume como un set booleano de solo lectura.
type PlanService struct {
	orgRepo repository.OrganizationRepository
}

// NewPlanService construye el servicio de plan.
func NewPlanService(orgRepo repository.OrganizationRepository) *PlanService {
	return &PlanService{orgRepo: orgRepo}
}

// HasFeature informa si la organización tiene la feature activa y sin vencer.
// Devuelve false (sin error) si la feature no está contratada.
// Devuelve error solo ante fallos de infraestructura (DB caída, timeout, etc.).
func (s *PlanService) HasFeature(ctx context.Context, orgID, feature string) (bool, error) {
	if orgID == "" || feature == "" {
		return false, fmt.Errorf("plan: orgID y feature son obligatorios")
	}
	return s.orgRepo.HasFeature(ctx, orgID, feature)
}
