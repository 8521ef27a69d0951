package insights

import (
	"context"
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

// UsageMeter incrementa el contador mensual por (organización, feature) cada
// vez que se sirve un endpoint de predicciones. La unidad de medición es el
// request, no la cantidad de items puntuados dentro de él.
type UsageMeter struct {
	usageRepo repository.FeatureUsageRepository
	log       *logger.Logger
}

// NewUsageMeter construye el medidor.
func NewUsageMeter(usageRepo repository.FeatureUsageRepository, log *logger.Logger) *UsageMeter {
	return &UsageMeter{usageRepo: usageRepo, log: log}
}

// Record suma 1 al contador del mes calendario actual, creándolo en 1 si es el
// primer uso del mes. Un fallo aquí se registra y no afecta al request.
func (m *UsageMeter) Record(ctx context.Context, orgID, featureType string) {
	month := entity.MonthKey(time.Now())
	if err := m.usageRepo.Increment(ctx, orgID, featureType, month); err != nil {
		m.log.Warn().Err(err).
			Str("org_id", orgID).
			Str("feature", featureType).
			Msg("no se pudo registrar el uso de la feature IA")
	}
}
