package repository

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// FeatureUsageRepository puerto del contador mensual de uso de features IA.
type FeatureUsageRepository interface {
	// Increment crea la fila (org, feature, month) en 1 si no existe, o suma 1.
	Increment(ctx context.Context, orgID, featureType, month string) error
	// Get devuelve el contador del mes, o (nil, nil) si aún no hay usos.
	Get(ctx context.Context, orgID, featureType, month string) (*entity.AIFeatureUsage, error)
}
