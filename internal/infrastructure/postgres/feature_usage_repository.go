package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.FeatureUsageRepository = (*FeatureUsageRepo)(nil)

// FeatureUsageRepo implementación del contador mensual de uso sobre PostgreSQL.
// Constraint único (organization_id, feature_type, month) en la tabla.
type FeatureUsageRepo struct {
	q Querier
}

// NewFeatureUsageRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFeatureUsageRepository(q Querier) *FeatureUsageRepo {
	return &FeatureUsageRepo{q: q}
}

// Increment upsert atómico: crea la fila del mes en 1 o suma 1 a la existente.
func (r *FeatureUsageRepo) Increment(ctx context.Context, orgID, featureType, month string) error {
	query := `
		INSERT INTO ai_feature_usage (id, organization_id, feature_type, month, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, now(), now())
		ON CONFLICT (organization_id, feature_type, month)
		DO UPDATE SET usage_count = ai_feature_usage.usage_count + 1, updated_at = now()`
	_, err := r.q.Exec(ctx, query, uuid.New().String(), orgID, featureType, month)
	if err != nil {
		return fmt.Errorf("increment feature usage: %w", err)
	}
	return nil
}

// Get devuelve el contador del mes, o (nil, nil) si aún no hay usos registrados.
func (r *FeatureUsageRepo) Get(ctx context.Context, orgID, featureType, month string) (*entity.AIFeatureUsage, error) {
	query := `
		SELECT id, organization_id, feature_type, month, usage_count, created_at, updated_at
		FROM ai_feature_usage
		WHERE organization_id = $1 AND feature_type = $2 AND month = $3`
	var u entity.AIFeatureUsage
	err := r.q.QueryRow(ctx, query, orgID, featureType, month).Scan(
		&u.ID, &u.OrganizationID, &u.FeatureType, &u.Month, &u.Count, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get feature usage: %w", err)
	}
	return &u, nil
}
