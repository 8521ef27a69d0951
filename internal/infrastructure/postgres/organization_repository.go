package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo implementación del puerto de organizaciones sobre PostgreSQL.
type OrganizationRepo struct {
	q Querier
}

// NewOrganizationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrganizationRepository(q Querier) *OrganizationRepo {
	return &OrganizationRepo{q: q}
}

// GetByID obtiene una organización por ID. Devuelve (nil, nil) si no existe.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	query := `
		SELECT id, name, status, ai_require_approval, created_at, updated_at
		FROM organizations
		WHERE id = $1`
	var o entity.Organization
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Name, &o.Status, &o.AI.RequireApproval, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// HasFeature verifica si el plan de la organización incluye la feature, está
// activa y no venció. false sin error cuando simplemente no está contratada.
func (r *OrganizationRepo) HasFeature(ctx context.Context, orgID, feature string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM organization_features
			WHERE organization_id = $1
			  AND feature = $2
			  AND is_active = true
			  AND (expires_at IS NULL OR expires_at > now())
		)`
	var has bool
	if err := r.q.QueryRow(ctx, query, orgID, feature).Scan(&has); err != nil {
		return false, fmt.Errorf("check feature: %w", err)
	}
	return has, nil
}
