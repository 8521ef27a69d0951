package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación del puerto de proveedores sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// PreferencesByOrg devuelve las preferencias de la organización indexadas por
// supplier_id. Proveedores sin fila son neutrales por omisión.
func (r *SupplierRepo) PreferencesByOrg(ctx context.Context, orgID string) (map[string]entity.SupplierPreference, error) {
	query := `
		SELECT organization_id, supplier_id, preference_level, account_number, updated_at
		FROM supplier_preferences
		WHERE organization_id = $1`
	rows, err := r.q.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list supplier preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]entity.SupplierPreference)
	for rows.Next() {
		var p entity.SupplierPreference
		if err := rows.Scan(&p.OrganizationID, &p.SupplierID, &p.Level, &p.AccountNumber, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier preference: %w", err)
		}
		prefs[p.SupplierID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier preferences: %w", err)
	}
	return prefs, nil
}

// CatalogByItem lista las opciones de compra conocidas para un item.
func (r *SupplierRepo) CatalogByItem(ctx context.Context, itemID string) ([]entity.SupplierCatalogEntry, error) {
	query := `
		SELECT c.id, c.item_id, c.supplier_id, s.name, c.unit_price, c.lead_time_days,
		       c.ordering_url, c.updated_at
		FROM supplier_catalog c
		JOIN suppliers s ON s.id = c.supplier_id
		WHERE c.item_id = $1
		ORDER BY s.name, c.supplier_id`
	rows, err := r.q.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("list supplier catalog: %w", err)
	}
	defer rows.Close()

	var entries []entity.SupplierCatalogEntry
	for rows.Next() {
		var e entity.SupplierCatalogEntry
		err := rows.Scan(&e.ID, &e.ItemID, &e.SupplierID, &e.SupplierName,
			&e.UnitPrice, &e.LeadTimeDays, &e.OrderingURL, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return entries, nil
}
