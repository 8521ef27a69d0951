package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, organization_id, name, sku, category_id, location_id,
	quantity, unit_cost, expiration_date, reorder_threshold, created_at, updated_at`

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de items. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// GetByID obtiene un item por ID. Devuelve (nil, nil) si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// ListInStock lista items con quantity > 0 bajo el filtro dado, en orden
// determinista (name, id) para que el ranking posterior sea reproducible.
func (r *ItemRepo) ListInStock(ctx context.Context, orgID string, f repository.ItemFilter) ([]entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE organization_id = $1 AND quantity > 0`
	args := []any{orgID}
	query, args = appendItemFilter(query, args, f)
	query += ` ORDER BY name, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items in stock: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListExpiringWithin lista items con stock cuya expiración cae dentro de los
// próximos days días y aún no pasó.
func (r *ItemRepo) ListExpiringWithin(ctx context.Context, orgID string, days int, f repository.ItemFilter) ([]entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE organization_id = $1 AND quantity > 0
		  AND expiration_date IS NOT NULL
		  AND expiration_date > now()
		  AND expiration_date <= now() + ($2 * interval '1 day')`
	args := []any{orgID, days}
	query, args = appendItemFilter(query, args, f)
	query += ` ORDER BY expiration_date, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items expiring: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// UpdateQuantity fija la cantidad del item.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	query := `UPDATE items SET quantity = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("update item quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update item quantity: item %s no existe", id)
	}
	return nil
}

// appendItemFilter agrega las condiciones del ItemFilter al query.
func appendItemFilter(query string, args []any, f repository.ItemFilter) (string, []any) {
	if f.UnassignedOnly {
		// Compatibilidad mono-ubicación: solo items sin ubicación asignada.
		query += ` AND location_id IS NULL`
	} else if f.LocationID != nil {
		args = append(args, *f.LocationID)
		query += ` AND location_id = $` + strconv.Itoa(len(args))
	}
	if len(f.IDs) > 0 {
		args = append(args, f.IDs)
		query += ` AND id = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	return query, args
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(
		&it.ID, &it.OrganizationID, &it.Name, &it.SKU, &it.CategoryID, &it.LocationID,
		&it.Quantity, &it.UnitCost, &it.ExpirationDate, &it.ReorderThreshold,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]entity.Item, error) {
	var items []entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}
