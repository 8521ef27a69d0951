package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.InventoryChangeRepository = (*InventoryChangeRepo)(nil)

// InventoryChangeRepo implementación del ledger de inventario sobre PostgreSQL.
// La tabla es append-only: solo INSERT y agregaciones de lectura.
type InventoryChangeRepo struct {
	q Querier
}

// NewInventoryChangeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryChangeRepository(q Querier) *InventoryChangeRepo {
	return &InventoryChangeRepo{q: q}
}

// Create inserta una fila del ledger.
func (r *InventoryChangeRepo) Create(ctx context.Context, ch *entity.InventoryChange) error {
	query := `
		INSERT INTO inventory_changes (id, item_id, organization_id, quantity_before,
		                               quantity_after, change_type, reason, user_id,
		                               location_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		ch.ID, ch.ItemID, ch.OrganizationID, ch.QuantityBefore, ch.QuantityAfter,
		ch.Type, ch.Reason, ch.UserID, ch.LocationID, ch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inventory change: %w", err)
	}
	return nil
}

// UsageSince agrega el consumo por item desde since. Solo cuenta filas de tipo
// usage con delta positivo (quantity_before > quantity_after); los items sin
// consumo en la ventana no aparecen en el mapa.
func (r *InventoryChangeRepo) UsageSince(ctx context.Context, orgID string, itemIDs []string, since time.Time) (map[string]int, error) {
	if len(itemIDs) == 0 {
		return map[string]int{}, nil
	}
	query := `
		SELECT item_id, SUM(quantity_before - quantity_after)
		FROM inventory_changes
		WHERE organization_id = $1
		  AND item_id = ANY($2)
		  AND change_type = 'usage'
		  AND quantity_before > quantity_after
		  AND created_at >= $3
		GROUP BY item_id`
	rows, err := r.q.Query(ctx, query, orgID, itemIDs, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]int, len(itemIDs))
	for rows.Next() {
		var itemID string
		var total int
		if err := rows.Scan(&itemID, &total); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		usage[itemID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage rows: %w", err)
	}
	return usage, nil
}
