package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const orderColumns = `o.id, o.organization_id, o.location_id, o.created_by, o.status,
	o.source, o.total_estimated_cost, o.created_at, o.updated_at`

// PurchaseOrderRepo implementación del puerto de órdenes de compra sobre PostgreSQL.
// La tabla purchase_order_items tiene un índice único parcial por item dentro
// de órdenes abiertas que respalda la idempotencia del orquestador:
//
//	CREATE UNIQUE INDEX purchase_order_items_open_uniq
//	  ON purchase_order_items (organization_id, item_id)
//	  WHERE order_open = true;
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// FindOpenByItem busca la orden abierta que ya referencia el item, o (nil, nil).
func (r *PurchaseOrderRepo) FindOpenByItem(ctx context.Context, orgID, itemID string) (*entity.PurchaseOrder, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM purchase_orders o
		JOIN purchase_order_items li ON li.purchase_order_id = o.id
		WHERE o.organization_id = $1 AND li.item_id = $2 AND o.status = ANY($3)
		ORDER BY o.created_at
		LIMIT 1`
	o, err := scanOrder(r.q.QueryRow(ctx, query, orgID, itemID, entity.OpenOrderStatuses()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open order by item: %w", err)
	}
	return o, nil
}

// ListOpenByItems versión batch de FindOpenByItem: todas las órdenes abiertas
// que referencian alguno de los items dados.
func (r *PurchaseOrderRepo) ListOpenByItems(ctx context.Context, orgID string, itemIDs []string) ([]entity.PurchaseOrder, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT ` + orderColumns + `
		FROM purchase_orders o
		JOIN purchase_order_items li ON li.purchase_order_id = o.id
		WHERE o.organization_id = $1 AND li.item_id = ANY($2) AND o.status = ANY($3)
		ORDER BY o.created_at, o.id`
	rows, err := r.q.Query(ctx, query, orgID, itemIDs, entity.OpenOrderStatuses())
	if err != nil {
		return nil, fmt.Errorf("list open orders by items: %w", err)
	}
	defer rows.Close()

	var orders []entity.PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// ListItemsByOrders carga las líneas de las órdenes dadas.
func (r *PurchaseOrderRepo) ListItemsByOrders(ctx context.Context, orderIDs []string) ([]entity.PurchaseOrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, purchase_order_id, item_id, quantity, unit_cost, estimated_cost,
		       supplier_id, supplier_name, ordering_url, prediction_id
		FROM purchase_order_items
		WHERE purchase_order_id = ANY($1)
		ORDER BY purchase_order_id, id`
	rows, err := r.q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var lines []entity.PurchaseOrderItem
	for rows.Next() {
		var li entity.PurchaseOrderItem
		err := rows.Scan(
			&li.ID, &li.PurchaseOrderID, &li.ItemID, &li.Quantity, &li.UnitCost,
			&li.EstimatedCost, &li.SupplierID, &li.SupplierName, &li.OrderingURL, &li.PredictionID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return lines, nil
}

// CreateOrder inserta la cabecera de la orden.
func (r *PurchaseOrderRepo) CreateOrder(ctx context.Context, o *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, organization_id, location_id, created_by,
		                             status, source, total_estimated_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.OrganizationID, o.LocationID, o.CreatedBy, o.Status, o.Source,
		o.TotalEstimatedCost, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

// CreateOrderItem inserta una línea. Una violación del índice único de item
// abierto significa que otra request ganó la carrera: domain.ErrDuplicate.
func (r *PurchaseOrderRepo) CreateOrderItem(ctx context.Context, li *entity.PurchaseOrderItem) error {
	query := `
		INSERT INTO purchase_order_items (id, purchase_order_id, item_id, quantity,
		                                  unit_cost, estimated_cost, supplier_id,
		                                  supplier_name, ordering_url, prediction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		li.ID, li.PurchaseOrderID, li.ItemID, li.Quantity, li.UnitCost,
		li.EstimatedCost, li.SupplierID, li.SupplierName, li.OrderingURL, li.PredictionID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase order item: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	err := row.Scan(
		&o.ID, &o.OrganizationID, &o.LocationID, &o.CreatedBy, &o.Status,
		&o.Source, &o.TotalEstimatedCost, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
