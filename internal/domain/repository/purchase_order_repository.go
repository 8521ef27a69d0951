package repository

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// PurchaseOrderRepository puerto de persistencia de órdenes de compra.
// Las operaciones Create* se usan dentro de una transacción (TxRunner) para
// que orden y línea nunca sean observables por separado.
type PurchaseOrderRepository interface {
	// FindOpenByItem devuelve la orden abierta (DRAFT/PENDING_APPROVAL/APPROVED)
	// que ya referencia el item en la organización, o (nil, nil).
	FindOpenByItem(ctx context.Context, orgID, itemID string) (*entity.PurchaseOrder, error)
	// ListOpenByItems versión batch de FindOpenByItem.
	ListOpenByItems(ctx context.Context, orgID string, itemIDs []string) ([]entity.PurchaseOrder, error)
	ListItemsByOrders(ctx context.Context, orderIDs []string) ([]entity.PurchaseOrderItem, error)
	CreateOrder(ctx context.Context, o *entity.PurchaseOrder) error
	CreateOrderItem(ctx context.Context, li *entity.PurchaseOrderItem) error
}
