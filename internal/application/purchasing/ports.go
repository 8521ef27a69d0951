package purchasing

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// TxRunner ejecuta la secuencia chequear-y-crear de borradores dentro de una
// transacción: el lookup de orden abierta se repite bajo la tx y la orden con
// su línea se insertan como unidad. Una orden sin línea nunca es observable.
type TxRunner interface {
	RunPurchasing(ctx context.Context, fn func(orderRepo repository.PurchaseOrderRepository) error) error
}
