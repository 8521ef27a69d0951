package insights

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Cierra la predicción, muta la cantidad del
// item y escribe el ledger como unidad atómica.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		predRepo repository.PredictionRepository,
		itemRepo repository.ItemRepository,
		changeRepo repository.InventoryChangeRepository,
	) error) error
}
