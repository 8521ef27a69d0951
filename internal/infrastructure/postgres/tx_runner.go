package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	"github.com/tu-usuario/medstock-pro/internal/application/purchasing"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var (
	_ insights.TxRunner   = (*TxRunner)(nil)
	_ purchasing.TxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta casos de uso dentro de una transacción pgx, construyendo
// repositorios atados a la tx. Rollback implícito ante error o panic.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner sobre el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run transacción del flujo de acción sobre predicciones: cierre de la
// predicción, mutación de cantidad y fila del ledger como unidad.
func (r *TxRunner) Run(ctx context.Context, fn func(
	predRepo repository.PredictionRepository,
	itemRepo repository.ItemRepository,
	changeRepo repository.InventoryChangeRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = fn(
		NewPredictionRepository(tx),
		NewItemRepository(tx),
		NewInventoryChangeRepository(tx),
	)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RunPurchasing transacción del chequear-y-crear de borradores de compra.
func (r *TxRunner) RunPurchasing(ctx context.Context, fn func(orderRepo repository.PurchaseOrderRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewPurchaseOrderRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
