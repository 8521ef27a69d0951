package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// InventoryChangeRepository puerto del ledger de inventario (append-only).
type InventoryChangeRepository interface {
	Create(ctx context.Context, ch *entity.InventoryChange) error
	// UsageSince suma el consumo (quantity_before - quantity_after de filas
	// tipo usage con delta positivo) por item desde since. Items sin consumo
	// no aparecen en el mapa.
	UsageSince(ctx context.Context, orgID string, itemIDs []string, since time.Time) (map[string]int, error)
}
