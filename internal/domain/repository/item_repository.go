package repository

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// ItemFilter acota un listado de items.
// UnassignedOnly=true implementa la regla de compatibilidad mono-ubicación:
// organizaciones sin multi_location solo ven items sin ubicación asignada.
type ItemFilter struct {
	LocationID     *string  // nil = sin filtro de ubicación
	UnassignedOnly bool     // solo items con location_id NULL
	IDs            []string // opcional: restringir a estos items
}

// ItemRepository puerto de persistencia de items. GetByID devuelve (nil, nil)
// si el item no existe.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// ListInStock devuelve los items con quantity > 0 bajo el filtro dado.
	ListInStock(ctx context.Context, orgID string, f ItemFilter) ([]entity.Item, error)
	// ListExpiringWithin devuelve items con quantity > 0 cuya expiración cae
	// dentro de los próximos days días (aún no vencidos).
	ListExpiringWithin(ctx context.Context, orgID string, days int, f ItemFilter) ([]entity.Item, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) error
}
