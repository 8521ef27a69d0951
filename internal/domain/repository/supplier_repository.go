package repository

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// SupplierRepository puerto de catálogo y preferencias de proveedores.
type SupplierRepository interface {
	// PreferencesByOrg devuelve las preferencias de la organización indexadas
	// por supplier_id. Proveedores sin fila se tratan como neutral.
	PreferencesByOrg(ctx context.Context, orgID string) (map[string]entity.SupplierPreference, error)
	CatalogByItem(ctx context.Context, itemID string) ([]entity.SupplierCatalogEntry, error)
}
