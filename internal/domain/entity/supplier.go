package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Niveles de preferencia de proveedor por organización.
const (
	PreferencePreferred = "preferred"
	PreferenceNeutral   = "neutral"
	PreferenceExcluded  = "excluded"
)

// SupplierPreference preferencia de la organización sobre un proveedor.
// Solo es insumo de ranking; nunca dato de inventario autoritativo.
type SupplierPreference struct {
	OrganizationID string
	SupplierID     string
	Level          string // ver constantes Preference*
	AccountNumber  string
	UpdatedAt      time.Time
}

// SupplierCatalogEntry opción de compra de un proveedor para un item:
// precio cotizado (nil = sin cotización, se estima con el costo del item),
// tiempo de entrega y URL de pedido.
type SupplierCatalogEntry struct {
	ID           string
	ItemID       string
	SupplierID   string
	SupplierName string
	UnitPrice    *decimal.Decimal
	LeadTimeDays int
	OrderingURL  string
	UpdatedAt    time.Time
}
