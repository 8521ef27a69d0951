package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa una unidad de stock de la práctica (insumo, medicamento, material).
// Quantity es entero no negativo; UnitCost decimal no negativo. La cantidad solo
// la mutan operaciones de inventario explícitas, nunca borrados implícitos.
type Item struct {
	ID               string
	OrganizationID   string
	Name             string
	SKU              string // opcional, único por organización cuando existe
	CategoryID       string
	LocationID       *string // nil = sin ubicación asignada
	Quantity         int
	UnitCost         decimal.Decimal
	ExpirationDate   *time.Time // nil = no vence
	ReorderThreshold int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
