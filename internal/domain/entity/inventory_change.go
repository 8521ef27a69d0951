package entity

import "time"

// Tipos de cambio de inventario.
const (
	ChangeTypeUsage      = "usage"      // consumo
	ChangeTypeRestock    = "restock"    // reposición
	ChangeTypeAdjustment = "adjustment" // ajuste o descarte
	ChangeTypeTransfer   = "transfer"   // traslado entre ubicaciones
)

// InventoryChange fila inmutable del ledger de inventario. Se crea cada vez que
// la cantidad de un item cambia como efecto de actuar sobre una predicción
// (o de cualquier otra operación de inventario). Append-only: nunca se muta
// ni se borra; es la señal de entrenamiento para derivar tasas de consumo.
type InventoryChange struct {
	ID             string
	ItemID         string
	OrganizationID string
	QuantityBefore int
	QuantityAfter  int
	Type           string // ver constantes ChangeType*
	Reason         string
	UserID         string
	LocationID     *string
	CreatedAt      time.Time
}
