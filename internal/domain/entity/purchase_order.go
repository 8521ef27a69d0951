package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	OrderStatusDraft           = "DRAFT"
	OrderStatusPendingApproval = "PENDING_APPROVAL"
	OrderStatusApproved        = "APPROVED"
	OrderStatusOrdered         = "ORDERED"
	OrderStatusReceived        = "RECEIVED"
	OrderStatusCancelled       = "CANCELLED"
)

// Fuente por defecto de los borradores generados por el pipeline.
const OrderSourceAIInsights = "ai_insights"

// OpenOrderStatuses estados no terminales: mientras una orden esté en uno de
// estos, se considera "abierta" y bloquea la creación de un segundo borrador
// para el mismo item.
func OpenOrderStatuses() []string {
	return []string{OrderStatusDraft, OrderStatusPendingApproval, OrderStatusApproved}
}

// PurchaseOrder borrador u orden de compra en curso.
type PurchaseOrder struct {
	ID                 string
	OrganizationID     string
	LocationID         *string
	CreatedBy          string
	Status             string // ver constantes OrderStatus*
	Source             string // ej. "ai_insights"
	TotalEstimatedCost decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PurchaseOrderItem línea de una orden de compra. PredictionID referencia la
// predicción que la originó, si existió.
type PurchaseOrderItem struct {
	ID              string
	PurchaseOrderID string
	ItemID          string
	Quantity        int
	UnitCost        decimal.Decimal
	EstimatedCost   decimal.Decimal
	SupplierID      string // vacío = opción de costo propio (fallback)
	SupplierName    string
	OrderingURL     string
	PredictionID    *string
}
