package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDraftRequest POST de creación (o recuperación) de un borrador de orden.
// Quantity explícita es opcional: si falta se usa la predicción viva de reorden
// y en su defecto el umbral de reorden del item.
type CreateDraftRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1"`
	Source   string `json:"source" validate:"omitempty,max=50"`
}

// DraftItemDTO línea de un borrador.
type DraftItemDTO struct {
	ItemID        string          `json:"item_id"`
	Quantity      int             `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	OrderingURL   string          `json:"ordering_url,omitempty"`
	PredictionID  string          `json:"prediction_id,omitempty"`
}

// DraftDTO borrador de orden de compra con sus líneas.
type DraftDTO struct {
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	Source             string          `json:"source"`
	TotalEstimatedCost decimal.Decimal `json:"total_estimated_cost"`
	CreatedAt          time.Time       `json:"created_at"`
	Items              []DraftItemDTO  `json:"items"`
}

// CreateDraftResponse Existing=true indica que ya había una orden abierta para
// el item y no se creó nada nuevo.
type CreateDraftResponse struct {
	Draft    DraftDTO `json:"draft"`
	Existing bool     `json:"existing"`
}

// DraftListResponse respuesta del lookup batch por items.
type DraftListResponse struct {
	Drafts []DraftDTO `json:"drafts"`
}
