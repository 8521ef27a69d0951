package insights

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// SupplierRanker ordena las opciones de compra de un item para una cantidad
// deseada. Criterios en orden: (1) preferencia de la organización — excluded
// nunca se devuelve, preferred va antes que neutral sin importar el costo;
// (2) menor costo total estimado dentro del mismo tier; (3) menor tiempo de
// entrega como último desempate.
type SupplierRanker struct {
	supplierRepo repository.SupplierRepository
}

// NewSupplierRanker construye el ranker.
func NewSupplierRanker(supplierRepo repository.SupplierRepository) *SupplierRanker {
	return &SupplierRanker{supplierRepo: supplierRepo}
}

// OrderingOptions devuelve las opciones mejor-primero. Siempre hay al menos
// una: si no existe entrada de catálogo (o la consulta falla) se devuelve la
// opción de costo propio derivada del UnitCost del item, para que el costeo
// de borradores aguas abajo nunca se quede sin estimación. El error devuelto
// junto al fallback es informativo; no debe bloquear al caller.
func (r *SupplierRanker) OrderingOptions(ctx context.Context, item *entity.Item, quantity int, orgID string) ([]dto.OrderingOptionDTO, error) {
	qty := decimal.NewFromInt(int64(quantity))
	fallback := dto.OrderingOptionDTO{
		SupplierName:  "Costo registrado del item",
		EstimatedCost: item.UnitCost.Mul(qty).Round(2),
		Preference:    entity.PreferenceNeutral,
		Fallback:      true,
	}

	entries, err := r.supplierRepo.CatalogByItem(ctx, item.ID)
	if err != nil {
		return []dto.OrderingOptionDTO{fallback}, fmt.Errorf("catálogo de proveedores: %w", err)
	}
	prefs, err := r.supplierRepo.PreferencesByOrg(ctx, orgID)
	if err != nil {
		return []dto.OrderingOptionDTO{fallback}, fmt.Errorf("preferencias de proveedores: %w", err)
	}

	type ranked struct {
		opt  dto.OrderingOptionDTO
		tier int // 0 = preferred, 1 = neutral
		lead int
	}
	var options []ranked
	for _, e := range entries {
		level := entity.PreferenceNeutral
		if p, ok := prefs[e.SupplierID]; ok {
			level = p.Level
		}
		if level == entity.PreferenceExcluded {
			continue
		}
		cost := item.UnitCost.Mul(qty)
		var unit *decimal.Decimal
		if e.UnitPrice != nil {
			cost = e.UnitPrice.Mul(qty)
			up := *e.UnitPrice
			unit = &up
		}
		tier := 1
		if level == entity.PreferencePreferred {
			tier = 0
		}
		options = append(options, ranked{
			opt: dto.OrderingOptionDTO{
				SupplierID:    e.SupplierID,
				SupplierName:  e.SupplierName,
				UnitPrice:     unit,
				EstimatedCost: cost.Round(2),
				LeadTimeDays:  e.LeadTimeDays,
				OrderingURL:   e.OrderingURL,
				Preference:    level,
			},
			tier: tier,
			lead: e.LeadTimeDays,
		})
	}

	if len(options) == 0 {
		return []dto.OrderingOptionDTO{fallback}, nil
	}

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].tier != options[j].tier {
			return options[i].tier < options[j].tier
		}
		if c := options[i].opt.EstimatedCost.Cmp(options[j].opt.EstimatedCost); c != 0 {
			return c < 0
		}
		return options[i].lead < options[j].lead
	})

	out := make([]dto.OrderingOptionDTO, len(options))
	for i, o := range options {
		out[i] = o.opt
	}
	return out, nil
}
