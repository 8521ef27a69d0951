package insights

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// Horizontes de accionabilidad: más allá de estos días la predicción no se
// muestra al usuario. Ambos límites son inclusivos.
const (
	ReorderHorizonDays = 30
	WasteHorizonDays   = 60
)

// UsageWindowDays ventana trasera sobre el ledger para derivar tasa de consumo.
const UsageWindowDays = 30

// ActionableReorder informa si un valor de reorden entra al listado accionable:
// descarta DaysUntilReorder nil ("no hace falta reordenar") y los que exceden
// el horizonte de 30 días. Un valor negativo (reorden vencido) sí es accionable.
func ActionableReorder(v *entity.ReorderValue) bool {
	if v == nil || v.DaysUntilReorder == nil {
		return false
	}
	return *v.DaysUntilReorder <= ReorderHorizonDays
}

// AverageDailyUsage deriva el consumo promedio diario desde el total consumido
// en una ventana. Redondeado a 2 decimales; ventana <= 0 devuelve cero.
func AverageDailyUsage(totalUsed int, windowDays int) decimal.Decimal {
	if windowDays <= 0 || totalUsed <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(totalUsed)).
		Div(decimal.NewFromInt(int64(windowDays))).
		Round(2)
}
