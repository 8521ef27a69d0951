package insights_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/insights"
)

func days(n int) *int { return &n }

// El horizonte de 30 días es inclusivo: 30 entra, 31 y 45 no.
func TestActionableReorder_HorizonteInclusivo(t *testing.T) {
	assert.True(t, insights.ActionableReorder(&entity.ReorderValue{DaysUntilReorder: days(30)}))
	assert.True(t, insights.ActionableReorder(&entity.ReorderValue{DaysUntilReorder: days(0)}))
	assert.False(t, insights.ActionableReorder(&entity.ReorderValue{DaysUntilReorder: days(31)}))
	assert.False(t, insights.ActionableReorder(&entity.ReorderValue{DaysUntilReorder: days(45)}))
}

// DaysUntilReorder nil significa "no reordenar" y queda fuera del listado.
func TestActionableReorder_NilQuedaFuera(t *testing.T) {
	assert.False(t, insights.ActionableReorder(nil))
	assert.False(t, insights.ActionableReorder(&entity.ReorderValue{DaysUntilReorder: nil}))
}

// Reorden ya vencido (días negativos) sigue siendo accionable.
func TestActionableReorder_VencidoEsAccionable(t *testing.T) {
	assert.True(t, insights.ActionableReorder(&entity.ReorderValue{DaysUntilReorder: days(-3)}))
}

func TestAverageDailyUsage(t *testing.T) {
	assert.True(t, decimal.NewFromFloat(2.0).Equal(insights.AverageDailyUsage(60, 30)))
	assert.True(t, decimal.NewFromFloat(0.33).Equal(insights.AverageDailyUsage(10, 30)))
	assert.True(t, decimal.Zero.Equal(insights.AverageDailyUsage(0, 30)))
	assert.True(t, decimal.Zero.Equal(insights.AverageDailyUsage(10, 0)))
}
