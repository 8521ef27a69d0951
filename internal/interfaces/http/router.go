package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	"github.com/tu-usuario/medstock-pro/internal/application/purchasing"
	"github.com/tu-usuario/medstock-pro/internal/application/usecase"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReorderUC *insights.ReorderInsightsUseCase
	WasteUC   *insights.WasteInsightsUseCase
	ActionUC  *insights.RecordActionUseCase
	Meter     *insights.UsageMeter
	DraftUC   *purchasing.DraftUseCase
	PlanSvc   *usecase.PlanService
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Insights (protegido, plan con ai_insights)
	insightsGroup := protected.Group("/insights", RequireFeature(entity.FeatureAIInsights, deps.PlanSvc))
	insightsHandler := NewInsightsHandler(deps.ReorderUC, deps.WasteUC, deps.ActionUC, deps.Meter)
	insightsGroup.Get("/reorder", insightsHandler.GetReorder)
	insightsGroup.Post("/reorder", insightsHandler.PostReorder)
	insightsGroup.Patch("/reorder", insightsHandler.PatchReorder)
	insightsGroup.Get("/waste", insightsHandler.GetWaste)
	insightsGroup.Post("/waste", insightsHandler.PostWaste)
	insightsGroup.Patch("/waste", insightsHandler.PatchWaste)

	// Purchasing (protegido; crear borradores requiere rol admin o manager)
	purchasingGroup := protected.Group("/purchasing", RequireFeature(entity.FeatureAIInsights, deps.PlanSvc))
	purchasingHandler := NewPurchasingHandler(deps.DraftUC)
	purchasingGroup.Post("/drafts", RequireRole(entity.RoleAdmin, entity.RoleManager), purchasingHandler.CreateDraft)
	purchasingGroup.Get("/drafts", purchasingHandler.ListDrafts)
}
