package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/insights"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// validate instancia compartida de validación de DTOs.
var validate = validator.New()

// InsightsHandler maneja los endpoints del pipeline de predicciones (protegido,
// requiere la feature ai_insights).
type InsightsHandler struct {
	reorderUC *insights.ReorderInsightsUseCase
	wasteUC   *insights.WasteInsightsUseCase
	actionUC  *insights.RecordActionUseCase
	meter     *insights.UsageMeter
}

// NewInsightsHandler construye el handler.
func NewInsightsHandler(
	reorderUC *insights.ReorderInsightsUseCase,
	wasteUC *insights.WasteInsightsUseCase,
	actionUC *insights.RecordActionUseCase,
	meter *insights.UsageMeter,
) *InsightsHandler {
	return &InsightsHandler{
		reorderUC: reorderUC,
		wasteUC:   wasteUC,
		actionUC:  actionUC,
		meter:     meter,
	}
}

// GetReorder godoc
// @Summary      Predicciones de reorden de la organización
// @Description  Puntúa el inventario en stock, cachea las predicciones y devuelve
//               el subconjunto accionable (30 días) rankeado por prioridad, con
//               opciones de compra y resumen.
// @Tags         insights
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación (requiere feature multi_location)"
// @Success      200  {object}  dto.ReorderInsightsResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/insights/reorder [get]
func (h *InsightsHandler) GetReorder(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	res, err := h.reorderUC.Generate(c.Context(), orgID, c.Query("location_id"), nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	h.meter.Record(c.Context(), orgID, entity.FeatureUsageReorder)
	return c.JSON(res)
}

// PostReorder godoc
// @Summary      Predicciones de reorden para items concretos
// @Description  Igual que el GET pero restringido a los items del cuerpo
//               (recomendaciones personalizadas).
// @Tags         insights
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InsightsBatchRequest  true  "item_ids y/o location_id"
// @Success      200   {object}  dto.ReorderInsightsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/insights/reorder [post]
func (h *InsightsHandler) PostReorder(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var req dto.InsightsBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	res, err := h.reorderUC.Generate(c.Context(), orgID, req.LocationID, req.ItemIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	h.meter.Record(c.Context(), orgID, entity.FeatureUsageReorder)
	return c.JSON(res)
}

// PatchReorder godoc
// @Summary      Registrar acción/feedback sobre una predicción de reorden
// @Description  Cierra la predicción viva del item. restocked suma stock,
//               discarded lo resta, dismissed solo la descarta. El cambio de
//               cantidad y la fila del ledger se aplican en la misma transacción.
// @Tags         insights
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PredictionActionRequest  true  "item_id, action, feedback y quantity opcionales"
// @Success      200   {object}  dto.PredictionActionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/insights/reorder [patch]
func (h *InsightsHandler) PatchReorder(c *fiber.Ctx) error {
	return h.patchPrediction(c, entity.PredictionKindReorder)
}

// GetWaste godoc
// @Summary      Predicciones de merma por vencimiento
// @Description  Evalúa los items que vencen dentro de 60 días y devuelve el
//               riesgo rankeado con el valor de merma estimado.
// @Tags         insights
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación (requiere feature multi_location)"
// @Success      200  {object}  dto.WasteInsightsResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/insights/waste [get]
func (h *InsightsHandler) GetWaste(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	res, err := h.wasteUC.Generate(c.Context(), orgID, c.Query("location_id"), nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	h.meter.Record(c.Context(), orgID, entity.FeatureUsageWaste)
	return c.JSON(res)
}

// PostWaste godoc
// @Summary      Predicciones de merma para items concretos
// @Tags         insights
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InsightsBatchRequest  true  "item_ids y/o location_id"
// @Success      200   {object}  dto.WasteInsightsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/insights/waste [post]
func (h *InsightsHandler) PostWaste(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var req dto.InsightsBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	res, err := h.wasteUC.Generate(c.Context(), orgID, req.LocationID, req.ItemIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	h.meter.Record(c.Context(), orgID, entity.FeatureUsageWaste)
	return c.JSON(res)
}

// PatchWaste godoc
// @Summary      Registrar acción/feedback sobre una predicción de merma
// @Tags         insights
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PredictionActionRequest  true  "item_id, action, feedback y quantity opcionales"
// @Success      200   {object}  dto.PredictionActionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/insights/waste [patch]
func (h *InsightsHandler) PatchWaste(c *fiber.Ctx) error {
	return h.patchPrediction(c, entity.PredictionKindWasteRisk)
}

func (h *InsightsHandler) patchPrediction(c *fiber.Ctx, kind entity.PredictionKind) error {
	orgID := GetOrgID(c)
	userID := GetUserID(c)
	if orgID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var req dto.PredictionActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	res, err := h.actionUC.Record(c.Context(), orgID, userID, kind, req)
	if err != nil {
		return mapDomainError(c, err, "predicción o item no encontrado")
	}
	return c.JSON(res)
}

// mapDomainError traduce errores sentinela del dominio a respuestas HTTP.
func mapDomainError(c *fiber.Ctx, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: notFoundMsg})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
