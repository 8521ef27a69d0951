package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/purchasing"
)

// PurchasingHandler maneja los borradores de orden de compra generados desde
// las predicciones (protegido).
type PurchasingHandler struct {
	draftUC *purchasing.DraftUseCase
}

// NewPurchasingHandler construye el handler.
func NewPurchasingHandler(draftUC *purchasing.DraftUseCase) *PurchasingHandler {
	return &PurchasingHandler{draftUC: draftUC}
}

// CreateDraft godoc
// @Summary      Crear o recuperar un borrador de orden para un item
// @Description  Idempotente por item: si ya existe una orden abierta (DRAFT,
//               PENDING_APPROVAL o APPROVED) que referencia el item, la devuelve
//               con existing=true en lugar de crear otra. La cantidad sale del
//               cuerpo, de la predicción viva de reorden o del umbral del item,
//               en ese orden.
// @Tags         purchasing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDraftRequest  true  "item_id obligatorio; quantity y source opcionales"
// @Success      200   {object}  dto.CreateDraftResponse  "orden abierta ya existente"
// @Success      201   {object}  dto.CreateDraftResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/purchasing/drafts [post]
func (h *PurchasingHandler) CreateDraft(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	userID := GetUserID(c)
	if orgID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var req dto.CreateDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	res, err := h.draftUC.CreateOrGet(c.Context(), orgID, userID, req)
	if err != nil {
		return mapDomainError(c, err, "item no encontrado")
	}
	if res.Existing {
		return c.JSON(res)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// ListDrafts godoc
// @Summary      Borradores abiertos que referencian los items dados
// @Tags         purchasing
// @Security     Bearer
// @Produce      json
// @Param        item_ids  query  string  true  "IDs de items separados por coma"
// @Success      200  {object}  dto.DraftListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/purchasing/drafts [get]
func (h *PurchasingHandler) ListDrafts(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	if orgID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	raw := strings.TrimSpace(c.Query("item_ids"))
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "item_ids es obligatorio"})
	}
	var itemIDs []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			itemIDs = append(itemIDs, id)
		}
	}

	res, err := h.draftUC.DraftsForItems(c.Context(), orgID, itemIDs)
	if err != nil {
		return mapDomainError(c, err, "items no encontrados")
	}
	return c.JSON(res)
}
