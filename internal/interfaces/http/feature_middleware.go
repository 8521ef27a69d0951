package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
)

// featureChecker es el contrato mínimo que necesita el middleware para
// verificar features del plan. Lo implementa *usecase.PlanService; el uso de
// interfaz evita el import circular.
type featureChecker interface {
	HasFeature(ctx context.Context, orgID, feature string) (bool, error)
}

// RequireFeature devuelve un middleware Fiber que verifica si el plan de la
// organización del token incluye la feature. Debe usarse DESPUÉS de
// AuthMiddleware (necesita LocalOrgID).
//
// Comportamiento:
//   - 403 Forbidden → feature no contratada o vencida.
//   - 503 Service Unavailable → fallo de infraestructura al consultar la DB.
//   - Si no hay org_id en el contexto, responde 401 (el AuthMiddleware debería haberlo puesto).
func RequireFeature(feature string, checker featureChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := GetOrgID(c)
		if orgID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "org_id no encontrado en el token",
			})
		}

		active, err := checker.HasFeature(c.Context(), orgID, feature)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "FEATURE_CHECK_FAILED",
				Message: "no se pudo verificar la feature, intente más tarde",
			})
		}

		if !active {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FEATURE_DISABLED",
				Message: "la feature '" + feature + "' no está activa para esta organización",
			})
		}

		return c.Next()
	}
}
