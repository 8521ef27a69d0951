package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/medstock-pro/internal/application/ports"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// PredictionCache dueño del invariante "a lo sumo una predicción no accionada
// por (organización, item, kind)". En cada pasada de scoring decide entre
// refrescar la fila viva o crear una nueva; nunca inserta un duplicado
// mientras exista una viva.
type PredictionCache struct {
	predRepo repository.PredictionRepository
}

// NewPredictionCache construye el caché.
func NewPredictionCache(predRepo repository.PredictionRepository) *PredictionCache {
	return &PredictionCache{predRepo: predRepo}
}

// Upsert persiste el resultado de scoring para (orgID, itemID, kind del valor).
// Si hay una predicción viva la sobrescribe en el lugar (valor, confianza,
// rationale, expiración: last-writer-wins); si no, inserta una nueva con
// actioned=false. Devuelve la fila resultante.
func (c *PredictionCache) Upsert(ctx context.Context, orgID, itemID string, res *ports.ScoreResult) (*entity.Prediction, error) {
	kind := res.Value.Kind
	if !kind.Valid() {
		return nil, fmt.Errorf("upsert predicción: kind inválido %q", kind)
	}
	raw, err := res.Value.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("upsert predicción: %w", err)
	}

	live, err := c.predRepo.FindLive(ctx, orgID, itemID, kind)
	if err != nil {
		return nil, fmt.Errorf("buscar predicción viva: %w", err)
	}

	now := time.Now().UTC()
	if live != nil {
		if err := c.predRepo.Refresh(ctx, live.ID, raw, res.Confidence, res.Rationale, res.ExpiresAt); err != nil {
			return nil, fmt.Errorf("refrescar predicción %s: %w", live.ID, err)
		}
		live.Value = raw
		live.Confidence = res.Confidence
		live.Rationale = res.Rationale
		live.ExpiresAt = res.ExpiresAt
		live.UpdatedAt = now
		return live, nil
	}

	p := &entity.Prediction{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		ItemID:         itemID,
		Kind:           kind,
		Value:          raw,
		Confidence:     res.Confidence,
		Rationale:      res.Rationale,
		ExpiresAt:      res.ExpiresAt,
		Actioned:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.predRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("crear predicción: %w", err)
	}
	return p, nil
}
