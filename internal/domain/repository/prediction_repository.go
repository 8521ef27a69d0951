package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// PredictionRepository puerto de persistencia del caché de predicciones.
// La unicidad "a lo sumo una fila viva por (org, item, kind)" se respalda con
// un índice único parcial sobre actioned = false.
type PredictionRepository interface {
	// FindLive devuelve la predicción no accionada para la tripleta, o (nil, nil).
	FindLive(ctx context.Context, orgID, itemID string, kind entity.PredictionKind) (*entity.Prediction, error)
	Create(ctx context.Context, p *entity.Prediction) error
	// Refresh sobrescribe valor/confianza/rationale/expiración de una fila viva
	// (last-writer-wins; nunca inserta duplicado mientras exista una viva).
	Refresh(ctx context.Context, id string, value json.RawMessage, confidence float64, rationale string, expiresAt time.Time) error
	// Close marca la predicción como accionada con su feedback score (-1|0|1).
	Close(ctx context.Context, id string, feedbackScore int) error
}
