package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.PredictionRepository = (*PredictionRepo)(nil)

// PredictionRepo implementación del caché de predicciones sobre PostgreSQL.
// La tabla predictions tiene un índice único parcial:
//
//	CREATE UNIQUE INDEX predictions_live_uniq
//	  ON predictions (organization_id, item_id, kind) WHERE actioned = false;
//
// que respalda el invariante de a lo sumo una fila viva por tripleta.
type PredictionRepo struct {
	q Querier
}

// NewPredictionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPredictionRepository(q Querier) *PredictionRepo {
	return &PredictionRepo{q: q}
}

// FindLive obtiene la predicción no accionada para (org, item, kind), o (nil, nil).
func (r *PredictionRepo) FindLive(ctx context.Context, orgID, itemID string, kind entity.PredictionKind) (*entity.Prediction, error) {
	query := `
		SELECT id, organization_id, item_id, kind, value, confidence, rationale,
		       expires_at, actioned, feedback_score, created_at, updated_at
		FROM predictions
		WHERE organization_id = $1 AND item_id = $2 AND kind = $3 AND actioned = false`
	var p entity.Prediction
	err := r.q.QueryRow(ctx, query, orgID, itemID, string(kind)).Scan(
		&p.ID, &p.OrganizationID, &p.ItemID, &p.Kind, &p.Value, &p.Confidence,
		&p.Rationale, &p.ExpiresAt, &p.Actioned, &p.FeedbackScore, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find live prediction: %w", err)
	}
	return &p, nil
}

// Create inserta una predicción nueva (actioned=false).
func (r *PredictionRepo) Create(ctx context.Context, p *entity.Prediction) error {
	query := `
		INSERT INTO predictions (id, organization_id, item_id, kind, value, confidence,
		                         rationale, expires_at, actioned, feedback_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.OrganizationID, p.ItemID, string(p.Kind), p.Value, p.Confidence,
		p.Rationale, p.ExpiresAt, p.Actioned, p.FeedbackScore, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Otra pasada concurrente creó la fila viva primero.
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Refresh sobrescribe valor/confianza/rationale/expiración de una fila viva
// (last-writer-wins entre pasadas concurrentes).
func (r *PredictionRepo) Refresh(ctx context.Context, id string, value json.RawMessage, confidence float64, rationale string, expiresAt time.Time) error {
	query := `
		UPDATE predictions
		SET value = $2, confidence = $3, rationale = $4, expires_at = $5, updated_at = now()
		WHERE id = $1 AND actioned = false`
	tag, err := r.q.Exec(ctx, query, id, value, confidence, rationale, expiresAt)
	if err != nil {
		return fmt.Errorf("refresh prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Close marca la predicción como accionada con su feedback score.
func (r *PredictionRepo) Close(ctx context.Context, id string, feedbackScore int) error {
	query := `
		UPDATE predictions
		SET actioned = true, feedback_score = $2, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, feedbackScore)
	if err != nil {
		return fmt.Errorf("close prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
