package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/application/ports"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/insights"
)

// Verificar en tiempo de compilación que AnthropicScorer implementa InventoryScorer.
var _ ports.InventoryScorer = (*AnthropicScorer)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	reorderSystemPrompt = `Eres un analista de inventario de prácticas médicas.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin bloques de código) con esta estructura exacta:
{
  "days_until_reorder": <entero, o null si con la tendencia actual no hace falta reordenar>,
  "recommended_quantity": <entero >= 0>,
  "priority": "<high|medium|low>",
  "confidence": <decimal entre 0.0 y 1.0>,
  "reasoning": "<explicación concisa en español, máximo 200 caracteres>"
}

Reglas:
- days_until_reorder: días hasta que el stock cruce el umbral de reorden. Negativo si ya lo cruzó. null si el consumo no justifica reordenar.
- priority: high si faltan 7 días o menos, medium hasta 14, low en el resto.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`

	wasteSystemPrompt = `Eres un analista de inventario de prácticas médicas especializado en merma por vencimiento.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin bloques de código) con esta estructura exacta:
{
  "risk_level": "<high|medium|low>",
  "days_until_expiration": <entero >= 0>,
  "estimated_waste_value": <decimal >= 0, valor monetario del stock que quedará sin consumir>,
  "confidence": <decimal entre 0.0 y 1.0>,
  "reasoning": "<explicación concisa en español, máximo 200 caracteres>"
}

Reglas:
- risk_level: high si vence en 7 días o menos con stock sobrante, medium hasta 21, low en el resto.
- estimated_waste_value: (stock - consumo proyectado hasta el vencimiento) * costo unitario.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`
)

// AnthropicScorer función de scoring respaldada por la API REST de Anthropic
// (Claude). Usa net/http de la librería estándar; no requiere el SDK oficial.
type AnthropicScorer struct {
	apiKey     string
	model      string
	httpClient *http.Client
	now        func() time.Time
}

// NewAnthropicScorer construye el adaptador.
// model suele ser "claude-3-5-haiku-20241022".
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicScorer(apiKey, model string) *AnthropicScorer {
	return &AnthropicScorer{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			// Timeout de red de 25 s; el use case impone además su propio context.WithTimeout.
			Timeout: 25 * time.Second,
		},
		now: time.Now,
	}
}

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type llmReorderPayload struct {
	DaysUntilReorder    *int    `json:"days_until_reorder"`
	RecommendedQuantity int     `json:"recommended_quantity"`
	Priority            string  `json:"priority"`
	Confidence          float64 `json:"confidence"`
	Reasoning           string  `json:"reasoning"`
}

type llmWastePayload struct {
	RiskLevel           string          `json:"risk_level"`
	DaysUntilExpiration int             `json:"days_until_expiration"`
	EstimatedWasteValue decimal.Decimal `json:"estimated_waste_value"`
	Confidence          float64         `json:"confidence"`
	Reasoning           string          `json:"reasoning"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque Claude lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Implementación del puerto ─────────────────────────────────────────────────

// ScoreReorder envía el estado del item y su consumo histórico a Claude y
// normaliza la respuesta al resultado tipado.
func (s *AnthropicScorer) ScoreReorder(ctx context.Context, in ports.ScoringInput) (*ports.ScoreResult, error) {
	userContent := fmt.Sprintf(
		"Item: %s\nStock actual: %d\nUmbral de reorden: %d\nConsumo promedio: %s unidades/día (ventana de %d días)",
		in.Item.Name, in.Item.Quantity, in.Item.ReorderThreshold,
		in.AvgDailyUsage.String(), insights.UsageWindowDays,
	)

	rawText, err := s.call(ctx, reorderSystemPrompt, userContent)
	if err != nil {
		return nil, err
	}

	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}
	var payload llmReorderPayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de reorden: %w (JSON extraído: %s)", err, cleanJSON)
	}

	return &ports.ScoreResult{
		Value: entity.PredictionValue{
			Kind: entity.PredictionKindReorder,
			Reorder: &entity.ReorderValue{
				DaysUntilReorder:    payload.DaysUntilReorder,
				RecommendedQuantity: payload.RecommendedQuantity,
				Priority:            normalizeTier(payload.Priority),
			},
		},
		Confidence: clampConfidence(payload.Confidence),
		Rationale:  payload.Reasoning,
		ExpiresAt:  s.now().Add(forecastTTL),
	}, nil
}

// ScoreWasteRisk evalúa el riesgo de merma por vencimiento vía Claude.
func (s *AnthropicScorer) ScoreWasteRisk(ctx context.Context, in ports.ScoringInput) (*ports.ScoreResult, error) {
	if in.Item.ExpirationDate == nil {
		return nil, fmt.Errorf("score waste risk: item %s sin fecha de expiración", in.Item.ID)
	}
	userContent := fmt.Sprintf(
		"Item: %s\nStock actual: %d\nCosto unitario: %s\nFecha de vencimiento: %s\nConsumo promedio: %s unidades/día (ventana de %d días)",
		in.Item.Name, in.Item.Quantity, in.Item.UnitCost.String(),
		in.Item.ExpirationDate.Format("2006-01-02"),
		in.AvgDailyUsage.String(), insights.UsageWindowDays,
	)

	rawText, err := s.call(ctx, wasteSystemPrompt, userContent)
	if err != nil {
		return nil, err
	}

	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}
	var payload llmWastePayload
	if err := json.Unmarshal([]byte(cleanJSON), &payload); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de merma: %w (JSON extraído: %s)", err, cleanJSON)
	}
	if payload.DaysUntilExpiration < 0 {
		payload.DaysUntilExpiration = 0
	}

	return &ports.ScoreResult{
		Value: entity.PredictionValue{
			Kind: entity.PredictionKindWasteRisk,
			WasteRisk: &entity.WasteRiskValue{
				RiskLevel:           normalizeTier(payload.RiskLevel),
				DaysUntilExpiration: payload.DaysUntilExpiration,
				EstimatedWasteValue: payload.EstimatedWasteValue,
			},
		},
		Confidence: clampConfidence(payload.Confidence),
		Rationale:  payload.Reasoning,
		ExpiresAt:  *in.Item.ExpirationDate,
	}, nil
}

// call ejecuta una request al Messages API y devuelve el texto del primer bloque.
func (s *AnthropicScorer) call(ctx context.Context, systemPrompt, userContent string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userContent},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("AI: leer respuesta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return "", fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}
	if len(anthResp.Content) == 0 {
		return "", fmt.Errorf("AI: Claude devolvió respuesta vacía")
	}
	return anthResp.Content[0].Text, nil
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre.
// Estrategia en dos pasos:
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if close := strings.LastIndex(after, "```"); close != -1 {
			after = after[:close]
		}
		text = strings.TrimSpace(after)
	}

	if strings.HasPrefix(text, "{") {
		return text
	}
	match := jsonBlockRe.FindString(text)
	return strings.TrimSpace(match)
}

// normalizeTier mapea el texto del modelo a un tier válido; desconocido = low.
func normalizeTier(s string) entity.PriorityTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return entity.TierHigh
	case "medium":
		return entity.TierMedium
	}
	return entity.TierLow
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
