package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/milinea/milinea-backend/internal/model"
)

// Model names tried in order; the secondary is only attempted when the
// primary reports not-found (model id rotated away).
var geminiModels = []string{"gemini-1.5-flash", "gemini-1.5-flash-latest"}

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const extractPromptFmt = `Eres un asistente de movilidad urbana en Cochabamba.
Devuelve SOLO JSON con origen/destino si el usuario pide una ruta.

Formato JSON EXACTO:
{
 "origin_text": "...",
 "destination_text": "...",
 "places_detected": ["..."],
 "intent": "route" | "smalltalk" | "unknown",
 "language": "es"
}

Mensaje:
"""%s"""`

// ModelExtractor is the external natural-language extractor.
type ModelExtractor interface {
	Extract(ctx context.Context, message string) (*model.TripIntent, error)
}

// Gemini extracts trip intent via the Gemini generateContent API with a
// JSON response mime type.
type Gemini struct {
	client *resty.Client
	key    string
}

// NewGemini creates a Gemini extractor with the given API key.
func NewGemini(key string) *Gemini {
	c := resty.New().
		SetBaseURL(geminiBaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	return &Gemini{client: c, key: key}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// extractPayload is the fixed shape the model is instructed to return.
type extractPayload struct {
	OriginText      string `json:"origin_text"`
	DestinationText string `json:"destination_text"`
	Intent          string `json:"intent"`
	Language        string `json:"language"`
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini error %d: %s", e.status, e.body)
}

// notFound reports whether the error is a model not-found condition.
func notFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == 404
}

// Extract tries the primary model and, only on a not-found condition, the
// secondary variant. Any other failure aborts the attempt. Non-JSON or
// malformed model output is an extraction failure.
func (g *Gemini) Extract(ctx context.Context, message string) (*model.TripIntent, error) {
	var lastErr error
	for _, m := range geminiModels {
		out, err := g.call(ctx, m, message)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !notFound(err) {
			break
		}
	}
	return nil, lastErr
}

func (g *Gemini) call(ctx context.Context, modelName, message string) (*model.TripIntent, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: fmt.Sprintf(extractPromptFmt, message)}}}},
	}
	req.GenerationConfig.ResponseMimeType = "application/json"

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.key).
		SetBody(&req).
		Post(fmt.Sprintf("/models/%s:generateContent", modelName))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &statusError{status: resp.StatusCode(), body: strings.TrimSpace(resp.String())}
	}

	var out geminiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("parse: decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("parse: empty candidate")
	}
	raw := out.Candidates[0].Content.Parts[0].Text

	var payload extractPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse: malformed extraction payload: %w", err)
	}

	res := &model.TripIntent{
		OriginText:      strings.TrimSpace(payload.OriginText),
		DestinationText: strings.TrimSpace(payload.DestinationText),
		Intent:          normalizeIntent(payload.Intent),
		Language:        payload.Language,
		ModelUsed:       modelName,
		ModelRaw:        json.RawMessage(raw),
	}
	if res.Language == "" {
		res.Language = "es"
	}
	return res, nil
}

func normalizeIntent(s string) model.Intent {
	switch model.Intent(s) {
	case model.IntentRoute, model.IntentSmalltalk:
		return model.Intent(s)
	default:
		return model.IntentUnknown
	}
}
