package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/observability/telemetry"
	"github.com/bafoka-labs/voicebank/internal/service/validation"
)

// English intent labels the model tends to emit, mapped to the canonical
// Bafoka intent names.
var intentMapping = map[string]string{
	"transfer":         domain.IntentTransfer,
	"balance":          domain.IntentBalance,
	"payment":          domain.IntentPayBill,
	"add_beneficiary":  domain.IntentAddBeneficiary,
	"account_creation": domain.IntentCreateAccount,
}

// analysisPayload is the JSON shape the banking prompt demands.
type analysisPayload struct {
	Intent     string          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Parameters json.RawMessage `json:"parameters"`
	Validation struct {
		Complete         bool     `json:"complete"`
		MissingParams    []string `json:"missing_params"`
		ValidationErrors []string `json:"validation_errors"`
	} `json:"validation"`
	APIEndpoint   string   `json:"api_endpoint"`
	APIMethod     string   `json:"api_method"`
	Response      string   `json:"response"`
	Suggestions   []string `json:"suggestions"`
	SecurityAlert bool     `json:"security_alert"`
}

// Analyze maps one utterance to a structured banking analysis. The pending
// intent snapshot, when present, is handed to the model as conversational
// context so follow-up answers land on the right slots.
func (c *Client) Analyze(ctx context.Context, text string, pending *domain.PendingIntent) (*domain.NLUResult, error) {
	start := time.Now()

	language := c.detectLanguage(ctx, text)

	userPrompt := "Demande: " + text
	if pending != nil {
		snapshot, err := json.Marshal(pending)
		if err == nil {
			userPrompt += "\n\nContexte conversationnel précédent: " + string(snapshot)
		}
	}

	content, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(language)},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.1,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("groq: malformed analysis: %w", err)
	}

	result := c.toResult(payload, text, language)

	telemetry.NLULatency.Observe(time.Since(start).Seconds())
	c.log.Info("NLU analysis complete",
		zap.String("intent", result.Intent),
		zap.String("language", language),
		zap.Int("missing", len(result.MissingParams)),
		zap.Bool("security_alert", result.SecurityAlert),
	)

	return result, nil
}

// toResult canonicalizes the model output: English intents are mapped to the
// Bafoka names, parameter values are validated against the intent schema, and
// the missing list is recomputed locally so it can never drift from what the
// model happened to report.
func (c *Client) toResult(payload analysisPayload, text, language string) *domain.NLUResult {
	intent := payload.Intent
	if mapped, ok := intentMapping[intent]; ok {
		intent = mapped
	}
	if intent == "" || !domain.KnownIntent(intent) {
		intent = domain.IntentUnknown
	}

	params := stringifyParams(payload.Parameters)
	errors := append([]string(nil), payload.Validation.ValidationErrors...)
	errors = append(errors, validateParams(intent, params)...)

	missing := validation.MissingParams(domain.RequiredParams(intent), params)

	endpoint, method := payload.APIEndpoint, payload.APIMethod
	if route, ok := domain.RouteFor(intent); ok && endpoint == "" {
		endpoint, method = route.Endpoint, route.Method
	}
	if method == "" {
		method = "POST"
	}

	return &domain.NLUResult{
		Intent:           intent,
		Parameters:       params,
		MissingParams:    missing,
		ValidationErrors: errors,
		Response:         payload.Response,
		Suggestions:      payload.Suggestions,
		Confidence:       payload.Confidence,
		SecurityAlert:    payload.SecurityAlert,
		APIEndpoint:      endpoint,
		APIMethod:        method,
		Language:         language,
		Text:             text,
	}
}

// detectLanguage asks the model for a fr/en verdict. Any failure or surprise
// falls back to French, the deployment's primary language.
func (c *Client) detectLanguage(ctx context.Context, text string) string {
	content, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: languageDetectionPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		c.log.Warn("Language detection failed, falling back to fr", zap.Error(err))
		return "fr"
	}

	lang := strings.ToLower(strings.TrimSpace(content))
	if lang != "fr" && lang != "en" {
		c.log.Warn("Unexpected language verdict, falling back to fr", zap.String("verdict", lang))
		return "fr"
	}
	return lang
}

// stringifyParams flattens the model's loosely typed parameter object into
// the string map the session core works with.
func stringifyParams(raw json.RawMessage) map[string]string {
	params := make(map[string]string)
	if len(raw) == 0 {
		return params
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return params
	}
	for k, v := range generic {
		switch val := v.(type) {
		case string:
			params[k] = val
		case float64:
			params[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			params[k] = fmt.Sprintf("%t", val)
		case nil:
			// Absent slot; leave it out so it counts as missing.
		default:
			encoded, err := json.Marshal(val)
			if err == nil {
				params[k] = string(encoded)
			}
		}
	}
	return params
}

// validateParams applies the shared business validation to the values the
// model extracted. Phone numbers are normalized in place.
func validateParams(intent string, params map[string]string) []string {
	var errs []string
	for key, value := range params {
		switch key {
		case "phoneNumber", "senderPhone", "recipientPhone":
			params[key] = validation.NormalizePhone(value)
			if !validation.ValidPhone(value) {
				errs = append(errs, fmt.Sprintf("invalid phone number for %s: %s", key, value))
			}
		case "amount":
			if !validation.ValidAmount(value) {
				errs = append(errs, fmt.Sprintf("invalid amount: %s", value))
			}
		case "age":
			if intent == domain.IntentCreateAccount && !validation.ValidAge(value) {
				errs = append(errs, fmt.Sprintf("invalid age: %s", value))
			}
		case "sex":
			if intent == domain.IntentCreateAccount && !validation.ValidSex(value) {
				errs = append(errs, fmt.Sprintf("invalid sex: %s", value))
			}
		}
	}
	return errs
}
