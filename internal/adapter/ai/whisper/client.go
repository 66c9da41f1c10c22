package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/observability/telemetry"
)

const defaultModel = "whisper-large-v3"

// Client transcribes audio through Groq's hosted Whisper endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(apiKey, baseURL, model string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
	}
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Transcribe uploads one audio payload and returns the cleaned transcript.
// language is a hint; "auto" lets the model detect it.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string, language string) (*domain.Transcription, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("whisper: API key not configured")
	}

	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("whisper: build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("whisper: build form: %w", err)
	}
	writer.WriteField("model", c.model)
	writer.WriteField("response_format", "verbose_json")
	if language != "" && language != "auto" {
		writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("whisper: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("whisper: decode response: %w", err)
	}

	telemetry.TranscriptionLatency.Observe(time.Since(start).Seconds())

	cleaned := CleanTranscript(tr.Text)
	c.log.Info("Transcription complete",
		zap.String("language", tr.Language),
		zap.Int("chars", len(cleaned)),
	)

	return &domain.Transcription{
		Text:       cleaned,
		RawText:    tr.Text,
		Language:   tr.Language,
		Confidence: confidenceFromSegments(tr.Segments),
	}, nil
}

// confidenceFromSegments turns per-segment average log-probabilities into a
// rough 0..1 confidence. No segments means no signal, so 0.5.
func confidenceFromSegments(segments []struct {
	AvgLogprob float64 `json:"avg_logprob"`
}) float64 {
	if len(segments) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, seg := range segments {
		sum += math.Exp(seg.AvgLogprob)
	}
	conf := sum / float64(len(segments))
	if conf > 1 {
		conf = 1
	}
	return conf
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
