package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/observability/telemetry"
)

// Client executes resolved banking actions against the Bafoka API. One call
// per Execute; retry policy belongs to the caller. The circuit breaker keeps
// a flapping backend from stalling every voice turn behind full timeouts.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bafoka-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Bafoka circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		log:        log,
	}
}

// Execute performs one banking call. HTTP-level failures (4xx/5xx) come back
// as a structured result with Success=false; transport failures and an open
// breaker return an error.
func (c *Client) Execute(ctx context.Context, action domain.BankingAction) (*domain.ExecutionResult, error) {
	start := time.Now()

	c.log.Info("Bafoka API call",
		zap.String("method", action.Method),
		zap.String("endpoint", action.Endpoint),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, action)
	})

	telemetry.BankingLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.BankingExecutions.WithLabelValues(action.Endpoint, "error").Inc()
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("bafoka: backend unavailable: %w", err)
		}
		return nil, err
	}

	exec := result.(*domain.ExecutionResult)
	outcome := "failure"
	if exec.Success {
		outcome = "success"
	}
	telemetry.BankingExecutions.WithLabelValues(action.Endpoint, outcome).Inc()
	return exec, nil
}

func (c *Client) do(ctx context.Context, action domain.BankingAction) (*domain.ExecutionResult, error) {
	var req *http.Request
	var err error

	endpoint := c.baseURL + action.Endpoint

	switch strings.ToUpper(action.Method) {
	case http.MethodPost:
		payload, merr := json.Marshal(action.Parameters)
		if merr != nil {
			return nil, fmt.Errorf("bafoka: marshal parameters: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	case http.MethodGet:
		query := url.Values{}
		for k, v := range action.Parameters {
			query.Set(k, v)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	default:
		return nil, fmt.Errorf("bafoka: unsupported HTTP method: %s", action.Method)
	}
	if err != nil {
		return nil, fmt.Errorf("bafoka: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bafoka: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bafoka: read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		// Server errors count as breaker failures.
		return nil, fmt.Errorf("bafoka: server error %d", resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		c.log.Warn("Bafoka API rejected action",
			zap.String("endpoint", action.Endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return &domain.ExecutionResult{
			Success:    false,
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("Bafoka API error %d: %s", resp.StatusCode, truncate(body, 200)),
		}, nil
	}

	return &domain.ExecutionResult{
		Success:    true,
		StatusCode: resp.StatusCode,
		Data:       json.RawMessage(body),
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
