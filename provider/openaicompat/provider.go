// Package openaicompat implements the provider capability contract on top
// of any OpenAI-compatible chat-completions API. Most commercial backends
// (and many self-hosted gateways) speak this dialect, so one adapter
// covers the whole enabled-provider roster.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/money3x/councilflow/internal/tlsutil"
	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/types"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultEndpoint = "/v1/chat/completions"
	defaultModels   = "/v1/models"
)

// Provider is an OpenAI-compatible chat-completions adapter. It satisfies
// the full optional-extension set: health probing via the models endpoint,
// role and specialty assignment folded into the system prompt, and
// teardown closing idle connections.
type Provider struct {
	cfg    provider.Config
	client *http.Client
	logger *zap.Logger

	mu          sync.RWMutex
	role        string
	specialties []string
}

// New creates an adapter from an enabled-provider record. A nil logger
// defaults to noop.
func New(cfg provider.Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("provider", cfg.Identifier)),
	}
}

// Constructor returns a registry constructor for this adapter.
func Constructor(logger *zap.Logger) provider.Constructor {
	return func(_ context.Context, cfg provider.Config) (provider.Provider, error) {
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, types.NewErrorf(types.ErrConfiguration,
				"provider %q has no base_url", cfg.Identifier)
		}
		return New(cfg, logger), nil
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return p.cfg.Identifier }

// SetRole records the council role. The role is prepended to every
// request as part of the system prompt.
func (p *Provider) SetRole(role string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.role = role
	return nil
}

// SetSpecialties records the provider's specialty list.
func (p *Provider) SetSpecialties(specialties []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.specialties = append([]string(nil), specialties...)
	return nil
}

// Teardown closes idle connections held by the HTTP client.
func (p *Provider) Teardown(_ context.Context) error {
	p.client.CloseIdleConnections()
	return nil
}

// systemPrompt renders the role/specialty assignment as a system message.
// Empty when neither has been set.
func (p *Provider) systemPrompt() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.role == "" && len(p.specialties) == 0 {
		return ""
	}
	var b strings.Builder
	if p.role != "" {
		fmt.Fprintf(&b, "You are the %s of an editorial council.", p.role)
	}
	if len(p.specialties) > 0 {
		fmt.Fprintf(&b, " Your specialties: %s.", strings.Join(p.specialties, ", "))
	}
	return b.String()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *Provider) endpoint(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// Generate performs a single non-streaming chat completion and returns
// the first choice's content.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if sys := p.systemPrompt(); sys != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: sys})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{Model: p.cfg.Model, Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint(defaultEndpoint), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", types.NewError(types.ErrUpstreamError, err.Error()).
			WithProvider(p.Name()).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", mapHTTPError(resp.StatusCode, readErrorMessage(resp.Body), p.Name())
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewError(types.ErrUpstreamError, err.Error()).
			WithProvider(p.Name()).WithRetryable(true).WithCause(err)
	}
	if len(out.Choices) == 0 {
		return "", types.NewError(types.ErrUpstreamError, "empty choices in response").
			WithProvider(p.Name())
	}

	p.logger.Debug("generation completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_len", len(prompt)))
	return out.Choices[0].Message.Content, nil
}

// ProbeHealth verifies the provider is reachable via the models endpoint.
func (p *Provider) ProbeHealth(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.endpoint(defaultModels), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return types.NewError(types.ErrHealthCheck, err.Error()).
			WithProvider(p.Name()).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.NewErrorf(types.ErrHealthCheck,
			"health probe failed: status=%d msg=%s",
			resp.StatusCode, readErrorMessage(resp.Body)).WithProvider(p.Name())
	}
	return nil
}

// readErrorMessage extracts the upstream error message from a failed
// response body, falling back to the raw body.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

// mapHTTPError converts an upstream HTTP status into a structured error.
func mapHTTPError(status int, msg, providerName string) error {
	code := types.ErrUpstreamError
	retryable := status >= 500
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		code = types.ErrUpstreamTimeout
		retryable = true
	case status == http.StatusTooManyRequests:
		retryable = true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = types.ErrProviderUnavailable
		retryable = false
	}
	return types.NewErrorf(code, "upstream status %d: %s", status, msg).
		WithProvider(providerName).WithRetryable(retryable)
}
