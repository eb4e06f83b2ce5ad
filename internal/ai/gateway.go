// Package ai wraps the external generative-text service behind two pure
// text-in, text-out operations. The gateway holds no state between calls and
// every failure is recoverable: callers keep the pre-request content.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/whitelex/ai-writer-assistant/internal/books"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-3-flash-preview"
	defaultTimeout = 30 * time.Second
)

// ErrUnavailable indicates the gateway has no API key configured or the
// upstream service could not be reached. A missing key is detected at call
// time so startup never depends on AI configuration.
var ErrUnavailable = errors.New("ai: service unavailable")

// GatewayConfig configures the generative-text client.
type GatewayConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Gateway issues non-streaming completion requests against the generative
// text API.
type Gateway struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGateway constructs a gateway. An empty API key is allowed; calls will
// fail with ErrUnavailable until one is provided.
func NewGateway(cfg GatewayConfig) *Gateway {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// Configured reports whether the gateway holds an API key.
func (g *Gateway) Configured() bool {
	return g.apiKey != ""
}

// FixGrammar corrects grammar, spelling, and punctuation of an HTML fragment
// while preserving its markup. Blank input is returned unchanged without a
// network call.
func (g *Gateway) FixGrammar(ctx context.Context, html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return html, nil
	}

	prompt := fmt.Sprintf("HTML: %q", html)
	suggestion, err := g.complete(ctx, prompt, grammarSystemPrompt, 0.1)
	if err != nil {
		return "", err
	}
	if suggestion == "" {
		return html, nil
	}
	return suggestion, nil
}

// ExpandText grows a snippet with a few sentences of matching-style detail,
// using the tail of the chapter as context. The snippet is stripped of markup
// before it is sent.
func (g *Gateway) ExpandText(ctx context.Context, snippet, fullHTML string) (string, error) {
	plain := books.StripTags(snippet)
	if plain == "" {
		return "", fmt.Errorf("ai: nothing to expand")
	}

	window := fullHTML
	if len(window) > contextWindowChars {
		window = window[len(window)-contextWindowChars:]
	}
	prompt := fmt.Sprintf("Context of the chapter (in HTML): %q\nSnippet to expand: %q", window, plain)
	suggestion, err := g.complete(ctx, prompt, expandSystemPrompt, 0.8)
	if err != nil {
		return "", err
	}
	if suggestion == "" {
		return plain, nil
	}
	return suggestion, nil
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (g *Gateway) complete(ctx context.Context, userPrompt, systemPrompt string, temperature float64) (string, error) {
	if !g.Configured() {
		return "", fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	body := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: userPrompt}},
		}},
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		GenerationConfig:  &generationConfig{Temperature: temperature, MaxOutputTokens: 4096},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := g.client.Do(request)
	if err != nil {
		g.logger.Warn("ai request failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if decoded.Error != nil {
		g.logger.Warn("ai service rejected request",
			zap.Int("code", decoded.Error.Code),
			zap.String("status", decoded.Error.Status))
		return "", fmt.Errorf("%w: upstream error %d: %s", ErrUnavailable, decoded.Error.Code, decoded.Error.Message)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("%w: upstream status %d", ErrUnavailable, response.StatusCode)
	}

	for _, candidate := range decoded.Candidates {
		for _, candidatePart := range candidate.Content.Parts {
			if text := strings.TrimSpace(candidatePart.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", nil
}
