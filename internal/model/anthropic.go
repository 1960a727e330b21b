package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/soochol/flowmart/internal/config"
)

// Compile-time interface compliance check.
var _ adkmodel.LLM = (*AnthropicLLM)(nil)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	defaultMaxTokens        = 1024
)

// AnthropicOption configures an AnthropicLLM.
type AnthropicOption func(*AnthropicLLM)

// WithAnthropicBaseURL sets the base URL for the Anthropic API.
// Useful for testing with httptest.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(a *AnthropicLLM) {
		a.baseURL = url
	}
}

// AnthropicLLM calls the Anthropic Messages API.
type AnthropicLLM struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAnthropicLLM creates a new AnthropicLLM with the given API key and options.
func NewAnthropicLLM(apiKey string, opts ...AnthropicOption) *AnthropicLLM {
	a := &AnthropicLLM{
		apiKey:  apiKey,
		baseURL: defaultAnthropicBaseURL,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns "anthropic".
func (a *AnthropicLLM) Name() string {
	return "anthropic"
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int32         `json:"max_tokens"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// GenerateContent yields exactly one response; stream is accepted for
// interface compliance only.
func (a *AnthropicLLM) GenerateContent(ctx context.Context, req *adkmodel.LLMRequest, stream bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		yield(a.generate(ctx, req))
	}
}

func (a *AnthropicLLM) generate(ctx context.Context, req *adkmodel.LLMRequest) (*adkmodel.LLMResponse, error) {
	body := anthropicRequest{
		Model:     req.Model,
		System:    systemText(req),
		Messages:  chatMessages(req),
		MaxTokens: defaultMaxTokens,
	}
	if req.Config != nil {
		if req.Config.MaxOutputTokens > 0 {
			body.MaxTokens = req.Config.MaxOutputTokens
		}
		body.Temperature = req.Config.Temperature
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	emitLog(ctx, fmt.Sprintf("anthropic: calling model %s", req.Model))
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	reason := genai.FinishReasonStop
	if apiResp.StopReason == "max_tokens" {
		reason = genai.FinishReasonMaxTokens
	}
	return textResponse(sb.String(), reason), nil
}

func init() {
	RegisterProvider("anthropic", func(_ string, cfg config.ProviderConfig) adkmodel.LLM {
		var opts []AnthropicOption
		if cfg.URL != "" {
			opts = append(opts, WithAnthropicBaseURL(cfg.URL))
		}
		return NewAnthropicLLM(cfg.APIKey, opts...)
	})
}
