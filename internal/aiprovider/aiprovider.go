// Package aiprovider defines the narrow AIProvider collaborator contract
// (spec.md §6) and HTTP-backed implementations for the configured
// providers. Grounded on go-enhanced-rag-service/embedding_service.go and
// unified-rag-service/rag_implementations.go's generateEmbeddingViaOllama,
// generalized from one hardcoded Ollama endpoint into a provider-kind
// switch with the same "POST JSON, decode JSON" shape per provider.
package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Kind enumerates the configurable AI providers (spec.md §6).
type Kind string

const (
	OpenAI      Kind = "OpenAI"
	Anthropic   Kind = "Anthropic"
	Gemini      Kind = "Gemini"
	AzureOpenAI Kind = "AzureOpenAI"
	Custom      Kind = "Custom"
)

// GenerationConfig parameterizes a single GenerateText call.
type GenerationConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Provider is the narrow collaborator interface every LLM/embedding
// backend implements; orchestrator components depend only on this.
type Provider interface {
	Kind() Kind
	GenerateText(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// HTTPProvider is a generic JSON-over-HTTP Provider implementation
// covering OpenAI-compatible, Anthropic, Gemini, Azure OpenAI, and custom
// endpoints. Each provider kind supplies its own request/response shape
// via the buildChatRequest/parseChatResponse and
// buildEmbedRequest/parseEmbedResponse funcs so the transport plumbing
// (timeout, status-code handling) is shared.
type HTTPProvider struct {
	kind       Kind
	baseURL    string
	apiKey     string
	embedModel string
	client     *http.Client

	buildChatRequest   func(prompt string, cfg GenerationConfig) (path string, body any)
	parseChatResponse  func([]byte) (string, error)
	buildEmbedRequest  func(text, model string) (path string, body any)
	parseEmbedResponse func([]byte) ([]float32, error)
}

// NewHTTPProvider constructs a provider for kind, pointed at baseURL.
// Unknown kinds fall back to the OpenAI-compatible shape (the Custom
// provider kind uses this path deliberately).
func NewHTTPProvider(kind Kind, baseURL, apiKey, embedModel string) *HTTPProvider {
	p := &HTTPProvider{
		kind:       kind,
		baseURL:    baseURL,
		apiKey:     apiKey,
		embedModel: embedModel,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	switch kind {
	case Anthropic:
		p.buildChatRequest = buildAnthropicChat
		p.parseChatResponse = parseAnthropicChat
	case Gemini:
		p.buildChatRequest = buildGeminiChat
		p.parseChatResponse = parseGeminiChat
	default: // OpenAI, AzureOpenAI, Custom
		p.buildChatRequest = buildOpenAIChat
		p.parseChatResponse = parseOpenAIChat
	}
	p.buildEmbedRequest = buildOpenAIEmbed
	p.parseEmbedResponse = parseOpenAIEmbed
	return p
}

func (p *HTTPProvider) Kind() Kind { return p.kind }

func (p *HTTPProvider) GenerateText(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	path, body := p.buildChatRequest(prompt, cfg)
	data, err := p.do(ctx, path, body)
	if err != nil {
		return "", err
	}
	return p.parseChatResponse(data)
}

func (p *HTTPProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	path, body := p.buildEmbedRequest(text, p.embedModel)
	data, err := p.do(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return p.parseEmbedResponse(data)
}

func (p *HTTPProvider) do(ctx context.Context, path string, body any) ([]byte, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider %s returned status %d", p.kind, resp.StatusCode)
	}
	out := make([]byte, 0, 4096)
	buf2 := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf2)
		out = append(out, buf2[:n]...)
		if rerr != nil {
			break
		}
	}
	return out, nil
}
