package aiprovider

import "encoding/json"

// OpenAI-compatible chat completions (also used for AzureOpenAI/Custom).

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func buildOpenAIChat(prompt string, cfg GenerationConfig) (string, any) {
	return "/v1/chat/completions", openAIChatRequest{
		Model:       cfg.Model,
		Messages:    []openAIChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

func parseOpenAIChat(data []byte) (string, error) {
	var resp openAIChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func buildOpenAIEmbed(text, model string) (string, any) {
	return "/v1/embeddings", openAIEmbedRequest{Model: model, Input: text}
}

func parseOpenAIEmbed(data []byte) ([]float32, error) {
	var resp openAIEmbedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errEmptyResponse
	}
	return resp.Data[0].Embedding, nil
}

// Anthropic Messages API.

type anthropicChatRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	Messages  []openAIChatMessage `json:"messages"`
}

type anthropicChatResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func buildAnthropicChat(prompt string, cfg GenerationConfig) (string, any) {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return "/v1/messages", anthropicChatRequest{
		Model:     cfg.Model,
		MaxTokens: maxTokens,
		Messages:  []openAIChatMessage{{Role: "user", Content: prompt}},
	}
}

func parseAnthropicChat(data []byte) (string, error) {
	var resp anthropicChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errEmptyResponse
	}
	return resp.Content[0].Text, nil
}

// Gemini generateContent API.

type geminiChatRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiChatResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func buildGeminiChat(prompt string, _ GenerationConfig) (string, any) {
	return "/v1beta/models/gemini:generateContent", geminiChatRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
}

func parseGeminiChat(data []byte) (string, error) {
	var resp geminiChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyResponse
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

var errEmptyResponse = emptyResponseError{}

type emptyResponseError struct{}

func (emptyResponseError) Error() string { return "provider returned an empty response" }
