// Package llm provides the generation provider adapter over the
// OpenAI-compatible chat completion protocol.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// FinishReason describes how the provider terminated a completion.
type FinishReason string

const (
	// FinishStop means the model stopped normally.
	FinishStop FinishReason = "stop"
	// FinishLength means generation was truncated by the token limit.
	FinishLength FinishReason = "length"
	// FinishEmpty means the provider produced no usable output.
	FinishEmpty FinishReason = "empty"
)

// CallStats represents token usage and timing for a single call.
type CallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// Completion is the result of a chat call. Callers must handle all three
// finish outcomes: normal stop, length truncation, and empty output.
type Completion struct {
	Content      string
	FinishReason FinishReason
	Stats        *CallStats
}

// Service is the generation provider interface.
type Service interface {
	// Chat performs a synchronous chat completion.
	Chat(ctx context.Context, messages []Message) (*Completion, error)
}

// Config represents generation service configuration.
type Config struct {
	Provider    string // openai, deepseek, siliconflow, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 120)
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int
}

// newHTTPClient builds an HTTP client with connection pooling suitable for
// repeated completion calls. Per-request deadlines come from the context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewService creates a new generation Service.
func NewService(cfg *Config) (Service, error) {
	httpClient := newHTTPClient()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = httpClient

	switch cfg.Provider {
	case "deepseek":
		clientConfig.BaseURL = defaultString(cfg.BaseURL, "https://api.deepseek.com")
	case "siliconflow":
		clientConfig.BaseURL = defaultString(cfg.BaseURL, "https://api.siliconflow.cn/v1")
	case "ollama":
		clientConfig.BaseURL = defaultString(cfg.BaseURL, "http://localhost:11434")
	case "openai":
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	default:
		// Generic fallback for any other OpenAI-compatible provider.
		slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	client := openai.NewClientWithConfig(clientConfig)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &service{
		client:      client,
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func (s *service) Chat(ctx context.Context, messages []Message) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("LLM: Chat request",
		"model", s.model,
		"messages_count", len(messages),
		"max_tokens", s.maxTokens,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: Chat request failed", "error", err)
		return nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	totalDuration := time.Since(startTime)
	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	if len(resp.Choices) == 0 {
		slog.Warn("LLM: Empty response from provider", "model", s.model)
		return &Completion{FinishReason: FinishEmpty, Stats: stats}, nil
	}

	choice := resp.Choices[0]
	completion := &Completion{
		Content: choice.Message.Content,
		Stats:   stats,
	}
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		completion.FinishReason = FinishLength
	case openai.FinishReasonStop:
		completion.FinishReason = FinishStop
	default:
		completion.FinishReason = FinishReason(choice.FinishReason)
	}
	if completion.Content == "" {
		completion.FinishReason = FinishEmpty
	}

	slog.Debug("LLM: Chat response received",
		"content_length", len(completion.Content),
		"finish_reason", completion.FinishReason,
		"total_tokens", stats.TotalTokens,
		"duration_ms", totalDuration.Milliseconds(),
	)

	return completion, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return converted
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: openai.ChatMessageRoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: openai.ChatMessageRoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: openai.ChatMessageRoleAssistant, Content: content}
}
