package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrEmptyCompletion is returned when the endpoint answers without any choice.
var ErrEmptyCompletion = errors.New("no choices returned")

const (
	defaultTemperature = 0.2
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 2
)

// Client is a client for an OpenAI-compatible chat completions endpoint
// (OpenAI itself, llama.cpp server, Ollama, vLLM).
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	client      openai.Client
}

// NewClient creates a new LLM client. baseURL must include the API version
// prefix, e.g. "http://localhost:8080/v1".
func NewClient(baseURL, apiKey, model string, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(defaultMaxRetries),
		option.WithHTTPClient(&http.Client{Timeout: defaultTimeout}),
	}
	return &Client{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: defaultTemperature,
		client:      openai.NewClient(append(base, opts...)...),
	}
}

// Chat sends a single user message and returns the reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	return c.ChatWithMessages(ctx, []Message{{Role: RoleUser, Content: message}}, ChatParams{})
}

// ChatWithMessages sends a chat completion request with an explicit message list.
// Zero-valued params fall back to the client defaults.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("at least one message is required")
	}

	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			converted = append(converted, openai.SystemMessage(m.Content))
		case RoleAssistant:
			converted = append(converted, openai.AssistantMessage(m.Content))
		case RoleUser:
			converted = append(converted, openai.UserMessage(m.Content))
		default:
			return "", fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	model := params.Model
	if model == "" {
		model = c.Model
	}
	temperature := params.Temperature
	if temperature == 0 {
		temperature = c.Temperature
	}

	req := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    converted,
		Temperature: openai.Float(temperature),
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(params.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("bad status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
