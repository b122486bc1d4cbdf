package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chefwise/chefwise-api/internal/domain"
	"github.com/chefwise/chefwise-api/pkg/logger"
	openai "github.com/sashabaranov/go-openai"
)

// Gateway шлюз к модели генерации текста
type Gateway interface {
	// Complete выполняет чат-комплишен и возвращает текст первого choice
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// CompleteJSON выполняет комплишен и разбирает ответ как JSON в out
	CompleteJSON(ctx context.Context, req CompletionRequest, out interface{}) error
}

// CompletionRequest запрос на комплишен
type CompletionRequest struct {
	Model       string
	Messages    []domain.ChatMessage
	// SystemPrompt добавляется первым сообщением, если не пуст
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	// ImageURL data-URL изображения; при наличии последнее сообщение
	// отправляется как мультимодальное
	ImageURL string
}

// Client реализация Gateway поверх OpenAI API
type Client struct {
	api     *openai.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewClient создает клиента с таймаутом на каждый вызов
func NewClient(apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		api:     openai.NewClient(apiKey),
		timeout: timeout,
		log:     log,
	}
}

// Complete выполняет запрос к модели
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()

	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return "", c.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewProviderError("openai", "complete", domain.ErrMalformedResponse)
	}

	c.log.Debugw("Completion finished", "model", req.Model, "duration", time.Since(started))

	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON выполняет запрос и разбирает ответ как JSON, снимая markdown-ограждения
func (c *Client) CompleteJSON(ctx context.Context, req CompletionRequest, out interface{}) error {
	raw, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}

	cleaned := StripJSONFences(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		c.log.Warnw("Failed to parse model response as JSON", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	return nil
}

func (c *Client) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for i, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}

		if req.ImageURL != "" && i == len(req.Messages)-1 {
			messages = append(messages, openai.ChatCompletionMessage{
				Role: role,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: m.Content},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: req.ImageURL,
						},
					},
				},
			})
			continue
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

// mapError переводит ошибки провайдера в доменную таксономию
func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrCompletionTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return domain.ErrProviderRateLimited
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return domain.ErrProviderAuth
		case apiErr.HTTPStatusCode >= 500:
			return domain.ErrProviderUnavailable
		}
	}

	return domain.NewProviderError("openai", "complete", err)
}

// StripJSONFences удаляет markdown-ограждения ```json / ``` вокруг ответа
func StripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json\n")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```\n")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
