// Package assistant, sohbette @mention ile çağrılan asistanın cevabını üretir.
//
// OpenAI chat completion API'si kullanılır. API key boşsa asistan kapalıdır
// (New nil döner) ve message service hook'u hiç çalıştırmaz.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Nevojt/company-chat/pkg/metrics"
)

// FallbackReply, üretim başarısız olduğunda odaya gönderilen cevap.
const FallbackReply = "Sorry, I couldn't process your request."

// DefaultModel, ASSISTANT_MODEL verilmezse kullanılan model.
const DefaultModel = openai.GPT4oMini

// Generator, bir prompt'a metin cevabı üretir.
type Generator interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

// Client, go-openai üzerinden Generator implementasyonu.
type Client struct {
	api   *openai.Client
	model string
}

// New, apiKey boşsa nil döner.
func New(apiKey, model string) *Client {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClient(apiKey), model: model}
}

// GenerateReply, prompt'u tek bir user mesajı olarak gönderir.
func (c *Client) GenerateReply(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 1,
		MaxTokens:   256,
		TopP:        1,
	})
	if err != nil {
		return "", fmt.Errorf("assistant completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("assistant completion: empty choices")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("assistant completion: empty reply")
	}
	return reply, nil
}

// ReplyOrFallback, g'den cevap alır; hata durumunda FallbackReply döner.
// İkinci dönüş değeri üretimin başarılı olup olmadığıdır.
func ReplyOrFallback(ctx context.Context, g Generator, prompt string) (string, bool) {
	reply, err := g.GenerateReply(ctx, prompt)
	if err != nil {
		metrics.AssistantRequests.WithLabelValues("fallback").Inc()
		return FallbackReply, false
	}
	metrics.AssistantRequests.WithLabelValues("ok").Inc()
	return reply, true
}
