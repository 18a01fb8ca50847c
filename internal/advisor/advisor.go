// Package advisor asks a chat model for a trade directive based on news.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"news-trader/internal/article"
	"news-trader/internal/order"
)

var log = logrus.WithField("component", "advisor")

const (
	DefaultModel = openai.GPT3Dot5Turbo
	DefaultAsset = "AVAX"
)

// ErrEmptyResponse is returned when the model sends no choices back.
var ErrEmptyResponse = errors.New("advisor: empty completion")

// ChatClient is satisfied by *openai.Client.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	Client       ChatClient
	Model        string
	Prompt       string // system message describing the reply grammar
	DefaultAsset string // substituted for "buy all"
}

type Advisor struct {
	client       ChatClient
	model        string
	prompt       string
	defaultAsset string
}

func New(cfg Config) *Advisor {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.DefaultAsset == "" {
		cfg.DefaultAsset = DefaultAsset
	}
	return &Advisor{
		client:       cfg.Client,
		model:        cfg.Model,
		prompt:       cfg.Prompt,
		defaultAsset: cfg.DefaultAsset,
	}
}

// NewOpenAI builds an advisor on the OpenAI API, or on a compatible
// endpoint when baseURL is set.
func NewOpenAI(apiKey, baseURL string, cfg Config) *Advisor {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	cfg.Client = openai.NewClientWithConfig(clientCfg)
	return New(cfg)
}

// Advise sends the articles as JSON and parses the first reply. ok is false
// when the reply does not follow the directive grammar; that case is logged
// and is not an error.
func (a *Advisor) Advise(ctx context.Context, articles []article.Article) (order.Directive, bool, error) {
	payload, err := json.Marshal(articles)
	if err != nil {
		return order.Directive{}, false, fmt.Errorf("encode articles: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.prompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return order.Directive{}, false, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return order.Directive{}, false, ErrEmptyResponse
	}

	text := resp.Choices[0].Message.Content
	d, ok := ParseDirective(text, a.defaultAsset)
	if !ok {
		log.WithField("response", text).Info("invalid response")
		return order.Directive{}, false, nil
	}
	log.WithField("directive", d.String()).Info("trade advice")
	return d, true, nil
}
