package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/article"
	"news-trader/internal/order"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		text string
		want order.Directive
		ok   bool
	}{
		{"sell BTC", order.Directive{Direction: order.Sell, Asset: "BTC"}, true},
		{"  sell eth \n", order.Directive{Direction: order.Sell, Asset: "ETH"}, true},
		{"sell all", order.Directive{Direction: order.Sell, Asset: order.AllAssets}, true},
		{"buy all 10", order.Directive{Direction: order.Buy, Asset: "AVAX", Duration: 10 * time.Hour}, true},
		{"BUY sol 6 because ETF", order.Directive{Direction: order.Buy, Asset: "SOL", Duration: 6 * time.Hour}, true},
		{"buy ETH", order.Directive{}, false},
		{"buy ETH soon", order.Directive{}, false},
		{"buy ETH -3", order.Directive{}, false},
		{"buy BTC 3000000", order.Directive{}, false},
		{"buy BTC 99999999999999999999", order.Directive{}, false},
		{"buy BTC 2562047", order.Directive{Direction: order.Buy, Asset: "BTC", Duration: 2562047 * time.Hour}, true},
		{"hold BTC", order.Directive{}, false},
		{"sell BTC now", order.Directive{}, false},
		{"sell", order.Directive{}, false},
		{"", order.Directive{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseDirective(tt.text, "AVAX")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeChat struct {
	req   openai.ChatCompletionRequest
	reply string
	err   error
	empty bool
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.empty {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
	}}, nil
}

func TestAdviseSendsArticlesAsJSON(t *testing.T) {
	chat := &fakeChat{reply: "buy BTC 5"}
	a := New(Config{Client: chat, Prompt: "reply with buy or sell"})

	articles := []article.Article{{Title: "BTC rallies"}}
	d, ok, err := a.Advise(context.Background(), articles)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order.Directive{Direction: order.Buy, Asset: "BTC", Duration: 5 * time.Hour}, d)

	assert.Equal(t, DefaultModel, chat.req.Model)
	require.Len(t, chat.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, chat.req.Messages[0].Role)
	assert.Equal(t, "reply with buy or sell", chat.req.Messages[0].Content)

	var sent []article.Article
	require.NoError(t, json.Unmarshal([]byte(chat.req.Messages[1].Content), &sent))
	assert.Equal(t, "BTC rallies", sent[0].Title)
}

func TestAdviseInvalidReply(t *testing.T) {
	a := New(Config{Client: &fakeChat{reply: "hold BTC"}})
	_, ok, err := a.Advise(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdviseErrors(t *testing.T) {
	a := New(Config{Client: &fakeChat{err: errors.New("429")}})
	_, _, err := a.Advise(context.Background(), nil)
	assert.ErrorContains(t, err, "429")

	a = New(Config{Client: &fakeChat{empty: true}})
	_, _, err = a.Advise(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
