// Package sentiment labels short free text as distressed, negative or neutral
// using a small hosted model.
package sentiment

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/logging"
)

type Label string

const (
	Distressed Label = "distressed"
	Negative   Label = "negative"
	Neutral    Label = "neutral"
)

const (
	// MinTextLength is the rune count below which text is not worth a remote call.
	MinTextLength = 20
	// MaxTextLength caps the runes sent to the model.
	MaxTextLength = 1000
	MaxTokens     = 10
)

const instruction = "You classify the emotional state of a message written by an employee " +
	"who may be reporting workplace harassment. Reply with exactly one word: " +
	"distressed, negative or neutral. Use distressed for fear, panic, hopelessness " +
	"or any mention of self-harm or immediate danger."

// zeroTemperature stands in for 0, which go-openai omits from the request body.
const zeroTemperature = math.SmallestNonzeroFloat32

type Classifier struct {
	client  llm.ChatCompleter
	model   string
	timeout time.Duration
}

// New returns a classifier. A zero timeout leaves the call bounded only by ctx.
func New(client llm.ChatCompleter, model string, timeout time.Duration) *Classifier {
	return &Classifier{client: client, model: model, timeout: timeout}
}

// Classify never fails: short input, remote errors and unrecognised replies
// all yield Neutral.
func (c *Classifier) Classify(ctx context.Context, text string) Label {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return Neutral
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	done := logging.LogDuration(ctx, "sentiment_classify")
	defer done()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: zeroTemperature,
		MaxTokens:   MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: truncate(text, MaxTextLength)},
		},
	})
	if err != nil {
		logging.AppLogger.Warn("sentiment request failed", zap.String("model", c.model), zap.Error(err))
		return Neutral
	}
	if len(resp.Choices) == 0 {
		logging.AppLogger.Warn("sentiment response had no choices", zap.String("model", c.model))
		return Neutral
	}
	return ParseLabel(resp.Choices[0].Message.Content)
}

// ParseLabel maps raw model output to a Label. "distressed" is checked before
// "negative", so a reply containing both is Distressed.
func ParseLabel(raw string) Label {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, string(Distressed)):
		return Distressed
	case strings.Contains(s, string(Negative)):
		return Negative
	default:
		return Neutral
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
