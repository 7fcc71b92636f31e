package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiliankoe/pinpoint/internal/ai"
	"github.com/rs/zerolog/log"
)

type Answer string

const (
	AnswerYes   Answer = "Yes"
	AnswerNo    Answer = "No"
	AnswerMaybe Answer = "Maybe"
)

// Asker answers a yes/no question about the secret.
type Asker interface {
	Ask(ctx context.Context, question, secret string, mode Mode) Answer
}

// AskerFunc adapts a function to Asker.
type AskerFunc func(ctx context.Context, question, secret string, mode Mode) Answer

func (f AskerFunc) Ask(ctx context.Context, question, secret string, mode Mode) Answer {
	return f(ctx, question, secret, mode)
}

// Normalize maps a free-text reply to an Answer. Plain substring matching,
// "yes" first: "Yes, but also no" is Yes and "Not sure" is No.
func Normalize(reply string) Answer {
	r := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.Contains(r, "yes"):
		return AnswerYes
	case strings.Contains(r, "no"):
		return AnswerNo
	default:
		return AnswerMaybe
	}
}

// SystemPrompt is the instruction context sent with every question.
func SystemPrompt(secret string, mode Mode) string {
	return fmt.Sprintf(`You are playing a geography guessing game. The secret %s is "%s".
Answer the user's yes/no question with only "Yes", "No", or "Maybe" (if uncertain).
Be accurate about geographical facts.`, mode, secret)
}

var errEmptyReply = errors.New("empty reply")

// Oracle answers questions through a hosted completion provider. It never
// fails: provider errors and timeouts degrade to Maybe and are logged.
type Oracle struct {
	provider ai.Provider
	model    string
	timeout  time.Duration
}

func NewOracle(p ai.Provider, model string, timeout time.Duration) *Oracle {
	return &Oracle{provider: p, model: model, timeout: timeout}
}

func (o *Oracle) Ask(ctx context.Context, question, secret string, mode Mode) Answer {
	start := time.Now()
	reply, err := o.complete(ctx, question, secret, mode)
	if err != nil {
		log.Error().Err(err).Str("mode", string(mode)).Str("model", o.model).Dur("dur", time.Since(start)).Msg("oracle failed, answering Maybe")
		return AnswerMaybe
	}
	answer := Normalize(reply)
	log.Debug().Str("reply", reply).Str("answer", string(answer)).Dur("dur", time.Since(start)).Msg("oracle")
	return answer
}

func (o *Oracle) complete(ctx context.Context, question, secret string, mode Mode) (string, error) {
	if o == nil || o.provider == nil {
		return "", errors.New("no provider configured")
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	reply, err := o.provider.CompleteWithSystem(ctx, o.model, SystemPrompt(secret, mode), question)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errEmptyReply
	}
	return reply, nil
}
