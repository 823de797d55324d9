package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/models"
	"github.com/Lumora-Labs/lumora-go-router/utils"
)

const memoryUnavailableReply = "Память сейчас недоступна, попробуй позже."

// memoryCommand executes explicit memory verbs against the vector memory:
// "запомни X" stores a fact, "забудь X" removes the closest facts, anything
// else ("что ты помнишь", "покажи память") recalls.
func (d *Dispatcher) memoryCommand(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	index, err := d.memory(in.SessionID)
	if err != nil {
		zap.L().Warn("vector memory unavailable", zap.Error(err))
	}
	if err != nil || index == nil {
		return Reply{Text: memoryUnavailableReply},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}

	if fact, ok := cutVerb(in.Message, "запомни", "remember"); ok {
		if fact == "" {
			return Reply{Text: "Что именно запомнить?"}, models.DispatchOutcome{Success: true}
		}
		if err := utils.RememberFact(ctx, index, fact); err != nil {
			zap.L().Warn("remember failed", zap.Error(err))
			return Reply{Text: "Не получилось запомнить."},
				models.DispatchOutcome{Success: false, ShouldFallback: true}
		}
		return Reply{Text: "Запомнил: " + fact}, models.DispatchOutcome{Success: true}
	}

	if query, ok := cutVerb(in.Message, "забудь", "удали из памяти", "forget"); ok {
		if query == "" {
			return Reply{Text: "Что именно забыть?"}, models.DispatchOutcome{Success: true}
		}
		n, err := utils.ForgetFacts(ctx, index, query)
		if err != nil {
			zap.L().Warn("forget failed", zap.Error(err))
			return Reply{Text: "Не получилось забыть."},
				models.DispatchOutcome{Success: false, ShouldFallback: true}
		}
		if n == 0 {
			return Reply{Text: "Не нашёл ничего похожего в памяти."}, models.DispatchOutcome{Success: true}
		}
		return Reply{Text: "Забыл."}, models.DispatchOutcome{Success: true}
	}

	facts, err := utils.RecallFacts(ctx, index, in.Message, 5)
	if err != nil {
		zap.L().Warn("recall failed", zap.Error(err))
		return Reply{Text: "Не получилось заглянуть в память."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	if len(facts) == 0 {
		return Reply{Text: "Пока я ничего не запомнил."}, models.DispatchOutcome{Success: true}
	}
	return Reply{
		Text:  "Вот что я помню:\n• " + strings.Join(facts, "\n• "),
		Facts: facts,
	}, models.DispatchOutcome{Success: true}
}

// cutVerb strips a leading memory verb from the message, case-insensitively,
// and returns the remainder. Cyrillic case folding keeps byte lengths equal,
// so the prefix length taken from the lowered text applies to the original.
func cutVerb(message string, verbs ...string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	trimmed := strings.TrimSpace(message)
	for _, v := range verbs {
		if strings.HasPrefix(lower, v) {
			rest := strings.TrimSpace(trimmed[len(v):])
			rest = strings.TrimLeft(rest, ",:;-— ")
			return rest, true
		}
	}
	return "", false
}
