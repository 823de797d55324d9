// Package analysis holds the pure per-message analyzers: grammar signals
// (question/command/tense) and emotional tone. Both are deterministic
// functions of the message text with no session state and no I/O.
package analysis

import (
	"strings"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

// Word lists are lowercase stems; matching is substring-based so inflected
// Russian forms ("нарисуйте", "нарисуй-ка") hit the same entry.
var questionWords = []string{
	"что", "как", "почему", "зачем", "когда", "где", "кто", "какой",
	"какая", "какие", "куда", "откуда", "сколько", "чей", "можешь ли",
	"what", "how", "why", "when", "where", "who", "which", "whose",
	"can you", "could you", "do you", "did you", "are you",
}

var commandWords = []string{
	"сделай", "создай", "нарисуй", "сгенерируй", "покажи", "найди",
	"измени", "переделай", "добавь", "убери", "удали", "запомни",
	"забудь", "проанализируй", "векторизуй", "напиши", "переведи",
	"draw", "create", "make", "generate", "show", "find", "change",
	"edit", "remove", "delete", "remember", "forget", "analyze", "write",
}

var pastMarkers = []string{
	"создал", "сделал", "нарисовал", "сгенерировал", "показал", "был",
	"была", "было", "были", "вчера", "ранее", "раньше", "недавно",
	"did", "was", "were", "created", "made", "generated", "drew",
	"yesterday", "earlier", "ago",
}

var futureMarkers = []string{
	"будет", "будешь", "буду", "будем", "завтра", "потом", "позже",
	"скоро", "собираюсь", "планирую",
	"will", "going to", "tomorrow", "later", "soon", "plan to",
}

// AnalyzeGrammar tags a message with question/command/tense signals. A
// message that reads as both question and command is treated as a question
// only, which biases the pipeline away from acting on uncertain requests.
func AnalyzeGrammar(text string) models.GrammarSignal {
	lower := strings.ToLower(text)

	sig := models.GrammarSignal{
		Tense:         models.TensePresent,
		QuestionWords: matchAll(lower, questionWords),
		CommandWords:  matchAll(lower, commandWords),
	}
	sig.IsQuestion = len(sig.QuestionWords) > 0 || strings.Contains(text, "?")
	sig.IsCommand = len(sig.CommandWords) > 0
	if sig.IsQuestion && sig.IsCommand {
		sig.IsCommand = false
	}

	// Past evidence outranks future: "что ты вчера сделал, покажешь завтра?"
	// is a question about the past.
	if past := matchAll(lower, pastMarkers); len(past) > 0 {
		sig.Tense = models.TensePast
		sig.TenseMarkers = past
	} else if future := matchAll(lower, futureMarkers); len(future) > 0 {
		sig.Tense = models.TenseFuture
		sig.TenseMarkers = future
	}

	sig.Confidence = min(100, 25*(len(sig.QuestionWords)+len(sig.CommandWords)+len(sig.TenseMarkers)))
	return sig
}

func matchAll(lower string, terms []string) []string {
	var hits []string
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits = append(hits, t)
		}
	}
	return hits
}
