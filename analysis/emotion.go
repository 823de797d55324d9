package analysis

import (
	"strings"
	"unicode"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

type emotionEntry struct {
	name     string
	weight   int
	keywords []string
}

// Declaration order is the tie-break: on equal scores the emotion declared
// first stays dominant.
var emotionTable = []emotionEntry{
	{name: "gratitude", weight: 3, keywords: []string{
		"спасибо", "благодарю", "спс", "thanks", "thank you", "thx",
	}},
	{name: "joy", weight: 3, keywords: []string{
		"ура", "класс", "супер", "отлично", "круто", "прекрасно",
		"нравится", "замечательно", "awesome", "great", "amazing",
		"love it", "perfect",
	}},
	{name: "frustration", weight: 4, keywords: []string{
		"не работает", "опять", "ошибка", "плохо", "ужасно", "бесит",
		"надоело", "сломал", "broken", "wrong", "terrible", "annoying",
	}},
	{name: "urgency", weight: 3, keywords: []string{
		"срочно", "быстрее", "скорее", "прямо сейчас", "немедленно",
		"urgent", "asap", "hurry", "right now",
	}},
	{name: "confusion", weight: 2, keywords: []string{
		"не понимаю", "не понял", "запутал", "непонятно", "хм",
		"confused", "don't understand", "what do you mean",
	}},
	{name: "sadness", weight: 3, keywords: []string{
		"грустно", "жаль", "печально", "увы", "sad", "unfortunately",
	}},
}

// AnalyzeEmotion scores a message against the weighted emotion lexicons and
// the punctuation heuristics. The result only ever selects a response
// template downstream; category selection ignores it.
func AnalyzeEmotion(text string) models.EmotionSignal {
	lower := strings.ToLower(text)

	scores := make(map[string]int, len(emotionTable))
	dominant := "neutral"
	best := 0
	for _, e := range emotionTable {
		score := 0
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				score += e.weight
			}
		}
		conf := min(100, score*20)
		scores[e.name] = conf
		if conf > best {
			best = conf
			dominant = e.name
		}
	}

	punct := interpretPunctuation(text)
	return models.EmotionSignal{
		Dominant:    dominant,
		Scores:      scores,
		Punctuation: punct,
		OverallTone: overallTone(dominant, punct),
	}
}

func interpretPunctuation(text string) string {
	exclaims := strings.Count(text, "!")
	questions := strings.Count(text, "?")
	switch {
	case exclaims >= 3 || (exclaims > 0 && hasShoutingRun(text)):
		return "angry_or_excited"
	case exclaims > 0:
		return "excited"
	case strings.Contains(text, "...") || strings.Contains(text, "…"):
		return "thoughtful_or_sad"
	case questions >= 2:
		return "confused_or_curious"
	default:
		return "neutral"
	}
}

// hasShoutingRun reports a run of four or more uppercase letters. Four keeps
// short acronyms like SVG or PNG from reading as shouting.
func hasShoutingRun(text string) bool {
	run := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			run++
			if run >= 4 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func overallTone(dominant, punct string) string {
	switch punct {
	case "excited":
		if dominant != "neutral" {
			return dominant + "_excited"
		}
		return "excited"
	case "angry_or_excited":
		if dominant != "neutral" {
			return dominant + "_intense"
		}
		return "angry_or_excited"
	}
	return dominant
}
