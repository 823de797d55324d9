package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmotion(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		dominant    string
		punctuation string
		tone        string
	}{
		{
			name:        "plain request is neutral",
			text:        "нарисуй кота в шляпе",
			dominant:    "neutral",
			punctuation: "neutral",
			tone:        "neutral",
		},
		{
			name:        "joy with exclamation",
			text:        "Это просто супер!",
			dominant:    "joy",
			punctuation: "excited",
			tone:        "joy_excited",
		},
		{
			name:        "frustration shouted",
			text:        "ОПЯТЬ не работает!!!",
			dominant:    "frustration",
			punctuation: "angry_or_excited",
			tone:        "frustration_intense",
		},
		{
			name:        "ellipsis reads thoughtful",
			text:        "хм, даже не знаю...",
			dominant:    "confusion",
			punctuation: "thoughtful_or_sad",
			tone:        "confusion",
		},
		{
			name:        "urgency with exclamation",
			text:        "сделай срочно!",
			dominant:    "urgency",
			punctuation: "excited",
			tone:        "urgency_excited",
		},
		{
			name:        "double question mark",
			text:        "почему так?? как это исправить??",
			dominant:    "neutral",
			punctuation: "confused_or_curious",
			tone:        "neutral",
		},
		{
			name:        "tie falls to first declared",
			text:        "спасибо, это круто",
			dominant:    "gratitude",
			punctuation: "neutral",
			tone:        "gratitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := AnalyzeEmotion(tt.text)
			assert.Equal(t, tt.dominant, sig.Dominant, "dominant")
			assert.Equal(t, tt.punctuation, sig.Punctuation, "punctuation")
			assert.Equal(t, tt.tone, sig.OverallTone, "tone")
			for name, score := range sig.Scores {
				assert.GreaterOrEqual(t, score, 0, name)
				assert.LessOrEqual(t, score, 100, name)
			}
		})
	}
}

func TestAnalyzeEmotionIdempotent(t *testing.T) {
	const text = "Спасибо, получилось ОЧЕНЬ круто!"
	first := AnalyzeEmotion(text)
	second := AnalyzeEmotion(text)
	require.Equal(t, first, second)
}

func TestShoutingRunIgnoresShortAcronyms(t *testing.T) {
	assert.Equal(t, "excited", interpretPunctuation("сделай SVG!"))
	assert.Equal(t, "angry_or_excited", interpretPunctuation("СРОЧНО сделай!"))
}
