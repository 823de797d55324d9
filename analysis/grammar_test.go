package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

func TestAnalyzeGrammar(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		isQuestion bool
		isCommand  bool
		tense      models.Tense
	}{
		{
			name:      "russian imperative",
			text:      "Нарисуй дракона",
			isCommand: true,
			tense:     models.TensePresent,
		},
		{
			name:       "past tense question",
			text:       "что ты создал?",
			isQuestion: true,
			tense:      models.TensePast,
		},
		{
			name:       "question outranks command",
			text:       "покажи, какой стиль лучше?",
			isQuestion: true,
			isCommand:  false,
			tense:      models.TensePresent,
		},
		{
			name:       "bare question mark",
			text:       "дракона?",
			isQuestion: true,
			tense:      models.TensePresent,
		},
		{
			name:       "past beats future",
			text:       "что ты вчера сделал, покажешь завтра?",
			isQuestion: true,
			tense:      models.TensePast,
		},
		{
			name:      "future command",
			text:      "сделай завтра логотип",
			isCommand: true,
			tense:     models.TenseFuture,
		},
		{
			name:       "english question",
			text:       "what did you generate yesterday",
			isQuestion: true,
			tense:      models.TensePast,
		},
		{
			name:  "empty input",
			text:  "",
			tense: models.TensePresent,
		},
		{
			name:  "whitespace only",
			text:  "   \t ",
			tense: models.TensePresent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := AnalyzeGrammar(tt.text)
			assert.Equal(t, tt.isQuestion, sig.IsQuestion, "isQuestion")
			assert.Equal(t, tt.isCommand, sig.IsCommand, "isCommand")
			assert.Equal(t, tt.tense, sig.Tense, "tense")
			assert.GreaterOrEqual(t, sig.Confidence, 0)
			assert.LessOrEqual(t, sig.Confidence, 100)
		})
	}
}

func TestAnalyzeGrammarConfidence(t *testing.T) {
	empty := AnalyzeGrammar("")
	assert.Zero(t, empty.Confidence)

	one := AnalyzeGrammar("нарисуй")
	assert.Equal(t, 25, one.Confidence)

	// Confidence saturates at 100 no matter how many markers pile up.
	loaded := AnalyzeGrammar("что как почему зачем когда где кто")
	assert.Equal(t, 100, loaded.Confidence)
}

func TestAnalyzeGrammarIdempotent(t *testing.T) {
	const text = "Что ты создал вчера?"
	first := AnalyzeGrammar(text)
	second := AnalyzeGrammar(text)
	require.Equal(t, first, second)
}
