package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumora-Labs/lumora-go-router/models"
	"github.com/Lumora-Labs/lumora-go-router/session"
)

func scoredGeneration(conf int) models.ClassificationResult {
	return models.ClassificationResult{
		Category:        models.CategoryImageGeneration,
		Confidence:      conf,
		Threshold:       14,
		Action:          models.ActionExecute,
		MatchedKeywords: []string{"нарису"},
	}
}

func TestMaybeClarifyShortStylelessRequest(t *testing.T) {
	c := NewCoordinator()
	st := session.NewState("s1")

	res, clarified := c.MaybeClarify("Нарисуй дракона", scoredGeneration(22), st)
	require.True(t, clarified)

	assert.Equal(t, models.ActionClarify, res.Action)
	assert.Equal(t, models.CategoryImageGeneration, res.Category)
	assert.Equal(t, clarifyConfidence, res.Confidence)
	assert.Equal(t, dialogueThreshold, res.Threshold)
	assert.NotEmpty(t, res.Prompt)
	assert.Len(t, res.Options, 4)

	assert.Equal(t, models.StageAwaitingChoice, st.Dialogue.Stage)
	assert.Equal(t, "Нарисуй дракона", st.Dialogue.PendingRequest)
	assert.False(t, st.Dialogue.SuggestedAt.IsZero())
}

func TestMaybeClarifySkips(t *testing.T) {
	c := NewCoordinator()

	t.Run("explicit style", func(t *testing.T) {
		st := session.NewState("s1")
		_, clarified := c.MaybeClarify("нарисуй дракона в стиле принт", scoredGeneration(22), st)
		assert.False(t, clarified)
		assert.Equal(t, models.StageReady, st.Dialogue.Stage)
	})

	t.Run("detailed request", func(t *testing.T) {
		st := session.NewState("s1")
		_, clarified := c.MaybeClarify("нарисуй большого красного дракона над горным озером", scoredGeneration(30), st)
		assert.False(t, clarified)
	})

	t.Run("other category", func(t *testing.T) {
		st := session.NewState("s1")
		scored := scoredGeneration(30)
		scored.Category = models.CategoryWebSearch
		_, clarified := c.MaybeClarify("найди дракона", scored, st)
		assert.False(t, clarified)
	})

	t.Run("not in ready state", func(t *testing.T) {
		st := session.NewState("s1")
		st.Dialogue.Stage = models.StageGenerating
		_, clarified := c.MaybeClarify("нарисуй дракона", scoredGeneration(22), st)
		assert.False(t, clarified)
	})
}

func TestResolveChoiceRoundTrip(t *testing.T) {
	c := NewCoordinator()
	st := session.NewState("s1")

	_, clarified := c.MaybeClarify("Нарисуй дракона", scoredGeneration(22), st)
	require.True(t, clarified)

	res, ok := c.ResolveChoice("принт", models.GrammarSignal{}, models.EmotionSignal{}, st)
	require.True(t, ok)

	assert.Equal(t, models.ActionResumeChoice, res.Action)
	assert.Equal(t, models.CategoryImageGeneration, res.Category)
	assert.Equal(t, resumeConfidence, res.Confidence)
	assert.Equal(t, dialogueThreshold, res.Threshold)
	assert.Equal(t, "print", res.Style)
	assert.Contains(t, res.ResolvedPrompt, "Нарисуй дракона")
	assert.Contains(t, res.ResolvedPrompt, "print")
	assert.Equal(t, models.StageGenerating, st.Dialogue.Stage)

	c.CompleteDispatch(st, models.DispatchOutcome{Success: true})
	assert.Equal(t, models.StageReady, st.Dialogue.Stage)
}

func TestResolveChoiceStyles(t *testing.T) {
	tests := []struct {
		text  string
		style string
	}{
		{"принт", "print"},
		{"давай мультяшный", "cartoon"},
		{"хочу художественный", "artistic"},
		{"реалистичный", "realistic"},
		{"давай", "realistic"},
		{"да", "realistic"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c := NewCoordinator()
			st := session.NewState("s1")
			_, clarified := c.MaybeClarify("нарисуй кота", scoredGeneration(22), st)
			require.True(t, clarified)

			res, ok := c.ResolveChoice(tt.text, models.GrammarSignal{}, models.EmotionSignal{}, st)
			require.True(t, ok)
			assert.Equal(t, tt.style, res.Style)
		})
	}
}

func TestResolveChoiceRejections(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"denylisted answer", "не знаю, что выбрать"},
		{"unrelated sentence", "расскажи лучше про погоду в Москве"},
		{"deny word inside ready phrase", "не надо, потом"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoordinator()
			st := session.NewState("s1")
			_, clarified := c.MaybeClarify("нарисуй кота", scoredGeneration(22), st)
			require.True(t, clarified)

			_, ok := c.ResolveChoice(tt.text, models.GrammarSignal{}, models.EmotionSignal{}, st)
			assert.False(t, ok)
			assert.Equal(t, models.StageReady, st.Dialogue.Stage, "state resets for rescoring")
			assert.Empty(t, st.Dialogue.PendingRequest)
		})
	}
}

func TestResolveChoiceExpires(t *testing.T) {
	c := NewCoordinator()
	st := session.NewState("s1")
	_, clarified := c.MaybeClarify("нарисуй кота", scoredGeneration(22), st)
	require.True(t, clarified)

	st.Dialogue.SuggestedAt = time.Now().Add(-DefaultClarifyTTL - time.Minute)

	_, ok := c.ResolveChoice("принт", models.GrammarSignal{}, models.EmotionSignal{}, st)
	assert.False(t, ok)
	assert.Equal(t, models.StageReady, st.Dialogue.Stage)
}

func TestResolveChoiceOutsideAwaiting(t *testing.T) {
	c := NewCoordinator()
	st := session.NewState("s1")

	_, ok := c.ResolveChoice("принт", models.GrammarSignal{}, models.EmotionSignal{}, st)
	assert.False(t, ok)
	assert.Equal(t, models.StageReady, st.Dialogue.Stage)
}

func TestClarifyTTLFromEnv(t *testing.T) {
	t.Setenv("CLARIFY_TTL", "90s")
	c := NewCoordinator()
	assert.Equal(t, 90*time.Second, c.clarifyTTL)

	t.Setenv("CLARIFY_TTL", "not-a-duration")
	c = NewCoordinator()
	assert.Equal(t, DefaultClarifyTTL, c.clarifyTTL)
}

func TestDispatchLifecycle(t *testing.T) {
	c := NewCoordinator()
	st := session.NewState("s1")

	c.BeginDispatch(st, models.CategoryWebSearch)
	assert.Equal(t, models.StageGenerating, st.Dialogue.Stage)
	assert.Equal(t, models.CategoryWebSearch, st.Dialogue.Category)

	c.CompleteDispatch(st, models.DispatchOutcome{Success: false, ShouldFallback: true})
	assert.Equal(t, models.StageReady, st.Dialogue.Stage)
}

func TestResetStaleDispatch(t *testing.T) {
	c := NewCoordinator()
	st := session.NewState("s1")

	c.BeginDispatch(st, models.CategoryImageGeneration)
	require.Equal(t, models.StageGenerating, st.Dialogue.Stage)

	assert.True(t, c.ResetStaleDispatch(st))
	assert.Equal(t, models.StageReady, st.Dialogue.Stage)

	// Ready and awaiting_choice are untouched.
	assert.False(t, c.ResetStaleDispatch(st))
	_, clarified := c.MaybeClarify("нарисуй кота", scoredGeneration(22), st)
	require.True(t, clarified)
	assert.False(t, c.ResetStaleDispatch(st))
	assert.Equal(t, models.StageAwaitingChoice, st.Dialogue.Stage)
}

func TestSignificantWords(t *testing.T) {
	assert.Equal(t, 2, significantWords("нарисуй дракона"))
	assert.Equal(t, 2, significantWords("нарисуй, пожалуйста, дракона!"))
	assert.Equal(t, 6, significantWords("нарисуй большого красного дракона над горным озером"))
	assert.Zero(t, significantWords(""))
}
