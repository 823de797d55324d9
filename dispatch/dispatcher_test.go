package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

func TestDispatchClarifySendsMenu(t *testing.T) {
	d := New(nil)
	reply, outcome := d.Dispatch(context.Background(), Input{
		SessionID: "s1",
		Message:   "Нарисуй дракона",
		Result: models.ClassificationResult{
			Category: models.CategoryImageGeneration,
			Action:   models.ActionClarify,
			Prompt:   "Уточни, в каком стиле нарисовать:",
			Options:  []string{"принт", "реалистичный"},
		},
	})

	assert.True(t, outcome.Success)
	assert.Contains(t, reply.Text, "Уточни")
	assert.Contains(t, reply.Text, "- принт")
	assert.Contains(t, reply.Text, "- реалистичный")
}

func TestDispatchWithoutProviderDegrades(t *testing.T) {
	d := New(nil)
	ctx := context.Background()

	tests := []struct {
		category    models.Category
		wantSuccess bool
	}{
		{models.CategoryConversation, true}, // apology, but a usable reply
		{models.CategoryImageGeneration, false},
		{models.CategoryWebSearch, false},
	}
	for _, tt := range tests {
		reply, outcome := d.Dispatch(ctx, Input{
			SessionID: "s1",
			Message:   "сделай что-нибудь",
			Result:    models.ClassificationResult{Category: tt.category, Action: models.ActionExecute},
		})
		assert.Equal(t, tt.wantSuccess, outcome.Success, "category %s", tt.category)
		assert.NotEmpty(t, reply.Text, "category %s", tt.category)
	}
}

func TestDispatchEditWithoutArtifact(t *testing.T) {
	d := New(nil)
	reply, outcome := d.Dispatch(context.Background(), Input{
		SessionID: "s1",
		Message:   "убери фон",
		Result:    models.ClassificationResult{Category: models.CategoryImageEditing, Action: models.ActionExecute},
	})
	assert.False(t, outcome.Success)
	assert.NotEmpty(t, reply.Text)
}

func TestDispatchVectorize(t *testing.T) {
	d := New(nil)

	img := image.NewGray(image.Rect(0, 0, 48, 48))
	for y := 12; y < 36; y++ {
		for x := 12; x < 36; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	reply, outcome := d.Dispatch(context.Background(), Input{
		SessionID:    "s1",
		Message:      "векторизуй",
		Result:       models.ClassificationResult{Category: models.CategoryVectorization, Action: models.ActionExecute},
		ArtifactData: buf.Bytes(),
	})
	assert.True(t, outcome.Success)
	assert.Contains(t, reply.SVG, "<svg")
}

func TestDispatchVectorizeWithoutImage(t *testing.T) {
	d := New(nil)
	_, outcome := d.Dispatch(context.Background(), Input{
		SessionID: "s1",
		Message:   "векторизуй",
		Result:    models.ClassificationResult{Category: models.CategoryVectorization, Action: models.ActionExecute},
	})
	assert.False(t, outcome.Success)
}

func TestDispatchMemoryUnavailable(t *testing.T) {
	d := New(nil)
	d.memory = func(string) (*pinecone.IndexConnection, error) {
		return nil, fmt.Errorf("no index configured")
	}

	reply, outcome := d.Dispatch(context.Background(), Input{
		SessionID: "s1",
		Message:   "запомни мой любимый цвет синий",
		Result:    models.ClassificationResult{Category: models.CategoryMemoryCommand, Action: models.ActionExecute},
	})
	assert.False(t, outcome.Success)
	assert.True(t, outcome.ShouldFallback)
	assert.Equal(t, memoryUnavailableReply, reply.Text)
}

func TestCutVerb(t *testing.T) {
	tests := []struct {
		message  string
		verbs    []string
		wantRest string
		wantOK   bool
	}{
		{"запомни мой любимый цвет", []string{"запомни"}, "мой любимый цвет", true},
		{"Запомни: я художник", []string{"запомни"}, "я художник", true},
		{"remember I like dragons", []string{"запомни", "remember"}, "I like dragons", true},
		{"забудь", []string{"забудь"}, "", true},
		{"что ты помнишь?", []string{"запомни", "забудь"}, "", false},
	}
	for _, tt := range tests {
		rest, ok := cutVerb(tt.message, tt.verbs...)
		assert.Equal(t, tt.wantOK, ok, "message %q", tt.message)
		assert.Equal(t, tt.wantRest, rest, "message %q", tt.message)
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"проанализируй https://example.com/page", "https://example.com/page"},
		{"глянь www.example.com, пожалуйста", "https://www.example.com"},
		{"посмотри сайт (https://example.com).", "https://example.com"},
		{"никаких ссылок тут нет", ""},
		{"www.nodots", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractURL(tt.message), "message %q", tt.message)
	}
}
