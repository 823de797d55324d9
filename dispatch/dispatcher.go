// Package dispatch maps a resolved category to an external collaborator call
// and reports the outcome. It is deliberately thin: no scoring, no state;
// the coordinator owns the state transition the outcome triggers.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/models"
	"github.com/Lumora-Labs/lumora-go-router/utils"
)

// Input is everything an executor may need for one resolved message.
type Input struct {
	SessionID string
	Message   string
	Result    models.ClassificationResult
	Env       models.Env
	// ArtifactData carries raw image bytes when the client uploaded an
	// image alongside the message.
	ArtifactData []byte
}

// Reply is the user-facing payload produced by an executor.
type Reply struct {
	Text     string   `json:"text"`
	ImageURL string   `json:"image_url,omitempty"`
	SVG      string   `json:"svg,omitempty"`
	Facts    []string `json:"facts,omitempty"`
}

// MemoryOpener connects to the vector memory for one session.
type MemoryOpener func(sessionID string) (*pinecone.IndexConnection, error)

// Dispatcher routes resolved categories to their executors. A nil provider
// degrades every model-backed executor to its local fallback.
type Dispatcher struct {
	provider   *utils.ProviderClient
	vectorizer *utils.Vectorizer
	memory     MemoryOpener
}

func New(provider *utils.ProviderClient) *Dispatcher {
	return &Dispatcher{
		provider:   provider,
		vectorizer: utils.NewVectorizer(),
		memory: func(id string) (*pinecone.IndexConnection, error) {
			return utils.GetMemoryIndex(&id)
		},
	}
}


// Dispatch executes the resolved category. It never returns an error: every
// failure becomes an unsuccessful outcome plus a usable reply.
func (d *Dispatcher) Dispatch(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	logger := zap.L().With(
		zap.String("session_id", in.SessionID),
		zap.String("category", string(in.Result.Category)))

	if in.Result.Action == models.ActionClarify {
		return Reply{Text: clarifyText(in.Result)}, models.DispatchOutcome{Success: true}
	}

	var (
		reply   Reply
		outcome models.DispatchOutcome
	)
	switch in.Result.Category {
	case models.CategoryImageGeneration:
		reply, outcome = d.generateImage(ctx, in)
	case models.CategoryImageEditing:
		reply, outcome = d.editImage(ctx, in)
	case models.CategoryVectorization:
		reply, outcome = d.vectorize(ctx, in)
	case models.CategoryImageAnalysis:
		reply, outcome = d.analyzeImage(ctx, in)
	case models.CategoryWebSearch:
		reply, outcome = d.search(ctx, in)
	case models.CategorySiteAnalysis:
		reply, outcome = d.analyzeSite(ctx, in)
	case models.CategoryMemoryCommand:
		reply, outcome = d.memoryCommand(ctx, in)
	default:
		reply, outcome = d.converse(ctx, in)
	}

	if !outcome.Success {
		logger.Warn("dispatch failed", zap.Bool("fallback", outcome.ShouldFallback))
	} else {
		logger.Debug("dispatch completed")
	}
	return reply, outcome
}

func clarifyText(res models.ClassificationResult) string {
	var sb strings.Builder
	sb.WriteString(res.Prompt)
	for _, opt := range res.Options {
		sb.WriteString("\n- ")
		sb.WriteString(opt)
	}
	return sb.String()
}

func (d *Dispatcher) converse(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	// The canned fallback keeps conversation alive without the provider;
	// the tone only flavors the template, never the category.
	demo := utils.DemoResponse(in.Message, in.Result.Emotion.OverallTone)
	if d.provider == nil {
		return Reply{Text: demo}, models.DispatchOutcome{Success: true}
	}
	text, err := d.provider.Complete(ctx, in.Message)
	if err != nil {
		zap.L().Warn("provider chat failed", zap.Error(err))
		return Reply{Text: demo}, models.DispatchOutcome{Success: true}
	}
	return Reply{Text: text}, models.DispatchOutcome{Success: true}
}

func (d *Dispatcher) generateImage(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	if d.provider == nil {
		return Reply{Text: "Генерация изображений сейчас недоступна."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}

	prompt := in.Message
	if in.Result.ResolvedPrompt != "" {
		prompt = in.Result.ResolvedPrompt
	}
	style := in.Result.Style
	if style == "" {
		style = "realistic"
	}

	url, err := d.provider.GenerateImage(ctx, prompt, style)
	if err != nil {
		zap.L().Warn("image generation failed", zap.Error(err))
		return Reply{Text: "Не получилось сгенерировать изображение, попробуй переформулировать."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	return Reply{
		Text:     fmt.Sprintf("Готово! Нарисовал в стиле %s.", style),
		ImageURL: url,
	}, models.DispatchOutcome{Success: true}
}

func (d *Dispatcher) editImage(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	if in.Env.ArtifactSummary == "" {
		return Reply{Text: "Не вижу изображения, которое нужно изменить. Сначала создай или пришли его."},
			models.DispatchOutcome{Success: false}
	}
	if d.provider == nil {
		return Reply{Text: "Редактирование изображений сейчас недоступно."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	url, err := d.provider.EditImage(ctx, in.Env.ArtifactSummary, in.Message)
	if err != nil {
		zap.L().Warn("image edit failed", zap.Error(err))
		return Reply{Text: "Не получилось изменить изображение."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	return Reply{Text: "Готово, изменил изображение.", ImageURL: url},
		models.DispatchOutcome{Success: true}
}

func (d *Dispatcher) vectorize(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	data := in.ArtifactData
	if len(data) == 0 && isURL(in.Env.ArtifactSummary) && d.provider != nil {
		fetched, err := d.provider.FetchImage(ctx, in.Env.ArtifactSummary)
		if err != nil {
			zap.L().Warn("artifact fetch failed", zap.Error(err))
		} else {
			data = fetched
		}
	}
	if len(data) == 0 {
		return Reply{Text: "Не вижу изображения для векторизации. Пришли картинку или сначала создай её."},
			models.DispatchOutcome{Success: false}
	}

	svg, err := d.vectorizer.Trace(data)
	if err != nil {
		zap.L().Warn("vectorization failed", zap.Error(err))
		return Reply{Text: "Не получилось векторизовать изображение."},
			models.DispatchOutcome{Success: false}
	}
	return Reply{Text: "Готово, перевёл в SVG.", SVG: string(svg)},
		models.DispatchOutcome{Success: true}
}

func (d *Dispatcher) analyzeImage(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	if in.Env.ArtifactSummary == "" {
		return Reply{Text: "Не вижу изображения для анализа."},
			models.DispatchOutcome{Success: false}
	}
	if d.provider == nil {
		return Reply{Text: "Анализ изображений сейчас недоступен."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	description, err := d.provider.AnalyzeImage(ctx, in.Env.ArtifactSummary, in.Message)
	if err != nil {
		zap.L().Warn("image analysis failed", zap.Error(err))
		return Reply{Text: "Не получилось проанализировать изображение."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	return Reply{Text: description}, models.DispatchOutcome{Success: true}
}

func (d *Dispatcher) search(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	if d.provider == nil {
		return Reply{Text: "Поиск сейчас недоступен."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	results, err := d.provider.Search(ctx, in.Message)
	if err != nil {
		zap.L().Warn("search failed", zap.Error(err))
		return Reply{Text: "Поиск не удался, попробуй позже."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	if len(results) == 0 {
		return Reply{Text: "Ничего не нашлось по этому запросу."},
			models.DispatchOutcome{Success: true}
	}
	return Reply{Text: "Вот что нашлось:\n• " + strings.Join(results, "\n• ")},
		models.DispatchOutcome{Success: true}
}

func (d *Dispatcher) analyzeSite(ctx context.Context, in Input) (Reply, models.DispatchOutcome) {
	url := extractURL(in.Message)
	if url == "" {
		return Reply{Text: "Пришли ссылку на сайт, который нужно проанализировать."},
			models.DispatchOutcome{Success: true}
	}
	if d.provider == nil {
		return Reply{Text: "Анализ сайтов сейчас недоступен."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	summary, err := d.provider.AnalyzeSite(ctx, url)
	if err != nil {
		zap.L().Warn("site analysis failed", zap.Error(err), zap.String("url", url))
		return Reply{Text: "Не получилось проанализировать сайт."},
			models.DispatchOutcome{Success: false, ShouldFallback: true}
	}
	return Reply{Text: summary}, models.DispatchOutcome{Success: true}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// extractURL pulls the first link out of a message, tolerating bare www.
// forms and trailing punctuation.
func extractURL(message string) string {
	for _, f := range strings.Fields(message) {
		f = strings.Trim(f, ",.!?:;()\"'«»")
		if isURL(f) {
			return f
		}
		if strings.HasPrefix(f, "www.") && strings.Contains(f[4:], ".") {
			return "https://" + f
		}
	}
	return ""
}
