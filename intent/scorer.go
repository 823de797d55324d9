package intent

import (
	"math"
	"strings"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

// Scorer turns a message plus its grammar and emotion signals into a
// ClassificationResult using the static category table.
type Scorer struct {
	table      *Table
	keywords   map[models.Category]*Matcher
	negatives  map[models.Category]*Matcher
	priorities map[models.Category]int
	gated      map[models.Category]bool
}

func NewScorer(table *Table) *Scorer {
	s := &Scorer{
		table:      table,
		keywords:   make(map[models.Category]*Matcher, len(table.Categories)),
		negatives:  make(map[models.Category]*Matcher, len(table.Categories)),
		priorities: make(map[models.Category]int, len(table.Categories)),
		gated:      make(map[models.Category]bool, len(table.Categories)),
	}
	for _, c := range table.Categories {
		s.keywords[c.Name] = NewMatcher(c.Keywords)
		s.negatives[c.Name] = NewMatcher(c.NegativePatterns)
		s.priorities[c.Name] = c.Priority
		s.gated[c.Name] = c.RequiresContext
	}
	return s
}

// ScoreCategories runs the per-category scoring pass over the lowercased
// message and returns one ScoredIntent per eligible category. Context-gated
// categories are omitted outright while the artifact is absent; categories
// whose confidence clamps to 0 stay in the slice so the recovery pass can
// still see their raw keyword hits.
//
// Per category: base = 100 * matches / |keywords|; negative-pattern penalty
// min(60, negatives*25), cut to 60% with two or more keyword hits and to a
// further 40% for context-gated categories once the artifact is confirmed
// present; grammar modifiers applied last; confidence clamped to [0,100].
func (s *Scorer) ScoreCategories(text string, grammar models.GrammarSignal, env models.Env) []models.ScoredIntent {
	lower := strings.ToLower(strings.TrimSpace(text))

	intents := make([]models.ScoredIntent, 0, len(s.table.Categories))
	for i := range s.table.Categories {
		c := &s.table.Categories[i]
		if c.RequiresContext && !env.HasRecentArtifact {
			continue
		}
		hits := s.keywords[c.Name].Match(lower)
		if len(hits) == 0 {
			continue
		}
		negs := s.negatives[c.Name].Match(lower)

		base := 100 * float64(len(hits)) / float64(s.keywords[c.Name].Len())
		penalty := math.Min(60, float64(len(negs))*25)
		if len(hits) >= 2 {
			penalty *= 0.6
		}
		if c.RequiresContext && env.HasRecentArtifact {
			penalty *= 0.4
		}
		conf := base - penalty + modifier(c.Name, grammar, env)
		conf = math.Min(100, math.Max(0, conf))

		intents = append(intents, models.ScoredIntent{
			Category:         c.Name,
			Confidence:       int(math.Round(conf)),
			Matches:          len(hits),
			MatchedKeywords:  hits,
			MatchedNegatives: negs,
		})
	}
	return intents
}

// Score runs the pre-checks, the per-category pass, and winner selection.
//
// Winner: max priority * (1 + confidence/100) among confidence > 0. With no
// winner, the recovery pass takes the category with the most raw keyword
// hits at confidence min(40, hits*15), so any keyword match yields a
// category. With no hits at all the result is conversation at confidence 0.
func (s *Scorer) Score(text string, grammar models.GrammarSignal, emotion models.EmotionSignal, env models.Env) models.ClassificationResult {
	lower := strings.ToLower(strings.TrimSpace(text))

	if res, ok := precheck(lower, grammar, env); ok {
		res.Grammar = grammar
		res.Emotion = emotion
		return res
	}

	intents := s.ScoreCategories(text, grammar, env)

	var (
		winner     *models.ScoredIntent
		bestWeight float64
		recovery   *models.ScoredIntent
	)
	for i := range intents {
		it := &intents[i]
		if recovery == nil || it.Matches > recovery.Matches {
			recovery = it
		}
		if it.Confidence <= 0 {
			continue
		}
		weight := float64(s.priorities[it.Category]) * (1 + float64(it.Confidence)/100)
		if weight > bestWeight {
			bestWeight = weight
			winner = it
		}
	}

	res := models.ClassificationResult{
		Grammar: grammar,
		Emotion: emotion,
		Action:  models.ActionExecute,
	}
	switch {
	case winner != nil:
		res.Category = winner.Category
		res.Confidence = winner.Confidence
		res.MatchedKeywords = winner.MatchedKeywords
		res.MatchedNegatives = winner.MatchedNegatives
		res.Threshold = Threshold(grammar, env, s.gated[winner.Category])
	case recovery != nil:
		res.Category = recovery.Category
		res.Confidence = min(40, recovery.Matches*15)
		res.MatchedKeywords = recovery.MatchedKeywords
		res.Threshold = Threshold(grammar, env, s.gated[recovery.Category])
	default:
		res.Category = models.CategoryConversation
		res.Threshold = Threshold(grammar, env, false)
	}
	return res
}

// modifier is the grammar adjustment for one category. Commands boost every
// actionable category and dampen conversation; questions favor search,
// conversation, and analysis of an existing artifact, and dampen generation
// when the user is asking about work already done.
func modifier(cat models.Category, g models.GrammarSignal, env models.Env) float64 {
	var m float64
	if g.IsCommand {
		if cat == models.CategoryConversation {
			m -= 10
		} else {
			m += 15
		}
	}
	if g.IsQuestion {
		switch cat {
		case models.CategoryWebSearch, models.CategoryConversation:
			m += 10
		case models.CategoryImageAnalysis:
			if env.HasRecentArtifact {
				m += 10
			}
		case models.CategoryImageGeneration:
			if g.Tense == models.TensePast && env.HasRecentArtifact {
				m -= 20
			}
		}
	}
	return m
}
