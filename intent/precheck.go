package intent

import (
	"strings"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

// forcedThreshold is attached to results that bypass scoring.
const forcedThreshold = 5

// Memory management is recognized by verb prefix, not scoring: "запомни ..."
// is a memory command no matter what else the sentence contains.
var memoryCommandPrefixes = []string{
	"запомни", "забудь", "удали из памяти", "очисти память",
	"что ты помнишь", "покажи память",
	"remember", "forget", "what do you remember",
}

// creationPastStems recognize a reference to something already produced.
var creationPastStems = []string{
	"созда", "сдела", "нарисова", "сгенерирова",
	"creat", "generat", "made", "drew",
}

// precheck short-circuits scoring for two cases: explicit memory commands,
// and past-tense questions about an artifact that exists in the session
// ("что ты создал?" is the user asking, not asking again).
func precheck(lower string, g models.GrammarSignal, env models.Env) (models.ClassificationResult, bool) {
	for _, p := range memoryCommandPrefixes {
		if strings.HasPrefix(lower, p) {
			return models.ClassificationResult{
				Category:        models.CategoryMemoryCommand,
				Confidence:      100,
				Threshold:       forcedThreshold,
				Action:          models.ActionExecute,
				MatchedKeywords: []string{p},
				Forced:          true,
			}, true
		}
	}

	if g.IsQuestion && g.Tense == models.TensePast && env.HasRecentArtifact {
		if stem, ok := firstMatch(lower, creationPastStems); ok {
			return models.ClassificationResult{
				Category:        models.CategoryConversation,
				Confidence:      98,
				Threshold:       forcedThreshold,
				Action:          models.ActionExecute,
				MatchedKeywords: []string{stem},
				Forced:          true,
			}, true
		}
	}

	return models.ClassificationResult{}, false
}

func firstMatch(lower string, terms []string) (string, bool) {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return t, true
		}
	}
	return "", false
}
