package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/models"
	"github.com/Lumora-Labs/lumora-go-router/router"
)

// ClassifyRequest is the one-shot REST form of the inbound contract.
type ClassifyRequest struct {
	Message           string `json:"message"`
	SessionID         string `json:"session_id"`
	HasRecentArtifact bool   `json:"has_recent_artifact"`
	ArtifactSummary   string `json:"artifact_summary,omitempty"`
}

// ClassifyResponse flattens the classification for JSON clients.
type ClassifyResponse struct {
	SessionID        string   `json:"session_id"`
	Category         string   `json:"category"`
	Confidence       int      `json:"confidence"`
	Threshold        int      `json:"threshold"`
	Action           string   `json:"action"`
	Forced           bool     `json:"forced,omitempty"`
	FallbackUsed     bool     `json:"fallback_used,omitempty"`
	MatchedKeywords  []string `json:"matched_keywords,omitempty"`
	MatchedNegatives []string `json:"matched_negatives,omitempty"`
	IsQuestion       bool     `json:"is_question"`
	IsCommand        bool     `json:"is_command"`
	Tense            string   `json:"tense"`
	Tone             string   `json:"tone,omitempty"`
	Prompt           string   `json:"prompt,omitempty"`
	Options          []string `json:"options,omitempty"`
	Style            string   `json:"style,omitempty"`
	ResolvedPrompt   string   `json:"resolved_prompt,omitempty"`
}

// ClassifyHandler serves POST /classify: classify one message without
// dispatching it. Dialogue state still advances, so a REST client can drive
// the clarification flow by reusing its session id.
func ClassifyHandler(rt *router.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req ClassifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.New().String()
		}

		res, err := rt.Classify(r.Context(), req.Message, req.SessionID, models.Env{
			HasRecentArtifact: req.HasRecentArtifact,
			ArtifactSummary:   req.ArtifactSummary,
		})
		if err != nil {
			zap.L().Error("classify failed", zap.Error(err))
			http.Error(w, "classification failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ClassifyResponse{
			SessionID:        req.SessionID,
			Category:         string(res.Category),
			Confidence:       res.Confidence,
			Threshold:        res.Threshold,
			Action:           string(res.Action),
			Forced:           res.Forced,
			FallbackUsed:     res.FallbackUsed,
			MatchedKeywords:  res.MatchedKeywords,
			MatchedNegatives: res.MatchedNegatives,
			IsQuestion:       res.Grammar.IsQuestion,
			IsCommand:        res.Grammar.IsCommand,
			Tense:            string(res.Grammar.Tense),
			Tone:             res.Emotion.OverallTone,
			Prompt:           res.Prompt,
			Options:          res.Options,
			Style:            res.Style,
			ResolvedPrompt:   res.ResolvedPrompt,
		})
	}
}

// HealthCheckHandler reports liveness and which collaborators are configured.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service":   "lumora-router",
		"status":    "ok",
		"timestamp": time.Now(),
		"providers": map[string]bool{
			"ai_provider":   os.Getenv("PROVIDER_BASE_URL") != "",
			"vector_memory": os.Getenv("PINECONE_INDEX") != "",
			"redis":         os.Getenv("SESSION_BACKEND") == "redis",
		},
	})
}

// IndexHandler is a plain banner for humans poking the port.
func IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("lumora-router: POST /classify, GET /chat (websocket), GET /healthz\n"))
}
