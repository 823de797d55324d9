// Package router ties the pure analyzers, the session store, the intent
// scorer and the dialogue coordinator into the single inbound operation:
// classify a message for a session. It owns same-session serialization, so
// callers may send concurrent requests without their own locking.
package router

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lumora-Labs/lumora-go-router/analysis"
	"github.com/Lumora-Labs/lumora-go-router/dialogue"
	"github.com/Lumora-Labs/lumora-go-router/history"
	"github.com/Lumora-Labs/lumora-go-router/intent"
	"github.com/Lumora-Labs/lumora-go-router/models"
	"github.com/Lumora-Labs/lumora-go-router/session"
)

// FallbackClassifier is the optional external model consulted when the
// heuristic confidence lands below the adaptive threshold. Empty category or
// any error means the model declined and the result stays conversation.
type FallbackClassifier interface {
	ClassifyCategory(ctx context.Context, message string) (string, error)
}

// lockStripes bounds memory for same-session serialization: sessions hash
// onto a fixed set of mutexes instead of one mutex per session id.
const lockStripes = 64

type Router struct {
	store       session.Store
	scorer      *intent.Scorer
	coordinator *dialogue.Coordinator
	fallback    FallbackClassifier
	archive     *history.Archive
	known       map[models.Category]bool

	locks [lockStripes]sync.Mutex
}

// New builds a router over the embedded category table. fallback and archive
// may be nil; classification degrades per the error taxonomy instead of
// failing.
func New(store session.Store, fallback FallbackClassifier, archive *history.Archive) *Router {
	table := intent.DefaultTable()
	known := make(map[models.Category]bool, len(table.Categories))
	for _, c := range table.Categories {
		known[c.Name] = true
	}
	return &Router{
		store:       store,
		scorer:      intent.NewScorer(table),
		coordinator: dialogue.NewCoordinator(),
		fallback:    fallback,
		archive:     archive,
		known:       known,
	}
}

func (r *Router) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &r.locks[h.Sum32()%lockStripes]
}

// Classify is the inbound contract: one message for one session, with the
// caller's view of the artifact context. It is total — every input, empty
// strings and unknown sessions included, yields a valid result — and the
// returned error is reserved for contract evolution; today it is always nil.
func (r *Router) Classify(ctx context.Context, message, sessionID string, env models.Env) (*models.ClassificationResult, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	mu := r.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	var (
		grammar models.GrammarSignal
		emotion models.EmotionSignal
	)
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		grammar = analysis.AnalyzeGrammar(message)
		return nil
	})
	eg.Go(func() error {
		emotion = analysis.AnalyzeEmotion(message)
		return nil
	})
	_ = eg.Wait()

	st, err := r.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		// Stateless degradation: classify against a throwaway session
		// rather than failing the message.
		zap.L().Warn("session store unavailable, classifying statelessly",
			zap.String("session_id", sessionID), zap.Error(err))
		st = session.NewState(sessionID)
	}
	st.Touch()

	// The session's own action history confirms the artifact context even
	// when the caller did not pass it.
	if !env.HasRecentArtifact && st.HasRecentArtifact() {
		env.HasRecentArtifact = true
	}
	if env.ArtifactSummary == "" {
		if rec, ok := st.LastArtifact(); ok {
			env.ArtifactSummary = rec.Summary
		}
	}

	// A message arriving while a dispatch is still unreported is the
	// unexpected-input trigger: reset to ready so the session cannot
	// wedge in generating.
	r.coordinator.ResetStaleDispatch(st)

	// A pending clarification is checked first; an unrecognized reply
	// resets the dialogue and falls through to fresh scoring.
	if res, ok := r.coordinator.ResolveChoice(message, grammar, emotion, st); ok {
		r.save(ctx, st)
		return &res, nil
	}

	res := r.scorer.Score(message, grammar, emotion, env)

	if clarified, ok := r.coordinator.MaybeClarify(message, res, st); ok {
		r.save(ctx, st)
		return &clarified, nil
	}

	if !res.Forced && res.Confidence < res.Threshold {
		res = r.consultFallback(ctx, message, res)
	}

	r.noteInterests(st, res)
	if res.Action == models.ActionExecute {
		r.coordinator.BeginDispatch(st, res.Category)
	}
	r.save(ctx, st)
	return &res, nil
}

// ReportDispatch records a completed action and applies the generating ->
// ready transition. Storage failures are logged and swallowed; the outcome
// of an already-finished action must not fail the caller.
func (r *Router) ReportDispatch(ctx context.Context, sessionID string, rec models.ActionRecord, outcome models.DispatchOutcome) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	mu := r.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := r.store.RecordAction(ctx, sessionID, rec); err != nil {
		zap.L().Warn("failed to record action",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	if r.archive != nil {
		if err := r.archive.Record(ctx, sessionID, rec); err != nil {
			zap.L().Warn("failed to archive action",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	st, err := r.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		zap.L().Warn("session store unavailable on dispatch report",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	r.coordinator.CompleteDispatch(st, outcome)
	r.save(ctx, st)
}

// consultFallback defers a below-threshold result to the external model. A
// nil, failing or declining model leaves the category at conversation.
func (r *Router) consultFallback(ctx context.Context, message string, res models.ClassificationResult) models.ClassificationResult {
	res.FallbackUsed = true
	if r.fallback != nil {
		cat, err := r.fallback.ClassifyCategory(ctx, message)
		switch {
		case err != nil:
			zap.L().Warn("fallback classifier failed", zap.Error(err))
		case cat != "" && r.known[models.Category(cat)]:
			res.Category = models.Category(cat)
			return res
		}
	}
	res.Category = models.CategoryConversation
	return res
}

// noteInterests feeds the session's auxiliary goal/topic counters. They are
// inspection data, never a classifier input.
func (r *Router) noteInterests(st *session.State, res models.ClassificationResult) {
	if res.Category != models.CategoryConversation {
		st.NoteGoal(string(res.Category))
	}
	for _, kw := range res.MatchedKeywords {
		st.NoteTopic(kw)
	}
}

func (r *Router) save(ctx context.Context, st *session.State) {
	if err := r.store.Save(ctx, st); err != nil {
		zap.L().Warn("failed to save session state",
			zap.String("session_id", st.ID), zap.Error(err))
	}
}
