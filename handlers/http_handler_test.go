package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumora-Labs/lumora-go-router/router"
	"github.com/Lumora-Labs/lumora-go-router/session"
)

func newTestHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	store := session.NewMemoryStore(time.Hour, 0)
	t.Cleanup(func() { store.Close() })
	return ClassifyHandler(router.New(store, nil, nil))
}

func postClassify(t *testing.T, h http.HandlerFunc, body ClassifyRequest) ClassifyResponse {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res ClassifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestClassifyHandler(t *testing.T) {
	h := newTestHandler(t)

	res := postClassify(t, h, ClassifyRequest{Message: "найди новости про драконов", SessionID: "s1"})
	assert.Equal(t, "s1", res.SessionID)
	assert.Equal(t, "web_search", res.Category)
	assert.Equal(t, "execute", res.Action)
	assert.True(t, res.IsCommand)
	assert.Greater(t, res.Confidence, 0)
}

func TestClassifyHandlerAssignsSessionID(t *testing.T) {
	h := newTestHandler(t)

	res := postClassify(t, h, ClassifyRequest{Message: "привет"})
	assert.NotEmpty(t, res.SessionID)
}

func TestClassifyHandlerDialogueOverREST(t *testing.T) {
	h := newTestHandler(t)

	first := postClassify(t, h, ClassifyRequest{Message: "Нарисуй дракона", SessionID: "rest-1"})
	require.Equal(t, "clarify", first.Action)
	assert.NotEmpty(t, first.Prompt)
	assert.NotEmpty(t, first.Options)

	second := postClassify(t, h, ClassifyRequest{Message: "принт", SessionID: "rest-1"})
	assert.Equal(t, "resume_choice", second.Action)
	assert.Equal(t, "print", second.Style)
	assert.Contains(t, second.ResolvedPrompt, "Нарисуй дракона")
}

func TestClassifyHandlerRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/classify", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheckHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	HealthCheckHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "lumora-router", body["service"])
}
