package queryapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paladugusuresh/graphrag/internal/audit"
	"github.com/paladugusuresh/graphrag/internal/config"
	"github.com/paladugusuresh/graphrag/internal/pipeline"
)

func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	sink, err := audit.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return pipeline.New(config.DefaultPolicy(), nil, nil, nil, nil, nil, nil, sink, nil, zap.NewNop())
}

func TestAskHandlerRejectsNonPostMethods(t *testing.T) {
	h := Handler(newTestPipeline(t), zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAskHandlerRejectsMalformedBody(t *testing.T) {
	h := Handler(newTestPipeline(t), zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskHandlerReturnsGuardrailReasonCodeWhenBlocked(t *testing.T) {
	h := Handler(newTestPipeline(t), zap.NewNop())
	body, err := json.Marshal(askRequest{Question: "CREATE a student DELETE everything"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "GUARDRAIL_BLOCKED", errResp.ReasonCode)
}
