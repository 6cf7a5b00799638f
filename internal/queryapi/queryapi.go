// Package queryapi exposes Pipeline.Ask over HTTP: a single POST endpoint
// that takes a question and returns the answer plus its supporting rows,
// chunks, and verification status. Plain net/http, same reasoning as
// adminapi: one endpoint does not earn a routing dependency.
package queryapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/paladugusuresh/graphrag/internal/errcode"
	"github.com/paladugusuresh/graphrag/internal/pipeline"
)

// Handler builds the question-answering mux.
func Handler(p *pipeline.Pipeline, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", askHandler(p, logger))
	return mux
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question     string            `json:"question"`
	Summary      string            `json:"summary"`
	Cypher       string            `json:"cypher"`
	Params       map[string]any    `json:"params"`
	Rows         []map[string]any  `json:"rows"`
	Chunks       []chunkView       `json:"chunks"`
	Citations    []string          `json:"citations"`
	Verification verificationView  `json:"verification"`
	TraceID      string            `json:"trace_id"`
	AuditID      string            `json:"audit_id"`
	Truncated    bool              `json:"truncated"`
}

type chunkView struct {
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text,omitempty"`
	Similarity float64 `json:"similarity"`
}

type verificationView struct {
	Status           string   `json:"status"`
	UnknownCitations []string `json:"unknown_citations,omitempty"`
}

type errorResponse struct {
	ReasonCode string `json:"reason_code"`
	Message    string `json:"message"`
}

func askHandler(p *pipeline.Pipeline, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		resp, err := p.Ask(r.Context(), req.Question)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeResponse(w, resp)
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	se, ok := err.(*errcode.StageError)
	if !ok {
		logger.Error("query: unclassified pipeline error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(errorResponse{ReasonCode: string(errcode.Internal), Message: err.Error()})
		return
	}
	w.WriteHeader(se.Code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorResponse{ReasonCode: string(se.Code), Message: se.Error()})
}

func writeResponse(w http.ResponseWriter, resp *pipeline.Response) {
	rows := make([]map[string]any, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		m := make(map[string]any, len(row.Columns))
		for i, col := range row.Columns {
			if i < len(row.Values) {
				m[col] = row.Values[i]
			}
		}
		rows = append(rows, m)
	}

	chunks := make([]chunkView, 0, len(resp.Chunks))
	for _, c := range resp.Chunks {
		chunks = append(chunks, chunkView{ChunkID: c.ChunkID, Text: c.Text, Similarity: c.Similarity})
	}

	out := askResponse{
		Question:  resp.Question,
		Summary:   resp.Summary,
		Cypher:    resp.Cypher,
		Params:    resp.Params,
		Rows:      rows,
		Chunks:    chunks,
		Citations: resp.Citations,
		Verification: verificationView{
			Status:           resp.Verification.Status,
			UnknownCitations: resp.Verification.UnknownCitations,
		},
		TraceID:   resp.TraceID,
		AuditID:   resp.AuditID,
		Truncated: resp.Truncated,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
