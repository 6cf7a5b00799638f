// Package domain holds the per-request data model shared across pipeline
// stages (§3): plans, candidates, rows and chunks. These types are owned
// exclusively by the request that creates them and are never aliased
// across requests, per the Ownership rule in §3.
package domain

// EntityMapping records how a user-supplied term was resolved to a schema
// label, and with what confidence, as part of a QueryPlan.
type EntityMapping struct {
	UserTerm    string  `json:"user_term"`
	SchemaLabel string  `json:"schema_label"`
	Score       float64 `json:"score"`
}

// QueryPlan is the output of the Planner (C4): the detected intent, the
// primary entity, canonically-named parameters, and the mappings that
// produced them.
type QueryPlan struct {
	Intent         string                 `json:"intent"`
	AnchorEntity   string                 `json:"anchor_entity,omitempty"`
	Params         map[string]any         `json:"params"`
	Confidence     float64                `json:"confidence"`
	Question       string                 `json:"question"`
	EntityMappings []EntityMapping        `json:"entity_mappings"`
}

// NewQueryPlan returns a zero-value plan ready to accumulate params.
func NewQueryPlan(question string) *QueryPlan {
	return &QueryPlan{
		Question: question,
		Params:   map[string]any{},
	}
}

// CandidateSource records whether a CypherCandidate came from the template
// fast-path or the LLM fallback (C6).
type CandidateSource string

const (
	SourceTemplate CandidateSource = "template"
	SourceLLM      CandidateSource = "llm"
)

// CypherCandidate is a generated, not-yet-validated (query, params) pair.
type CypherCandidate struct {
	Text   string          `json:"text"`
	Params map[string]any  `json:"params"`
	Source CandidateSource `json:"source"`
}

// ResultRow is one row of a query result, columns and values kept in the
// same order so zipping them is unambiguous.
type ResultRow struct {
	Columns []string `json:"columns"`
	Values  []any    `json:"values"`
	NodeIDs []string `json:"node_ids,omitempty"`
}

// RetrievedChunk is a text fragment surfaced by the retriever (C9). ChunkID
// is the only identifier the summariser (C10) may cite.
type RetrievedChunk struct {
	ChunkID     string  `json:"chunk_id"`
	Text        string  `json:"text"`
	SourceDocID string  `json:"source_doc_id"`
	Similarity  float64 `json:"similarity"`
}

// GraphContextNode is a label+id pair surfaced by the 1-hop anchor
// expansion in C9; properties are deliberately omitted (§4.9).
type GraphContextNode struct {
	Labels []string `json:"labels"`
	NodeID string   `json:"node_id"`
}

// Verification is the outcome of citation checking in C10.
type Verification struct {
	Status           string   `json:"status"` // "ok" | "failed"
	UnknownCitations []string `json:"unknown_citations,omitempty"`
}
