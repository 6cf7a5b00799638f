// Package semanticmap implements C5: mapping a user-supplied term to schema
// labels/relationships/properties via the C2 vector index, falling back to
// substring matching when the embedder is unavailable.
package semanticmap

import (
	"context"

	"github.com/paladugusuresh/graphrag/internal/embedding"
	"github.com/paladugusuresh/graphrag/internal/planner"
	"github.com/paladugusuresh/graphrag/internal/vectorstore"
)

// DefaultTopK is the retriever top-k policy default the spec's Open
// Questions call out as configurable (§9).
const DefaultTopK = 5

// Mapper is C5.
type Mapper struct {
	index     *vectorstore.SchemaIndex
	embedder  embedding.Provider
	topK      int
}

// New builds a Mapper. A nil embedder makes every call use the substring
// fallback.
func New(index *vectorstore.SchemaIndex, embedder embedding.Provider, topK int) *Mapper {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Mapper{index: index, embedder: embedder, topK: topK}
}

var _ planner.Mapper = (*Mapper)(nil)

// Map satisfies planner.Mapper, translating vectorstore.NearestMatch into
// the (schema_id, score) pairs the planner expects.
func (m *Mapper) Map(ctx context.Context, userTerm string, kind string) ([]planner.MapResult, error) {
	matches, err := m.mapKind(ctx, userTerm, vectorstore.TermKind(kind))
	if err != nil {
		return nil, err
	}
	out := make([]planner.MapResult, len(matches))
	for i, mm := range matches {
		out[i] = planner.MapResult{SchemaID: mm.CanonicalID, Score: mm.Score}
	}
	return out, nil
}

// mapKind is the core §4.5 algorithm: embed, query C2's index for top-k,
// filter by kind, or fall back to substring matching when the embedder is
// unavailable.
func (m *Mapper) mapKind(ctx context.Context, userTerm string, kind vectorstore.TermKind) ([]vectorstore.NearestMatch, error) {
	if m.embedder == nil {
		return m.index.SubstringFallback(userTerm, kind), nil
	}

	vecs, err := m.embedder.Embed(ctx, []string{userTerm})
	if err != nil || len(vecs) == 0 {
		// Embedder unavailable: fall back rather than fail (§4.5).
		return m.index.SubstringFallback(userTerm, kind), nil
	}

	matches, err := m.index.Nearest(ctx, vecs[0], m.topK)
	if err != nil {
		return m.index.SubstringFallback(userTerm, kind), nil
	}

	filtered := make([]vectorstore.NearestMatch, 0, len(matches))
	for _, mm := range matches {
		if mm.Kind == kind {
			filtered = append(filtered, mm)
		}
	}
	return filtered, nil
}
