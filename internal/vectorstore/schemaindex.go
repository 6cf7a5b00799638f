// Package vectorstore wraps Qdrant collections for the two vector indexes
// the core needs: schema-term embeddings (C2) and document-chunk
// embeddings (C9), grounded on the teacher's
// providers/vectorstores/qdrant/store.go collection-lifecycle idiom.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/paladugusuresh/graphrag/internal/embedding"
)

// TermKind is the closed set of schema-term kinds (§3 SchemaTerm).
type TermKind string

const (
	KindLabel        TermKind = "label"
	KindRelationship TermKind = "relationship"
	KindProperty     TermKind = "property"
)

// SchemaTerm mirrors the §3 data model: created at bootstrap/refresh, never
// mutated in place, only replaced by a fresh collection.
type SchemaTerm struct {
	Term         string
	Kind         TermKind
	CanonicalID  string
	Embedding    embedding.Vector
	Synonyms     []string
}

// SchemaIndex is C2: it upserts schema-term vectors into a Qdrant
// collection and answers nearest-neighbor queries, recreating the
// collection whenever the embedding provider's dimension changes.
type SchemaIndex struct {
	client         *qdrant.Client
	collectionName string
	dim            int
	terms          map[string]SchemaTerm // "canonical_id/kind" -> term, for substring fallback
}

// NewSchemaIndex wraps an existing Qdrant client. collectionName is the
// collection used for schema-term vectors (kept distinct from the chunk
// collection used by C9, per SPEC_FULL.md §4).
func NewSchemaIndex(client *qdrant.Client, collectionName string) *SchemaIndex {
	return &SchemaIndex{client: client, collectionName: collectionName, terms: map[string]SchemaTerm{}}
}

// Refresh upserts terms (schema terms plus their configured synonyms,
// already embedded by the caller) into the index. If the dimension this
// SchemaIndex last wrote differs from the first embedding's length, the
// collection is dropped and recreated at the new dimension (§4.2). The
// collection's own declared dimension is not read: in a fresh process the
// remembered dimension is 0, so an existing collection is kept as it is,
// whatever its dimension. An empty terms slice or an empty first embedding
// is a fatal refresh error.
func (s *SchemaIndex) Refresh(ctx context.Context, terms []SchemaTerm) error {
	if len(terms) == 0 {
		return fmt.Errorf("vectorstore: schema index refresh: no terms")
	}
	newDim := len(terms[0].Embedding)
	if newDim == 0 {
		return fmt.Errorf("vectorstore: schema index refresh: empty embedding from provider")
	}

	if err := s.ensureCollection(ctx, newDim); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(terms))
	newTerms := make(map[string]SchemaTerm, len(terms))
	for _, t := range terms {
		if len(t.Embedding) != newDim {
			return fmt.Errorf("vectorstore: schema index refresh: inconsistent embedding dimension for %q", t.Term)
		}
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(t.Kind)+":"+t.CanonicalID+":"+t.Term)).String()
		payload, err := qdrant.TryValueMap(map[string]any{
			"term":         t.Term,
			"kind":         string(t.Kind),
			"canonical_id": t.CanonicalID,
			"synonyms":     t.Synonyms,
		})
		if err != nil {
			return fmt.Errorf("vectorstore: build payload for %q: %w", t.Term, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(t.Embedding...),
			Payload: payload,
		})
		newTerms[t.CanonicalID+"/"+string(t.Kind)] = t
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert schema terms: %w", err)
	}

	s.dim = newDim
	s.terms = newTerms
	return nil
}

func (s *SchemaIndex) ensureCollection(ctx context.Context, dim int) error {
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("vectorstore: check collection exists: %w", err)
	}

	if exists && s.dim != 0 && s.dim != dim {
		if _, err := s.client.DeleteCollection(ctx, s.collectionName); err != nil {
			return fmt.Errorf("vectorstore: drop collection for dimension change: %w", err)
		}
		exists = false
	}

	if exists {
		return nil
	}

	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("vectorstore: create collection: %w", err)
	}
	return nil
}

// NearestMatch is one result of a nearest-neighbor query: the matched
// term's canonical id, kind, and a score in [0,1].
type NearestMatch struct {
	CanonicalID string
	Kind        TermKind
	Term        string
	Score       float64
}

// Nearest returns the k schema terms whose embedding is closest to
// queryVector, tie-broken on lexicographic CanonicalID (§4.2).
func (s *SchemaIndex) Nearest(ctx context.Context, queryVector embedding.Vector, k int) ([]NearestMatch, error) {
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          ptrUint64(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query schema index: %w", err)
	}

	out := make([]NearestMatch, 0, len(scored))
	for _, p := range scored {
		payload := p.GetPayload()
		out = append(out, NearestMatch{
			CanonicalID: stringField(payload, "canonical_id"),
			Kind:        TermKind(stringField(payload, "kind")),
			Term:        stringField(payload, "term"),
			Score:       unitScore(float64(p.GetScore())),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CanonicalID < out[j].CanonicalID
	})

	return out, nil
}

// SubstringFallback performs the case-insensitive synonym substring match
// C5 falls back to when the embedder is unavailable, returning score 0.5
// for any hit (§4.5).
func (s *SchemaIndex) SubstringFallback(userTerm string, kind TermKind) []NearestMatch {
	lower := strings.ToLower(userTerm)
	var matches []NearestMatch
	for _, t := range s.terms {
		if t.Kind != kind {
			continue
		}
		for _, syn := range t.Synonyms {
			synLower := strings.ToLower(syn)
			if strings.Contains(synLower, lower) || strings.Contains(lower, synLower) {
				matches = append(matches, NearestMatch{
					CanonicalID: t.CanonicalID,
					Kind:        t.Kind,
					Term:        t.Term,
					Score:       0.5,
				})
				break
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].CanonicalID < matches[j].CanonicalID })
	return matches
}

func unitScore(cosine float64) float64 {
	return embedding.ToUnitScore(cosine)
}

func ptrUint64(v uint64) *uint64 { return &v }

func stringField(payload map[string]*qdrant.Value, key string) string {
	if payload == nil {
		return ""
	}
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return v.GetStringValue()
}
