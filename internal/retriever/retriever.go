// Package retriever implements C9: vector-similarity chunk retrieval plus a
// small-radius graph expansion around the executor's result anchors,
// grounded on the teacher's parallel-retriever shape in
// ai/rag/pipeline.go (retrieveByQuery's errgroup fan-out), generalized from
// "run N document retrievers" to "run the chunk KNN and the anchor
// expansion concurrently".
package retriever

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/embedding"
	"github.com/paladugusuresh/graphrag/internal/vectorstore"
)

// Policy bundles the retriever's tunables (§9 Open Questions: top-k is
// configurable, not hard-coded).
type Policy struct {
	TopK              int
	SimilarityFloor   float64
	MaxTraversalDepth int
}

// Retriever is C9.
type Retriever struct {
	chunkIndex *vectorstore.ChunkIndex
	embedder   embedding.Provider
	driver     neo4j.DriverWithContext
	database   string
}

// New builds a Retriever.
func New(chunkIndex *vectorstore.ChunkIndex, embedder embedding.Provider, driver neo4j.DriverWithContext, database string) *Retriever {
	return &Retriever{chunkIndex: chunkIndex, embedder: embedder, driver: driver, database: database}
}

// Result is what Augment returns: the retrieved chunks plus the anchor
// graph-context expansion.
type Result struct {
	Chunks  []domain.RetrievedChunk
	Context []domain.GraphContextNode
}

// Augment runs the C9 algorithm. A missing or empty chunk vector index is
// not a failure (§4.9, §7 fail-open): it yields empty chunks and empty
// context.
func (r *Retriever) Augment(ctx context.Context, question string, anchorNodeIDs []string, k int) (*Result, error) {
	if k <= 0 {
		k = 5
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		chunks   []domain.RetrievedChunk
		graphCtx []domain.GraphContextNode
	)

	g.Go(func() error {
		cs, err := r.retrieveChunks(gctx, question, k)
		if err != nil {
			// Fail-open per §4.9/§7: missing index yields empty chunks.
			return nil
		}
		chunks = cs
		return nil
	})

	g.Go(func() error {
		nodes, err := r.expandAnchors(gctx, anchorNodeIDs)
		if err != nil {
			return nil // graph expansion is best-effort augmentation.
		}
		graphCtx = nodes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retriever: augment: %w", err)
	}

	return &Result{Chunks: chunks, Context: graphCtx}, nil
}

// maxParentHops bounds the parent/child hierarchy walk (§4.9 step 3): a
// chunk's containing section is pulled in once, never recursively beyond
// this depth, so a cyclic or very deep parent chain cannot turn one
// retrieval into an unbounded fan-out.
const maxParentHops = 2

// retrieveChunks embeds question with the same provider C2 uses, queries
// the chunk KNN index, then walks each hit's parent chain up to
// maxParentHops to pull in surrounding context (§4.9 steps 1-3). A missing
// index surfaces as vectorstore.ErrIndexMissing, which the caller treats
// as "no chunks" rather than a fault.
func (r *Retriever) retrieveChunks(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error) {
	if r.embedder == nil || r.chunkIndex == nil {
		return nil, nil
	}
	vecs, err := r.embedder.Embed(ctx, []string{question})
	if err != nil || len(vecs) == 0 {
		return nil, fmt.Errorf("retriever: embed question: %w", err)
	}

	hits, err := r.chunkIndex.KNN(ctx, vecs[0], k, 0.0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(hits))
	out := make([]domain.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		seen[h.ChunkID] = struct{}{}
		out = append(out, h)
	}

	for _, h := range hits {
		current := h.ChunkID
		for hop := 0; hop < maxParentHops; hop++ {
			parent, err := r.chunkIndex.Parent(ctx, current)
			if err != nil || parent == nil {
				break
			}
			if _, dup := seen[parent.ChunkID]; dup {
				break
			}
			seen[parent.ChunkID] = struct{}{}
			out = append(out, *parent)
			current = parent.ChunkID
		}
	}

	return out, nil
}

// expandAnchors follows each anchor node 1 hop outward and collects
// labels+ids for context display, with no properties (§4.9 step 4).
func (r *Retriever) expandAnchors(ctx context.Context, anchorNodeIDs []string) ([]domain.GraphContextNode, error) {
	if r.driver == nil || len(anchorNodeIDs) == 0 {
		return nil, nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var out []domain.GraphContextNode
		for _, anchorID := range anchorNodeIDs {
			res, err := tx.Run(ctx,
				`MATCH (a) WHERE elementId(a) = $anchorId
				 MATCH (a)--(n)
				 RETURN DISTINCT labels(n) AS labels, elementId(n) AS id
				 LIMIT 25`,
				map[string]any{"anchorId": anchorID})
			if err != nil {
				return nil, err
			}
			records, err := res.Collect(ctx)
			if err != nil {
				return nil, err
			}
			for _, rec := range records {
				labelsVal, _ := rec.Get("labels")
				idVal, _ := rec.Get("id")
				node := domain.GraphContextNode{}
				if id, ok := idVal.(string); ok {
					node.NodeID = id
				}
				if rawLabels, ok := labelsVal.([]any); ok {
					for _, l := range rawLabels {
						if s, ok := l.(string); ok {
							node.Labels = append(node.Labels, s)
						}
					}
				}
				out = append(out, node)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("retriever: expand anchors: %w", err)
	}
	return result.([]domain.GraphContextNode), nil
}
