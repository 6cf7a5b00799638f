package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/paladugusuresh/graphrag/internal/domain"
)

// ChunkIndex is the chunk half of C9: a Qdrant collection of document-chunk
// vectors, kept in a distinct collection from the schema-term index
// (SPEC_FULL.md §4). chunk_id is opaque and stable across requests (§4.9).
type ChunkIndex struct {
	client         *qdrant.Client
	collectionName string
}

// NewChunkIndex wraps an existing Qdrant client for chunk retrieval.
func NewChunkIndex(client *qdrant.Client, collectionName string) *ChunkIndex {
	return &ChunkIndex{client: client, collectionName: collectionName}
}

// ErrIndexMissing is returned when the chunk collection does not exist,
// which C9 treats as "no chunks" rather than a hard failure (§4.9, §7).
var ErrIndexMissing = errors.New("vectorstore: chunk index missing")

// KNN retrieves up to topK chunks whose similarity to queryVector is at
// least minSimilarity, ordered by descending similarity.
func (c *ChunkIndex) KNN(ctx context.Context, queryVector []float32, topK int, minSimilarity float64) ([]domain.RetrievedChunk, error) {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: check chunk collection: %w", err)
	}
	if !exists {
		return nil, ErrIndexMissing
	}

	scored, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          ptrUint64(uint64(topK)),
		ScoreThreshold: ptrFloat32(float32(minSimilarity)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query chunk index: %w", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(scored))
	for _, p := range scored {
		payload := p.GetPayload()
		chunkID := ""
		if pid := p.GetId(); pid != nil {
			chunkID = pid.GetUuid()
		}
		out = append(out, domain.RetrievedChunk{
			ChunkID:     chunkID,
			Text:        stringField(payload, "text"),
			SourceDocID: stringField(payload, "source_doc_id"),
			Similarity:  float64(p.GetScore()),
		})
	}
	return out, nil
}

// Parent returns chunk's parent document/section - its own content, not
// just its id - for the bounded hierarchy walk C9 performs, or nil if
// chunkID has no stored parent. The parent's text and source_doc_id are
// fetched from the parent's own point payload so the walk surfaces real
// surrounding context rather than a content-less placeholder (§4.9 step 3).
func (c *ChunkIndex) Parent(ctx context.Context, chunkID string) (*domain.RetrievedChunk, error) {
	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.collectionName,
		Ids:            []*qdrant.PointId{qdrant.NewID(chunkID)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: get chunk %s: %w", chunkID, err)
	}
	if len(points) == 0 {
		return nil, nil
	}
	parentID := stringField(points[0].GetPayload(), "parent_chunk_id")
	if parentID == "" {
		return nil, nil
	}

	parentPoints, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.collectionName,
		Ids:            []*qdrant.PointId{qdrant.NewID(parentID)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: get parent chunk %s: %w", parentID, err)
	}
	if len(parentPoints) == 0 {
		return nil, nil
	}
	payload := parentPoints[0].GetPayload()
	return &domain.RetrievedChunk{
		ChunkID:     parentID,
		Text:        stringField(payload, "text"),
		SourceDocID: stringField(payload, "source_doc_id"),
	}, nil
}

func ptrFloat32(v float32) *float32 { return &v }
