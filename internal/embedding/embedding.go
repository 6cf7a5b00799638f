// Package embedding wraps an embedding provider behind a narrow interface
// and normalises its response shape. The provider contract (§6) tolerates a
// flat vector, a list of vectors, or one of several nested JSON shapes; this
// package is the single place that coerces all of them into a uniform
// []Vector preserving input order 1:1.
package embedding

import (
	"context"
	"encoding/json"
	"fmt"
)

// Vector is a single embedding, always float32 regardless of what the
// upstream provider returned.
type Vector []float32

// Provider is the narrow embedding contract the core consumes.
type Provider interface {
	// Embed returns one Vector per input string, in the same order.
	Embed(ctx context.Context, inputs []string) ([]Vector, error)
}

// Dim returns the dimension of the first vector in vecs, or 0 if empty.
func Dim(vecs []Vector) int {
	if len(vecs) == 0 {
		return 0
	}
	return len(vecs[0])
}

// NormalizeRaw coerces a raw JSON embedding-provider response into a
// uniform []Vector. It accepts:
//   - a flat array of numbers:            [0.1, 0.2, ...]
//   - a list of vectors:                  [[0.1,0.2],[0.3,0.4]]
//   - {"data":[{"embedding":[...]}, ...]}  (OpenAI-style)
//   - {"embeddings":[[...], ...]}
//
// An empty provider response is a fatal refresh error per §4.2.
func NormalizeRaw(raw json.RawMessage) ([]Vector, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("embedding: empty provider response")
		}
		return []Vector{flat}, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("embedding: empty provider response")
		}
		return toVectors(nested), nil
	}

	var withData struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &withData); err == nil && len(withData.Data) > 0 {
		out := make([]Vector, 0, len(withData.Data))
		for _, d := range withData.Data {
			out = append(out, d.Embedding)
		}
		return out, nil
	}

	var withEmbeddings struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(raw, &withEmbeddings); err == nil && len(withEmbeddings.Embeddings) > 0 {
		return toVectors(withEmbeddings.Embeddings), nil
	}

	return nil, fmt.Errorf("embedding: unrecognised response shape")
}

func toVectors(nested [][]float32) []Vector {
	out := make([]Vector, len(nested))
	for i, v := range nested {
		out[i] = v
	}
	return out
}
