package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider adapts openai-go/v3's embeddings API to Provider. It reads
// the OpenAI `data[].embedding` list directly and returns one Vector per
// entry, in response order; it does not go through NormalizeRaw.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider builds an embedding provider bound to apiKey and model.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: openai api key is required")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client, model: model}, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, inputs []string) ([]Vector, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: p.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: inputs,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: openai call: %w", err)
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal provider response: %w", err)
	}

	type datum struct {
		Embedding []float32 `json:"embedding"`
	}
	var data []datum
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("embedding: unmarshal provider response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("embedding: empty provider response")
	}

	out := make([]Vector, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}
