package summariser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/llm"
)

type fakeProvider struct {
	response string
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f.response, nil
}

func TestSummariseVerifiesKnownCitations(t *testing.T) {
	provider := &fakeProvider{
		response: `{"summary":"Jane's goal is reading fluency [chunk-1].","citations":["chunk-1"]}`,
	}
	s := New(provider)

	chunks := []domain.RetrievedChunk{{ChunkID: "chunk-1", Text: "Jane's IEP goal is reading fluency."}}
	out, err := s.Summarise(context.Background(), "What is Jane's goal?", nil, chunks)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Verification.Status)
	assert.Empty(t, out.Verification.UnknownCitations)
}

func TestSummariseFlagsUnknownCitationWithoutFailing(t *testing.T) {
	provider := &fakeProvider{
		response: `{"summary":"Jane's goal is reading fluency [chunk-99].","citations":["chunk-99"]}`,
	}
	s := New(provider)

	chunks := []domain.RetrievedChunk{{ChunkID: "chunk-1", Text: "Jane's IEP goal is reading fluency."}}
	out, err := s.Summarise(context.Background(), "What is Jane's goal?", nil, chunks)
	require.NoError(t, err)
	assert.Equal(t, "failed", out.Verification.Status)
	assert.Equal(t, []string{"chunk-99"}, out.Verification.UnknownCitations)
}

func TestSummariseNormalizesLegacyFieldNames(t *testing.T) {
	provider := &fakeProvider{
		response: `{"answer":"Jane attends regularly.","sources":[]}`,
	}
	s := New(provider)

	out, err := s.Summarise(context.Background(), "How is Jane's attendance?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Jane attends regularly.", out.Summary)
}
