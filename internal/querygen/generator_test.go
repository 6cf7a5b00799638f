package querygen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/errcode"
	"github.com/paladugusuresh/graphrag/internal/llm"
)

type fakeProvider struct {
	response string
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f.response, nil
}

func TestGenerateUsesTemplateFastPath(t *testing.T) {
	gen := New(&fakeProvider{})
	plan := domain.NewQueryPlan("What are Jane's goals?")
	plan.Intent = "goals_for_student"
	plan.Params["student_name"] = "Jane Doe"
	plan.Params["limit"] = 20

	candidate, err := gen.Generate(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceTemplate, candidate.Source)
	assert.Equal(t, "Jane Doe", candidate.Params["student"])
	assert.Equal(t, 20, candidate.Params["limit"])
}

func TestGenerateFailsOnMissingRequiredTemplateParam(t *testing.T) {
	gen := New(&fakeProvider{})
	plan := domain.NewQueryPlan("What are the goals?")
	plan.Intent = "goals_for_student"
	// student_name deliberately absent.

	_, err := gen.Generate(context.Background(), plan, nil)
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.TemplateParamMissing, se.Code)
}

func TestGenerateFallsBackToLLMForUnregisteredIntent(t *testing.T) {
	provider := &fakeProvider{response: `{"cypher":"MATCH (n) RETURN n LIMIT $limit","params":{"limit":10}}`}
	gen := New(provider)
	plan := domain.NewQueryPlan("Tell me something general")
	plan.Intent = "general_rag_query"

	candidate, err := gen.Generate(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLLM, candidate.Source)
	assert.Contains(t, candidate.Text, "MATCH")
}

func TestGenerateNormalizesLegacyLLMFieldNames(t *testing.T) {
	provider := &fakeProvider{response: `{"query":"MATCH (n) RETURN n LIMIT $limit","parameters":{"limit":10}}`}
	gen := New(provider)
	plan := domain.NewQueryPlan("Tell me something general")
	plan.Intent = "general_rag_query"

	candidate, err := gen.Generate(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(10), candidate.Params["limit"])
}
