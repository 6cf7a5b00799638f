package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/errcode"
	"github.com/paladugusuresh/graphrag/internal/schema"
)

func testAllowList() *schema.AllowList {
	return schema.NewAllowList(
		[]string{"Student", "Goal"},
		[]string{"HAS_GOAL"},
		map[string][]string{"Student": {"fullName"}},
	)
}

func TestValidateAcceptsWellFormedCandidate(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL]->(g:Goal) WHERE s.fullName = $student RETURN g.title AS goal LIMIT $limit`,
		Params: map[string]any{"student": "Jane Doe", "limit": 10},
		Source: domain.SourceTemplate,
	}

	out, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.NoError(t, err)
	assert.Same(t, candidate, out)
}

func TestValidateRejectsMutationKeyword(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student) DELETE s`,
		Params: map[string]any{},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationWriteBan, se.Code)
}

func TestValidateRejectsUnknownLabel(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:NotAllowed) RETURN s LIMIT $limit`,
		Params: map[string]any{"limit": 5},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationUnknownLbl, se.Code)
}

func TestValidateRejectsUnboundedTraversal(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL*]->(g:Goal) RETURN g LIMIT $limit`,
		Params: map[string]any{"limit": 5},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationDepth, se.Code)
}

func TestValidateRejectsTraversalBeyondMaxDepth(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL*1..5]->(g:Goal) RETURN g LIMIT $limit`,
		Params: map[string]any{"limit": 5},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationDepth, se.Code)
}

func TestValidateAcceptsFixedCountTraversalWithinMaxDepth(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL*2]->(g:Goal) RETURN g LIMIT $limit`,
		Params: map[string]any{"limit": 5},
	}
	out, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.NoError(t, err)
	assert.Same(t, candidate, out)
}

func TestValidateRejectsFixedCountTraversalBeyondMaxDepth(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL*3]->(g:Goal) RETURN g LIMIT $limit`,
		Params: map[string]any{"limit": 5},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationDepth, se.Code)
}

func TestValidateAutoInjectsMissingLimit(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL]->(g:Goal) RETURN g.title AS goal`,
		Params: map[string]any{},
		Source: domain.SourceTemplate,
	}
	out, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25, AutoInjectLimit: true})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "LIMIT $limit")
	assert.Equal(t, 25, out.Params["limit"])
}

func TestValidateRejectsMissingLimitWithoutAutoInject(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL]->(g:Goal) RETURN g.title AS goal`,
		Params: map[string]any{},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25, AutoInjectLimit: false})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationLimit, se.Code)
}

func TestValidateRejectsOversizedLimit(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student)-[:HAS_GOAL]->(g:Goal) RETURN g.title AS goal LIMIT 1000`,
		Params: map[string]any{},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationLimit, se.Code)
}

func TestValidateRejectsUnboundParameter(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student) WHERE s.fullName = $student RETURN s LIMIT $limit`,
		Params: map[string]any{"limit": 5},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationParamUnbnd, se.Code)
}

func TestValidateRejectsUnparameterisedLiteral(t *testing.T) {
	candidate := &domain.CypherCandidate{
		Text:   `MATCH (s:Student) WHERE s.fullName = "Jane RETURN s LIMIT $limit`,
		Params: map[string]any{"limit": 5},
	}
	_, err := Validate(candidate, testAllowList(), Policy{MaxTraversalDepth: 2, MaxCypherResults: 25})
	require.Error(t, err)
	var se *errcode.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errcode.ValidationUnparam, se.Code)
}
