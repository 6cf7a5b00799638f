package schemaembed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladugusuresh/graphrag/internal/embedding"
	"github.com/paladugusuresh/graphrag/internal/schema"
	"github.com/paladugusuresh/graphrag/internal/vectorstore"
)

type fakeEmbedder struct {
	calls [][]string
	vecs  []embedding.Vector
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	if f.vecs != nil {
		return f.vecs, nil
	}
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = embedding.Vector{1, 2, 3}
	}
	return out, nil
}

func testAllowList() *schema.AllowList {
	return schema.NewAllowList(
		[]string{"Student"},
		[]string{"HAS_GOAL"},
		map[string][]string{"Student": {"fullName"}},
	)
}

func TestBuildTermsEmitsOneRowPerCanonicalWhenNoSynonymsConfigured(t *testing.T) {
	e := New(vectorstore.NewSchemaIndex(nil, "schema_terms"), nil, nil)
	terms := e.buildTerms(testAllowList())

	require.Len(t, terms, 3) // label, relationship, property
	for _, term := range terms {
		assert.Len(t, term.Synonyms, 1)
	}
}

func TestBuildTermsEmitsOneRowPerConfiguredSynonym(t *testing.T) {
	synonyms := SynonymTable{
		"Student": {"pupil", "learner"},
	}
	e := New(vectorstore.NewSchemaIndex(nil, "schema_terms"), nil, synonyms)
	terms := e.buildTerms(testAllowList())

	var studentRows []vectorstore.SchemaTerm
	for _, term := range terms {
		if term.CanonicalID == "Student" {
			studentRows = append(studentRows, term)
		}
	}

	require.Len(t, studentRows, 3) // "Student" + "pupil" + "learner", each its own row
	surfaceTexts := map[string]bool{}
	for _, row := range studentRows {
		surfaceTexts[row.Term] = true
		assert.Equal(t, vectorstore.KindLabel, row.Kind)
		assert.Equal(t, []string{"Student", "pupil", "learner"}, row.Synonyms)
	}
	assert.True(t, surfaceTexts["Student"])
	assert.True(t, surfaceTexts["pupil"])
	assert.True(t, surfaceTexts["learner"])
}

func TestBuildTermsUsesDotQualifiedCanonicalForProperties(t *testing.T) {
	e := New(vectorstore.NewSchemaIndex(nil, "schema_terms"), nil, nil)
	terms := e.buildTerms(testAllowList())

	var propRow *vectorstore.SchemaTerm
	for i := range terms {
		if terms[i].Kind == vectorstore.KindProperty {
			propRow = &terms[i]
		}
	}
	require.NotNil(t, propRow)
	assert.Equal(t, "Student.fullName", propRow.CanonicalID)
	assert.Equal(t, "fullName", propRow.Term)
}

func TestRefreshEmbedsOneTextPerSynonymRow(t *testing.T) {
	synonyms := SynonymTable{"Student": {"pupil"}}
	embedder := &fakeEmbedder{}
	// A mismatched vector count surfaces before the index is ever touched,
	// which lets this run without a real Qdrant client: 4 terms are built
	// (Student, pupil, HAS_GOAL, Student.fullName) but the fake only
	// returns 1 vector, so Refresh must fail on the count check.
	embedder.vecs = []embedding.Vector{{1, 2, 3}}

	e := New(vectorstore.NewSchemaIndex(nil, "schema_terms"), embedder, synonyms)
	err := e.Refresh(context.Background(), testAllowList())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4")
	require.Len(t, embedder.calls, 1)
	assert.Len(t, embedder.calls[0], 4)
	assert.Contains(t, embedder.calls[0], "pupil")
}

func TestRefreshPropagatesEmbedProviderError(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("provider unavailable")}
	e := New(vectorstore.NewSchemaIndex(nil, "schema_terms"), embedder, nil)

	err := e.Refresh(context.Background(), testAllowList())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unavailable")
}

func TestRefreshRejectsEmptyAllowList(t *testing.T) {
	e := New(vectorstore.NewSchemaIndex(nil, "schema_terms"), &fakeEmbedder{}, nil)
	err := e.Refresh(context.Background(), schema.NewAllowList(nil, nil, nil))
	require.Error(t, err)
}
