package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstringFallbackMatchesCaseInsensitiveSynonym(t *testing.T) {
	idx := NewSchemaIndex(nil, "schema_terms")
	idx.terms = map[string]SchemaTerm{
		"Student/label": {
			Term:        "Student",
			Kind:        KindLabel,
			CanonicalID: "Student",
			Synonyms:    []string{"Student", "pupil", "learner"},
		},
		"Goal/label": {
			Term:        "Goal",
			Kind:        KindLabel,
			CanonicalID: "Goal",
			Synonyms:    []string{"Goal", "objective"},
		},
	}

	matches := idx.SubstringFallback("PUPIL", KindLabel)
	require.Len(t, matches, 1)
	assert.Equal(t, "Student", matches[0].CanonicalID)
	assert.Equal(t, 0.5, matches[0].Score)
}

func TestSubstringFallbackFiltersByKind(t *testing.T) {
	idx := NewSchemaIndex(nil, "schema_terms")
	idx.terms = map[string]SchemaTerm{
		"HAS_GOAL/relationship": {
			Term:        "HAS_GOAL",
			Kind:        KindRelationship,
			CanonicalID: "HAS_GOAL",
			Synonyms:    []string{"HAS_GOAL", "goal"},
		},
	}

	matches := idx.SubstringFallback("goal", KindLabel)
	assert.Empty(t, matches)
}
