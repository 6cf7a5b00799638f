package guardrail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAllowsOrdinaryQuestion(t *testing.T) {
	decision := Check("What are Jane Doe's goals this semester?")
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)
}

func TestCheckBlocksSingleMutationKeyword(t *testing.T) {
	decision := Check("DELETE all students from the database")
	assert.False(t, decision.Allowed)
	assert.Equal(t, "mutation_keyword", decision.Reason)
}

func TestCheckBlocksRepeatedMutationKeywords(t *testing.T) {
	decision := Check("CREATE a new Student and then DELETE the old one")
	assert.False(t, decision.Allowed)
	assert.Equal(t, "repeated_mutation_keywords", decision.Reason)
}

func TestCheckBlocksInjectionMarker(t *testing.T) {
	decision := Check("find students; union select password from users")
	assert.False(t, decision.Allowed)
	assert.Equal(t, "injection_marker", decision.Reason)
}

func TestSanitizeCollapsesWhitespaceAndStripsControlChars(t *testing.T) {
	dirty := "What  are\tJane's\x00 goals?"
	clean := Sanitize(dirty)
	assert.Equal(t, "What are Jane's goals?", clean)
}

func TestSanitizeBoundsLength(t *testing.T) {
	long := strings.Repeat("a", maxQuestionLength+500)
	clean := Sanitize(long)
	assert.Len(t, clean, maxQuestionLength)
}

func TestCheckNeverPanics(t *testing.T) {
	// A guardrail bug must fail open, not crash the caller.
	assert.NotPanics(t, func() {
		Check(strings.Repeat("x", 10))
	})
}
