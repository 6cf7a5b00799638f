package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNameStripsHonorificAndWhitespace(t *testing.T) {
	a := NormalizeName("Dr. Jane  Doe ")
	b := NormalizeName("Jane Doe")
	assert.Equal(t, a, b)
}

func TestNormalizeNameIsIdempotent(t *testing.T) {
	once := NormalizeName("Mrs. Alice   Smith")
	twice := NormalizeName(once)
	assert.Equal(t, once, twice)
}

func TestDetectIntentMatchesGoalsKeyword(t *testing.T) {
	intent := DetectIntent("What are Jane Doe's goals for this term?")
	assert.Equal(t, "goals_for_student", intent)
}

func TestDetectIntentRequiresProperName(t *testing.T) {
	intent := DetectIntent("what are the goals of this program")
	assert.Equal(t, generalIntent, intent)
}

func TestDetectIntentFallsBackToGeneral(t *testing.T) {
	intent := DetectIntent("tell me something interesting")
	assert.Equal(t, generalIntent, intent)
}
