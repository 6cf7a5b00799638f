package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	a := Vector{1, 0, 0}
	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9)
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	a := Vector{1, 0}
	b := Vector{0, 1}
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarityOppositeVectors(t *testing.T) {
	a := Vector{1, 0}
	b := Vector{-1, 0}
	assert.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-9)
}

func TestToUnitScoreMapsRangeCorrectly(t *testing.T) {
	assert.InDelta(t, 1.0, ToUnitScore(1.0), 1e-9)
	assert.InDelta(t, 0.5, ToUnitScore(0.0), 1e-9)
	assert.InDelta(t, 0.0, ToUnitScore(-1.0), 1e-9)
}

func TestDevStubIsDeterministic(t *testing.T) {
	stub := NewDevStub()
	a, err := stub.Embed(nil, []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := stub.Embed(nil, []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, a, b)
	assert.Len(t, a[0], DevStubDim)
}
