package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAugmentWithNoIndexOrDriverReturnsEmptyResult(t *testing.T) {
	r := New(nil, nil, nil, "")

	result, err := r.Augment(context.Background(), "What are Jane's goals?", []string{"node-1"}, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.Context)
}

func TestAugmentDefaultsKWhenNonPositive(t *testing.T) {
	r := New(nil, nil, nil, "")

	result, err := r.Augment(context.Background(), "What are Jane's goals?", nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestRetrieveChunksReturnsNilWhenEmbedderOrIndexMissing(t *testing.T) {
	r := New(nil, nil, nil, "")
	chunks, err := r.retrieveChunks(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestExpandAnchorsReturnsNilWhenDriverOrAnchorsMissing(t *testing.T) {
	r := New(nil, nil, nil, "")
	nodes, err := r.expandAnchors(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, nodes)
}
