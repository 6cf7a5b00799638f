package embedding

import (
	"context"
	"math"
)

// DevStubDim is the fixed dimensionality the offline dev stub produces.
const DevStubDim = 8

// DevStub is a deterministic embedding provider for offline testing (§6):
// it derives an 8-dimensional vector from each input's length and byte sum
// so that the same string always embeds to the same vector without any
// network call.
type DevStub struct{}

// NewDevStub returns the offline embedding stub.
func NewDevStub() *DevStub { return &DevStub{} }

func (d *DevStub) Embed(ctx context.Context, inputs []string) ([]Vector, error) {
	out := make([]Vector, len(inputs))
	for i, s := range inputs {
		out[i] = vectorFor(s)
	}
	return out, nil
}

// vectorFor is a pure function of s's length and byte sum so tests get
// stable, comparable vectors without depending on a real model.
func vectorFor(s string) Vector {
	v := make(Vector, DevStubDim)
	n := float32(len(s))
	var sum float32
	for _, b := range []byte(s) {
		sum += float32(b)
	}
	for i := 0; i < DevStubDim; i++ {
		phase := float32(i) + 1
		v[i] = float32(math.Sin(float64(n*phase + sum)))
	}
	return v
}
