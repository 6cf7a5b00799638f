// Package llm wraps the external LLM provider (§6) behind a narrow
// contract and layers the structured-output coercion/retry discipline (C14)
// that C4, C6 and C10 all share, grounded on the teacher's
// core/converter/struct_converter.go output-contract idiom.
package llm

import "context"

// Request is the text-to-structured-JSON call contract named in §6: a
// prompt, a schema descriptor to embed in it, and generation controls.
type Request struct {
	Prompt           string
	SchemaDescriptor string
	MaxOutputTokens  int
	Temperature      float64
	JSONMode         bool
}

// Provider is the narrow LLM contract the core consumes. Implementations
// return either the raw JSON text the model produced, or a transport error;
// they never parse the structured payload themselves — StructuredClient
// owns that.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
