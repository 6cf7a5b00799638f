package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paladugusuresh/graphrag/internal/errcode"
)

// FieldAliases maps a legacy/alternate JSON key to the canonical key the
// target struct expects, applied before unmarshalling. §4.6 names the
// concrete case: "query"→"cypher", "parameters"→"params". Idempotent: if
// the canonical key is already present, the alias is dropped rather than
// overwriting it (normalising twice is a no-op, §8).
type FieldAliases map[string]string

// NormalizeFields rewrites any aliased keys present in raw to their
// canonical name, leaving already-canonical input untouched.
func NormalizeFields(raw []byte, aliases FieldAliases) ([]byte, error) {
	if len(aliases) == 0 {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("llm: normalize fields: %w", err)
	}

	for from, to := range aliases {
		if _, hasCanonical := obj[to]; hasCanonical {
			delete(obj, from)
			continue
		}
		if v, ok := obj[from]; ok {
			obj[to] = v
			delete(obj, from)
		}
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("llm: remarshal normalized fields: %w", err)
	}
	return out, nil
}

// StructuredCallConfig configures one structured-output call shared by
// C4/C6/C10 (C14 in SPEC_FULL.md).
type StructuredCallConfig[T any] struct {
	Provider     Provider
	Stage        string // attributed in the resulting StageError
	Aliases      FieldAliases
	Validate     func(T) error
	MaxAttempts  int // default 3, matching "retry up to 2 additional times"
	Temperature  float64
	JSONMode     bool
	MaxTokens    int
}

// StructuredClient runs the "build schema instruction, call, normalise,
// validate, retry with a diff" loop named in §4.6 and reused by §4.10,
// grounded on the teacher's StructConverter (core/converter/struct_converter.go)
// generalized from a single Convert() call into a retrying call loop.
type StructuredClient[T any] struct {
	cfg StructuredCallConfig[T]
}

// NewStructuredClient builds a client for T with defaults applied.
func NewStructuredClient[T any](cfg StructuredCallConfig[T]) *StructuredClient[T] {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &StructuredClient[T]{cfg: cfg}
}

// Call executes the structured request, retrying on schema violations.
func (c *StructuredClient[T]) Call(ctx context.Context, basePrompt string) (T, error) {
	var zero T

	schemaStr, err := StringSchemaOf(zero)
	if err != nil {
		return zero, fmt.Errorf("llm: build schema for %s: %w", c.cfg.Stage, err)
	}

	prompt := basePrompt + "\n\n" + outputContract(schemaStr)
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		raw, err := c.cfg.Provider.Complete(ctx, Request{
			Prompt:           prompt,
			SchemaDescriptor: schemaStr,
			MaxOutputTokens:  c.cfg.MaxTokens,
			Temperature:      c.cfg.Temperature,
			JSONMode:         c.cfg.JSONMode,
		})
		if err != nil {
			// Transport failure escapes as a plain error per §9 ("only
			// error(transport) may escape as a fault").
			return zero, fmt.Errorf("llm: %s: provider call: %w", c.cfg.Stage, err)
		}

		normalized, nerr := NormalizeFields([]byte(raw), c.cfg.Aliases)
		if nerr != nil {
			lastErr = nerr
			prompt = appendDiff(prompt, nerr)
			continue
		}

		var out T
		if uerr := json.Unmarshal(normalized, &out); uerr != nil {
			lastErr = uerr
			prompt = appendDiff(prompt, uerr)
			continue
		}

		if c.cfg.Validate != nil {
			if verr := c.cfg.Validate(out); verr != nil {
				lastErr = verr
				prompt = appendDiff(prompt, verr)
				continue
			}
		}

		return out, nil
	}

	return zero, errcode.New(c.cfg.Stage, errcode.LLMStructuredFailure, lastErr)
}

func outputContract(schemaJSON string) string {
	return "Your response must be a single RFC8259-compliant JSON object and nothing else. " +
		"Do not include markdown code fences or explanations. " +
		"The JSON must validate against this schema:\n" + schemaJSON
}

func appendDiff(prompt string, violation error) string {
	return prompt + "\n\nYour previous response violated the output contract: " +
		violation.Error() + "\nCorrect it and respond again with only the JSON object."
}
