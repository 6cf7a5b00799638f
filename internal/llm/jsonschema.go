package llm

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// StringSchemaOf renders v's JSON schema as a compact string, the way the
// structured client embeds the output contract into an LLM prompt.
func StringSchemaOf(v any) (string, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		r.ExpandedStruct = true
	}

	schema := r.Reflect(v)
	raw, err := schema.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("llm: marshal json schema: %w", err)
	}
	return string(raw), nil
}
