// Package querygen implements C6: the template fast-path and LLM fallback
// that turn a QueryPlan into a CypherCandidate.
package querygen

import (
	"context"
	"fmt"
	"strings"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/errcode"
	"github.com/paladugusuresh/graphrag/internal/llm"
	"github.com/paladugusuresh/graphrag/internal/schema"
)

// llmCypherOutput is the closed schema the LLM structured call is
// constrained to (§4.6 step 2): exactly two keys, cypher and params.
type llmCypherOutput struct {
	Cypher string         `json:"cypher" jsonschema:"required,description=A single read-only Cypher query using only $-prefixed parameters"`
	Params map[string]any `json:"params" jsonschema:"required,description=Parameter bindings for every $name referenced in cypher"`
}

// Generator is C6.
type Generator struct {
	llmClient *llm.StructuredClient[llmCypherOutput]
}

// New builds a Generator whose LLM fallback is backed by provider.
func New(provider llm.Provider) *Generator {
	return &Generator{
		llmClient: llm.NewStructuredClient(llm.StructuredCallConfig[llmCypherOutput]{
			Provider: provider,
			Stage:    "query_generator",
			// §4.6: "query"→"cypher", "parameters"→"params"; idempotent if
			// the canonical key is already present (§8).
			Aliases:     llm.FieldAliases{"query": "cypher", "parameters": "params"},
			Temperature: 0,
			JSONMode:    true,
			MaxAttempts: 3,
			Validate:    validateCypherOutput,
		}),
	}
}

func validateCypherOutput(out llmCypherOutput) error {
	if strings.TrimSpace(out.Cypher) == "" {
		return fmt.Errorf("cypher field is empty")
	}
	return nil
}

// Generate runs the two-path algorithm: template fast-path first, LLM
// fallback when plan.Intent has no registered template.
func (g *Generator) Generate(ctx context.Context, plan *domain.QueryPlan, allowList *schema.AllowList) (*domain.CypherCandidate, error) {
	if tpl := LookupTemplate(plan.Intent); tpl != nil {
		return generateFromTemplate(tpl, plan)
	}
	return g.generateFromLLM(ctx, plan, allowList)
}

// generateFromTemplate applies the canonical→legacy parameter mapping and
// fails hard on any required parameter the plan did not resolve (§4.6).
func generateFromTemplate(tpl *Template, plan *domain.QueryPlan) (*domain.CypherCandidate, error) {
	params := map[string]any{}

	for _, required := range tpl.RequiredParams() {
		canonical := required
		for c, legacy := range tpl.LegacyParamNames {
			if legacy == required {
				canonical = c
				break
			}
		}

		if v, ok := plan.Params[canonical]; ok {
			params[required] = v
			continue
		}
		if v, ok := plan.Params[required]; ok {
			params[required] = v
			continue
		}
		if required == "limit" {
			continue // the validator is entitled to inject this (§3 Invariant).
		}
		return nil, errcode.New("query_generator", errcode.TemplateParamMissing,
			fmt.Errorf("template %q requires parameter %q", tpl.Intent, required))
	}

	return &domain.CypherCandidate{
		Text:   tpl.Text,
		Params: params,
		Source: domain.SourceTemplate,
	}, nil
}

// generateFromLLM builds the prompt described in §4.6 step 2 and runs it
// through the C14 structured client.
func (g *Generator) generateFromLLM(ctx context.Context, plan *domain.QueryPlan, allowList *schema.AllowList) (*domain.CypherCandidate, error) {
	prompt := buildLLMPrompt(plan, allowList)

	out, err := g.llmClient.Call(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &domain.CypherCandidate{
		Text:   out.Cypher,
		Params: out.Params,
		Source: domain.SourceLLM,
	}, nil
}

func buildLLMPrompt(plan *domain.QueryPlan, allowList *schema.AllowList) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(plan.Question)
	b.WriteString("\n\nPlan intent: ")
	b.WriteString(plan.Intent)
	b.WriteString("\nPlan params: ")
	fmt.Fprintf(&b, "%v", plan.Params)

	if allowList != nil {
		b.WriteString("\n\nAllowed labels: ")
		b.WriteString(strings.Join(allowList.SortedLabels(), ", "))
		b.WriteString("\nAllowed relationships: ")
		b.WriteString(strings.Join(allowList.SortedRelationships(), ", "))
	}

	b.WriteString("\n\nWrite a single read-only Cypher query that answers the question. " +
		"Never inline literals that come from the question or the plan; bind them as $parameters instead. " +
		"Always include a LIMIT clause bounded by the plan's limit parameter.")

	return b.String()
}
