// Package planner implements C4: intent detection, LLM-backed entity
// extraction, semantic mapping of extracted names to schema labels, and
// canonical parameter population.
package planner

import (
	"context"
	"regexp"
	"strings"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/llm"
)

// Mapper is the C5 contract the planner consults to resolve an extracted
// name to a schema label.
type Mapper interface {
	Map(ctx context.Context, userTerm string, kind string) ([]MapResult, error)
}

// MapResult is one (schema_id, score) pair C5 returns.
type MapResult struct {
	SchemaID string
	Score    float64
}

// intentRule is one row of the keyword-pattern table §4.4 step 1 describes.
type intentRule struct {
	intent   string
	keywords []string // all must appear (case-insensitive) for the rule to match
}

// defaultIntentRules mirrors the example in §4.4: "contains `goal` and a
// proper name → goals_for_student".
var defaultIntentRules = []intentRule{
	{intent: "goals_for_student", keywords: []string{"goal"}},
	{intent: "attendance_for_student", keywords: []string{"attendance"}},
	{intent: "grades_for_student", keywords: []string{"grade"}},
	{intent: "courses_for_student", keywords: []string{"course"}},
}

const generalIntent = "general_rag_query"

var properNamePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

// DetectIntent matches question against the keyword table; unmatched
// questions fall through to the general RAG intent (§4.4 step 1).
func DetectIntent(question string) string {
	lower := strings.ToLower(question)
	hasProperName := properNamePattern.MatchString(question)
	for _, rule := range defaultIntentRules {
		matched := true
		for _, kw := range rule.keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}
		if matched && hasProperName {
			return rule.intent
		}
	}
	return generalIntent
}

// ExtractedEntities is the closed schema the LLM structured call returns
// (§4.4 step 2).
type ExtractedEntities struct {
	Names      []string `json:"names" jsonschema:"description=Full person names mentioned in the question"`
	DateRanges []string `json:"date_ranges" jsonschema:"description=Date ranges mentioned, as free text"`
	Topics     []string `json:"topics" jsonschema:"description=Topics or subjects mentioned"`
}

var honorifics = []string{"Mr.", "Mrs.", "Ms.", "Dr.", "Prof."}

// NormalizeName strips honorifics and collapses whitespace while
// preserving the case of the remaining title: normalise("Dr. Jane  Doe ")
// == normalise("Jane Doe") == "Jane Doe". Case is not changed, so
// "jane doe" stays lower-case and matches the others only modulo case.
func NormalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, h := range honorifics {
		if strings.HasPrefix(trimmed, h) {
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, h))
			break
		}
	}
	fields := strings.Fields(trimmed)
	return strings.Join(fields, " ")
}

// Planner is C4.
type Planner struct {
	extractor  *llm.StructuredClient[ExtractedEntities]
	mapper     Mapper
	minMapScore float64
	defaultLimit int
}

// Config configures the Planner.
type Config struct {
	Provider     llm.Provider
	Mapper       Mapper
	MinMapScore  float64 // default 0.7, §4.4 step 3
	DefaultLimit int     // default 20, §4.4 step 4
}

// New builds a Planner.
func New(cfg Config) *Planner {
	if cfg.MinMapScore <= 0 {
		cfg.MinMapScore = 0.7
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	return &Planner{
		extractor: llm.NewStructuredClient(llm.StructuredCallConfig[ExtractedEntities]{
			Provider:    cfg.Provider,
			Stage:       "planner",
			Temperature: 0,
			JSONMode:    true,
			MaxAttempts: 3,
		}),
		mapper:       cfg.Mapper,
		minMapScore:  cfg.MinMapScore,
		defaultLimit: cfg.DefaultLimit,
	}
}

// Plan runs the full C4 algorithm. On LLM extraction failure (after the
// structured client's own retries are exhausted) it returns the fallback
// plan named in §4.4: general_rag_query, no anchor, zero confidence.
func (p *Planner) Plan(ctx context.Context, question string) (*domain.QueryPlan, error) {
	plan := domain.NewQueryPlan(question)
	plan.Intent = DetectIntent(question)
	plan.Params["limit"] = p.defaultLimit

	entities, err := p.extractor.Call(ctx, extractionPrompt(question))
	if err != nil {
		return p.fallbackPlan(question), nil
	}

	var firstMapped string
	for _, rawName := range entities.Names {
		name := NormalizeName(rawName)
		mappings, merr := p.mapper.Map(ctx, name, "label")
		if merr != nil {
			continue
		}
		for _, m := range mappings {
			if m.Score < p.minMapScore {
				continue
			}
			plan.EntityMappings = append(plan.EntityMappings, domain.EntityMapping{
				UserTerm:    name,
				SchemaLabel: m.SchemaID,
				Score:       m.Score,
			})
			if firstMapped == "" {
				firstMapped = name
			}
			break
		}
	}

	if firstMapped != "" {
		plan.Params["student_name"] = firstMapped
		plan.AnchorEntity = firstMapped
	}

	if len(entities.DateRanges) > 0 {
		plan.Params["from"], plan.Params["to"] = splitRange(entities.DateRanges[0])
	}

	plan.Confidence = confidenceFor(plan)

	return plan, nil
}

func (p *Planner) fallbackPlan(question string) *domain.QueryPlan {
	plan := domain.NewQueryPlan(question)
	plan.Intent = generalIntent
	plan.Params["limit"] = p.defaultLimit
	plan.Confidence = 0
	return plan
}

func confidenceFor(plan *domain.QueryPlan) float64 {
	if plan.Intent == generalIntent && plan.AnchorEntity == "" {
		return 0.3
	}
	if plan.AnchorEntity != "" {
		return 0.9
	}
	return 0.5
}

func splitRange(raw string) (string, string) {
	parts := strings.SplitN(raw, "..", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	parts = strings.SplitN(raw, " to ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return raw, ""
}

func extractionPrompt(question string) string {
	return "Extract named entities from this question for a graph-query planner.\n" +
		"Question: " + question
}
