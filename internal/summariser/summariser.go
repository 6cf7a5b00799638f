// Package summariser implements C10: turning executed rows and retrieved
// chunks into a natural-language answer with verified citations, grounded
// on the same structured-call shape C6's generator uses (a
// llm.StructuredClient[T] with a closed output schema and a normalisation
// alias table).
package summariser

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/llm"
)

// llmSummaryOutput is the closed schema the structured call is constrained
// to: a prose summary plus the chunk_ids the model claims it drew from.
type llmSummaryOutput struct {
	Summary   string   `json:"summary" jsonschema:"required,description=A natural-language answer to the question, citing chunks as [chunk_id]"`
	Citations []string `json:"citations" jsonschema:"required,description=The chunk_id of every chunk actually used, matching the bracketed citations in summary"`
}

// Summariser is C10.
type Summariser struct {
	llmClient *llm.StructuredClient[llmSummaryOutput]
}

// New builds a Summariser backed by provider.
func New(provider llm.Provider) *Summariser {
	return &Summariser{
		llmClient: llm.NewStructuredClient(llm.StructuredCallConfig[llmSummaryOutput]{
			Provider: provider,
			Stage:    "summariser",
			// "answer"→"summary", "sources"→"citations": same idempotent
			// normalisation idiom as C6's "query"/"parameters" aliases.
			Aliases:     llm.FieldAliases{"answer": "summary", "sources": "citations"},
			Temperature: 0.2,
			JSONMode:    true,
			MaxAttempts: 3,
		}),
	}
}

// Output is what Summarise returns: the text plus how citation
// verification went.
type Output struct {
	Summary      string
	Citations    []string
	Verification domain.Verification
}

var citationPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Summarise builds the prompt, runs the structured call, then checks every
// [chunk_id] token in the prose and every id in the citations list against
// the chunk_ids that were actually retrieved (§4.10). Prose tokens and the
// citations list are not compared with each other.
// An unverifiable citation does not fail the request: it is recorded in
// Verification and surfaced to the caller (§7 CITATION_UNVERIFIED is a
// soft warning, not a blocking reason code).
func (s *Summariser) Summarise(ctx context.Context, question string, rows []domain.ResultRow, chunks []domain.RetrievedChunk) (*Output, error) {
	prompt := buildPrompt(question, rows, chunks)

	out, err := s.llmClient.Call(ctx, prompt)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		known[c.ChunkID] = struct{}{}
	}

	mentioned := map[string]struct{}{}
	for _, m := range citationPattern.FindAllStringSubmatch(out.Summary, -1) {
		mentioned[strings.TrimSpace(m[1])] = struct{}{}
	}
	for _, id := range out.Citations {
		mentioned[id] = struct{}{}
	}

	var unknown []string
	for id := range mentioned {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)

	verification := domain.Verification{Status: "ok"}
	if len(unknown) > 0 {
		verification.Status = "failed"
		verification.UnknownCitations = unknown
	}

	return &Output{
		Summary:      out.Summary,
		Citations:    out.Citations,
		Verification: verification,
	}, nil
}

// buildPrompt presents rows as a compact table and chunks as an enumerated
// list keyed by chunk_id, per §4.10 step 1.
func buildPrompt(question string, rows []domain.ResultRow, chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)

	if len(rows) > 0 {
		b.WriteString("\n\nResult rows:\n")
		for _, row := range rows {
			for i, col := range row.Columns {
				if i > 0 {
					b.WriteString(", ")
				}
				var v any
				if i < len(row.Values) {
					v = row.Values[i]
				}
				fmt.Fprintf(&b, "%s=%v", col, v)
			}
			b.WriteString("\n")
		}
	}

	if len(chunks) > 0 {
		b.WriteString("\nRetrieved chunks:\n")
		for _, c := range chunks {
			fmt.Fprintf(&b, "[%s] %s\n", c.ChunkID, c.Text)
		}
	}

	b.WriteString("\nWrite a concise answer. Cite every chunk you draw from inline as [chunk_id], " +
		"and list each cited chunk_id in the citations field. Never cite a chunk_id that was not given above.")

	return b.String()
}
