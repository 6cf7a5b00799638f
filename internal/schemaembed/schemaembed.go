// Package schemaembed wires C1's introspected allow-list to C2's vector
// index: it turns labels, relationship types and properties into
// SchemaTerm values, embeds them, and publishes them into the schema
// vector index. This is the missing link between "the catalog refreshed"
// and "the semantic mapper can find the new terms", grounded on the same
// refresh-then-publish idiom schema.Catalog.Refresh uses for the allow-list
// snapshot.
package schemaembed

import (
	"context"
	"fmt"

	"github.com/paladugusuresh/graphrag/internal/embedding"
	"github.com/paladugusuresh/graphrag/internal/schema"
	"github.com/paladugusuresh/graphrag/internal/vectorstore"
)

// SynonymTable maps a canonical schema term to the extra synonyms an
// operator has configured for it (§4.5 substring-fallback input). A term
// with no configured synonyms still gets itself as its sole synonym.
type SynonymTable map[string][]string

// Embedder orchestrates C2: embed every term the allow-list names and
// publish the result into a SchemaIndex.
type Embedder struct {
	index     *vectorstore.SchemaIndex
	provider  embedding.Provider
	synonyms  SynonymTable
}

// New builds an Embedder.
func New(index *vectorstore.SchemaIndex, provider embedding.Provider, synonyms SynonymTable) *Embedder {
	if synonyms == nil {
		synonyms = SynonymTable{}
	}
	return &Embedder{index: index, provider: provider, synonyms: synonyms}
}

// Refresh embeds every label, relationship type, and property the
// allow-list names, plus every configured synonym of each, then publishes
// them to the schema vector index in one batch (§4.2 refresh algorithm:
// "for each schema term and its configured synonyms, obtain an embedding
// and upsert a row"). A synonym is therefore reachable by KNN, not just by
// the substring fallback.
func (e *Embedder) Refresh(ctx context.Context, allowList *schema.AllowList) error {
	terms := e.buildTerms(allowList)
	if len(terms) == 0 {
		return fmt.Errorf("schemaembed: allow-list has no terms to embed")
	}

	texts := make([]string, len(terms))
	for i, t := range terms {
		texts[i] = t.Term
	}

	vecs, err := e.provider.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("schemaembed: embed schema terms: %w", err)
	}
	if len(vecs) != len(terms) {
		return fmt.Errorf("schemaembed: embedder returned %d vectors for %d terms", len(vecs), len(terms))
	}

	for i := range terms {
		terms[i].Embedding = vecs[i]
	}

	return e.index.Refresh(ctx, terms)
}

func (e *Embedder) buildTerms(allowList *schema.AllowList) []vectorstore.SchemaTerm {
	var out []vectorstore.SchemaTerm

	for _, label := range allowList.SortedLabels() {
		out = append(out, e.termRows(label, vectorstore.KindLabel, label)...)
	}
	for _, rel := range allowList.SortedRelationships() {
		out = append(out, e.termRows(rel, vectorstore.KindRelationship, rel)...)
	}
	for _, label := range allowList.SortedLabels() {
		for _, prop := range allowList.SortedPropertiesFor(label) {
			canonical := label + "." + prop
			out = append(out, e.termRows(prop, vectorstore.KindProperty, canonical)...)
		}
	}

	return out
}

// termRows builds one SchemaTerm row per surface form of canonical: the
// term text itself plus each configured synonym, all sharing kind and
// canonical_id but each carrying its own Term so Refresh embeds and
// upserts a distinct vector per surface form (§4.2).
func (e *Embedder) termRows(term string, kind vectorstore.TermKind, canonical string) []vectorstore.SchemaTerm {
	surfaces := append([]string{term}, e.synonyms[canonical]...)
	rows := make([]vectorstore.SchemaTerm, len(surfaces))
	for i, surface := range surfaces {
		rows[i] = vectorstore.SchemaTerm{
			Term:        surface,
			Kind:        kind,
			CanonicalID: canonical,
			Synonyms:    surfaces,
		}
	}
	return rows
}
