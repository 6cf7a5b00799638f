// Package validator implements C7: the ordered, fail-fast defensive checks
// every generated CypherCandidate must pass before the executor ever sees
// it. Checks are expressed as small, independently testable functions
// folded in sequence, grounded on the teacher's stage-folding style in
// ai/rag/pipeline.go generalized from retrieval stages to validation gates.
package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/errcode"
	"github.com/paladugusuresh/graphrag/internal/schema"
)

// Policy bundles the limits the validator enforces (§"Policy" glossary).
type Policy struct {
	MaxTraversalDepth int
	MaxCypherResults  int
	// AutoInjectLimit controls whether a missing LIMIT clause is corrected
	// in place (§4.7 check 5) rather than rejected outright. The pipeline
	// sets this from the intent's Template.AllowAutoLimit for
	// template-sourced candidates; LLM-sourced candidates get false (no
	// intent-level allowance to consult).
	AutoInjectLimit bool
}

var mutationKeywordPattern = regexp.MustCompile(
	`(?i)\b(CREATE|MERGE|DELETE|SET|REMOVE|DROP|DETACH)\b`)

var lineCommentPattern = regexp.MustCompile(`//[^\n]*`)
var labelTokenPattern = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)
var relTokenPattern = regexp.MustCompile(`\[[a-zA-Z0-9_]*:([A-Za-z_][A-Za-z0-9_]*)(?:\*[^\]]*)?\]`)
var varLengthPattern = regexp.MustCompile(`\*(?:(\d+)\.\.(\d+)|\.\.(\d+)|(\d+)\.\.|(\d+)|())`)
var limitParamPattern = regexp.MustCompile(`(?i)LIMIT\s+\$([A-Za-z_][A-Za-z0-9_]*)`)
var limitIntPattern = regexp.MustCompile(`(?i)LIMIT\s+(\d+)`)
var paramRefPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
var stringLiteralPattern = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)

// stripComments removes line comments before any other matching (§4.7
// check 1).
func stripComments(text string) string {
	return lineCommentPattern.ReplaceAllString(text, "")
}

// stripStringLiterals blanks out string literal contents so keyword and
// parameterisation checks never match text inside a quoted string.
func stripStringLiterals(text string) string {
	return stringLiteralPattern.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat("_", len(m))
	})
}

// Validate runs the six ordered checks and returns the (possibly
// auto-injected) candidate on success.
func Validate(candidate *domain.CypherCandidate, allowList *schema.AllowList, policy Policy) (*domain.CypherCandidate, error) {
	stripped := stripComments(candidate.Text)
	withoutLiterals := stripStringLiterals(stripped)

	if err := checkWriteBan(withoutLiterals); err != nil {
		return nil, err
	}
	if err := checkParameterisation(withoutLiterals); err != nil {
		return nil, err
	}
	if allowList != nil {
		if err := checkAllowList(withoutLiterals, allowList); err != nil {
			return nil, err
		}
	}
	if err := checkTraversalDepth(withoutLiterals, policy.MaxTraversalDepth); err != nil {
		return nil, err
	}

	accepted, err := checkResultCap(candidate, withoutLiterals, policy)
	if err != nil {
		return nil, err
	}

	if err := checkParamCoverage(accepted); err != nil {
		return nil, err
	}

	return accepted, nil
}

// checkWriteBan is §4.7 check 1.
func checkWriteBan(text string) error {
	if mutationKeywordPattern.MatchString(text) {
		return errcode.New("validator", errcode.ValidationWriteBan,
			fmt.Errorf("mutation keyword present outside string literal"))
	}
	return nil
}

// checkParameterisation is §4.7 check 2: every value position that is not
// a bound identifier or a numeric literal from a LIMIT clause must be a
// $name. We approximate "value position" by requiring that any remaining
// quoted string literal (i.e. anything checkWriteBan/checkAllowList would
// have seen as a literal) never survives — stripStringLiterals already
// blanked real literals, so a literal quote character reaching this check
// unblanked indicates malformed/unterminated quoting, which is itself an
// unparameterised-injection signal.
func checkParameterisation(strippedOfLiterals string) error {
	if strings.ContainsAny(strippedOfLiterals, `'"`) {
		return errcode.New("validator", errcode.ValidationUnparam,
			fmt.Errorf("unterminated or malformed string literal"))
	}
	if strings.Contains(strippedOfLiterals, ";") {
		return errcode.New("validator", errcode.ValidationUnparam,
			fmt.Errorf("statement separator not permitted"))
	}
	return nil
}

// checkAllowList is §4.7 check 3. Unknown property accesses are
// deliberately not checked here (schema-less properties are allowed).
func checkAllowList(text string, allowList *schema.AllowList) error {
	// Relationship tokens are blanked first so their `:TYPE` is not also
	// scanned as a node label.
	labelText := relTokenPattern.ReplaceAllString(text, "[]")
	for _, m := range labelTokenPattern.FindAllStringSubmatch(labelText, -1) {
		label := m[1]
		if isKeyword(label) {
			continue
		}
		if !allowList.HasLabel(label) {
			return errcode.New("validator", errcode.ValidationUnknownLbl,
				fmt.Errorf("label %q is not in the allow-list", label))
		}
	}
	for _, m := range relTokenPattern.FindAllStringSubmatch(text, -1) {
		rel := m[1]
		if !allowList.HasRelationship(rel) {
			return errcode.New("validator", errcode.ValidationUnknownRel,
				fmt.Errorf("relationship type %q is not in the allow-list", rel))
		}
	}
	return nil
}

// keywords that can follow a bare colon in Cypher but are not labels (map
// literal keys, e.g. `{status: $x}` is not a `:Label` token because there is
// no preceding node/rel bracket context in our simplified scan, but
// `RETURN status: x` style is not legal Cypher; this guards map keys that
// happen to look like `:Word` when adjacent to punctuation we don't track).
func isKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "TRUE", "FALSE", "NULL":
		return true
	default:
		return false
	}
}

// checkTraversalDepth is §4.7 check 4.
func checkTraversalDepth(text string, maxDepth int) error {
	for _, m := range varLengthPattern.FindAllStringSubmatch(text, -1) {
		switch {
		case m[1] != "" && m[2] != "":
			upper, _ := strconv.Atoi(m[2])
			if upper > maxDepth {
				return errcode.New("validator", errcode.ValidationDepth,
					fmt.Errorf("variable-length path bound %d exceeds max depth %d", upper, maxDepth))
			}
		case m[3] != "":
			upper, _ := strconv.Atoi(m[3])
			if upper > maxDepth {
				return errcode.New("validator", errcode.ValidationDepth,
					fmt.Errorf("variable-length path bound %d exceeds max depth %d", upper, maxDepth))
			}
		case m[4] != "":
			// "*N.." with no upper bound is unbounded.
			return errcode.New("validator", errcode.ValidationDepth,
				fmt.Errorf("variable-length path has no upper bound"))
		case m[5] != "":
			// "*N" is an exact hop count, bounded above and below by N.
			n, _ := strconv.Atoi(m[5])
			if n > maxDepth {
				return errcode.New("validator", errcode.ValidationDepth,
					fmt.Errorf("variable-length path bound %d exceeds max depth %d", n, maxDepth))
			}
		default:
			// bare "*" with no bound at all.
			return errcode.New("validator", errcode.ValidationDepth,
				fmt.Errorf("variable-length path %q has no upper bound", m[0]))
		}
	}
	return nil
}

// checkResultCap is §4.7 check 5: require LIMIT $name or LIMIT <= cap,
// auto-injecting when permitted and absent.
func checkResultCap(candidate *domain.CypherCandidate, strippedText string, policy Policy) (*domain.CypherCandidate, error) {
	if limitParamPattern.MatchString(strippedText) {
		return candidate, nil
	}

	if m := limitIntPattern.FindStringSubmatch(strippedText); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n <= policy.MaxCypherResults {
			return candidate, nil
		}
		return nil, errcode.New("validator", errcode.ValidationLimit,
			fmt.Errorf("LIMIT %d exceeds max_cypher_results %d", n, policy.MaxCypherResults))
	}

	if !policy.AutoInjectLimit {
		return nil, errcode.New("validator", errcode.ValidationLimit,
			fmt.Errorf("query has no LIMIT clause"))
	}

	injected := &domain.CypherCandidate{
		Text:   strings.TrimRight(candidate.Text, " \n\t") + "\nLIMIT $limit",
		Params: cloneParams(candidate.Params),
		Source: candidate.Source,
	}
	injected.Params["limit"] = policy.MaxCypherResults
	return injected, nil
}

// checkParamCoverage is §4.7 check 6.
func checkParamCoverage(candidate *domain.CypherCandidate) error {
	for _, m := range paramRefPattern.FindAllStringSubmatch(candidate.Text, -1) {
		name := m[1]
		if _, ok := candidate.Params[name]; !ok {
			return errcode.New("validator", errcode.ValidationParamUnbnd,
				fmt.Errorf("parameter $%s has no binding", name))
		}
	}
	return nil
}

func cloneParams(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
