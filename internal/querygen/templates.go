package querygen

import (
	"regexp"
)

// Template is a pre-written, validated Cypher text with named parameters,
// mapped to one intent (§GLOSSARY Template). Column-projection policy per
// the spec's Open Question: prefer coalesce() over explicit aliases.
type Template struct {
	Intent string
	Text   string
	// LegacyParamNames maps a canonical plan parameter name to the name the
	// template text actually uses, applied once here per §9 "Name
	// canonicalisation" design note.
	LegacyParamNames map[string]string
	// AllowAutoLimit permits the validator to auto-inject LIMIT $limit when
	// the template's author didn't hand-write one (§4.7 check 5).
	AllowAutoLimit bool
}

var paramRefPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// RequiredParams scans the template text for every $name occurrence, the
// mechanism §4.6 step 1 describes for computing required parameters.
func (t *Template) RequiredParams() []string {
	matches := paramRefPattern.FindAllStringSubmatch(t.Text, -1)
	seen := map[string]struct{}{}
	var out []string
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// defaultRegistry is the fixed template registry §4.6 describes. Column
// projections use coalesce() per the resolved Open Question in SPEC_FULL.md.
var defaultRegistry = map[string]*Template{
	"goals_for_student": {
		Intent: "goals_for_student",
		Text: `MATCH (s:Student)-[:HAS_GOAL]->(g:Goal)
WHERE s.fullName = $student
RETURN coalesce(g.title, g.name, g.description) AS goal, g.status AS status
LIMIT $limit`,
		LegacyParamNames: map[string]string{"student_name": "student"},
		AllowAutoLimit:   true,
	},
	"attendance_for_student": {
		Intent: "attendance_for_student",
		Text: `MATCH (s:Student)-[:HAS_ATTENDANCE]->(a:AttendanceRecord)
WHERE s.fullName = $student
RETURN a.date AS date, coalesce(a.status, a.state) AS status
LIMIT $limit`,
		LegacyParamNames: map[string]string{"student_name": "student"},
		AllowAutoLimit:   true,
	},
	"grades_for_student": {
		Intent: "grades_for_student",
		Text: `MATCH (s:Student)-[:ENROLLED_IN]->(c:Course)-[:HAS_GRADE]->(g:Grade)
WHERE s.fullName = $student
RETURN c.title AS course, coalesce(g.letter, g.score) AS grade
LIMIT $limit`,
		LegacyParamNames: map[string]string{"student_name": "student"},
		AllowAutoLimit:   true,
	},
	"courses_for_student": {
		Intent: "courses_for_student",
		Text: `MATCH (s:Student)-[:ENROLLED_IN]->(c:Course)
WHERE s.fullName = $student
RETURN coalesce(c.title, c.name) AS course
LIMIT $limit`,
		LegacyParamNames: map[string]string{"student_name": "student"},
		AllowAutoLimit:   true,
	},
}

// LookupTemplate returns the registered template for intent, or nil.
func LookupTemplate(intent string) *Template {
	return defaultRegistry[intent]
}
