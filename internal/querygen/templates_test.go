package querygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTemplateFindsRegisteredIntent(t *testing.T) {
	tpl := LookupTemplate("goals_for_student")
	require.NotNil(t, tpl)
	assert.Equal(t, "goals_for_student", tpl.Intent)
}

func TestLookupTemplateReturnsNilForUnknownIntent(t *testing.T) {
	assert.Nil(t, LookupTemplate("general_rag_query"))
}

func TestRequiredParamsDedupsAndPreservesOrder(t *testing.T) {
	tpl := &Template{Text: "WHERE a = $x AND b = $y AND c = $x LIMIT $limit"}
	assert.Equal(t, []string{"x", "y", "limit"}, tpl.RequiredParams())
}

func TestAllDefaultTemplatesDeclareStudentAndLimit(t *testing.T) {
	for _, intent := range []string{
		"goals_for_student", "attendance_for_student", "grades_for_student", "courses_for_student",
	} {
		tpl := LookupTemplate(intent)
		require.NotNilf(t, tpl, "expected a registered template for %s", intent)
		assert.Contains(t, tpl.RequiredParams(), "student")
		assert.Contains(t, tpl.RequiredParams(), "limit")
		assert.True(t, tpl.AllowAutoLimit)
		assert.Equal(t, "student", tpl.LegacyParamNames["student_name"])
	}
}
