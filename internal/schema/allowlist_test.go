package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAllowListHasLabelAndRelationship(t *testing.T) {
	al := NewAllowList(
		[]string{"Student", "Goal"},
		[]string{"HAS_GOAL"},
		map[string][]string{"Student": {"fullName", "id"}},
	)

	assert.True(t, al.HasLabel("Student"))
	assert.False(t, al.HasLabel("Teacher"))
	assert.True(t, al.HasRelationship("HAS_GOAL"))
	assert.False(t, al.HasRelationship("TEACHES"))
}

func TestFingerprintStableForSameContent(t *testing.T) {
	a := NewAllowList([]string{"Student"}, []string{"HAS_GOAL"}, map[string][]string{"Student": {"fullName"}})
	b := NewAllowList([]string{"Student"}, []string{"HAS_GOAL"}, map[string][]string{"Student": {"fullName"}})
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := NewAllowList([]string{"Student"}, []string{"HAS_GOAL"}, map[string][]string{"Student": {"fullName"}})
	b := NewAllowList([]string{"Student", "Teacher"}, []string{"HAS_GOAL"}, map[string][]string{"Student": {"fullName"}})
	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}

func TestFingerprintIgnoresInputOrder(t *testing.T) {
	a := NewAllowList([]string{"Student", "Goal"}, nil, nil)
	b := NewAllowList([]string{"Goal", "Student"}, nil, nil)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestSortedLabelsAreSorted(t *testing.T) {
	al := NewAllowList([]string{"Zebra", "Apple", "Mango"}, nil, nil)
	assert.Equal(t, []string{"Apple", "Mango", "Zebra"}, al.SortedLabels())
}
