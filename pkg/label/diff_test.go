package label

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_EmptySets(t *testing.T) {
	plan := Diff(nil, nil, DiffOptions{})
	assert.True(t, plan.IsEmpty())
}

func TestDiff_ConvergedSetsProduceEmptyPlan(t *testing.T) {
	desired := []Spec{
		{Name: "bug", Color: "d73a4a", Description: "Something isn't working"},
		{Name: "enhancement", Color: "a2eeef"},
	}
	actual := []Remote{
		{ID: 1, Name: "bug", Color: "d73a4a", Description: "Something isn't working"},
		{ID: 2, Name: "enhancement", Color: "a2eeef"},
	}

	plan := Diff(desired, actual, DiffOptions{})
	assert.True(t, plan.IsEmpty())
}

func TestDiff_CreatesMissingLabels(t *testing.T) {
	desired := []Spec{
		{Name: "bug", Color: "d73a4a"},
		{Name: "enhancement", Color: "a2eeef"},
	}

	plan := Diff(desired, nil, DiffOptions{})

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, 2, plan.Count(ActionCreate))
	assert.Equal(t, "bug", plan.Actions[0].Name)
	assert.Equal(t, "enhancement", plan.Actions[1].Name)
	assert.Nil(t, plan.Actions[0].Before)
	require.NotNil(t, plan.Actions[0].After)
	assert.Equal(t, "d73a4a", plan.Actions[0].After.Color)
}

func TestDiff_UpdatesChangedFields(t *testing.T) {
	t.Run("color change", func(t *testing.T) {
		desired := []Spec{{Name: "bug", Color: "d73a4a"}}
		actual := []Remote{{ID: 1, Name: "bug", Color: "ffffff"}}

		plan := Diff(desired, actual, DiffOptions{})

		require.Len(t, plan.Actions, 1)
		action := plan.Actions[0]
		assert.Equal(t, ActionUpdate, action.Kind)
		assert.Equal(t, "bug", action.Name)
		assert.Equal(t, "ffffff", action.Before.Color)
		assert.Equal(t, "d73a4a", action.After.Color)
	})

	t.Run("description change", func(t *testing.T) {
		desired := []Spec{{Name: "bug", Color: "d73a4a", Description: "Something isn't working"}}
		actual := []Remote{{ID: 1, Name: "bug", Color: "d73a4a", Description: "old text"}}

		plan := Diff(desired, actual, DiffOptions{})

		require.Len(t, plan.Actions, 1)
		assert.Equal(t, ActionUpdate, plan.Actions[0].Kind)
	})

	t.Run("color comparison ignores case and hash prefix", func(t *testing.T) {
		desired := []Spec{{Name: "bug", Color: "#D73A4A"}}
		actual := []Remote{{ID: 1, Name: "bug", Color: "d73a4a"}}

		plan := Diff(desired, actual, DiffOptions{})
		assert.True(t, plan.IsEmpty())
	})
}

func TestDiff_RenameViaAlias(t *testing.T) {
	desired := []Spec{
		{Name: "bug", Color: "d73a4a", Aliases: []string{"defect"}},
	}
	actual := []Remote{
		{ID: 1, Name: "defect", Color: "d73a4a"},
	}

	plan := Diff(desired, actual, DiffOptions{})

	// A matched alias is a single rename, never a delete plus create
	require.Len(t, plan.Actions, 1)
	action := plan.Actions[0]
	assert.Equal(t, ActionRename, action.Kind)
	assert.Equal(t, "bug", action.Name)
	assert.Equal(t, "defect", action.Before.Name)
	assert.Equal(t, "bug", action.After.Name)
	assert.Equal(t, 0, plan.Count(ActionDelete))
	assert.Equal(t, 0, plan.Count(ActionCreate))
}

func TestDiff_FirstAliasWins(t *testing.T) {
	desired := []Spec{
		{Name: "bug", Color: "d73a4a", Aliases: []string{"defect", "fault"}},
	}
	actual := []Remote{
		{ID: 1, Name: "fault", Color: "d73a4a"},
		{ID: 2, Name: "defect", Color: "d73a4a"},
	}

	plan := Diff(desired, actual, DiffOptions{})

	// "defect" is declared first, so it is the rename source; "fault" stays
	// unmatched and is deleted
	require.Len(t, plan.Actions, 2)
	assert.Equal(t, ActionRename, plan.Actions[0].Kind)
	assert.Equal(t, "defect", plan.Actions[0].Before.Name)
	assert.Equal(t, ActionDelete, plan.Actions[1].Kind)
	assert.Equal(t, "fault", plan.Actions[1].Name)
}

func TestDiff_ExactMatchBeatsAlias(t *testing.T) {
	desired := []Spec{
		{Name: "bug", Color: "d73a4a", Aliases: []string{"defect"}},
	}
	actual := []Remote{
		{ID: 1, Name: "bug", Color: "d73a4a"},
		{ID: 2, Name: "defect", Color: "d73a4a"},
	}

	plan := Diff(desired, actual, DiffOptions{})

	// The exact name match wins, so the alias label is just an extra
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionDelete, plan.Actions[0].Kind)
	assert.Equal(t, "defect", plan.Actions[0].Name)
}

func TestDiff_RemoteLabelConsumedOnce(t *testing.T) {
	desired := []Spec{
		{Name: "triage", Color: "d73a4a"},
		{Name: "needs-triage", Color: "a2eeef", Aliases: []string{"triage"}},
	}
	actual := []Remote{
		{ID: 1, Name: "triage", Color: "d73a4a"},
	}

	plan := Diff(desired, actual, DiffOptions{})

	// The exact match consumed "triage", so the aliased spec is created
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionCreate, plan.Actions[0].Kind)
	assert.Equal(t, "needs-triage", plan.Actions[0].Name)
}

func TestDiff_DeletesExtraLabels(t *testing.T) {
	actual := []Remote{
		{ID: 1, Name: "stale", Color: "cccccc"},
		{ID: 2, Name: "abandoned", Color: "eeeeee"},
	}

	t.Run("extras are deleted by default", func(t *testing.T) {
		plan := Diff(nil, actual, DiffOptions{})

		require.Len(t, plan.Actions, 2)
		assert.Equal(t, 2, plan.Count(ActionDelete))
		assert.Equal(t, "abandoned", plan.Actions[0].Name)
		assert.Equal(t, "stale", plan.Actions[1].Name)
	})

	t.Run("keep extra leaves them untouched", func(t *testing.T) {
		plan := Diff(nil, actual, DiffOptions{KeepExtra: true})
		assert.True(t, plan.IsEmpty())
	})
}

func TestDiff_CaseSensitiveNames(t *testing.T) {
	desired := []Spec{{Name: "bug", Color: "d73a4a"}}
	actual := []Remote{{ID: 1, Name: "Bug", Color: "d73a4a"}}

	plan := Diff(desired, actual, DiffOptions{})

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, ActionCreate, plan.Actions[0].Kind)
	assert.Equal(t, "bug", plan.Actions[0].Name)
	assert.Equal(t, ActionDelete, plan.Actions[1].Kind)
	assert.Equal(t, "Bug", plan.Actions[1].Name)
}

func TestDiff_PhaseOrdering(t *testing.T) {
	desired := []Spec{
		{Name: "zebra", Color: "111111"},
		{Name: "alpha", Color: "222222"},
		{Name: "renamed-b", Color: "333333", Aliases: []string{"old-b"}},
		{Name: "renamed-a", Color: "444444", Aliases: []string{"old-a"}},
		{Name: "changed-b", Color: "555555"},
		{Name: "changed-a", Color: "666666"},
	}
	actual := []Remote{
		{ID: 1, Name: "old-b", Color: "333333"},
		{ID: 2, Name: "old-a", Color: "444444"},
		{ID: 3, Name: "changed-b", Color: "000000"},
		{ID: 4, Name: "changed-a", Color: "000000"},
		{ID: 5, Name: "gone-b", Color: "000000"},
		{ID: 6, Name: "gone-a", Color: "000000"},
	}

	plan := Diff(desired, actual, DiffOptions{})

	var got []string
	for _, a := range plan.Actions {
		got = append(got, string(a.Kind)+" "+a.Name)
	}

	// Creates, then renames, then updates, then deletes; name-sorted within
	// each phase
	assert.Equal(t, []string{
		"create alpha",
		"create zebra",
		"rename renamed-a",
		"rename renamed-b",
		"update changed-a",
		"update changed-b",
		"delete gone-a",
		"delete gone-b",
	}, got)
}

func TestDiff_DeterministicAcrossInputOrder(t *testing.T) {
	desired := []Spec{
		{Name: "bug", Color: "d73a4a", Aliases: []string{"defect"}},
		{Name: "enhancement", Color: "a2eeef"},
		{Name: "question", Color: "d876e3"},
	}
	actual := []Remote{
		{ID: 1, Name: "defect", Color: "d73a4a"},
		{ID: 2, Name: "question", Color: "000000"},
		{ID: 3, Name: "stale", Color: "cccccc"},
	}
	shuffled := []Remote{actual[2], actual[0], actual[1]}

	plan1 := Diff(desired, actual, DiffOptions{})
	plan2 := Diff(desired, shuffled, DiffOptions{})

	var buf1, buf2 bytes.Buffer
	require.NoError(t, RenderPlan(&buf1, plan1, EncodingText))
	require.NoError(t, RenderPlan(&buf2, plan2, EncodingText))

	assert.Equal(t, buf1.String(), buf2.String())
	assert.Equal(t, plan1, plan2)
}

func TestDiff_RenameAlsoCarriesFieldChanges(t *testing.T) {
	desired := []Spec{
		{Name: "bug", Color: "d73a4a", Description: "Something isn't working", Aliases: []string{"defect"}},
	}
	actual := []Remote{
		{ID: 1, Name: "defect", Color: "ffffff", Description: ""},
	}

	plan := Diff(desired, actual, DiffOptions{})

	// One rename action carries the new name, color, and description; the
	// remote call applies all of them at once
	require.Len(t, plan.Actions, 1)
	action := plan.Actions[0]
	assert.Equal(t, ActionRename, action.Kind)
	assert.Equal(t, "d73a4a", action.After.Color)
	assert.Equal(t, "Something isn't working", action.After.Description)
}
