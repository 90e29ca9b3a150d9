package label

import "sort"

// DiffOptions controls plan computation
type DiffOptions struct {
	// KeepExtra leaves remote labels that match nothing in the desired set
	// untouched instead of deleting them
	KeepExtra bool
}

// Diff computes the reconciliation plan between a desired and an actual
// label set. Matching runs in two phases: exact name match first, then
// alias match for still-unmatched specs against still-unmatched remote
// labels (rename detection). Every remote label is consumed by at most one
// match, so no two actions ever target the same remote identifier. The
// plan is a pure function of the two sets and the options.
func Diff(desired []Spec, actual []Remote, opts DiffOptions) *Plan {
	remaining := make(map[string]*Remote, len(actual))
	for i := range actual {
		remote := actual[i]
		remaining[remote.Name] = &remote
	}

	// Phase 1: exact name match
	exact := make(map[int]*Remote, len(desired))
	for i := range desired {
		if remote, ok := remaining[desired[i].Name]; ok {
			exact[i] = remote
			delete(remaining, desired[i].Name)
		}
	}

	// Phase 2: alias match, specs in declaration order, each spec's aliases
	// in declaration order, first hit wins
	renamed := make(map[int]*Remote)
	for i := range desired {
		if _, ok := exact[i]; ok {
			continue
		}
		for _, alias := range desired[i].Aliases {
			if remote, ok := remaining[alias]; ok {
				renamed[i] = remote
				delete(remaining, alias)
				break
			}
		}
	}

	var creates, renames, updates, deletes []Action
	for i := range desired {
		spec := &desired[i]
		switch {
		case exact[i] != nil:
			remote := exact[i]
			if !fieldsEqual(remote, spec) {
				updates = append(updates, Action{Kind: ActionUpdate, Name: spec.Name, Before: remote, After: spec})
			}
		case renamed[i] != nil:
			renames = append(renames, Action{Kind: ActionRename, Name: spec.Name, Before: renamed[i], After: spec})
		default:
			creates = append(creates, Action{Kind: ActionCreate, Name: spec.Name, After: spec})
		}
	}

	if !opts.KeepExtra {
		for _, remote := range remaining {
			deletes = append(deletes, Action{Kind: ActionDelete, Name: remote.Name, Before: remote})
		}
	}

	// Canonical order within each phase keeps the plan byte-stable no
	// matter how the input sets were ordered
	sortActions(creates)
	sortActions(renames)
	sortActions(updates)
	sortActions(deletes)

	plan := &Plan{}
	plan.Actions = append(plan.Actions, creates...)
	plan.Actions = append(plan.Actions, renames...)
	plan.Actions = append(plan.Actions, updates...)
	plan.Actions = append(plan.Actions, deletes...)
	return plan
}

// fieldsEqual compares the mutable fields of a matched pair
func fieldsEqual(remote *Remote, spec *Spec) bool {
	return NormalizeColor(remote.Color) == NormalizeColor(spec.Color) &&
		remote.Description == spec.Description
}

func sortActions(actions []Action) {
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Name < actions[j].Name
	})
}
