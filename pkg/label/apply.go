package label

import "fmt"

// ApplyOptions controls plan execution
type ApplyOptions struct {
	// DryRun reports what would change without touching the remote
	DryRun bool
}

// ReconcilerOptions configures a reconciler
type ReconcilerOptions struct {
	Diff  DiffOptions
	Retry *RetryConfig
}

// reconciler implements the Reconciler interface
type reconciler struct {
	store RemoteStore
	diff  DiffOptions
	retry *RetryConfig
}

// NewReconciler creates a new reconciler instance with default options
func NewReconciler(store RemoteStore) Reconciler {
	return NewReconcilerWithOptions(store, ReconcilerOptions{})
}

// NewReconcilerWithOptions creates a reconciler with explicit options
func NewReconcilerWithOptions(store RemoteStore, opts ReconcilerOptions) Reconciler {
	retry := opts.Retry
	if retry == nil {
		retry = DefaultRetryConfig()
	}
	return &reconciler{
		store: store,
		diff:  opts.Diff,
		retry: retry,
	}
}

// Plan fetches the current label set and computes the reconciliation plan
// against the desired set
func (r *reconciler) Plan(desired []Spec) (*Plan, error) {
	actual, err := r.fetchLabels()
	if err != nil {
		return nil, err
	}

	return Diff(desired, actual, r.diff), nil
}

// fetchLabels retrieves the full remote label set, retrying transient
// failures. Exhaustion here is fatal since no plan can be built without
// the actual state.
func (r *reconciler) fetchLabels() ([]Remote, error) {
	var actual []Remote

	err := WithRetry(func() error {
		var err error
		actual, err = r.store.ListLabels()
		return err
	}, r.retry)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch current labels: %w", err)
	}

	return actual, nil
}

// Apply executes the plan in its given order. Each action is an independent
// remote mutation: a failure is recorded and remaining actions continue. In
// dry-run mode no remote calls are made and every action reports that it
// would apply. The returned error is non-nil only when at least one action
// ran and none succeeded.
func (r *reconciler) Apply(plan *Plan, opts ApplyOptions) (*Result, error) {
	result := &Result{DryRun: opts.DryRun}

	for _, action := range plan.Actions {
		if opts.DryRun {
			result.Actions = append(result.Actions, ActionResult{
				Action:  action,
				Outcome: OutcomeWouldApply,
			})
			continue
		}

		attempts := 0
		err := WithRetry(func() error {
			attempts++
			return r.applyAction(action)
		}, r.retry)

		if err != nil {
			result.Actions = append(result.Actions, ActionResult{
				Action:   action,
				Outcome:  OutcomeFailed,
				Attempts: attempts,
				Reason:   err.Error(),
				Err:      err,
			})
			continue
		}

		result.Actions = append(result.Actions, ActionResult{
			Action:   action,
			Outcome:  OutcomeApplied,
			Attempts: attempts,
		})
	}

	if result.AllFailed() {
		failed := make(map[string]error)
		for _, ar := range result.Actions {
			failed[fmt.Sprintf("%s %s", ar.Action.Kind, ar.Action.Name)] = ar.Err
		}
		return result, NewPartialFailureError(nil, failed)
	}

	return result, nil
}

// applyAction performs the remote mutation for a single action
func (r *reconciler) applyAction(action Action) error {
	switch action.Kind {
	case ActionCreate:
		return r.store.CreateLabel(*action.After)
	case ActionRename, ActionUpdate:
		return r.store.UpdateLabel(action.Before.Name, *action.After)
	case ActionDelete:
		return r.store.DeleteLabel(action.Before.Name)
	default:
		return fmt.Errorf("unsupported action kind: %s", action.Kind)
	}
}

// Validate checks the desired label set without touching the remote
func (r *reconciler) Validate(desired []Spec) error {
	return ValidateSpecs(desired)
}
