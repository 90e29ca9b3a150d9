package label

// RemoteStore defines the interface for label operations against a single
// remote repository
type RemoteStore interface {
	// ListLabels returns the full current label set, paginated transparently
	ListLabels() ([]Remote, error)

	// CreateLabel creates a new label from the desired spec
	CreateLabel(spec Spec) error

	// UpdateLabel updates the label currently named oldName to match the
	// desired spec, renaming it when the names differ
	UpdateLabel(oldName string, spec Spec) error

	// DeleteLabel removes the named label
	DeleteLabel(name string) error
}

// Reconciler defines the interface for label reconciliation operations
type Reconciler interface {
	Plan(desired []Spec) (*Plan, error)
	Apply(plan *Plan, opts ApplyOptions) (*Result, error)
	Validate(desired []Spec) error
}

// ActionKind represents the type of change in a reconciliation plan
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionRename ActionKind = "rename"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
)

// Action represents a single reconciliation step for one label. Name is the
// desired label name for creates, renames, and updates, and the remote name
// for deletes.
type Action struct {
	Kind   ActionKind `json:"kind" yaml:"kind"`
	Name   string     `json:"name" yaml:"name"`
	Before *Remote    `json:"before,omitempty" yaml:"before,omitempty"`
	After  *Spec      `json:"after,omitempty" yaml:"after,omitempty"`
}

// Plan represents an ordered sequence of actions: all creates, then renames,
// then updates, then deletes. The order avoids transient name collisions and
// is byte-deterministic for a given pair of input sets.
type Plan struct {
	Actions []Action `json:"actions" yaml:"actions"`
}

// IsEmpty returns true when the plan contains no actions
func (p *Plan) IsEmpty() bool {
	return len(p.Actions) == 0
}

// Count returns the number of actions of the given kind
func (p *Plan) Count(kind ActionKind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Outcome represents the result of applying a single action
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeWouldApply Outcome = "would-apply"
	OutcomeFailed     Outcome = "failed"
)

// ActionResult pairs an action with its apply outcome
type ActionResult struct {
	Action   Action  `json:"action" yaml:"action"`
	Outcome  Outcome `json:"outcome" yaml:"outcome"`
	Attempts int     `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Reason   string  `json:"error,omitempty" yaml:"error,omitempty"`
	Err      error   `json:"-" yaml:"-"`
}

// Result represents the outcome of applying a plan, in plan order
type Result struct {
	Actions []ActionResult `json:"actions" yaml:"actions"`
	DryRun  bool           `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// Succeeded returns the number of actions that applied (or would apply)
func (r *Result) Succeeded() int {
	n := 0
	for _, ar := range r.Actions {
		if ar.Outcome != OutcomeFailed {
			n++
		}
	}
	return n
}

// Failed returns the number of actions that failed
func (r *Result) Failed() int {
	n := 0
	for _, ar := range r.Actions {
		if ar.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// AllFailed reports the fatal run condition: at least one action attempted
// and none succeeded
func (r *Result) AllFailed() bool {
	return len(r.Actions) > 0 && r.Succeeded() == 0
}
