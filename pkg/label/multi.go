package label

import (
	"context"
	"fmt"
	"time"
)

// MultiReconciler coordinates label reconciliation across every repository
// named in a manifest
type MultiReconciler interface {
	// PlanAll computes a reconciliation plan per repository
	PlanAll(ctx context.Context) (*MultiPlan, error)

	// ApplyAll executes previously computed plans across repositories
	ApplyAll(ctx context.Context, plans *MultiPlan, opts ApplyOptions) (*MultiResult, error)

	// ValidateAll validates the manifest and every merged label set
	ValidateAll() (*MultiValidation, error)
}

// StoreFactory builds the remote store for one repository target. The multi
// reconciler calls it once per repository so tests can substitute fakes.
type StoreFactory func(owner, repo string) (RemoteStore, error)

// MultiOptions tune a manifest-wide run
type MultiOptions struct {
	// Retry overrides the per-operation retry configuration
	Retry *RetryConfig

	// Limiter overrides the shared rate limiter; its concurrency limit
	// bounds how many repositories are processed at once
	Limiter *RateLimiter
}

// MultiPlan holds the per-repository outcome of the planning phase
type MultiPlan struct {
	// Plans maps owner/repo to its computed plan
	Plans map[string]*Plan `json:"plans"`

	// Failed maps owner/repo to the error that prevented planning
	Failed map[string]error `json:"-"`
}

// RepoResult is the apply outcome for a single repository
type RepoResult struct {
	Repo   string  `json:"repo"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// MultiSummary provides aggregate statistics for a manifest run
type MultiSummary struct {
	TotalRepositories int `json:"total_repositories"`
	SuccessCount      int `json:"success_count"`
	FailureCount      int `json:"failure_count"`
	SkippedCount      int `json:"skipped_count"`
	TotalChanges      int `json:"total_changes"`
}

// MultiResult aggregates apply outcomes across repositories, ordered as the
// manifest declares them
type MultiResult struct {
	Repos     []RepoResult     `json:"repos"`
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"-"`
	Skipped   []string         `json:"skipped"`
	Summary   MultiSummary     `json:"summary"`
}

// MultiValidation holds per-repository validation outcomes
type MultiValidation struct {
	Valid   []string          `json:"valid"`
	Invalid map[string]error  `json:"-"`
	Summary ValidationSummary `json:"summary"`
}

// ValidationSummary provides aggregate validation statistics
type ValidationSummary struct {
	TotalRepositories int `json:"total_repositories"`
	ValidCount        int `json:"valid_count"`
	InvalidCount      int `json:"invalid_count"`
}

// multiReconciler implements the MultiReconciler interface
type multiReconciler struct {
	manifest *Manifest
	newStore StoreFactory
	retry    *RetryConfig
	limiter  *RateLimiter
}

// NewMultiReconciler creates a manifest reconciler with default pacing
func NewMultiReconciler(manifest *Manifest, newStore StoreFactory) MultiReconciler {
	return NewMultiReconcilerWithOptions(manifest, newStore, MultiOptions{})
}

// NewMultiReconcilerWithOptions creates a manifest reconciler with explicit
// retry and rate limiting configuration
func NewMultiReconcilerWithOptions(manifest *Manifest, newStore StoreFactory, opts MultiOptions) MultiReconciler {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	return &multiReconciler{
		manifest: manifest,
		newStore: newStore,
		retry:    opts.Retry,
		limiter:  limiter,
	}
}

// reconcilerFor builds the single-repository reconciler for one target,
// honoring the target's effective prune setting
func (mr *multiReconciler) reconcilerFor(target RepositoryTarget) (Reconciler, error) {
	owner, name, err := ParseRepo(target.Repo)
	if err != nil {
		return nil, err
	}

	store, err := mr.newStore(owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target.Repo, err)
	}

	return NewReconcilerWithOptions(store, ReconcilerOptions{
		Diff:  DiffOptions{KeepExtra: !mr.manifest.PruneFor(target)},
		Retry: mr.retry,
	}), nil
}

// PlanAll computes a reconciliation plan per repository. Planning failures
// are isolated per repository; the returned error is non-nil only when the
// manifest itself is invalid or every repository failed to plan.
func (mr *multiReconciler) PlanAll(_ context.Context) (*MultiPlan, error) {
	if mr.manifest == nil {
		return nil, NewSyncError(ErrorTypeValidation, "manifest cannot be nil", nil)
	}
	if err := mr.manifest.Validate(); err != nil {
		return nil, err
	}

	result := &MultiPlan{
		Plans:  make(map[string]*Plan, len(mr.manifest.Repositories)),
		Failed: make(map[string]error),
	}

	for _, target := range mr.manifest.Repositories {
		reconciler, err := mr.reconcilerFor(target)
		if err != nil {
			result.Failed[target.Repo] = err
			continue
		}

		plan, err := reconciler.Plan(mr.manifest.MergedLabels(target))
		if err != nil {
			result.Failed[target.Repo] = enhanceRepoError(target.Repo, err)
			continue
		}

		result.Plans[target.Repo] = plan
	}

	if len(result.Plans) == 0 && len(result.Failed) > 0 {
		return result, NewPartialFailureError(nil, result.Failed)
	}

	return result, nil
}

// ApplyAll executes the plans across repositories using a worker pool bounded
// by the rate limiter's concurrency slots. Repository failures are isolated;
// the returned error is non-nil only when every repository failed.
func (mr *multiReconciler) ApplyAll(ctx context.Context, plans *MultiPlan, opts ApplyOptions) (*MultiResult, error) {
	if plans == nil {
		return nil, NewSyncError(ErrorTypeValidation, "reconciliation plans cannot be nil", nil)
	}

	result := &MultiResult{
		Succeeded: make([]string, 0, len(plans.Plans)),
		Failed:    make(map[string]error),
		Skipped:   make([]string, 0),
		Summary: MultiSummary{
			TotalRepositories: len(plans.Plans) + len(plans.Failed),
		},
	}

	// Repositories that never produced a plan carry their planning error
	// into the final result
	for repo, err := range plans.Failed {
		result.Failed[repo] = err
		result.Summary.FailureCount++
	}

	// Walk targets in manifest order so results and reports are stable
	jobs := make([]repoJob, 0, len(plans.Plans))
	for _, target := range mr.manifest.Repositories {
		plan, ok := plans.Plans[target.Repo]
		if !ok {
			continue
		}
		if plan.IsEmpty() {
			result.Skipped = append(result.Skipped, target.Repo)
			result.Summary.SkippedCount++
			continue
		}

		result.Summary.TotalChanges += len(plan.Actions)
		jobs = append(jobs, repoJob{target: target, plan: plan})
	}

	if len(jobs) == 0 {
		return mr.finalizeResult(result)
	}

	return mr.processJobs(ctx, jobs, opts, result)
}

// ValidateAll validates the manifest structure, then each repository's merged
// label set in isolation
func (mr *multiReconciler) ValidateAll() (*MultiValidation, error) {
	if mr.manifest == nil {
		return nil, NewSyncError(ErrorTypeValidation, "manifest cannot be nil", nil)
	}

	result := &MultiValidation{
		Valid:   make([]string, 0, len(mr.manifest.Repositories)),
		Invalid: make(map[string]error),
		Summary: ValidationSummary{
			TotalRepositories: len(mr.manifest.Repositories),
		},
	}

	if err := mr.manifest.validateStructure(); err != nil {
		return nil, err
	}

	for _, target := range mr.manifest.Repositories {
		if err := ValidateSpecs(mr.manifest.MergedLabels(target)); err != nil {
			result.Invalid[target.Repo] = err
			result.Summary.InvalidCount++
			continue
		}
		result.Valid = append(result.Valid, target.Repo)
		result.Summary.ValidCount++
	}

	return result, nil
}

// repoJob is one repository's unit of work for the apply pool
type repoJob struct {
	target RepositoryTarget
	plan   *Plan
}

// repoOutcome carries a finished job back to the collector
type repoOutcome struct {
	repo   string
	result *Result
	err    error
}

// processJobs fans jobs out to workers and aggregates their outcomes
func (mr *multiReconciler) processJobs(ctx context.Context, jobs []repoJob, opts ApplyOptions, result *MultiResult) (*MultiResult, error) {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := mr.limiter.GetStats().MaxConcurrentSlots
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	jobChan := make(chan repoJob, len(jobs))
	outcomeChan := make(chan repoOutcome, len(jobs))

	for i := 0; i < numWorkers; i++ {
		go mr.worker(workerCtx, jobChan, outcomeChan, opts)
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	outcomes := make(map[string]repoOutcome, len(jobs))
	for len(outcomes) < len(jobs) {
		select {
		case outcome := <-outcomeChan:
			outcomes[outcome.repo] = outcome
		case <-time.After(5 * time.Minute):
			return result, fmt.Errorf("timeout waiting for repository results")
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	// Aggregate in manifest order
	for _, job := range jobs {
		outcome := outcomes[job.target.Repo]
		result.Repos = append(result.Repos, RepoResult{
			Repo:   outcome.repo,
			Result: outcome.result,
			Err:    outcome.err,
		})

		if outcome.err != nil {
			result.Failed[outcome.repo] = outcome.err
			result.Summary.FailureCount++
		} else {
			result.Succeeded = append(result.Succeeded, outcome.repo)
			result.Summary.SuccessCount++
		}
	}

	return mr.finalizeResult(result)
}

// worker drains the job channel, applying one repository at a time
func (mr *multiReconciler) worker(ctx context.Context, jobs <-chan repoJob, outcomes chan<- repoOutcome, opts ApplyOptions) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}

			res, err := mr.applyRepository(ctx, job, opts)

			select {
			case outcomes <- repoOutcome{repo: job.target.Repo, result: res, err: err}:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// applyRepository applies one repository's plan inside a concurrency slot
func (mr *multiReconciler) applyRepository(ctx context.Context, job repoJob, opts ApplyOptions) (*Result, error) {
	slotCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := mr.limiter.AcquireSlot(slotCtx); err != nil {
		return nil, fmt.Errorf("failed to acquire concurrency slot: %w", err)
	}
	defer mr.limiter.ReleaseSlot()

	reconciler, err := mr.reconcilerFor(job.target)
	if err != nil {
		return nil, err
	}

	res, err := reconciler.Apply(job.plan, opts)
	if err != nil {
		return res, enhanceRepoError(job.target.Repo, err)
	}

	return res, nil
}

// finalizeResult decides whether a run counts as a fatal failure. Only a run
// where every repository failed returns an error.
func (mr *multiReconciler) finalizeResult(result *MultiResult) (*MultiResult, error) {
	if result.Summary.FailureCount > 0 &&
		result.Summary.SuccessCount == 0 && result.Summary.SkippedCount == 0 {
		return result, NewPartialFailureError(nil, result.Failed)
	}
	return result, nil
}

// enhanceRepoError prefixes an error with its repository so aggregated
// failures stay attributable
func enhanceRepoError(repo string, err error) error {
	if syncErr, ok := err.(*SyncError); ok {
		return &SyncError{
			Type:      syncErr.Type,
			Message:   fmt.Sprintf("repository %s: %s", repo, syncErr.Message),
			Cause:     syncErr.Cause,
			Resource:  repo,
			Field:     syncErr.Field,
			Code:      syncErr.Code,
			Retryable: syncErr.Retryable,
		}
	}

	if partialErr, ok := err.(*PartialFailureError); ok {
		return &SyncError{
			Type:     ErrorTypeUnknown,
			Message:  fmt.Sprintf("repository %s: %s", repo, partialErr.Error()),
			Cause:    partialErr,
			Resource: repo,
		}
	}

	return fmt.Errorf("repository %s: %w", repo, err)
}
