package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"labelctl/pkg/config"
	"labelctl/pkg/gitremote"
	"labelctl/pkg/label"
)

var (
	applyLabelsFile    string
	applyToken         string
	applyDryRun        bool
	applyPrune         bool
	applyOutput        string
	applyMaxConcurrent int
)

var applyCmd = &cobra.Command{
	Use:   "apply [<owner>/<repo>]",
	Short: "Reconcile GitHub labels against a label definition file",
	Long: `Reconcile the issue labels of a GitHub repository against a YAML file.

The command fetches the current label set, computes the minimal sequence of
creates, renames, updates, and deletes needed to match the file, and applies
it. Renames are driven by aliases: a label declaration listing the old name
under 'aliases' is renamed instead of deleted and recreated, so the issues
tagged with it stay tagged.

FILE FORMATS:

Single Repository Format:
  A 'labels' list (or a bare YAML list) of label definitions. The target
  repository comes from the positional argument, or from the origin remote
  of the current git checkout when the argument is omitted.

Manifest Format:
  A 'repositories' list naming several owner/repo targets, optionally with
  shared labels under 'defaults'. Repository entries may add to or override
  the defaults, and set 'prune: false' to keep their extra labels.
  Repositories are processed concurrently and failures in one repository do
  not stop the others.

The canonical change report is written to stdout, one line per action;
status and progress go to stderr. Partial failures leave the exit status at
zero - only a run where nothing succeeds fails the command.

Examples:
  # Preview changes against the repository of the current checkout
  labelctl apply --labels labels.yml --dry-run

  # Reconcile one repository, keeping undeclared labels
  labelctl apply myorg/api --labels labels.yml --prune=false

  # Fan a manifest out across repositories, eight at a time
  labelctl apply --labels manifest.yml --max-concurrent 8

  # Machine-readable report
  labelctl apply myorg/api --labels labels.yml --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyLabelsFile, "labels", "l", "", "Path to the label definition file or manifest (required)")
	_ = applyCmd.MarkFlagRequired("labels")
	applyCmd.Flags().StringVarP(&applyToken, "access-token", "t", "", "GitHub access token (falls back to GITHUB_TOKEN, then the config file)")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Preview changes without applying them")
	applyCmd.Flags().BoolVar(&applyPrune, "prune", true, "Delete labels not declared in the file (single repository mode; manifests control this per entry)")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Report format: text, table, json, or yaml (default: table on a terminal, text otherwise)")
	applyCmd.Flags().IntVar(&applyMaxConcurrent, "max-concurrent", 0, "Maximum repositories processed in parallel in manifest mode (default 4)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(_ *cobra.Command, args []string) error {
	// Load label definitions and detect format first (before authentication)
	fileData, format, err := label.LoadFile(applyLabelsFile)
	if err != nil {
		return fmt.Errorf("failed to load label definitions: %w", err)
	}

	encoding, err := reportEncoding(applyOutput)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load labelctl config: %w", err)
	}

	// Set up GitHub authentication
	authManager := label.NewAuthManager()
	tokenInfo, err := authManager.AuthenticateFromConfig(context.Background(), applyToken, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "%s\n", label.GetAuthInstructions())
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Authenticated as %s\n", tokenInfo.User)

	token, err := authManager.GetToken(applyToken, cfg)
	if err != nil {
		return fmt.Errorf("failed to get GitHub token: %w", err)
	}

	switch format {
	case label.FormatSingleRepository:
		owner, name, err := resolveRepository(args, cfg)
		if err != nil {
			return err
		}
		return runSingleRepositoryApply(token, owner, name, fileData.([]label.Spec), encoding)
	case label.FormatManifest:
		if len(args) > 0 {
			return fmt.Errorf("a repository argument cannot be combined with a manifest; targets come from the file")
		}
		return runManifestApply(token, fileData.(*label.Manifest), encoding)
	default:
		return fmt.Errorf("unsupported labels file format: %s", format)
	}
}

// resolveRepository determines the target repository from the positional
// argument, the configured default owner, or the git origin of the working
// directory, in that order
func resolveRepository(args []string, cfg *config.Config) (string, string, error) {
	if len(args) > 0 {
		ref := args[0]
		if !strings.Contains(ref, "/") && cfg.GitHub.Owner != "" {
			return cfg.GitHub.Owner, ref, nil
		}
		return label.ParseRepo(ref)
	}

	remote, err := gitremote.Detect(".")
	if err != nil {
		return "", "", fmt.Errorf("no repository specified and none could be detected: %w (pass <owner>/<repo> or run inside a clone with a GitHub origin)", err)
	}

	fmt.Fprintf(os.Stderr, "📍 Using repository %s from git origin\n", remote)
	return remote.Owner, remote.Name, nil
}

// runSingleRepositoryApply reconciles one repository against a label set
func runSingleRepositoryApply(token, owner, name string, specs []label.Spec, encoding label.Encoding) error {
	client := label.NewClient(token, owner, name)
	reconciler := label.NewReconcilerWithOptions(client, label.ReconcilerOptions{
		Diff: label.DiffOptions{KeepExtra: !applyPrune},
	})

	fmt.Fprintf(os.Stderr, "🔍 Fetching current labels for %s/%s...\n", owner, name)

	plan, err := reconciler.Plan(specs)
	if err != nil {
		return fmt.Errorf("failed to plan changes: %w", err)
	}

	if plan.IsEmpty() {
		fmt.Fprintf(os.Stderr, "✓ %s/%s is already up to date. No changes needed.\n", owner, name)
		return nil
	}

	if applyDryRun {
		fmt.Fprintf(os.Stderr, "📋 Dry-run mode: planned changes for %s/%s\n\n", owner, name)

		result, err := reconciler.Apply(plan, label.ApplyOptions{DryRun: true})
		if err != nil {
			return err
		}
		if err := label.RenderResult(os.Stdout, result, encoding); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "\n✓ Dry-run completed. No changes were applied.\n")
		return nil
	}

	fmt.Fprintf(os.Stderr, "📋 Planned changes for %s/%s:\n\n", owner, name)
	if err := label.RenderPlan(os.Stderr, plan, encoding); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nApplying %d change(s)...\n\n", len(plan.Actions))

	result, applyErr := reconciler.Apply(plan, label.ApplyOptions{})
	if result != nil {
		if err := label.RenderResult(os.Stdout, result, encoding); err != nil {
			return err
		}
	}
	if applyErr != nil {
		return fmt.Errorf("failed to apply changes: %w", applyErr)
	}

	// Individual action failures are reported but do not fail the run
	if failed := result.Failed(); failed > 0 {
		fmt.Fprintf(os.Stderr, "\n⚠️  Applied %d change(s) to %s/%s, %d failed\n", result.Succeeded(), owner, name, failed)
		return nil
	}

	fmt.Fprintf(os.Stderr, "\n✅ Successfully applied %d change(s) to %s/%s\n", result.Succeeded(), owner, name)
	return nil
}

// runManifestApply fans the reconciliation out across every repository in a
// manifest, sharing one rate limiter between their clients
func runManifestApply(token string, manifest *label.Manifest, encoding label.Encoding) error {
	limiterCfg := label.DefaultRateLimiterConfig()
	if applyMaxConcurrent > 0 {
		limiterCfg.ConcurrencyLimit = applyMaxConcurrent
	}
	limiter := label.NewRateLimiter(limiterCfg)

	factory := func(owner, repo string) (label.RemoteStore, error) {
		client := label.NewClient(token, owner, repo)
		client.SetRateLimiter(limiter)
		return client, nil
	}

	multi := label.NewMultiReconcilerWithOptions(manifest, factory, label.MultiOptions{Limiter: limiter})
	ctx := context.Background()

	fmt.Fprintf(os.Stderr, "🔍 Planning changes for %d repositories...\n", len(manifest.Repositories))

	plans, err := multi.PlanAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to plan changes: %w", err)
	}

	for repo, planErr := range plans.Failed {
		fmt.Fprintf(os.Stderr, "❌ %s: planning failed: %v\n", repo, planErr)
	}

	if applyDryRun {
		fmt.Fprintf(os.Stderr, "📋 Dry-run mode: planned changes for %d repositories\n\n", len(plans.Plans))
	} else {
		fmt.Fprintf(os.Stderr, "Applying changes to %d repositories...\n\n", len(plans.Plans))
	}

	result, applyErr := multi.ApplyAll(ctx, plans, label.ApplyOptions{DryRun: applyDryRun})
	if result != nil {
		if err := label.RenderMultiResult(os.Stdout, result, encoding); err != nil {
			return err
		}
		displayManifestSummary(result, applyDryRun)
	}
	if applyErr != nil {
		return fmt.Errorf("failed to apply changes: %w", applyErr)
	}

	if applyDryRun {
		fmt.Fprintf(os.Stderr, "\n✓ Dry-run completed. No changes were applied.\n")
	}
	return nil
}

// displayManifestSummary shows the per-repository outcome of a manifest run
func displayManifestSummary(result *label.MultiResult, dryRun bool) {
	verb := "Reconciled"
	if dryRun {
		verb = "Would reconcile"
	}

	if len(result.Succeeded) > 0 {
		fmt.Fprintf(os.Stderr, "\n✅ %s repositories:\n", verb)
		for _, repo := range result.Succeeded {
			fmt.Fprintf(os.Stderr, "  • %s\n", repo)
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "\n⏭️  Already up to date:\n")
		for _, repo := range result.Skipped {
			fmt.Fprintf(os.Stderr, "  • %s\n", repo)
		}
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "\n❌ Failed repositories:\n")
		for repo, err := range result.Failed {
			fmt.Fprintf(os.Stderr, "  • %s: %v\n", repo, err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n📊 Summary:\n")
	fmt.Fprintf(os.Stderr, "  • Total repositories: %d\n", result.Summary.TotalRepositories)
	fmt.Fprintf(os.Stderr, "  • %s: %d\n", verb, result.Summary.SuccessCount)
	fmt.Fprintf(os.Stderr, "  • Failed: %d\n", result.Summary.FailureCount)
	fmt.Fprintf(os.Stderr, "  • Up to date: %d\n", result.Summary.SkippedCount)
	fmt.Fprintf(os.Stderr, "  • Total changes: %d\n", result.Summary.TotalChanges)
}

// reportEncoding resolves the --output flag, defaulting by terminal
func reportEncoding(value string) (label.Encoding, error) {
	if value == "" {
		return label.DefaultEncoding(os.Stdout), nil
	}
	return label.ParseEncoding(value)
}
