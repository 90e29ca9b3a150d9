package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labelctl/pkg/config"
	"labelctl/pkg/label"
)

var (
	validateLabelsFile string
	validateToken      string
)

var validateCmd = &cobra.Command{
	Use:   "validate [<owner>/<repo>]",
	Short: "Validate a label definition file",
	Long: `Validate a label definition file or manifest without touching GitHub.

VALIDATION CHECKS:

• YAML syntax and file format detection
• Required fields: every label needs a name and a 6-digit hex color
• Length limits on names and descriptions
• Duplicate label names within one label set
• Aliases that duplicate a declared label name
• The same alias claimed by more than one label
• Manifest structure: owner/repo format and duplicate repository entries
• Each repository's merged label set (defaults plus overrides)

Validation is entirely local, so no token is required. With a repository
argument (and a token) it additionally verifies that the repository exists
and is reachable.

Examples:
  labelctl validate --labels labels.yml
  labelctl validate --labels manifest.yml
  labelctl validate myorg/api --labels labels.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateLabelsFile, "labels", "l", "", "Path to the label definition file or manifest (required)")
	_ = validateCmd.MarkFlagRequired("labels")
	validateCmd.Flags().StringVarP(&validateToken, "access-token", "t", "", "GitHub access token for the repository access check")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	fmt.Fprintf(os.Stderr, "🔍 Validating %s\n", validateLabelsFile)

	fileData, format, err := label.LoadFile(validateLabelsFile)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "📋 File format: %s\n", format)

	switch format {
	case label.FormatSingleRepository:
		specs := fileData.([]label.Spec)
		fmt.Fprintf(os.Stderr, "\n✅ %d label definition(s) are valid\n", len(specs))

		if len(args) > 0 {
			if err := checkRepositoryAccess(args); err != nil {
				return err
			}
		}

		fmt.Fprintf(os.Stderr, "\n💡 Next steps:\n")
		fmt.Fprintf(os.Stderr, "   • Preview changes: labelctl apply --labels %s --dry-run\n", validateLabelsFile)
		fmt.Fprintf(os.Stderr, "   • Apply changes:   labelctl apply --labels %s\n", validateLabelsFile)
		return nil
	case label.FormatManifest:
		if len(args) > 0 {
			return fmt.Errorf("a repository argument cannot be combined with a manifest; targets come from the file")
		}
		return runManifestValidate(fileData.(*label.Manifest))
	default:
		return fmt.Errorf("unsupported labels file format: %s", format)
	}
}

// checkRepositoryAccess verifies the target repository exists and the token
// can reach it
func checkRepositoryAccess(args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load labelctl config: %w", err)
	}

	authManager := label.NewAuthManager()
	token, err := authManager.GetToken(validateToken, cfg)
	if err != nil {
		return fmt.Errorf("a token is required to verify repository access: %w", err)
	}

	owner, name, err := resolveRepository(args, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n🔍 Verifying access to %s/%s...\n", owner, name)

	if err := label.NewClient(token, owner, name).CheckAccess(); err != nil {
		return fmt.Errorf("repository access check failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Repository access verified\n")
	return nil
}

// runManifestValidate validates every repository's merged label set and
// reports them individually
func runManifestValidate(manifest *label.Manifest) error {
	// Validation never talks to GitHub, so no store factory is needed
	multi := label.NewMultiReconciler(manifest, nil)

	result, err := multi.ValidateAll()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n📊 Validation summary:\n")
	fmt.Fprintf(os.Stderr, "   Total repositories: %d\n", result.Summary.TotalRepositories)
	fmt.Fprintf(os.Stderr, "   ✅ Valid: %d\n", result.Summary.ValidCount)
	fmt.Fprintf(os.Stderr, "   ❌ Invalid: %d\n", result.Summary.InvalidCount)

	if len(result.Valid) > 0 {
		fmt.Fprintf(os.Stderr, "\n✅ Valid repositories:\n")
		for _, repo := range result.Valid {
			fmt.Fprintf(os.Stderr, "   • %s\n", repo)
		}
	}

	if len(result.Invalid) > 0 {
		fmt.Fprintf(os.Stderr, "\n❌ Invalid repositories:\n")
		for repo, repoErr := range result.Invalid {
			fmt.Fprintf(os.Stderr, "   • %s: %v\n", repo, repoErr)
		}
		return fmt.Errorf("validation failed for %d of %d repositories", result.Summary.InvalidCount, result.Summary.TotalRepositories)
	}

	fmt.Fprintf(os.Stderr, "\n✅ All %d repositories have valid label sets\n", result.Summary.ValidCount)
	return nil
}
