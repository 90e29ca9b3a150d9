package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"labelctl/pkg/config"
	"labelctl/pkg/label"
)

var (
	exportToken string
	exportFile  string
)

var exportCmd = &cobra.Command{
	Use:   "export [<owner>/<repo>]",
	Short: "Export a repository's current labels as a definition file",
	Long: `Export the live label set of a GitHub repository as a label definition
file, sorted by name. The output is ready to check in and feed back to
'labelctl apply', which makes export the quickest way to put an existing
repository under label management.

Examples:
  # Export the repository of the current checkout to stdout
  labelctl export

  # Snapshot another repository into a file
  labelctl export myorg/api --file labels.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportToken, "access-token", "t", "", "GitHub access token (falls back to GITHUB_TOKEN, then the config file)")
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load labelctl config: %w", err)
	}

	authManager := label.NewAuthManager()
	tokenInfo, err := authManager.AuthenticateFromConfig(context.Background(), exportToken, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "%s\n", label.GetAuthInstructions())
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Authenticated as %s\n", tokenInfo.User)

	token, err := authManager.GetToken(exportToken, cfg)
	if err != nil {
		return fmt.Errorf("failed to get GitHub token: %w", err)
	}

	owner, name, err := resolveRepository(args, cfg)
	if err != nil {
		return err
	}

	client := label.NewClient(token, owner, name)

	fmt.Fprintf(os.Stderr, "🔍 Fetching labels for %s/%s...\n", owner, name)

	labels, err := client.ListLabels()
	if err != nil {
		return fmt.Errorf("failed to fetch labels: %w", err)
	}

	specs := label.ExportSpecs(labels)
	data, err := yaml.Marshal(label.SpecFile{Labels: specs})
	if err != nil {
		return fmt.Errorf("failed to marshal labels: %w", err)
	}

	if exportFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(exportFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportFile, err)
	}

	fmt.Fprintf(os.Stderr, "✅ Exported %d label(s) from %s/%s to %s\n", len(specs), owner, name, exportFile)
	return nil
}
