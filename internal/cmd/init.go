package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initFile string

// defaultLabelsContent mirrors the label set GitHub provisions on a new
// repository, so 'init' followed by 'apply' is a no-op on a fresh repo.
const defaultLabelsContent = `# Label definitions for labelctl.
# Edit this file, then run 'labelctl apply --labels <file> <owner>/<repo>'.
labels:
  - name: bug
    color: d73a4a
    description: Something isn't working
  - name: documentation
    color: 0075ca
    description: Improvements or additions to documentation
  - name: duplicate
    color: cfd3d7
    description: This issue or pull request already exists
  - name: enhancement
    color: a2eeef
    description: New feature or request
    # Aliases let 'apply' rename old labels instead of deleting and
    # recreating them, which keeps them attached to existing issues.
    # aliases:
    #   - feature
    #   - feature-request
  - name: good first issue
    color: 7057ff
    description: Good for newcomers
  - name: help wanted
    color: "008672"
    description: Extra attention is needed
  - name: invalid
    color: e4e669
    description: This doesn't seem right
  - name: question
    color: d876e3
    description: Further information is requested
  - name: wontfix
    color: ffffff
    description: This will not be worked on
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter label definition file",
	Long: `Create a label definition file pre-filled with GitHub's default label set.
Edit it to taste, then run 'labelctl apply' to sync it to a repository.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initFile, "file", "f", "labels.yml", "Path of the label definition file to create")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// Check if the definition file already exists
	if _, err := os.Stat(initFile); err == nil {
		fmt.Printf("⚠️  Label definition file already exists at: %s\n", initFile)
		fmt.Print("Do you want to overwrite it? (y/N): ")
		var response string
		_, _ = fmt.Scanln(&response) // Ignore error for user input
		if response != "y" && response != "Y" {
			fmt.Println("Initialization cancelled.")
			return nil
		}
	}

	if err := os.WriteFile(initFile, []byte(defaultLabelsContent), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", initFile, err)
	}

	fmt.Printf("✅ Label definition file created at: %s\n", initFile)
	fmt.Printf("📝 Edit the file, then run 'labelctl apply --labels %s <owner>/<repo>' to sync it.\n", initFile)

	return nil
}
