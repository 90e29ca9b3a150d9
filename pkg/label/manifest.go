package label

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileFormat represents the detected label file format
type FileFormat int

const (
	FormatSingleRepository FileFormat = iota
	FormatManifest
)

// String returns the string representation of FileFormat
func (f FileFormat) String() string {
	switch f {
	case FormatSingleRepository:
		return "single-repository"
	case FormatManifest:
		return "manifest"
	default:
		return "unknown"
	}
}

// Manifest represents a multi-repository label configuration: a shared
// default label set fanned out across repositories, with per-repository
// additions and overrides.
type Manifest struct {
	// Version of the manifest format
	Version string `yaml:"version,omitempty"`

	// Global defaults applied to all repositories
	Defaults *ManifestDefaults `yaml:"defaults,omitempty"`

	// List of repositories to manage
	Repositories []RepositoryTarget `yaml:"repositories"`
}

// ManifestDefaults defines default settings for all repositories
type ManifestDefaults struct {
	Labels []Spec `yaml:"labels,omitempty"`
	Prune  *bool  `yaml:"prune,omitempty"`
}

// RepositoryTarget represents one repository entry in a manifest
type RepositoryTarget struct {
	Repo   string `yaml:"repo"`
	Labels []Spec `yaml:"labels,omitempty"`
	Prune  *bool  `yaml:"prune,omitempty"`
}

// DetectFileFormat detects whether YAML data is a single-repository label
// file or a multi-repository manifest
func DetectFileFormat(data []byte) (FileFormat, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// A bare sequence of labels is the single-repository form
		var list []any
		if lerr := yaml.Unmarshal(data, &list); lerr == nil {
			return FormatSingleRepository, nil
		}
		return FormatSingleRepository, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if _, hasRepositories := raw["repositories"]; hasRepositories {
		return FormatManifest, nil
	}
	if _, hasDefaults := raw["defaults"]; hasDefaults {
		return FormatManifest, nil
	}

	return FormatSingleRepository, nil
}

// LoadManifest loads a multi-repository manifest and validates its skeleton.
// Label definitions are validated per repository by Validate or PlanAll, so
// one bad repository does not mask the state of the others.
func LoadManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, NewSyncError(ErrorTypeValidation, fmt.Sprintf("failed to parse manifest: %v", err), err)
	}

	if manifest.Defaults != nil {
		for i := range manifest.Defaults.Labels {
			manifest.Defaults.Labels[i] = manifest.Defaults.Labels[i].normalize()
		}
	}
	for r := range manifest.Repositories {
		for i := range manifest.Repositories[r].Labels {
			manifest.Repositories[r].Labels[i] = manifest.Repositories[r].Labels[i].normalize()
		}
	}

	if err := manifest.validateStructure(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// LoadManifestFromFile loads a manifest from a file
func LoadManifestFromFile(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	return LoadManifest(data)
}

// LoadFile loads either a single-repository label file or a manifest,
// returning the parsed value and its detected format
func LoadFile(filename string) (any, FileFormat, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, FormatSingleRepository, fmt.Errorf("failed to read labels file: %w", err)
	}

	format, err := DetectFileFormat(data)
	if err != nil {
		return nil, format, err
	}

	switch format {
	case FormatSingleRepository:
		specs, err := LoadSpecs(data)
		return specs, format, err
	case FormatManifest:
		manifest, err := LoadManifest(data)
		return manifest, format, err
	default:
		return nil, format, fmt.Errorf("unsupported labels file format: %s", format)
	}
}

// Validate validates the manifest structure and every merged label set
func (m *Manifest) Validate() error {
	if err := m.validateStructure(); err != nil {
		return err
	}

	var validationErrors ValidationErrors
	for i, target := range m.Repositories {
		// Each repository sees its merged label set, so validation has to
		// run on the merge result rather than on the raw entries
		if err := ValidateSpecs(m.MergedLabels(target)); err != nil {
			validationErrors.Add(fmt.Sprintf("repositories[%d]", i), target.Repo, err.Error())
		}
	}

	if validationErrors.HasErrors() {
		return &SyncError{
			Type:      ErrorTypeValidation,
			Message:   validationErrors.Error(),
			Cause:     validationErrors,
			Retryable: false,
		}
	}

	return nil
}

// validateStructure checks the manifest skeleton without touching label
// definitions, so callers can report label problems per repository
func (m *Manifest) validateStructure() error {
	var validationErrors ValidationErrors

	if len(m.Repositories) == 0 {
		validationErrors.Add("repositories", "", "at least one repository must be defined")
	}

	seenRepos := make(map[string]bool)
	for i, target := range m.Repositories {
		field := fmt.Sprintf("repositories[%d].repo", i)

		if target.Repo == "" {
			validationErrors.Add(field, "", "repository is required")
			continue
		}
		if _, _, err := ParseRepo(target.Repo); err != nil {
			validationErrors.Add(field, target.Repo, err.Error())
			continue
		}
		if seenRepos[target.Repo] {
			validationErrors.Add(field, target.Repo, "duplicate repository")
		}
		seenRepos[target.Repo] = true
	}

	if validationErrors.HasErrors() {
		return &SyncError{
			Type:      ErrorTypeValidation,
			Message:   validationErrors.Error(),
			Cause:     validationErrors,
			Retryable: false,
		}
	}

	return nil
}

// MergedLabels merges default labels with a repository's own entries.
// Defaults come first in their declared order; a repository label with the
// same name replaces the default in place, anything else is appended. The
// result order is stable, which keeps alias matching well-defined.
func (m *Manifest) MergedLabels(target RepositoryTarget) []Spec {
	var merged []Spec
	index := make(map[string]int)

	if m.Defaults != nil {
		for _, spec := range m.Defaults.Labels {
			index[spec.Name] = len(merged)
			merged = append(merged, spec)
		}
	}

	for _, spec := range target.Labels {
		if at, exists := index[spec.Name]; exists {
			merged[at] = spec
		} else {
			index[spec.Name] = len(merged)
			merged = append(merged, spec)
		}
	}

	return merged
}

// PruneFor returns the effective prune setting for a repository entry.
// Pruning defaults to on: unmanaged remote labels are deleted.
func (m *Manifest) PruneFor(target RepositoryTarget) bool {
	if target.Prune != nil {
		return *target.Prune
	}
	if m.Defaults != nil && m.Defaults.Prune != nil {
		return *m.Defaults.Prune
	}
	return true
}

// ParseRepo splits an owner/repo reference into its parts
func ParseRepo(repo string) (string, string, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be in owner/repo format, got '%s'", repo)
	}
	return parts[0], parts[1], nil
}
