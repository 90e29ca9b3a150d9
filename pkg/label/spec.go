package label

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// GitHub enforces these limits on label fields
const (
	maxNameLength        = 50
	maxDescriptionLength = 100
)

var validColor = regexp.MustCompile(`^[0-9a-f]{6}$`)

// SpecFile represents a label definition file with a top-level labels key
type SpecFile struct {
	Labels []Spec `yaml:"labels"`
}

// LoadSpecs parses a label definition document. Both a bare YAML sequence of
// labels and a document with a top-level labels key are accepted.
func LoadSpecs(data []byte) ([]Spec, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewSyncError(ErrorTypeValidation, fmt.Sprintf("failed to parse label definitions: %v", err), err)
	}

	var specs []Spec
	switch node := doc.(type) {
	case nil:
		// Empty document: an explicitly empty desired set
	case []any:
		if err := yaml.Unmarshal(data, &specs); err != nil {
			return nil, NewSyncError(ErrorTypeValidation, fmt.Sprintf("failed to parse label definitions: %v", err), err)
		}
	case map[string]any:
		if _, ok := node["labels"]; !ok {
			return nil, NewSyncError(ErrorTypeValidation, "label definition file has no 'labels' key", nil)
		}
		var file SpecFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, NewSyncError(ErrorTypeValidation, fmt.Sprintf("failed to parse label definitions: %v", err), err)
		}
		specs = file.Labels
	default:
		return nil, NewSyncError(ErrorTypeValidation, "label definition file must be a list of labels or a document with a 'labels' key", nil)
	}

	for i := range specs {
		specs[i] = specs[i].normalize()
	}

	if err := ValidateSpecs(specs); err != nil {
		return nil, err
	}

	return specs, nil
}

// LoadSpecsFromFile loads label definitions from a file
func LoadSpecsFromFile(filename string) ([]Spec, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}

	return LoadSpecs(data)
}

// ExportSpecs converts a live label set into declaration form, sorted by
// name so repeated exports of the same repository are byte-identical
func ExportSpecs(labels []Remote) []Spec {
	specs := make([]Spec, 0, len(labels))
	for _, l := range labels {
		specs = append(specs, Spec{
			Name:        l.Name,
			Color:       NormalizeColor(l.Color),
			Description: l.Description,
		})
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

	return specs
}

// ValidateSpecs validates a desired label set. All violations are collected
// so a malformed file is reported in one pass.
func ValidateSpecs(specs []Spec) error {
	var validationErrors ValidationErrors

	seenNames := make(map[string]int)
	for i, spec := range specs {
		field := fmt.Sprintf("labels[%d]", i)

		if err := validateLabelName(spec.Name); err != nil {
			validationErrors.Add(field+".name", spec.Name, err.Error())
		}

		if err := validateLabelColor(spec.Color); err != nil {
			validationErrors.Add(field+".color", spec.Color, err.Error())
		}

		if len(spec.Description) > maxDescriptionLength {
			validationErrors.Add(field+".description", spec.Description,
				fmt.Sprintf("label description must be %d characters or less", maxDescriptionLength))
		}

		if prev, dup := seenNames[spec.Name]; dup {
			validationErrors.Add(field+".name", spec.Name,
				fmt.Sprintf("duplicate label name, already declared at labels[%d]", prev))
		} else {
			seenNames[spec.Name] = i
		}
	}

	// Aliases must be unambiguous: one alias may belong to only one label,
	// and an alias that shadows a declared name could never match.
	seenAliases := make(map[string]string)
	for i, spec := range specs {
		for j, alias := range spec.Aliases {
			field := fmt.Sprintf("labels[%d].aliases[%d]", i, j)

			if alias == "" {
				validationErrors.Add(field, alias, "alias cannot be empty")
				continue
			}
			if _, declared := seenNames[alias]; declared {
				validationErrors.Add(field, alias,
					fmt.Sprintf("alias '%s' duplicates a declared label name", alias))
				continue
			}
			if owner, dup := seenAliases[alias]; dup {
				validationErrors.Add(field, alias,
					fmt.Sprintf("alias '%s' is already declared by label '%s'", alias, owner))
				continue
			}
			seenAliases[alias] = spec.Name
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

// validateLabelName validates a label name according to GitHub rules
func validateLabelName(name string) error {
	if name == "" {
		return fmt.Errorf("label name is required")
	}

	if len(name) > maxNameLength {
		return fmt.Errorf("label name must be %d characters or less", maxNameLength)
	}

	return nil
}

// validateLabelColor validates a hex color after normalization
func validateLabelColor(color string) error {
	if color == "" {
		return fmt.Errorf("label color is required")
	}

	if !validColor.MatchString(color) {
		return fmt.Errorf("label color must be exactly 6 hexadecimal digits")
	}

	return nil
}
