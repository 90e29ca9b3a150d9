package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"labelctl/pkg/label"
)

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yml")

	orig := initFile
	initFile = path
	t.Cleanup(func() { initFile = orig })

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read scaffold file: %v", err)
	}

	// The scaffold must load cleanly through the same path 'apply' uses
	specs, err := label.LoadSpecs(data)
	if err != nil {
		t.Fatalf("Scaffold file does not parse: %v", err)
	}

	if len(specs) != 9 {
		t.Errorf("Expected 9 default labels, got %d", len(specs))
	}
	if specs[0].Name != "bug" || specs[0].Color != "d73a4a" {
		t.Errorf("Unexpected first label: %+v", specs[0])
	}

	// All-digit colors survive YAML parsing as strings
	found := false
	for _, spec := range specs {
		if spec.Name == "help wanted" {
			found = true
			if spec.Color != "008672" {
				t.Errorf("Expected 'help wanted' color 008672, got %s", spec.Color)
			}
		}
	}
	if !found {
		t.Error("Scaffold is missing the 'help wanted' label")
	}
}
