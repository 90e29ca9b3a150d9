package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labelctl/pkg/config"
	"labelctl/pkg/label"
)

// chdir switches the working directory for one test
func chdir(t *testing.T, dir string) {
	t.Helper()

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestResolveRepository(t *testing.T) {
	t.Run("positional owner/repo argument", func(t *testing.T) {
		owner, name, err := resolveRepository([]string{"acme/api"}, &config.Config{})
		if err != nil {
			t.Fatalf("resolveRepository failed: %v", err)
		}
		if owner != "acme" || name != "api" {
			t.Errorf("Expected acme/api, got %s/%s", owner, name)
		}
	})

	t.Run("bare name uses the configured owner", func(t *testing.T) {
		cfg := &config.Config{GitHub: config.GitHubConfig{Owner: "acme"}}

		owner, name, err := resolveRepository([]string{"api"}, cfg)
		if err != nil {
			t.Fatalf("resolveRepository failed: %v", err)
		}
		if owner != "acme" || name != "api" {
			t.Errorf("Expected acme/api, got %s/%s", owner, name)
		}
	})

	t.Run("bare name without a configured owner", func(t *testing.T) {
		_, _, err := resolveRepository([]string{"api"}, &config.Config{})
		if err == nil {
			t.Fatal("Expected error for bare repository name")
		}
		if !strings.Contains(err.Error(), "owner/repo format") {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("falls back to the git origin remote", func(t *testing.T) {
		dir := t.TempDir()
		gitDir := filepath.Join(dir, ".git")
		if err := os.MkdirAll(gitDir, 0755); err != nil {
			t.Fatalf("Failed to create .git directory: %v", err)
		}
		gitConfig := `[remote "origin"]
	url = git@github.com:octocat/hello-world.git
	fetch = +refs/heads/*:refs/remotes/origin/*
`
		if err := os.WriteFile(filepath.Join(gitDir, "config"), []byte(gitConfig), 0644); err != nil {
			t.Fatalf("Failed to write git config: %v", err)
		}
		chdir(t, dir)

		owner, name, err := resolveRepository(nil, &config.Config{})
		if err != nil {
			t.Fatalf("resolveRepository failed: %v", err)
		}
		if owner != "octocat" || name != "hello-world" {
			t.Errorf("Expected octocat/hello-world, got %s/%s", owner, name)
		}
	})

	t.Run("no argument outside a git checkout", func(t *testing.T) {
		chdir(t, t.TempDir())

		_, _, err := resolveRepository(nil, &config.Config{})
		if err == nil {
			t.Fatal("Expected error when no repository can be detected")
		}
		if !strings.Contains(err.Error(), "no repository specified") {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}

func TestReportEncoding(t *testing.T) {
	t.Run("explicit format", func(t *testing.T) {
		encoding, err := reportEncoding("json")
		if err != nil {
			t.Fatalf("reportEncoding failed: %v", err)
		}
		if encoding != label.EncodingJSON {
			t.Errorf("Expected json encoding, got %s", encoding)
		}
	})

	t.Run("empty value picks a default", func(t *testing.T) {
		if _, err := reportEncoding(""); err != nil {
			t.Fatalf("reportEncoding failed: %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := reportEncoding("csv"); err == nil {
			t.Fatal("Expected error for unknown format")
		}
	})
}
