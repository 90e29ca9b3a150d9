// Package gitremote resolves the GitHub repository for a working tree by
// reading the origin remote from .git/config. The apply and export commands
// use it to default the repository argument.
package gitremote

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Remote identifies a GitHub repository parsed from a git remote URL
type Remote struct {
	Owner string
	Name  string
}

// String returns the owner/repo form
func (r Remote) String() string {
	return r.Owner + "/" + r.Name
}

// Detect finds the repository for the working tree containing dir by walking
// up to the nearest .git/config and parsing its origin remote
func Detect(dir string) (*Remote, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}

	current := abs
	for {
		configPath := filepath.Join(current, ".git", "config")
		if _, err := os.Stat(configPath); err == nil {
			return fromGitConfig(configPath)
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil, fmt.Errorf("not inside a git repository: %s", abs)
}

// fromGitConfig extracts the origin remote URL from a .git/config file
func fromGitConfig(path string) (*Remote, error) {
	// Boolean shorthand keys like "bare" appear in git configs
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load git config: %w", err)
	}

	for _, section := range cfg.Sections() {
		name := section.Name()
		if !strings.HasPrefix(name, "remote ") {
			continue
		}

		remoteName := strings.Trim(strings.TrimPrefix(name, "remote "), `"`)
		if remoteName != "origin" {
			continue
		}

		remoteURL := section.Key("url").String()
		if remoteURL == "" {
			return nil, fmt.Errorf("origin remote in %s has no url", path)
		}
		return ParseURL(remoteURL)
	}

	return nil, fmt.Errorf("no origin remote found in %s", path)
}

// ParseURL parses a git remote URL into its owner and repository. It accepts
// the https, ssh, and scp-like forms GitHub hands out:
//
//	https://github.com/owner/repo.git
//	ssh://git@github.com/owner/repo.git
//	git@github.com:owner/repo.git
func ParseURL(rawURL string) (*Remote, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return nil, fmt.Errorf("remote URL is empty")
	}

	var path string
	switch {
	case strings.Contains(raw, "://"):
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid remote URL '%s': %w", raw, err)
		}
		path = parsed.Path

	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// scp-like syntax: git@github.com:owner/repo.git
		path = raw[strings.Index(raw, ":")+1:]

	default:
		return nil, fmt.Errorf("unrecognized remote URL format: %s", raw)
	}

	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("cannot determine owner/repo from remote URL: %s", raw)
	}

	return &Remote{Owner: parts[0], Name: parts[1]}, nil
}
