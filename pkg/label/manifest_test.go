package label

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestFileFormat_String(t *testing.T) {
	assert.Equal(t, "single-repository", FormatSingleRepository.String())
	assert.Equal(t, "manifest", FormatManifest.String())
	assert.Equal(t, "unknown", FileFormat(99).String())
}

func TestDetectFileFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected FileFormat
	}{
		{
			name:     "document with labels key",
			data:     "labels:\n  - name: bug\n    color: d73a4a\n",
			expected: FormatSingleRepository,
		},
		{
			name:     "bare list of labels",
			data:     "- name: bug\n  color: d73a4a\n",
			expected: FormatSingleRepository,
		},
		{
			name:     "document with repositories key",
			data:     "repositories:\n  - repo: acme/api\n",
			expected: FormatManifest,
		},
		{
			name:     "document with defaults key only",
			data:     "defaults:\n  labels:\n    - name: bug\n      color: d73a4a\n",
			expected: FormatManifest,
		},
		{
			name:     "empty document",
			data:     "",
			expected: FormatSingleRepository,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := DetectFileFormat([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := DetectFileFormat([]byte("labels: [}"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML")
	})
}

const validManifest = `
version: "1"
defaults:
  prune: false
  labels:
    - name: bug
      color: "#D73A4A"
      description: Something isn't working
    - name: enhancement
      color: a2eeef
repositories:
  - repo: acme/api
    prune: true
    labels:
      - name: api-breaking
        color: e11d21
  - repo: acme/docs
    labels:
      - name: enhancement
        color: "0075ca"
`

func TestLoadManifest(t *testing.T) {
	t.Run("valid manifest", func(t *testing.T) {
		manifest, err := LoadManifest([]byte(validManifest))
		require.NoError(t, err)

		assert.Equal(t, "1", manifest.Version)
		require.NotNil(t, manifest.Defaults)
		require.Len(t, manifest.Defaults.Labels, 2)
		assert.Equal(t, "d73a4a", manifest.Defaults.Labels[0].Color, "default label colors are normalized")
		require.Len(t, manifest.Repositories, 2)
		assert.Equal(t, "acme/api", manifest.Repositories[0].Repo)
		assert.Equal(t, "0075ca", manifest.Repositories[1].Labels[0].Color)
	})

	t.Run("no repositories", func(t *testing.T) {
		_, err := LoadManifest([]byte("defaults:\n  labels: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one repository must be defined")
	})

	t.Run("missing repo field", func(t *testing.T) {
		_, err := LoadManifest([]byte("repositories:\n  - labels: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repository is required")
	})

	t.Run("invalid repo format", func(t *testing.T) {
		_, err := LoadManifest([]byte("repositories:\n  - repo: just-a-name\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repository must be in owner/repo format")
	})

	t.Run("duplicate repository", func(t *testing.T) {
		data := `
repositories:
  - repo: acme/api
  - repo: acme/api
`
		_, err := LoadManifest([]byte(data))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate repository")
	})

	t.Run("label problems do not fail loading", func(t *testing.T) {
		// Label sets are validated per repository later, so a bad color in
		// one entry must not prevent the manifest from loading
		data := `
repositories:
  - repo: acme/api
    labels:
      - name: bug
        color: not-a-color
`
		manifest, err := LoadManifest([]byte(data))
		require.NoError(t, err)

		err = manifest.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repositories[0]")
		assert.Contains(t, err.Error(), "label color must be exactly 6 hexadecimal digits")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadManifest([]byte("repositories: [}"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse manifest")
	})
}

func TestManifest_MergedLabels(t *testing.T) {
	defaults := &ManifestDefaults{
		Labels: []Spec{
			{Name: "bug", Color: "d73a4a"},
			{Name: "enhancement", Color: "a2eeef"},
		},
	}

	t.Run("defaults only", func(t *testing.T) {
		m := &Manifest{Defaults: defaults}
		merged := m.MergedLabels(RepositoryTarget{Repo: "acme/api"})

		require.Len(t, merged, 2)
		assert.Equal(t, "bug", merged[0].Name)
		assert.Equal(t, "enhancement", merged[1].Name)
	})

	t.Run("repository labels without defaults", func(t *testing.T) {
		m := &Manifest{}
		merged := m.MergedLabels(RepositoryTarget{
			Repo:   "acme/api",
			Labels: []Spec{{Name: "api-breaking", Color: "e11d21"}},
		})

		require.Len(t, merged, 1)
		assert.Equal(t, "api-breaking", merged[0].Name)
	})

	t.Run("override replaces the default in place", func(t *testing.T) {
		m := &Manifest{Defaults: defaults}
		merged := m.MergedLabels(RepositoryTarget{
			Repo: "acme/api",
			Labels: []Spec{
				{Name: "enhancement", Color: "0075ca", Description: "repo-specific"},
				{Name: "api-breaking", Color: "e11d21"},
			},
		})

		require.Len(t, merged, 3)
		assert.Equal(t, "bug", merged[0].Name)
		assert.Equal(t, "enhancement", merged[1].Name)
		assert.Equal(t, "0075ca", merged[1].Color)
		assert.Equal(t, "repo-specific", merged[1].Description)
		assert.Equal(t, "api-breaking", merged[2].Name)
	})
}

func TestManifest_PruneFor(t *testing.T) {
	tests := []struct {
		name         string
		defaultPrune *bool
		targetPrune  *bool
		expected     bool
	}{
		{
			name:     "prune defaults to on",
			expected: true,
		},
		{
			name:         "defaults can turn prune off",
			defaultPrune: boolPtr(false),
			expected:     false,
		},
		{
			name:         "target overrides defaults",
			defaultPrune: boolPtr(false),
			targetPrune:  boolPtr(true),
			expected:     true,
		},
		{
			name:        "target can turn prune off",
			targetPrune: boolPtr(false),
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{}
			if tt.defaultPrune != nil {
				m.Defaults = &ManifestDefaults{Prune: tt.defaultPrune}
			}

			target := RepositoryTarget{Repo: "acme/api", Prune: tt.targetPrune}
			assert.Equal(t, tt.expected, m.PruneFor(target))
		})
	}
}

func TestParseRepo(t *testing.T) {
	tests := []struct {
		input         string
		expectedOwner string
		expectedName  string
		expectError   bool
	}{
		{input: "acme/api", expectedOwner: "acme", expectedName: "api"},
		{input: "just-a-name", expectError: true},
		{input: "acme/", expectError: true},
		{input: "/api", expectError: true},
		{input: "acme/api/extra", expectError: true},
		{input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, name, err := ParseRepo(tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "owner/repo format")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedOwner, owner)
			assert.Equal(t, tt.expectedName, name)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("single repository file", func(t *testing.T) {
		path := filepath.Join(dir, "labels.yml")
		content := `
labels:
  - name: bug
    color: d73a4a
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		value, format, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, FormatSingleRepository, format)

		specs, ok := value.([]Spec)
		require.True(t, ok)
		assert.Len(t, specs, 1)
	})

	t.Run("manifest file", func(t *testing.T) {
		path := filepath.Join(dir, "manifest.yml")
		require.NoError(t, os.WriteFile(path, []byte(validManifest), 0644))

		value, format, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, FormatManifest, format)

		manifest, ok := value.(*Manifest)
		require.True(t, ok)
		assert.Len(t, manifest.Repositories, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadFile(filepath.Join(dir, "missing.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read labels file")
	})
}
