package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary directory for testing
	tempDir := t.TempDir()

	// Create test config file
	configPath := filepath.Join(tempDir, "config.yaml")
	configContent := `github:
  token: "ghp_test_token"
  owner: "test-org"
`
	err := os.WriteFile(configPath, []byte(configContent), 0600)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	// Load config
	config, err := LoadConfigFromPath(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify GitHub config values
	if config.GitHub.Token != "ghp_test_token" {
		t.Errorf("Expected GitHub Token = ghp_test_token, got %s", config.GitHub.Token)
	}

	if config.GitHub.Owner != "test-org" {
		t.Errorf("Expected GitHub Owner = test-org, got %s", config.GitHub.Owner)
	}
}

func TestLoadConfigNonExistent(t *testing.T) {
	// Test loading non-existent config file
	config, err := LoadConfigFromPath("/non/existent/path")
	if err != nil {
		t.Fatalf("Expected no error for non-existent config, got: %v", err)
	}

	// Should return empty config
	if config.GitHub.Token != "" {
		t.Error("Expected empty token for non-existent config")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("github: [not a mapping"), 0600); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	if _, err := LoadConfigFromPath(configPath); err == nil {
		t.Error("Expected error for invalid YAML config")
	}
}

func TestSaveConfig(t *testing.T) {
	// Create a temporary directory for testing
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	// Create and save config
	config := &Config{
		GitHub: GitHubConfig{
			Token: "ghp_save_test_token",
			Owner: "save-test-org",
		},
	}

	err := config.SaveConfigToPath(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Verify file was created with owner-only permissions
	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected config file mode 0600, got %o", info.Mode().Perm())
	}

	// Load and verify saved config
	loadedConfig, err := LoadConfigFromPath(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loadedConfig.GitHub.Token != config.GitHub.Token {
		t.Errorf("Expected GitHub Token = %s, got %s", config.GitHub.Token, loadedConfig.GitHub.Token)
	}

	if loadedConfig.GitHub.Owner != config.GitHub.Owner {
		t.Errorf("Expected GitHub Owner = %s, got %s", config.GitHub.Owner, loadedConfig.GitHub.Owner)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			config:  Config{},
			wantErr: false,
		},
		{
			name: "bare owner",
			config: Config{
				GitHub: GitHubConfig{
					Owner: "test-org",
				},
			},
			wantErr: false,
		},
		{
			name: "owner with repository part",
			config: Config{
				GitHub: GitHubConfig{
					Owner: "test-org/test-repo",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() failed: %v", err)
	}

	if path == "" {
		t.Error("GetConfigPath() returned empty path")
	}

	if !filepath.IsAbs(path) {
		t.Error("GetConfigPath() should return absolute path")
	}

	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected config.yaml filename, got %s", filepath.Base(path))
	}
}
