package label

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"labelctl/pkg/config"
)

// AuthManager handles GitHub authentication
type AuthManager struct {
	client *github.Client
	token  string
}

// NewAuthManager creates a new authentication manager
func NewAuthManager() *AuthManager {
	return &AuthManager{}
}

// GetToken resolves the GitHub token. Precedence: explicit flag value,
// then the GITHUB_TOKEN environment variable, then the config file.
func (am *AuthManager) GetToken(flagToken string, cfg *config.Config) (string, error) {
	if flagToken != "" {
		return strings.TrimSpace(flagToken), nil
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return strings.TrimSpace(token), nil
	}

	if cfg != nil && cfg.GitHub.Token != "" {
		return strings.TrimSpace(cfg.GitHub.Token), nil
	}

	return "", fmt.Errorf("no GitHub token found: pass --access-token, set GITHUB_TOKEN, or configure token in ~/.labelctl/config.yaml")
}

// Authenticate sets up the GitHub client with the provided token
func (am *AuthManager) Authenticate(token string) error {
	if token == "" {
		return fmt.Errorf("GitHub token cannot be empty")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	am.client = github.NewClient(tc)
	am.token = token

	return nil
}

// ValidateToken validates the GitHub token and checks permissions
func (am *AuthManager) ValidateToken(ctx context.Context) (*TokenInfo, error) {
	if am.client == nil {
		return nil, fmt.Errorf("not authenticated: call Authenticate() first")
	}

	// The user lookup both proves the token works and carries the scope
	// header on its response
	user, resp, err := am.client.Users.Get(ctx, "")
	if err != nil {
		return nil, WrapAPIError(err, "authenticated user")
	}

	scopes := []string{}
	if scopeHeader := resp.Header.Get("X-OAuth-Scopes"); scopeHeader != "" {
		scopes = strings.Split(strings.ReplaceAll(scopeHeader, " ", ""), ",")
	}

	tokenInfo := &TokenInfo{
		User:   user.GetLogin(),
		Scopes: scopes,
	}

	if err := am.validatePermissions(tokenInfo.Scopes); err != nil {
		return tokenInfo, err
	}

	return tokenInfo, nil
}

// validatePermissions checks if the token has required permissions.
// Fine-grained tokens report no scopes at all, so an empty list is let
// through and any permission gap surfaces on the first API call instead.
func (am *AuthManager) validatePermissions(scopes []string) error {
	if len(scopes) == 0 {
		return nil
	}

	scopeMap := make(map[string]bool)
	for _, scope := range scopes {
		scopeMap[scope] = true
	}

	if !scopeMap["repo"] && !scopeMap["public_repo"] {
		return fmt.Errorf("GitHub token missing required permissions. Please ensure your token has the 'repo' scope (or 'public_repo' for public repositories only)")
	}

	return nil
}

// GetClient returns the authenticated GitHub client
func (am *AuthManager) GetClient() *github.Client {
	return am.client
}

// TokenInfo contains information about the authenticated token
type TokenInfo struct {
	User   string   `json:"user"`
	Scopes []string `json:"scopes"`
}

// AuthenticateFromConfig is a convenience method that handles the full
// token resolution and validation flow
func (am *AuthManager) AuthenticateFromConfig(ctx context.Context, flagToken string, cfg *config.Config) (*TokenInfo, error) {
	token, err := am.GetToken(flagToken, cfg)
	if err != nil {
		return nil, err
	}

	if err := am.Authenticate(token); err != nil {
		return nil, err
	}

	tokenInfo, err := am.ValidateToken(ctx)
	if err != nil {
		return nil, err
	}

	return tokenInfo, nil
}

// GetAuthInstructions returns instructions for setting up GitHub authentication
func GetAuthInstructions() string {
	return `GitHub authentication is required. Please set up authentication using one of the following methods:

1. Command line flag:
   labelctl apply --access-token "your_personal_access_token" ...

2. Environment Variable (Recommended for CI/CD):
   export GITHUB_TOKEN="your_personal_access_token"

3. Configuration File:
   Add the following to ~/.labelctl/config.yaml:

   github:
     token: "your_personal_access_token"

To create a personal access token:
1. Go to GitHub Settings > Developer settings > Personal access tokens
2. Click "Generate new token (classic)"
3. Select the following scopes:
   - repo (Full control of private repositories)
4. Copy the generated token and use it with one of the methods above

Note: The token must have 'repo' scope to manage labels on private repositories.`
}
