package label

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// Client implements the RemoteStore interface for a single GitHub
// repository using the REST API
type Client struct {
	client  *github.Client
	ctx     context.Context
	owner   string
	repo    string
	limiter *RateLimiter
}

// NewClient creates a new GitHub label client for owner/repo with the
// provided token
func NewClient(token, owner, repo string) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client: github.NewClient(tc),
		ctx:    ctx,
		owner:  owner,
		repo:   repo,
	}
}

// SetRateLimiter attaches a shared rate limiter. Every API call then waits
// on it and feeds response rate headers back into it.
func (c *Client) SetRateLimiter(limiter *RateLimiter) {
	c.limiter = limiter
}

// Repo returns the owner/repo reference this client targets
func (c *Client) Repo() string {
	return fmt.Sprintf("%s/%s", c.owner, c.repo)
}

// ListLabels returns the repository's full label set, following pagination
// transparently
func (c *Client) ListLabels() ([]Remote, error) {
	var all []Remote
	opts := &github.ListOptions{PerPage: 100}

	for {
		if err := c.wait(); err != nil {
			return nil, WrapAPIError(err, c.labelsResource())
		}

		labels, resp, err := c.client.Issues.ListLabels(c.ctx, c.owner, c.repo, opts)
		c.observe(resp)
		if err != nil {
			return nil, WrapAPIError(err, c.labelsResource())
		}

		for _, l := range labels {
			all = append(all, convertLabel(l))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateLabel creates a new label from the desired spec
func (c *Client) CreateLabel(spec Spec) error {
	if err := c.wait(); err != nil {
		return WrapAPIError(err, c.labelResource(spec.Name))
	}

	_, resp, err := c.client.Issues.CreateLabel(c.ctx, c.owner, c.repo, &github.Label{
		Name:        github.String(spec.Name),
		Color:       github.String(spec.Color),
		Description: github.String(spec.Description),
	})
	c.observe(resp)
	if err != nil {
		return WrapAPIError(err, c.labelResource(spec.Name))
	}

	return nil
}

// UpdateLabel updates the label currently named oldName to match the
// desired spec. The same call performs renames: GitHub addresses labels by
// name and takes the new name in the request body.
func (c *Client) UpdateLabel(oldName string, spec Spec) error {
	if err := c.wait(); err != nil {
		return WrapAPIError(err, c.labelResource(oldName))
	}

	_, resp, err := c.client.Issues.EditLabel(c.ctx, c.owner, c.repo, oldName, &github.Label{
		Name:        github.String(spec.Name),
		Color:       github.String(spec.Color),
		Description: github.String(spec.Description),
	})
	c.observe(resp)
	if err != nil {
		return WrapAPIError(err, c.labelResource(oldName))
	}

	return nil
}

// DeleteLabel removes the named label
func (c *Client) DeleteLabel(name string) error {
	if err := c.wait(); err != nil {
		return WrapAPIError(err, c.labelResource(name))
	}

	resp, err := c.client.Issues.DeleteLabel(c.ctx, c.owner, c.repo, name)
	c.observe(resp)
	if err != nil {
		return WrapAPIError(err, c.labelResource(name))
	}

	return nil
}

// CheckAccess verifies the repository exists and the token can reach it
func (c *Client) CheckAccess() error {
	_, resp, err := c.client.Repositories.Get(c.ctx, c.owner, c.repo)
	c.observe(resp)
	if err != nil {
		return WrapAPIError(err, fmt.Sprintf("repository %s/%s", c.owner, c.repo))
	}

	return nil
}

// wait blocks on the shared rate limiter when one is attached
func (c *Client) wait() error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(c.ctx)
}

// observe feeds response rate headers into the shared limiter
func (c *Client) observe(resp *github.Response) {
	if c.limiter == nil || resp == nil {
		return
	}
	c.limiter.UpdateLimits(resp.Rate.Remaining, resp.Rate.Reset.Time)
}

func (c *Client) labelsResource() string {
	return fmt.Sprintf("labels in repository %s/%s", c.owner, c.repo)
}

func (c *Client) labelResource(name string) string {
	return fmt.Sprintf("label '%s' in repository %s/%s", name, c.owner, c.repo)
}

// convertLabel converts a GitHub API label into our Remote type
func convertLabel(l *github.Label) Remote {
	return Remote{
		ID:          l.GetID(),
		Name:        l.GetName(),
		Color:       NormalizeColor(l.GetColor()),
		Description: l.GetDescription(),
	}
}
