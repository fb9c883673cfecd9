// Package github fetches pinned repositories from the GitHub GraphQL API.
package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

const (
	// DefaultEndpoint is the public GitHub GraphQL endpoint.
	DefaultEndpoint = "https://api.github.com/graphql"
	// DefaultPinnedCount matches the number of pins GitHub allows on a profile.
	DefaultPinnedCount = 6

	MaxRetries     = 3
	RetryDelay     = 2 * time.Second
	RequestTimeout = 15 * time.Second
)

// ErrNoToken is returned when no API token is configured.
var ErrNoToken = errors.New("github: token is required")

// Repository is the subset of repository metadata shown on the home page.
type Repository struct {
	ID            string
	Name          string
	URL           string
	Description   string
	Stars         int
	Forks         int
	Language      string
	LanguageColor string
}

// Config holds client settings. Zero values fall back to package defaults.
type Config struct {
	Token      string
	Endpoint   string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Client queries the GraphQL API with a bearer token.
type Client struct {
	gql     *githubv4.Client
	retries int
	delay   time.Duration
}

// NewClient builds a Client. The token is sent as an OAuth2 bearer token on
// every request. The HTTP client is derived from ctx, so callers may supply
// their own transport through oauth2.HTTPClient.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = RequestTimeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = MaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = RetryDelay
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		gql:     githubv4.NewEnterpriseClient(cfg.Endpoint, httpClient),
		retries: cfg.Retries,
		delay:   cfg.RetryDelay,
	}, nil
}

type repositoryNode struct {
	ID              string
	Name            string
	URL             string
	Description     *string
	StargazerCount  int
	ForkCount       int
	PrimaryLanguage *struct {
		Name  string
		Color *string
	}
}

type pinnedQuery struct {
	User struct {
		PinnedItems struct {
			Nodes []struct {
				Repository repositoryNode `graphql:"... on Repository"`
			}
		} `graphql:"pinnedItems(first: $first, types: REPOSITORY)"`
	} `graphql:"user(login: $login)"`
}

// PinnedRepositories returns up to first pinned repositories of login, in
// the order shown on the profile.
func (c *Client) PinnedRepositories(ctx context.Context, login string, first int) ([]Repository, error) {
	if login == "" {
		return nil, errors.New("github: login is required")
	}
	if first <= 0 {
		first = DefaultPinnedCount
	}
	vars := map[string]interface{}{
		"login": githubv4.String(login),
		"first": githubv4.Int(first),
	}

	var (
		q   pinnedQuery
		err error
	)
	for i := 0; i < c.retries; i++ {
		q = pinnedQuery{}
		err = c.gql.Query(ctx, &q, vars)
		if err == nil {
			break
		}
		if ctx.Err() != nil || i == c.retries-1 {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.delay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("github: pinned repositories of %s: %w", login, err)
	}

	nodes := q.User.PinnedItems.Nodes
	repos := make([]Repository, 0, len(nodes))
	for _, n := range nodes {
		r := n.Repository
		if r.Name == "" {
			continue
		}
		repo := Repository{
			ID:    r.ID,
			Name:  r.Name,
			URL:   r.URL,
			Stars: r.StargazerCount,
			Forks: r.ForkCount,
		}
		if r.Description != nil {
			repo.Description = *r.Description
		}
		if r.PrimaryLanguage != nil {
			repo.Language = r.PrimaryLanguage.Name
			if r.PrimaryLanguage.Color != nil {
				repo.LanguageColor = *r.PrimaryLanguage.Color
			}
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

