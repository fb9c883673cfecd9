package folio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/andrasna/folio/content"
	"github.com/andrasna/folio/github"
)

// PostLoader loads every published post. *content.Loader implements it.
type PostLoader interface {
	Load() ([]content.Post, error)
}

// PostCache is an in-memory cache of loaded posts with TTL. Watch calls
// Invalidate when the content directory changes.
type PostCache struct {
	mu      sync.RWMutex
	posts   []content.Post
	bySlug  map[string]int
	loaded  bool
	fetched time.Time
	ttl     time.Duration
	loader  PostLoader
	metrics *Metrics
}

// NewPostCache creates a PostCache backed by the given loader.
func NewPostCache(l PostLoader, ttl time.Duration) *PostCache {
	return &PostCache{loader: l, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.bySlug = nil
	c.loaded = false
	c.mu.Unlock()
}

func (c *PostCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.loader.Load()
	if err != nil {
		return err
	}
	bySlug := make(map[string]int, len(posts))
	for i, p := range posts {
		bySlug[p.Slug] = i
	}
	c.posts = posts
	c.bySlug = bySlug
	c.loaded = true
	c.fetched = time.Now()
	if c.metrics != nil {
		c.metrics.postsLoaded.Set(float64(len(posts)))
	}
	return nil
}

// ensureLoaded returns cached posts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded() ([]content.Post, map[string]int, error) {
	c.mu.RLock()
	if c.valid() {
		posts, bySlug := c.posts, c.bySlug
		c.mu.RUnlock()
		return posts, bySlug, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.posts, c.bySlug, nil
}

// ListPosts returns all published posts, newest first.
func (c *PostCache) ListPosts() ([]content.Post, error) {
	posts, _, err := c.ensureLoaded()
	return posts, err
}

// GetPost returns a single post by slug, or ErrNotFound.
func (c *PostCache) GetPost(slug string) (content.Post, error) {
	posts, bySlug, err := c.ensureLoaded()
	if err != nil {
		return content.Post{}, err
	}
	i, ok := bySlug[slug]
	if !ok {
		return content.Post{}, ErrNotFound
	}
	return posts[i], nil
}

// RepoSource fetches pinned repositories. *github.Client implements it.
type RepoSource interface {
	PinnedRepositories(ctx context.Context, login string, first int) ([]github.Repository, error)
}

const (
	repoCacheKey = "pinned"
	// repoRetryAfter bounds how long a failed lookup or a snapshot fallback
	// is served before the API is tried again.
	repoRetryAfter = time.Minute
)

// repoResult is what RepoCache keeps: live repositories, a snapshot, or the
// error of the last lookup.
type repoResult struct {
	repos []github.Repository
	err   error
}

// RepoCache serves pinned repositories for one login. Live fetches are
// saved to the Store; when the API fails the last snapshot is used instead.
type RepoCache struct {
	source     RepoSource
	store      *Store
	login      string
	first      int
	cache      *cache.Cache
	group      singleflight.Group
	retryAfter time.Duration
	metrics    *Metrics
	logger     *log.Logger
}

// NewRepoCache creates a RepoCache. store may be nil, which disables the
// snapshot fallback.
func NewRepoCache(src RepoSource, store *Store, login string, first int, ttl time.Duration) *RepoCache {
	retry := repoRetryAfter
	if ttl < retry {
		retry = ttl
	}
	return &RepoCache{
		source:     src,
		store:      store,
		login:      login,
		first:      first,
		cache:      cache.New(ttl, ttl*2),
		retryAfter: retry,
	}
}

// Repos returns cached repositories, fetching them when the cache is cold.
// Live results are kept for the cache TTL. Failures and snapshot fallbacks
// are kept for a short retry window, so an outage costs one lookup per
// window rather than one per request. Concurrent cold reads share a lookup.
// An empty login means the projects section is disabled.
func (c *RepoCache) Repos(ctx context.Context) ([]github.Repository, error) {
	if c.login == "" {
		return nil, nil
	}
	if v, ok := c.cache.Get(repoCacheKey); ok {
		c.count("cached")
		r := v.(repoResult)
		return r.repos, r.err
	}
	v, _, _ := c.group.Do(repoCacheKey, func() (interface{}, error) {
		repos, fromSnapshot, err := c.fetch(ctx)
		r := repoResult{repos: repos, err: err}
		switch {
		case ctx.Err() != nil:
			// A cancelled request says nothing about GitHub.
		case err != nil, fromSnapshot:
			c.cache.Set(repoCacheKey, r, c.retryAfter)
		default:
			c.cache.Set(repoCacheKey, r, cache.DefaultExpiration)
		}
		return r, nil
	})
	r := v.(repoResult)
	return r.repos, r.err
}

// Fetch bypasses the in-memory cache and queries the API.
func (c *RepoCache) Fetch(ctx context.Context) ([]github.Repository, error) {
	repos, _, err := c.fetch(ctx)
	return repos, err
}

// fetch queries the API, falling back to the stored snapshot. It reports
// whether the snapshot was used.
func (c *RepoCache) fetch(ctx context.Context) ([]github.Repository, bool, error) {
	if c.login == "" {
		return nil, false, nil
	}
	if c.source == nil {
		return nil, false, fmt.Errorf("folio: pinned repositories of %s: %w", c.login, github.ErrNoToken)
	}

	start := time.Now()
	repos, err := c.source.PinnedRepositories(ctx, c.login, c.first)
	if c.metrics != nil {
		c.metrics.githubLatency.Observe(time.Since(start).Seconds())
	}
	if err == nil {
		c.count("success")
		if c.store != nil {
			if serr := c.store.SaveRepos(c.login, repos, time.Now()); serr != nil {
				c.warnf("save repository snapshot: %v", serr)
			}
		}
		return repos, false, nil
	}

	c.count("error")
	if c.store == nil || errors.Is(err, context.Canceled) {
		return nil, false, fmt.Errorf("folio: fetch pinned repositories: %w", err)
	}
	snap, serr := c.store.LoadRepos(c.login)
	if serr != nil {
		return nil, false, fmt.Errorf("folio: fetch pinned repositories (no snapshot): %w", err)
	}
	c.count("snapshot")
	c.warnf("github unavailable, using snapshot from %s: %v", snap.FetchedAt.Format(time.RFC3339), err)
	return snap.Repos, true, nil
}

// Invalidate drops the cached repositories.
func (c *RepoCache) Invalidate() {
	c.cache.Flush()
}

func (c *RepoCache) count(result string) {
	if c.metrics != nil {
		c.metrics.githubFetch(result)
	}
}

func (c *RepoCache) warnf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}
