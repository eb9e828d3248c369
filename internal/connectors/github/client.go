package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// Client wraps the go-github client with quota tracking.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub API client. With an empty token the client runs
// anonymously against the 60 requests/hour quota.
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		return &Client{
			gh:          gh.NewClient(&http.Client{Timeout: DefaultTimeout}),
			rateLimiter: NewRateLimiter(false),
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Client{
		gh:          gh.NewClient(tc),
		rateLimiter: NewRateLimiter(true),
	}
}

// ListPublicSince fetches one page of the public repository feed, containing
// repositories with ID strictly greater than since, ascending. An empty page
// means the feed is exhausted. Page size is chosen by the API.
func (c *Client) ListPublicSince(ctx context.Context, since int64) ([]*gh.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryListAllOptions{Since: since}
	repos, resp, err := c.gh.Repositories.ListAll(ctx, opts)
	if err := c.checkResponse(resp, err, "list repositories"); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepositoryByID fetches the full representation of a single repository.
// Used for cursor probing and for hydrating the minimal feed records.
func (c *Client) GetRepositoryByID(ctx context.Context, id int64) (*gh.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	repo, resp, err := c.gh.Repositories.GetByID(ctx, id)
	if err := c.checkResponse(resp, err, "get repository"); err != nil {
		return nil, err
	}
	return repo, nil
}

// CurrentUser returns the authenticated user. Fails with an unauthorized
// error for anonymous or invalid tokens.
func (c *Client) CurrentUser(ctx context.Context) (*gh.User, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	user, resp, err := c.gh.Users.Get(ctx, "")
	if err := c.checkResponse(resp, err, "get user"); err != nil {
		return nil, err
	}
	return user, nil
}

// RateLimits returns the current quota status from the API. This endpoint
// does not count against the quota.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, resp, err := c.gh.RateLimit.Get(ctx)
	if err := c.checkResponse(resp, err, "get rate limit"); err != nil {
		return nil, err
	}
	return limits, nil
}

// RateLimiter returns the quota tracker.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// checkResponse folds the response's quota headers into the limiter and maps
// rate-limited responses to RateLimitError before falling back to wrapError.
// The header check catches limited responses go-github leaves untyped, such
// as a bare 429 with no Retry-After.
func (c *Client) checkResponse(resp *gh.Response, err error, operation string) error {
	if resp != nil && resp.Response != nil {
		if rlErr := c.rateLimiter.CheckRateLimit(resp.Response); rlErr != nil {
			return rlErr
		}
	}
	return c.wrapError(err, operation)
}

// wrapError converts go-github errors to this package's error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Primary rate limit (403/429 with X-RateLimit-Remaining: 0).
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	// Secondary rate limit (abuse detection) carries Retry-After.
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now().Add(time.Minute)
		if abuseErr.RetryAfter != nil {
			resetAt = time.Now().Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{
			ResetAt:   resetAt,
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		url := ""
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			url = ghErr.Response.Request.URL.String()
		}
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        url,
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
