package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/repocensus/internal/core/domain"
	"github.com/custodia-labs/repocensus/internal/core/ports/driven"
	"github.com/custodia-labs/repocensus/internal/logger"
)

// Ensure Enumerator implements the port.
var _ driven.Enumerator = (*Enumerator)(nil)

// SkipFunc is notified of records that were dropped as malformed or that
// failed hydration. The walk continues past them.
type SkipFunc func(fullName string, err error)

// Enumerator walks the public repository feed through a Client.
type Enumerator struct {
	client  *Client
	hydrate bool
	skip    SkipFunc
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithHydration makes the enumerator fetch the full repository
// representation for every feed record, one extra request per record. The
// feed itself only carries the minimal fields.
func WithHydration() Option {
	return func(e *Enumerator) { e.hydrate = true }
}

// WithSkipFunc sets the hook for skipped records.
func WithSkipFunc(fn SkipFunc) Option {
	return func(e *Enumerator) { e.skip = fn }
}

// NewEnumerator creates an enumerator over the given client.
func NewEnumerator(client *Client, opts ...Option) *Enumerator {
	e := &Enumerator{
		client: client,
		skip:   func(string, error) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enumerate implements driven.Enumerator. It pages through the feed with a
// since cursor, emitting each valid record synchronously before fetching
// further. Quota exhaustion and cancellation are terminal outcomes, not
// errors; only transport failures and emit failures return a non-nil error.
func (e *Enumerator) Enumerate(
	ctx context.Context, since int64, emit driven.EmitFunc,
) (driven.Result, error) {
	res := driven.Result{Outcome: driven.OutcomeExhausted, LastID: since}

	for {
		select {
		case <-ctx.Done():
			res.Outcome = driven.OutcomeCanceled
			return res, nil
		default:
		}

		repos, err := e.client.ListPublicSince(ctx, res.LastID)
		if err != nil {
			return e.stopOn(res, err)
		}

		if len(repos) == 0 {
			res.Outcome = driven.OutcomeExhausted
			return res, nil
		}

		logger.Debug("page since=%d: %d repositories", res.LastID, len(repos))

		pageStart := res.LastID
		for _, repo := range repos {
			select {
			case <-ctx.Done():
				res.Outcome = driven.OutcomeCanceled
				return res, nil
			default:
			}

			rec, err := e.convert(ctx, repo)
			if err != nil {
				if IsRateLimited(err) {
					// Hydration burned the quota. The record was not emitted,
					// so the file cursor still points before it and the next
					// run refetches it.
					return e.stopOn(res, err)
				}
				e.skip(repo.GetFullName(), err)
				if id := repo.GetID(); id > res.LastID {
					res.LastID = id
				}
				continue
			}

			if err := emit(rec); err != nil {
				return res, fmt.Errorf("emit record %d: %w", rec.ID, err)
			}
			res.Emitted++
			if rec.ID > res.LastID {
				res.LastID = rec.ID
			}
		}

		// A page whose every record lacks a usable ID cannot advance the
		// cursor; refetching it forever is the only alternative to failing.
		if res.LastID == pageStart {
			return res, fmt.Errorf("feed page since=%d made no progress", pageStart)
		}
	}
}

// ProbeCursor implements driven.Enumerator. A vanished repository is
// reported as domain.ErrCursorGone; the since cursor stays usable either way.
func (e *Enumerator) ProbeCursor(ctx context.Context, id int64) error {
	_, err := e.client.GetRepositoryByID(ctx, id)
	if IsNotFound(err) {
		return fmt.Errorf("%w: id %d", domain.ErrCursorGone, id)
	}
	return err
}

// convert turns a feed repository into a domain record, hydrating it first
// when enabled. A failed hydration falls back to the minimal record.
func (e *Enumerator) convert(ctx context.Context, repo *gh.Repository) (domain.RepoRecord, error) {
	if e.hydrate && repo.GetID() > 0 {
		full, err := e.client.GetRepositoryByID(ctx, repo.GetID())
		switch {
		case err == nil:
			repo = full
		case IsRateLimited(err) || errors.Is(err, context.Canceled):
			return domain.RepoRecord{}, err
		default:
			logger.Warn("hydrate %s: %v", repo.GetFullName(), err)
		}
	}
	return domain.FromGitHub(repo)
}

// stopOn maps a fetch error to a terminal outcome where one applies, and to
// a fatal error otherwise.
func (e *Enumerator) stopOn(res driven.Result, err error) (driven.Result, error) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		res.Outcome = driven.OutcomeQuota
		res.ResetAt = rateLimitErr.ResetAt
		return res, nil
	}
	if errors.Is(err, context.Canceled) {
		res.Outcome = driven.OutcomeCanceled
		return res, nil
	}
	return res, err
}
