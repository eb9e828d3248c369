// Package services contains the enumeration loop that drives the census:
// resume-point recovery, streaming records from the enumerator into the
// sink, and the optional quota backoff.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/repocensus/internal/core/domain"
	"github.com/custodia-labs/repocensus/internal/core/ports/driven"
	"github.com/custodia-labs/repocensus/internal/logger"
)

// DefaultResetGrace is added on top of the reported quota reset time before
// resuming, so the window has actually rolled over.
const DefaultResetGrace = 5 * time.Second

// Filter drops records before they reach the sink. The zero value keeps
// everything.
type Filter struct {
	// Language keeps only repositories whose primary language matches
	// (case-sensitive, as reported by the API). Empty keeps all.
	Language string

	// SkipForks drops forked repositories.
	SkipForks bool
}

// Keep reports whether the record passes the filter.
func (f Filter) Keep(rec domain.RepoRecord) bool {
	if f.SkipForks && rec.Fork {
		return false
	}
	if f.Language != "" && rec.Language != f.Language {
		return false
	}
	return true
}

// Active reports whether the filter drops anything at all.
func (f Filter) Active() bool {
	return f.SkipForks || f.Language != ""
}

// CensusOptions configures a census run.
type CensusOptions struct {
	// WaitForReset makes quota exhaustion non-terminal: the run sleeps until
	// the quota window resets and resumes from the sink's cursor. Off by
	// default; the default behavior is to stop and let the user re-run.
	WaitForReset bool

	// ResetGrace overrides DefaultResetGrace.
	ResetGrace time.Duration

	// Filter drops records before append. Filtered runs leave identifier
	// gaps in the output file.
	Filter Filter

	// Progress, when set, is called after every appended record.
	Progress func(rows int, lastID int64)
}

// Census owns the sink and the enumerator for one output file and runs the
// enumeration loop against them.
type Census struct {
	enum  driven.Enumerator
	sink  driven.Sink
	skips *SkipLog
	opts  CensusOptions

	appended int
	filtered int
}

// NewCensus creates a census over an enumerator and a sink. skips may be nil
// when no skip log is wanted.
func NewCensus(enum driven.Enumerator, sink driven.Sink, skips *SkipLog, opts CensusOptions) *Census {
	return &Census{enum: enum, sink: sink, skips: skips, opts: opts}
}

// Appended returns the number of records written during Run.
func (c *Census) Appended() int {
	return c.appended
}

// Filtered returns the number of records dropped by the filter during Run.
func (c *Census) Filtered() int {
	return c.filtered
}

// Run executes the census until the feed is exhausted, the quota runs out
// (unless WaitForReset), the context is canceled, or a fatal error occurs.
// The returned result reflects the final enumeration pass; records appended
// across all passes are visible through Appended and the sink itself.
func (c *Census) Run(ctx context.Context) (driven.Result, error) {
	for {
		since := c.sink.Cursor()
		if since > 0 {
			c.probeCursor(ctx, since)
		}
		logger.Info("streaming repositories since id %d", since)

		res, err := c.enum.Enumerate(ctx, since, c.emit)
		if err != nil {
			return res, err
		}

		if res.Outcome != driven.OutcomeQuota || !c.opts.WaitForReset {
			return res, nil
		}

		if err := c.waitForReset(ctx, res.ResetAt); err != nil {
			res.Outcome = driven.OutcomeCanceled
			return res, nil
		}
	}
}

// probeCursor issues one request to confirm the resume cursor still names a
// live repository. Best effort: any failure is logged and the walk proceeds,
// since the cursor works as an exclusive lower bound regardless.
func (c *Census) probeCursor(ctx context.Context, id int64) {
	err := c.enum.ProbeCursor(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCursorGone):
		logger.Warn("resume cursor %d was deleted remotely; resuming past it", id)
	default:
		logger.Warn("resume cursor %d probe failed: %v", id, err)
	}
}

// emit filters and appends one record.
func (c *Census) emit(rec domain.RepoRecord) error {
	if !c.opts.Filter.Keep(rec) {
		c.filtered++
		logger.Debug("filtered %s (id %d)", rec.FullName, rec.ID)
		return nil
	}
	if err := c.sink.Append(rec); err != nil {
		return err
	}
	c.appended++
	if c.opts.Progress != nil {
		c.opts.Progress(c.sink.Rows(), rec.ID)
	}
	return nil
}

// waitForReset sleeps until the quota window resets, plus a grace period.
func (c *Census) waitForReset(ctx context.Context, resetAt time.Time) error {
	grace := c.opts.ResetGrace
	if grace == 0 {
		grace = DefaultResetGrace
	}
	wait := time.Until(resetAt) + grace
	if wait < 0 {
		wait = grace
	}
	logger.Info("quota exhausted, backing off %s until reset", wait.Round(time.Second))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
