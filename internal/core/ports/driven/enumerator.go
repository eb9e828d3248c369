package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/repocensus/internal/core/domain"
)

// Outcome is the terminal signal of an enumeration pass. It distinguishes the
// ways a pass can stop without failing, so callers can branch without
// inspecting error values.
type Outcome int

const (
	// OutcomeExhausted means the remote feed was drained: there are no
	// repositories with an identifier beyond the last one emitted.
	OutcomeExhausted Outcome = iota

	// OutcomeQuota means the remote request quota ran out mid-walk. Records
	// emitted before the stop are unaffected; Result.ResetAt carries the time
	// the quota window resets.
	OutcomeQuota

	// OutcomeCanceled means the context was canceled (typically SIGINT).
	OutcomeCanceled
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeQuota:
		return "quota"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result describes where and why an enumeration pass stopped.
type Result struct {
	// Outcome is the terminal signal. Only meaningful when Enumerate returned
	// a nil error.
	Outcome Outcome

	// LastID is the highest repository identifier the pass advanced past,
	// including records that were skipped as malformed.
	LastID int64

	// Emitted is the number of records handed to the emit callback.
	Emitted int

	// ResetAt is the quota reset time. Set only for OutcomeQuota.
	ResetAt time.Time
}

// EmitFunc receives one valid record at a time, in ascending identifier
// order. Returning an error aborts the pass and surfaces as a fatal
// enumeration error.
type EmitFunc func(domain.RepoRecord) error

// Enumerator walks the globally ordered public repository feed.
type Enumerator interface {
	// Enumerate streams records with identifier strictly greater than since
	// to emit, one remote request per page, until the feed is exhausted, the
	// quota runs out, or ctx is canceled. A non-nil error means the pass
	// failed (transport error or emit failure); otherwise Result.Outcome
	// says why it stopped.
	Enumerate(ctx context.Context, since int64, emit EmitFunc) (Result, error)

	// ProbeCursor issues one request to check that the resume cursor still
	// names a live repository. The walk does not require it to exist; this
	// exists so a vanished cursor can be reported before streaming starts.
	ProbeCursor(ctx context.Context, id int64) error
}
