package driven

import "github.com/custodia-labs/repocensus/internal/core/domain"

// Sink is an append-only destination for repository records. Implementations
// own their file handle and cursor; nothing else touches the output file
// while a sink is open.
type Sink interface {
	// Cursor returns the identifier of the last persisted record, recovered
	// from the existing file on open. Zero means the sink is empty and
	// enumeration starts from the beginning.
	Cursor() int64

	// Rows returns the number of data rows persisted so far, including rows
	// recovered from a previous run.
	Rows() int

	// Append serializes the record as one row and flushes it, so a crash
	// after Append returns loses nothing already appended.
	Append(domain.RepoRecord) error

	// Close flushes and releases the underlying file.
	Close() error
}
