package domain

import "errors"

// Domain errors.
var (
	// ErrMalformedRecord indicates a remote repository record was missing a
	// required field and could not be converted into a RepoRecord.
	ErrMalformedRecord = errors.New("malformed repository record")

	// ErrMalformedResumeFile indicates an existing output file could not be
	// used as a resume point: the header does not match the fixed schema, or
	// the last row is truncated or carries an unparseable identifier.
	ErrMalformedResumeFile = errors.New("malformed resume file")

	// ErrCursorGone indicates the repository the resume cursor points at no
	// longer exists remotely. Enumeration can still proceed: the cursor is
	// an exclusive lower bound, not a record that must exist.
	ErrCursorGone = errors.New("cursor repository no longer exists")
)
