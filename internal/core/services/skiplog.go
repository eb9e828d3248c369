package services

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SkipLog records repositories that were dropped during a run (malformed
// records, failed hydrations) in a sidecar text file next to the output
// file. Each run is tagged with its own ID so interleaved lines from
// successive runs stay attributable.
//
// The file is opened lazily on the first skip, so clean runs leave no
// sidecar behind.
type SkipLog struct {
	mu    sync.Mutex
	path  string
	runID string
	f     *os.File
	count int
}

// NewSkipLog creates a skip log writing to path.
func NewSkipLog(path string) *SkipLog {
	return &SkipLog{path: path, runID: uuid.NewString()}
}

// RunID returns the identifier tagging this run's entries.
func (l *SkipLog) RunID() string {
	return l.runID
}

// Count returns the number of records skipped so far.
func (l *SkipLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Record appends one skip entry. Logging failures are swallowed: a skip log
// problem must not stop the walk.
func (l *SkipLog) Record(fullName string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++

	if l.f == nil {
		f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		l.f = f
	}

	fmt.Fprintf(l.f, "%s run=%s %s: %v\n",
		time.Now().UTC().Format(time.RFC3339), l.runID, fullName, cause)
}

// Close closes the sidecar file if one was opened.
func (l *SkipLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
