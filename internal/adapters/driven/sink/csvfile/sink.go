// Package csvfile implements the append-only resumable CSV sink.
//
// A sink owns one output file: a header row naming every RepoRecord column
// followed by one row per record, in fixed column order, appended in
// ascending identifier order. On open, an existing non-empty file is scanned
// to recover the resume cursor from its last row; an empty or missing file
// gets the header written first.
//
// Every append flushes through to the file, so whatever a crash interrupts,
// all previously appended rows survive and the next run resumes after them.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/custodia-labs/repocensus/internal/core/domain"
	"github.com/custodia-labs/repocensus/internal/core/ports/driven"
)

// Ensure Sink implements the port.
var _ driven.Sink = (*Sink)(nil)

// Sink is a resumable append-only CSV file.
type Sink struct {
	f      *os.File
	w      *csv.Writer
	cursor int64
	rows   int
}

// Info describes an existing output file.
type Info struct {
	// Rows is the number of data rows (the header is not counted).
	Rows int

	// LastID is the identifier of the last row, zero when there are no
	// data rows.
	LastID int64
}

// Open opens path for appending, creating it (with a header row) when it is
// missing or empty. A non-empty file must start with the expected header and
// end with a complete full-width row carrying a numeric identifier; anything
// else fails with domain.ErrMalformedResumeFile rather than resuming from
// garbage. A valid last row missing only its trailing newline gets one
// written before the first append.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat output file: %w", err)
	}

	s := &Sink{f: f, w: csv.NewWriter(f)}

	if stat.Size() == 0 {
		if err := s.w.Write(domain.Columns()); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
		return s, nil
	}

	info, err := scan(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.cursor = info.LastID
	s.rows = info.Rows

	// The scan consumed the file; position the handle at the end so writes
	// append.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek output file: %w", err)
	}

	// A complete last row missing its newline would fuse with the first
	// appended row; terminate it now.
	tail := make([]byte, 1)
	if _, err := f.ReadAt(tail, stat.Size()-1); err != nil {
		f.Close()
		return nil, fmt.Errorf("read output file tail: %w", err)
	}
	if tail[0] != '\n' {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			f.Close()
			return nil, fmt.Errorf("terminate last row: %w", err)
		}
	}

	return s, nil
}

// Inspect reads an existing output file without modifying it.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("stat output file: %w", err)
	}
	if stat.Size() == 0 {
		return Info{}, fmt.Errorf("%w: file is empty", domain.ErrMalformedResumeFile)
	}

	return scan(f)
}

// Cursor implements driven.Sink.
func (s *Sink) Cursor() int64 {
	return s.cursor
}

// Rows implements driven.Sink.
func (s *Sink) Rows() int {
	return s.rows
}

// Append implements driven.Sink. The row is flushed before Append returns;
// a crash afterwards leaves it durable and readable as the resume point.
func (s *Sink) Append(rec domain.RepoRecord) error {
	if err := s.w.Write(rec.Row()); err != nil {
		return fmt.Errorf("write row %d: %w", rec.ID, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush row %d: %w", rec.ID, err)
	}
	s.cursor = rec.ID
	s.rows++
	return nil
}

// Close implements driven.Sink.
func (s *Sink) Close() error {
	s.w.Flush()
	werr := s.w.Error()
	if err := s.f.Sync(); err != nil && werr == nil {
		werr = err
	}
	if err := s.f.Close(); err != nil && werr == nil {
		werr = err
	}
	return werr
}

// scan validates the header and walks every row, returning the row count and
// the last row's identifier.
func scan(r io.Reader) (Info, error) {
	cr := csv.NewReader(r)
	// Every row, header included, must carry the full column count. A short
	// last row means a write was cut off mid-record; resuming past it would
	// silently drop the rest of that record.
	cr.FieldsPerRecord = len(domain.Columns())

	header, err := cr.Read()
	if err != nil {
		return Info{}, fmt.Errorf("%w: unreadable header: %v", domain.ErrMalformedResumeFile, err)
	}
	if !headerMatches(header) {
		return Info{}, fmt.Errorf("%w: header does not match schema", domain.ErrMalformedResumeFile)
	}

	info := Info{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return info, nil
		}
		if err != nil {
			return Info{}, fmt.Errorf("%w: row %d: %v", domain.ErrMalformedResumeFile, info.Rows+1, err)
		}
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil || id <= 0 {
			return Info{}, fmt.Errorf(
				"%w: row %d has no usable id (%q)", domain.ErrMalformedResumeFile, info.Rows+1, row[0])
		}
		info.Rows++
		info.LastID = id
	}
}

func headerMatches(header []string) bool {
	want := domain.Columns()
	if len(header) != len(want) {
		return false
	}
	for i := range want {
		if header[i] != want[i] {
			return false
		}
	}
	return true
}
