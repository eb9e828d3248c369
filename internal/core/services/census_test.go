package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/repocensus/internal/adapters/driven/sink/csvfile"
	"github.com/custodia-labs/repocensus/internal/core/domain"
	"github.com/custodia-labs/repocensus/internal/core/ports/driven"
)

// fakeEnumerator serves a fixed feed, optionally hitting the quota once
// after a number of emits.
type fakeEnumerator struct {
	feed       []domain.RepoRecord
	quotaAfter int // 0 = never
	quotaUsed  bool
	resetAt    time.Time
	probeErr   error
	probed     []int64
}

func (f *fakeEnumerator) Enumerate(
	ctx context.Context, since int64, emit driven.EmitFunc,
) (driven.Result, error) {
	res := driven.Result{Outcome: driven.OutcomeExhausted, LastID: since}
	for _, rec := range f.feed {
		if rec.ID <= since {
			continue
		}
		select {
		case <-ctx.Done():
			res.Outcome = driven.OutcomeCanceled
			return res, nil
		default:
		}
		if f.quotaAfter > 0 && !f.quotaUsed && res.Emitted == f.quotaAfter {
			f.quotaUsed = true
			res.Outcome = driven.OutcomeQuota
			res.ResetAt = f.resetAt
			return res, nil
		}
		if err := emit(rec); err != nil {
			return res, err
		}
		res.Emitted++
		res.LastID = rec.ID
	}
	return res, nil
}

func (f *fakeEnumerator) ProbeCursor(_ context.Context, id int64) error {
	f.probed = append(f.probed, id)
	return f.probeErr
}

func feedOf(ids ...int64) []domain.RepoRecord {
	recs := make([]domain.RepoRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, domain.RepoRecord{
			ID:       id,
			Name:     fmt.Sprintf("repo-%d", id),
			FullName: fmt.Sprintf("owner/repo-%d", id),
			Owner:    "owner",
		})
	}
	return recs
}

func openSink(t *testing.T, path string) *csvfile.Sink {
	t.Helper()
	sink, err := csvfile.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestCensus_Run(t *testing.T) {
	t.Run("drains the feed into the sink", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)
		enum := &fakeEnumerator{feed: feedOf(1, 2, 3, 4, 5)}

		census := NewCensus(enum, sink, nil, CensusOptions{})
		res, err := census.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, driven.OutcomeExhausted, res.Outcome)
		assert.Equal(t, 5, census.Appended())
		assert.Equal(t, int64(5), sink.Cursor())
		assert.Equal(t, 5, sink.Rows())
	})

	t.Run("quota stop leaves flushed rows and resumes cleanly", func(t *testing.T) {
		// The end-to-end restart scenario: the first run dies after 3 of 5
		// records; the rerun must leave exactly records 1..5, once each.
		path := filepath.Join(t.TempDir(), "repos.csv")

		first := openSink(t, path)
		enum := &fakeEnumerator{feed: feedOf(1, 2, 3, 4, 5), quotaAfter: 3}
		res, err := NewCensus(enum, first, nil, CensusOptions{}).Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, driven.OutcomeQuota, res.Outcome)
		require.NoError(t, first.Close())

		second := openSink(t, path)
		assert.Equal(t, int64(3), second.Cursor())

		rerun := &fakeEnumerator{feed: feedOf(1, 2, 3, 4, 5)}
		res, err = NewCensus(rerun, second, nil, CensusOptions{}).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, driven.OutcomeExhausted, res.Outcome)

		info, err := csvfile.Inspect(path)
		require.NoError(t, err)
		assert.Equal(t, 5, info.Rows)
		assert.Equal(t, int64(5), info.LastID)
	})

	t.Run("resume probes the cursor once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		seed := openSink(t, path)
		require.NoError(t, seed.Append(feedOf(7)[0]))
		require.NoError(t, seed.Close())

		sink := openSink(t, path)
		enum := &fakeEnumerator{feed: feedOf(7, 8)}
		_, err := NewCensus(enum, sink, nil, CensusOptions{}).Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []int64{7}, enum.probed)
	})

	t.Run("deleted cursor does not stop the walk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		seed := openSink(t, path)
		require.NoError(t, seed.Append(feedOf(7)[0]))
		require.NoError(t, seed.Close())

		sink := openSink(t, path)
		enum := &fakeEnumerator{
			feed:     feedOf(7, 8, 9),
			probeErr: fmt.Errorf("%w: id 7", domain.ErrCursorGone),
		}
		res, err := NewCensus(enum, sink, nil, CensusOptions{}).Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, driven.OutcomeExhausted, res.Outcome)
		assert.Equal(t, int64(9), sink.Cursor())
	})

	t.Run("fresh sink does not probe", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)
		enum := &fakeEnumerator{feed: feedOf(1)}

		_, err := NewCensus(enum, sink, nil, CensusOptions{}).Run(context.Background())

		require.NoError(t, err)
		assert.Empty(t, enum.probed)
	})

	t.Run("wait-for-reset resumes after the quota window", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)
		enum := &fakeEnumerator{
			feed:       feedOf(1, 2, 3, 4, 5),
			quotaAfter: 3,
			resetAt:    time.Now().Add(-time.Minute), // already reset
		}

		census := NewCensus(enum, sink, nil, CensusOptions{
			WaitForReset: true,
			ResetGrace:   time.Millisecond,
		})
		res, err := census.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, driven.OutcomeExhausted, res.Outcome)
		assert.Equal(t, 5, sink.Rows())
	})

	t.Run("canceled context ends a wait-for-reset run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)
		enum := &fakeEnumerator{
			feed:       feedOf(1, 2, 3),
			quotaAfter: 1,
			resetAt:    time.Now().Add(time.Hour), // reset far away; the wait must be interrupted
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		census := NewCensus(enum, sink, nil, CensusOptions{WaitForReset: true})
		res, err := census.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, driven.OutcomeCanceled, res.Outcome)
		assert.Equal(t, 1, sink.Rows())
	})

	t.Run("sink failure is fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)
		require.NoError(t, sink.Close()) // closed sink rejects appends

		enum := &fakeEnumerator{feed: feedOf(1)}
		_, err := NewCensus(enum, sink, nil, CensusOptions{}).Run(context.Background())

		assert.Error(t, err)
	})

	t.Run("progress callback sees each appended row", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)
		enum := &fakeEnumerator{feed: feedOf(1, 2)}

		var rows []int
		census := NewCensus(enum, sink, nil, CensusOptions{
			Progress: func(r int, _ int64) { rows = append(rows, r) },
		})
		_, err := census.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, rows)
	})
}

func TestCensus_Filter(t *testing.T) {
	t.Run("skip-forks drops forked repositories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)

		feed := feedOf(1, 2, 3)
		feed[1].Fork = true
		enum := &fakeEnumerator{feed: feed}

		census := NewCensus(enum, sink, nil, CensusOptions{
			Filter: Filter{SkipForks: true},
		})
		_, err := census.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, census.Appended())
		assert.Equal(t, 1, census.Filtered())
		assert.Equal(t, int64(3), sink.Cursor())
	})

	t.Run("language filter keeps only matches", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repos.csv")
		sink := openSink(t, path)

		feed := feedOf(1, 2)
		feed[0].Language = "C"
		feed[1].Language = "Go"
		enum := &fakeEnumerator{feed: feed}

		census := NewCensus(enum, sink, nil, CensusOptions{
			Filter: Filter{Language: "C"},
		})
		_, err := census.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, census.Appended())
		assert.Equal(t, int64(1), sink.Cursor())
	})
}

func TestFilter(t *testing.T) {
	t.Run("zero filter keeps everything", func(t *testing.T) {
		f := Filter{}

		assert.True(t, f.Keep(domain.RepoRecord{Fork: true}))
		assert.False(t, f.Active())
	})

	t.Run("language match is exact", func(t *testing.T) {
		f := Filter{Language: "C"}

		assert.True(t, f.Keep(domain.RepoRecord{Language: "C"}))
		assert.False(t, f.Keep(domain.RepoRecord{Language: "C++"}))
		assert.False(t, f.Keep(domain.RepoRecord{}))
		assert.True(t, f.Active())
	})
}
