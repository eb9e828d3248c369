package domain

import (
	"testing"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRepo() *gh.Repository {
	created := time.Date(2014, 3, 1, 12, 0, 0, 0, time.UTC)
	return &gh.Repository{
		ID:              gh.Ptr(int64(1296269)),
		NodeID:          gh.Ptr("MDEwOlJlcG9zaXRvcnkxMjk2MjY5"),
		Name:            gh.Ptr("Hello-World"),
		FullName:        gh.Ptr("octocat/Hello-World"),
		Owner:           &gh.User{Login: gh.Ptr("octocat")},
		Private:         gh.Ptr(false),
		Visibility:      gh.Ptr("public"),
		Fork:            gh.Ptr(false),
		Description:     gh.Ptr("My first repository, with a comma"),
		Language:        gh.Ptr("C"),
		DefaultBranch:   gh.Ptr("master"),
		CreatedAt:       &gh.Timestamp{Time: created},
		StargazersCount: gh.Ptr(80),
		ForksCount:      gh.Ptr(9),
		Topics:          []string{"octocat", "api"},
		HasIssues:       gh.Ptr(true),
		HTMLURL:         gh.Ptr("https://github.com/octocat/Hello-World"),
		CloneURL:        gh.Ptr("https://github.com/octocat/Hello-World.git"),
		URL:             gh.Ptr("https://api.github.com/repos/octocat/Hello-World"),
	}
}

func TestFromGitHub(t *testing.T) {
	t.Run("converts a full repository", func(t *testing.T) {
		rec, err := FromGitHub(fullRepo())

		require.NoError(t, err)
		assert.Equal(t, int64(1296269), rec.ID)
		assert.Equal(t, "Hello-World", rec.Name)
		assert.Equal(t, "octocat/Hello-World", rec.FullName)
		assert.Equal(t, "octocat", rec.Owner)
		assert.Equal(t, "C", rec.Language)
		assert.Equal(t, 80, rec.Stargazers)
		assert.Equal(t, []string{"octocat", "api"}, rec.Topics)
	})

	t.Run("converts a minimal feed record", func(t *testing.T) {
		repo := &gh.Repository{
			ID:       gh.Ptr(int64(42)),
			Name:     gh.Ptr("dotfiles"),
			FullName: gh.Ptr("someone/dotfiles"),
			Owner:    &gh.User{Login: gh.Ptr("someone")},
		}

		rec, err := FromGitHub(repo)

		require.NoError(t, err)
		assert.Equal(t, int64(42), rec.ID)
		assert.Empty(t, rec.Language)
		assert.True(t, rec.CreatedAt.IsZero())
	})

	t.Run("rejects nil repository", func(t *testing.T) {
		_, err := FromGitHub(nil)

		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("rejects missing id", func(t *testing.T) {
		repo := fullRepo()
		repo.ID = nil

		_, err := FromGitHub(repo)

		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("rejects missing name", func(t *testing.T) {
		repo := fullRepo()
		repo.Name = nil

		_, err := FromGitHub(repo)

		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		repo := fullRepo()
		repo.Owner = nil

		_, err := FromGitHub(repo)

		assert.ErrorIs(t, err, ErrMalformedRecord)
	})
}

func TestRepoRecord_Row(t *testing.T) {
	t.Run("row matches column count and order", func(t *testing.T) {
		rec, err := FromGitHub(fullRepo())
		require.NoError(t, err)

		row := rec.Row()
		cols := Columns()

		require.Len(t, row, len(cols))
		assert.Equal(t, "id", cols[0])
		assert.Equal(t, "1296269", row[0])
		assert.Equal(t, "octocat/Hello-World", row[3])
	})

	t.Run("timestamps render as RFC 3339 or empty", func(t *testing.T) {
		rec, err := FromGitHub(fullRepo())
		require.NoError(t, err)

		row := rec.Row()
		idx := columnIndex(t, "created_at")

		assert.Equal(t, "2014-03-01T12:00:00Z", row[idx])
		assert.Empty(t, row[columnIndex(t, "updated_at")])
	})

	t.Run("topics join into one cell", func(t *testing.T) {
		rec, err := FromGitHub(fullRepo())
		require.NoError(t, err)

		row := rec.Row()

		assert.Equal(t, "octocat,api", row[columnIndex(t, "topics")])
	})

	t.Run("booleans render as true or false", func(t *testing.T) {
		rec, err := FromGitHub(fullRepo())
		require.NoError(t, err)

		row := rec.Row()

		assert.Equal(t, "false", row[columnIndex(t, "private")])
		assert.Equal(t, "true", row[columnIndex(t, "has_issues")])
	})
}

func columnIndex(t *testing.T, name string) int {
	t.Helper()
	for i, col := range Columns() {
		if col == name {
			return i
		}
	}
	t.Fatalf("no column %q", name)
	return -1
}
