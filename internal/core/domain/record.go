package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
)

// RepoRecord is the flattened metadata for one hosted repository.
// The field set is fixed: every record serializes to the same columns in the
// same order, regardless of which fields the API response actually carried.
// Fields absent from the response serialize as empty cells.
type RepoRecord struct {
	ID            int64
	NodeID        string
	Name          string
	FullName      string
	Owner         string
	Private       bool
	Visibility    string
	Fork          bool
	Archived      bool
	Disabled      bool
	Description   string
	Language      string
	DefaultBranch string
	Homepage      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PushedAt      time.Time
	Size          int
	Stargazers    int
	Watchers      int
	Forks         int
	OpenIssues    int
	Subscribers   int
	NetworkCount  int
	Topics        []string
	HasIssues     bool
	HasWiki       bool
	HasPages      bool
	HasDownloads  bool
	HTMLURL       string
	CloneURL      string
	GitURL        string
	SSHURL        string
	URL           string
}

// Columns returns the CSV header in serialization order.
// The order is part of the output file format and must not change.
func Columns() []string {
	return []string{
		"id",
		"node_id",
		"name",
		"full_name",
		"owner",
		"private",
		"visibility",
		"fork",
		"archived",
		"disabled",
		"description",
		"language",
		"default_branch",
		"homepage",
		"created_at",
		"updated_at",
		"pushed_at",
		"size",
		"stargazers_count",
		"watchers_count",
		"forks_count",
		"open_issues_count",
		"subscribers_count",
		"network_count",
		"topics",
		"has_issues",
		"has_wiki",
		"has_pages",
		"has_downloads",
		"html_url",
		"clone_url",
		"git_url",
		"ssh_url",
		"url",
	}
}

// Row serializes the record into one CSV row matching Columns().
func (r RepoRecord) Row() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.NodeID,
		r.Name,
		r.FullName,
		r.Owner,
		strconv.FormatBool(r.Private),
		r.Visibility,
		strconv.FormatBool(r.Fork),
		strconv.FormatBool(r.Archived),
		strconv.FormatBool(r.Disabled),
		r.Description,
		r.Language,
		r.DefaultBranch,
		r.Homepage,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
		formatTime(r.PushedAt),
		strconv.Itoa(r.Size),
		strconv.Itoa(r.Stargazers),
		strconv.Itoa(r.Watchers),
		strconv.Itoa(r.Forks),
		strconv.Itoa(r.OpenIssues),
		strconv.Itoa(r.Subscribers),
		strconv.Itoa(r.NetworkCount),
		strings.Join(r.Topics, ","),
		strconv.FormatBool(r.HasIssues),
		strconv.FormatBool(r.HasWiki),
		strconv.FormatBool(r.HasPages),
		strconv.FormatBool(r.HasDownloads),
		r.HTMLURL,
		r.CloneURL,
		r.GitURL,
		r.SSHURL,
		r.URL,
	}
}

// FromGitHub converts an API repository into a RepoRecord, validating the
// required fields at the deserialization boundary. A repository missing its
// ID, name, full name, or owner yields ErrMalformedRecord rather than a
// partially populated record.
func FromGitHub(repo *gh.Repository) (RepoRecord, error) {
	if repo == nil {
		return RepoRecord{}, fmt.Errorf("%w: nil repository", ErrMalformedRecord)
	}
	if repo.GetID() <= 0 {
		return RepoRecord{}, fmt.Errorf("%w: missing id (%s)", ErrMalformedRecord, repo.GetFullName())
	}
	if repo.GetName() == "" || repo.GetFullName() == "" {
		return RepoRecord{}, fmt.Errorf("%w: missing name (id %d)", ErrMalformedRecord, repo.GetID())
	}
	if repo.GetOwner().GetLogin() == "" {
		return RepoRecord{}, fmt.Errorf("%w: missing owner (%s)", ErrMalformedRecord, repo.GetFullName())
	}

	return RepoRecord{
		ID:            repo.GetID(),
		NodeID:        repo.GetNodeID(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Owner:         repo.GetOwner().GetLogin(),
		Private:       repo.GetPrivate(),
		Visibility:    repo.GetVisibility(),
		Fork:          repo.GetFork(),
		Archived:      repo.GetArchived(),
		Disabled:      repo.GetDisabled(),
		Description:   repo.GetDescription(),
		Language:      repo.GetLanguage(),
		DefaultBranch: repo.GetDefaultBranch(),
		Homepage:      repo.GetHomepage(),
		CreatedAt:     repo.GetCreatedAt().Time,
		UpdatedAt:     repo.GetUpdatedAt().Time,
		PushedAt:      repo.GetPushedAt().Time,
		Size:          repo.GetSize(),
		Stargazers:    repo.GetStargazersCount(),
		Watchers:      repo.GetWatchersCount(),
		Forks:         repo.GetForksCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Subscribers:   repo.GetSubscribersCount(),
		NetworkCount:  repo.GetNetworkCount(),
		Topics:        repo.Topics,
		HasIssues:     repo.GetHasIssues(),
		HasWiki:       repo.GetHasWiki(),
		HasPages:      repo.GetHasPages(),
		HasDownloads:  repo.GetHasDownloads(),
		HTMLURL:       repo.GetHTMLURL(),
		CloneURL:      repo.GetCloneURL(),
		GitURL:        repo.GetGitURL(),
		SSHURL:        repo.GetSSHURL(),
		URL:           repo.GetURL(),
	}, nil
}

// formatTime renders a timestamp as RFC 3339, or an empty cell when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
