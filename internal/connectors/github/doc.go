// Package github implements the repository feed enumerator against the
// GitHub REST API.
//
// The enumerator walks GET /repositories, the globally ordered feed of every
// public repository, ascending by numeric identifier. Pagination is
// cursor-based: each page request carries a "since" identifier and the next
// request uses the highest identifier of the page just received. Page size is
// chosen by the API, not by this package.
//
// # Authentication
//
// A personal access token is optional. Authenticated requests get 5,000
// requests per hour; anonymous requests get 60. Both modes are supported,
// matching the feed itself, which is public.
//
// # Rate limiting
//
// Two strategies are combined, mirroring the headers GitHub returns:
//
//  1. Proactive: authenticated clients throttle through a token bucket at
//     ~1.2 requests per second, staying under the hourly limit. Anonymous
//     clients skip the bucket; 60 requests need no pacing.
//
//  2. Reactive: X-RateLimit-Remaining and X-RateLimit-Reset are tracked from
//     every response. Quota exhaustion is not an error here: the enumerator
//     stops with a quota outcome carrying the reset time, and the caller
//     decides whether to wait or exit.
//
// # Record validation
//
// Every API repository is converted to a fixed-schema domain.RepoRecord at
// this boundary. Records missing required fields are reported through the
// skip hook and the walk continues; they do not abort the pass.
package github
