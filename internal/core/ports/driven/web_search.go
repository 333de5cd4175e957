package driven

import "context"

// WebSearcher runs a web search and returns a free-text summary.
// A summary such as "unable to search" is valid output, not an error.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}
