package driven

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// Loader fetches the text content of URLs.
//
// Loading is skip-and-continue: a URL that cannot be fetched is reported in
// LoadResult.Failures and does not stop the others. The returned error is
// reserved for failures of the whole batch, such as a cancelled context.
type Loader interface {
	// Load fetches every URL in order.
	Load(ctx context.Context, urls []string) (LoadResult, error)
}

// LoadResult holds the outcome of a Load call.
type LoadResult struct {
	// Documents are the successfully loaded documents, in request order.
	Documents []domain.Document

	// Failures lists URLs that could not be loaded, in request order.
	Failures []domain.FetchError
}
