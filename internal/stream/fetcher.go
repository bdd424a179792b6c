package stream

import (
	"context"

	"moviescroll/internal/domain"
)

// Fetcher issues a single request to the search provider.
// Implementations keep no state between calls, return a *domain.FetchError on
// failure and treat an empty page as a normal result.
type Fetcher interface {
	Fetch(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error)

func (f FetcherFunc) Fetch(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
	return f(ctx, req)
}
