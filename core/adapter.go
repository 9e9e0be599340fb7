package core

import "context"

// Provider identifies a CMS backend
type Provider string

const (
	ProviderEmbedded Provider = "embedded"
	ProviderRemote   Provider = "remote"
)

// Providers lists the recognised backends
var Providers = []Provider{ProviderEmbedded, ProviderRemote}

// DefaultProvider is used when configuration names no valid backend
const DefaultProvider = ProviderEmbedded

// String returns the provider name
func (p Provider) String() string {
	return string(p)
}

// IsValid reports whether p names a known backend
func (p Provider) IsValid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// Adapter is the provider-neutral CMS contract
type Adapter interface {
	Provider() Provider

	// Collection operations
	Find(ctx context.Context, collection string, query *Query) (*PaginatedResult, error)
	FindByID(ctx context.Context, collection string, id any, depth int) (Document, error)
	// FindOne returns the first match of where, or nil with no error when nothing matches
	FindOne(ctx context.Context, collection string, where Where, depth int) (Document, error)
	Create(ctx context.Context, collection string, data Document) (Document, error)
	Update(ctx context.Context, collection string, id any, data Document) (Document, error)
	Delete(ctx context.Context, collection string, id any) error

	// Global operations
	FindGlobal(ctx context.Context, slug string, depth int) (Document, error)
	UpdateGlobal(ctx context.Context, slug string, data Document) (Document, error)

	// Background jobs
	QueueJob(ctx context.Context, task string, input map[string]any) error
}

// Counter is implemented by adapters that can count documents without fetching them
type Counter interface {
	Count(ctx context.Context, collection string, query *Query) (*CountResult, error)
}

// Count counts documents through a if it implements Counter
func Count(ctx context.Context, a Adapter, collection string, query *Query) (*CountResult, error) {
	counter, ok := a.(Counter)
	if !ok {
		return nil, &UnsupportedOperationError{Provider: a.Provider(), Op: "count"}
	}
	return counter.Count(ctx, collection, query)
}
