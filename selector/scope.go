package selector

import (
	"context"

	"github.com/google/uuid"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/lazy"
	"github.com/Docker-Hunterpedia/StatusDock/settings"
)

// Scope memoizes the adapter and globals for the lifetime of one request
type Scope struct {
	ID string

	selector *Selector
	adapter  *lazy.Value[core.Adapter]
	settings *settings.Loader
}

// NewScope creates a request scope bound to sel
func NewScope(sel *Selector) *Scope {
	scope := &Scope{
		ID:       uuid.NewString(),
		selector: sel,
	}
	scope.adapter = lazy.New(sel.processAdapter)
	scope.settings = settings.NewLoader(scope.Adapter)
	return scope
}

// Adapter returns the scope's adapter, resolving it once
func (s *Scope) Adapter(ctx context.Context) (core.Adapter, error) {
	return s.adapter.Get(ctx)
}

// Settings returns the scope's globals loader
func (s *Scope) Settings() *settings.Loader {
	return s.settings
}

// Context key for storing the request scope
type contextKey string

const scopeKey contextKey = "cmsScope"

// WithScope adds a scope to the context
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFromContext retrieves the scope from the context
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(*Scope)
	return scope, ok
}
