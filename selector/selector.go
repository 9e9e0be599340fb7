// Package selector chooses the CMS backend from configuration and memoizes
// the adapter per process and per request scope.
package selector

import (
	"context"
	"io"
	"strings"

	"github.com/Docker-Hunterpedia/StatusDock/config"
	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/lazy"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
	"github.com/Docker-Hunterpedia/StatusDock/settings"
)

// SelectProvider maps a configured value to a provider. Unknown values are
// logged and replaced by core.DefaultProvider; an empty value is the default.
func SelectProvider(value string, log *logger.Logger) core.Provider {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return core.DefaultProvider
	}
	if p := core.Provider(normalized); p.IsValid() {
		return p
	}

	err := &core.ConfigurationError{
		Key:   config.EnvName("provider"),
		Value: value,
		Msg:   "expected embedded or remote",
	}
	logger.OrNop(log).Warn("unrecognised CMS provider, using default").
		Err(err).
		Str("default", string(core.DefaultProvider)).
		Send()
	return core.DefaultProvider
}

// Factory constructs the adapter for a provider
type Factory func(ctx context.Context, provider core.Provider) (core.Adapter, error)

// Selector hands out the adapter for the configured provider
type Selector struct {
	provider core.Provider
	factory  Factory
	adapter  *lazy.Value[core.Adapter]
	settings *settings.Loader
	log      *logger.Logger
}

// New creates a Selector for provider. The adapter is built on first use.
func New(provider core.Provider, factory Factory, log *logger.Logger) *Selector {
	s := &Selector{
		provider: provider,
		factory:  factory,
		log:      logger.OrNop(log).Component("selector"),
	}
	s.adapter = lazy.New(func(ctx context.Context) (core.Adapter, error) {
		s.log.Info("creating CMS adapter").Str("provider", string(s.provider)).Send()
		return s.factory(ctx, s.provider)
	})
	s.settings = settings.NewLoader(s.processAdapter)
	return s
}

// FromConfig creates a Selector using the provider named in cfg
func FromConfig(cfg *config.Config, factory Factory, log *logger.Logger) *Selector {
	return New(SelectProvider(cfg.Provider, log), factory, log)
}

// Provider returns the selected provider
func (s *Selector) Provider() core.Provider {
	return s.provider
}

// Adapter returns the adapter for ctx: the request scope's adapter when ctx
// carries a Scope of this Selector, the process-wide adapter otherwise.
func (s *Selector) Adapter(ctx context.Context) (core.Adapter, error) {
	if scope, ok := ScopeFromContext(ctx); ok && scope.selector == s {
		return scope.Adapter(ctx)
	}
	return s.processAdapter(ctx)
}

// Settings returns the globals loader for ctx, scoped like Adapter
func (s *Selector) Settings(ctx context.Context) *settings.Loader {
	if scope, ok := ScopeFromContext(ctx); ok && scope.selector == s {
		return scope.Settings()
	}
	return s.settings
}

// Reset drops the process-wide adapter and settings so the next call rebuilds them.
// Scopes already holding an adapter keep it.
func (s *Selector) Reset() {
	s.adapter.Reset()
	s.settings.Reset()
}

// Close resets the Selector and closes the process-wide adapter if one was built
func (s *Selector) Close() error {
	adapter, ok := s.adapter.Peek()
	if !ok {
		return nil
	}
	s.Reset()

	for {
		if closer, ok := adapter.(io.Closer); ok {
			return closer.Close()
		}
		wrapper, ok := adapter.(interface{ Unwrap() core.Adapter })
		if !ok {
			return nil
		}
		adapter = wrapper.Unwrap()
	}
}

func (s *Selector) processAdapter(ctx context.Context) (core.Adapter, error) {
	return s.adapter.Get(ctx)
}
