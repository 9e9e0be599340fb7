// Package settings provides typed, memoized access to the CMS globals.
package settings

import (
	"context"
	"fmt"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/lazy"
)

// depth used when reading globals so media relations come back hydrated
const depth = 1

// AdapterFunc resolves the adapter to read globals through
type AdapterFunc func(ctx context.Context) (core.Adapter, error)

// Loader fetches each global at most once until Reset is called
type Loader struct {
	adapter AdapterFunc

	settings *lazy.Value[*core.Settings]
	email    *lazy.Value[*core.EmailSettings]
	sms      *lazy.Value[*core.SmsSettings]
}

// NewLoader creates a Loader reading through adapter
func NewLoader(adapter AdapterFunc) *Loader {
	l := &Loader{adapter: adapter}
	l.settings = lazy.New(func(ctx context.Context) (*core.Settings, error) {
		return load[core.Settings](ctx, l.adapter, core.GlobalSettings)
	})
	l.email = lazy.New(func(ctx context.Context) (*core.EmailSettings, error) {
		return load[core.EmailSettings](ctx, l.adapter, core.GlobalEmailSettings)
	})
	l.sms = lazy.New(func(ctx context.Context) (*core.SmsSettings, error) {
		return load[core.SmsSettings](ctx, l.adapter, core.GlobalSmsSettings)
	})
	return l
}

// ForAdapter creates a Loader bound to a fixed adapter
func ForAdapter(a core.Adapter) *Loader {
	return NewLoader(func(context.Context) (core.Adapter, error) { return a, nil })
}

// Settings returns the site settings global
func (l *Loader) Settings(ctx context.Context) (*core.Settings, error) {
	return l.settings.Get(ctx)
}

// EmailSettings returns the email settings global
func (l *Loader) EmailSettings(ctx context.Context) (*core.EmailSettings, error) {
	return l.email.Get(ctx)
}

// SmsSettings returns the SMS settings global
func (l *Loader) SmsSettings(ctx context.Context) (*core.SmsSettings, error) {
	return l.sms.Get(ctx)
}

// Reset drops every memoized global
func (l *Loader) Reset() {
	l.settings.Reset()
	l.email.Reset()
	l.sms.Reset()
}

func load[T any](ctx context.Context, resolve AdapterFunc, slug string) (*T, error) {
	a, err := resolve(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := a.FindGlobal(ctx, slug, depth)
	if err != nil {
		return nil, err
	}
	out, err := core.Decode[T](doc)
	if err != nil {
		return nil, fmt.Errorf("global %s: %w", slug, err)
	}
	return &out, nil
}
