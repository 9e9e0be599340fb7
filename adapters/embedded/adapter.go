// Package embedded implements core.Adapter over an in-process CMS runtime
// that is opened lazily on first use.
package embedded

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/lazy"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

// Adapter implements core.Adapter by passing calls through to a Runtime
type Adapter struct {
	runtime *lazy.Value[Runtime]
	log     *logger.Logger
}

// New creates an embedded adapter. open is not called until the first operation.
func New(open Opener, log *logger.Logger) *Adapter {
	a := &Adapter{log: logger.OrNop(log)}
	a.runtime = lazy.New(func(ctx context.Context) (Runtime, error) {
		a.log.Info("opening embedded cms runtime").Send()
		rt, err := open(ctx)
		if err != nil {
			a.log.Error("failed to open embedded cms runtime").Err(err).Send()
			return nil, err
		}
		return rt, nil
	})
	return a
}

// Runtime returns the runtime handle, opening it if needed
func (a *Adapter) Runtime(ctx context.Context) (Runtime, error) {
	rt, err := a.runtime.Get(ctx)
	if err != nil {
		return nil, &core.BackendError{
			Provider: core.ProviderEmbedded,
			Op:       "open",
			Message:  err.Error(),
			Err:      err,
		}
	}
	return rt, nil
}

// Close releases the runtime if it has been opened. A later call opens it again.
func (a *Adapter) Close() error {
	rt, ok := a.runtime.Peek()
	if !ok {
		return nil
	}
	a.runtime.Reset()
	if closer, ok := rt.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Provider returns core.ProviderEmbedded
func (a *Adapter) Provider() core.Provider {
	return core.ProviderEmbedded
}

// Find retrieves a page of documents
func (a *Adapter) Find(ctx context.Context, collection string, query *core.Query) (*core.PaginatedResult, error) {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return nil, err
	}
	q := query.WithDefaults()
	result, err := rt.Find(ctx, FindArgs{
		Collection: collection,
		Where:      q.Where,
		Sort:       q.Sort,
		Limit:      q.Limit,
		Page:       q.Page,
		Depth:      *q.Depth,
	})
	if err != nil {
		return nil, wrap("find", err)
	}
	return result, nil
}

// Count returns the number of documents matching query
func (a *Adapter) Count(ctx context.Context, collection string, query *core.Query) (*core.CountResult, error) {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return nil, err
	}
	var where core.Where
	if query != nil {
		where = query.Where
	}
	total, err := rt.Count(ctx, FindArgs{Collection: collection, Where: where})
	if err != nil {
		return nil, wrap("count", err)
	}
	return &core.CountResult{TotalDocs: total}, nil
}

// FindByID retrieves a single document
func (a *Adapter) FindByID(ctx context.Context, collection string, id any, depth int) (core.Document, error) {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := rt.FindByID(ctx, FindByIDArgs{Collection: collection, ID: id, Depth: depth})
	if err != nil {
		return nil, wrap("findByID", err)
	}
	return doc, nil
}

// FindOne returns the first document matching where, or nil when none match
func (a *Adapter) FindOne(ctx context.Context, collection string, where core.Where, depth int) (core.Document, error) {
	result, err := a.Find(ctx, collection, core.NewQuery().
		WithWhere(where).
		WithLimit(1).
		WithPage(1).
		WithDepth(depth))
	if err != nil {
		return nil, err
	}
	return result.First(), nil
}

// Create creates a document
func (a *Adapter) Create(ctx context.Context, collection string, data core.Document) (core.Document, error) {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := rt.Create(ctx, CreateArgs{Collection: collection, Data: data})
	if err != nil {
		return nil, wrap("create", err)
	}
	return doc, nil
}

// Update applies a partial update to a document
func (a *Adapter) Update(ctx context.Context, collection string, id any, data core.Document) (core.Document, error) {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := rt.Update(ctx, UpdateArgs{Collection: collection, ID: id, Data: data})
	if err != nil {
		return nil, wrap("update", err)
	}
	return doc, nil
}

// Delete removes a document
func (a *Adapter) Delete(ctx context.Context, collection string, id any) error {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return err
	}
	if err := rt.Delete(ctx, DeleteArgs{Collection: collection, ID: id}); err != nil {
		return wrap("delete", err)
	}
	return nil
}

// FindGlobal retrieves a global
func (a *Adapter) FindGlobal(ctx context.Context, slug string, depth int) (core.Document, error) {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := rt.FindGlobal(ctx, FindGlobalArgs{Slug: slug, Depth: depth})
	if err != nil {
		return nil, wrap("findGlobal", err)
	}
	return doc, nil
}

// UpdateGlobal updates a global
func (a *Adapter) UpdateGlobal(ctx context.Context, slug string, data core.Document) (core.Document, error) {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := rt.UpdateGlobal(ctx, UpdateGlobalArgs{Slug: slug, Data: data})
	if err != nil {
		return nil, wrap("updateGlobal", err)
	}
	return doc, nil
}

// QueueJob hands a job to the runtime's queue
func (a *Adapter) QueueJob(ctx context.Context, task string, input map[string]any) error {
	rt, err := a.Runtime(ctx)
	if err != nil {
		return err
	}
	if input == nil {
		input = map[string]any{}
	}
	if err := rt.QueueJob(ctx, QueueJobArgs{Task: task, Input: input}); err != nil {
		return wrap("queueJob", err)
	}
	return nil
}

// wrap keeps typed errors intact and reports anything else as a BackendError
func wrap(op string, err error) error {
	var (
		notFound    *core.NotFoundError
		backend     *core.BackendError
		unsupported *core.UnsupportedOperationError
	)
	if errors.As(err, &notFound) || errors.As(err, &backend) || errors.As(err, &unsupported) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &core.BackendError{
		Provider: core.ProviderEmbedded,
		Op:       op,
		Message:  err.Error(),
		Err:      err,
	}
}
