// Package remote implements core.Adapter against a REST CMS that wraps
// documents in {data: {id, attributes}} envelopes with meta.pagination.
package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

// DefaultJobsPath is the endpoint jobs are queued on
const DefaultJobsPath = "/api/jobs/queue"

// Adapter implements core.Adapter over a Requester
type Adapter struct {
	client      Requester
	normalizer  *Normalizer
	log         *logger.Logger
	now         func() time.Time
	jobsEnabled bool
	jobsPath    string
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the adapter logger
func WithLogger(log *logger.Logger) Option {
	return func(a *Adapter) {
		a.log = logger.OrNop(log)
	}
}

// WithClock sets the clock used to default missing timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// WithJobs enables or disables job queueing and sets its endpoint
func WithJobs(enabled bool, path string) Option {
	return func(a *Adapter) {
		a.jobsEnabled = enabled
		if path != "" {
			a.jobsPath = path
		}
	}
}

// New creates a remote adapter
func New(client Requester, opts ...Option) *Adapter {
	a := &Adapter{
		client:      client,
		log:         logger.Nop(),
		now:         time.Now,
		jobsEnabled: true,
		jobsPath:    DefaultJobsPath,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.normalizer = NewNormalizer(a.log, a.now)
	return a
}

// Provider returns core.ProviderRemote
func (a *Adapter) Provider() core.Provider {
	return core.ProviderRemote
}

// Find retrieves a page of documents. Limit, page and depth defaults are
// applied before translation, so pagination and populate parameters are
// always sent even when the caller left them unset.
func (a *Adapter) Find(ctx context.Context, collection string, query *core.Query) (*core.PaginatedResult, error) {
	q := query.WithDefaults()
	body, err := a.client.Do(ctx, Request{
		Op:     "find",
		Method: http.MethodGet,
		Path:   collectionURL(collection),
		Query:  BuildQuery(q, a.log),
	})
	if err != nil {
		return nil, err
	}
	return a.normalizer.Collection(body)
}

// Count returns the number of documents matching query
func (a *Adapter) Count(ctx context.Context, collection string, query *core.Query) (*core.CountResult, error) {
	params := NewQueryBuilder(a.log).
		WithPagination(0, 1)
	if query != nil {
		params.WithWhere(query.Where)
	}
	body, err := a.client.Do(ctx, Request{
		Op:     "count",
		Method: http.MethodGet,
		Path:   collectionURL(collection),
		Query:  params.Values(),
	})
	if err != nil {
		return nil, err
	}
	total, err := a.normalizer.Total(body)
	if err != nil {
		return nil, err
	}
	return &core.CountResult{TotalDocs: total}, nil
}

// FindByID retrieves a single document
func (a *Adapter) FindByID(ctx context.Context, collection string, id any, depth int) (core.Document, error) {
	body, err := a.client.Do(ctx, Request{
		Op:     "findByID",
		Method: http.MethodGet,
		Path:   documentURL(collection, id),
		Query:  NewQueryBuilder(a.log).WithPopulate(depth).Values(),
	})
	if err != nil {
		return nil, err
	}
	return a.normalizer.Single(body, collection, id)
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
	body, err := a.client.Do(ctx, Request{
		Op:         "create",
		Method:     http.MethodPost,
		Path:       collectionURL(collection),
		Body:       map[string]any{"data": data},
		Credential: CredentialAdmin,
	})
	if err != nil {
		return nil, err
	}
	return a.normalizer.Single(body, collection, nil)
}

// Update applies a partial update to a document
func (a *Adapter) Update(ctx context.Context, collection string, id any, data core.Document) (core.Document, error) {
	body, err := a.client.Do(ctx, Request{
		Op:         "update",
		Method:     http.MethodPut,
		Path:       documentURL(collection, id),
		Body:       map[string]any{"data": data},
		Credential: CredentialAdmin,
	})
	if err != nil {
		return nil, err
	}
	return a.normalizer.Single(body, collection, id)
}

// Delete removes a document
func (a *Adapter) Delete(ctx context.Context, collection string, id any) error {
	_, err := a.client.Do(ctx, Request{
		Op:         "delete",
		Method:     http.MethodDelete,
		Path:       documentURL(collection, id),
		Credential: CredentialAdmin,
	})
	return err
}

// FindGlobal retrieves a single type
func (a *Adapter) FindGlobal(ctx context.Context, slug string, depth int) (core.Document, error) {
	body, err := a.client.Do(ctx, Request{
		Op:     "findGlobal",
		Method: http.MethodGet,
		Path:   "/api/" + GlobalPath(slug),
		Query:  NewQueryBuilder(a.log).WithPopulate(depth).Values(),
	})
	if err != nil {
		return nil, err
	}
	return a.normalizer.Single(body, slug, nil)
}

// UpdateGlobal updates a single type
func (a *Adapter) UpdateGlobal(ctx context.Context, slug string, data core.Document) (core.Document, error) {
	body, err := a.client.Do(ctx, Request{
		Op:         "updateGlobal",
		Method:     http.MethodPut,
		Path:       "/api/" + GlobalPath(slug),
		Body:       map[string]any{"data": data},
		Credential: CredentialAdmin,
	})
	if err != nil {
		return nil, err
	}
	return a.normalizer.Single(body, slug, nil)
}

// QueueJob posts a job to the jobs endpoint
func (a *Adapter) QueueJob(ctx context.Context, task string, input map[string]any) error {
	if !a.jobsEnabled {
		return &core.UnsupportedOperationError{Provider: core.ProviderRemote, Op: "queueJob"}
	}
	if input == nil {
		input = map[string]any{}
	}
	_, err := a.client.Do(ctx, Request{
		Op:         "queueJob",
		Method:     http.MethodPost,
		Path:       a.jobsPath,
		Body:       map[string]any{"task": task, "input": input},
		Credential: CredentialAdmin,
	})
	return err
}

func collectionURL(collection string) string {
	return "/api/" + CollectionPath(collection)
}

func documentURL(collection string, id any) string {
	return collectionURL(collection) + "/" + url.PathEscape(core.FormatID(id))
}
