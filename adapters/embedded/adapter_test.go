package embedded

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Docker-Hunterpedia/StatusDock/core"
)

// fakeRuntime records the arguments it was called with
type fakeRuntime struct {
	mu       sync.Mutex
	finds    []FindArgs
	docs     []core.Document
	deleted  map[string]bool
	jobs     []QueueJobArgs
	failWith error
	closed   int
}

func (f *fakeRuntime) Close() error {
	f.closed++
	return nil
}

func newFakeRuntime(docs ...core.Document) *fakeRuntime {
	return &fakeRuntime{docs: docs, deleted: map[string]bool{}}
}

func (f *fakeRuntime) Find(ctx context.Context, args FindArgs) (*core.PaginatedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds = append(f.finds, args)
	if f.failWith != nil {
		return nil, f.failWith
	}
	var matched []core.Document
	for _, d := range f.docs {
		if match(d, args.Where) {
			matched = append(matched, d)
		}
	}
	total := len(matched)
	start := (args.Page - 1) * args.Limit
	if start > total {
		start = total
	}
	end := start + args.Limit
	if end > total {
		end = total
	}
	return core.NewPaginatedResult(matched[start:end], total, args.Limit, args.Page,
		core.TotalPagesFor(total, args.Limit)), nil
}

func match(d core.Document, where core.Where) bool {
	for _, c := range where.Conditions() {
		if d[c.Field] != c.Value {
			return false
		}
	}
	return true
}

func (f *fakeRuntime) Count(ctx context.Context, args FindArgs) (int, error) {
	res, err := f.Find(ctx, FindArgs{Collection: args.Collection, Where: args.Where, Limit: 1000, Page: 1})
	if err != nil {
		return 0, err
	}
	return res.TotalDocs, nil
}

func (f *fakeRuntime) FindByID(ctx context.Context, args FindByIDArgs) (core.Document, error) {
	for _, d := range f.docs {
		if d.IDString() == core.FormatID(args.ID) {
			return d, nil
		}
	}
	return nil, &core.NotFoundError{Collection: args.Collection, ID: args.ID}
}

func (f *fakeRuntime) Create(ctx context.Context, args CreateArgs) (core.Document, error) {
	doc := args.Data.Clone()
	doc["id"] = len(f.docs) + 1
	f.docs = append(f.docs, doc)
	return doc, nil
}

func (f *fakeRuntime) Update(ctx context.Context, args UpdateArgs) (core.Document, error) {
	return nil, errors.New("database is locked")
}

func (f *fakeRuntime) Delete(ctx context.Context, args DeleteArgs) error {
	key := core.FormatID(args.ID)
	if f.deleted[key] {
		return &core.NotFoundError{Collection: args.Collection, ID: args.ID}
	}
	f.deleted[key] = true
	return nil
}

func (f *fakeRuntime) FindGlobal(ctx context.Context, args FindGlobalArgs) (core.Document, error) {
	return core.Document{"id": args.Slug, "depth": args.Depth}, nil
}

func (f *fakeRuntime) UpdateGlobal(ctx context.Context, args UpdateGlobalArgs) (core.Document, error) {
	return args.Data, nil
}

func (f *fakeRuntime) QueueJob(ctx context.Context, args QueueJobArgs) error {
	f.jobs = append(f.jobs, args)
	return nil
}

func opener(rt Runtime) Opener {
	return func(ctx context.Context) (Runtime, error) { return rt, nil }
}

func TestFindAppliesDefaults(t *testing.T) {
	rt := newFakeRuntime()
	a := New(opener(rt), nil)

	_, err := a.Find(context.Background(), core.CollectionServices, nil)
	require.NoError(t, err)

	require.Len(t, rt.finds, 1)
	assert.Equal(t, FindArgs{
		Collection: core.CollectionServices,
		Where:      core.Where{},
		Limit:      core.DefaultLimit,
		Page:       core.DefaultPage,
		Depth:      core.DefaultDepth,
	}, rt.finds[0])
}

func TestFindPassesQueryThrough(t *testing.T) {
	rt := newFakeRuntime()
	a := New(opener(rt), nil)

	q := core.NewQuery().
		WithWhere(core.Where{"status": "major"}).
		WithSort("-createdAt").
		WithLimit(5).
		WithPage(2).
		WithDepth(0)
	_, err := a.Find(context.Background(), core.CollectionIncidents, q)
	require.NoError(t, err)

	assert.Equal(t, FindArgs{
		Collection: core.CollectionIncidents,
		Where:      core.Where{"status": "major"},
		Sort:       "-createdAt",
		Limit:      5,
		Page:       2,
		Depth:      0,
	}, rt.finds[0])
}

func TestFindOneEqualsFindWithLimitOne(t *testing.T) {
	rt := newFakeRuntime(
		core.Document{"id": 1, "slug": "api"},
		core.Document{"id": 2, "slug": "web"},
		core.Document{"id": 3, "slug": "api"},
	)
	a := New(opener(rt), nil)
	ctx := context.Background()
	where := core.Where{"slug": "api"}

	one, err := a.FindOne(ctx, core.CollectionServices, where, 1)
	require.NoError(t, err)
	page, err := a.Find(ctx, core.CollectionServices, core.NewQuery().WithWhere(where).WithLimit(1))
	require.NoError(t, err)

	assert.Equal(t, page.First(), one)
	assert.Equal(t, rt.finds[0], rt.finds[1])

	none, err := a.FindOne(ctx, core.CollectionServices, core.Where{"slug": "nope"}, 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOpenIsLazyAndShared(t *testing.T) {
	var opens int32
	rt := newFakeRuntime()
	a := New(func(ctx context.Context) (Runtime, error) {
		atomic.AddInt32(&opens, 1)
		time.Sleep(10 * time.Millisecond)
		return rt, nil
	}, nil)

	assert.Equal(t, int32(0), atomic.LoadInt32(&opens))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.FindGlobal(context.Background(), core.GlobalSettings, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&opens))
}

func TestOpenFailureSurfacesAndRetries(t *testing.T) {
	calls := 0
	rt := newFakeRuntime()
	a := New(func(ctx context.Context) (Runtime, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("missing secret")
		}
		return rt, nil
	}, nil)

	_, err := a.FindGlobal(context.Background(), core.GlobalSettings, 1)
	var backendErr *core.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, core.ProviderEmbedded, backendErr.Provider)
	assert.Contains(t, backendErr.Message, "missing secret")

	_, err = a.FindGlobal(context.Background(), core.GlobalSettings, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCloseReleasesOpenedRuntime(t *testing.T) {
	opens := 0
	rt := newFakeRuntime()
	a := New(func(ctx context.Context) (Runtime, error) {
		opens++
		return rt, nil
	}, nil)

	require.NoError(t, a.Close())
	assert.Equal(t, 0, rt.closed)

	_, err := a.FindGlobal(context.Background(), core.GlobalSettings, 1)
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.Equal(t, 1, rt.closed)

	_, err = a.FindGlobal(context.Background(), core.GlobalSettings, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, opens)
}

func TestErrorsAreTyped(t *testing.T) {
	rt := newFakeRuntime(core.Document{"id": 1})
	a := New(opener(rt), nil)
	ctx := context.Background()

	_, err := a.FindByID(ctx, core.CollectionServices, 42, 1)
	var notFound *core.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = a.Update(ctx, core.CollectionServices, 1, core.Document{"name": "x"})
	var backendErr *core.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "database is locked", backendErr.Message)
	assert.Equal(t, "update", backendErr.Op)
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	a := New(opener(newFakeRuntime()), nil)
	ctx := context.Background()

	require.NoError(t, a.Delete(ctx, core.CollectionSubscribers, 5))
	err := a.Delete(ctx, core.CollectionSubscribers, 5)
	assert.True(t, core.IsNotFound(err))
}

func TestQueueJobAndCount(t *testing.T) {
	rt := newFakeRuntime(core.Document{"id": 1, "status": "sent"}, core.Document{"id": 2, "status": "draft"})
	a := New(opener(rt), nil)
	ctx := context.Background()

	require.NoError(t, a.QueueJob(ctx, "send-notification", nil))
	require.Len(t, rt.jobs, 1)
	assert.Equal(t, map[string]any{}, rt.jobs[0].Input)

	count, err := core.Count(ctx, a, core.CollectionNotifications,
		core.NewQuery().WithWhere(core.Where{"status": "sent"}))
	require.NoError(t, err)
	assert.Equal(t, 1, count.TotalDocs)
}
