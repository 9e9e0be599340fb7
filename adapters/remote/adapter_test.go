package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Docker-Hunterpedia/StatusDock/core"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   map[string]any
}

type fakeCMS struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r recordedRequest)
}

func (f *fakeCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.handler(w, rec)
}

func (f *fakeCMS) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setupTestAdapter(t *testing.T, handler func(w http.ResponseWriter, r recordedRequest), opts ...Option) (*Adapter, *fakeCMS) {
	t.Helper()
	cms := &fakeCMS{handler: handler}
	server := httptest.NewServer(cms)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		APIToken:   "public-token",
		AdminToken: "admin-token",
		Timeout:    time.Second,
	})
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(client, opts...), cms
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

const pageOfServices = `{
	"data": [{"id": 1, "attributes": {"name": "API", "slug": "api"}}],
	"meta": {"pagination": {"page": 1, "pageSize": 1, "pageCount": 4, "total": 4}}
}`

func TestFindAppliesDefaults(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, pageOfServices)
	})

	_, err := a.Find(context.Background(), core.CollectionServices, nil)
	require.NoError(t, err)

	req := cms.last()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/services", req.Path)
	assert.Equal(t, "10", req.Query.Get("pagination[pageSize]"))
	assert.Equal(t, "1", req.Query.Get("pagination[page]"))
	assert.Equal(t, "*", req.Query.Get("populate"))
	assert.Equal(t, "Bearer public-token", req.Auth)
}

func TestFindMediaUsesUploadPath(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `[{"id": 1, "url": "/uploads/logo.png"}]`)
	})

	result, err := a.Find(context.Background(), core.CollectionMedia, nil)
	require.NoError(t, err)

	assert.Equal(t, "/api/upload/files", cms.last().Path)
	assert.Equal(t, "/uploads/logo.png", result.Docs[0]["url"])
}

func TestFindOneEqualsFindWithLimitOne(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, pageOfServices)
	})
	ctx := context.Background()
	where := core.Where{"slug": "api"}

	one, err := a.FindOne(ctx, core.CollectionServices, where, 1)
	require.NoError(t, err)
	findOneReq := cms.last()

	page, err := a.Find(ctx, core.CollectionServices, core.NewQuery().WithWhere(where).WithLimit(1))
	require.NoError(t, err)
	findReq := cms.last()

	assert.Equal(t, page.First(), one)
	assert.Equal(t, findReq.Query.Encode(), findOneReq.Query.Encode())
	assert.Equal(t, "1", findOneReq.Query.Get("pagination[pageSize]"))
	assert.Equal(t, "api", findOneReq.Query.Get("filters[slug][$eq]"))
}

func TestFindOneReturnsNilWhenEmpty(t *testing.T) {
	a, _ := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"data": [], "meta": {"pagination": {"page": 1, "pageSize": 1, "pageCount": 0, "total": 0}}}`)
	})

	doc, err := a.FindOne(context.Background(), core.CollectionServices, core.Where{"slug": "nope"}, 0)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestFindByID(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"data": {"id": 7, "attributes": {"name": "x"}}}`)
	})

	doc, err := a.FindByID(context.Background(), core.CollectionServices, 7, 0)
	require.NoError(t, err)

	assert.Equal(t, "/api/services/7", cms.last().Path)
	assert.NotContains(t, cms.last().Query, "populate")
	assert.Equal(t, int64(7), doc.ID())
	assert.Equal(t, "x", doc["name"])
	assert.Equal(t, "2024-03-01T12:30:45.123Z", doc.CreatedAt())
}

func TestWritesUseAdminToken(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"data": {"id": 2, "attributes": {"title": "Outage"}}}`)
	})
	ctx := context.Background()

	created, err := a.Create(ctx, core.CollectionIncidents, core.Document{"title": "Outage"})
	require.NoError(t, err)
	req := cms.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/incidents", req.Path)
	assert.Equal(t, "Bearer admin-token", req.Auth)
	assert.Equal(t, map[string]any{"title": "Outage"}, req.Body["data"])
	assert.Equal(t, "Outage", created["title"])

	_, err = a.Update(ctx, core.CollectionIncidents, 2, core.Document{"status": "resolved"})
	require.NoError(t, err)
	req = cms.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/incidents/2", req.Path)
	assert.Equal(t, "Bearer admin-token", req.Auth)

	_, err = a.UpdateGlobal(ctx, core.GlobalSettings, core.Document{"siteName": "Status"})
	require.NoError(t, err)
	req = cms.last()
	assert.Equal(t, "/api/setting", req.Path)
	assert.Equal(t, "Bearer admin-token", req.Auth)
}

func TestWritesFallBackToAPIToken(t *testing.T) {
	cms := &fakeCMS{handler: func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"data": {"id": 1, "attributes": {}}}`)
	}}
	server := httptest.NewServer(cms)
	defer server.Close()

	a := New(NewClient(ClientConfig{BaseURL: server.URL, APIToken: "public-token"}))
	_, err := a.Create(context.Background(), core.CollectionUsers, core.Document{"email": "a@b.c"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer public-token", cms.last().Auth)
}

func TestDeleteMissingDocumentFails(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusNotFound, `{"data": null, "error": {"status": 404, "name": "NotFoundError", "message": "Not Found"}}`)
	})

	err := a.Delete(context.Background(), core.CollectionSubscribers, 99)
	require.Error(t, err)

	var backendErr *core.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusNotFound, backendErr.StatusCode)
	assert.Equal(t, "Not Found", backendErr.Message)
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, http.MethodDelete, cms.last().Method)
	assert.Equal(t, "/api/subscribers/99", cms.last().Path)
}

func TestBackendErrorPreservesMessage(t *testing.T) {
	a, _ := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusBadRequest, `{"error": {"message": "Invalid key status"}}`)
	})

	_, err := a.Find(context.Background(), core.CollectionServices, nil)

	var backendErr *core.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "Invalid key status", backendErr.Message)
	assert.Equal(t, "find", backendErr.Op)
	assert.False(t, core.IsNotFound(err))
}

func TestMalformedSuccessBodyIsBackendError(t *testing.T) {
	a, _ := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"items": []}`)
	})

	_, err := a.Find(context.Background(), core.CollectionServices, nil)

	var backendErr *core.BackendError
	assert.ErrorAs(t, err, &backendErr)
}

func TestCount(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, pageOfServices)
	})

	result, err := core.Count(context.Background(), a, core.CollectionServices,
		core.NewQuery().WithWhere(core.Where{"status": "major"}))
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalDocs)
	req := cms.last()
	assert.Equal(t, "1", req.Query.Get("pagination[pageSize]"))
	assert.Equal(t, "major", req.Query.Get("filters[status][$eq]"))
}

func TestFindGlobal(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"data": {"id": 1, "attributes": {"siteName": "Acme Status"}}}`)
	})

	doc, err := a.FindGlobal(context.Background(), core.GlobalEmailSettings, 1)
	require.NoError(t, err)

	assert.Equal(t, "/api/email-setting", cms.last().Path)
	assert.Equal(t, "*", cms.last().Query.Get("populate"))
	assert.Equal(t, "Acme Status", doc["siteName"])
}

func TestQueueJob(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"ok": true}`)
	})

	err := a.QueueJob(context.Background(), "send-notification", map[string]any{"notificationId": 3})
	require.NoError(t, err)

	req := cms.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/jobs/queue", req.Path)
	assert.Equal(t, "send-notification", req.Body["task"])
	assert.Equal(t, map[string]any{"notificationId": float64(3)}, req.Body["input"])
	assert.Equal(t, "Bearer admin-token", req.Auth)
}

func TestQueueJobDisabled(t *testing.T) {
	a, cms := setupTestAdapter(t, func(w http.ResponseWriter, r recordedRequest) {
		t.Fatal("no request expected")
	}, WithJobs(false, ""))

	err := a.QueueJob(context.Background(), "send-notification", nil)

	assert.True(t, core.IsUnsupported(err))
	assert.Empty(t, cms.requests)
}
