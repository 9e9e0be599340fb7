package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/selector"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CMS_PROVIDER", "embedded")
	t.Setenv("CMS_EMBEDDED_DSN", "file:"+filepath.Join(t.TempDir(), "cms.db")+"?_foreign_keys=on")
	t.Setenv("CMS_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestProviderCommand(t *testing.T) {
	setupEnv(t)

	assert.Equal(t, "embedded", runJSON(t, "provider")["provider"])
	assert.Equal(t, "remote", runJSON(t, "provider", "--provider", " REMOTE ")["provider"])
	assert.Equal(t, "embedded", runJSON(t, "provider", "--provider", "wordpress")["provider"])
}

func TestDocumentCommands(t *testing.T) {
	setupEnv(t)

	group := runJSON(t, "create", "service-groups", "--data", `{"name":"Platform"}`)
	id := core.FormatID(group["id"])
	require.NotEmpty(t, id)
	assert.Equal(t, "Platform", group["name"])
	assert.NotEmpty(t, group["createdAt"])

	fetched := runJSON(t, "get", "service-groups", id)
	assert.Equal(t, "Platform", fetched["name"])

	updated := runJSON(t, "update", "service-groups", id, "--data", `{"description":"Customer facing"}`)
	assert.Equal(t, "Platform", updated["name"])
	assert.Equal(t, "Customer facing", updated["description"])

	runJSON(t, "create", "service-groups", "--data", `{"name":"Internal"}`)

	page := runJSON(t, "find", "service-groups", "--where", `{"name":{"like":"plat"}}`)
	assert.Equal(t, float64(1), page["totalDocs"])
	assert.Equal(t, float64(10), page["limit"])

	count := runJSON(t, "count", "service-groups")
	assert.Equal(t, float64(2), count["totalDocs"])

	deleted := runJSON(t, "delete", "service-groups", id)
	assert.Equal(t, true, deleted["deleted"])

	_, err := run(t, "get", "service-groups", id)
	assert.True(t, core.IsNotFound(err))

	_, err = run(t, "delete", "service-groups", id)
	assert.True(t, core.IsNotFound(err))
}

func TestInvalidJSONFlag(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "find", "services", "--where", `{"status":`)
	assert.ErrorContains(t, err, "--where must be a JSON object")

	_, err = run(t, "update", "services", "1")
	assert.ErrorContains(t, err, "--data is required")
}

func TestGlobalCommand(t *testing.T) {
	setupEnv(t)

	empty := runJSON(t, "global", "settings")
	assert.NotEmpty(t, empty["updatedAt"])

	runJSON(t, "global", "settings", "--data", `{"siteName":"Acme Status"}`)
	settings := runJSON(t, "global", "settings")
	assert.Equal(t, "Acme Status", settings["siteName"])
}

func TestJobsRunSendsNotification(t *testing.T) {
	setupEnv(t)

	notification := runJSON(t, "create", "notifications", "--data",
		`{"title":"Database latency","channel":"email","status":"draft"}`)
	id := core.FormatID(notification["id"])

	queued := runJSON(t, "queue", TaskSendNotification, "--input", `{"notificationId":`+id+`}`)
	assert.Equal(t, true, queued["queued"])

	_, err := run(t, "queue", "unknown-task")
	assert.Error(t, err)

	result := runJSON(t, "jobs", "run")
	assert.Equal(t, float64(1), result["completed"])

	sent := runJSON(t, "get", "notifications", id)
	assert.Equal(t, string(core.NotificationSent), sent["status"])
	assert.NotEmpty(t, sent["sentAt"])
}

func TestJobsTasksCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "jobs", "tasks")
	require.NoError(t, err)

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tasks), out)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskSendNotification, tasks[0]["slug"])
	assert.Equal(t, "Send notification", tasks[0]["title"])
}

func TestJobsRunRequiresEmbedded(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "jobs", "run", "--provider", "remote")
	assert.True(t, core.IsUnsupported(err))
}

func TestStatusEndpoint(t *testing.T) {
	setupEnv(t)

	a, err := newApp(rootFlags{}, io.Discard, io.Discard)
	require.NoError(t, err)
	defer a.close()

	created, err := a.seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, created[core.CollectionServices])

	server := httptest.NewServer(a.routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(selector.ScopeHeader))

	var page statusPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, core.ProviderEmbedded, page.Provider)
	require.NotNil(t, page.Settings)
	assert.Equal(t, "StatusDock", page.Settings.SiteName)
	require.Len(t, page.Services, 3)
	assert.Equal(t, "API", page.Services[0].Name)
	assert.True(t, page.Services[0].Group.Hydrated())
	require.Len(t, page.ActiveIncidents, 1)
	assert.Equal(t, "inc-0001", page.ActiveIncidents[0].ShortID)
	require.Len(t, page.UpcomingMaintenances, 1)

	missing, err := http.Get(server.URL + "/api/services/999")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	metricsResp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "statusdock_cms_operations_total")
	assert.Contains(t, string(body), `provider="embedded"`)
}
