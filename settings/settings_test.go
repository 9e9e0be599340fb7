package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Docker-Hunterpedia/StatusDock/core"
)

// globalsAdapter serves globals from a map and counts reads
type globalsAdapter struct {
	core.Adapter
	globals map[string]core.Document
	reads   map[string]int
	depths  []int
}

func (g *globalsAdapter) FindGlobal(ctx context.Context, slug string, depth int) (core.Document, error) {
	g.reads[slug]++
	g.depths = append(g.depths, depth)
	doc, ok := g.globals[slug]
	if !ok {
		return nil, &core.NotFoundError{Collection: slug}
	}
	return doc, nil
}

func newGlobalsAdapter() *globalsAdapter {
	return &globalsAdapter{
		reads: map[string]int{},
		globals: map[string]core.Document{
			core.GlobalSettings: {
				"id":        1,
				"siteName":  "Acme Status",
				"updatedAt": "2024-02-01T10:00:00.000Z",
				"logoLight": core.Document{"id": 9, "url": "/logo.png"},
				"logoDark":  12,
			},
			core.GlobalEmailSettings: {
				"id":       1,
				"smtpHost": "smtp.example.com",
				"smtpPort": int64(587),
			},
			core.GlobalSmsSettings: {
				"id":                     1,
				"twilioPhoneNumber":      "+15550100",
				"templateTitleMaxLength": "60",
			},
		},
	}
}

func TestSettingsAreDecodedAndMemoized(t *testing.T) {
	a := newGlobalsAdapter()
	loader := ForAdapter(a)
	ctx := context.Background()

	s, err := loader.Settings(ctx)
	require.NoError(t, err)
	_, err = loader.Settings(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Acme Status", s.SiteName)
	assert.Equal(t, "1", s.ID)
	assert.Equal(t, 2024, s.UpdatedAt.Year())
	require.NotNil(t, s.LogoLight)
	assert.True(t, s.LogoLight.Hydrated())
	assert.Equal(t, "/logo.png", s.LogoLight.Doc["url"])
	require.NotNil(t, s.LogoDark)
	assert.False(t, s.LogoDark.Hydrated())
	assert.Equal(t, 12, s.LogoDark.ID)

	assert.Equal(t, 1, a.reads[core.GlobalSettings])
	assert.Equal(t, []int{1}, a.depths)
}

func TestEmailAndSmsSettings(t *testing.T) {
	loader := ForAdapter(newGlobalsAdapter())
	ctx := context.Background()

	email, err := loader.EmailSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", email.SMTPHost)
	assert.Equal(t, 587, email.SMTPPort)

	sms, err := loader.SmsSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+15550100", sms.TwilioPhoneNumber)
	assert.Equal(t, 60, sms.TemplateTitleMaxLength)
}

func TestResetRefetches(t *testing.T) {
	a := newGlobalsAdapter()
	loader := ForAdapter(a)
	ctx := context.Background()

	_, _ = loader.SmsSettings(ctx)
	loader.Reset()
	_, _ = loader.SmsSettings(ctx)

	assert.Equal(t, 2, a.reads[core.GlobalSmsSettings])
}

func TestErrorsAreNotMemoized(t *testing.T) {
	a := newGlobalsAdapter()
	delete(a.globals, core.GlobalSettings)
	loader := ForAdapter(a)
	ctx := context.Background()

	_, err := loader.Settings(ctx)
	assert.True(t, core.IsNotFound(err))

	a.globals[core.GlobalSettings] = core.Document{"id": 1, "siteName": "Back"}
	s, err := loader.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Back", s.SiteName)
}

func TestAdapterResolutionError(t *testing.T) {
	loader := NewLoader(func(context.Context) (core.Adapter, error) {
		return nil, errors.New("no adapter")
	})

	_, err := loader.EmailSettings(context.Background())
	assert.EqualError(t, err, "no adapter")
}
