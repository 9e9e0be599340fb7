package selector

import (
	"context"
	"fmt"

	"github.com/Docker-Hunterpedia/StatusDock/adapters/embedded"
	"github.com/Docker-Hunterpedia/StatusDock/adapters/remote"
	"github.com/Docker-Hunterpedia/StatusDock/config"
	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/localcms"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
	"github.com/Docker-Hunterpedia/StatusDock/metrics"
)

// DefaultFactory builds adapters from cfg. The embedded provider runs on a
// localcms store that executes tasks; m may be nil to skip instrumentation.
func DefaultFactory(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, tasks ...core.Task) Factory {
	log = logger.OrNop(log)

	return func(ctx context.Context, provider core.Provider) (core.Adapter, error) {
		var adapter core.Adapter

		switch provider {
		case core.ProviderEmbedded:
			adapter = embedded.New(localcms.Opener(localcms.Options{
				DSN:     cfg.Embedded.DSN,
				Schema:  core.DefaultSchema(),
				Tasks:   tasks,
				Logger:  log,
				Debug:   cfg.Debug,
				Workers: cfg.Embedded.Workers,
			}), log)
		case core.ProviderRemote:
			client := remote.NewClient(remote.ClientConfig{
				BaseURL:    cfg.Remote.URL,
				APIToken:   cfg.Remote.APIToken,
				AdminToken: cfg.Remote.AdminToken,
				Timeout:    cfg.Remote.Timeout,
				Logger:     log,
			})
			adapter = remote.New(client,
				remote.WithLogger(log),
				remote.WithJobs(cfg.Remote.JobsEnabled, cfg.Remote.JobsPath),
			)
		default:
			return nil, &core.ConfigurationError{
				Key:   config.EnvName("provider"),
				Value: string(provider),
				Msg:   fmt.Sprintf("no adapter for provider %q", provider),
			}
		}

		if m == nil {
			return adapter, nil
		}
		m.RecordAdapterCreated(provider)
		return metrics.Instrument(adapter, m, log), nil
	}
}
