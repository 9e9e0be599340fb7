package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Docker-Hunterpedia/StatusDock/config"
	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
	"github.com/Docker-Hunterpedia/StatusDock/metrics"
	"github.com/Docker-Hunterpedia/StatusDock/selector"
)

// rootFlags override configuration loaded from the environment
type rootFlags struct {
	provider string
	debug    bool
	pretty   bool
}

// app holds everything a command needs
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	selector *selector.Selector
	out      io.Writer
}

func newApp(flags rootFlags, out, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.debug {
		cfg.Debug = true
		cfg.Log.Level = "debug"
	}
	if flags.pretty {
		cfg.Log.Pretty = true
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: errOut,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  m,
		out:      out,
	}
	a.selector = selector.FromConfig(cfg, selector.DefaultFactory(cfg, log, m, a.tasks()...), log)
	return a, nil
}

func (a *app) adapter(ctx context.Context) (core.Adapter, error) {
	return a.selector.Adapter(ctx)
}

func (a *app) close() {
	if err := a.selector.Close(); err != nil {
		a.log.Error("failed to close CMS adapter").Err(err).Send()
	}
}

// print writes v as indented JSON
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseObject decodes a JSON object flag value. An empty value yields nil.
func parseObject(flag, value string) (map[string]any, error) {
	if value == "" {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err != nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", flag, err)
	}
	return obj, nil
}
