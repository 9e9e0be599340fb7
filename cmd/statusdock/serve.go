package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/selector"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(cur func() *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status page as JSON together with Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cur().serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("serving status page").Str("addr", addr).Str("provider", string(a.selector.Provider())).Send()
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.log.Info("shutting down").Send()
	return server.Shutdown(shutdownCtx)
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/status", a.handleStatus)
	mux.HandleFunc("GET /api/{collection}/{id}", a.handleDocument)
	return selector.Middleware(a.selector)(mux)
}

// statusPage is the public summary served at /api/status
type statusPage struct {
	Provider             core.Provider      `json:"provider"`
	Settings             *core.Settings     `json:"settings"`
	Services             []core.Service     `json:"services"`
	ActiveIncidents      []core.Incident    `json:"activeIncidents"`
	UpcomingMaintenances []core.Maintenance `json:"upcomingMaintenances"`
}

func (a *app) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cms, err := a.selector.Adapter(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}

	page := statusPage{Provider: cms.Provider()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page.Settings, err = a.selector.Settings(gctx).Settings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page.Services, err = findAll[core.Service](gctx, cms, core.CollectionServices,
			core.NewQuery().WithSort("name").WithLimit(100))
		return err
	})
	g.Go(func() error {
		var err error
		page.ActiveIncidents, err = findAll[core.Incident](gctx, cms, core.CollectionIncidents,
			core.NewQuery().WithFilter("status", core.OpNotEquals, string(core.IncidentResolved)))
		return err
	})
	g.Go(func() error {
		var err error
		page.UpcomingMaintenances, err = findAll[core.Maintenance](gctx, cms, core.CollectionMaintenances,
			core.NewQuery().
				WithFilter("status", core.OpIn, []string{string(core.MaintenanceUpcoming), string(core.MaintenanceInProgress)}).
				WithSort("scheduledStartAt"))
		return err
	})
	if err := g.Wait(); err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, page)
}

func (a *app) handleDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cms, err := a.selector.Adapter(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}
	doc, err := cms.FindByID(ctx, r.PathValue("collection"), r.PathValue("id"), core.DefaultDepth)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, doc)
}

func findAll[T any](ctx context.Context, cms core.Adapter, collection string, query *core.Query) ([]T, error) {
	result, err := cms.Find(ctx, collection, query)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(result.Docs))
	for _, doc := range result.Docs {
		v, err := core.Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (a *app) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("failed to write response").Err(err).Send()
	}
}

func (a *app) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case core.IsNotFound(err):
		status = http.StatusNotFound
	case core.IsUnsupported(err):
		status = http.StatusNotImplemented
	default:
		a.log.Error("status request failed").Err(err).Send()
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
