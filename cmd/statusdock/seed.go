package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Docker-Hunterpedia/StatusDock/core"
)

func seedCmd(cur func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the CMS with sample status page content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := cur().seed(cmd.Context())
			if err != nil {
				return err
			}
			return cur().print(created)
		},
	}
}

// seed creates a small status page: groups, services, an incident and the site settings.
// It returns the number of documents created per collection.
func (a *app) seed(ctx context.Context) (map[string]int, error) {
	cms, err := a.adapter(ctx)
	if err != nil {
		return nil, err
	}
	created := map[string]int{}
	create := func(collection string, data core.Document) (core.Document, error) {
		doc, err := cms.Create(ctx, collection, data)
		if err != nil {
			return nil, err
		}
		created[collection]++
		return doc, nil
	}

	groups := []core.Document{
		{"name": "Platform", "description": "Core customer facing systems"},
		{"name": "Infrastructure", "description": "Shared backing services"},
	}
	groupIDs := make([]any, 0, len(groups))
	for _, g := range groups {
		doc, err := create(core.CollectionServiceGroups, g)
		if err != nil {
			return nil, err
		}
		groupIDs = append(groupIDs, doc.ID())
	}

	services := []core.Document{
		{"name": "API", "slug": "api", "group": groupIDs[0], "status": string(core.ServiceOperational)},
		{"name": "Dashboard", "slug": "dashboard", "group": groupIDs[0], "status": string(core.ServiceOperational)},
		{"name": "Database", "slug": "database", "group": groupIDs[1], "status": string(core.ServiceDegraded)},
	}
	serviceIDs := make([]any, 0, len(services))
	for _, s := range services {
		doc, err := create(core.CollectionServices, s)
		if err != nil {
			return nil, err
		}
		serviceIDs = append(serviceIDs, doc.ID())
	}

	now := time.Now()
	if _, err := create(core.CollectionIncidents, core.Document{
		"title":            "Elevated database latency",
		"shortId":          "inc-0001",
		"status":           string(core.IncidentInvestigating),
		"affectedServices": []any{serviceIDs[2]},
		"updates": []any{
			map[string]any{
				"status":    string(core.IncidentInvestigating),
				"message":   "We are investigating slow queries on the primary database.",
				"createdAt": core.FormatTimestamp(now),
			},
		},
	}); err != nil {
		return nil, err
	}

	if _, err := create(core.CollectionMaintenances, core.Document{
		"title":            "Dashboard upgrade",
		"shortId":          "mnt-0001",
		"status":           string(core.MaintenanceUpcoming),
		"scheduledStartAt": core.FormatTimestamp(now.Add(24 * time.Hour)),
		"scheduledEndAt":   core.FormatTimestamp(now.Add(26 * time.Hour)),
		"affectedServices": []any{serviceIDs[1]},
	}); err != nil {
		return nil, err
	}

	if _, err := cms.UpdateGlobal(ctx, core.GlobalSettings, core.Document{
		"siteName":   "StatusDock",
		"footerText": "Current status of our services",
	}); err != nil {
		return nil, err
	}

	a.log.Info("seeded CMS").Interface("created", created).Send()
	return created, nil
}
