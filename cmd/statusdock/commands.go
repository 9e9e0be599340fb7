package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Docker-Hunterpedia/StatusDock/adapters/embedded"
	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/localcms"
	"github.com/Docker-Hunterpedia/StatusDock/metrics"
)

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     *app
	)

	rootCmd := &cobra.Command{
		Use:           "statusdock",
		Short:         "Read and write status page content through the CMS adapter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.provider, "provider", "", "CMS provider (embedded or remote), overrides CMS_PROVIDER")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.pretty, "pretty", false, "Human readable logs")

	current := func() *app { return a }
	rootCmd.AddCommand(
		providerCmd(current),
		findCmd(current),
		getCmd(current),
		countCmd(current),
		globalCmd(current),
		createCmd(current),
		updateCmd(current),
		deleteCmd(current),
		queueCmd(current),
		jobsCmd(current),
		seedCmd(current),
		serveCmd(current),
	)
	return rootCmd
}

func providerCmd(cur func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "provider",
		Short: "Print the selected CMS provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cur().print(map[string]string{"provider": string(cur().selector.Provider())})
		},
	}
}

func findCmd(cur func() *app) *cobra.Command {
	var (
		where string
		sort  string
		limit int
		page  int
		depth int
	)
	cmd := &cobra.Command{
		Use:   "find <collection>",
		Short: "List documents of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseObject("where", where)
			if err != nil {
				return err
			}
			query := core.NewQuery().WithWhere(filter).WithSort(sort).WithLimit(limit).WithPage(page)
			if cmd.Flags().Changed("depth") {
				query.WithDepth(depth)
			}

			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}
			result, err := cms.Find(cmd.Context(), args[0], query)
			if err != nil {
				return err
			}
			return cur().print(result)
		},
	}
	cmd.Flags().StringVar(&where, "where", "", `Filter as JSON, e.g. {"status":{"equals":"major"}}`)
	cmd.Flags().StringVar(&sort, "sort", "", "Sort fields, comma separated, '-' prefix for descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (default 10)")
	cmd.Flags().IntVar(&page, "page", 0, "Page number (default 1)")
	cmd.Flags().IntVar(&depth, "depth", core.DefaultDepth, "Relation population depth")
	return cmd
}

func getCmd(cur func() *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Fetch one document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := cms.FindByID(cmd.Context(), args[0], args[1], depth)
			if err != nil {
				return err
			}
			return cur().print(doc)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", core.DefaultDepth, "Relation population depth")
	return cmd
}

func countCmd(cur func() *app) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "count <collection>",
		Short: "Count documents matching a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseObject("where", where)
			if err != nil {
				return err
			}
			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}
			result, err := core.Count(cmd.Context(), cms, args[0], core.NewQuery().WithWhere(filter))
			if err != nil {
				return err
			}
			return cur().print(result)
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "Filter as JSON")
	return cmd
}

func globalCmd(cur func() *app) *cobra.Command {
	var (
		depth int
		data  string
	)
	cmd := &cobra.Command{
		Use:   "global <slug>",
		Short: "Fetch a global, or update it with --data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := parseObject("data", data)
			if err != nil {
				return err
			}
			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}

			var doc core.Document
			if update != nil {
				doc, err = cms.UpdateGlobal(cmd.Context(), args[0], update)
			} else {
				doc, err = cms.FindGlobal(cmd.Context(), args[0], depth)
			}
			if err != nil {
				return err
			}
			return cur().print(doc)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", core.DefaultDepth, "Relation population depth")
	cmd.Flags().StringVar(&data, "data", "", "Fields to update as JSON")
	return cmd
}

func createCmd(cur func() *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create <collection>",
		Short: "Create a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseObject("data", data)
			if err != nil {
				return err
			}
			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := cms.Create(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			return cur().print(doc)
		},
	}
	cmd.Flags().StringVar(&data, "data", "{}", "Document fields as JSON")
	return cmd
}

func updateCmd(cur func() *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "update <collection> <id>",
		Short: "Update fields of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseObject("data", data)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return fmt.Errorf("--data is required")
			}
			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := cms.Update(cmd.Context(), args[0], args[1], fields)
			if err != nil {
				return err
			}
			return cur().print(doc)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Fields to update as JSON")
	return cmd
}

func deleteCmd(cur func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}
			if err := cms.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return cur().print(map[string]any{"deleted": true, "id": args[1]})
		},
	}
}

func queueCmd(cur func() *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "queue <task>",
		Short: "Queue a background job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseObject("input", input)
			if err != nil {
				return err
			}
			cms, err := cur().adapter(cmd.Context())
			if err != nil {
				return err
			}
			if err := cms.QueueJob(cmd.Context(), args[0], in); err != nil {
				return err
			}
			return cur().print(map[string]any{"queued": true, "task": args[0]})
		},
	}
	cmd.Flags().StringVar(&input, "input", "{}", "Job input as JSON")
	return cmd
}

func jobsCmd(cur func() *app) *cobra.Command {
	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run queued jobs of the embedded CMS",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := embeddedStore(cmd, cur())
			if err != nil {
				return err
			}
			queued, err := store.Jobs(cmd.Context(), status)
			if err != nil {
				return err
			}
			return cur().print(queued)
		},
	}
	list.Flags().StringVar(&status, "status", "", "Only jobs in this state (queued, running, completed, failed)")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run every queued job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := embeddedStore(cmd, cur())
			if err != nil {
				return err
			}
			completed, err := store.RunPending(cmd.Context())
			if err != nil {
				return err
			}
			return cur().print(map[string]int{"completed": completed})
		},
	}

	tasks := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks jobs can be queued for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := embeddedStore(cmd, cur())
			if err != nil {
				return err
			}
			return cur().print(store.Tasks())
		},
	}

	jobs.AddCommand(list, run, tasks)
	return jobs
}

// embeddedStore reaches the localcms store behind the selected adapter
func embeddedStore(cmd *cobra.Command, a *app) (*localcms.Store, error) {
	cms, err := a.adapter(cmd.Context())
	if err != nil {
		return nil, err
	}
	if instrumented, ok := cms.(*metrics.InstrumentedAdapter); ok {
		cms = instrumented.Unwrap()
	}
	adapter, ok := cms.(*embedded.Adapter)
	if !ok {
		return nil, &core.UnsupportedOperationError{Provider: cms.Provider(), Op: "jobs"}
	}
	rt, err := adapter.Runtime(cmd.Context())
	if err != nil {
		return nil, err
	}
	store, ok := rt.(*localcms.Store)
	if !ok {
		return nil, fmt.Errorf("embedded runtime %T does not manage jobs", rt)
	}
	return store, nil
}
