// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package main is the footprint command line tool. It runs the visit
// backfill workflow directly against a DuckDB file, without the server:
//
//	footprint seed --user user-1
//	footprint info <trip-id>
//	footprint preview <trip-id> --from 2024-05-10 --to 2024-05-12
//	footprint apply <trip-id> --file selection.json
//	footprint apply <trip-id> --all-new
//	footprint history <trip-id>
//	footprint status
//
// Results are printed as JSON on stdout; logs go to stderr. Configuration
// is loaded the same way as the server, so both infer the same visits.
// Ctrl-C during a preview prints the partial result with truncated=true.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/footprint/internal/app"
	"github.com/tomtom215/footprint/internal/audit"
	"github.com/tomtom215/footprint/internal/config"
	"github.com/tomtom215/footprint/internal/database"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/visits"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds what the subcommands share once the root has loaded config.
type cli struct {
	cfg    *config.Config
	db     *database.DB
	engine *visits.Engine
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "footprint",
		Short: "Infer place visits from location history",
		Long: `footprint scans recorded location pings around a trip's places and
proposes the visits that were never checked in. Review the preview, then
apply the visits you want to keep.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("db", "", "DuckDB file (overrides DUCKDB_PATH)")
	root.PersistentFlags().String("log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "footprint v%s (%s)\n", version, commit)
		},
	})

	infoCmd := &cobra.Command{
		Use:   "info <trip-id>",
		Short: "Show places, ping volume and an estimated preview duration",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withEngine(c.runInfo),
	}
	root.AddCommand(infoCmd)

	previewCmd := &cobra.Command{
		Use:   "preview <trip-id>",
		Short: "Propose visits without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withEngine(c.runPreview),
	}
	previewCmd.Flags().String("from", "", "first local date, YYYY-MM-DD")
	previewCmd.Flags().String("to", "", "last local date, YYYY-MM-DD")
	root.AddCommand(previewCmd)

	applyCmd := &cobra.Command{
		Use:   "apply <trip-id>",
		Short: "Create, confirm or delete visits",
		Long: `apply reads a selection shaped like the API body:

  {"createVisits": [{"placeId": "...", "date": "2024-05-10"}],
   "confirmedSuggestions": [...],
   "deleteVisitIds": ["..."]}

from --file (use - for stdin). With --all-new it previews first and creates
every new visit; suggestions and stale visits are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: c.withEngine(c.runApply),
	}
	applyCmd.Flags().String("file", "", "selection JSON file, - for stdin")
	applyCmd.Flags().Bool("all-new", false, "apply every new visit of a fresh preview")
	applyCmd.Flags().String("from", "", "preview window start with --all-new")
	applyCmd.Flags().String("to", "", "preview window end with --all-new")
	applyCmd.MarkFlagsMutuallyExclusive("file", "all-new")
	applyCmd.MarkFlagsOneRequired("file", "all-new")
	root.AddCommand(applyCmd)

	historyCmd := &cobra.Command{
		Use:   "history <trip-id>",
		Short: "List committed applies of a trip, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withDB(c.runHistory),
	}
	historyCmd.Flags().Int("limit", audit.DefaultLimit, "maximum entries to print")
	root.AddCommand(historyCmd)

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the database file, schema version and table sizes",
		Args:  cobra.NoArgs,
		RunE:  c.withDB(c.runStatus),
	})

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a demo trip with places, pings and one realtime visit",
		Args:  cobra.NoArgs,
		RunE:  c.withDB(c.runSeed),
	}
	seedCmd.Flags().String("user", "demo-user", "user id owning the trip")
	seedCmd.Flags().Int64("seed", 1, "random seed; equal seeds write equal data")
	root.AddCommand(seedCmd)

	return root
}

type runFunc func(ctx context.Context, cmd *cobra.Command, args []string) error

// withDB loads configuration and opens the database around fn.
func (c *cli) withDB(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("db"); path != "" {
			cfg.Database.Path = path
		}
		level := cfg.Logging.Level
		if l, _ := cmd.Flags().GetString("log-level"); l != "" {
			level = l
		}
		logging.Init(logging.Config{Level: level, Format: "console", Output: cmd.ErrOrStderr()})

		db, err := database.New(&cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing database")
			}
		}()
		c.cfg, c.db = cfg, db

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return fn(ctx, cmd, args)
	}
}

// withEngine is withDB plus the visit engine. Applies are recorded in the
// history when it is enabled.
func (c *cli) withEngine(fn runFunc) func(*cobra.Command, []string) error {
	return c.withDB(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		var opts []visits.Option
		if c.cfg.Audit.Enabled {
			history, err := app.AuditStore(ctx, c.db)
			if err != nil {
				return err
			}
			opts = append(opts, visits.WithEventPublisher(audit.NewRecorder(history)))
		}
		engine, err := app.NewEngine(c.cfg, c.db, opts...)
		if err != nil {
			return err
		}
		c.engine = engine
		return fn(ctx, cmd, args)
	})
}

func (c *cli) runInfo(ctx context.Context, cmd *cobra.Command, args []string) error {
	info, err := c.engine.Info(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), info)
}

func (c *cli) runPreview(ctx context.Context, cmd *cobra.Command, args []string) error {
	resp, err := c.engine.Preview(ctx, previewRequest(cmd, args[0]))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func (c *cli) runApply(ctx context.Context, cmd *cobra.Command, args []string) error {
	tripID := args[0]

	var req *visits.ApplyRequest
	if allNew, _ := cmd.Flags().GetBool("all-new"); allNew {
		preview, err := c.engine.Preview(ctx, previewRequest(cmd, tripID))
		if err != nil {
			return err
		}
		if preview.Truncated {
			return fmt.Errorf("preview was interrupted; nothing applied")
		}
		req = &visits.ApplyRequest{TripID: tripID, CreateVisits: newVisitItems(preview.NewVisits)}
	} else {
		file, _ := cmd.Flags().GetString("file")
		var err error
		if req, err = readSelection(cmd.InOrStdin(), file); err != nil {
			return err
		}
		req.TripID = tripID
	}

	resp, err := c.engine.Apply(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func (c *cli) runHistory(ctx context.Context, cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	history, err := app.AuditStore(ctx, c.db)
	if err != nil {
		return err
	}
	entries, err := history.Query(ctx, audit.Filter{TripID: args[0], Limit: limit})
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return writeJSON(cmd.OutOrStdout(), entries)
}

// dbStatus is the output of the status command.
type dbStatus struct {
	Path          string                 `json:"path"`
	SchemaVersion int                    `json:"schemaVersion"`
	Migrations    []migrationStatus      `json:"migrations"`
	Records       *database.RecordCounts `json:"records"`
}

type migrationStatus struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"appliedAt"`
}

func (c *cli) runStatus(ctx context.Context, cmd *cobra.Command, _ []string) error {
	version, err := c.db.GetCurrentSchemaVersion()
	if err != nil {
		return err
	}
	history, err := c.db.GetMigrationHistory()
	if err != nil {
		return err
	}
	counts, err := c.db.GetRecordCounts(ctx)
	if err != nil {
		return err
	}

	status := dbStatus{
		Path:          c.db.GetDatabasePath(),
		SchemaVersion: version,
		Migrations:    make([]migrationStatus, len(history)),
		Records:       counts,
	}
	for i, m := range history {
		status.Migrations[i] = migrationStatus{Version: m.Version, Name: m.Name, AppliedAt: m.AppliedAt}
	}
	return writeJSON(cmd.OutOrStdout(), status)
}

func (c *cli) runSeed(ctx context.Context, cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	seed, _ := cmd.Flags().GetInt64("seed")
	summary, err := c.db.SeedDemoData(ctx, user, seed)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}

func previewRequest(cmd *cobra.Command, tripID string) visits.PreviewRequest {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	return visits.PreviewRequest{TripID: tripID, DateFrom: from, DateTo: to}
}

func newVisitItems(nvs []visits.NewVisit) []visits.ApplyItem {
	items := make([]visits.ApplyItem, len(nvs))
	for i, nv := range nvs {
		items[i] = visits.ApplyItem{
			PlaceID:      nv.PlaceID,
			Date:         nv.Date,
			FirstSeenUTC: nv.FirstSeenUTC,
			LastSeenUTC:  nv.LastSeenUTC,
		}
	}
	return items
}

// readSelection decodes an apply selection from path, or stdin for "-".
func readSelection(stdin io.Reader, path string) (*visits.ApplyRequest, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // path comes from the operator
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var req visits.ApplyRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	return &req, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
