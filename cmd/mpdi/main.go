package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"mpdimport/internal/app"
	"mpdimport/internal/config"
	"mpdimport/internal/db"
	"mpdimport/internal/domain"
	"mpdimport/internal/engine"
	"mpdimport/internal/migrate"
	"mpdimport/internal/msp"
	"mpdimport/internal/repo"
	"mpdimport/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "mpdi",
	Short: "MPD schedule importer",
	Long: `mpdi reads project schedules stored in the MPD relational layout (MSP_* tables)
into an in-memory project model and keeps a history of every import.
- Source: an MPD database file, or a YAML snapshot of its rows (.yml/.yaml).
- Project: one PROJ_ID inside the source; pick it with --project when the source holds several.
- Workspace: the .mpdimport directory holding the import history database, next to mpdimport.yml.
- History: each import is recorded with its status, counts and per-entity events.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("MPDI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().StringP("source", "s", "", "MPD database or YAML snapshot (overrides config)")
	rootCmd.PersistentFlags().IntP("project", "p", 0, "project id inside the source (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides config)")
	for _, name := range []string{"workspace", "json", "actor-id", "source", "project", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects held by the source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				projects, err := e.ListSourceProjects(ctx, e.Config.Source.Path)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(projects)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Name"})
				for _, p := range projects {
					tw.AppendRow(table.Row{p.ID, p.Name})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func importCmd() *cobra.Command {
	var dump, preserveNotes bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a project and record the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ImportOptions{
					Source:  e.Config.Source.Path,
					ActorID: viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("preserve-notes") {
					opts.PreserveNoteFormatting = &preserveNotes
				}
				res, err := e.Import(ctx, opts)
				if err != nil {
					if res.Run.ID != "" {
						return fmt.Errorf("import %s failed: %w", res.Run.ID, err)
					}
					return err
				}
				switch {
				case viper.GetBool("json"):
					return printJSON(map[string]any{"run": res.Run, "project": res.Project})
				case dump:
					dumpProject(os.Stdout, res.Project)
					return nil
				}
				printRun(res.Run)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the imported model")
	cmd.Flags().BoolVar(&preserveNotes, "preserve-notes", false, "keep RTF markup in notes")
	return cmd
}

func dumpProject(w io.Writer, p *domain.Project) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
		MaxDepth:                6,
	}
	cfg.Fdump(w, p)
}

func historyCmd() *cobra.Command {
	hist := &cobra.Command{Use: "history", Short: "Inspect recorded imports"}
	hist.AddCommand(historyListCmd())
	hist.AddCommand(historyShowCmd())
	hist.AddCommand(historyEventsCmd())
	return hist
}

func historyListCmd() *cobra.Command {
	var f repo.ImportFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				runs, err := r.ListImports(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Started", "Status", "Project", "Tasks", "Source"})
				for _, run := range runs {
					project := fmt.Sprintf("%d", run.ProjectID)
					if run.ProjectName != "" {
						project += " " + run.ProjectName
					}
					tw.AppendRow(table.Row{run.ID, run.StartedAt, run.Status, project, run.Counts.Tasks, run.Source})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 20, "maximum runs")
	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <import-id>",
		Short: "Show one import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				run, err := r.GetImport(ctx, args[0])
				if err != nil {
					return fmt.Errorf("import %s: %w", args[0], err)
				}
				if viper.GetBool("json") {
					return printJSON(run)
				}
				printRun(run)
				return nil
			})
		},
	}
}

func historyEventsCmd() *cobra.Command {
	var f repo.EventFilters
	cmd := &cobra.Command{
		Use:   "events <import-id>",
		Short: "List the events of one import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f.ImportID = args[0]
				evts, err := e.ImportEvents(ctx, f)
				if err != nil {
					return fmt.Errorf("import %s: %w", args[0], err)
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"#", "Type", "Entity", "ID", "Payload"})
				for _, evt := range evts {
					payload, _ := json.Marshal(evt.Payload)
					tw.AppendRow(table.Row{evt.ID, evt.Type, evt.EntityKind, evt.EntityID, string(payload)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "calendar, resource, task, relation, assignment or import")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 500, "maximum events")
	return cmd
}

func snapshotCmd() *cobra.Command {
	snap := &cobra.Command{Use: "snapshot", Short: "Work with YAML snapshots of a source"}
	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write one project of the source as a YAML snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var w io.Writer = os.Stdout
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if err := e.ExportSnapshot(ctx, e.Config.Source.Path, e.Config.Source.ProjectID, w); err != nil {
					return err
				}
				if out != "" && out != "-" {
					fmt.Fprintf(os.Stderr, "snapshot written to %s\n", out)
				}
				return nil
			})
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	snap.AddCommand(export)
	return snap
}

func schemaCmd() *cobra.Command {
	schema := &cobra.Command{Use: "schema", Short: "MSP_* table layout"}
	var printOnly bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Create an empty MPD database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				fmt.Println(msp.DDL())
				return nil
			}
			if len(args) == 0 {
				return errors.New("path required")
			}
			conn, err := sql.Open("sqlite", args[0])
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := msp.Apply(cmd.Context(), conn); err != nil {
				return err
			}
			fmt.Printf("created MSP_* tables in %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&printOnly, "print", false, "print the DDL instead of creating a database")
	schema.AddCommand(initCmd)
	return schema
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage mpdimport.yml",
		Long:  "mpdimport.yml names the default source and project, note handling, log level and server settings. Flags and MPDI_* environment variables override it.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default mpdimport.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(viper.GetString("source"))), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if !cmd.Flags().Changed("addr") && e.Config.Server.Addr != "" {
					addr = e.Config.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") && e.Config.Server.BasePath != "" {
					basePath = e.Config.Server.BasePath
				}
				secret := e.Config.Server.JWTSecret
				if env := viper.GetString("jwt-secret"); env != "" {
					secret = env
				}
				authCfg := server.AuthConfig{JWTSecret: secret, Logger: e.Logger}
				if secret == "" {
					e.Logger.Warn("no JWT secret configured; every caller acts as a local owner")
				}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg, Logger: e.Logger})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				e.Logger.Info("serving MPD import API", "addr", addr, "base_path", basePath, "openapi", basePath+"/openapi.json", "docs", "/docs")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	_ = viper.BindEnv("jwt-secret")
	return cmd
}

// loadConfig reads mpdimport.yml and applies flag and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := app.ResolveConfig(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if s := viper.GetString("source"); s != "" {
		cfg.Source.Path = s
	}
	if p := viper.GetInt("project"); p != 0 {
		cfg.Source.ProjectID = p
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return withRepo(ctx, func(ctx context.Context, r repo.Repo) error {
		e := engine.New(r.DB, cfg)
		e.Logger = newLogger(os.Stderr, cfg.Log.Level)
		return fn(ctx, e)
	})
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	return fn(ctx, r)
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printRun(run domain.ImportRun) {
	tw := newTable()
	tw.AppendRow(table.Row{"Import", run.ID})
	tw.AppendRow(table.Row{"Status", run.Status})
	tw.AppendRow(table.Row{"Source", fmt.Sprintf("%s (%s)", run.Source, run.SourceKind)})
	tw.AppendRow(table.Row{"Project", fmt.Sprintf("%d %s", run.ProjectID, run.ProjectName)})
	tw.AppendRow(table.Row{"Actor", run.ActorID})
	tw.AppendRow(table.Row{"Started", run.StartedAt})
	if run.FinishedAt != nil {
		tw.AppendRow(table.Row{"Finished", *run.FinishedAt})
	}
	if run.Error != "" {
		tw.AppendRow(table.Row{"Error", run.Error})
	}
	tw.AppendSeparator()
	c := run.Counts
	tw.AppendRow(table.Row{"Calendars", c.Calendars})
	tw.AppendRow(table.Row{"Resources", c.Resources})
	tw.AppendRow(table.Row{"Tasks", c.Tasks})
	tw.AppendRow(table.Row{"Relations", c.Relations})
	tw.AppendRow(table.Row{"Assignments", c.Assignments})
	tw.AppendRow(table.Row{"Subprojects", c.SubProjects})
	tw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
