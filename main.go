// Package main provides the CLI entrypoint for course-importer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"course-importer/config"
	"course-importer/gateway"
	"course-importer/scraper"
	"course-importer/validate"
)

var (
	configPath string

	gatewayKind string
	gatewayOut  string
	gatewayDB   string
	noMerge     bool
	payloadFile string

	cquToken      string
	cquStudentID  string
	cquPortalPage string

	hnvccYear     string
	hnvccSemester int
	hnvccSeason   string
	hnvccCookie   string

	showProvider string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "course-importer",
		Short:         "Import course schedules into one canonical timetable",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the TOML config")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newValidatorsCmd())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("gateway") {
		cfg.Gateway.Kind = gatewayKind
	}
	if cmd.Flags().Changed("out") {
		cfg.Gateway.OutDir = gatewayOut
	}
	if cmd.Flags().Changed("db") {
		cfg.Gateway.DBPath = gatewayDB
	}
	if noMerge {
		merge := false
		cfg.Import.Merge = &merge
	}
	return cfg, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch a schedule from a provider and save it",
	}
	cmd.PersistentFlags().StringVar(&gatewayKind, "gateway", gateway.KindSQLite, "gateway: sqlite, ics, csv, json, github or memory")
	cmd.PersistentFlags().StringVar(&gatewayOut, "out", ".", "output directory for file gateways")
	cmd.PersistentFlags().StringVar(&gatewayDB, "db", config.DefaultDBPath(), "SQLite database path")
	cmd.PersistentFlags().BoolVar(&noMerge, "no-merge", false, "save records without merging adjacent sections")
	cmd.PersistentFlags().StringVar(&payloadFile, "file", "", "read a saved payload instead of fetching")

	cqu := &cobra.Command{
		Use:   "cqu",
		Short: "Import from the my.cqu.edu.cn timetable API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			studentID := cquStudentID
			if studentID == "" && cquPortalPage != "" {
				page, err := os.ReadFile(cquPortalPage)
				if err != nil {
					return fmt.Errorf("error reading portal page: %w", err)
				}
				if studentID, err = scraper.StudentID(page); err != nil {
					return err
				}
			}
			return runImport(cmd, config.Job{
				Provider:    scraper.ProviderCQU,
				File:        payloadFile,
				AccessToken: cquToken,
				StudentID:   studentID,
			})
		},
	}
	cqu.Flags().StringVar(&cquToken, "token", os.Getenv("CQU_ACCESS_TOKEN"), "portal access token")
	cqu.Flags().StringVar(&cquStudentID, "student-id", "", "student id")
	cqu.Flags().StringVar(&cquPortalPage, "portal-page", "", "saved portal page to read the student id from")

	wakeup := &cobra.Command{
		Use:   "wakeup [share-key]",
		Short: "Import a WakeUp schedule share",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := config.Job{Provider: scraper.ProviderWakeUp, File: payloadFile}
			if len(args) == 1 {
				job.Key = args[0]
			}
			return runImport(cmd, job)
		},
	}

	hnvcc := &cobra.Command{
		Use:   "hnvcc",
		Short: "Import from the jwxt.hnvcc.edu.cn timetable page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, config.Job{
				Provider: scraper.ProviderHNVCC,
				File:     payloadFile,
				Year:     hnvccYear,
				Semester: hnvccSemester,
				Season:   hnvccSeason,
				Cookie:   hnvccCookie,
			})
		},
	}
	hnvcc.Flags().StringVar(&hnvccYear, "year", "", "academic year, four digits")
	hnvcc.Flags().IntVar(&hnvccSemester, "semester", 0, "semester index: "+choiceHelp(validate.Semesters))
	hnvcc.Flags().StringVar(&hnvccSeason, "season", "", "time table season: summer or winter")
	hnvcc.Flags().StringVar(&hnvccCookie, "cookie", os.Getenv("HNVCC_COOKIE"), "session cookie of a logged-in browser")

	job := &cobra.Command{
		Use:   "job <file>",
		Short: "Run an import described by a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := config.LoadJob(args[0])
			if err != nil {
				return err
			}
			return runImport(cmd, j)
		},
	}

	cmd.AddCommand(cqu, wakeup, hnvcc, job)
	return cmd
}

func runImport(cmd *cobra.Command, job config.Job) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	report, err := runJob(ctx, cfg, job)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d courses (%d merged), %d time slots, %d weeks\n",
		report.Provider, len(report.Schedule.Courses), report.Merged(),
		len(report.Schedule.TimeSlots), report.Schedule.Config.TotalWeeks)
	return nil
}

func newServeCmd() *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			return startServer(ctx, cfg, persist)
		},
	}
	cmd.Flags().BoolVar(&persist, "persist", false, "also save every import through the configured gateway")
	return cmd
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Re-run every job file on an interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			return runDaemon(ctx, cfg)
		},
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [import-id]",
		Short: "Print a stored import as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := gateway.OpenStore(cfg.GatewayOptions("").DBPath)
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer func() {
				if cerr := st.Close(); cerr != nil {
					// Best-effort close.
					_ = cerr
				}
			}()

			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				run, err := st.LatestImport(cmd.Context(), showProvider)
				if errors.Is(err, gateway.ErrNoImports) {
					fmt.Fprintln(cmd.OutOrStdout(), "No imports stored yet.")
					return nil
				}
				if err != nil {
					return err
				}
				id = run.ID
				fmt.Fprintf(cmd.ErrOrStderr(), "import %s (%s, %s)\n", run.ID, run.Provider, run.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			schedule, err := st.LoadSchedule(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schedule)
		},
	}
	cmd.Flags().StringVar(&showProvider, "provider", "", "latest import of this provider only")
	cmd.Flags().StringVar(&gatewayDB, "db", config.DefaultDBPath(), "SQLite database path")
	return cmd
}

func newValidatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validators [name input]",
		Short: "List the input validators or run one",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or a name and an input")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range validate.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			if err := validate.Run(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

func choiceHelp(choices []string) string {
	parts := make([]string, len(choices))
	for i, c := range choices {
		parts[i] = fmt.Sprintf("%d=%s", i, c)
	}
	return strings.Join(parts, ", ")
}
