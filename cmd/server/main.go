/*
main.go - Application entry point

PURPOSE:
  Command line for the man-hour engine. Serves the HTTP API with the
  periodic scheduler, or runs one pipeline step and exits (cron, backfills,
  operator fixes).

COMMANDS:
  serve                  HTTP API + ComputationScheduler
  run [--date D]         One RunDailyComputation (default: today's anchor date)
  recompute KEY DATE     ComputeForEmployeeDay for one employee/work day
  incomplete             Print the oldest open record, exit 1 if any

CONFIGURATION:
  Read from .env and MANHOUR_* environment variables (see config/config.go).
  Flags override the environment:
    --env      .env file to load (default: .env, missing file is fine)
    --db       SQLite database path (":memory:" for in-memory)
    --driver   sqlite3 (mattn, cgo) | sqlite (modernc, pure Go)
    --tz       IANA time zone of the plant

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (cancels a run in flight)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database

EXAMPLES:
  ./server serve --addr :9090 --db ./data/manhours.db
  ./server run --date 2024-03-04
  ./server recompute E100 2024-03-04

SEE ALSO:
  - app.go: Dependency wiring
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/manhour-engine/api"
	"github.com/warp/manhour-engine/generic"
)

// errIncomplete makes `incomplete` exit non-zero without printing usage.
var errIncomplete = errors.New("open man-hour records exist")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errIncomplete) {
			log.Printf("Error: %v", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "server",
		Short:         "Attendance resolution and man-hour computation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Environment file to load")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides MANHOUR_DB_PATH)")
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "SQL driver: sqlite3 or sqlite (overrides MANHOUR_DB_DRIVER)")
	root.PersistentFlags().StringVar(&opts.timezone, "tz", "", "Plant time zone (overrides MANHOUR_TIMEZONE)")

	root.AddCommand(newServeCmd(&opts), newRunCmd(&opts), newRecomputeCmd(&opts), newIncompleteCmd(&opts))
	return root
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic computation scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.HTTPAddr = addr
			}
			if noScheduler {
				a.cfg.SchedulerEnabled = false
			}
			return serve(a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides MANHOUR_HTTP_ADDR)")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Do not start the periodic scheduler")
	return cmd
}

func serve(a *app) error {
	handler := api.NewHandler(a.store, a.orch, a.recorder, a.logger)
	router := api.NewRouter(handler, a.cfg.CORSOrigins)

	scheduler := api.NewComputationScheduler(a.orch, a.logger)
	scheduler.Interval = a.cfg.RunInterval
	scheduler.Enabled = a.cfg.SchedulerEnabled

	server := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // computation runs are synchronous
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", a.cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	scheduler.Start()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	}

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// =============================================================================
// ONE-SHOT COMMANDS
// =============================================================================

func newRunCmd(opts *options) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily computation once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			date := a.cal.AnchorDate(time.Now())
			if dateStr != "" {
				if date, err = generic.ParseDate(dateStr); err != nil {
					return err
				}
			}

			summary, err := a.orch.RunDailyComputation(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "Range end date YYYY-MM-DD (default: current anchor date)")
	return cmd
}

func newRecomputeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute KEY DATE",
		Short: "Recompute man-hours for one employee and work day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := generic.ParseDate(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.orch.Aggregator.ComputeForEmployeeDay(cmd.Context(), generic.EmployeeKey(args[0]), date)
			if err != nil {
				return err
			}
			return printJSON(cmd, records)
		},
	}
}

func newIncompleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "incomplete",
		Short: "Print the oldest open man-hour record (exit 1 if one exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.orch.FindIncompleteRecords(cmd.Context())
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no open records")
				return nil
			}
			if err := printJSON(cmd, rec); err != nil {
				return err
			}
			return errIncomplete
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
