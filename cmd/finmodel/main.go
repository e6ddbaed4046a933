// finmodel builds a multi-year financial projection for an early-stage
// project from ten form answers and delivers it as chat replies, JSON or an
// .xlsx workbook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	apiconfig "finmodel/pkg/api/config"
	apiprojection "finmodel/pkg/api/projection"
	"finmodel/pkg/api/telegram"
	"finmodel/pkg/core/config"
	"finmodel/pkg/core/logging"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/core/utils"
	"finmodel/pkg/models"
	"finmodel/pkg/tui"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finmodel",
	Short: "Financial projection bot for early-stage projects",
	Long: `finmodel turns ten answers (investment, horizon, revenue, growth, costs,
team) into a year-by-year P&L with NPV, IRR, payback and valuation
multiples, an optional written analysis, and an Excel workbook.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	projectCmd.Flags().StringP("out", "o", "", "output directory for the workbook (default: report.output_dir)")
	projectCmd.Flags().Bool("no-narrative", false, "skip the written analysis")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(tuiCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("finmodel %s (commit %s)\n", version, commit)
	},
}

// --- Bot Command ---

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot (long polling)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Telegram.Token == "" {
			return errors.New("telegram token not set (FINMODEL_TELEGRAM_TOKEN or TELEGRAM_BOT_TOKEN)")
		}
		ctx, cancel := signalContext()
		defer cancel()

		sessions, closeStore, err := buildSessionStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("connect to telegram: %w", err)
		}
		api.Debug = cfg.Telegram.Debug

		orch := newOrchestrator(cfg, buildNarrator(cfg, buildAgentManager(cfg)))
		telegram.Run(ctx, api, telegram.New(api, sessions, orch), cfg.Telegram.PollTimeoutSec)
		return nil
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		mgr := buildAgentManager(cfg)
		orch := newOrchestrator(cfg, buildNarrator(cfg, mgr))

		mux := http.NewServeMux()
		projectionHandler := apiprojection.NewHandler(orch)
		projectionHandler.MaxHorizon = cfg.Limits.MaxHorizon
		projectionHandler.Register(mux)
		apiconfig.NewHandler(mgr).Register(mux)

		srv := &http.Server{
			Addr:              cfg.API.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			logServe(srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

// --- Project Command ---

var projectCmd = &cobra.Command{
	Use:   "project [input-file|-]",
	Short: "Run one projection from a JSON/Hjson file of form answers",
	Long: `Reads the ten form fields (project_type, region, investment, horizon,
revenue_year1, growth, fixed_costs, variable_costs, employees, avg_salary)
as JSON or Hjson, writes the workbook and prints the key metrics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		raw, err := readInputs(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		var narrator pipeline.NarrativeGenerator
		if skip, _ := cmd.Flags().GetBool("no-narrative"); !skip {
			narrator = buildNarrator(cfg, buildAgentManager(cfg))
		}

		out, err := newOrchestrator(cfg, narrator).Run(ctx, raw)
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = cfg.Report.OutputDir
		}
		path, err := writeWorkbook(dir, out)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, pipeline.FormatMetrics(out.Result.Summary))
		if out.Narrative != "" {
			fmt.Fprintf(w, "\n%s\n", out.Narrative)
		} else if out.NarrativeErr != nil {
			fmt.Fprintf(w, "\n(analysis unavailable: %v)\n", out.NarrativeErr)
		}
		fmt.Fprintf(w, "\nWorkbook: %s\n", path)
		return nil
	},
}

// --- TUI Command ---

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Fill in the form in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		orch := newOrchestrator(cfg, buildNarrator(cfg, buildAgentManager(cfg)))
		return tui.Run(ctx, orch, cfg.Report.OutputDir)
	},
}

func readInputs(arg string, stdin io.Reader) (models.RawInputs, error) {
	var raw models.RawInputs
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return raw, fmt.Errorf("read inputs: %w", err)
	}
	if _, err := utils.SmartParse(string(data), &raw); err != nil {
		return raw, fmt.Errorf("parse inputs %s: %w", arg, err)
	}
	return raw, nil
}
