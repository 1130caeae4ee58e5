package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	naturaldate "github.com/tj/go-naturaldate"

	"planr/internal/calendar"
	"planr/internal/config"
	"planr/internal/oracle"
	"planr/internal/remind"
	"planr/internal/schedule"
	"planr/internal/server"
	"planr/internal/store"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "planr",
	Short: "AI-assisted task planner and scheduler",
	Long:  "planr breaks free-text goals into scheduled tasks and places new tasks into free calendar time, with a deterministic safety net when the AI is wrong or unavailable.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	RunE:  runServe,
}

var planCmd = &cobra.Command{
	Use:   "plan <text>",
	Short: "Break a free-text goal into scheduled tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlan,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <title:minutes> [<title:minutes>...]",
	Short: "Place duration-only tasks into free calendar time",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSchedule,
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <goal>",
	Short: "Rewrite a goal as a SMART goal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnhance,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List stored tasks",
	RunE:  runTasks,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	planCmd.Flags().Bool("save", false, "persist the generated tasks")
	scheduleCmd.Flags().String("from", "now", "start of the calendar window (natural language)")
	scheduleCmd.Flags().String("to", "4 weeks from now", "end of the calendar window (natural language)")
	scheduleCmd.Flags().Bool("save", false, "persist the placed events")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newOracle(cfg *config.Config, logger *slog.Logger) *oracle.OpenAI {
	return oracle.NewOpenAI(oracle.OpenAIConfig{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}, logger)
}

func openStore(cfg *config.Config) (*store.DB, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ai := newOracle(cfg, logger)
	srv := server.New(cfg,
		db,
		schedule.NewDecomposer(ai, logger),
		schedule.NewPlanner(ai, logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Notifications.Enabled {
		go remind.New(db, cfg.Notifications.LeadMinutes, logger).Run(ctx)
	}

	return srv.ListenAndServe(ctx)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger()

	text := strings.Join(args, " ")
	decomposer := schedule.NewDecomposer(newOracle(cfg, logger), logger)

	tasks, err := decomposer.Decompose(cmd.Context(), text)
	if err != nil {
		return err
	}

	for _, t := range tasks {
		fmt.Printf("%s  %s–%s  [%s/%s]\n    %s\n",
			t.Title,
			t.Start.Local().Format("Mon Jan 2 15:04"),
			t.End.Local().Format("15:04"),
			t.Category, t.Priority, t.Description)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		stored, err := db.InsertCandidates(tasks)
		if err != nil {
			return fmt.Errorf("persisting tasks: %w", err)
		}
		fmt.Printf("Saved %d tasks.\n", len(stored))
	}

	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger()

	requests, err := parseRequests(args)
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	busy, err := db.BusyIntervals()
	if err != nil {
		return fmt.Errorf("loading busy intervals: %w", err)
	}

	if cfg.Calendar.Enabled && cfg.Calendar.Source != "" {
		from, to, err := parseWindow(cmd)
		if err != nil {
			return err
		}
		external, err := calendar.FetchBusy(cmd.Context(), cfg.Calendar.Source, from, to)
		if err != nil {
			logger.Warn("external calendar unavailable", "error", err)
		} else {
			busy = append(busy, external...)
		}
	}

	planner := schedule.NewPlanner(newOracle(cfg, logger), logger)
	placed, err := planner.PlaceTasks(cmd.Context(), requests, busy)
	if err != nil {
		return err
	}

	for _, e := range placed {
		fmt.Printf("%s  %s–%s\n",
			e.Title,
			e.Start.Local().Format("Mon Jan 2 15:04"),
			e.End.Local().Format("15:04"))
	}
	if skipped := len(requests) - len(placed); skipped > 0 {
		fmt.Printf("%d task(s) could not be placed.\n", skipped)
	}

	if save, _ := cmd.Flags().GetBool("save"); save && len(placed) > 0 {
		stored, err := db.InsertPlacedEvents(placed)
		if err != nil {
			return fmt.Errorf("persisting events: %w", err)
		}
		fmt.Printf("Saved %d events.\n", len(stored))
	}

	return nil
}

// parseRequests turns "Write report:60" arguments into placement requests.
func parseRequests(args []string) ([]schedule.PlacementRequest, error) {
	requests := make([]schedule.PlacementRequest, 0, len(args))
	for _, arg := range args {
		title, minsStr, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("invalid task %q, want <title>:<minutes>", arg)
		}
		mins, err := strconv.Atoi(strings.TrimSpace(minsStr))
		if err != nil {
			return nil, fmt.Errorf("invalid duration in %q: %w", arg, err)
		}
		requests = append(requests, schedule.PlacementRequest{
			Title:           strings.TrimSpace(title),
			DurationMinutes: mins,
		})
	}
	return requests, nil
}

func parseWindow(cmd *cobra.Command) (time.Time, time.Time, error) {
	now := time.Now()

	fromStr, _ := cmd.Flags().GetString("from")
	from, err := naturaldate.Parse(fromStr, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing --from %q: %w", fromStr, err)
	}

	toStr, _ := cmd.Flags().GetString("to")
	to, err := naturaldate.Parse(toStr, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing --to %q: %w", toStr, err)
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must be before --to")
	}
	return from, to, nil
}

func runEnhance(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger()

	decomposer := schedule.NewDecomposer(newOracle(cfg, logger), logger)
	fmt.Println(decomposer.EnhanceGoal(cmd.Context(), strings.Join(args, " ")))
	return nil
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tasks, err := db.ListTasks()
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Printf("[%s] #%d  %s  %s–%s  [%s/%s]\n",
			done, t.ID, t.Title,
			t.Start.Local().Format("Mon Jan 2 15:04"),
			t.End.Local().Format("15:04"),
			t.Category, t.Priority)
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaults := config.DefaultConfig()
		data, err := toml.Marshal(defaults)
		if err != nil {
			return fmt.Errorf("marshaling default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		fmt.Println(path)
		return nil
	}

	c := exec.Command(editor, path)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}
