package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	verbosity    int
	token        string
	channel      string
	queueURL     string
	stateDir     string
	settingsPath string
	dryRun       bool
)

var rootCmd = &cobra.Command{
	Use:   "queuewatch PROJECT...",
	Short: "Check the PNCC dynamic queue for new sample schedulings",
	Long: `Checks the published dynamic queue sheet for the given project IDs,
compares against the last persisted state, and posts Slack notifications
for newly ready samples and newly scheduled imaging dates.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(verbosity)

		projects, err := parseProjects(args)
		if err != nil {
			return err
		}

		settings, err := loadSettings(settingsPath)
		if err != nil {
			return err
		}
		applyOverrides(settings)

		notifier, err := buildNotifier(settings, logger)
		if err != nil {
			return err
		}

		return run(cmd.Context(), projects, settings, notifier, logger)
	},
}

func init() {
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Get more informational messages (repeat for debug)")
	rootCmd.Flags().StringVar(&token, "token", "", "Slack bot token. If not provided, will use SLACK_BOT_TOKEN env variable")
	rootCmd.Flags().StringVar(&channel, "channel", "", "Slack channel ID to post to. If not provided, will use SLACK_MICROSCOPY_CHANNEL env variable")
	rootCmd.Flags().StringVar(&queueURL, "url", "", "Published queue sheet URL (overrides settings)")
	rootCmd.Flags().StringVar(&stateDir, "state-dir", "", "Directory for per-project snapshot files (overrides settings)")
	rootCmd.Flags().StringVar(&settingsPath, "settings", defaultSettingsPath(), "Path to settings YAML")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print notifications instead of posting to Slack")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger maps the repeatable -v flag onto slog levels: warnings by
// default, info with -v, debug with -vv.
func newLogger(verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseProjects converts the positional arguments into project IDs.
func parseProjects(args []string) ([]int, error) {
	projects := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid project ID %q: must be an integer", arg)
		}
		projects = append(projects, id)
	}
	return projects, nil
}

// applyOverrides layers flags and environment variables over the settings
// file (priority: flag > env > settings > default).
func applyOverrides(settings *Settings) {
	if queueURL != "" {
		settings.QueueURL = queueURL
	}
	if stateDir != "" {
		settings.StateDir = stateDir
	}
	if channel != "" {
		settings.Channel = channel
	} else if env := os.Getenv("SLACK_MICROSCOPY_CHANNEL"); env != "" {
		settings.Channel = env
	}
}

// resolveToken returns the bot token from the flag, falling back to the
// environment.
func resolveToken() string {
	if token != "" {
		return token
	}
	return os.Getenv("SLACK_BOT_TOKEN")
}

// buildNotifier resolves the Slack credentials and validates them before any
// checking starts. Missing or invalid credentials abort the run.
func buildNotifier(settings *Settings, logger *slog.Logger) (*Notifier, error) {
	if settings.Channel == "" {
		return nil, fmt.Errorf("slack channel required: use --channel or the SLACK_MICROSCOPY_CHANNEL environment variable")
	}

	if dryRun {
		return NewDryRunNotifier(settings.Channel, logger), nil
	}

	botToken := resolveToken()
	if botToken == "" {
		return nil, fmt.Errorf("slack bot token required: use --token or the SLACK_BOT_TOKEN environment variable")
	}

	return NewNotifier(botToken, settings.Channel, logger)
}

// run fetches the queue once and checks each requested project against its
// stored snapshot. A failing project doesn't stop the others.
func run(ctx context.Context, projects []int, settings *Settings, notifier *Notifier, logger *slog.Logger) error {
	fetcher := NewQueueFetcher(settings, logger)
	table, err := fetcher.FetchTable(ctx)
	if err != nil {
		return fmt.Errorf("fetching queue sheet: %w", err)
	}

	store := NewStore(settings.StateDir, logger)

	now := startOfDay(time.Now())
	failed := 0
	for _, project := range projects {
		delta, err := detectChanges(store, table, project, now, logger)
		if err != nil {
			logger.Error("checking project failed", "project", project, "error", err)
			failed++
			continue
		}

		if delta.Empty() {
			logger.Info("no changes", "project", project)
			continue
		}

		if err := notifier.Notify(project, delta); err != nil {
			logger.Error("notifying failed", "project", project, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d project check(s) failed", failed, len(projects))
	}
	return nil
}
