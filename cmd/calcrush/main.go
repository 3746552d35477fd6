// Package main provides the CLI entrypoint for calcrush.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/calcrush/internal/calculator"
	"github.com/verte-zerg/calcrush/internal/config"
	"github.com/verte-zerg/calcrush/internal/game"
	"github.com/verte-zerg/calcrush/internal/generator"
	"github.com/verte-zerg/calcrush/internal/history"
	"github.com/verte-zerg/calcrush/internal/logging"
	"github.com/verte-zerg/calcrush/internal/model"
	"github.com/verte-zerg/calcrush/internal/report"
	"github.com/verte-zerg/calcrush/internal/tui"
)

const (
	defaultPollMs   = 100
	defaultResetMs  = 500
	defaultLogLevel = "info"
	defaultRecent   = 5
	defaultCount    = 10
)

var (
	playSeed     int64
	playPollMs   int
	playResetMs  int
	playLogFile  string
	playLogLevel string
	playRecent   int

	challengesLevel int
	challengesCount int
	challengesSeed  int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "calcrush",
		Short:         "Timed mental arithmetic game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().Int64Var(&playSeed, "seed", 0, "challenge seed (0 picks one from the clock)")
	rootCmd.Flags().IntVar(&playPollMs, "poll-ms", defaultPollMs, "screen refresh interval in milliseconds")
	rootCmd.Flags().IntVar(&playResetMs, "reset-ms", defaultResetMs, "delay before the calculator clears after a submission")
	rootCmd.Flags().StringVar(&playLogFile, "log-file", "", "write a JSON log to this file")
	rootCmd.Flags().StringVar(&playLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&playRecent, "recent", defaultRecent, "number of recent rounds shown")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCalcCmd())
	rootCmd.AddCommand(newChallengesCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyInt64Config(cmd, "seed", &playSeed, fileCfg.Game.Seed)
	applyIntConfig(cmd, "poll-ms", &playPollMs, fileCfg.Game.PollMs)
	applyIntConfig(cmd, "reset-ms", &playResetMs, fileCfg.Game.ResetMs)
	applyStringConfig(cmd, "log-file", &playLogFile, fileCfg.Game.LogFile)
	applyStringConfig(cmd, "log-level", &playLogLevel, fileCfg.Game.LogLevel)
	applyIntConfig(cmd, "recent", &playRecent, fileCfg.Game.Recent)

	cfg := model.Config{
		Seed:         playSeed,
		PollInterval: time.Duration(playPollMs) * time.Millisecond,
		ResetDelay:   time.Duration(playResetMs) * time.Millisecond,
		LogFile:      playLogFile,
		LogLevel:     playLogLevel,
		Recent:       playRecent,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("calcrush needs an interactive terminal")
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if serr := logger.Sync(); serr != nil {
			// Best-effort flush.
			_ = serr
		}
	}()

	rounds, err := history.Open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rounds.Close(); cerr != nil {
			logErrf("failed to close round log: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	gameID, err := rounds.BeginGame(ctx, time.Now())
	if err != nil {
		return err
	}

	eng := game.New(
		game.WithGenerator(generator.NewSeeded(cfg.Seed)),
		game.WithLogger(logger),
	)
	defer eng.Cleanup()
	if err := eng.StartGame(); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	logger.Info("session started", zap.String("game", gameID), zap.Int64("seed", cfg.Seed))

	screen := tui.NewModel(cfg, calculator.New(), eng, rounds, gameID, logger)
	program := tea.NewProgram(screen, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	eng.Cleanup()

	final := eng.GetState()
	if err := rounds.EndGame(ctx, gameID, time.Now(), final.Score, final.Level); err != nil {
		return err
	}
	logger.Info("session ended",
		zap.String("game", gameID),
		zap.Int("score", final.Score),
		zap.Int("level", final.Level))
	return printSummary(ctx, os.Stdout, rounds, gameID, report.TerminalWidth())
}

func printSummary(ctx context.Context, w io.Writer, rounds *history.Log, gameID string, width int) error {
	summary, err := rounds.Summary(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to summarize game: %w", err)
	}
	aggs, err := rounds.OperatorAggregates(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to aggregate rounds: %w", err)
	}
	all, err := rounds.RecentRounds(ctx, gameID, 0)
	if err != nil {
		return fmt.Errorf("failed to load rounds: %w", err)
	}
	return report.RenderSummary(w, summary, aggs, all, width)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calc <keys>",
		Short: "Evaluate a key sequence on the game calculator",
		Long: "Feeds keys to the calculator the way the game screen does and prints the display.\n" +
			"Operators fold left to right, so \"2+3*4=\" prints 20. \"C\" clears and \"<\" deletes a digit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd.OutOrStdout(), args[0])
		},
	}
}

func runCalc(w io.Writer, seq string) error {
	actions, err := calculator.ParseSequence(seq)
	if err != nil {
		return err
	}
	calc := calculator.New()
	for i, action := range actions {
		if _, _, err := calc.Apply(action); err != nil {
			return fmt.Errorf("key %d: %w", i+1, err)
		}
	}
	_, err = fmt.Fprintln(w, calc.Display())
	return err
}

func newChallengesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenges",
		Short: "Print generated challenges for a level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChallenges(cmd.OutOrStdout(), challengesLevel, challengesCount, challengesSeed)
		},
	}
	cmd.Flags().IntVar(&challengesLevel, "level", 1, "difficulty level (>= 1)")
	cmd.Flags().IntVar(&challengesCount, "count", defaultCount, "number of challenges")
	cmd.Flags().Int64Var(&challengesSeed, "seed", 0, "challenge seed (0 picks one from the clock)")
	return cmd
}

func runChallenges(w io.Writer, level, count int, seed int64) error {
	if level < 1 {
		return fmt.Errorf("--level must be >= 1")
	}
	if count <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	gen := generator.NewSeeded(seed)
	for i := 0; i < count; i++ {
		c := gen.Generate(level)
		if _, err := fmt.Fprintf(w, "%s = %s\n", c.Expression, strconv.FormatFloat(c.Answer, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# calcrush configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# seed = 0                # Challenge seed, 0 picks one from the clock
# poll-ms = %d           # Screen refresh interval in milliseconds
# reset-ms = %d          # Delay before the calculator clears after a submission
# log-file = ""           # Write a JSON log to this file (e.g. %q)
# log-level = %q      # debug, info, warn or error
# recent = %d              # Number of recent rounds shown
`,
		defaultPollMs,
		defaultResetMs,
		config.DefaultLogPath(),
		defaultLogLevel,
		defaultRecent,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("--poll-ms must be > 0")
	}
	if cfg.ResetDelay <= 0 {
		return fmt.Errorf("--reset-ms must be > 0")
	}
	if cfg.Recent <= 0 {
		return fmt.Errorf("--recent must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
