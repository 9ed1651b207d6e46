package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/chat"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/config"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/services"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiURL     string
	sessionID  string
	logFile    string

	// Logger
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "parcelchat",
	Short: "Package tracking assistant in your terminal",
	Long: `parcelchat talks to the package tracking assistant.

Run without arguments to start the interactive chat. The subcommands call a
single backend operation and print the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive chat owns the terminal, so it logs through --log-file only.
		if cmd == cmd.Root() {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <user config dir>/parcelchat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Tracking backend base URL, overrides the config")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "Backend session handle; a new one is started when empty")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write interactive chat logs to this file")

	rootCmd.AddCommand(
		trackCmd,
		claimCmd,
		claimDetailsCmd,
		sessionCmd,
		statusCmd,
		historyCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return config.Config{}, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	return cfg, nil
}

func transcriptPath(cfg config.Config) (string, error) {
	if cfg.TranscriptPath != "" {
		return cfg.TranscriptPath, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating config directory: %w", err)
	}
	return filepath.Join(dir, "transcripts.db"), nil
}

// serviceLogger returns the slog logger handed to the services. Their output follows --verbose and
// goes to stderr, next to the zap output of the command.
func serviceLogger(cfg config.Config) *slog.Logger {
	level, err := cfg.Level()
	if err != nil || verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// runInteractiveChat starts the interactive chat interface
func runInteractiveChat() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	slogger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	opts := []chat.Option{chat.WithLogger(slogger)}
	if path, err := transcriptPath(cfg); err == nil {
		// The web server may hold the file; the chat still works without an archive.
		if db, err := services.NewBoltDB(path); err == nil {
			defer db.Close()
			opts = append(opts, chat.WithRecorder(db))
		} else {
			slogger.Warn("Transcripts disabled", slog.String("err", err.Error()))
		}
	}

	ctrl := chat.NewController(services.NewTracking(cfg.APIURL, slogger), opts...)

	p := tea.NewProgram(
		tui.NewModel(ctrl, tui.WithLogger(slogger)),
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
