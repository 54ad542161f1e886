package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/archive"
	"github.com/pders01/ficroll/internal/config"
	"github.com/pders01/ficroll/internal/debuglog"
	"github.com/pders01/ficroll/internal/launcher"
	"github.com/pders01/ficroll/internal/metrics"
	"github.com/pders01/ficroll/internal/search"
	"github.com/pders01/ficroll/internal/server"
	"github.com/pders01/ficroll/internal/service"
	"github.com/pders01/ficroll/internal/storage"
	"github.com/pders01/ficroll/internal/tui"
	"github.com/pders01/ficroll/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath     string
	quiet          bool
	showVersion    bool
	generateConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "ficroll",
	Short: "Pick a random AO3 fic",
	Long: `ficroll picks a random work from the Archive of Our Own that matches
your tags, fandom and categories.

Run "ficroll serve" for the backend and "ficroll" for the terminal UI.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case showVersion:
			printVersion(cmd.OutOrStdout())
			return nil
		case generateConfig:
			return writeDefaultConfig(cmd.OutOrStdout())
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runTUI(cfg)
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal UI (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runTUI(cfg)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDefaultConfig(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "skip startup banner")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.Flags().BoolVar(&generateConfig, "generate-config", false, "generate default config file")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(tuiCmd, serveCmd, versionCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", tui.AppName, Version)
	fmt.Fprintln(w, "random fic picker for AO3")
	fmt.Fprintln(w, "github.com/pders01/ficroll")
}

func writeDefaultConfig(w io.Writer) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.GenerateDefaultConfig(path); err != nil {
		return fmt.Errorf("generating config: %w", err)
	}
	fmt.Fprintf(w, "Generated default configuration at: %s\n", path)
	return nil
}

// backend is the assembled server plus whatever must be closed after it.
type backend struct {
	server  *server.Server
	closers []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			debuglog.Warnf("closing: %v", err)
		}
	}
}

// newBackend wires the scraper, cache, fandom index and HTTP layer. An empty
// cache path runs without a cache; a broken index falls back to scanning the
// stored fandoms.
func newBackend(cfg *config.Config) (*backend, error) {
	b := &backend{}

	var (
		cache    service.Cache
		recorder server.FandomRecorder
		source   search.FandomSource
	)
	if cfg.Cache.Path != "" {
		store, err := storage.NewStore(cfg.Cache.Path, cfg.Cache.Timeout)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		cache, recorder, source = store, store, store
	}

	var suggester search.Suggester
	idx, err := search.NewBleveEngine(source, cfg.Cache.IndexPath)
	switch {
	case err == nil:
		b.closers = append(b.closers, idx.Close)
		suggester = idx
	case source != nil:
		debuglog.Warnf("fandom index unavailable, scanning stored fandoms: %v", err)
		suggester = search.NewEngine(source)
	default:
		debuglog.Warnf("fandom index unavailable: %v", err)
	}

	ao3 := archive.New(cfg.Archive)
	m := metrics.New()
	gen := service.NewGenerator(ao3, cache, cfg.Cache.TTL, cfg.Archive.FeedFallback, m)

	b.server = server.New(cfg.Server, server.Deps{
		Generator: gen,
		Upstream:  ao3,
		Suggester: suggester,
		Recorder:  recorder,
		Metrics:   m,
	})
	return b, nil
}

func runServe(ctx context.Context, cfg *config.Config, out io.Writer) error {
	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if level == debuglog.LevelOff {
		level = debuglog.LevelInfo
	}
	debuglog.SetupWriter(level, os.Stderr)

	if !quiet {
		tui.ShowBanner(out, Version, "listening on "+cfg.Server.Addr)
	}

	b, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- b.server.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	debuglog.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := b.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errc
}

// newTUI builds the terminal app. Preferences are optional: a locked or
// unwritable state file only costs the remembered theme.
func newTUI(cfg *config.Config) (*tui.App, func(), error) {
	baseURL, err := validation.NewBackendValidator().Validate(cfg.Client.BaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("backend url: %w", err)
	}

	cleanup := func() {}
	var prefs tui.Preferences
	if cfg.Client.StatePath != "" {
		store, err := storage.NewStore(cfg.Client.StatePath, cfg.Cache.Timeout)
		if err != nil {
			debuglog.Warnf("theme will not be remembered: %v", err)
		} else {
			prefs = store
			cleanup = func() { _ = store.Close() }
		}
	}

	app := tui.NewApp(cfg, tui.Options{
		Backend:     api.NewClient(baseURL, cfg.Client.HTTPTimeout),
		Prefs:       prefs,
		Opener:      launcher.New(cfg.Launcher),
		PrefersDark: lipgloss.HasDarkBackground,
	})
	return app, cleanup, nil
}

func runTUI(cfg *config.Config) error {
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer debuglog.Close()

	app, cleanup, err := newTUI(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
