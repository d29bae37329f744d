// Package cli implements the cachectl command tree.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/cacheaspect"
	"github.com/unkn0wn-root/cacheaspect/config"
	zapadapter "github.com/unkn0wn-root/cacheaspect/log/zap"
)

type App struct {
	root    *cobra.Command
	stdout  io.Writer
	stderr  io.Writer
	cfgPath string
	verbose bool
}

func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "cachectl",
		Short: "Inspect and edit cacheaspect entries",
		Long: `cachectl resolves cache keys the way wrapped functions do and reads,
evicts or updates the entries behind them. Settings come from --config and
CACHEASPECT_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.root.PersistentFlags().StringVarP(&app.cfgPath, "config", "c", "", "config file (yaml, json or toml)")
	app.root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "debug logging to stderr")

	app.root.AddCommand(
		app.newKeyCmd(),
		app.newGetCmd(),
		app.newEvictCmd(),
		app.newCounterCmd("incr", "Increment a counter", 1),
		app.newCounterCmd("decr", "Decrement a counter", -1),
		app.newBloomCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) loadConfig() (*config.Config, error) {
	return config.Load(a.cfgPath)
}

func (a *App) logger() *zap.Logger {
	if !a.verbose {
		return zap.NewNop()
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(a.stderr), zapcore.DebugLevel))
}

// withAspect opens the configured cache for the duration of fn.
func (a *App) withAspect(ctx context.Context, fn func(*cacheaspect.Aspect) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	log := a.logger()
	defer func() { _ = log.Sync() }()

	asp, err := cfg.NewAspect(ctx, zapadapter.New(log), nil)
	if err != nil {
		return err
	}
	defer asp.Close(ctx)
	log.Debug("cache opened", zap.String("backend", cfg.Backend), zap.String("codec", cfg.Codec))
	return fn(asp)
}
