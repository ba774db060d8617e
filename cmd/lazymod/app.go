// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/invowk/lazymod/internal/config"
	"github.com/invowk/lazymod/internal/discovery"
	"github.com/invowk/lazymod/internal/interp"
	"github.com/invowk/lazymod/pkg/lazyimport"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// App is the composition root of the CLI. Command handlers receive it and
	// build the module system from its configuration provider.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		clock  interp.Clock
		flags  rootFlags
	}

	// Dependencies are the injection points of NewApp. Nil fields get the
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
		// Clock drives sleep statements.
		Clock interp.Clock
	}

	rootFlags struct {
		configPath string
		verbose    bool
		logLevel   string
		logFormat  string
		lazy       bool
		paths      []string
		eager      []string
		importTime bool
	}

	// session is the configuration of one command invocation: the loaded
	// config with command-line flags applied.
	session struct {
		cfg    *config.Config
		source string
		logger *slog.Logger
	}
)

// NewApp creates an App.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		clock:  deps.Clock,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// session loads the configuration and applies the flags the user set.
// Every failure is a usage error.
func (app *App) session(cmd *cobra.Command) (*session, error) {
	cfg, source, err := app.Config.LoadWithSource(cmd.Context(), config.LoadOptions{
		ConfigFilePath: app.flags.configPath,
	})
	if err != nil {
		return nil, usageError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("lazy") {
		cfg.LazyImports = app.flags.lazy
	}
	if flags.Changed("path") {
		cfg.SearchPaths = app.flags.paths
	}
	if flags.Changed("eager") {
		cfg.EagerModules = append(cfg.EagerModules, app.flags.eager...)
	}
	if flags.Changed("importtime") {
		cfg.ImportTime = app.flags.importTime
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = config.LogLevel(app.flags.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = config.LogFormat(app.flags.logFormat)
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, usageError(errs[0])
	}

	return &session{cfg: cfg, source: source, logger: newLogger(app.stderr, cfg.Log)}, nil
}

// runtime builds the module system described by s. The returned interpreter
// writes to the App's stdout.
func (app *App) runtime(s *session) (*lazyimport.Runtime, *discovery.Discovery, error) {
	disc := discovery.New(s.cfg.SearchPaths, discovery.WithLogger(s.logger))
	in := interp.New(
		interp.WithStdout(app.stdout),
		interp.WithStderr(app.stderr),
		interp.WithLogger(s.logger),
		interp.WithClock(app.clock),
	)

	opts := []lazyimport.Option{
		lazyimport.WithEnabled(s.cfg.LazyImports),
		lazyimport.WithLogger(s.logger),
		lazyimport.WithEagerModules(s.cfg.EagerModules...),
	}
	if s.cfg.ImportTime {
		opts = append(opts, lazyimport.WithProfiler(lazyimport.NewImportTimeWriter(app.stderr)))
	}

	rt, err := lazyimport.New(disc, in, opts...)
	if err != nil {
		return nil, nil, usageError(err)
	}
	return rt, disc, nil
}

// newLogger returns the slog logger of the CLI, backed by a charm log handler.
func newLogger(w io.Writer, c config.LogConfig) *slog.Logger {
	level, err := log.ParseLevel(string(c.Level))
	if err != nil {
		level = log.WarnLevel
	}

	formatter := log.TextFormatter
	switch c.Format {
	case config.LogFormatJSON:
		formatter = log.JSONFormatter
	case config.LogFormatLogfmt:
		formatter = log.LogfmtFormatter
	case config.LogFormatText:
	}

	return slog.New(log.NewWithOptions(w, log.Options{
		Level:     level,
		Formatter: formatter,
		Prefix:    config.AppName,
	}))
}
