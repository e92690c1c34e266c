package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/specialistvlad/extreg/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	exitFailure = 1
	exitUsage   = 2

	defaultConfigFile = "extreg.yaml"
	envPrefix         = "EXTREG"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: exitUsage, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) *ExitError {
	return &ExitError{Code: exitFailure, Message: fmt.Sprintf(format, args...)}
}

// Execute runs the command line in args. Command output goes to outW, logs
// and help for bad invocations to errW. Every returned error is an
// *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra reports itself is a flag or argument problem.
	return &ExitError{Code: exitUsage, Message: err.Error()}
}

// rootOptions carries the state shared by every subcommand.
type rootOptions struct {
	v          *viper.Viper
	configFile string
	outW       io.Writer
	errW       io.Writer
}

// NewRootCommand builds the extreg command tree. Each call gets its own viper
// instance so commands can be built and run side by side in tests.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	o := &rootOptions{v: viper.New(), outW: outW, errW: errW}

	root := &cobra.Command{
		Use:   "extreg",
		Short: "Resolve resource descriptors into a validated dependency graph",
		Long: `extreg loads resource descriptors from HCL, YAML, TOML, JSON and CUE files,
validates them against the installed extensions and publishes an immutable,
dependency-ordered resource graph.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	defaults := app.DefaultConfig()
	flags := root.PersistentFlags()
	flags.StringVarP(&o.configFile, "config", "c", "", "config file (default: ./"+defaultConfigFile+" when present)")
	flags.String("log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	flags.String("log-format", defaults.LogFormat, "log format: text, json or pretty")
	flags.Int("healthcheck-port", defaults.HealthcheckPort, "port for the HTTP endpoints, 0 disables them")
	flags.String("history", defaults.HistoryPath, "path of the snapshot history database")
	flags.Duration("cache-ttl", defaults.CacheTTL, "how long a graph is reused for unchanged descriptors")
	flags.Bool("tracing", defaults.Tracing.Enabled, "enable OpenTelemetry tracing")
	flags.String("tracing-exporter", defaults.Tracing.Exporter, "trace exporter: none, stdout or otlp")

	o.bind(flags, "log-level", "log_level")
	o.bind(flags, "log-format", "log_format")
	o.bind(flags, "healthcheck-port", "healthcheck_port")
	o.bind(flags, "history", "history_path")
	o.bind(flags, "cache-ttl", "cache_ttl")
	o.bind(flags, "tracing", "tracing.enabled")
	o.bind(flags, "tracing-exporter", "tracing.exporter")

	o.v.SetDefault("watch_debounce", defaults.WatchDebounce)
	o.v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	o.v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	o.v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	o.bindEnv()

	root.AddCommand(
		newResolveCommand(o),
		newGraphCommand(o),
		newServeCommand(o),
		newTypesCommand(o),
		newDiffCommand(o),
		newHistoryCommand(o),
	)
	return root
}

// bindEnv maps EXTREG_-prefixed variables onto config keys. AutomaticEnv
// only covers keys viper already knows, so keys without a default or a
// persistent flag are bound by name. Lists are comma separated.
func (o *rootOptions) bindEnv() {
	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	o.v.AutomaticEnv()
	for _, key := range []string{"paths", "watch"} {
		_ = o.v.BindEnv(key)
	}
}

// bind maps the named flag onto a config key. Flags override the config
// file and the environment only when set explicitly.
func (o *rootOptions) bind(flags *pflag.FlagSet, name, key string) {
	_ = o.v.BindPFlag(key, flags.Lookup(name))
}

// readConfig layers the config file, the environment and the flags over the
// defaults. Positional args replace the configured descriptor paths.
func (o *rootOptions) readConfig(args []string) (app.Config, error) {
	cfg := app.DefaultConfig()

	file := o.configFile
	if file == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			file = defaultConfigFile
		}
	}
	if file != "" {
		o.v.SetConfigFile(file)
		if err := o.v.ReadInConfig(); err != nil {
			return cfg, usageError("failed to read config file %s: %v", file, err)
		}
	}

	if err := o.v.Unmarshal(&cfg); err != nil {
		return cfg, usageError("invalid configuration: %v", err)
	}
	if len(args) > 0 {
		cfg.Paths = args
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return cfg, nil
}

// loadConfig is readConfig followed by validation.
func (o *rootOptions) loadConfig(args []string) (*app.Config, error) {
	cfg, err := o.readConfig(args)
	if err != nil {
		return nil, err
	}
	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError("%v", err)
	}
	return validated, nil
}

// newApp builds the application for a command. Logs go to errW so that
// command output on outW stays machine readable.
func (o *rootOptions) newApp(ctx context.Context, args []string) (*app.App, error) {
	cfg, err := o.loadConfig(args)
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(ctx, o.errW, cfg, nil)
	if err != nil {
		return nil, failure("startup failed: %v", err)
	}
	return a, nil
}
