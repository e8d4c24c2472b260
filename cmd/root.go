package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/desktop-intent/internal/automation"
	"github.com/mj1618/desktop-intent/internal/config"
	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/logging"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/output"
	"github.com/mj1618/desktop-intent/internal/platform"
	"github.com/mj1618/desktop-intent/internal/version"
	"github.com/spf13/cobra"
)

// cfg is the effective configuration, loaded before every command runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "desktop-intent",
	Short: "Find and operate desktop UI elements by intent",
	Long: `A CLI and MCP server that lets AI agents find desktop UI elements by name,
type or id and operate them through native accessibility patterns, with
synthetic keyboard and mouse input as the fallback.

Every command prints one result with success, error_kind and diagnostics.`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the context so
// polling stops and held keys are released on the way out.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (YAML); defaults to $"+config.EnvConfigFile)
	flags.String("backend", "", "Automation backend: native or fake")
	flags.String("format", "", "Output format: yaml, json")
	flags.Bool("pretty", false, "Indent JSON output")
	flags.String("log-level", "", "Log level: debug, info, warn, error, disabled")
	flags.String("window", "", "Scope to the window whose title contains this text")
	flags.String("process", "", "Scope to windows of this process")
	flags.String("window-handle", "", "Scope to this window handle (decimal or 0x hex)")
	rootCmd.PersistentPreRunE = loadConfig
}

// loadConfig layers flags over the config file, .env and environment, then
// applies logging and output settings.
func loadConfig(cmd *cobra.Command, _ []string) error {
	flags := rootCmd.PersistentFlags()
	path, _ := flags.GetString("config")
	loaded, err := config.LoadPath(path)
	if err != nil {
		return err
	}
	if v, _ := flags.GetString("backend"); v != "" {
		loaded.Backend = v
	}
	if v, _ := flags.GetString("format"); v != "" {
		loaded.Format = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		loaded.LogLevel = v
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	logging.Init(logging.Config{Level: cfg.LogLevel, Console: cfg.LogFormat == "console"})
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	output.OutputFormat = format
	if pretty, _ := flags.GetBool("pretty"); pretty {
		output.PrettyOutput = true
	}
	logging.Debug("cmd").Str("command", cmd.Name()).Str("backend", cfg.Backend).Msg("config loaded")
	return nil
}

// serviceOptions maps the configuration onto the engine options.
func serviceOptions(c *config.Config) automation.Options {
	return automation.Options{
		QueueDepth:     c.QueueDepth,
		PollInitial:    c.PollInitial,
		PollMax:        c.PollMax,
		ScrollMaxPages: c.ScrollMaxPages,
		ScrollSettle:   c.ScrollSettle,
		TextMaxDepth:   c.TextMaxDepth,
		TextMaxBytes:   c.TextMaxBytes,
		Input: []input.Option{
			input.WithRateLimit(c.InputRate),
			input.WithChunkSize(c.TypeChunkSize),
			input.WithChunkDelay(c.TypeChunkDelay),
		},
	}
}

// newService opens the configured backend.
func newService() (*automation.Service, error) {
	prov, err := platform.NewProviderNamed(cfg.Backend)
	if err != nil {
		return nil, model.Wrap(model.KindEnvironmentBlocked, err, "backend %q", cfg.Backend)
	}
	return automation.New(prov, serviceOptions(cfg))
}

// scopeDefaults returns the window scope set by the root flags.
func scopeDefaults() params {
	p := params{}
	flags := rootCmd.PersistentFlags()
	if v, _ := flags.GetString("window"); v != "" {
		p["window"] = v
	}
	if v, _ := flags.GetString("process"); v != "" {
		p["process"] = v
	}
	if v, _ := flags.GetString("window-handle"); v != "" {
		p["window_handle"] = v
	}
	return p
}

// runStep executes one step for a CLI command and prints the result. A
// failed result is printed too and turns into a non-zero exit.
func runStep(cmd *cobra.Command, name string, p params) error {
	svc, err := newService()
	if err != nil {
		res := failed(err)
		_ = output.Print(res)
		return err
	}
	defer svc.Close(cfg.CloseTimeout)

	e := &executor{svc: svc, defaults: scopeDefaults()}
	res := e.run(cmd.Context(), name, p)
	if err := output.Print(res); err != nil {
		return err
	}
	return res.Err()
}
