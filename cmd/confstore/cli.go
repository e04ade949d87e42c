package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/confstore/internal/application"
	"github.com/eugenenazirov/confstore/internal/argv"
	"github.com/eugenenazirov/confstore/internal/config"
	"github.com/eugenenazirov/confstore/internal/schema"
)

type cli struct {
	app *kingpin.Application

	schemaPath *string
	configPath *string
	lax        *bool
	debug      *bool
	sets       *[]string
	appends    *[]string

	template        *kingpin.CmdClause
	templateOutput  *string
	running         *kingpin.CmdClause
	runningFull     *bool
	runningOutput   *string
	get             *kingpin.CmdClause
	getName         *string
	describe        *kingpin.CmdClause
	describePrefix  *string
	check           *kingpin.CmdClause
	serve           *kingpin.CmdClause
	servePort       *string
	serveConfig     *string
	serveLogging    *bool
	serveLoggingSet bool
	serveRPS        *float64
	serveBurst      *int
}

func newCLI() *cli {
	c := &cli{}
	c.app = kingpin.New("confstore", "Runtime configuration store - loads settings from a schema, config files and overrides, then renders or serves them")

	c.schemaPath = c.app.Flag("schema", "Path to the YAML settings schema").Required().ExistingFile()
	c.configPath = c.app.Flag("config", "Configuration file to load (may use include-dir)").String()
	c.lax = c.app.Flag("lax", "Tolerate unknown settings and suppress deprecation warnings").Bool()
	c.debug = c.app.Flag("debug", "Enable debug logging").Bool()
	c.sets = c.app.Flag("set", "Override a setting, as name=value (repeatable)").Short('s').PlaceHolder("NAME=VALUE").Strings()
	c.appends = c.app.Flag("set-append", "Append to a setting, as name=value (repeatable)").Short('a').PlaceHolder("NAME=VALUE").Strings()

	c.template = c.app.Command("template", "Print a commented configuration template with all defaults")
	c.templateOutput = c.template.Flag("output", "Write to this file instead of stdout").Short('o').String()

	c.running = c.app.Command("running", "Print the configuration as currently loaded")
	c.runningFull = c.running.Flag("full", "Include every setting, not only changed ones").Bool()
	c.runningOutput = c.running.Flag("output", "Write to this file instead of stdout").Short('o').String()

	c.get = c.app.Command("get", "Print the value of one setting")
	c.getName = c.get.Arg("name", "Setting name").Required().String()

	c.describe = c.app.Command("describe", "Describe settings whose name starts with a prefix")
	c.describePrefix = c.describe.Arg("prefix", "Name prefix; empty describes everything").String()

	c.check = c.app.Command("check", "Load the configuration and report problems")

	c.serve = c.app.Command("serve", "Serve the loaded configuration read-only over HTTP")
	c.servePort = c.serve.Flag("port", "HTTP port exposed by the inspection server").String()
	c.serveConfig = c.serve.Flag("server-config", "Path to YAML inspection server configuration").String()
	c.serveLogging = c.serve.Flag("request-logging", "Emit access logs").IsSetByUser(&c.serveLoggingSet).Bool()
	c.serveRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.serveBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	return c
}

func (c *cli) run(command string, stdout io.Writer, logger *zap.Logger) error {
	switch command {
	case c.template.FullCommand():
		store, err := c.schemaStore(logger)
		if err != nil {
			return err
		}
		out, err := store.ConfigString(false, false)
		if err != nil {
			return err
		}
		return emit(stdout, *c.templateOutput, out)

	case c.running.FullCommand():
		store, err := c.loadStore(logger)
		if err != nil {
			return err
		}
		out, err := store.ConfigString(true, *c.runningFull)
		if err != nil {
			return err
		}
		return emit(stdout, *c.runningOutput, out)

	case c.get.FullCommand():
		store, err := c.loadStore(logger)
		if err != nil {
			return err
		}
		value, err := store.Value(*c.getName)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, value)
		return err

	case c.describe.FullCommand():
		store, err := c.schemaStore(logger)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, store.HelpString(*c.describePrefix))
		return err

	case c.check.FullCommand():
		return c.runCheck(stdout, logger)

	case c.serve.FullCommand():
		return c.runServe(logger)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (c *cli) runCheck(stdout io.Writer, logger *zap.Logger) error {
	store, err := c.loadStore(logger)
	if err != nil {
		return err
	}
	if _, err := store.ConfigString(true, true); err != nil {
		return err
	}

	for _, name := range store.List() {
		if alternative := argv.Deprecated(name); alternative != "" && !store.IsEmpty(name) {
			fmt.Fprintf(stdout, "deprecated: '%s', use '%s' instead\n", name, alternative)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(store.Unknown())) {
		fmt.Fprintf(stdout, "ignored unknown setting: '%s'\n", name)
	}
	_, err = fmt.Fprintln(stdout, "configuration OK")
	return err
}

func (c *cli) runServe(logger *zap.Logger) error {
	store, err := c.loadStore(logger)
	if err != nil {
		return err
	}
	store.Seal()
	snap, err := store.Snapshot()
	if err != nil {
		return err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *c.serveConfig,
	}
	if *c.servePort != "" {
		overrides.Port = c.servePort
	}
	if c.serveLoggingSet {
		overrides.EnableRequestLogging = c.serveLogging
	}
	if *c.serveRPS >= 0 {
		overrides.RateLimitRPS = c.serveRPS
	}
	if *c.serveBurst >= 0 {
		overrides.RateLimitBurst = c.serveBurst
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	app, err := application.New(cfg, snap, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return shutdown(app, cfg.ShutdownGracePeriod, logger)
}

// schemaStore builds a store holding only the schema's settings and defaults.
func (c *cli) schemaStore(logger *zap.Logger) (*argv.Store, error) {
	s, err := schema.Load(*c.schemaPath)
	if err != nil {
		return nil, err
	}
	store := argv.New(argv.WithLogger(logger))
	s.Apply(store)
	return store, nil
}

// loadStore applies the schema, then the configuration file, then command-line overrides.
func (c *cli) loadStore(logger *zap.Logger) (*argv.Store, error) {
	store, err := c.schemaStore(logger)
	if err != nil {
		return nil, err
	}

	if *c.configPath != "" {
		found, err := store.File(*c.configPath, *c.lax)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("unable to open configuration file %s", *c.configPath)
		}
	}

	tokens, err := overrideTokens(*c.sets, *c.appends)
	if err != nil {
		return nil, err
	}
	if err := store.Parse(tokens, *c.lax); err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		zap.Int("settings", len(store.List())),
		zap.Int("overrides", len(tokens)),
	)
	return store, nil
}

// overrideTokens turns name=value flags into store tokens. Assignments come before
// appends so that -s x= -a x=y clears and then extends.
func overrideTokens(sets, appends []string) ([]string, error) {
	tokens := make([]string, 0, len(sets)+len(appends))
	for _, kv := range sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", kv)
		}
		tokens = append(tokens, "--"+name+"="+value)
	}
	for _, kv := range appends {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set-append %q, expected name=value", kv)
		}
		tokens = append(tokens, "--"+name+"+="+value)
	}
	return tokens, nil
}

func emit(stdout io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
