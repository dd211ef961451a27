// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"legallens/internal/config"
	"legallens/internal/core"
	"legallens/internal/logging"
	"legallens/internal/observability"
	"legallens/internal/research"
	"legallens/internal/store"
	"legallens/internal/version"
)

// app carries the state shared by every command once flags are parsed.
type app struct {
	configFile string
	profile    string
	logLevel   string
	logFormat  string
	debug      bool
	noColor    bool

	cfg      *config.Config
	logger   *slog.Logger
	observer observability.Observer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "legallens",
		Short: "Score legal documents for unfair terms",
		Long: `legallens analyzes terms of service, privacy policies and EULAs for risky
clauses such as mandatory arbitration, broad data use and liability waivers,
checks which regulatory frameworks they reference and produces a fairness
score out of 100 with recommendations.

Model-written summaries use an OpenAI-compatible endpoint (NVIDIA_API_KEY by
default). Without a key the rule-based analysis still runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.Version = version.Short()

	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "", "Config file (default: ./legallens.yaml or the user config directory)")
	f.StringVar(&a.profile, "profile", "", "Configuration profile to apply (e.g. offline, ci)")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	f.BoolVar(&a.debug, "debug", false, "Enable debug logging and operation timing")
	f.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newAnalyzeCmd(a),
		newChatCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newTaxonomyCmd(a),
		newPrecedentsCmd(a),
		newSearchCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads secrets and configuration, applies the profile and configures
// logging.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadSecrets(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	if a.configFile != "" {
		cfg, err := config.LoadConfig(a.configFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else {
		a.cfg = config.LoadConfigOrDefault("")
	}
	if err := a.cfg.ApplyProfile(a.profile); err != nil {
		return err
	}

	levelName := a.cfg.Defaults.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	debug := a.debug || a.cfg.Defaults.Debug
	if debug {
		level = slog.LevelDebug
	}
	format := a.cfg.Defaults.LogFormat
	if a.logFormat != "" {
		format = a.logFormat
	}
	logging.Init(level, format, cmd.ErrOrStderr())
	a.logger = logging.New("cli")

	switch {
	case debug:
		a.observer = observability.NewDebugObserver(cmd.ErrOrStderr())
	case a.cfg.Defaults.Verbose:
		a.observer = observability.NewStandardObserver(observability.ObservabilityMetrics, a.logger)
	default:
		a.observer = observability.Nop{}
	}

	if a.colorDisabled(cmd.OutOrStdout()) {
		color.NoColor = true
	}
	return nil
}

// colorDisabled reports whether output to w should be plain text.
func (a *app) colorDisabled(w io.Writer) bool {
	return a.noColor || a.cfg.Defaults.NoColor || os.Getenv("NO_COLOR") != "" || !isTerminal(w)
}

func (a *app) analyzer() (*core.Analyzer, error) {
	return core.NewAnalyzerFromConfig(a.cfg, logging.New("core"), a.observer)
}

func (a *app) research() *research.Service {
	return research.NewServiceFromConfig(a.cfg.Research, logging.New("research"))
}

// openStore opens the history database, or returns nil when history is
// disabled.
func (a *app) openStore() (*store.Store, error) {
	if !a.cfg.Store.Enabled {
		return nil, nil
	}
	s, err := store.Open(a.cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", a.cfg.StorePath(), err)
	}
	return s, nil
}

// requireStore is openStore for commands that cannot work without history.
func (a *app) requireStore() (*store.Store, error) {
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("analysis history is disabled (store.enabled is false)")
	}
	return s, nil
}

// isTerminal checks if w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
