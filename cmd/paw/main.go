package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jessevdk/go-flags"

	"github.com/gwillem/presenter/pkg/hal"
	"github.com/gwillem/presenter/pkg/logging"
	"github.com/gwillem/presenter/pkg/paw"
)

var version = "dev"

type Options struct {
	Config   string `short:"c" long:"config" default:"paw.json" description:"Configuration file (.json, .yaml or .yml)"`
	LogLevel string `long:"log-level" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Override the configured log level"`

	Present   PresentCommand   `command:"present" description:"Extend the paw to the front limit"`
	Retract   RetractCommand   `command:"retract" description:"Withdraw the paw to the rear limit"`
	Reset     ResetCommand     `command:"reset" description:"Park the paw at the rear limit"`
	Demo      DemoCommand      `command:"demo" description:"Cycle the paw back and forth"`
	Calibrate CalibrateCommand `command:"calibrate" description:"Time a full stroke and suggest a timeout"`
	Setup     SetupCommand     `command:"setup" description:"Write a configuration file interactively"`
	Monitor   MonitorCommand   `command:"monitor" alias:"mon" description:"Live view of the motor and limit switches"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func main() {
	parser.LongDescription = "Presenter paw - drive the paw between its limit switches"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads the configured file, falling back to the default pins
// when it does not exist.
func loadConfig() (*paw.Config, error) {
	cfg, err := paw.LoadConfigFrom(opts.Config)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(os.Stderr, dimStyle.Render(fmt.Sprintf("No %s found, using default pins.", opts.Config)))
		cfg = paw.DefaultConfig()
	case err != nil:
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openPaw claims the configured pins and builds the controller.
func openPaw() (*paw.Controller, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Logging
	if opts.LogLevel != "" {
		logCfg.Level = opts.LogLevel
	}
	logger := logging.New(logCfg, version)

	board, err := hal.Open()
	if err != nil {
		return nil, err
	}
	ctrl, err := paw.NewFromConfig(board, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("set up paw: %w", err)
	}
	return ctrl, nil
}
