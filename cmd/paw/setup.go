package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/presenter/pkg/hal"
	"github.com/gwillem/presenter/pkg/paw"
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Paw Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	known, err := hal.Names()
	if err != nil || len(known) == 0 {
		fmt.Println(dimStyle.Render("No GPIO drivers found, pin names will not be checked."))
		known = nil
	}
	validatePin := func(name string) error {
		if name == "" {
			return errors.New("pin is required")
		}
		if known != nil && !slices.Contains(known, name) {
			return fmt.Errorf("%s is not a GPIO on this host", name)
		}
		return nil
	}

	timeout := ""
	if ms := timeoutMs(cfg); ms > 0 {
		timeout = strconv.Itoa(ms)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Motor IN1 pin").
				Description("High drives the paw backward").
				Value(&cfg.MotorPin1).
				Validate(validatePin),
			huh.NewInput().
				Title("Motor IN2 pin").
				Description("High drives the paw forward").
				Value(&cfg.MotorPin2).
				Validate(validatePin),
			huh.NewInput().
				Title("Front limit switch pin").
				Value(&cfg.FrontLimitPin).
				Validate(validatePin),
			huh.NewInput().
				Title("Rear limit switch pin").
				Value(&cfg.RearLimitPin).
				Validate(validatePin),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Stroke timeout (ms)").
				Description("Applied to both directions. Leave empty for none; 'paw calibrate' can measure it.").
				Value(&timeout).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if ms, err := strconv.Atoi(s); err != nil || ms <= 0 {
						return errors.New("enter a positive number of milliseconds")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	var defs []paw.BreakerDef
	if ms, _ := strconv.Atoi(timeout); ms > 0 {
		for _, phase := range paw.Phases() {
			defs = append(defs, paw.BreakerDef{
				Type:   "TimeExpired",
				Phase:  string(phase),
				Config: paw.BreakerConfig{TotalTimeMs: ms},
			})
		}
	}
	replaceTimeouts(cfg, defs)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println(renderConfig(cfg))
	fmt.Println()
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println("Try it with: " + headerStyle.Render("paw demo"))
	return nil
}

func isTimeout(def paw.BreakerDef) bool {
	return def.Type == "TimeExpired" || def.Type == "Timeout"
}

// timeoutMs returns the longest configured timeout, or 0.
func timeoutMs(cfg *paw.Config) int {
	ms := 0
	for _, def := range cfg.Breakers {
		if isTimeout(def) {
			ms = max(ms, def.Config.TotalTimeMs)
		}
	}
	return ms
}

// replaceTimeouts swaps the configured timeout breakers for defs and keeps
// every other breaker.
func replaceTimeouts(cfg *paw.Config, defs []paw.BreakerDef) {
	kept := cfg.Breakers[:0:0]
	for _, def := range cfg.Breakers {
		if !isTimeout(def) {
			kept = append(kept, def)
		}
	}
	cfg.Breakers = append(kept, defs...)
}

func renderConfig(cfg *paw.Config) string {
	rows := [][]string{
		{"motorPin1", cfg.MotorPin1},
		{"motorPin2", cfg.MotorPin2},
		{"frontLimitPin", cfg.FrontLimitPin},
		{"rearLimitPin", cfg.RearLimitPin},
	}
	for _, def := range cfg.Breakers {
		value := def.Type
		if def.Config.TotalTimeMs > 0 {
			value = fmt.Sprintf("%s %dms", def.Type, def.Config.TotalTimeMs)
		}
		rows = append(rows, []string{"breaker/" + def.Phase, value})
	}
	return renderTable([]string{"Setting", "Value"}, rows)
}

func renderTable(headers []string, rows [][]string) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableKeyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return tableKeyStyle
			}
			return tableCellStyle
		})
	return t.Render()
}
