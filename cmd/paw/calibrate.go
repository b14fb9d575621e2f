package main

import (
	"fmt"
	"time"

	"github.com/gwillem/presenter/pkg/paw"
)

type CalibrateCommand struct {
	Margin float64 `long:"margin" default:"1.5" description:"Multiplier applied to the slower stroke"`
	Save   bool    `long:"save" description:"Store the suggested timeout in the configuration file"`
}

func (c *CalibrateCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Paw Calibration"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println("The paw will park, then travel to the front and back to the rear.")
	fmt.Println()

	ctrl, err := openPaw()
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()
	cal, err := paw.Calibrate(ctx, ctrl)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	suggested := cal.SuggestTimeout(c.Margin)

	fmt.Println(renderTable([]string{"Stroke", "Time"}, [][]string{
		{"present", cal.Present.Round(time.Millisecond).String()},
		{"retract", cal.Retract.Round(time.Millisecond).String()},
		{"timeout", suggested.String()},
	}))
	fmt.Println()

	if !c.Save {
		fmt.Println("Store it with: " + headerStyle.Render("paw calibrate --save"))
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	replaceTimeouts(cfg, cal.TimeoutBreakers(c.Margin))
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Timeout of %s saved to %s", suggested, opts.Config)))
	return nil
}
