package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gwillem/presenter/pkg/paw"
)

type PresentCommand struct{}

func (c *PresentCommand) Execute(args []string) error {
	return runMotions(paw.Present)
}

type RetractCommand struct{}

func (c *RetractCommand) Execute(args []string) error {
	return runMotions(paw.Retract)
}

type ResetCommand struct{}

func (c *ResetCommand) Execute(args []string) error {
	ctrl, err := openPaw()
	if err != nil {
		return err
	}
	ctx, stop := interruptible()
	defer stop()
	return timed(ctx, "reset", ctrl.RetractContext)
}

type DemoCommand struct {
	Cycles int           `long:"cycles" default:"3" description:"Number of present/retract cycles"`
	Pause  time.Duration `long:"pause" default:"1s" description:"Pause between motions"`
}

func (c *DemoCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Paw Demo"))
	fmt.Println(dimStyle.Render("━━━━━━━━"))

	phases := []paw.Phase{paw.Retract}
	for i := 0; i < c.Cycles; i++ {
		phases = append(phases, paw.Present, paw.Retract)
	}

	ctrl, err := openPaw()
	if err != nil {
		return err
	}
	ctx, stop := interruptible()
	defer stop()
	for i, phase := range phases {
		if i > 0 {
			select {
			case <-time.After(c.Pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := move(ctx, ctrl, phase); err != nil {
			return err
		}
	}
	fmt.Println(successStyle.Render("Demo complete."))
	return nil
}

func runMotions(phases ...paw.Phase) error {
	ctrl, err := openPaw()
	if err != nil {
		return err
	}
	ctx, stop := interruptible()
	defer stop()
	for _, phase := range phases {
		if err := move(ctx, ctrl, phase); err != nil {
			return err
		}
	}
	return nil
}

// interruptible returns a context cancelled by Ctrl-C, so an interrupted
// motion halts the motor instead of leaving it driven.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func move(ctx context.Context, ctrl *paw.Controller, phase paw.Phase) error {
	if phase == paw.Retract {
		return timed(ctx, string(phase), ctrl.RetractContext)
	}
	return timed(ctx, string(phase), ctrl.PresentContext)
}

// timed runs a motion and prints its stop cause and duration.
func timed(ctx context.Context, label string, motion func(context.Context) (paw.Breaker, error)) error {
	start := time.Now()
	cause, err := motion(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		fmt.Printf("%-8s %s\n", label, errorStyle.Render(err.Error()))
		return err
	}
	fmt.Printf("%-8s stopped by %s %s\n", label, successStyle.Render(paw.Describe(cause)), dimStyle.Render(elapsed.String()))
	return nil
}
