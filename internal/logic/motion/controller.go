// Package motion positions the turntable axis at absolute angles.
package motion

import (
	"context"
	"fmt"

	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/logic/geometry"
)

// Axis is a motor that moves by relative steps.
// *stepper.Stepper implements it.
type Axis interface {
	MoveSteps(ctx context.Context, steps int) (int, error)
	Enable() error
	Disable() error
}

// Controller tracks the absolute position of the turntable and moves it to
// requested angles. The position at creation is angle 0. Moves always turn
// forward so backlash is taken up the same way before every view.
type Controller struct {
	axis  Axis
	calc  *geometry.StepsCalculator
	steps int // current position in [0, rev)
}

func NewController(axis Axis, calc *geometry.StepsCalculator) *Controller {
	return &Controller{axis: axis, calc: calc}
}

// Position returns the current position in steps from angle 0.
func (c *Controller) Position() int {
	return c.steps
}

// MoveToAngle turns the table forward until it reaches angle degrees.
// Angles outside [0, 360) are taken modulo a full turn.
func (c *Controller) MoveToAngle(ctx context.Context, angle int) error {
	rev := c.calc.StepsPerRev()
	if rev <= 0 {
		return fmt.Errorf("turntable has %d steps per revolution", rev)
	}
	target := mod(c.calc.StepsFromAngle(float64(mod(angle, 360))), rev)
	delta := mod(target-c.steps, rev)
	debug.Verbose("Turntable: %d -> %d steps (%d degrees)", c.steps, target, angle)

	moved, err := c.axis.MoveSteps(ctx, delta)
	c.steps = mod(c.steps+moved, rev)
	if err != nil {
		return fmt.Errorf("move to %d degrees: %w", angle, err)
	}
	return nil
}

// EnableMotor powers the axis so it holds position.
func (c *Controller) EnableMotor() error {
	return c.axis.Enable()
}

// DisableMotor lets the axis freewheel.
func (c *Controller) DisableMotor() error {
	return c.axis.Disable()
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
