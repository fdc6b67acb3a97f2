// Package turntable rotates the subject between views of a multi-view
// capture. Rotation is synchronous: Rotate returns once the table is
// expected to stand at the requested angle.
package turntable

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/v2scan/internal/config"
	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/gpio"
	"github.com/cjeanneret/v2scan/internal/hw/stepper"
	"github.com/cjeanneret/v2scan/internal/logic/geometry"
	"github.com/cjeanneret/v2scan/internal/logic/motion"
)

// Rotator turns the subject to an absolute angle in whole degrees.
type Rotator interface {
	Rotate(ctx context.Context, angle int) error
	Close() error
}

// RotationError reports a rotation the turntable could not perform.
type RotationError struct {
	Angle int
	Err   error
}

func (e *RotationError) Error() string {
	return fmt.Sprintf("rotate to %d degrees: %v", e.Angle, e.Err)
}

func (e *RotationError) Unwrap() error {
	return e.Err
}

// None is a Rotator that does nothing, for a fixed subject.
type None struct{}

func (None) Rotate(ctx context.Context, angle int) error {
	debug.Verbose("No turntable, staying put for %d degrees", angle)
	return nil
}

func (None) Close() error { return nil }

// New creates the Rotator selected by cfg.Turntable.Type.
func New(cfg *config.Config) (Rotator, error) {
	t := cfg.Turntable
	switch t.Type {
	case "exec":
		return NewExec(t.Command, cfg.SettleDelay())
	case "serial":
		return OpenSerial(t.Serial.Port, t.Serial.BaudRate, t.Serial.Command, cfg.SerialTimeout(), cfg.SettleDelay())
	case "stepper":
		drv, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
		if err != nil {
			return nil, err
		}
		s, err := stepper.NewStepper(drv, stepper.Config{
			StepPin:   t.Stepper.StepPin,
			DirPin:    t.Stepper.DirPin,
			EnablePin: t.Stepper.EnablePin,
			StepDelay: cfg.MoveSpeed() / 2,
		})
		if err != nil {
			drv.Close()
			return nil, err
		}
		ctrl := motion.NewController(s, geometry.NewStepsCalculator(t.Stepper))
		return NewStepper(ctrl, drv, cfg.SettleDelay()), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown turntable type: %s", t.Type)
	}
}

// settle waits d after a move, or until ctx is done.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	debug.Trace("Settling for %v", d)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
