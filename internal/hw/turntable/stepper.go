package turntable

import (
	"context"
	"errors"
	"time"

	"github.com/cjeanneret/v2scan/internal/hw/gpio"
	"github.com/cjeanneret/v2scan/internal/logic/motion"
)

// Stepper rotates a turntable driven directly by a stepper motor.
type Stepper struct {
	ctrl   *motion.Controller
	gpio   gpio.Driver
	settle time.Duration
}

// NewStepper returns a Stepper over ctrl. drv is closed with the rotator.
func NewStepper(ctrl *motion.Controller, drv gpio.Driver, settleDelay time.Duration) *Stepper {
	return &Stepper{ctrl: ctrl, gpio: drv, settle: settleDelay}
}

func (s *Stepper) Rotate(ctx context.Context, angle int) error {
	if err := s.ctrl.EnableMotor(); err != nil {
		return &RotationError{Angle: angle, Err: err}
	}
	if err := s.ctrl.MoveToAngle(ctx, angle); err != nil {
		return &RotationError{Angle: angle, Err: err}
	}
	return settle(ctx, s.settle)
}

// Close releases the motor and the GPIO lines.
func (s *Stepper) Close() error {
	return errors.Join(s.ctrl.DisableMotor(), s.gpio.Close())
}
