// Package stepper drives the turntable's stepper motor through an A4988
// style STEP/DIR/ENABLE driver board.
package stepper

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/gpio"
)

// Config holds the hardware configuration for a stepper motor.
type Config struct {
	StepPin   int
	DirPin    int
	EnablePin int           // ENABLE pin (BCM). 0 = not used. Active LOW.
	StepDelay time.Duration // half-cycle of the STEP pulse. 0 = 1ms.
}

// Stepper moves a stepper motor by a signed number of steps.
type Stepper struct {
	gpio  gpio.Driver
	cfg   Config
	delay time.Duration
}

// NewStepper configures the pins of the motor and enables the driver.
func NewStepper(g gpio.Driver, cfg Config) (*Stepper, error) {
	pins := []int{cfg.StepPin, cfg.DirPin}
	if cfg.EnablePin > 0 {
		pins = append(pins, cfg.EnablePin)
	}
	for _, pin := range pins {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup pin %d: %w", pin, err)
		}
	}

	delay := cfg.StepDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	s := &Stepper{gpio: g, cfg: cfg, delay: delay}
	if err := s.Enable(); err != nil {
		return nil, err
	}
	return s, nil
}

// MoveSteps moves the motor by steps, forward when positive. The move stops
// between two pulses when ctx is done and the number of steps actually
// made, signed like steps, is returned with ctx's error.
func (s *Stepper) MoveSteps(ctx context.Context, steps int) (int, error) {
	if steps == 0 {
		return 0, nil
	}

	dirLevel, sign := gpio.High, 1
	if steps < 0 {
		dirLevel, sign = gpio.Low, -1
		steps = -steps
	}
	debug.Trace("Stepper: %d steps, dir %v, step pin %d", steps, dirLevel, s.cfg.StepPin)

	if err := s.gpio.WritePin(s.cfg.DirPin, dirLevel); err != nil {
		return 0, err
	}
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return sign * i, err
		}
		if err := s.pulse(); err != nil {
			return sign * i, err
		}
	}
	return sign * steps, nil
}

func (s *Stepper) pulse() error {
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
		return err
	}
	time.Sleep(s.delay)
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.Low); err != nil {
		return err
	}
	time.Sleep(s.delay)
	return nil
}

// Enable powers the motor coils (ENABLE=LOW) so the turntable holds its
// position.
func (s *Stepper) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable releases the coils (ENABLE=HIGH).
func (s *Stepper) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}
