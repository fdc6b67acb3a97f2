package geometry

import (
	"github.com/cjeanneret/v2scan/internal/config"
)

// StepsCalculator converts turntable angles to motor step counts.
type StepsCalculator struct {
	stepsPerDegree float64
}

// NewStepsCalculator creates a step calculator for the turntable motor.
func NewStepsCalculator(cfg config.StepperConfig) *StepsCalculator {
	microstepsPerRev := float64(cfg.StepsPerRev * cfg.Microstepping)
	return &StepsCalculator{
		stepsPerDegree: microstepsPerRev / 360.0,
	}
}

// StepsFromAngle converts an angle (in degrees) to motor steps.
func (s *StepsCalculator) StepsFromAngle(angleDegrees float64) int {
	return int(angleDegrees * s.stepsPerDegree)
}

// StepsPerRev returns the number of motor steps in one full turn.
func (s *StepsCalculator) StepsPerRev() int {
	return s.StepsFromAngle(360)
}
