package motion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cjeanneret/v2scan/internal/config"
	"github.com/cjeanneret/v2scan/internal/hw/gpio"
	"github.com/cjeanneret/v2scan/internal/hw/stepper"
	"github.com/cjeanneret/v2scan/internal/logic/geometry"
)

// fakeAxis records relative moves.
type fakeAxis struct {
	moves   []int
	enabled bool
	stopAt  int // when > 0, moves are cut to this many steps and fail
}

func (a *fakeAxis) MoveSteps(ctx context.Context, steps int) (int, error) {
	a.moves = append(a.moves, steps)
	if a.stopAt > 0 && steps > a.stopAt {
		return a.stopAt, context.Canceled
	}
	return steps, nil
}

func (a *fakeAxis) Enable() error  { a.enabled = true; return nil }
func (a *fakeAxis) Disable() error { a.enabled = false; return nil }

// 360 steps per revolution: one step per degree
var degreeCalc = geometry.NewStepsCalculator(config.StepperConfig{StepsPerRev: 360, Microstepping: 1})

func TestController_MoveToAngle_Forward(t *testing.T) {
	axis := &fakeAxis{}
	ctrl := NewController(axis, degreeCalc)
	ctx := context.Background()

	for _, angle := range []int{0, 90, 180, 270} {
		if err := ctrl.MoveToAngle(ctx, angle); err != nil {
			t.Fatalf("MoveToAngle(%d): %v", angle, err)
		}
	}
	if diff := cmp.Diff([]int{0, 90, 90, 90}, axis.moves); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}
	if ctrl.Position() != 270 {
		t.Errorf("position = %d", ctrl.Position())
	}
}

func TestController_MoveToAngle_WrapsForward(t *testing.T) {
	axis := &fakeAxis{}
	ctrl := NewController(axis, degreeCalc)
	ctx := context.Background()

	ctrl.MoveToAngle(ctx, 300)
	ctrl.MoveToAngle(ctx, 420) // 60 degrees, past a full turn
	ctrl.MoveToAngle(ctx, -30) // 330 degrees

	if diff := cmp.Diff([]int{300, 120, 270}, axis.moves); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}
	if ctrl.Position() != 330 {
		t.Errorf("position = %d", ctrl.Position())
	}
}

func TestController_MoveToAngle_PartialMoveKeepsPosition(t *testing.T) {
	axis := &fakeAxis{stopAt: 40}
	ctrl := NewController(axis, degreeCalc)

	err := ctrl.MoveToAngle(context.Background(), 90)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	if ctrl.Position() != 40 {
		t.Errorf("position = %d, want 40", ctrl.Position())
	}
}

func TestController_EnableDisable(t *testing.T) {
	axis := &fakeAxis{}
	ctrl := NewController(axis, degreeCalc)
	if err := ctrl.EnableMotor(); err != nil || !axis.enabled {
		t.Errorf("EnableMotor: %v enabled=%v", err, axis.enabled)
	}
	if err := ctrl.DisableMotor(); err != nil || axis.enabled {
		t.Errorf("DisableMotor: %v enabled=%v", err, axis.enabled)
	}
}

func TestController_WithStepper(t *testing.T) {
	drv := gpio.NewMockDriver()
	s, err := stepper.NewStepper(drv, stepper.Config{
		StepPin:   1,
		DirPin:    2,
		EnablePin: 3,
		StepDelay: time.Microsecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	calc := geometry.NewStepsCalculator(config.StepperConfig{StepsPerRev: 200, Microstepping: 1})
	ctrl := NewController(s, calc)

	if err := ctrl.MoveToAngle(context.Background(), 90); err != nil {
		t.Fatalf("MoveToAngle: %v", err)
	}
	if ctrl.Position() != 50 {
		t.Errorf("position = %d, want 50", ctrl.Position())
	}
	if lvl, _ := drv.ReadPin(2); lvl != gpio.High {
		t.Error("direction pin should be HIGH for a forward move")
	}
}
