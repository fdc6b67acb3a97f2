package turntable

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cjeanneret/v2scan/internal/debug"
)

// AngleArg is replaced by the requested angle in an Exec command line.
const AngleArg = "{angle}"

// Exec rotates by running an external turntable tool, e.g.
// stage.exe -r {angle}, and waiting for it to exit.
type Exec struct {
	argv   []string
	settle time.Duration
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewExec returns an Exec running argv. settleDelay is waited after the
// tool exits.
func NewExec(argv []string, settleDelay time.Duration) (*Exec, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("turntable command is empty")
	}
	return &Exec{argv: argv, settle: settleDelay, run: runCommand}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Command returns the command line run for angle.
func (e *Exec) Command(angle int) []string {
	a := strconv.Itoa(angle)
	out := make([]string, len(e.argv))
	for i, arg := range e.argv {
		out[i] = strings.ReplaceAll(arg, AngleArg, a)
	}
	return out
}

func (e *Exec) Rotate(ctx context.Context, angle int) error {
	argv := e.Command(angle)
	debug.Verbose("Running %s", strings.Join(argv, " "))
	out, err := e.run(ctx, argv[0], argv[1:]...)
	if len(out) > 0 {
		debug.Trace("%s: %s", argv[0], strings.TrimSpace(string(out)))
	}
	if err != nil {
		return &RotationError{Angle: angle, Err: fmt.Errorf("%s: %w", argv[0], err)}
	}
	return settle(ctx, e.settle)
}

func (e *Exec) Close() error { return nil }
