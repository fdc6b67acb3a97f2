// Package app runs one v2scan command against a device: it owns the
// device session for the whole run and closes it on every path.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
	"github.com/cjeanneret/v2scan/internal/hw/turntable"
	"github.com/cjeanneret/v2scan/internal/logic/capture"
	"github.com/cjeanneret/v2scan/internal/logic/params"
	"github.com/cjeanneret/v2scan/internal/notify"
	"github.com/cjeanneret/v2scan/internal/output"
)

// Command is the operation requested on the command line.
type Command int

const (
	Status Command = iota
	Scan
	Image
)

func (c Command) String() string {
	switch c {
	case Status:
		return "status"
	case Scan:
		return "scan"
	case Image:
		return "image"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// ParseCommand maps a command name to a Command.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(s) {
	case "status":
		return Status, nil
	case "scan":
		return Scan, nil
	case "image":
		return Image, nil
	default:
		return 0, fmt.Errorf("unknown command: %s", s)
	}
}

// Options is everything the operator asked for. It is built once before
// Run and not modified afterwards.
type Options struct {
	Command      Command
	Request      params.Request
	DynamicRange bool
	Count        int // views, 1 = no rotation
	StartAngle   int
	Output       string // output base, "" = per-kind default
	Format       string
	StrictFormat bool // reject an unsupported format before opening the device
}

// Deps are the collaborators of a run. Run does not close them.
type Deps struct {
	SDK      camera.SDK
	Rotator  turntable.Rotator
	Notifier notify.Notifier
	Stdout   io.Writer
	RunID    string
}

// Run executes opts.Command. The device session is closed exactly once
// before Run returns, whatever the outcome.
func Run(ctx context.Context, opts Options, deps Deps) (err error) {
	if opts.Command == Image && opts.StrictFormat {
		if err := output.CheckFormat(opts.Format); err != nil {
			return err
		}
	}

	sess, err := camera.Open(deps.SDK)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	mode, para, err := params.NewNegotiator(sess.SDK()).Negotiate(opts.Request)
	if err != nil {
		return err
	}

	out := deps.Stdout
	if out == nil {
		out = os.Stdout
	}
	if opts.Command == Status {
		return PrintStatus(out, mode)
	}

	kind, err := output.ParseKind(opts.Command.String())
	if err != nil {
		return err
	}
	rotator := deps.Rotator
	if rotator == nil {
		rotator = turntable.None{}
	}
	seq := capture.NewSequence(
		capture.NewTrigger(sess, opts.DynamicRange),
		capture.NewExtractor(sess.SDK()),
		rotator,
		deps.Notifier,
	)
	seq.SetOutput(out)
	debug.Info("Run %s: %s, %d view(s)", deps.RunID, opts.Command, opts.Count)
	report, err := seq.Run(ctx, capture.Plan{
		Kind:       kind,
		Count:      opts.Count,
		StartAngle: opts.StartAngle,
		Base:       opts.Output,
		Format:     opts.Format,
		RunID:      deps.RunID,
	}, mode, para)
	if err != nil {
		return err
	}
	debug.Summary(fmt.Sprintf("%s complete: %d file(s) written", opts.Command, len(report.Written)))
	if n := len(report.Skipped); n > 0 {
		debug.Info("%d view(s) not written: unknown format %q, supported formats: %s", n, opts.Format, output.FormatTIFF)
	}
	return nil
}

// PrintStatus writes the device configuration in the operator facing
// status layout.
func PrintStatus(w io.Writer, m camera.Mode) error {
	_, err := fmt.Fprintf(w, "VividII Camera Status:\n"+
		"----------------------\n"+
		"Distance:         %dmm\n"+
		"Laser Power:      %d\n"+
		"Gain:             %d\n"+
		"RMode:            %d (%s)\n"+
		"Threshold:        %d\n"+
		"Auto Read:        %d\n"+
		"Color correction: %d\n",
		m.Distance, m.LaserPower, m.Gain, m.ReleaseMode, camera.ReleaseModeName(m.ReleaseMode), m.Threshold, m.AutoRead, m.Color)
	return err
}
