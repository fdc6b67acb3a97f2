// Package capture runs the capture cycle of a session: release, readout,
// image extraction and file output, repeated over the turntable views.
package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
	"github.com/cjeanneret/v2scan/internal/hw/turntable"
	"github.com/cjeanneret/v2scan/internal/logic/geometry"
	"github.com/cjeanneret/v2scan/internal/notify"
	"github.com/cjeanneret/v2scan/internal/output"
)

// Plan describes a capture run.
type Plan struct {
	Kind       output.Kind
	Count      int    // number of views, 1 = no rotation
	StartAngle int    // turntable angle of the first view
	Base       string // output base, "" = per-kind default
	Format     string // raster format for images
	RunID      string
}

// Report lists what a run produced.
type Report struct {
	Written []string
	// Skipped holds the views captured but not written because their
	// format is not supported.
	Skipped []error
}

// Sequence runs capture plans on one device session.
type Sequence struct {
	trigger   *Trigger
	extractor *Extractor
	rotator   turntable.Rotator
	notifier  notify.Notifier
	out       io.Writer
	now       func() time.Time
}

func NewSequence(t *Trigger, x *Extractor, r turntable.Rotator, n notify.Notifier) *Sequence {
	if n == nil {
		n = notify.Nop{}
	}
	return &Sequence{
		trigger:   t,
		extractor: x,
		rotator:   r,
		notifier:  n,
		out:       os.Stdout,
		now:       time.Now,
	}
}

// SetOutput sets where the per-view results are printed. They are printed
// whatever the debug level.
func (s *Sequence) SetOutput(w io.Writer) {
	s.out = w
}

// Run captures plan.Count views. With more than one view the turntable is
// turned to each view's angle before its release. Device, rotation and
// output failures end the run; an unsupported image format only skips the
// file of that view. ctx is checked between views.
func (s *Sequence) Run(ctx context.Context, plan Plan, mode camera.Mode, para camera.ImportPara) (Report, error) {
	var report Report
	if plan.Count < 1 {
		return report, fmt.Errorf("capture count must be at least 1, got %d", plan.Count)
	}

	angles := geometry.Schedule(plan.Count, plan.StartAngle)
	files := output.Filenames(plan.Kind, plan.Base, plan.Format, plan.Count)
	if plan.Count > 1 {
		debug.Plan(plan.Count, plan.StartAngle, geometry.StepAngle(plan.Count))
	}

	for i := range angles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		debug.Shot(i+1, plan.Count, files[i])

		if plan.Count > 1 {
			debug.Rotate(angles[i])
			if err := s.rotator.Rotate(ctx, angles[i]); err != nil {
				return report, err
			}
		}

		rec, err := s.trigger.Release(mode)
		if err != nil {
			return report, err
		}
		debug.Live("Captured view %d/%d", i+1, plan.Count)

		switch plan.Kind {
		case output.Scan:
			err = output.WriteVolume(files[i], rec.Range)
		case output.Image:
			var img *camera.Image
			img, err = s.extractor.Extract(rec, para)
			if err != nil {
				return report, err
			}
			if ferr := output.CheckFormat(plan.Format); ferr != nil {
				fmt.Fprintf(s.out, "View %d/%d not written: %v\n", i+1, plan.Count, ferr)
				report.Skipped = append(report.Skipped, ferr)
				continue
			}
			err = output.WriteTIFF(files[i], img)
		default:
			err = fmt.Errorf("unknown output kind %v", plan.Kind)
		}
		if err != nil {
			return report, err
		}
		fmt.Fprintf(s.out, "Wrote %s ...\n", files[i])
		report.Written = append(report.Written, files[i])

		s.publish(notify.Event{
			RunID: plan.RunID,
			Kind:  plan.Kind.String(),
			Index: i + 1,
			Count: plan.Count,
			Angle: angles[i],
			File:  files[i],
			Time:  s.now(),
		})
	}
	return report, nil
}

func (s *Sequence) publish(ev notify.Event) {
	if err := s.notifier.Publish(ev); err != nil {
		debug.Error(fmt.Errorf("publish %s: %w", ev.File, err))
	}
}
