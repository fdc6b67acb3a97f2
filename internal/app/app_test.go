package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cjeanneret/v2scan/internal/config"
	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
	"github.com/cjeanneret/v2scan/internal/hw/camera/camtest"
	"github.com/cjeanneret/v2scan/internal/logic/params"
	"github.com/cjeanneret/v2scan/internal/output"
)

type recordingRotator struct {
	angles []int
}

func (r *recordingRotator) Rotate(ctx context.Context, angle int) error {
	r.angles = append(r.angles, angle)
	return nil
}

func (r *recordingRotator) Close() error { return nil }

func scanOpts(dir string, count int) Options {
	return Options{
		Command: Scan,
		Count:   count,
		Output:  filepath.Join(dir, "view"),
		Format:  output.FormatTIFF,
	}
}

func TestParseCommand(t *testing.T) {
	for _, c := range []Command{Status, Scan, Image} {
		got, err := ParseCommand(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCommand(%q) = %v, %v", c, got, err)
		}
	}
	if _, err := ParseCommand("calibrate"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestRun_ScanClosesOnce(t *testing.T) {
	sdk := camtest.New()
	rot := &recordingRotator{}
	dir := t.TempDir()

	if err := Run(context.Background(), scanOpts(dir, 2), Deps{SDK: sdk, Rotator: rot}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sdk.Count("Finish") != 1 || sdk.Count("FreeData") != 1 {
		t.Errorf("teardown calls: %v", sdk.Calls)
	}
	if diff := cmp.Diff([]int{0, 180}, rot.angles); diff != "" {
		t.Errorf("angles (-want +got):\n%s", diff)
	}
	if sdk.Calls[0] != "Initialize" || sdk.Calls[1] != "ReadParameter" || sdk.Calls[2] != "WriteParameter" {
		t.Errorf("configuration must come first: %v", sdk.Calls)
	}
}

func TestRun_FaultsTearDownOnce(t *testing.T) {
	cases := []struct {
		call  string
		stage string
	}{
		{"ReadParameter", "Read Camera Mode"},
		{"WriteParameter", "Write Camera Mode"},
		{"Release", "Release"},
		{"ReadPitch", "Read Pitch"},
		{"ReadColor", "Read Color"},
	}
	for _, tc := range cases {
		t.Run(tc.call, func(t *testing.T) {
			sdk := camtest.New()
			sdk.Fail(tc.call, camera.CodeHard)
			dir := t.TempDir()

			err := Run(context.Background(), scanOpts(dir, 3), Deps{SDK: sdk, Rotator: &recordingRotator{}})
			var se *camera.StageError
			if !errors.As(err, &se) || se.Stage != tc.stage {
				t.Fatalf("got %v, want stage %q", err, tc.stage)
			}
			if code, ok := camera.CodeOf(err); !ok || code != camera.CodeHard {
				t.Errorf("code = %v, %v", code, ok)
			}
			if sdk.Count("Finish") != 1 {
				t.Errorf("Finish called %d times", sdk.Count("Finish"))
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("no file should be written, found %d", len(entries))
			}
		})
	}
}

func TestRun_Unavailable(t *testing.T) {
	sdk := camtest.New()
	sdk.Fail("Initialize", camera.CodeNotFound)
	err := Run(context.Background(), scanOpts(t.TempDir(), 1), Deps{SDK: sdk})
	if !errors.Is(err, camera.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	if sdk.Count("Finish") != 0 {
		t.Error("a device that never initialized must not be finished")
	}
}

func TestRun_FinishErrorReported(t *testing.T) {
	sdk := camtest.New()
	sdk.Fail("Finish", camera.CodeBusy)
	err := Run(context.Background(), scanOpts(t.TempDir(), 1), Deps{SDK: sdk})
	if code, _ := camera.CodeOf(err); code != camera.CodeBusy {
		t.Errorf("got %v, want the finish error", err)
	}
}

func TestRun_StatusNeverWritesOrRotates(t *testing.T) {
	sdk := camtest.New()
	rot := &recordingRotator{}
	dir := t.TempDir()
	var out bytes.Buffer

	opts := scanOpts(dir, 4)
	opts.Command = Status
	opts.Request = params.Request{Overrides: params.Overrides{Gain: params.Int(6)}}

	if err := Run(context.Background(), opts, Deps{SDK: sdk, Rotator: rot, Stdout: &out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rot.angles) != 0 {
		t.Errorf("status rotated to %v", rot.angles)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("status wrote %d files", len(entries))
	}
	if sdk.Count("Release") != 0 {
		t.Error("status must not release")
	}
	if sdk.Count("WriteParameter") != 1 {
		t.Error("status commits the negotiated mode")
	}

	want := "VividII Camera Status:\n" +
		"----------------------\n" +
		"Distance:         1200mm\n" +
		"Laser Power:      100\n" +
		"Gain:             6\n" +
		"RMode:            1 (FAST&COLOR)\n" +
		"Threshold:        512\n" +
		"Auto Read:        0\n" +
		"Color correction: 5\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("status (-want +got):\n%s", diff)
	}
}

func TestRun_StrictFormatRejectsBeforeOpen(t *testing.T) {
	sdk := camtest.New()
	opts := scanOpts(t.TempDir(), 1)
	opts.Command = Image
	opts.Format = "PNG"
	opts.StrictFormat = true

	err := Run(context.Background(), opts, Deps{SDK: sdk})
	var fe *output.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if len(sdk.Calls) != 0 {
		t.Errorf("device should not be touched: %v", sdk.Calls)
	}
}

func TestRun_LenientFormatCompletes(t *testing.T) {
	sdk := camtest.New()
	dir := t.TempDir()
	opts := scanOpts(dir, 1)
	opts.Command = Image
	opts.Format = "PNG"

	// the default configuration logs nothing
	debug.Init(config.Default().Defaults.DebugLevel)
	t.Cleanup(func() { debug.Init(0) })
	var out bytes.Buffer
	if err := Run(context.Background(), opts, Deps{SDK: sdk, Stdout: &out}); err != nil {
		t.Fatalf("unsupported format should not fail the run: %v", err)
	}
	if !strings.Contains(out.String(), `unknown format "PNG", supported formats: TIFF`) {
		t.Errorf("skipped view not reported, stdout = %q", out.String())
	}
	if sdk.Count("PickupColorImage") != 1 {
		t.Error("image should still be captured")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("wrote %d files", len(entries))
	}
}

func TestRun_ImageOnSim(t *testing.T) {
	sim, err := camera.NewSim("vivid910")
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	opts := scanOpts(dir, 1)
	opts.Command = Image
	opts.Request.Filters = params.Filters{Subsampling: params.Int(2)}

	if err := Run(context.Background(), opts, Deps{SDK: sim}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "view.TIFF")); err != nil {
		t.Errorf("image not written: %v", err)
	}
}

func TestRun_AssistUnsupportedOnSim(t *testing.T) {
	sim, _ := camera.NewSim("vivid9i")
	opts := scanOpts(t.TempDir(), 1)
	opts.Request.Assist.ActiveAFAE = true
	err := Run(context.Background(), opts, Deps{SDK: sim})
	if !errors.Is(err, camera.ErrUnsupportedDevice) {
		t.Errorf("got %v, want ErrUnsupportedDevice", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	sdk := camtest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, scanOpts(t.TempDir(), 2), Deps{SDK: sdk, Rotator: &recordingRotator{}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
	if sdk.Count("Finish") != 1 {
		t.Error("session must be closed after cancellation")
	}
}

func TestRun_WrittenFilesReportedAtLevelZero(t *testing.T) {
	debug.Init(debug.LevelOff)
	dir := t.TempDir()
	var out bytes.Buffer
	if err := Run(context.Background(), scanOpts(dir, 2), Deps{SDK: camtest.New(), Rotator: &recordingRotator{}, Stdout: &out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, name := range []string{"view1.TIFF", "view2.TIFF"} {
		if want := "Wrote " + filepath.Join(dir, name) + " ..."; !strings.Contains(out.String(), want) {
			t.Errorf("stdout %q lacks %q", out.String(), want)
		}
	}
}
