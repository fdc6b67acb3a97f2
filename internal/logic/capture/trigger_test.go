package capture

import (
	"errors"
	"testing"

	"github.com/cjeanneret/v2scan/internal/hw/camera"
	"github.com/cjeanneret/v2scan/internal/hw/camera/camtest"
)

func openFake(t *testing.T) (*camtest.Fake, *camera.Session) {
	t.Helper()
	sdk := camtest.New()
	sess, err := camera.Open(sdk)
	if err != nil {
		t.Fatal(err)
	}
	sdk.Calls = nil
	return sdk, sess
}

func TestStandardRelease_TagsColorWithReleaseMode(t *testing.T) {
	_, sess := openFake(t)
	defer sess.Close()
	rec, err := NewTrigger(sess, false).StandardRelease(camera.Mode{ReleaseMode: 3})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ReleaseMode != 3 {
		t.Errorf("ReleaseMode = %d, want 3", rec.ReleaseMode)
	}
	if len(rec.Range) != camera.FrameWidth*camera.FrameHeight {
		t.Errorf("range has %d samples", len(rec.Range))
	}
}

func TestStandardRelease_Stages(t *testing.T) {
	for _, tc := range []struct{ call, stage string }{
		{"Release", "Release"},
		{"ReadPitch", "Read Pitch"},
		{"ReadColor", "Read Color"},
	} {
		t.Run(tc.call, func(t *testing.T) {
			sdk, sess := openFake(t)
			defer sess.Close()
			sdk.Fail(tc.call, camera.CodeBusy)

			_, err := NewTrigger(sess, false).Release(camera.Mode{})
			var se *camera.StageError
			if !errors.As(err, &se) || se.Stage != tc.stage {
				t.Errorf("got %v, want stage %q", err, tc.stage)
			}
		})
	}
}

func TestRelease_ReusesRecord(t *testing.T) {
	_, sess := openFake(t)
	defer sess.Close()
	tr := NewTrigger(sess, false)
	a, _ := tr.Release(camera.Mode{})
	b, _ := tr.Release(camera.Mode{})
	if a != b {
		t.Error("every release should fill the session's single record")
	}
}

func TestRelease_ClosedSession(t *testing.T) {
	_, sess := openFake(t)
	sess.Close()
	if _, err := NewTrigger(sess, false).Release(camera.Mode{}); !errors.Is(err, camera.ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestHDRRelease_OnSim(t *testing.T) {
	for _, tc := range []struct {
		model   string
		wantErr error
	}{
		{"vivid910", nil},
		{"vivid9i", camera.ErrUnsupportedDevice},
	} {
		t.Run(tc.model, func(t *testing.T) {
			sim, err := camera.NewSim(tc.model)
			if err != nil {
				t.Fatal(err)
			}
			sess, err := camera.Open(sim)
			if err != nil {
				t.Fatal(err)
			}
			defer sess.Close()
			mode, _ := sim.ReadParameter()

			_, err = NewTrigger(sess, true).Release(mode)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	sdk, sess := openFake(t)
	defer sess.Close()
	sdk.ImageWidth, sdk.ImageHeight = 8, 6
	rec, err := NewTrigger(sess, false).Release(camera.Mode{})
	if err != nil {
		t.Fatal(err)
	}
	img, err := NewExtractor(sdk).Extract(rec, camera.ImportPara{Dark: true})
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 8 || img.Height != 6 || len(img.Pix) != 8*6*4 {
		t.Errorf("image = %dx%d (%d bytes)", img.Width, img.Height, len(img.Pix))
	}
	// channel order is left to the serializer
	if img.Pix[0] != 0 || img.Pix[3] != 3 {
		t.Errorf("pixels were reordered: %v", img.Pix[:4])
	}
}

func TestRelease_ClearsPreviousShot(t *testing.T) {
	sdk, sess := openFake(t)
	defer sess.Close()
	rec, _ := sess.Record()
	rec.Color = []byte{9, 9, 9, 9}
	rec.ReleaseMode = 5
	sdk.Fail("ReadColor", camera.CodeBusy)

	if _, err := NewTrigger(sess, false).Release(camera.Mode{}); err == nil {
		t.Fatal("expected Read Color failure")
	}
	if len(rec.Color) != 0 || rec.ReleaseMode != 0 {
		t.Errorf("stale color kept: %v mode %d", rec.Color, rec.ReleaseMode)
	}
}
