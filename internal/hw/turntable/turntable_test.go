package turntable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cjeanneret/v2scan/internal/config"
	"github.com/cjeanneret/v2scan/internal/hw/gpio"
)

// ---------- Exec ----------

type recordedRun struct {
	name string
	args []string
}

func fakeRunner(runs *[]recordedRun, err error) func(context.Context, string, ...string) ([]byte, error) {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*runs = append(*runs, recordedRun{name: name, args: args})
		return []byte("ok\n"), err
	}
}

func TestExec_Command(t *testing.T) {
	e, err := NewExec([]string{"stage.exe", "-r", "{angle}"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"stage.exe", "-r", "90"}, e.Command(90)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stage.exe", "-r", "-45"}, e.Command(-45)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestExec_RotateRunsTool(t *testing.T) {
	e, _ := NewExec([]string{"turn", "--to={angle}deg"}, 0)
	var runs []recordedRun
	e.run = fakeRunner(&runs, nil)

	for _, a := range []int{0, 120, 240} {
		if err := e.Rotate(context.Background(), a); err != nil {
			t.Fatalf("Rotate(%d): %v", a, err)
		}
	}
	want := []recordedRun{
		{"turn", []string{"--to=0deg"}},
		{"turn", []string{"--to=120deg"}},
		{"turn", []string{"--to=240deg"}},
	}
	if diff := cmp.Diff(want, runs, cmp.AllowUnexported(recordedRun{})); diff != "" {
		t.Errorf("runs (-want +got):\n%s", diff)
	}
}

func TestExec_FailureIsRotationError(t *testing.T) {
	e, _ := NewExec([]string{"stage.exe", "-r", "{angle}"}, 0)
	var runs []recordedRun
	e.run = fakeRunner(&runs, errors.New("exit status 2"))

	err := e.Rotate(context.Background(), 45)
	var re *RotationError
	if !errors.As(err, &re) || re.Angle != 45 {
		t.Fatalf("got %v, want RotationError at 45", err)
	}
}

func TestExec_EmptyCommand(t *testing.T) {
	if _, err := NewExec(nil, 0); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestExec_RealProcess(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no sh on PATH")
	}
	e, _ := NewExec([]string{sh, "-c", "test {angle} -eq 90"}, 0)
	if err := e.Rotate(context.Background(), 90); err != nil {
		t.Errorf("Rotate(90): %v", err)
	}
	if err := e.Rotate(context.Background(), 91); err == nil {
		t.Error("non-zero exit should fail")
	}
}

// ---------- Serial ----------

// fakePort answers every write with the next canned reply.
type fakePort struct {
	written bytes.Buffer
	replies []string
	pending bytes.Buffer
	timeout time.Duration
	closed  bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.written.Write(b)
	if len(p.replies) > 0 {
		p.pending.WriteString(p.replies[0])
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

// Read hands out at most 3 bytes at a time to exercise reassembly and
// returns 0, nil like a timed out serial read when nothing is pending.
func (p *fakePort) Read(b []byte) (int, error) {
	if p.pending.Len() == 0 {
		return 0, nil
	}
	if len(b) > 3 {
		b = b[:3]
	}
	return p.pending.Read(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func TestSerial_Rotate(t *testing.T) {
	port := &fakePort{replies: []string{"OK 90\r\n", "OK 180\r\n"}}
	s, err := NewSerial(port, "R%d\r\n", time.Second, 0)
	if err != nil {
		t.Fatal(err)
	}
	if port.timeout != time.Second {
		t.Errorf("timeout = %v", port.timeout)
	}
	ctx := context.Background()
	if err := s.Rotate(ctx, 90); err != nil {
		t.Fatalf("Rotate(90): %v", err)
	}
	if err := s.Rotate(ctx, 180); err != nil {
		t.Fatalf("Rotate(180): %v", err)
	}
	if got := port.written.String(); got != "R90\r\nR180\r\n" {
		t.Errorf("written = %q", got)
	}
	if err := s.Close(); err != nil || !port.closed {
		t.Errorf("Close: %v closed=%v", err, port.closed)
	}
}

func TestSerial_ErrorReply(t *testing.T) {
	port := &fakePort{replies: []string{"ERR limit\n"}}
	s, _ := NewSerial(port, "R%d\n", time.Second, 0)
	err := s.Rotate(context.Background(), 400)
	var re *RotationError
	if !errors.As(err, &re) || !strings.Contains(err.Error(), "ERR limit") {
		t.Errorf("got %v", err)
	}
}

func TestSerial_NoReply(t *testing.T) {
	s, _ := NewSerial(&fakePort{}, "R%d\n", time.Millisecond, 0)
	if err := s.Rotate(context.Background(), 10); !errors.Is(err, ErrNoReply) {
		t.Errorf("got %v, want ErrNoReply", err)
	}
}

func TestSerial_CancelledBeforeSend(t *testing.T) {
	port := &fakePort{replies: []string{"OK\n"}}
	s, _ := NewSerial(port, "R%d\n", time.Second, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Rotate(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
	if port.written.Len() != 0 {
		t.Error("nothing should be sent after cancellation")
	}
}

// ---------- Factory ----------

func TestNew(t *testing.T) {
	cases := []struct {
		name string
		edit func(c *config.Config)
		want string
	}{
		{"exec", func(c *config.Config) {}, "*turntable.Exec"},
		{"none", func(c *config.Config) { c.Turntable.Type = "none" }, "turntable.None"},
		{"stepper", func(c *config.Config) {
			c.Turntable.Type = "stepper"
			c.Turntable.MoveSpeedMs = 1
			c.Turntable.Stepper = config.StepperConfig{StepPin: 17, DirPin: 27, StepsPerRev: 200, Microstepping: 1}
			c.Defaults.MockGPIO = true
		}, "*turntable.Stepper"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.edit(cfg)
			r, err := New(cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer r.Close()
			if got := fmt.Sprintf("%T", r); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNew_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.Turntable.Type = "belt"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestStepper_Rotate(t *testing.T) {
	cfg := config.Default()
	cfg.Turntable.Type = "stepper"
	cfg.Turntable.MoveSpeedMs = 0
	cfg.Turntable.Stepper = config.StepperConfig{StepPin: 17, DirPin: 27, EnablePin: 5, StepsPerRev: 360, Microstepping: 1}
	cfg.Defaults.MockGPIO = true
	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s := r.(*Stepper)
	if err := s.ctrl.DisableMotor(); err != nil {
		t.Fatal(err)
	}
	if err := s.Rotate(context.Background(), 12); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if lvl, _ := s.gpio.ReadPin(5); lvl != gpio.Low {
		t.Errorf("enable pin = %v, want LOW while moving", lvl)
	}
	if s.ctrl.Position() != 12 {
		t.Errorf("position = %d, want 12", s.ctrl.Position())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestSettle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := settle(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}
