package turntable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/cjeanneret/v2scan/internal/debug"
)

// Port is the part of a serial port the Serial rotator uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

var openPort = func(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// ErrNoReply is returned when the controller does not answer a command
// before the read timeout.
var ErrNoReply = errors.New("no reply from turntable controller")

const maxReply = 256

// Serial rotates by sending a command to a turntable controller on a
// serial line and waiting for its one-line reply. A reply starting with
// "ERR" is a failure; anything else acknowledges the move.
type Serial struct {
	port    Port
	command string
	settle  time.Duration
}

// OpenSerial opens path at baud (8N1). command is a fmt template taking
// the angle, e.g. "R%d\r\n".
func OpenSerial(path string, baud int, command string, timeout, settleDelay time.Duration) (*Serial, error) {
	debug.Info("Opening turntable controller on %s (%d baud)", path, baud)
	port, err := openPort(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return NewSerial(port, command, timeout, settleDelay)
}

// NewSerial wraps an open port.
func NewSerial(port Port, command string, timeout, settleDelay time.Duration) (*Serial, error) {
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Serial{port: port, command: command, settle: settleDelay}, nil
}

func (s *Serial) Rotate(ctx context.Context, angle int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := fmt.Sprintf(s.command, angle)
	debug.Verbose("Sending %q to turntable", cmd)
	if _, err := io.WriteString(s.port, cmd); err != nil {
		return &RotationError{Angle: angle, Err: err}
	}

	reply, err := s.readLine()
	if err != nil {
		return &RotationError{Angle: angle, Err: err}
	}
	debug.Trace("Turntable replied %q", reply)
	if strings.HasPrefix(reply, "ERR") {
		return &RotationError{Angle: angle, Err: fmt.Errorf("controller: %s", reply)}
	}
	return settle(ctx, s.settle)
}

func (s *Serial) readLine() (string, error) {
	var line bytes.Buffer
	buf := make([]byte, 64)
	for line.Len() < maxReply {
		n, err := s.port.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			// read timeout
			return "", ErrNoReply
		}
		line.Write(buf[:n])
		if i := bytes.IndexByte(line.Bytes(), '\n'); i >= 0 {
			return strings.TrimSpace(string(line.Bytes()[:i])), nil
		}
	}
	return "", fmt.Errorf("reply longer than %d bytes", maxReply)
}

func (s *Serial) Close() error {
	return s.port.Close()
}
