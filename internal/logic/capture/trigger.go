package capture

import (
	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
)

// Trigger fires the device and reads the capture back into the session's
// record.
type Trigger struct {
	session *camera.Session
	dynamic bool
}

// NewTrigger creates a trigger. With dynamicRange set every release is a
// dual exposure scan, which only some models support.
func NewTrigger(s *camera.Session, dynamicRange bool) *Trigger {
	return &Trigger{session: s, dynamic: dynamicRange}
}

// Release captures one view with the configured release kind.
func (t *Trigger) Release(mode camera.Mode) (*camera.Data, error) {
	if t.dynamic {
		return t.HDRRelease(mode)
	}
	return t.StandardRelease(mode)
}

// StandardRelease fires the device, then reads the range buffer and the
// color buffer in mode's release mode.
func (t *Trigger) StandardRelease(mode camera.Mode) (*camera.Data, error) {
	rec, err := t.session.Record()
	if err != nil {
		return nil, err
	}
	rec.Reset()
	sdk := t.session.SDK()

	debug.Stage("Release")
	if err := sdk.Release(); err != nil {
		return nil, camera.Stage("Release", err)
	}
	if err := sdk.ReadPitch(rec); err != nil {
		return nil, camera.Stage("Read Pitch", err)
	}
	if err := sdk.ReadColor(rec, mode.ReleaseMode); err != nil {
		return nil, camera.Stage("Read Color", err)
	}
	return rec, nil
}

// HDRRelease runs a dynamic range expansion scan with mode's distance,
// laser power and gain. Models without the feature fail with an error
// matching camera.ErrUnsupportedDevice.
func (t *Trigger) HDRRelease(mode camera.Mode) (*camera.Data, error) {
	rec, err := t.session.Record()
	if err != nil {
		return nil, err
	}
	rec.Reset()
	debug.Verbose("Using dynamic range expansion...")
	err = t.session.SDK().ScanReadDynamic(rec, mode.Distance, mode.LaserPower, mode.Gain)
	if err != nil {
		return nil, camera.Stage("Release", err)
	}
	return rec, nil
}
