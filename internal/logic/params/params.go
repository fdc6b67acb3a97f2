// Package params negotiates the device configuration before any capture:
// read the current mode, run assist operations, apply operator overrides
// and write the result back exactly once.
package params

import (
	"errors"

	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
)

// ErrCommitted is returned by a second Commit on the same Negotiator.
var ErrCommitted = errors.New("camera mode already written for this session")

// Overrides holds operator requested device settings.  A nil field leaves
// the device value unchanged.
type Overrides struct {
	Distance    *int `yaml:"distance"`
	LaserPower  *int `yaml:"laser_power"`
	Gain        *int `yaml:"gain"`
	ReleaseMode *int `yaml:"release_mode"`
	Threshold   *int `yaml:"threshold"`
	AutoRead    *int `yaml:"auto_read"`
	Color       *int `yaml:"color"`
}

// Filters holds the import filters requested by the operator.  Subsampling
// and Noise are nil when not requested.
type Filters struct {
	FillHole    bool `yaml:"fill_hole"`
	Dark        bool `yaml:"dark"`
	Subsampling *int `yaml:"subsampling"`
	Noise       *int `yaml:"noise"`
}

// Assist selects the pre-capture autofocus/autoexposure steps.
type Assist struct {
	PassiveAF  bool `yaml:"passive_af"`
	ActiveAF   bool `yaml:"active_af"`
	ActiveAFAE bool `yaml:"active_af_ae"`
}

// Request is everything the Configuring step needs.
type Request struct {
	Assist    Assist
	Overrides Overrides
	Filters   Filters
}

// Int returns a pointer to v, for building Overrides and Filters.
func Int(v int) *int {
	return &v
}

// ApplyOverrides returns mode with every present override applied.
func ApplyOverrides(mode camera.Mode, o Overrides) camera.Mode {
	set := func(name string, dst *int, v *int) {
		if v == nil {
			return
		}
		debug.Verbose("Setting %s to %d...", name, *v)
		*dst = *v
	}
	set("distance", &mode.Distance, o.Distance)
	set("gain", &mode.Gain, o.Gain)
	set("rmode", &mode.ReleaseMode, o.ReleaseMode)
	set("threshold", &mode.Threshold, o.Threshold)
	set("autoread", &mode.AutoRead, o.AutoRead)
	set("color", &mode.Color, o.Color)
	set("laserpower", &mode.LaserPower, o.LaserPower)
	return mode
}

// ApplyFilterFlags returns para with every requested filter enabled.
func ApplyFilterFlags(para camera.ImportPara, f Filters) camera.ImportPara {
	if f.FillHole {
		debug.Verbose("Using fillhole filter...")
		para.FillHole = true
	}
	if f.Dark {
		debug.Verbose("Using color dark correction filter...")
		para.Dark = true
	}
	if f.Subsampling != nil {
		debug.Verbose("Using subsampling filter...")
		para.Reduce = *f.Subsampling
	}
	if f.Noise != nil {
		debug.Verbose("Using noise filter...")
		para.Filter = *f.Noise
	}
	return para
}

// Negotiator runs the Configuring step against one device session.
type Negotiator struct {
	sdk       camera.SDK
	committed bool
}

// NewNegotiator creates a negotiator for the given device.
func NewNegotiator(sdk camera.SDK) *Negotiator {
	return &Negotiator{sdk: sdk}
}

// ReadCurrent queries the device configuration.
func (n *Negotiator) ReadCurrent() (camera.Mode, error) {
	debug.Verbose("Reading camera parameters...")
	m, err := n.sdk.ReadParameter()
	return m, camera.Stage("Read Camera Mode", err)
}

// ApplyAssist runs the requested assist operations in the fixed order
// passive AF, active AF, active AF/AE.  Each one updates mode in place.
func (n *Negotiator) ApplyAssist(mode *camera.Mode, a Assist) error {
	steps := []struct {
		enabled bool
		stage   string
		run     func(*camera.Mode) error
	}{
		{a.PassiveAF, "Passive AF", n.sdk.PassiveAF},
		{a.ActiveAF, "Active AF", n.sdk.ActiveAF},
		{a.ActiveAFAE, "Active AF/AE", n.sdk.ActiveAFAE},
	}
	for _, s := range steps {
		if !s.enabled {
			continue
		}
		debug.Stage(s.stage)
		if err := s.run(mode); err != nil {
			return camera.Stage(s.stage, err)
		}
	}
	return nil
}

// Commit writes mode back to the device.  It may only succeed once.
func (n *Negotiator) Commit(mode camera.Mode) error {
	if n.committed {
		return ErrCommitted
	}
	debug.Verbose("Writing parameters...")
	if err := n.sdk.WriteParameter(mode); err != nil {
		return camera.Stage("Write Camera Mode", err)
	}
	n.committed = true
	return nil
}

// Negotiate runs the whole Configuring step and returns the committed mode
// and the import filters for extraction.
func (n *Negotiator) Negotiate(req Request) (camera.Mode, camera.ImportPara, error) {
	mode, err := n.ReadCurrent()
	if err != nil {
		return camera.Mode{}, camera.ImportPara{}, err
	}
	debug.PrintStruct("Device mode", mode)

	if err := n.ApplyAssist(&mode, req.Assist); err != nil {
		return camera.Mode{}, camera.ImportPara{}, err
	}
	mode = ApplyOverrides(mode, req.Overrides)
	para := ApplyFilterFlags(camera.ImportPara{}, req.Filters)

	if err := n.Commit(mode); err != nil {
		return camera.Mode{}, camera.ImportPara{}, err
	}
	debug.PrintStruct("Negotiated mode", mode)
	return mode, para, nil
}
