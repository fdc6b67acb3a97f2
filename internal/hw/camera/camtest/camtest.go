// Package camtest provides a recording camera.SDK for tests.
package camtest

import (
	"github.com/cjeanneret/v2scan/internal/hw/camera"
)

// Fake records every SDK call and returns the error registered for it.
type Fake struct {
	Mode   camera.Mode
	Calls  []string
	Faults map[string]error

	// Written holds every mode passed to WriteParameter.
	Written []camera.Mode

	// ImageWidth and ImageHeight size the images returned by
	// PickupColorImage (default 4x2).
	ImageWidth  int
	ImageHeight int

	// Para is the import parameter set seen by the last pickup.
	Para camera.ImportPara

	shots int
}

// New returns a Fake holding a plausible device configuration.
func New() *Fake {
	return &Fake{
		Mode: camera.Mode{
			Distance:    1200,
			LaserPower:  100,
			Gain:        4,
			ReleaseMode: 1,
			Threshold:   512,
			AutoRead:    0,
			Color:       5,
		},
		Faults: make(map[string]error),
	}
}

// Fail makes call return a protocol error with the given condition.
func (f *Fake) Fail(call string, code camera.Code) {
	f.Faults[call] = &camera.ProtocolError{Code: code, Raw: 1000 + int(code)}
}

// Count returns how many times call was made.
func (f *Fake) Count(call string) int {
	n := 0
	for _, c := range f.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *Fake) record(call string) error {
	f.Calls = append(f.Calls, call)
	return f.Faults[call]
}

func (f *Fake) Initialize() error { return f.record("Initialize") }

func (f *Fake) Finish() error { return f.record("Finish") }

func (f *Fake) ReadParameter() (camera.Mode, error) {
	if err := f.record("ReadParameter"); err != nil {
		return camera.Mode{}, err
	}
	return f.Mode, nil
}

func (f *Fake) WriteParameter(m camera.Mode) error {
	if err := f.record("WriteParameter"); err != nil {
		return err
	}
	f.Written = append(f.Written, m)
	f.Mode = m
	return nil
}

func (f *Fake) PassiveAF(m *camera.Mode) error {
	if err := f.record("PassiveAF"); err != nil {
		return err
	}
	m.Distance = 700
	return nil
}

func (f *Fake) ActiveAF(m *camera.Mode) error {
	if err := f.record("ActiveAF"); err != nil {
		return err
	}
	m.Distance = 800
	return nil
}

func (f *Fake) ActiveAFAE(m *camera.Mode) error {
	if err := f.record("ActiveAFAE"); err != nil {
		return err
	}
	m.Distance = 900
	m.LaserPower = 200
	return nil
}

func (f *Fake) Release() error {
	if err := f.record("Release"); err != nil {
		return err
	}
	f.shots++
	return nil
}

func (f *Fake) fillRange(d *camera.Data) {
	n := camera.FrameWidth * camera.FrameHeight
	d.Range = make([]uint32, n)
	for i := range d.Range {
		d.Range[i] = uint32(i + f.shots)
	}
}

func (f *Fake) ReadPitch(d *camera.Data) error {
	if err := f.record("ReadPitch"); err != nil {
		return err
	}
	f.fillRange(d)
	return nil
}

func (f *Fake) ReadColor(d *camera.Data, releaseMode int) error {
	if err := f.record("ReadColor"); err != nil {
		return err
	}
	d.Color = []byte{1, 2, 3, 4}
	d.ReleaseMode = releaseMode
	return nil
}

func (f *Fake) ScanReadDynamic(d *camera.Data, distance, laserPower, gain int) error {
	if err := f.record("ScanReadDynamic"); err != nil {
		return err
	}
	f.shots++
	f.fillRange(d)
	d.Color = []byte{1, 2, 3, 4}
	return nil
}

func (f *Fake) PickupColorImage(d *camera.Data, para camera.ImportPara) (*camera.Image, error) {
	if err := f.record("PickupColorImage"); err != nil {
		return nil, err
	}
	f.Para = para
	w, h := f.ImageWidth, f.ImageHeight
	if w == 0 || h == 0 {
		w, h = 4, 2
	}
	img := &camera.Image{Width: w, Height: h, Attribute: 1, Pix: make([]byte, w*h*4)}
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	return img, nil
}

func (f *Fake) FreeData(d *camera.Data) {
	f.Calls = append(f.Calls, "FreeData")
}
