package camera

import (
	"fmt"

	"github.com/cjeanneret/v2scan/internal/debug"
)

// Simulated device models.
const (
	ModelVivid9i  = "vivid9i"
	ModelVivid910 = "vivid910"
)

// Sim is a simulated VIVID device.  It produces deterministic synthetic
// range and color readouts, validates parameter writes the way the device
// does and refuses 910-only features when configured as a 9i.
type Sim struct {
	model       string
	mode        Mode
	subjectMm   int
	initialized bool
	released    bool
	shots       int
}

// NewSim creates a simulated device of the given model.
func NewSim(model string) (*Sim, error) {
	switch model {
	case "", ModelVivid910:
		model = ModelVivid910
	case ModelVivid9i:
	default:
		return nil, fmt.Errorf("unknown simulated model: %s", model)
	}
	return &Sim{
		model: model,
		mode: Mode{
			Distance:    1000,
			LaserPower:  128,
			Gain:        3,
			ReleaseMode: 0,
			Threshold:   65535,
			AutoRead:    0,
			Color:       10,
		},
		subjectMm: 850,
	}, nil
}

// Model returns the simulated model name.
func (s *Sim) Model() string {
	return s.model
}

func (s *Sim) Initialize() error {
	debug.SDK("Initialize", s.model)
	s.initialized = true
	return nil
}

func (s *Sim) Finish() error {
	debug.SDK("Finish")
	s.initialized = false
	s.released = false
	return nil
}

func (s *Sim) ready() error {
	if !s.initialized {
		return &ProtocolError{Code: CodeNotFound, Raw: simRaw(CodeNotFound)}
	}
	return nil
}

func (s *Sim) ReadParameter() (Mode, error) {
	debug.SDK("ReadParameter")
	if err := s.ready(); err != nil {
		return Mode{}, err
	}
	return s.mode, nil
}

func (s *Sim) WriteParameter(m Mode) error {
	debug.SDK("WriteParameter", m)
	if err := s.ready(); err != nil {
		return err
	}
	if m.Distance < 500 || m.Distance > 2500 {
		return &ProtocolError{Code: CodeOutOfDistance, Raw: simRaw(CodeOutOfDistance)}
	}
	if !inRange(m.LaserPower, 0, 255) || !inRange(m.Gain, 0, 7) ||
		!inRange(m.ReleaseMode, 0, 7) || !inRange(m.AutoRead, 0, 1) ||
		!inRange(m.Color, 0, 10) ||
		(!inRange(m.Threshold, 0, 1023) && m.Threshold != 65535) {
		return &ProtocolError{Code: CodeArgument, Raw: simRaw(CodeArgument)}
	}
	s.mode = m
	return nil
}

func (s *Sim) PassiveAF(m *Mode) error {
	debug.SDK("PassiveAF")
	if err := s.ready(); err != nil {
		return err
	}
	m.Distance = s.subjectMm
	return nil
}

func (s *Sim) ActiveAF(m *Mode) error {
	debug.SDK("ActiveAF")
	if err := s.ready(); err != nil {
		return err
	}
	m.Distance = s.subjectMm
	return nil
}

func (s *Sim) ActiveAFAE(m *Mode) error {
	debug.SDK("ActiveAFAE")
	if err := s.ready(); err != nil {
		return err
	}
	if s.model != ModelVivid910 {
		return ErrUnsupportedDevice
	}
	m.Distance = s.subjectMm
	m.LaserPower = 160
	m.Gain = 2
	return nil
}

func (s *Sim) Release() error {
	debug.SDK("Release")
	if err := s.ready(); err != nil {
		return err
	}
	s.released = true
	s.shots++
	return nil
}

func (s *Sim) ReadPitch(d *Data) error {
	debug.SDK("ReadPitch")
	if err := s.ready(); err != nil {
		return err
	}
	if !s.released {
		return &ProtocolError{Code: CodeReady, Raw: simRaw(CodeReady)}
	}
	n := FrameWidth * FrameHeight
	if cap(d.Range) < n {
		d.Range = make([]uint32, n)
	}
	d.Range = d.Range[:n]
	for y := 0; y < FrameHeight; y++ {
		for x := 0; x < FrameWidth; x++ {
			dx, dy := x-FrameWidth/2, y-FrameHeight/2
			d.Range[y*FrameWidth+x] = uint32(s.mode.Distance + (dx*dx+dy*dy)/256 + s.shots)
		}
	}
	return nil
}

func (s *Sim) ReadColor(d *Data, releaseMode int) error {
	debug.SDK("ReadColor", releaseMode)
	if err := s.ready(); err != nil {
		return err
	}
	if !s.released {
		return &ProtocolError{Code: CodeReady, Raw: simRaw(CodeReady)}
	}
	n := FrameWidth * FrameHeight * 4
	if cap(d.Color) < n {
		d.Color = make([]byte, n)
	}
	d.Color = d.Color[:n]
	// native layout is pad, blue, green, red
	for y := 0; y < FrameHeight; y++ {
		for x := 0; x < FrameWidth; x++ {
			i := (y*FrameWidth + x) * 4
			d.Color[i] = 0xff
			d.Color[i+1] = byte(x + y)
			d.Color[i+2] = byte(y)
			d.Color[i+3] = byte(x)
		}
	}
	d.ReleaseMode = releaseMode
	s.released = false
	return nil
}

func (s *Sim) ScanReadDynamic(d *Data, distance, laserPower, gain int) error {
	debug.SDK("ScanReadDynamic", distance, laserPower, gain)
	if err := s.ready(); err != nil {
		return err
	}
	if s.model != ModelVivid910 {
		return ErrUnsupportedDevice
	}
	if distance < 500 || distance > 2500 {
		return &ProtocolError{Code: CodeOutOfDistance, Raw: simRaw(CodeOutOfDistance)}
	}
	if err := s.Release(); err != nil {
		return err
	}
	if err := s.ReadPitch(d); err != nil {
		return err
	}
	return s.ReadColor(d, s.mode.ReleaseMode)
}

func (s *Sim) PickupColorImage(d *Data, para ImportPara) (*Image, error) {
	debug.SDK("PickupColorImage", para)
	if len(d.Color) < FrameWidth*FrameHeight*4 {
		return nil, &ProtocolError{Code: CodeNoImage, Raw: simRaw(CodeNoImage)}
	}
	reduce := para.Reduce
	if reduce < 1 {
		reduce = 1
	}
	w, h := FrameWidth/reduce, FrameHeight/reduce
	img := &Image{Width: w, Height: h, Attribute: 1, Pix: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := d.Color[((y*reduce)*FrameWidth+x*reduce)*4:]
			dst := img.Pix[(y*w+x)*4:]
			copy(dst[:4], src[:4])
			if para.Dark {
				for c := 1; c < 4; c++ {
					dst[c] = darken(dst[c])
				}
			}
		}
	}
	return img, nil
}

func (s *Sim) FreeData(d *Data) {
	debug.SDK("FreeData")
	d.Range = nil
	d.Color = nil
}

func darken(v byte) byte {
	const offset = 4
	if v < offset {
		return 0
	}
	return v - offset
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

// simRaw gives simulated conditions a stable raw number.
func simRaw(c Code) int {
	return 0x100 + int(c)
}
