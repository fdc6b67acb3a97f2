/*Package camera talks to a VIVID range-finder camera through its SDK.

SDK is the narrow contract the rest of v2scan uses to reach the device.  Two
implementations exist: Sim, a simulated device used for development and
tests, and the vendor SDK binding compiled in with the vivid build tag.

A Session owns the link to the device and the single capture record of a run.
*/
package camera

// FrameWidth and FrameHeight are the fixed dimensions of the range readout.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// Mode is the device configuration (the SDK's camera mode block).
type Mode struct {
	Distance    int // mm, 500-2500
	LaserPower  int // 0-255, 0 = laser off
	Gain        int // 0-7
	ReleaseMode int // 0-7
	Threshold   int // 0-1023, 65535 = auto
	AutoRead    int // 0 = pitch with color, 1 = pitch only
	Color       int // 0-10, 10 = auto
}

// Release modes understood by ReadColor.
var ReleaseModes = []string{
	"FINE&COLOR",
	"FAST&COLOR",
	"COLOR(8bit)",
	"COLOR(10bit)",
	"MONITOR(8bit)",
	"R(8bit)",
	"G(8bit)",
	"B(8bit)",
}

// ReleaseModeName returns the name of release mode m.
func ReleaseModeName(m int) string {
	if m < 0 || m >= len(ReleaseModes) {
		return "unknown"
	}
	return ReleaseModes[m]
}

// ImportPara holds the filters applied when an image is picked up from a
// capture record.  They never round-trip to the device.  The zero value
// disables every filter.
type ImportPara struct {
	FillHole bool
	Dark     bool
	Reduce   int // subsampling 1:1/1 2:1/4 3:1/9 4:1/16, 0 = untouched
	Filter   int // 0 none, 1 noise, 2 high quality, 3 noise and high quality
}

// Data is the raw readout of one release cycle.
type Data struct {
	// Range holds FrameWidth*FrameHeight volumetric samples, row-major.
	Range []uint32

	// Color is the raw color readout.
	Color []byte

	// ReleaseMode is the mode the color buffer was read with.
	ReleaseMode int

	// native is the SDK's own record, if the implementation keeps one.
	native interface{}
}

// Reset clears the buffers so the record can be reused by the next shot.
func (d *Data) Reset() {
	d.Range = d.Range[:0]
	d.Color = d.Color[:0]
	d.ReleaseMode = 0
}

// Image is a decoded color image.  Pix holds 4 bytes per pixel in the SDK's
// native channel order.
type Image struct {
	Width     int
	Height    int
	Attribute int
	Pix       []byte
}

// SDK is the device driver contract.  Every method that fails returns an
// error carrying the device error code at the point of failure.
type SDK interface {
	// Initialize opens the SCSI link.
	Initialize() error

	// Finish closes the SCSI link.
	Finish() error

	ReadParameter() (Mode, error)
	WriteParameter(Mode) error

	// PassiveAF, ActiveAF and ActiveAFAE update the mode in place.
	PassiveAF(*Mode) error
	ActiveAF(*Mode) error
	ActiveAFAE(*Mode) error

	// Release triggers one exposure.
	Release() error

	// ReadPitch reads the range buffer of the last release into d.
	ReadPitch(d *Data) error

	// ReadColor reads the color buffer of the last release into d.
	ReadColor(d *Data, releaseMode int) error

	// ScanReadDynamic performs a dual exposure scan and reads it into d.
	// It returns ErrUnsupportedDevice on models without the feature.
	ScanReadDynamic(d *Data, distance, laserPower, gain int) error

	// PickupColorImage decodes the color image held by d.
	PickupColorImage(d *Data, para ImportPara) (*Image, error)

	// FreeData releases whatever the SDK holds for d.
	FreeData(d *Data)
}
