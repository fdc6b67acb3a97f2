//go:build vivid

package camera

/*
#cgo LDFLAGS: -lvividIIsdk
#include <stdlib.h>
#include "vividIIsdk/vividIIsdk.h"

static void v2_get_mode(VVDII_CameraMode *m, int *out) {
	out[0] = m->distance;
	out[1] = m->laserPower;
	out[2] = m->gain;
	out[3] = m->r_mode;
	out[4] = m->threshold;
	out[5] = m->autoRead;
	out[6] = m->color;
}

static void v2_set_mode(VVDII_CameraMode *m, int *in) {
	m->distance = in[0];
	m->laserPower = in[1];
	m->gain = in[2];
	m->r_mode = in[3];
	m->threshold = in[4];
	m->autoRead = in[5];
	m->color = in[6];
}

static unsigned long *v2_data3d(VVDII_CameraData *d) {
	return d->data3d;
}
*/
import "C"
import (
	"unsafe"

	"github.com/cjeanneret/v2scan/internal/debug"
)

// rawCodes maps the SDK's error numbers to named conditions.
var rawCodes = map[int]Code{
	C.SERR_BUSY:            CodeBusy,
	C.SERR_WRITE:           CodeWrite,
	C.SERR_READ:            CodeRead,
	C.SERR_BLOCK:           CodeBlock,
	C.SERR_POWERON:         CodePowerOn,
	C.SERR_HARD:            CodeHard,
	C.SERR_PCFORMAT:        CodePCFormat,
	C.SERR_NONATA:          CodeNonATA,
	C.SERR_NOPCCARD:        CodeNoPCCard,
	C.SERR_PARITY:          CodeParity,
	C.SERR_READY:           CodeReady,
	C.SERR_OUTOFDIST:       CodeOutOfDistance,
	C.SERR_HDDRESET:        CodeHDDReset,
	C.SERR_NOTFOUND:        CodeNotFound,
	C.SERR_ANY:             CodeAny,
	C.SERR_MEMORY:          CodeMemory,
	C.SERR_ARGUMENT:        CodeArgument,
	C.VERROR_MEM_ALLOC:     CodeMemAlloc,
	C.VERROR_OPEN_FILE:     CodeOpenFile,
	C.VERROR_READ_FILE:     CodeReadFile,
	C.VERROR_NOT_PRODUCT:   CodeNotProduct,
	C.VERROR_INVALID_MAGIC: CodeInvalidMagic,
	C.VERROR_UNKNOWN_TYPE:  CodeUnknownType,
	C.VERROR_INVALID_ARGS:  CodeInvalidArgs,
	C.VERROR_WRITE_FILE:    CodeWriteFile,
	C.VERROR_NO_IMAGE:      CodeNoImage,
	C.VERROR_MULT_DATA:     CodeMultData,
	C.VERROR_SINGLE_DATA:   CodeSingleData,
}

// Vivid drives a real device through the vendor SDK.  Only one device per
// process is supported by the SDK.
type Vivid struct{}

// NewVivid returns the vendor SDK driver.
func NewVivid() (SDK, error) {
	return &Vivid{}, nil
}

// lastError reads the SDK's error status right after a failed call.
func lastError() error {
	raw := int(C.VividGetErrorStatus())
	code, ok := rawCodes[raw]
	if !ok {
		code = CodeUnknown
	}
	return &ProtocolError{Code: code, Raw: raw}
}

func check(ret C.int) error {
	if ret == C.VVD_FALSE {
		return lastError()
	}
	return nil
}

func (v *Vivid) Initialize() error {
	debug.SDK("VividIISCSIInitialize")
	return check(C.int(C.VividIISCSIInitialize()))
}

func (v *Vivid) Finish() error {
	debug.SDK("VividIISCSIFinish")
	C.VividIISCSIFinish()
	return nil
}

func toMode(cm *C.VVDII_CameraMode) Mode {
	var vals [7]C.int
	C.v2_get_mode(cm, &vals[0])
	return Mode{
		Distance:    int(vals[0]),
		LaserPower:  int(vals[1]),
		Gain:        int(vals[2]),
		ReleaseMode: int(vals[3]),
		Threshold:   int(vals[4]),
		AutoRead:    int(vals[5]),
		Color:       int(vals[6]),
	}
}

func fromMode(m Mode, cm *C.VVDII_CameraMode) {
	vals := [7]C.int{
		C.int(m.Distance), C.int(m.LaserPower), C.int(m.Gain), C.int(m.ReleaseMode),
		C.int(m.Threshold), C.int(m.AutoRead), C.int(m.Color),
	}
	C.v2_set_mode(cm, &vals[0])
}

func (v *Vivid) ReadParameter() (Mode, error) {
	debug.SDK("VividIISCSIReadParameter")
	var cm C.VVDII_CameraMode
	if err := check(C.int(C.VividIISCSIReadParameter(&cm))); err != nil {
		return Mode{}, err
	}
	return toMode(&cm), nil
}

func (v *Vivid) WriteParameter(m Mode) error {
	debug.SDK("VividIISCSIWriteParameter", m)
	var cm C.VVDII_CameraMode
	fromMode(m, &cm)
	return check(C.int(C.VividIISCSIWriteParameter(&cm)))
}

// assist runs one of the autofocus calls, which read and update the mode.
func assist(m *Mode, call func(*C.VVDII_CameraMode) C.int) error {
	var cm C.VVDII_CameraMode
	fromMode(*m, &cm)
	if err := check(call(&cm)); err != nil {
		return err
	}
	*m = toMode(&cm)
	return nil
}

func (v *Vivid) PassiveAF(m *Mode) error {
	debug.SDK("VividIISCSIPassiveAF")
	return assist(m, func(cm *C.VVDII_CameraMode) C.int { return C.int(C.VividIISCSIPassiveAF(cm)) })
}

func (v *Vivid) ActiveAF(m *Mode) error {
	debug.SDK("VividIISCSIActiveAF")
	return assist(m, func(cm *C.VVDII_CameraMode) C.int { return C.int(C.VividIISCSIActiveAF(cm)) })
}

func (v *Vivid) ActiveAFAE(m *Mode) error {
	debug.SDK("VividIISCSIActiveAFAE_910")
	var cm C.VVDII_CameraMode
	fromMode(*m, &cm)
	ret := C.int(C.VividIISCSIActiveAFAE_910(&cm))
	if ret == C.VVD_ILLEGAL {
		return ErrUnsupportedDevice
	}
	if err := check(ret); err != nil {
		return err
	}
	*m = toMode(&cm)
	return nil
}

func (v *Vivid) Release() error {
	debug.SDK("VividIISCSIRelease")
	return check(C.int(C.VividIISCSIRelease()))
}

// handle returns the SDK record behind d, allocating it on first use.
func handle(d *Data) **C.VVDII_CameraData {
	if p, ok := d.native.(**C.VVDII_CameraData); ok {
		return p
	}
	p := (**C.VVDII_CameraData)(C.calloc(1, C.size_t(unsafe.Sizeof(uintptr(0)))))
	*p = (*C.VVDII_CameraData)(C.calloc(1, C.sizeof_VVDII_CameraData))
	d.native = p
	return p
}

func copyRange(d *Data, cd *C.VVDII_CameraData) {
	n := FrameWidth * FrameHeight
	src := unsafe.Slice(C.v2_data3d(cd), n)
	if cap(d.Range) < n {
		d.Range = make([]uint32, n)
	}
	d.Range = d.Range[:n]
	for i, s := range src {
		d.Range[i] = uint32(s)
	}
}

func (v *Vivid) ReadPitch(d *Data) error {
	debug.SDK("VividIISCSIReadPitch")
	p := handle(d)
	if err := check(C.int(C.VividIISCSIReadPitch(p))); err != nil {
		return err
	}
	copyRange(d, *p)
	return nil
}

func (v *Vivid) ReadColor(d *Data, releaseMode int) error {
	debug.SDK("VividIISCSIReadColor", releaseMode)
	p := handle(d)
	if err := check(C.int(C.VividIISCSIReadColor(p, C.int(releaseMode)))); err != nil {
		return err
	}
	d.ReleaseMode = releaseMode
	return nil
}

func (v *Vivid) ScanReadDynamic(d *Data, distance, laserPower, gain int) error {
	debug.SDK("VividIISCSIScanRead910", distance, laserPower, gain)
	p := handle(d)
	ret := C.int(C.VividIISCSIScanRead910(p, C.int(distance), C.int(laserPower), C.int(gain), 1))
	if ret == C.VVD_ILLEGAL {
		return ErrUnsupportedDevice
	}
	if err := check(ret); err != nil {
		return err
	}
	copyRange(d, *p)
	return nil
}

// PickupColorImage decodes the color image.  The SDK's pickup call takes no
// import parameters; filters only apply to its data import path.
func (v *Vivid) PickupColorImage(d *Data, para ImportPara) (*Image, error) {
	debug.SDK("VividIIPickupColorImage")
	p := handle(d)
	img := (*C.VVD_Image)(C.calloc(1, C.sizeof_VVD_Image))
	defer C.free(unsafe.Pointer(img))
	if err := check(C.int(C.VividIIPickupColorImage(*p, &img))); err != nil {
		return nil, err
	}
	w, h := int(img.width), int(img.height)
	return &Image{
		Width:     w,
		Height:    h,
		Attribute: int(img.attribute),
		Pix:       C.GoBytes(unsafe.Pointer(img.pixels), C.int(w*h*4)),
	}, nil
}

func (v *Vivid) FreeData(d *Data) {
	debug.SDK("VividIIFreeCameraData")
	if p, ok := d.native.(**C.VVDII_CameraData); ok {
		C.VividIIFreeCameraData(p)
		C.free(unsafe.Pointer(p))
	}
	d.native = nil
	d.Range = nil
	d.Color = nil
}
