package capture

import (
	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
)

// Extractor decodes the color image held by a capture record.
type Extractor struct {
	sdk camera.SDK
}

func NewExtractor(sdk camera.SDK) *Extractor {
	return &Extractor{sdk: sdk}
}

// Extract picks the color image out of rec with the import filters of
// para. The pixels keep the device's channel order.
func (e *Extractor) Extract(rec *camera.Data, para camera.ImportPara) (*camera.Image, error) {
	img, err := e.sdk.PickupColorImage(rec, para)
	if err != nil {
		return nil, camera.Stage("Pickup Color Image", err)
	}
	debug.Verbose("ImageType: %d, Width: %d, Height: %d", img.Attribute, img.Width, img.Height)
	return img, nil
}
