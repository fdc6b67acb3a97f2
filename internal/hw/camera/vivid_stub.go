//go:build !vivid

package camera

import "fmt"

// NewVivid fails in builds without the vendor SDK.
func NewVivid() (SDK, error) {
	return nil, fmt.Errorf("%w: built without the VIVID SDK (rebuild with -tags vivid)", ErrUnavailable)
}
