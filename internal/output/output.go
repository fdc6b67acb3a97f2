// Package output writes capture results to disk: range data as a plain
// text volumetric buffer and color images as LZW compressed TIFF files.
package output

import (
	"fmt"
	"strings"
)

// Kind selects what a capture run writes.
type Kind int

const (
	// Scan writes the range buffer as volumetric text.
	Scan Kind = iota
	// Image writes the picked up color image as a raster file.
	Image
)

func (k Kind) String() string {
	switch k {
	case Scan:
		return "scan"
	case Image:
		return "image"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// FormatTIFF is the only raster encoding supported.
const FormatTIFF = "TIFF"

// Default output bases.
const (
	DefaultScanBase  = "image.hdr"
	DefaultImageBase = "image"
)

// OpenError reports a destination that cannot be opened for writing.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("couldn't open %s for writing: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// FormatError reports a raster encoding that is not implemented.
type FormatError struct {
	Name string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unknown format %q, supported formats: %s", e.Name, FormatTIFF)
}

// CheckFormat returns a *FormatError unless name is a supported raster
// encoding.
func CheckFormat(name string) error {
	if name != FormatTIFF {
		return &FormatError{Name: name}
	}
	return nil
}

// DefaultBase returns the output base used when the operator gives none.
func DefaultBase(kind Kind) string {
	if kind == Image {
		return DefaultImageBase
	}
	return DefaultScanBase
}

// Filenames returns the output file of every shot.  With more than one
// shot the index and format are appended to base; a single scan writes to
// base as is and a single image to base.format.
func Filenames(kind Kind, base, format string, count int) []string {
	if base == "" {
		base = DefaultBase(kind)
	}
	if count <= 1 {
		if kind == Image {
			return []string{base + "." + format}
		}
		return []string{base}
	}
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d.%s", base, i+1, format)
	}
	return names
}

// ParseKind maps a command name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "scan":
		return Scan, nil
	case "image":
		return Image, nil
	default:
		return 0, fmt.Errorf("unknown output kind: %s", s)
	}
}
