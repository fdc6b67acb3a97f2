package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
)

// VolumeHeader is written before the samples of every volumetric file.
var VolumeHeader = []string{
	"IBRraw.xdr",
	"@@ImageDim = 3",
	fmt.Sprintf("@@ImageSize = %d %d", camera.FrameWidth, camera.FrameHeight),
	"@@buffer-channels-0 = 3",
	"@@buffer-primtype-0 = byte",
	"@@buffer-type-0 = color",
	"---end-of-header---",
}

// WriteVolume writes samples to path as volumetric text.
func WriteVolume(path string, samples []uint32) error {
	if n := camera.FrameWidth * camera.FrameHeight; len(samples) < n {
		return fmt.Errorf("volume has %d samples, want %d", len(samples), n)
	}

	debug.Verbose("Open %s for writing...", path)
	f, err := os.Create(path)
	if err != nil {
		return &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	if err := EncodeVolume(f, samples); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// EncodeVolume writes the header and one decimal sample per line, rows
// from top to bottom.
func EncodeVolume(w io.Writer, samples []uint32) error {
	bw := bufio.NewWriter(w)

	debug.Verbose("Writing header...")
	for _, line := range VolumeHeader {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}

	debug.Verbose("Writing data...")
	var num []byte
	for y := 0; y < camera.FrameHeight; y++ {
		row := samples[y*camera.FrameWidth : (y+1)*camera.FrameWidth]
		for _, s := range row {
			num = strconv.AppendUint(num[:0], uint64(s), 10)
			num = append(num, '\n')
			if _, err := bw.Write(num); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
