package output

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hhrutter/lzw"

	"github.com/cjeanneret/v2scan/internal/debug"
	"github.com/cjeanneret/v2scan/internal/hw/camera"
)

// TIFF tags written by EncodeTIFF.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagOrientation     = 274
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagExtraSamples    = 338
)

const (
	typeShort = 3
	typeLong  = 4

	compressionLZW     = 5
	photometricRGB     = 2
	orientationTopLeft = 1
	planarContig       = 1
	extraUnassocAlpha  = 2
	samplesPerPixel    = 4
	bitsPerSample      = 8
	headerSize         = 8
	ifdEntrySize       = 12
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
}

// PermuteChannels reorders every 4-byte pixel of buf from (A,B,C,D) to
// (D,C,B,A) in place and returns buf.  Trailing bytes that do not form a
// whole pixel are left alone.
func PermuteChannels(buf []byte) []byte {
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+3] = buf[i+3], buf[i]
		buf[i+1], buf[i+2] = buf[i+2], buf[i+1]
	}
	return buf
}

// WriteTIFF permutes the channels of img, which it takes ownership of, and
// writes it to path as a single strip LZW compressed RGB TIFF.
func WriteTIFF(path string, img *camera.Image) error {
	if want := img.Width * img.Height * samplesPerPixel; len(img.Pix) != want {
		return fmt.Errorf("image %dx%d has %d bytes, want %d", img.Width, img.Height, len(img.Pix), want)
	}

	debug.Verbose("Open %s for writing (format %s)...", path, FormatTIFF)
	f, err := os.Create(path)
	if err != nil {
		return &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	PermuteChannels(img.Pix)
	if err := EncodeTIFF(f, img.Width, img.Height, img.Pix); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// EncodeTIFF writes pix, already in R,G,B,extra order, as a little endian
// TIFF with one LZW strip.
func EncodeTIFF(w io.Writer, width, height int, pix []byte) error {
	var strip bytes.Buffer
	lw := lzw.NewWriter(&strip, true)
	if _, err := lw.Write(pix); err != nil {
		return fmt.Errorf("lzw: %w", err)
	}
	if err := lw.Close(); err != nil {
		return fmt.Errorf("lzw: %w", err)
	}
	debug.Verbose("Writing strip (%d bytes)...", len(pix))

	entries := []ifdEntry{
		{tagImageWidth, typeLong, 1, uint32(width)},
		{tagImageLength, typeLong, 1, uint32(height)},
		{tagBitsPerSample, typeShort, samplesPerPixel, 0},
		{tagCompression, typeShort, 1, compressionLZW},
		{tagPhotometric, typeShort, 1, photometricRGB},
		{tagStripOffsets, typeLong, 1, 0},
		{tagOrientation, typeShort, 1, orientationTopLeft},
		{tagSamplesPerPixel, typeShort, 1, samplesPerPixel},
		{tagRowsPerStrip, typeLong, 1, uint32(height)},
		{tagStripByteCounts, typeLong, 1, uint32(strip.Len())},
		{tagPlanarConfig, typeShort, 1, planarContig},
		{tagExtraSamples, typeShort, 1, extraUnassocAlpha},
	}
	ifdEnd := uint32(headerSize + 2 + len(entries)*ifdEntrySize + 4)
	// BitsPerSample values follow the IFD, then the strip
	bpsOffset := ifdEnd
	stripOffset := bpsOffset + samplesPerPixel*2
	for i := range entries {
		switch entries[i].tag {
		case tagBitsPerSample:
			entries[i].value = bpsOffset
		case tagStripOffsets:
			entries[i].value = stripOffset
		}
	}

	bw := bufio.NewWriter(w)
	le := binary.LittleEndian
	var b [12]byte

	// header: byte order, magic, first IFD
	bw.WriteString("II")
	le.PutUint16(b[:2], 42)
	le.PutUint32(b[2:6], headerSize)
	bw.Write(b[:6])

	le.PutUint16(b[:2], uint16(len(entries)))
	bw.Write(b[:2])
	for _, e := range entries {
		le.PutUint16(b[0:2], e.tag)
		le.PutUint16(b[2:4], e.typ)
		le.PutUint32(b[4:8], e.count)
		if e.typ == typeShort && e.count == 1 {
			// short values are left justified in the value field
			le.PutUint16(b[8:10], uint16(e.value))
			le.PutUint16(b[10:12], 0)
		} else {
			le.PutUint32(b[8:12], e.value)
		}
		bw.Write(b[:12])
	}
	le.PutUint32(b[:4], 0) // no next IFD
	bw.Write(b[:4])

	for i := 0; i < samplesPerPixel; i++ {
		le.PutUint16(b[:2], bitsPerSample)
		bw.Write(b[:2])
	}

	if _, err := bw.Write(strip.Bytes()); err != nil {
		return err
	}
	return bw.Flush()
}
