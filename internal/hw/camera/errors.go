package camera

import (
	"errors"
	"fmt"
)

// Code is a named device error condition.
type Code int

// Device error conditions.  The first group comes from the SCSI layer,
// the second from the SDK's own file and memory handling.
const (
	CodeUnknown Code = iota
	CodeBusy
	CodeWrite
	CodeRead
	CodeBlock
	CodePowerOn
	CodeHard
	CodePCFormat
	CodeNonATA
	CodeNoPCCard
	CodeParity
	CodeReady
	CodeOutOfDistance
	CodeHDDReset
	CodeNotFound
	CodeAny
	CodeMemory
	CodeArgument

	CodeMemAlloc
	CodeOpenFile
	CodeReadFile
	CodeNotProduct
	CodeInvalidMagic
	CodeUnknownType
	CodeInvalidArgs
	CodeWriteFile
	CodeNoImage
	CodeMultData
	CodeSingleData
)

// CodeText maps error conditions to the text shown to operators.
var CodeText = map[Code]string{
	CodeUnknown:       "unknown error",
	CodeBusy:          "timeout error",
	CodeWrite:         "scsi write error",
	CodeRead:          "scsi read error",
	CodeBlock:         "block error",
	CodePowerOn:       "power on reset error",
	CodeHard:          "hardware error",
	CodePCFormat:      "pccard format error",
	CodeNonATA:        "non supported pccard",
	CodeNoPCCard:      "no pccard present",
	CodeParity:        "scsi parity error",
	CodeReady:         "ready command error",
	CodeOutOfDistance: "out of distance",
	CodeHDDReset:      "unit reset or hdd changed",
	CodeNotFound:      "vivid not found",
	CodeAny:           "any error",
	CodeMemory:        "scsi memory error",
	CodeArgument:      "scsi argument error",
	CodeMemAlloc:      "memory allocation error",
	CodeOpenFile:      "file open error",
	CodeReadFile:      "file read error",
	CodeNotProduct:    "not a vivid file",
	CodeInvalidMagic:  "invalid magic number",
	CodeUnknownType:   "unknown type",
	CodeInvalidArgs:   "invalid argument",
	CodeWriteFile:     "file write error",
	CodeNoImage:       "has no image",
	CodeMultData:      "not a single data file",
	CodeSingleData:    "not a multi data file",
}

func (c Code) String() string {
	if s, ok := CodeText[c]; ok {
		return s
	}
	return CodeText[CodeUnknown]
}

var (
	// ErrUnavailable is returned when the device link cannot be established.
	ErrUnavailable = errors.New("device unavailable")

	// ErrUnsupportedDevice is returned when the connected model lacks a
	// requested capability (dynamic range expansion, active AF/AE).
	ErrUnsupportedDevice = errors.New("not supported by this device model")

	// ErrClosed is returned by Session methods after Close.
	ErrClosed = errors.New("session closed")
)

// ProtocolError is a device level failure.  Raw is the number reported by
// the SDK, Code its named condition.
type ProtocolError struct {
	Code Code
	Raw  int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("error %d (%s)", e.Raw, e.Code)
}

// StageError names the device operation that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Stage wraps err with the stage name, or returns nil if err is nil.
func Stage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// CodeOf extracts the device error condition from err, if any.
func CodeOf(err error) (Code, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return CodeUnknown, false
}
