package camera

import (
	"fmt"

	"github.com/cjeanneret/v2scan/internal/debug"
)

// Session is the link to the device for one run.  It is not safe for
// concurrent use; v2scan drives it from a single goroutine.
type Session struct {
	sdk    SDK
	record *Data
	closed bool
}

// Open initializes the device link.  The returned error matches
// ErrUnavailable when the transport cannot be initialized.
func Open(sdk SDK) (*Session, error) {
	debug.Verbose("Initializing SCSI device...")
	if err := sdk.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: SCSI Initialize: %w", ErrUnavailable, err)
	}
	return &Session{sdk: sdk}, nil
}

// SDK returns the driver behind the session.
func (s *Session) SDK() SDK {
	return s.sdk
}

// Record returns the capture record of the session, allocating it on first
// use.  There is only ever one.
func (s *Session) Record() (*Data, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.record == nil {
		s.record = &Data{}
	}
	return s.record, nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed
}

// Close finishes the device link and frees the capture record.  Calling it
// more than once is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	debug.Verbose("Closing SCSI device...")
	err := s.sdk.Finish()
	if s.record != nil {
		s.sdk.FreeData(s.record)
		s.record = nil
	}
	if err != nil {
		return fmt.Errorf("SCSI Finish: %w", err)
	}
	return nil
}
