package scan

import "errors"

// Capability errors are detected before the device is touched.
var (
	ErrInsecureContext = errors.New("scanning requires a secure context (https or localhost)")
	ErrUnsupported     = errors.New("device/browser does not support scanning, enter the tag code manually")
)

// Device errors end a session. A new session may be started afterwards.
var (
	ErrStartFailed = errors.New("failed to start scan")
	ErrReadFailed  = errors.New("tag read error, please try again")
	ErrTimeout     = errors.New("no tag was read before the scan timed out")
)

// IsCapabilityError reports whether err was raised by the capability check.
func IsCapabilityError(err error) bool {
	return errors.Is(err, ErrInsecureContext) || errors.Is(err, ErrUnsupported)
}

// IsDeviceError reports whether err came from the reader itself.
func IsDeviceError(err error) bool {
	return errors.Is(err, ErrStartFailed) || errors.Is(err, ErrReadFailed) || errors.Is(err, ErrTimeout)
}
