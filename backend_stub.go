//go:build !linux || !(amd64 || arm64)

package v4l2request

// IoctlControlWriter is unavailable on this platform.
type IoctlControlWriter struct{}

// NewIoctlControlWriter returns a writer that always fails.
func NewIoctlControlWriter() *IoctlControlWriter {
	return &IoctlControlWriter{}
}

func (w *IoctlControlWriter) SetControl(videoFD, requestFD int, id ControlID, payload []byte) error {
	return &ControlError{ID: id, Err: ErrUnsupportedPlatform}
}

// LibV4L2ControlWriter is unavailable on this platform.
type LibV4L2ControlWriter struct{}

// NewLibV4L2ControlWriter always fails on this platform.
func NewLibV4L2ControlWriter() (*LibV4L2ControlWriter, error) {
	return nil, ErrUnsupportedPlatform
}

func (w *LibV4L2ControlWriter) SetControl(videoFD, requestFD int, id ControlID, payload []byte) error {
	return &ControlError{ID: id, Err: ErrUnsupportedPlatform}
}
