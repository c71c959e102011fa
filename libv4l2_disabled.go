//go:build linux && (amd64 || arm64) && nolibv4l2

package v4l2request

// LibV4L2ControlWriter is compiled out by the nolibv4l2 tag.
type LibV4L2ControlWriter struct{}

// NewLibV4L2ControlWriter always fails when built with nolibv4l2.
func NewLibV4L2ControlWriter() (*LibV4L2ControlWriter, error) {
	return nil, ErrLibV4L2Unavailable
}

func (w *LibV4L2ControlWriter) SetControl(videoFD, requestFD int, id ControlID, payload []byte) error {
	return &ControlError{ID: id, Err: ErrLibV4L2Unavailable}
}
