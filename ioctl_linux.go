//go:build linux && (amd64 || arm64)

package v4l2request

import (
	"encoding/binary"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	_ [0]struct{} = [unsafe.Sizeof(v4l2ExtControl{}) - 20]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2ExtControls{}) - 32]struct{}{}

	_ [0]struct{} = [unsafe.Offsetof(v4l2ExtControls{}.controls) - 24]struct{}{}
)

const (
	vidiocSExtCtrls = 0xc0205648 // VIDIOC_S_EXT_CTRLS

	v4l2CtrlWhichRequestVal = 0x0f010000 // V4L2_CTRL_WHICH_REQUEST_VAL
)

// v4l2ExtControl is the packed struct v4l2_ext_control, 20 bytes.
type v4l2ExtControl struct {
	id        uint32  // offset 0
	size      uint32  // offset 4
	reserved2 uint32  // offset 8
	ptr       [8]byte // offset 12, unaligned
}

// v4l2ExtControls has size 32 bytes.
type v4l2ExtControls struct {
	which     uint32          // offset 0
	count     uint32          // offset 4
	errorIdx  uint32          // offset 8
	requestFD int32           // offset 12
	reserved  uint32          // offset 16
	_         uint32          // offset 20, padding
	controls  *v4l2ExtControl // offset 24
}

// IoctlControlWriter writes controls with VIDIOC_S_EXT_CTRLS directly on the
// video node.
type IoctlControlWriter struct{}

// NewIoctlControlWriter returns a writer that issues raw ioctls.
func NewIoctlControlWriter() *IoctlControlWriter {
	return &IoctlControlWriter{}
}

func (w *IoctlControlWriter) SetControl(videoFD, requestFD int, id ControlID, payload []byte) error {
	var pinner runtime.Pinner
	defer pinner.Unpin()

	ctrls := newExtControls(&pinner, requestFD, id, payload)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(videoFD), vidiocSExtCtrls, uintptr(unsafe.Pointer(ctrls)))
	if errno != 0 {
		return &ControlError{ID: id, Err: errno}
	}
	return nil
}

// newExtControls builds a single-control request write. The kernel reads
// the control array and the payload through raw addresses, so the request
// block, the control and the payload are pinned on pinner before any address
// is taken. Callers unpin after the ioctl returns.
func newExtControls(pinner *runtime.Pinner, requestFD int, id ControlID, payload []byte) *v4l2ExtControls {
	ctrl := &v4l2ExtControl{
		id:   uint32(id),
		size: uint32(len(payload)),
	}
	pinner.Pin(ctrl)
	if len(payload) > 0 {
		pinner.Pin(&payload[0])
		binary.NativeEndian.PutUint64(ctrl.ptr[:], uint64(uintptr(unsafe.Pointer(&payload[0]))))
	}

	ctrls := &v4l2ExtControls{
		which:     v4l2CtrlWhichRequestVal,
		count:     1,
		requestFD: int32(requestFD),
		controls:  ctrl,
	}
	pinner.Pin(ctrls)
	return ctrls
}
