package v4l2request

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ControlID is a V4L2 control identifier.
type ControlID uint32

const ctrlClassCodecStateless = 0x00a40000

const cidCodecStatelessBase ControlID = ctrlClassCodecStateless | 0x900

func (id ControlID) String() string {
	switch id {
	case CIDStatelessH264SPS:
		return "H264_SPS"
	case CIDStatelessH264PPS:
		return "H264_PPS"
	case CIDStatelessH264ScalingMatrix:
		return "H264_SCALING_MATRIX"
	case CIDStatelessH264PredWeights:
		return "H264_PRED_WEIGHTS"
	case CIDStatelessH264SliceParams:
		return "H264_SLICE_PARAMS"
	case CIDStatelessH264DecodeParams:
		return "H264_DECODE_PARAMS"
	case CIDStatelessHEVCSPS:
		return "HEVC_SPS"
	case CIDStatelessHEVCPPS:
		return "HEVC_PPS"
	case CIDStatelessHEVCSliceParams:
		return "HEVC_SLICE_PARAMS"
	default:
		return fmt.Sprintf("CID(%#x)", uint32(id))
	}
}

var (
	// ErrOperationFailed is returned when a control write to the device fails.
	// The frame is abandoned; writes already issued for it are not undone.
	ErrOperationFailed = errors.New("v4l2request: operation failed")

	// ErrUnsupportedCodec is returned for codecs without a control translator.
	ErrUnsupportedCodec = errors.New("v4l2request: unsupported codec")

	// ErrNoParameters is returned when a surface carries no parameters for the
	// context's codec.
	ErrNoParameters = errors.New("v4l2request: surface has no codec parameters")

	// ErrLibV4L2Unavailable is returned when libv4l2 cannot be loaded.
	ErrLibV4L2Unavailable = errors.New("v4l2request: libv4l2 not available")

	// ErrUnsupportedPlatform is returned by device backends on platforms
	// without the V4L2 request API.
	ErrUnsupportedPlatform = errors.New("v4l2request: platform not supported")
)

// ControlError describes a failed control write.
type ControlError struct {
	ID  ControlID
	Err error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("set control %s: %v", e.ID, e.Err)
}

func (e *ControlError) Unwrap() error {
	return e.Err
}

// ControlWriter stores one control payload against a media request. The
// payload is the exact in-memory image of the kernel control block.
type ControlWriter interface {
	SetControl(videoFD, requestFD int, id ControlID, payload []byte) error
}

// ControlWriterFunc adapts a function to ControlWriter.
type ControlWriterFunc func(videoFD, requestFD int, id ControlID, payload []byte) error

func (f ControlWriterFunc) SetControl(videoFD, requestFD int, id ControlID, payload []byte) error {
	return f(videoFD, requestFD, id, payload)
}

// ControlWrite is one recorded control write.
type ControlWrite struct {
	VideoFD   int
	RequestFD int
	ID        ControlID
	Payload   []byte
}

// ControlRecorder is a ControlWriter that keeps a copy of every write instead
// of talking to a device. It is safe for concurrent use.
type ControlRecorder struct {
	mu     sync.Mutex
	writes []ControlWrite

	// FailOn makes SetControl fail for the given control ID.
	FailOn map[ControlID]error
}

// NewControlRecorder creates an empty recorder.
func NewControlRecorder() *ControlRecorder {
	return &ControlRecorder{}
}

func (r *ControlRecorder) SetControl(videoFD, requestFD int, id ControlID, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailOn[id]; ok {
		return &ControlError{ID: id, Err: err}
	}

	data := make([]byte, len(payload))
	copy(data, payload)
	r.writes = append(r.writes, ControlWrite{
		VideoFD:   videoFD,
		RequestFD: requestFD,
		ID:        id,
		Payload:   data,
	})
	return nil
}

// Writes returns the recorded writes in dispatch order.
func (r *ControlRecorder) Writes() []ControlWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ControlWrite, len(r.writes))
	copy(out, r.writes)
	return out
}

// IDs returns the recorded control IDs in dispatch order.
func (r *ControlRecorder) IDs() []ControlID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]ControlID, len(r.writes))
	for i, w := range r.writes {
		ids[i] = w.ID
	}
	return ids
}

// Last returns the most recent write for id.
func (r *ControlRecorder) Last(id ControlID) (ControlWrite, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.writes) - 1; i >= 0; i-- {
		if r.writes[i].ID == id {
			return r.writes[i], true
		}
	}
	return ControlWrite{}, false
}

// Reset drops every recorded write.
func (r *ControlRecorder) Reset() {
	r.mu.Lock()
	r.writes = nil
	r.mu.Unlock()
}

// controlBytes returns the in-memory image of a control block. The slice
// aliases v.
func controlBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// sliceBytes returns the in-memory image of a contiguous array of blocks.
func sliceBytes[T any](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), uintptr(len(v))*unsafe.Sizeof(zero))
}

// DecodeControl copies a recorded payload back into a control block. It
// returns false when the payload is shorter than the block.
func DecodeControl[T any](payload []byte, out *T) bool {
	dst := controlBytes(out)
	if len(payload) < len(dst) {
		return false
	}
	copy(dst, payload)
	return true
}

// DecodeControlArray splits a payload holding consecutive blocks.
func DecodeControlArray[T any](payload []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return nil
	}
	out := make([]T, len(payload)/size)
	for i := range out {
		DecodeControl(payload[i*size:], &out[i])
	}
	return out
}
