// Package v4l2request translates VA-API style H.264 and HEVC decode
// parameter buffers into V4L2 stateless decoder controls written against a
// media request.
//
// Key pieces include:
//   - DecodeContext, which owns per-stream state and dispatches controls
//   - DPB, the H.264 reference picture store and its slot allocator
//   - parameter, scaling matrix and slice translators for H.264 and HEVC
//   - ControlWriter backends: raw ioctl, libv4l2 via purego, and an
//     in-memory ControlRecorder for dry runs and tests
//
// # Frame flow
//
//	Surface (H264Params) -> DecodeContext.SetControls
//	  -> DPB reserve + reference update
//	  -> DECODE_PARAMS, SLICE_PARAMS, PPS, SPS, SCALING_MATRIX [, PRED_WEIGHTS]
//	  -> DPB commit
//
// A frame either commits its output picture to the DPB or, on a failed
// control write, leaves the DPB slot reserved until the next frame releases
// it.
//
// # Native Libraries
//
// NewLibV4L2ControlWriter loads libv4l2.so.0 at runtime with purego, so no
// cgo toolchain is required. Set V4L2REQUEST_LIB_PATH to override the search
// path. NewIoctlControlWriter needs no library at all.
//
// # Logging
//
// Contexts log through pion/logging. Pass WithLoggerFactory or WithLogger to
// route output; PION_LOG_DEBUG=v4l2request enables slot allocation traces.
package v4l2request
