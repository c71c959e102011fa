// Decoded frame types and plane copy helpers.

package v4l2request

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when a plane copy does not fit its buffers.
var ErrShortBuffer = errors.New("v4l2request: buffer too short")

// PixelFormat represents decoded picture formats on the CAPTURE queue.
type PixelFormat int

const (
	PixelFormatNV12      PixelFormat = iota // YUV 4:2:0 semi-planar (Y + interleaved UV)
	PixelFormatNV12Tiled                    // NV12 in 32x32 macroblock tiles
	PixelFormatI420                         // YUV 4:2:0 planar (Y + U + V)
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatNV12:
		return "NV12"
	case PixelFormatNV12Tiled:
		return "NV12Tiled"
	case PixelFormatI420:
		return "I420"
	default:
		return "Unknown"
	}
}

// FourCC returns the V4L2 pixel format code.
func (p PixelFormat) FourCC() uint32 {
	switch p {
	case PixelFormatNV12:
		return fourcc('N', 'V', '1', '2')
	case PixelFormatNV12Tiled:
		return fourcc('S', 'T', '1', '2') // V4L2_PIX_FMT_SUNXI_TILED_NV12
	case PixelFormatI420:
		return fourcc('Y', 'U', '1', '2')
	default:
		return 0
	}
}

// PlaneCount returns the number of planes for this pixel format.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatNV12, PixelFormatNV12Tiled:
		return 2 // Y, UV
	case PixelFormatI420:
		return 3 // Y, U, V
	default:
		return 0
	}
}

// VideoFrame is one decoded picture.
// The Data slices may alias a mapped CAPTURE buffer. Callers must ensure the
// mapping outlives the frame or Clone it.
type VideoFrame struct {
	Data      [][]byte    // Plane data
	Stride    []int       // Stride for each plane in bytes
	Width     int         // Frame width in pixels
	Height    int         // Frame height in pixels
	Format    PixelFormat // Pixel format
	Timestamp int64       // Surface timestamp in nanoseconds
}

// Clone creates a deep copy of the video frame.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Data:      make([][]byte, len(f.Data)),
		Stride:    make([]int, len(f.Stride)),
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Timestamp: f.Timestamp,
	}
	copy(clone.Stride, f.Stride)
	for i, plane := range f.Data {
		if plane != nil {
			clone.Data[i] = make([]byte, len(plane))
			copy(clone.Data[i], plane)
		}
	}
	return clone
}

// NV12Size returns the total buffer size needed for an NV12 frame.
func NV12Size(width, height int) int {
	// Y plane: width * height
	// UV plane: width * (height/2), interleaved
	return width*height + width*((height+1)/2)
}

// TiledToPlanar copies a height-row plane of width bytes per row from src
// into dst, whose rows are dstPitch bytes apart. Rows in src are packed at
// width bytes. The copy is row linear and does not reorder tiles.
func TiledToPlanar(src, dst []byte, dstPitch, width, height int) error {
	if width < 0 || height < 0 || dstPitch < width {
		return fmt.Errorf("tiled to planar: width %d height %d pitch %d: %w", width, height, dstPitch, ErrShortBuffer)
	}
	if height == 0 || width == 0 {
		return nil
	}
	if len(src) < width*height {
		return fmt.Errorf("tiled to planar: src %d bytes, need %d: %w", len(src), width*height, ErrShortBuffer)
	}
	if need := (height-1)*dstPitch + width; len(dst) < need {
		return fmt.Errorf("tiled to planar: dst %d bytes, need %d: %w", len(dst), need, ErrShortBuffer)
	}

	for y := 0; y < height; y++ {
		copy(dst[y*dstPitch:y*dstPitch+width], src[y*width:(y+1)*width])
	}
	return nil
}

// NV12FrameFromTiled converts a CAPTURE buffer holding a tiled NV12 picture
// into a packed NV12 VideoFrame with stride equal to width.
func NV12FrameFromTiled(buf []byte, width, height int, timestamp int64) (*VideoFrame, error) {
	lumaSize := width * height
	chromaHeight := (height + 1) / 2
	if len(buf) < NV12Size(width, height) {
		return nil, fmt.Errorf("nv12 frame %dx%d: %d bytes: %w", width, height, len(buf), ErrShortBuffer)
	}

	luma := make([]byte, lumaSize)
	chroma := make([]byte, width*chromaHeight)
	if err := TiledToPlanar(buf[:lumaSize], luma, width, width, height); err != nil {
		return nil, err
	}
	if err := TiledToPlanar(buf[lumaSize:], chroma, width, width, chromaHeight); err != nil {
		return nil, err
	}

	return &VideoFrame{
		Data:      [][]byte{luma, chroma},
		Stride:    []int{width, width},
		Width:     width,
		Height:    height,
		Format:    PixelFormatNV12,
		Timestamp: timestamp,
	}, nil
}
