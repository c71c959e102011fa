package v4l2request

import (
	"fmt"
	"strings"
)

// VideoCodec identifies the codec a decode context translates controls for.
type VideoCodec int

const (
	VideoCodecUnknown VideoCodec = iota
	VideoCodecH264
	VideoCodecH265
)

func (c VideoCodec) String() string {
	switch c {
	case VideoCodecH264:
		return "H264"
	case VideoCodecH265:
		return "H265"
	default:
		return "Unknown"
	}
}

// PixelFormat returns the V4L2 compressed pixel format fourcc the OUTPUT
// queue uses for this codec.
func (c VideoCodec) PixelFormat() uint32 {
	switch c {
	case VideoCodecH264:
		return fourcc('S', '2', '6', '4') // V4L2_PIX_FMT_H264_SLICE
	case VideoCodecH265:
		return fourcc('S', '2', '6', '5') // V4L2_PIX_FMT_HEVC_SLICE
	default:
		return 0
	}
}

// DPBSize returns the number of reference slots the kernel interface exposes
// for this codec. Zero means the codec carries no tracked DPB at this layer.
func (c VideoCodec) DPBSize() int {
	switch c {
	case VideoCodecH264:
		return H264DPBSize
	default:
		return 0
	}
}

func fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// ParseVideoCodec parses a codec name such as "h264" or "HEVC".
func ParseVideoCodec(s string) (VideoCodec, error) {
	switch strings.ToLower(s) {
	case "h264", "avc":
		return VideoCodecH264, nil
	case "h265", "hevc":
		return VideoCodecH265, nil
	default:
		return VideoCodecUnknown, fmt.Errorf("%w: %q", ErrUnsupportedCodec, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *VideoCodec) UnmarshalText(text []byte) error {
	codec, err := ParseVideoCodec(string(text))
	if err != nil {
		return err
	}
	*c = codec
	return nil
}
