package v4l2request

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/logging"
)

// ContextConfig configures a DecodeContext.
type ContextConfig struct {
	// Codec selects the control translator.
	Codec VideoCodec `yaml:"codec"`

	// VideoFD is the open stateless decoder video node.
	VideoFD int `yaml:"video_fd"`

	// Writer receives every control write. Required.
	Writer ControlWriter `yaml:"-"`

	// Surfaces resolves reference pictures to surfaces for timestamp lookup.
	// When nil, reference_ts is left at zero.
	Surfaces SurfaceResolver `yaml:"-"`
}

// DefaultContextConfig returns an H.264 configuration with no device attached.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		Codec:   VideoCodecH264,
		VideoFD: -1,
	}
}

// ContextOption configures optional DecodeContext behaviour.
type ContextOption func(c *DecodeContext) error

// WithLogger sets the logger used by the context.
func WithLogger(log logging.LeveledLogger) ContextOption {
	return func(c *DecodeContext) error {
		c.log = log
		return nil
	}
}

// WithLoggerFactory sets the factory the context creates its logger from.
func WithLoggerFactory(factory logging.LoggerFactory) ContextOption {
	return func(c *DecodeContext) error {
		c.loggerFactory = factory
		return nil
	}
}

// WithID overrides the generated context ID.
func WithID(id uuid.UUID) ContextOption {
	return func(c *DecodeContext) error {
		if id == uuid.Nil {
			return errors.New("v4l2request: nil context ID")
		}
		c.id = id
		return nil
	}
}

// DecodeContext translates per-frame parameter buffers into stateless codec
// controls for one stream. H.264 contexts own a DPB that persists across
// frames. A DecodeContext is not safe for concurrent use; independent streams
// need independent contexts.
type DecodeContext struct {
	id       uuid.UUID
	codec    VideoCodec
	videoFD  int
	writer   ControlWriter
	surfaces SurfaceResolver

	dpb *DPB

	log           logging.LeveledLogger
	loggerFactory logging.LoggerFactory
}

// NewDecodeContext creates a context for config.Codec.
func NewDecodeContext(config ContextConfig, opts ...ContextOption) (*DecodeContext, error) {
	switch config.Codec {
	case VideoCodecH264, VideoCodecH265:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, config.Codec)
	}
	if config.Writer == nil {
		return nil, errors.New("v4l2request: control writer is required")
	}

	c := &DecodeContext{
		id:       uuid.New(),
		codec:    config.Codec,
		videoFD:  config.VideoFD,
		writer:   config.Writer,
		surfaces: config.Surfaces,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.loggerFactory == nil {
		c.loggerFactory = logging.NewDefaultLoggerFactory()
	}
	if c.log == nil {
		c.log = c.loggerFactory.NewLogger("v4l2request")
	}

	if config.Codec == VideoCodecH264 {
		c.dpb = NewDPB(c.log)
	}

	c.log.Debugf("[%s] %s decode context created (fd %d)", c.id, c.codec, c.videoFD)
	return c, nil
}

// ID returns the context identifier used in log output.
func (c *DecodeContext) ID() uuid.UUID {
	return c.id
}

// Codec returns the codec the context translates for.
func (c *DecodeContext) Codec() VideoCodec {
	return c.codec
}

// DPB returns the reference picture store, or nil for codecs without one.
func (c *DecodeContext) DPB() *DPB {
	return c.dpb
}

// SetControls translates the parameters attached to surface and writes the
// resulting controls into surface.RequestFD. A failed write aborts the frame
// with an error wrapping ErrOperationFailed; writes already issued for the
// frame are left in the request for the caller to discard.
func (c *DecodeContext) SetControls(surface *Surface) error {
	switch c.codec {
	case VideoCodecH264:
		return c.h264SetControls(surface)
	case VideoCodecH265:
		return c.h265SetControls(surface)
	default:
		return ErrUnsupportedCodec
	}
}

func (c *DecodeContext) setControl(surface *Surface, id ControlID, payload []byte) error {
	if err := c.writer.SetControl(c.videoFD, surface.RequestFD, id, payload); err != nil {
		c.log.Errorf("[%s] surface %d: set %s (%d bytes): %v", c.id, surface.ID, id, len(payload), err)
		return fmt.Errorf("%w: %w", ErrOperationFailed, err)
	}
	return nil
}
