package v4l2request

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Surface is the decode target for one frame together with the parameter
// buffers the caller rendered into it. Memory and request allocation belong
// to the caller.
type Surface struct {
	ID        PictureID
	RequestFD int

	// Timestamp is the v4l2_buffer timestamp the OUTPUT buffer of this surface
	// was queued with. Reference pictures are located by this value.
	Timestamp unix.Timeval

	// SourceData holds the compressed slice data. Slice offsets index into it.
	SourceData []byte

	H264 *H264Params
	H265 *H265Params
}

// ReferenceTS returns the timestamp in the nanosecond base that the kernel
// compares against reference_ts.
func (s *Surface) ReferenceTS() uint64 {
	return uint64(unix.TimevalToNsec(s.Timestamp))
}

// SurfaceResolver maps a picture ID back to its surface.
type SurfaceResolver interface {
	Surface(id PictureID) (*Surface, bool)
}

// SurfaceResolverFunc adapts a function to SurfaceResolver.
type SurfaceResolverFunc func(id PictureID) (*Surface, bool)

func (f SurfaceResolverFunc) Surface(id PictureID) (*Surface, bool) {
	return f(id)
}

// SurfaceHeap is a map-backed SurfaceResolver. It is safe for concurrent use.
type SurfaceHeap struct {
	mu       sync.RWMutex
	surfaces map[PictureID]*Surface
}

// NewSurfaceHeap creates an empty heap.
func NewSurfaceHeap() *SurfaceHeap {
	return &SurfaceHeap{surfaces: make(map[PictureID]*Surface)}
}

// Add registers s under s.ID, replacing any previous surface with that ID.
func (h *SurfaceHeap) Add(s *Surface) {
	h.mu.Lock()
	h.surfaces[s.ID] = s
	h.mu.Unlock()
}

// Remove forgets the surface with the given ID.
func (h *SurfaceHeap) Remove(id PictureID) {
	h.mu.Lock()
	delete(h.surfaces, id)
	h.mu.Unlock()
}

func (h *SurfaceHeap) Surface(id PictureID) (*Surface, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.surfaces[id]
	return s, ok
}

// Len returns the number of registered surfaces.
func (h *SurfaceHeap) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.surfaces)
}
