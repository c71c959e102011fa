package v4l2request

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var h264DispatchOrder = []ControlID{
	CIDStatelessH264DecodeParams,
	CIDStatelessH264SliceParams,
	CIDStatelessH264PPS,
	CIDStatelessH264SPS,
	CIDStatelessH264ScalingMatrix,
}

func newTestContext(t *testing.T, codec VideoCodec, rec *ControlRecorder, surfaces SurfaceResolver) *DecodeContext {
	t.Helper()
	cfg := DefaultContextConfig()
	cfg.Codec = codec
	cfg.VideoFD = 3
	cfg.Writer = rec
	cfg.Surfaces = surfaces

	c, err := NewDecodeContext(cfg)
	require.NoError(t, err)
	return c
}

// h264Frame builds a surface that outputs picture id and references refs.
func h264Frame(id PictureID, refs []PictureID, slices ...SliceParametersH264) *Surface {
	params := &H264Params{Slices: slices}
	params.Picture.CurrPic = PictureH264{PictureID: id, FrameIdx: uint32(id), Flags: PictureFlagShortTermReference}
	for i := range params.Picture.ReferenceFrames {
		params.Picture.ReferenceFrames[i] = NullPictureH264()
	}
	for i, ref := range refs {
		params.Picture.ReferenceFrames[i] = pic(ref)
	}
	params.Picture.NumRefFrames = uint8(len(refs))

	return &Surface{
		ID:        id,
		RequestFD: 100 + int(id),
		Timestamp: timeval(0, int64(id)),
		H264:      params,
	}
}

func TestNewDecodeContext(t *testing.T) {
	rec := NewControlRecorder()

	c := newTestContext(t, VideoCodecH264, rec, nil)
	assert.Equal(t, VideoCodecH264, c.Codec())
	assert.NotEqual(t, uuid.Nil, c.ID())
	require.NotNil(t, c.DPB())
	assert.Equal(t, H264DPBSize, c.DPB().Capacity())

	hevc := newTestContext(t, VideoCodecH265, rec, nil)
	assert.Nil(t, hevc.DPB())
}

func TestNewDecodeContext_Errors(t *testing.T) {
	cfg := DefaultContextConfig()
	_, err := NewDecodeContext(cfg)
	assert.Error(t, err, "missing writer")

	cfg.Writer = NewControlRecorder()
	cfg.Codec = VideoCodecUnknown
	_, err = NewDecodeContext(cfg)
	assert.ErrorIs(t, err, ErrUnsupportedCodec)

	cfg.Codec = VideoCodecH264
	_, err = NewDecodeContext(cfg, WithID(uuid.Nil))
	assert.Error(t, err)
}

func TestNewDecodeContext_Options(t *testing.T) {
	id := uuid.MustParse("6f1c1e36-59a4-4f43-9d0b-1b2c3d4e5f60")
	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = logging.LogLevelDisabled

	cfg := DefaultContextConfig()
	cfg.Writer = NewControlRecorder()
	c, err := NewDecodeContext(cfg, WithID(id), WithLoggerFactory(factory))
	require.NoError(t, err)
	assert.Equal(t, id, c.ID())

	log := factory.NewLogger("test")
	c, err = NewDecodeContext(cfg, WithLogger(log))
	require.NoError(t, err)
	assert.Same(t, log, c.log)
}

func TestDecodeContext_DispatchOrder(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)

	surface := h264Frame(1, nil, SliceParametersH264{SliceType: SliceTypeI})
	require.NoError(t, c.SetControls(surface))

	assert.Equal(t, h264DispatchOrder, rec.IDs())
	for _, w := range rec.Writes() {
		assert.Equal(t, 3, w.VideoFD)
		assert.Equal(t, 101, w.RequestFD)
	}

	for _, id := range h264DispatchOrder {
		w, ok := rec.Last(id)
		require.True(t, ok, id.String())
		assert.Len(t, w.Payload, kernelControlSizes[id], id.String())
	}
}

// kernelControlSizes pins each control ID to the size of the kernel block it
// carries.
var kernelControlSizes = map[ControlID]int{
	CIDStatelessH264DecodeParams:  560,
	CIDStatelessH264SliceParams:   152,
	CIDStatelessH264PPS:           12,
	CIDStatelessH264SPS:           1048,
	CIDStatelessH264ScalingMatrix: 480,
	CIDStatelessH264PredWeights:   772,
	CIDStatelessHEVCSPS:           40,
	CIDStatelessHEVCPPS:           64,
	CIDStatelessHEVCSliceParams:   280,
}

func TestDecodeContext_ControlSizesMatchIDs(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)

	require.NoError(t, c.SetControls(h264Frame(1, nil, SliceParametersH264{SliceType: SliceTypeI})))
	weighted := h264Frame(2, []PictureID{1}, SliceParametersH264{SliceType: SliceTypeP})
	weighted.H264.Picture.PicFields = PicFieldWeightedPred
	require.NoError(t, c.SetControls(weighted))

	hevc := newTestContext(t, VideoCodecH265, rec, nil)
	require.NoError(t, hevc.SetControls(&Surface{ID: 3, H265: &H265Params{}}))

	seen := make(map[ControlID]bool)
	for _, w := range rec.Writes() {
		size, ok := kernelControlSizes[w.ID]
		require.True(t, ok, "no kernel block for %s", w.ID)
		assert.Len(t, w.Payload, size, w.ID.String())
		seen[w.ID] = true
	}
	assert.Len(t, seen, len(kernelControlSizes), "every control was exercised")
}

func TestDecodeContext_PredWeights(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)
	require.NoError(t, c.SetControls(h264Frame(1, nil)))

	slice := SliceParametersH264{SliceType: SliceTypeB, LumaLog2WeightDenom: 6}
	slice.RefPicList0[0] = pic(1)
	slice.RefPicList1[0] = pic(1)
	slice.LumaWeightL0[0] = 70
	slice.LumaWeightL1[0] = 58

	frame := h264Frame(2, []PictureID{1}, slice)
	frame.H264.Picture.PicFields = NewPicFieldsH264(1, 0)

	rec.Reset()
	require.NoError(t, c.SetControls(frame))
	assert.Equal(t, append(h264DispatchOrder[:len(h264DispatchOrder):len(h264DispatchOrder)], CIDStatelessH264PredWeights), rec.IDs())

	w, ok := rec.Last(CIDStatelessH264PredWeights)
	require.True(t, ok)
	var weights H264PredWeights
	require.True(t, DecodeControl(w.Payload, &weights))
	assert.Equal(t, uint16(6), weights.LumaLog2WeightDenom)
	assert.Equal(t, int16(70), weights.WeightFactors[0].LumaWeight[0])
	assert.Equal(t, int16(58), weights.WeightFactors[1].LumaWeight[0])

	// Implicit bi-prediction carries no explicit table.
	frame.H264.Picture.PicFields = NewPicFieldsH264(2, 0)
	rec.Reset()
	require.NoError(t, c.SetControls(frame))
	assert.Equal(t, h264DispatchOrder, rec.IDs())
}

func TestDecodeContext_EndToEnd(t *testing.T) {
	rec := NewControlRecorder()
	heap := NewSurfaceHeap()
	c := newTestContext(t, VideoCodecH264, rec, heap)

	frameA := h264Frame(1, nil, SliceParametersH264{SliceType: SliceTypeI})
	heap.Add(frameA)
	require.NoError(t, c.SetControls(frameA))

	dpb := c.DPB()
	slot0 := dpb.Entry(0)
	assert.Equal(t, PictureID(1), slot0.Picture.PictureID)
	assert.Equal(t, uint32(1), slot0.Age)
	assert.True(t, slot0.Valid)
	assert.True(t, slot0.Used)
	assert.False(t, slot0.Reserved)

	rec.Reset()
	sliceB := SliceParametersH264{SliceType: SliceTypeB}
	sliceB.RefPicList0[0] = pic(1)
	frameB := h264Frame(2, []PictureID{1}, sliceB)
	heap.Add(frameB)
	require.NoError(t, c.SetControls(frameB))

	assert.Equal(t, uint32(2), dpb.Age())
	assert.Equal(t, uint32(2), slot0.Age)
	assert.True(t, slot0.Used)

	slot1 := dpb.Entry(1)
	assert.Equal(t, PictureID(2), slot1.Picture.PictureID)
	assert.Equal(t, uint32(2), slot1.Age)
	assert.True(t, slot1.Valid)

	w, ok := rec.Last(CIDStatelessH264SliceParams)
	require.True(t, ok)
	slices := DecodeControlArray[H264SliceParams](w.Payload)
	require.Len(t, slices, 1)
	assert.Equal(t, uint8(0), slices[0].RefPicList0[0].Index)
	assert.Equal(t, SliceTypeB, slices[0].SliceType)

	w, ok = rec.Last(CIDStatelessH264DecodeParams)
	require.True(t, ok)
	var decode H264DecodeParams
	require.True(t, DecodeControl(w.Payload, &decode))
	assert.Equal(t, H264DPBEntryFlagValid|H264DPBEntryFlagActive, decode.DPB[0].Flags)
	assert.Equal(t, frameA.ReferenceTS(), decode.DPB[0].ReferenceTS)
	assert.Zero(t, decode.DPB[1].Flags, "output slot is reserved, not yet valid")
}

func TestDecodeContext_MultipleSlices(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)

	surface := h264Frame(1, nil,
		SliceParametersH264{SliceType: SliceTypeI, FirstMbInSlice: 0, SliceDataSize: 100},
		SliceParametersH264{SliceType: SliceTypeI, FirstMbInSlice: 60, SliceDataSize: 80, SliceDataOffset: 100, SliceDataBitOffset: 21},
	)
	require.NoError(t, c.SetControls(surface))

	w, ok := rec.Last(CIDStatelessH264SliceParams)
	require.True(t, ok)
	assert.Len(t, w.Payload, 2*kernelControlSizes[CIDStatelessH264SliceParams])
	slices := DecodeControlArray[H264SliceParams](w.Payload)
	require.Len(t, slices, 2)
	assert.Equal(t, uint32(60), slices[1].FirstMbInSlice)
	assert.Equal(t, uint32(21), slices[1].HeaderBitSize)
}

func TestDecodeContext_NoSlices(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)

	require.NoError(t, c.SetControls(h264Frame(1, nil)))

	w, ok := rec.Last(CIDStatelessH264SliceParams)
	require.True(t, ok)
	assert.Len(t, w.Payload, kernelControlSizes[CIDStatelessH264SliceParams])
}

func TestDecodeContext_WriteFailure(t *testing.T) {
	rec := NewControlRecorder()
	rec.FailOn = map[ControlID]error{CIDStatelessH264PPS: unix.EINVAL}
	c := newTestContext(t, VideoCodecH264, rec, nil)

	err := c.SetControls(h264Frame(1, nil, SliceParametersH264{SliceType: SliceTypeI}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.ErrorIs(t, err, unix.EINVAL)

	var ctrlErr *ControlError
	require.True(t, errors.As(err, &ctrlErr))
	assert.Equal(t, CIDStatelessH264PPS, ctrlErr.ID)

	// Writes before the failure stay issued; nothing after it is sent.
	assert.Equal(t, h264DispatchOrder[:2], rec.IDs())

	dpb := c.DPB()
	_, _, ok := dpb.Lookup(1)
	assert.False(t, ok, "failed frame must not commit")
	assert.True(t, dpb.Entry(0).Reserved)

	// The next frame releases the stale reservation and reuses the slot.
	rec.FailOn = nil
	require.NoError(t, c.SetControls(h264Frame(2, nil)))
	_, idx, ok := dpb.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.False(t, dpb.Entry(0).Reserved)
}

func TestDecodeContext_RedecodeReusesEntry(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)

	require.NoError(t, c.SetControls(h264Frame(1, nil)))
	require.NoError(t, c.SetControls(h264Frame(2, []PictureID{1})))

	// Decoding picture 1 again reuses and clears its existing slot.
	require.NoError(t, c.SetControls(h264Frame(1, []PictureID{2})))

	dpb := c.DPB()
	_, idx, ok := dpb.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 2, dpb.ValidCount())
	assert.Equal(t, uint32(3), dpb.Entry(0).Age)
}

// fillDPB decodes pictures 1..16, each referencing every earlier picture.
func fillDPB(t *testing.T, c *DecodeContext) []PictureID {
	t.Helper()
	refs := make([]PictureID, 0, H264DPBSize)
	for id := PictureID(1); id <= H264DPBSize; id++ {
		require.NoError(t, c.SetControls(h264Frame(id, refs)))
		refs = append(refs, id)
	}
	require.Equal(t, H264DPBSize, c.DPB().ValidCount())
	return refs
}

func TestDecodeContext_ExhaustedDPB(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)
	dpb := c.DPB()
	refs := fillDPB(t, c)

	// Every slot is still flagged as used by the previous frame and all ages
	// tie. Picture 5 is no longer referenced, so it makes room instead of
	// slot 0.
	current := make([]PictureID, 0, len(refs))
	for _, id := range refs {
		if id != 5 {
			current = append(current, id)
		}
	}
	slice := SliceParametersH264{SliceType: SliceTypeP, NumRefIdxL0ActiveMinus1: 1}
	slice.RefPicList0[0] = pic(1)
	slice.RefPicList0[1] = pic(16)
	require.NoError(t, c.SetControls(h264Frame(100, current, slice)))

	_, idx, ok := dpb.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, 4, idx)
	assert.Equal(t, H264DPBSize, dpb.ValidCount())

	for _, id := range current {
		_, refIdx, ok := dpb.Lookup(id)
		require.True(t, ok, "reference %d evicted", id)
		assert.Equal(t, int(id)-1, refIdx, "reference %d moved", id)
	}
	_, _, ok = dpb.Lookup(5)
	assert.False(t, ok)

	w, ok := rec.Last(CIDStatelessH264SliceParams)
	require.True(t, ok)
	slices := DecodeControlArray[H264SliceParams](w.Payload)
	require.Len(t, slices, 1)
	assert.Equal(t, uint8(0), slices[0].RefPicList0[0].Index)
	assert.Equal(t, uint8(15), slices[0].RefPicList0[1].Index)
}

func TestDecodeContext_ExhaustedDPBAllReferenced(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)
	dpb := c.DPB()
	refs := fillDPB(t, c)

	// Sixteen references plus the output cannot fit; the oldest slot is taken.
	require.NoError(t, c.SetControls(h264Frame(100, refs)))

	_, idx, ok := dpb.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, H264DPBSize, dpb.ValidCount())
}

func TestDecodeContext_MissingParameters(t *testing.T) {
	rec := NewControlRecorder()
	c := newTestContext(t, VideoCodecH264, rec, nil)

	err := c.SetControls(&Surface{ID: 1})
	assert.ErrorIs(t, err, ErrNoParameters)
	assert.Empty(t, rec.IDs())

	hevc := newTestContext(t, VideoCodecH265, rec, nil)
	err = hevc.SetControls(&Surface{ID: 1})
	assert.ErrorIs(t, err, ErrNoParameters)
}

func TestDecodeContext_IndependentStores(t *testing.T) {
	rec := NewControlRecorder()
	a := newTestContext(t, VideoCodecH264, rec, nil)
	b := newTestContext(t, VideoCodecH264, rec, nil)

	require.NoError(t, a.SetControls(h264Frame(1, nil)))

	assert.Equal(t, 1, a.DPB().ValidCount())
	assert.Equal(t, 0, b.DPB().ValidCount())
	assert.NotEqual(t, a.ID(), b.ID())
}
