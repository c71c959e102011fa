package v4l2request

// Caller-facing H.264 parameter buffers. Field names and bit layouts follow the
// VA-API buffers the acceleration layer hands over, so callers can fill them
// straight from their own structures.

// PictureID identifies a decode surface. It is opaque to this package.
type PictureID uint32

// InvalidPicture marks an empty reference slot (VA_INVALID_SURFACE).
const InvalidPicture PictureID = 0xffffffff

// Picture flags (VA_PICTURE_H264_*).
const (
	PictureFlagInvalid            uint32 = 0x01
	PictureFlagTopField           uint32 = 0x02
	PictureFlagBottomField        uint32 = 0x04
	PictureFlagShortTermReference uint32 = 0x08
	PictureFlagLongTermReference  uint32 = 0x10
)

// PictureH264 describes one picture: the current output picture or a reference.
type PictureH264 struct {
	PictureID           PictureID
	FrameIdx            uint32
	Flags               uint32
	TopFieldOrderCnt    int32
	BottomFieldOrderCnt int32
}

// IsNull reports whether the picture refers to no surface.
func (p *PictureH264) IsNull() bool {
	return p.PictureID == InvalidPicture
}

// NullPictureH264 returns an empty reference slot.
func NullPictureH264() PictureH264 {
	return PictureH264{PictureID: InvalidPicture, Flags: PictureFlagInvalid}
}

// SeqFieldsH264 mirrors the seq_fields bitfield of the VA picture buffer.
type SeqFieldsH264 uint32

const (
	SeqFieldResidualColourTransform    SeqFieldsH264 = 1 << 2
	SeqFieldGapsInFrameNumValueAllowed SeqFieldsH264 = 1 << 3
	SeqFieldFrameMbsOnly               SeqFieldsH264 = 1 << 4
	SeqFieldMbAdaptiveFrameField       SeqFieldsH264 = 1 << 5
	SeqFieldDirect8x8Inference         SeqFieldsH264 = 1 << 6
	SeqFieldMinLumaBiPredSize8x8       SeqFieldsH264 = 1 << 7
	SeqFieldDeltaPicOrderAlwaysZero    SeqFieldsH264 = 1 << 18
)

const (
	seqFieldChromaFormatIdcShift       = 0
	seqFieldLog2MaxFrameNumMinus4Shift = 8
	seqFieldPicOrderCntTypeShift       = 12
	seqFieldLog2MaxPicOrderCntLsbShift = 14
)

func (s SeqFieldsH264) ChromaFormatIdc() uint8 {
	return uint8(s>>seqFieldChromaFormatIdcShift) & 0x3
}

func (s SeqFieldsH264) Log2MaxFrameNumMinus4() uint8 {
	return uint8(s>>seqFieldLog2MaxFrameNumMinus4Shift) & 0xf
}

func (s SeqFieldsH264) PicOrderCntType() uint8 {
	return uint8(s>>seqFieldPicOrderCntTypeShift) & 0x3
}

func (s SeqFieldsH264) Log2MaxPicOrderCntLsbMinus4() uint8 {
	return uint8(s>>seqFieldLog2MaxPicOrderCntLsbShift) & 0xf
}

// Has reports whether every bit of f is set.
func (s SeqFieldsH264) Has(f SeqFieldsH264) bool {
	return s&f == f
}

// NewSeqFieldsH264 packs the multi-bit sequence fields together with flags.
func NewSeqFieldsH264(chromaFormatIdc, log2MaxFrameNumMinus4, picOrderCntType, log2MaxPicOrderCntLsbMinus4 uint8, flags SeqFieldsH264) SeqFieldsH264 {
	return flags |
		SeqFieldsH264(chromaFormatIdc&0x3)<<seqFieldChromaFormatIdcShift |
		SeqFieldsH264(log2MaxFrameNumMinus4&0xf)<<seqFieldLog2MaxFrameNumMinus4Shift |
		SeqFieldsH264(picOrderCntType&0x3)<<seqFieldPicOrderCntTypeShift |
		SeqFieldsH264(log2MaxPicOrderCntLsbMinus4&0xf)<<seqFieldLog2MaxPicOrderCntLsbShift
}

// PicFieldsH264 mirrors the pic_fields bitfield of the VA picture buffer.
type PicFieldsH264 uint32

const (
	PicFieldEntropyCodingMode              PicFieldsH264 = 1 << 0
	PicFieldWeightedPred                   PicFieldsH264 = 1 << 1
	PicFieldTransform8x8Mode               PicFieldsH264 = 1 << 4
	PicFieldFieldPic                       PicFieldsH264 = 1 << 5
	PicFieldConstrainedIntraPred           PicFieldsH264 = 1 << 6
	PicFieldPicOrderPresent                PicFieldsH264 = 1 << 7
	PicFieldDeblockingFilterControlPresent PicFieldsH264 = 1 << 8
	PicFieldRedundantPicCntPresent         PicFieldsH264 = 1 << 9
	PicFieldReferencePic                   PicFieldsH264 = 1 << 10
)

const picFieldWeightedBipredIdcShift = 2

func (p PicFieldsH264) WeightedBipredIdc() uint8 {
	return uint8(p>>picFieldWeightedBipredIdcShift) & 0x3
}

func (p PicFieldsH264) Has(f PicFieldsH264) bool {
	return p&f == f
}

// NewPicFieldsH264 packs weighted_bipred_idc together with flags.
func NewPicFieldsH264(weightedBipredIdc uint8, flags PicFieldsH264) PicFieldsH264 {
	return flags | PicFieldsH264(weightedBipredIdc&0x3)<<picFieldWeightedBipredIdcShift
}

// PictureParametersH264 is the per-frame picture parameter buffer.
type PictureParametersH264 struct {
	CurrPic                   PictureH264
	ReferenceFrames           [H264DPBSize]PictureH264
	PictureWidthInMbsMinus1   uint16
	PictureHeightInMbsMinus1  uint16
	BitDepthLumaMinus8        uint8
	BitDepthChromaMinus8      uint8
	NumRefFrames              uint8
	SeqFields                 SeqFieldsH264
	PicInitQPMinus26          int8
	PicInitQSMinus26          int8
	ChromaQPIndexOffset       int8
	SecondChromaQPIndexOffset int8
	PicFields                 PicFieldsH264
	FrameNum                  uint16
}

// ActiveReferences returns the declared reference set: the first NumRefFrames
// entries of ReferenceFrames.
func (p *PictureParametersH264) ActiveReferences() []PictureH264 {
	n := int(p.NumRefFrames)
	if n > len(p.ReferenceFrames) {
		n = len(p.ReferenceFrames)
	}
	return p.ReferenceFrames[:n]
}

// IQMatrixH264 carries the quantization matrices. Only the first two 8x8
// lists are transported by the caller interface.
type IQMatrixH264 struct {
	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [2][64]uint8
}

// SliceParametersH264 is one slice parameter buffer.
type SliceParametersH264 struct {
	SliceDataSize              uint32
	SliceDataOffset            uint32
	SliceDataBitOffset         uint16
	FirstMbInSlice             uint16
	SliceType                  uint8
	DirectSpatialMvPredFlag    bool
	NumRefIdxL0ActiveMinus1    uint8
	NumRefIdxL1ActiveMinus1    uint8
	CabacInitIdc               uint8
	SliceQPDelta               int8
	DisableDeblockingFilterIdc uint8
	SliceAlphaC0OffsetDiv2     int8
	SliceBetaOffsetDiv2        int8
	RefPicList0                [H264RefListLen]PictureH264
	RefPicList1                [H264RefListLen]PictureH264

	LumaLog2WeightDenom   uint8
	ChromaLog2WeightDenom uint8
	LumaWeightL0          [H264RefListLen]int16
	LumaOffsetL0          [H264RefListLen]int16
	ChromaWeightL0        [H264RefListLen][2]int16
	ChromaOffsetL0        [H264RefListLen][2]int16
	LumaWeightL1          [H264RefListLen]int16
	LumaOffsetL1          [H264RefListLen]int16
	ChromaWeightL1        [H264RefListLen][2]int16
	ChromaOffsetL1        [H264RefListLen][2]int16
}

// Slice types after normalization (raw slice_type % 5).
const (
	SliceTypeP  uint8 = 0
	SliceTypeB  uint8 = 1
	SliceTypeI  uint8 = 2
	SliceTypeSP uint8 = 3
	SliceTypeSI uint8 = 4
)

// NormalizedSliceType folds the redundant 5..9 range onto 0..4.
func (s *SliceParametersH264) NormalizedSliceType() uint8 {
	return s.SliceType % 5
}

// H264Params groups the buffers a surface accumulates for one frame.
type H264Params struct {
	Picture PictureParametersH264
	Matrix  IQMatrixH264
	Slices  []SliceParametersH264
}
