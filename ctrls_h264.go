package v4l2request

import "unsafe"

// Kernel-side H.264 stateless control blocks. Layouts follow the
// V4L2_CID_STATELESS_H264_* structures of v4l2-controls.h byte for byte;
// Go's natural alignment produces the same padding as the C compiler for
// every block below.

const (
	// H264DPBSize is V4L2_H264_NUM_DPB_ENTRIES.
	H264DPBSize = 16
	// H264RefListLen is V4L2_H264_REF_LIST_LEN.
	H264RefListLen = 2 * H264DPBSize
)

// Compile-time size assertions against the kernel ABI.
var (
	_ [0]struct{} = [unsafe.Sizeof(H264SPS{}) - 1048]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264PPS{}) - 12]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264ScalingMatrix{}) - 480]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264WeightFactors{}) - 384]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264PredWeights{}) - 772]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264Reference{}) - 2]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264SliceParams{}) - 152]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264DPBEntry{}) - 32]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(H264DecodeParams{}) - 560]struct{}{}

	_ [0]struct{} = [unsafe.Offsetof(H264SliceParams{}.RefPicList0) - 20]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(H264DPBEntry{}.TopFieldOrderCnt) - 20]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(H264DecodeParams{}.NalRefIdc) - 512]struct{}{}
)

// Control IDs (V4L2_CID_STATELESS_H264_*).
const (
	CIDStatelessH264SPS           ControlID = cidCodecStatelessBase + 2
	CIDStatelessH264PPS           ControlID = cidCodecStatelessBase + 3
	CIDStatelessH264ScalingMatrix ControlID = cidCodecStatelessBase + 4
	CIDStatelessH264PredWeights   ControlID = cidCodecStatelessBase + 5
	CIDStatelessH264SliceParams   ControlID = cidCodecStatelessBase + 6
	CIDStatelessH264DecodeParams  ControlID = cidCodecStatelessBase + 7
)

// SPS flags (V4L2_H264_SPS_FLAG_*).
const (
	H264SPSFlagSeparateColourPlane         uint32 = 0x01
	H264SPSFlagQPPrimeYZeroTransformBypass uint32 = 0x02
	H264SPSFlagDeltaPicOrderAlwaysZero     uint32 = 0x04
	H264SPSFlagGapsInFrameNumValueAllowed  uint32 = 0x08
	H264SPSFlagFrameMbsOnly                uint32 = 0x10
	H264SPSFlagMbAdaptiveFrameField        uint32 = 0x20
	H264SPSFlagDirect8x8Inference          uint32 = 0x40
)

// PPS flags (V4L2_H264_PPS_FLAG_*).
const (
	H264PPSFlagEntropyCodingMode                 uint16 = 0x0001
	H264PPSFlagBottomFieldPicOrderInFramePresent uint16 = 0x0002
	H264PPSFlagWeightedPred                      uint16 = 0x0004
	H264PPSFlagDeblockingFilterControlPresent    uint16 = 0x0008
	H264PPSFlagConstrainedIntraPred              uint16 = 0x0010
	H264PPSFlagRedundantPicCntPresent            uint16 = 0x0020
	H264PPSFlagTransform8x8Mode                  uint16 = 0x0040
	H264PPSFlagScalingMatrixPresent              uint16 = 0x0080
)

// Slice flags (V4L2_H264_SLICE_FLAG_*).
const (
	H264SliceFlagDirectSpatialMvPred uint32 = 0x01
	H264SliceFlagSPForSwitch         uint32 = 0x02
)

// DPB entry flags (V4L2_H264_DPB_ENTRY_FLAG_*).
const (
	H264DPBEntryFlagValid    uint32 = 0x01
	H264DPBEntryFlagActive   uint32 = 0x02
	H264DPBEntryFlagLongTerm uint32 = 0x04
	H264DPBEntryFlagField    uint32 = 0x08
)

// Decode flags (V4L2_H264_DECODE_PARAM_FLAG_*).
const (
	H264DecodeParamFlagIDRPic      uint32 = 0x01
	H264DecodeParamFlagFieldPic    uint32 = 0x02
	H264DecodeParamFlagBottomField uint32 = 0x04
)

// H264SPS is struct v4l2_ctrl_h264_sps.
type H264SPS struct {
	ProfileIdc                     uint8
	ConstraintSetFlags             uint8
	LevelIdc                       uint8
	SeqParameterSetID              uint8
	ChromaFormatIdc                uint8
	BitDepthLumaMinus8             uint8
	BitDepthChromaMinus8           uint8
	Log2MaxFrameNumMinus4          uint8
	PicOrderCntType                uint8
	Log2MaxPicOrderCntLsbMinus4    uint8
	MaxNumRefFrames                uint8
	NumRefFramesInPicOrderCntCycle uint8
	OffsetForRefFrame              [255]int32
	OffsetForNonRefPic             int32
	OffsetForTopToBottomField      int32
	PicWidthInMbsMinus1            uint16
	PicHeightInMapUnitsMinus1      uint16
	Flags                          uint32
}

// H264PPS is struct v4l2_ctrl_h264_pps.
type H264PPS struct {
	PicParameterSetID              uint8
	SeqParameterSetID              uint8
	NumSliceGroupsMinus1           uint8
	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	WeightedBipredIdc              uint8
	PicInitQPMinus26               int8
	PicInitQSMinus26               int8
	ChromaQPIndexOffset            int8
	SecondChromaQPIndexOffset      int8
	Flags                          uint16
}

// H264ScalingMatrix is struct v4l2_ctrl_h264_scaling_matrix.
type H264ScalingMatrix struct {
	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [6][64]uint8
}

// H264WeightFactors is struct v4l2_h264_weight_factors.
type H264WeightFactors struct {
	LumaWeight   [32]int16
	LumaOffset   [32]int16
	ChromaWeight [32][2]int16
	ChromaOffset [32][2]int16
}

// H264PredWeights is struct v4l2_ctrl_h264_pred_weights.
type H264PredWeights struct {
	LumaLog2WeightDenom   uint16
	ChromaLog2WeightDenom uint16
	WeightFactors         [2]H264WeightFactors
}

// H264Reference is struct v4l2_h264_reference: a DPB slot index plus the
// fields of that slot being referenced.
type H264Reference struct {
	Fields uint8
	Index  uint8
}

// H264SliceParams is struct v4l2_ctrl_h264_slice_params.
type H264SliceParams struct {
	HeaderBitSize              uint32
	FirstMbInSlice             uint32
	SliceType                  uint8
	ColourPlaneID              uint8
	RedundantPicCnt            uint8
	CabacInitIdc               uint8
	SliceQPDelta               int8
	SliceQSDelta               int8
	DisableDeblockingFilterIdc uint8
	SliceAlphaC0OffsetDiv2     int8
	SliceBetaOffsetDiv2        int8
	NumRefIdxL0ActiveMinus1    uint8
	NumRefIdxL1ActiveMinus1    uint8
	Reserved                   uint8
	RefPicList0                [H264RefListLen]H264Reference
	RefPicList1                [H264RefListLen]H264Reference
	Flags                      uint32
}

// H264DPBEntry is struct v4l2_h264_dpb_entry.
type H264DPBEntry struct {
	ReferenceTS         uint64
	PicNum              uint32
	FrameNum            uint16
	Fields              uint8
	Reserved            [5]uint8
	TopFieldOrderCnt    int32
	BottomFieldOrderCnt int32
	Flags               uint32
}

// H264DecodeParams is struct v4l2_ctrl_h264_decode_params.
type H264DecodeParams struct {
	DPB                     [H264DPBSize]H264DPBEntry
	NalRefIdc               uint16
	FrameNum                uint16
	TopFieldOrderCnt        int32
	BottomFieldOrderCnt     int32
	IDRPicID                uint16
	PicOrderCntLsb          uint16
	DeltaPicOrderCntBottom  int32
	DeltaPicOrderCnt0       int32
	DeltaPicOrderCnt1       int32
	DecRefPicMarkingBitSize uint32
	PicOrderCntBitSize      uint32
	SliceGroupChangeCycle   uint32
	Reserved                uint32
	Flags                   uint32
}
