package v4l2request

import "unsafe"

// Kernel-side HEVC stateless control blocks, following the
// V4L2_CID_STATELESS_HEVC_* structures. Explicit reserved fields keep the
// 64-bit flags word on its natural boundary.

// HEVCDPBEntriesMax is V4L2_HEVC_DPB_ENTRIES_NUM_MAX.
const HEVCDPBEntriesMax = 16

var (
	_ [0]struct{} = [unsafe.Sizeof(HEVCSPS{}) - 40]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(HEVCPPS{}) - 64]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(HEVCPredWeightTable{}) - 194]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(HEVCSliceParams{}) - 280]struct{}{}

	_ [0]struct{} = [unsafe.Offsetof(HEVCSPS{}.Flags) - 32]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(HEVCPPS{}.Flags) - 56]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(HEVCSliceParams{}.SliceSegmentAddr) - 36]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(HEVCSliceParams{}.PredWeightTable) - 76]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(HEVCSliceParams{}.Flags) - 272]struct{}{}
)

// Control IDs (V4L2_CID_STATELESS_HEVC_*).
const (
	CIDStatelessHEVCSPS         ControlID = cidCodecStatelessBase + 400
	CIDStatelessHEVCPPS         ControlID = cidCodecStatelessBase + 401
	CIDStatelessHEVCSliceParams ControlID = cidCodecStatelessBase + 402
)

// Slice types (V4L2_HEVC_SLICE_TYPE_*).
const (
	HEVCSliceTypeB uint8 = 0
	HEVCSliceTypeP uint8 = 1
	HEVCSliceTypeI uint8 = 2
)

// HEVCSPS is struct v4l2_ctrl_hevc_sps.
type HEVCSPS struct {
	VideoParameterSetID                  uint8
	SeqParameterSetID                    uint8
	PicWidthInLumaSamples                uint16
	PicHeightInLumaSamples               uint16
	BitDepthLumaMinus8                   uint8
	BitDepthChromaMinus8                 uint8
	Log2MaxPicOrderCntLsbMinus4          uint8
	SPSMaxDecPicBufferingMinus1          uint8
	SPSMaxNumReorderPics                 uint8
	SPSMaxLatencyIncreasePlus1           uint8
	Log2MinLumaCodingBlockSizeMinus3     uint8
	Log2DiffMaxMinLumaCodingBlockSize    uint8
	Log2MinLumaTransformBlockSizeMinus2  uint8
	Log2DiffMaxMinLumaTransformBlockSize uint8
	MaxTransformHierarchyDepthInter      uint8
	MaxTransformHierarchyDepthIntra      uint8
	PCMSampleBitDepthLumaMinus1          uint8
	PCMSampleBitDepthChromaMinus1        uint8
	Log2MinPCMLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinPCMLumaCodingBlockSize uint8
	NumShortTermRefPicSets               uint8
	NumLongTermRefPicsSPS                uint8
	ChromaFormatIdc                      uint8
	SPSMaxSubLayersMinus1                uint8
	Reserved                             [6]uint8
	Flags                                uint64
}

// HEVCPPS is struct v4l2_ctrl_hevc_pps.
type HEVCPPS struct {
	PicParameterSetID              uint8
	NumExtraSliceHeaderBits        uint8
	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	InitQPMinus26                  int8
	DiffCuQPDeltaDepth             uint8
	PPSCbQPOffset                  int8
	PPSCrQPOffset                  int8
	NumTileColumnsMinus1           uint8
	NumTileRowsMinus1              uint8
	ColumnWidthMinus1              [20]uint8
	RowHeightMinus1                [22]uint8
	PPSBetaOffsetDiv2              int8
	PPSTcOffsetDiv2                int8
	Log2ParallelMergeLevelMinus2   uint8
	Reserved                       uint8
	Flags                          uint64
}

// HEVCPredWeightTable is struct v4l2_hevc_pred_weight_table.
type HEVCPredWeightTable struct {
	DeltaLumaWeightL0          [HEVCDPBEntriesMax]int8
	LumaOffsetL0               [HEVCDPBEntriesMax]int8
	DeltaChromaWeightL0        [HEVCDPBEntriesMax][2]int8
	ChromaOffsetL0             [HEVCDPBEntriesMax][2]int8
	DeltaLumaWeightL1          [HEVCDPBEntriesMax]int8
	LumaOffsetL1               [HEVCDPBEntriesMax]int8
	DeltaChromaWeightL1        [HEVCDPBEntriesMax][2]int8
	ChromaOffsetL1             [HEVCDPBEntriesMax][2]int8
	LumaLog2WeightDenom        uint8
	DeltaChromaLog2WeightDenom int8
}

// HEVCSliceParams is struct v4l2_ctrl_hevc_slice_params.
type HEVCSliceParams struct {
	BitSize                  uint32
	DataByteOffset           uint32
	NumEntryPointOffsets     uint32
	NalUnitType              uint8
	NuhTemporalIDPlus1       uint8
	SliceType                uint8
	ColourPlaneID            uint8
	SlicePicOrderCnt         int32
	NumRefIdxL0ActiveMinus1  uint8
	NumRefIdxL1ActiveMinus1  uint8
	CollocatedRefIdx         uint8
	FiveMinusMaxNumMergeCand uint8
	SliceQPDelta             int8
	SliceCbQPOffset          int8
	SliceCrQPOffset          int8
	SliceActYQPOffset        int8
	SliceActCbQPOffset       int8
	SliceActCrQPOffset       int8
	SliceBetaOffsetDiv2      int8
	SliceTcOffsetDiv2        int8
	PicStruct                uint8
	Reserved0                [3]uint8
	SliceSegmentAddr         uint32
	RefIdxL0                 [HEVCDPBEntriesMax]uint8
	RefIdxL1                 [HEVCDPBEntriesMax]uint8
	ShortTermRefPicSetSize   uint16
	LongTermRefPicSetSize    uint16
	PredWeightTable          HEVCPredWeightTable
	Reserved1                [2]uint8
	Flags                    uint64
}
