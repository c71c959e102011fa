package v4l2request

// Caller-facing HEVC parameter buffers, reduced to the fields the kernel
// controls consume.

// PictureHEVC describes one HEVC picture.
type PictureHEVC struct {
	PictureID   PictureID
	PicOrderCnt int32
	Flags       uint32
}

// PictureParametersHEVC is the per-frame picture parameter buffer.
type PictureParametersHEVC struct {
	CurrPic PictureHEVC

	PicWidthInLumaSamples  uint16
	PicHeightInLumaSamples uint16
	ChromaFormatIdc        uint8
	BitDepthLumaMinus8     uint8
	BitDepthChromaMinus8   uint8

	Log2MaxPicOrderCntLsbMinus4          uint8
	SPSMaxDecPicBufferingMinus1          uint8
	Log2MinLumaCodingBlockSizeMinus3     uint8
	Log2DiffMaxMinLumaCodingBlockSize    uint8
	Log2MinTransformBlockSizeMinus2      uint8
	Log2DiffMaxMinTransformBlockSize     uint8
	MaxTransformHierarchyDepthInter      uint8
	MaxTransformHierarchyDepthIntra      uint8
	PCMSampleBitDepthLumaMinus1          uint8
	PCMSampleBitDepthChromaMinus1        uint8
	Log2MinPCMLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinPCMLumaCodingBlockSize uint8
	NumShortTermRefPicSets               uint8
	NumLongTermRefPicSPS                 uint8

	NumExtraSliceHeaderBits      uint8
	InitQPMinus26                int8
	DiffCuQPDeltaDepth           uint8
	PPSCbQPOffset                int8
	PPSCrQPOffset                int8
	NumTileColumnsMinus1         uint8
	NumTileRowsMinus1            uint8
	PPSBetaOffsetDiv2            int8
	PPSTcOffsetDiv2              int8
	Log2ParallelMergeLevelMinus2 uint8
}

// HEVCMaxRefs is the length of the caller's per-list weight tables.
const HEVCMaxRefs = 15

// SliceParametersHEVC is one slice parameter buffer.
type SliceParametersHEVC struct {
	SliceDataSize       uint32
	SliceDataOffset     uint32
	SliceDataByteOffset uint32

	RefPicList [2][HEVCMaxRefs]uint8

	SliceType    uint8
	ColorPlaneID uint8

	CollocatedRefIdx         uint8
	FiveMinusMaxNumMergeCand uint8
	NumRefIdxL0ActiveMinus1  uint8
	NumRefIdxL1ActiveMinus1  uint8
	SliceQPDelta             int8
	SliceCbQPOffset          int8
	SliceCrQPOffset          int8
	SliceBetaOffsetDiv2      int8
	SliceTcOffsetDiv2        int8

	LumaLog2WeightDenom        uint8
	DeltaChromaLog2WeightDenom int8
	DeltaLumaWeightL0          [HEVCMaxRefs]int8
	LumaOffsetL0               [HEVCMaxRefs]int8
	DeltaChromaWeightL0        [HEVCMaxRefs][2]int8
	ChromaOffsetL0             [HEVCMaxRefs][2]int8
	DeltaLumaWeightL1          [HEVCMaxRefs]int8
	LumaOffsetL1               [HEVCMaxRefs]int8
	DeltaChromaWeightL1        [HEVCMaxRefs][2]int8
	ChromaOffsetL1             [HEVCMaxRefs][2]int8
}

// H265Params groups the buffers a surface accumulates for one HEVC frame.
type H265Params struct {
	Picture PictureParametersHEVC
	Slice   SliceParametersHEVC
}
