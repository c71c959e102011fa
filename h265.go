package v4l2request

import (
	"fmt"
)

const (
	hevcNalUnitTypeShift        = 1
	hevcNalUnitTypeMask         = (1 << 6) - 1
	hevcNuhTemporalIDPlus1Shift = 0
	hevcNuhTemporalIDPlus1Mask  = (1 << 3) - 1
)

func h265FillPPS(picture *PictureParametersHEVC, pps *HEVCPPS) {
	*pps = HEVCPPS{}

	pps.NumExtraSliceHeaderBits = picture.NumExtraSliceHeaderBits
	pps.InitQPMinus26 = picture.InitQPMinus26
	pps.DiffCuQPDeltaDepth = picture.DiffCuQPDeltaDepth
	pps.PPSCbQPOffset = picture.PPSCbQPOffset
	pps.PPSCrQPOffset = picture.PPSCrQPOffset
	pps.NumTileColumnsMinus1 = picture.NumTileColumnsMinus1
	pps.NumTileRowsMinus1 = picture.NumTileRowsMinus1
	pps.PPSBetaOffsetDiv2 = picture.PPSBetaOffsetDiv2
	pps.PPSTcOffsetDiv2 = picture.PPSTcOffsetDiv2
	pps.Log2ParallelMergeLevelMinus2 = picture.Log2ParallelMergeLevelMinus2
}

func h265FillSPS(picture *PictureParametersHEVC, sps *HEVCSPS) {
	*sps = HEVCSPS{}

	sps.PicWidthInLumaSamples = picture.PicWidthInLumaSamples
	sps.PicHeightInLumaSamples = picture.PicHeightInLumaSamples
	sps.BitDepthLumaMinus8 = picture.BitDepthLumaMinus8
	sps.BitDepthChromaMinus8 = picture.BitDepthChromaMinus8
	sps.Log2MaxPicOrderCntLsbMinus4 = picture.Log2MaxPicOrderCntLsbMinus4
	sps.SPSMaxDecPicBufferingMinus1 = picture.SPSMaxDecPicBufferingMinus1
	sps.Log2MinLumaCodingBlockSizeMinus3 = picture.Log2MinLumaCodingBlockSizeMinus3
	sps.Log2DiffMaxMinLumaCodingBlockSize = picture.Log2DiffMaxMinLumaCodingBlockSize
	sps.Log2MinLumaTransformBlockSizeMinus2 = picture.Log2MinTransformBlockSizeMinus2
	sps.Log2DiffMaxMinLumaTransformBlockSize = picture.Log2DiffMaxMinTransformBlockSize
	sps.MaxTransformHierarchyDepthInter = picture.MaxTransformHierarchyDepthInter
	sps.MaxTransformHierarchyDepthIntra = picture.MaxTransformHierarchyDepthIntra
	sps.PCMSampleBitDepthLumaMinus1 = picture.PCMSampleBitDepthLumaMinus1
	sps.PCMSampleBitDepthChromaMinus1 = picture.PCMSampleBitDepthChromaMinus1
	sps.Log2MinPCMLumaCodingBlockSizeMinus3 = picture.Log2MinPCMLumaCodingBlockSizeMinus3
	sps.Log2DiffMaxMinPCMLumaCodingBlockSize = picture.Log2DiffMaxMinPCMLumaCodingBlockSize
	sps.NumShortTermRefPicSets = picture.NumShortTermRefPicSets
	sps.NumLongTermRefPicsSPS = picture.NumLongTermRefPicSPS
	sps.ChromaFormatIdc = picture.ChromaFormatIdc
}

// h265NalHeader reads nal_unit_type and nuh_temporal_id_plus1 from the two
// header bytes at the start of the slice data. Out of range offsets yield
// zeros.
func h265NalHeader(source []byte, offset uint32) (nalUnitType, temporalIDPlus1 uint8) {
	if uint64(offset)+2 > uint64(len(source)) {
		return 0, 0
	}
	b := source[offset:]
	nalUnitType = (b[0] >> hevcNalUnitTypeShift) & hevcNalUnitTypeMask
	temporalIDPlus1 = (b[1] >> hevcNuhTemporalIDPlus1Shift) & hevcNuhTemporalIDPlus1Mask
	return nalUnitType, temporalIDPlus1
}

func h265FillSliceParams(picture *PictureParametersHEVC, slice *SliceParametersHEVC, source []byte, out *HEVCSliceParams) {
	*out = HEVCSliceParams{}

	out.NalUnitType, out.NuhTemporalIDPlus1 = h265NalHeader(source, slice.SliceDataOffset)

	out.BitSize = slice.SliceDataSize * 8
	out.DataByteOffset = slice.SliceDataOffset + slice.SliceDataByteOffset

	sliceType := slice.SliceType
	out.SliceType = sliceType
	out.ColourPlaneID = slice.ColorPlaneID
	out.SlicePicOrderCnt = picture.CurrPic.PicOrderCnt
	out.NumRefIdxL0ActiveMinus1 = slice.NumRefIdxL0ActiveMinus1
	out.NumRefIdxL1ActiveMinus1 = slice.NumRefIdxL1ActiveMinus1
	out.CollocatedRefIdx = slice.CollocatedRefIdx
	out.FiveMinusMaxNumMergeCand = slice.FiveMinusMaxNumMergeCand
	out.SliceQPDelta = slice.SliceQPDelta
	out.SliceCbQPOffset = slice.SliceCbQPOffset
	out.SliceCrQPOffset = slice.SliceCrQPOffset
	out.SliceBetaOffsetDiv2 = slice.SliceBetaOffsetDiv2
	out.SliceTcOffsetDiv2 = slice.SliceTcOffsetDiv2

	if sliceType != HEVCSliceTypeI {
		count := min(int(out.NumRefIdxL0ActiveMinus1)+1, HEVCMaxRefs)
		for i := 0; i < count; i++ {
			out.RefIdxL0[i] = slice.RefPicList[0][i]
		}
	}
	if sliceType == HEVCSliceTypeB {
		count := min(int(out.NumRefIdxL1ActiveMinus1)+1, HEVCMaxRefs)
		for i := 0; i < count; i++ {
			out.RefIdxL1[i] = slice.RefPicList[1][i]
		}
	}

	pwt := &out.PredWeightTable
	pwt.LumaLog2WeightDenom = slice.LumaLog2WeightDenom
	pwt.DeltaChromaLog2WeightDenom = slice.DeltaChromaLog2WeightDenom
	if sliceType != HEVCSliceTypeI {
		for i := 0; i < HEVCMaxRefs; i++ {
			pwt.DeltaLumaWeightL0[i] = slice.DeltaLumaWeightL0[i]
			pwt.LumaOffsetL0[i] = slice.LumaOffsetL0[i]
			pwt.DeltaChromaWeightL0[i] = slice.DeltaChromaWeightL0[i]
			pwt.ChromaOffsetL0[i] = slice.ChromaOffsetL0[i]
		}
	}
	if sliceType == HEVCSliceTypeB {
		for i := 0; i < HEVCMaxRefs; i++ {
			pwt.DeltaLumaWeightL1[i] = slice.DeltaLumaWeightL1[i]
			pwt.LumaOffsetL1[i] = slice.LumaOffsetL1[i]
			pwt.DeltaChromaWeightL1[i] = slice.DeltaChromaWeightL1[i]
			pwt.ChromaOffsetL1[i] = slice.ChromaOffsetL1[i]
		}
	}
}

// h265SetControls writes PPS, SPS and slice parameters for one HEVC frame.
// HEVC reference tracking is done by the caller through RefPicList indices.
func (c *DecodeContext) h265SetControls(surface *Surface) error {
	params := surface.H265
	if params == nil {
		return fmt.Errorf("surface %d: %w", surface.ID, ErrNoParameters)
	}

	var pps HEVCPPS
	h265FillPPS(&params.Picture, &pps)
	if err := c.setControl(surface, CIDStatelessHEVCPPS, controlBytes(&pps)); err != nil {
		return err
	}

	var sps HEVCSPS
	h265FillSPS(&params.Picture, &sps)
	if err := c.setControl(surface, CIDStatelessHEVCSPS, controlBytes(&sps)); err != nil {
		return err
	}

	var slice HEVCSliceParams
	h265FillSliceParams(&params.Picture, &params.Slice, surface.SourceData, &slice)
	return c.setControl(surface, CIDStatelessHEVCSliceParams, controlBytes(&slice))
}
