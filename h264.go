package v4l2request

import (
	"fmt"
)

// h264PPSFlagTable maps every semantic picture-level flag onto its PPS bit.
var h264PPSFlagTable = []struct {
	src PicFieldsH264
	dst uint16
}{
	{PicFieldEntropyCodingMode, H264PPSFlagEntropyCodingMode},
	{PicFieldWeightedPred, H264PPSFlagWeightedPred},
	{PicFieldTransform8x8Mode, H264PPSFlagTransform8x8Mode},
	{PicFieldConstrainedIntraPred, H264PPSFlagConstrainedIntraPred},
	{PicFieldPicOrderPresent, H264PPSFlagBottomFieldPicOrderInFramePresent},
	{PicFieldDeblockingFilterControlPresent, H264PPSFlagDeblockingFilterControlPresent},
	{PicFieldRedundantPicCntPresent, H264PPSFlagRedundantPicCntPresent},
}

// h264SPSFlagTable maps every semantic sequence-level flag onto its SPS bit.
var h264SPSFlagTable = []struct {
	src SeqFieldsH264
	dst uint32
}{
	{SeqFieldResidualColourTransform, H264SPSFlagSeparateColourPlane},
	{SeqFieldGapsInFrameNumValueAllowed, H264SPSFlagGapsInFrameNumValueAllowed},
	{SeqFieldFrameMbsOnly, H264SPSFlagFrameMbsOnly},
	{SeqFieldMbAdaptiveFrameField, H264SPSFlagMbAdaptiveFrameField},
	{SeqFieldDirect8x8Inference, H264SPSFlagDirect8x8Inference},
	{SeqFieldDeltaPicOrderAlwaysZero, H264SPSFlagDeltaPicOrderAlwaysZero},
}

func h264PPSFlags(fields PicFieldsH264) uint16 {
	var flags uint16
	for _, m := range h264PPSFlagTable {
		if fields.Has(m.src) {
			flags |= m.dst
		}
	}
	return flags
}

func h264SPSFlags(fields SeqFieldsH264) uint32 {
	var flags uint32
	for _, m := range h264SPSFlagTable {
		if fields.Has(m.src) {
			flags |= m.dst
		}
	}
	return flags
}

// h264FillDPB serializes the valid slots of dpb at their slot index.
func h264FillDPB(dpb *DPB, surfaces SurfaceResolver, decode *H264DecodeParams) {
	for i := range dpb.entries {
		entry := &dpb.entries[i]
		if !entry.Valid {
			continue
		}

		out := &decode.DPB[i]
		if surfaces != nil {
			if surface, ok := surfaces.Surface(entry.Picture.PictureID); ok {
				out.ReferenceTS = surface.ReferenceTS()
			}
		}

		out.FrameNum = uint16(entry.Picture.FrameIdx)
		out.TopFieldOrderCnt = entry.Picture.TopFieldOrderCnt
		out.BottomFieldOrderCnt = entry.Picture.BottomFieldOrderCnt

		out.Flags = H264DPBEntryFlagValid
		if entry.Used {
			out.Flags |= H264DPBEntryFlagActive
		}
		if entry.LongTerm() {
			out.Flags |= H264DPBEntryFlagLongTerm
		}
	}
}

// h264TranslatePicture fills the decode, PPS and SPS blocks.
func h264TranslatePicture(dpb *DPB, surfaces SurfaceResolver, picture *PictureParametersH264,
	decode *H264DecodeParams, pps *H264PPS, sps *H264SPS) {
	h264FillDPB(dpb, surfaces, decode)

	decode.FrameNum = picture.FrameNum
	decode.TopFieldOrderCnt = picture.CurrPic.TopFieldOrderCnt
	decode.BottomFieldOrderCnt = picture.CurrPic.BottomFieldOrderCnt
	if picture.PicFields.Has(PicFieldFieldPic) {
		decode.Flags |= H264DecodeParamFlagFieldPic
		if picture.CurrPic.Flags&PictureFlagBottomField != 0 {
			decode.Flags |= H264DecodeParamFlagBottomField
		}
	}

	pps.WeightedBipredIdc = picture.PicFields.WeightedBipredIdc()
	pps.PicInitQSMinus26 = picture.PicInitQSMinus26
	pps.PicInitQPMinus26 = picture.PicInitQPMinus26
	pps.ChromaQPIndexOffset = picture.ChromaQPIndexOffset
	pps.SecondChromaQPIndexOffset = picture.SecondChromaQPIndexOffset
	pps.Flags |= h264PPSFlags(picture.PicFields)

	sps.ChromaFormatIdc = picture.SeqFields.ChromaFormatIdc()
	sps.BitDepthLumaMinus8 = picture.BitDepthLumaMinus8
	sps.BitDepthChromaMinus8 = picture.BitDepthChromaMinus8
	sps.Log2MaxFrameNumMinus4 = picture.SeqFields.Log2MaxFrameNumMinus4()
	sps.Log2MaxPicOrderCntLsbMinus4 = picture.SeqFields.Log2MaxPicOrderCntLsbMinus4()
	sps.PicOrderCntType = picture.SeqFields.PicOrderCntType()
	sps.MaxNumRefFrames = picture.NumRefFrames
	sps.PicWidthInMbsMinus1 = picture.PictureWidthInMbsMinus1
	sps.PicHeightInMapUnitsMinus1 = picture.PictureHeightInMbsMinus1
	sps.Flags |= h264SPSFlags(picture.SeqFields)
}

// h264TranslateMatrix fills the scaling matrix block. The caller interface
// only carries the two 8x8 lists used by 4:2:0 and 4:2:2; the kernel expects
// them at the luma intra/inter positions 0 and 3 of its six-list array.
func h264TranslateMatrix(matrix *IQMatrixH264, out *H264ScalingMatrix) {
	out.ScalingList4x4 = matrix.ScalingList4x4
	out.ScalingList8x8[0] = matrix.ScalingList8x8[0]
	out.ScalingList8x8[3] = matrix.ScalingList8x8[1]
}

func h264CopyWeightFactors(out *H264WeightFactors, count int,
	lumaWeight, lumaOffset *[H264RefListLen]int16,
	chromaWeight, chromaOffset *[H264RefListLen][2]int16) {
	for i := 0; i < count; i++ {
		out.LumaWeight[i] = lumaWeight[i]
		out.LumaOffset[i] = lumaOffset[i]
		out.ChromaWeight[i] = chromaWeight[i]
		out.ChromaOffset[i] = chromaOffset[i]
	}
}

// h264RefCount turns a num_ref_idx_lX_active_minus1 value into a list length
// bounded by the reference list size.
func h264RefCount(minus1 uint8) int {
	n := int(minus1) + 1
	if n > H264RefListLen {
		n = H264RefListLen
	}
	return n
}

// h264ResolveRefList writes the DPB slot index of each resolvable reference.
// References missing from the DPB keep their zero value.
func h264ResolveRefList(dpb *DPB, refs *[H264RefListLen]PictureH264, count int, out *[H264RefListLen]H264Reference) {
	for i := 0; i < count; i++ {
		_, idx, ok := dpb.Lookup(refs[i].PictureID)
		if !ok {
			continue
		}
		out[i].Index = uint8(idx)
		out[i].Fields = 0
	}
}

// h264TranslateSlice fills one slice parameter block and the prediction
// weights that go with it.
func h264TranslateSlice(dpb *DPB, slice *SliceParametersH264, out *H264SliceParams, weights *H264PredWeights) {
	sliceType := slice.NormalizedSliceType()

	out.HeaderBitSize = uint32(slice.SliceDataBitOffset)
	out.FirstMbInSlice = uint32(slice.FirstMbInSlice)
	// The kernel enum only has the 0..4 range.
	out.SliceType = sliceType
	out.CabacInitIdc = slice.CabacInitIdc
	out.SliceQPDelta = slice.SliceQPDelta
	out.DisableDeblockingFilterIdc = slice.DisableDeblockingFilterIdc
	out.SliceAlphaC0OffsetDiv2 = slice.SliceAlphaC0OffsetDiv2
	out.SliceBetaOffsetDiv2 = slice.SliceBetaOffsetDiv2

	weights.LumaLog2WeightDenom = uint16(slice.LumaLog2WeightDenom)
	weights.ChromaLog2WeightDenom = uint16(slice.ChromaLog2WeightDenom)

	if sliceType == SliceTypeP || sliceType == SliceTypeB {
		count := h264RefCount(slice.NumRefIdxL0ActiveMinus1)
		out.NumRefIdxL0ActiveMinus1 = slice.NumRefIdxL0ActiveMinus1
		h264ResolveRefList(dpb, &slice.RefPicList0, count, &out.RefPicList0)
		h264CopyWeightFactors(&weights.WeightFactors[0], count,
			&slice.LumaWeightL0, &slice.LumaOffsetL0, &slice.ChromaWeightL0, &slice.ChromaOffsetL0)
	}

	if sliceType == SliceTypeB {
		count := h264RefCount(slice.NumRefIdxL1ActiveMinus1)
		out.NumRefIdxL1ActiveMinus1 = slice.NumRefIdxL1ActiveMinus1
		h264ResolveRefList(dpb, &slice.RefPicList1, count, &out.RefPicList1)
		h264CopyWeightFactors(&weights.WeightFactors[1], count,
			&slice.LumaWeightL1, &slice.LumaOffsetL1, &slice.ChromaWeightL1, &slice.ChromaOffsetL1)
	}

	if slice.DirectSpatialMvPredFlag {
		out.Flags |= H264SliceFlagDirectSpatialMvPred
	}
}

// h264PredWeightsRequired reports whether explicit weighted prediction
// applies to slice, following V4L2_H264_CTRL_PRED_WEIGHTS_REQUIRED.
func h264PredWeightsRequired(pps *H264PPS, slice *H264SliceParams) bool {
	switch slice.SliceType {
	case SliceTypeP, SliceTypeSP:
		return pps.Flags&H264PPSFlagWeightedPred != 0
	case SliceTypeB:
		return pps.WeightedBipredIdc == 1
	default:
		return false
	}
}

// h264Controls holds the blocks produced for one frame.
type h264Controls struct {
	decode  H264DecodeParams
	slices  []H264SliceParams
	weights []H264PredWeights
	pps     H264PPS
	sps     H264SPS
	matrix  H264ScalingMatrix
}

type h264Write struct {
	id      ControlID
	payload []byte
}

// h264SetControls runs one frame through the DPB and dispatches its controls.
func (c *DecodeContext) h264SetControls(surface *Surface) error {
	params := surface.H264
	if params == nil {
		return fmt.Errorf("surface %d: %w", surface.ID, ErrNoParameters)
	}
	picture := &params.Picture
	dpb := c.dpb
	dpb.releaseReservations()

	output, _, ok := dpb.Lookup(picture.CurrPic.PictureID)
	if !ok {
		output = dpb.Allocate()
	}
	if output == nil {
		output = dpb.findOldest(picture.ActiveReferences())
		c.log.Warnf("[%s] dpb exhausted, reusing slot %d for picture %d",
			c.id, dpb.Index(output), picture.CurrPic.PictureID)
	}
	slot := dpb.Index(output)
	dpb.Reserve(output)

	dpb.Update(picture.ActiveReferences())

	// SLICE_PARAMS is always written; a frame without slices sends one
	// zeroed block.
	n := max(len(params.Slices), 1)
	ctrls := h264Controls{
		slices:  make([]H264SliceParams, n),
		weights: make([]H264PredWeights, n),
	}
	h264TranslatePicture(dpb, c.surfaces, picture, &ctrls.decode, &ctrls.pps, &ctrls.sps)
	h264TranslateMatrix(&params.Matrix, &ctrls.matrix)
	for i := range params.Slices {
		h264TranslateSlice(dpb, &params.Slices[i], &ctrls.slices[i], &ctrls.weights[i])
	}

	writes := []h264Write{
		{CIDStatelessH264DecodeParams, controlBytes(&ctrls.decode)},
		{CIDStatelessH264SliceParams, sliceBytes(ctrls.slices)},
		{CIDStatelessH264PPS, controlBytes(&ctrls.pps)},
		{CIDStatelessH264SPS, controlBytes(&ctrls.sps)},
		{CIDStatelessH264ScalingMatrix, controlBytes(&ctrls.matrix)},
	}
	if len(params.Slices) > 0 && h264PredWeightsRequired(&ctrls.pps, &ctrls.slices[0]) {
		writes = append(writes, h264Write{CIDStatelessH264PredWeights, sliceBytes(ctrls.weights)})
	}
	for _, w := range writes {
		if err := c.setControl(surface, w.id, w.payload); err != nil {
			return err
		}
	}

	dpb.Commit(output, picture.CurrPic)
	c.log.Debugf("[%s] picture %d committed to slot %d (age %d, %d valid)",
		c.id, picture.CurrPic.PictureID, slot, dpb.Age(), dpb.ValidCount())
	return nil
}
