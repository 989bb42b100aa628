package refdec

import "errors"

var errSPSTruncated = errors.New("refdec: SPS truncated")

type spsInfo struct {
	width  int
	height int
}

type bitReader struct {
	data []byte
	pos  int
	bit  int
}

func (br *bitReader) readBit() (uint, error) {
	if br.pos >= len(br.data) {
		return 0, errSPSTruncated
	}
	val := uint((br.data[br.pos] >> (7 - br.bit)) & 1)
	br.bit++
	if br.bit == 8 {
		br.bit = 0
		br.pos++
	}
	return val, nil
}

func (br *bitReader) readBits(n int) (uint, error) {
	var val uint
	for i := 0; i < n; i++ {
		b, err := br.readBit()
		if err != nil {
			return 0, err
		}
		val = (val << 1) | b
	}
	return val, nil
}

// readUE reads an Exp-Golomb unsigned value (ue(v)).
func (br *bitReader) readUE() (uint, error) {
	zeros := 0
	for {
		b, err := br.readBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > 31 {
			return 0, errSPSTruncated
		}
	}
	if zeros == 0 {
		return 0, nil
	}
	suffix, err := br.readBits(zeros)
	if err != nil {
		return 0, err
	}
	return (1 << zeros) - 1 + suffix, nil
}

// readSE reads an Exp-Golomb signed value (se(v)).
func (br *bitReader) readSE() (int, error) {
	val, err := br.readUE()
	if err != nil {
		return 0, err
	}
	if val%2 == 0 {
		return -int(val / 2), nil
	}
	return int((val + 1) / 2), nil
}

func (br *bitReader) skipScalingList(size int) error {
	lastScale := 8
	nextScale := 8
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			delta, err := br.readSE()
			if err != nil {
				return err
			}
			nextScale = (lastScale + delta + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
	return nil
}

// highProfileIDC reports whether an SPS with this profile carries the
// chroma format and scaling matrix fields (ITU-T H.264 7.3.2.1.1).
func highProfileIDC(profile uint) bool {
	switch profile {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134:
		return true
	}
	return false
}

// parseSPS extracts the picture geometry from SPS RBSP data (emulation
// prevention already removed, NAL header byte already stripped). Only the
// fields up to frame cropping are read; everything after the geometry is
// irrelevant to the reference decoder.
func parseSPS(rbsp []byte) (spsInfo, error) {
	br := &bitReader{data: rbsp}

	profileIDC, err := br.readBits(8)
	if err != nil {
		return spsInfo{}, err
	}
	// constraint flags + level_idc
	if _, err := br.readBits(16); err != nil {
		return spsInfo{}, err
	}
	// seq_parameter_set_id
	if _, err := br.readUE(); err != nil {
		return spsInfo{}, err
	}

	chromaFormatIDC := uint(1)
	separateColourPlane := false
	if highProfileIDC(profileIDC) {
		chromaFormatIDC, err = br.readUE()
		if err != nil {
			return spsInfo{}, err
		}
		if chromaFormatIDC == 3 {
			val, err := br.readBits(1)
			if err != nil {
				return spsInfo{}, err
			}
			separateColourPlane = val == 1
		}
		// bit_depth_luma/chroma_minus8
		if _, err := br.readUE(); err != nil {
			return spsInfo{}, err
		}
		if _, err := br.readUE(); err != nil {
			return spsInfo{}, err
		}
		// qpprime_y_zero_transform_bypass_flag
		if _, err := br.readBits(1); err != nil {
			return spsInfo{}, err
		}

		scalingMatrixPresent, err := br.readBits(1)
		if err != nil {
			return spsInfo{}, err
		}
		if scalingMatrixPresent == 1 {
			limit := 8
			if chromaFormatIDC == 3 {
				limit = 12
			}
			for i := 0; i < limit; i++ {
				flag, err := br.readBits(1)
				if err != nil {
					return spsInfo{}, err
				}
				if flag == 0 {
					continue
				}
				size := 16
				if i >= 6 {
					size = 64
				}
				if err := br.skipScalingList(size); err != nil {
					return spsInfo{}, err
				}
			}
		}
	}

	// log2_max_frame_num_minus4
	if _, err := br.readUE(); err != nil {
		return spsInfo{}, err
	}

	picOrderCntType, err := br.readUE()
	if err != nil {
		return spsInfo{}, err
	}
	switch picOrderCntType {
	case 0:
		if _, err := br.readUE(); err != nil {
			return spsInfo{}, err
		}
	case 1:
		if _, err := br.readBits(1); err != nil {
			return spsInfo{}, err
		}
		if _, err := br.readSE(); err != nil {
			return spsInfo{}, err
		}
		if _, err := br.readSE(); err != nil {
			return spsInfo{}, err
		}
		numRefFrames, err := br.readUE()
		if err != nil {
			return spsInfo{}, err
		}
		for i := uint(0); i < numRefFrames; i++ {
			if _, err := br.readSE(); err != nil {
				return spsInfo{}, err
			}
		}
	}

	// max_num_ref_frames + gaps_in_frame_num_value_allowed_flag
	if _, err := br.readUE(); err != nil {
		return spsInfo{}, err
	}
	if _, err := br.readBits(1); err != nil {
		return spsInfo{}, err
	}

	picWidthMbs, err := br.readUE()
	if err != nil {
		return spsInfo{}, err
	}
	picHeightMapUnits, err := br.readUE()
	if err != nil {
		return spsInfo{}, err
	}

	frameMbsOnly, err := br.readBits(1)
	if err != nil {
		return spsInfo{}, err
	}
	if frameMbsOnly == 0 {
		// mb_adaptive_frame_field_flag
		if _, err := br.readBits(1); err != nil {
			return spsInfo{}, err
		}
	}
	// direct_8x8_inference_flag
	if _, err := br.readBits(1); err != nil {
		return spsInfo{}, err
	}

	cropLeft, cropRight, cropTop, cropBottom := uint(0), uint(0), uint(0), uint(0)
	cropping, err := br.readBits(1)
	if err != nil {
		return spsInfo{}, err
	}
	if cropping == 1 {
		if cropLeft, err = br.readUE(); err != nil {
			return spsInfo{}, err
		}
		if cropRight, err = br.readUE(); err != nil {
			return spsInfo{}, err
		}
		if cropTop, err = br.readUE(); err != nil {
			return spsInfo{}, err
		}
		if cropBottom, err = br.readUE(); err != nil {
			return spsInfo{}, err
		}
	}

	chromaArrayType := chromaFormatIDC
	if separateColourPlane {
		chromaArrayType = 0
	}
	var subWidthC, subHeightC uint
	switch chromaArrayType {
	case 0, 3:
		subWidthC, subHeightC = 1, 1
	case 2:
		subWidthC, subHeightC = 2, 1
	default:
		subWidthC, subHeightC = 2, 2
	}
	cropUnitX := subWidthC
	cropUnitY := subHeightC * (2 - frameMbsOnly)

	width := int((picWidthMbs+1)*16 - cropUnitX*(cropLeft+cropRight))
	height := int((picHeightMapUnits+1)*16*(2-frameMbsOnly) - cropUnitY*(cropTop+cropBottom))

	return spsInfo{width: width, height: height}, nil
}

// unescapeRBSP appends src to dst with emulation prevention bytes
// (00 00 03 before a byte <= 03) removed. The result is never longer than
// src, so dst backed by len(src) capacity cannot reallocate.
func unescapeRBSP(dst, src []byte) []byte {
	for i := 0; i < len(src); i++ {
		if i+2 < len(src) && src[i] == 0 && src[i+1] == 0 && src[i+2] == 3 &&
			(i+3 >= len(src) || src[i+3] <= 3) {
			dst = append(dst, 0, 0)
			i += 2
		} else {
			dst = append(dst, src[i])
		}
	}
	return dst
}
