package page

import "swparquet/varint"

// AppendHeader appends the encoding of h in the exact field layout
// ParseHeader accepts. The CRC field is written when h.HasCRC is set. The
// is_compressed field is written according to isCompressed: nil omits it.
func AppendHeader(dst []byte, h *Header, isCompressed *bool) []byte {
	i32 := func(v int32) {
		dst = append(dst, tagI32)
		dst = varint.AppendVarint32(dst, v)
	}
	i32(int32(h.Type))
	i32(h.UncompressedSize)
	i32(h.CompressedSize)
	if h.HasCRC {
		i32(h.CRC)
		dst = append(dst, tagV2AfterCRC)
	} else {
		dst = append(dst, tagV2)
	}
	i32(h.NumValues)
	i32(h.NumNulls)
	i32(h.NumRows)
	i32(int32(h.Encoding))
	i32(h.DefLevelsLen)
	i32(h.RepLevelsLen)
	if isCompressed != nil {
		if *isCompressed {
			dst = append(dst, tagTrue)
		} else {
			dst = append(dst, tagFalse)
		}
	}
	return append(dst, tagStop, tagStop)
}
