package utils

import "encoding/binary"

// Codestream box types within a JPEG XL container.
const (
	boxJXLC = "jxlc"
	boxJXLP = "jxlp"
)

// ContainerComplete reports whether data frames a whole JPEG XL container:
// every box is complete and a full codestream is present. Only box framing
// is inspected, never box contents.
func ContainerComplete(data []byte) bool {
	rest := data
	sawCodestream := false
	for len(rest) > 0 {
		if len(rest) < 8 {
			return false
		}
		size := uint64(binary.BigEndian.Uint32(rest[:4]))
		typ := string(rest[4:8])
		header := uint64(8)
		switch size {
		case 0:
			// Box extends to the end of the stream; framing alone cannot
			// prove truncation, treat as complete.
			size = uint64(len(rest))
		case 1:
			if len(rest) < 16 {
				return false
			}
			size = binary.BigEndian.Uint64(rest[8:16])
			header = 16
		}
		if size < header || uint64(len(rest)) < size {
			return false
		}
		switch typ {
		case boxJXLC:
			sawCodestream = true
		case boxJXLP:
			// Partial codestream boxes carry a 4-byte index whose high bit
			// marks the final chunk.
			if size >= header+4 {
				idx := binary.BigEndian.Uint32(rest[header : header+4])
				if idx&0x80000000 != 0 {
					sawCodestream = true
				}
			}
		}
		rest = rest[size:]
	}
	return sawCodestream
}
