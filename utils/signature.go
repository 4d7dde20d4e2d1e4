package utils

// Signature classifies the leading bytes of a possible JPEG XL stream.
type Signature int

const (
	// SignatureNotEnoughBytes means the data so far is a valid prefix of a
	// JPEG XL signature but too short to classify.
	SignatureNotEnoughBytes Signature = iota
	// SignatureInvalid means the data cannot be a JPEG XL stream.
	SignatureInvalid
	// SignatureCodestream identifies a bare JPEG XL codestream.
	SignatureCodestream
	// SignatureContainer identifies an ISO-BMFF JPEG XL container.
	SignatureContainer
)

func (s Signature) String() string {
	switch s {
	case SignatureNotEnoughBytes:
		return "not-enough-bytes"
	case SignatureInvalid:
		return "invalid"
	case SignatureCodestream:
		return "codestream"
	case SignatureContainer:
		return "container"
	default:
		return "signature(?)"
	}
}

var (
	// Bare codestream: FF 0A.
	codestreamSig = []byte{0xFF, 0x0A}
	// ISO-BMFF container: a 12-byte "JXL " box.
	containerSig = []byte{0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A}
)

type prefixMatch int

const (
	matchNone prefixMatch = iota
	matchPartial
	matchFull
)

func matchPrefix(data, sig []byte) prefixMatch {
	n := len(data)
	if n > len(sig) {
		n = len(sig)
	}
	for i := 0; i < n; i++ {
		if data[i] != sig[i] {
			return matchNone
		}
	}
	if n < len(sig) {
		return matchPartial
	}
	return matchFull
}

// SniffSignature inspects the first bytes of data and reports whether they
// begin a JPEG XL codestream or container. Data shorter than a signature it
// still prefixes is reported as SignatureNotEnoughBytes, never as invalid.
func SniffSignature(data []byte) Signature {
	cs := matchPrefix(data, codestreamSig)
	ct := matchPrefix(data, containerSig)
	switch {
	case cs == matchFull:
		return SignatureCodestream
	case ct == matchFull:
		return SignatureContainer
	case cs == matchPartial || ct == matchPartial:
		return SignatureNotEnoughBytes
	default:
		return SignatureInvalid
	}
}
