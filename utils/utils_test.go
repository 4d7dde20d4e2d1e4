package utils_test

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/greyfold/jxl-decoder/utils"
)

// ── Signature sniffing ────────────────────────────────────────────────────────

func containerSig() []byte {
	return []byte{0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A}
}

func TestSniffSignature(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want utils.Signature
	}{
		{"empty", nil, utils.SignatureNotEnoughBytes},
		{"codestream first byte", []byte{0xFF}, utils.SignatureNotEnoughBytes},
		{"codestream", []byte{0xFF, 0x0A}, utils.SignatureCodestream},
		{"codestream with payload", []byte{0xFF, 0x0A, 0x99, 0x01}, utils.SignatureCodestream},
		{"container", containerSig(), utils.SignatureContainer},
		{"container prefix", containerSig()[:5], utils.SignatureNotEnoughBytes},
		{"container diverges", []byte{0x00, 0x00, 0x00, 0x0C, 'J', 'P', '2', ' '}, utils.SignatureInvalid},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, utils.SignatureInvalid},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, utils.SignatureInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.SniffSignature(tt.data); got != tt.want {
				t.Errorf("SniffSignature: got %v, want %v", got, tt.want)
			}
		})
	}
}

// ── Container framing ─────────────────────────────────────────────────────────

// box frames payload as an ISO-BMFF box of the given type.
func box(typ string, payload []byte) []byte {
	b := make([]byte, 0, 8+len(payload))
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(8+len(payload)))
	b = append(b, size[:]...)
	b = append(b, typ...)
	return append(b, payload...)
}

// jxlp frames a partial-codestream box; final sets the last-chunk bit.
func jxlp(index uint32, final bool, payload []byte) []byte {
	if final {
		index |= 0x80000000
	}
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	return box("jxlp", append(idx[:], payload...))
}

func TestContainerComplete(t *testing.T) {
	sig := containerSig()
	ftyp := box("ftyp", []byte("jxl \x00\x00\x00\x00jxl "))

	join := func(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"single codestream box", join(sig, ftyp, box("jxlc", []byte{0xFF, 0x0A, 1, 2, 3})), true},
		{"no codestream box", join(sig, ftyp), false},
		{"truncated box header", join(sig, ftyp, []byte{0x00, 0x00, 0x00}), false},
		{"truncated box body", join(sig, ftyp, box("jxlc", make([]byte, 100))[:40]), false},
		{"partial chain complete", join(sig, ftyp, jxlp(0, false, []byte{0xFF, 0x0A}), jxlp(1, true, []byte{9})), true},
		{"partial chain unfinished", join(sig, ftyp, jxlp(0, false, []byte{0xFF, 0x0A})), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.ContainerComplete(tt.data); got != tt.want {
				t.Errorf("ContainerComplete: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainerComplete_ExtendedSize(t *testing.T) {
	payload := []byte{0xFF, 0x0A, 1, 2, 3, 4}
	b := make([]byte, 0, 16+len(payload))
	b = append(b, 0x00, 0x00, 0x00, 0x01) // size == 1: 64-bit size follows
	b = append(b, "jxlc"...)
	var wide [8]byte
	binary.BigEndian.PutUint64(wide[:], uint64(16+len(payload)))
	b = append(b, wide[:]...)
	b = append(b, payload...)

	if !utils.ContainerComplete(b) {
		t.Error("extended-size codestream box: want complete")
	}
	if utils.ContainerComplete(b[:12]) {
		t.Error("truncated extended header: want incomplete")
	}
}

func TestContainerComplete_ToEndOfStream(t *testing.T) {
	// size 0 means the box runs to the end of the stream.
	b := []byte{0x00, 0x00, 0x00, 0x00, 'j', 'x', 'l', 'c', 0xFF, 0x0A, 1}
	if !utils.ContainerComplete(b) {
		t.Error("to-end codestream box: want complete")
	}
}

// ── Buffer pool and reader drain ──────────────────────────────────────────────

func TestAcquireReleaseBuffer(t *testing.T) {
	buf := utils.AcquireBuffer()
	buf.WriteString("scratch")
	utils.ReleaseBuffer(buf)

	again := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(again)
	if again.Len() != 0 {
		t.Errorf("acquired buffer not reset: %d bytes", again.Len())
	}
}

func TestDrainReader(t *testing.T) {
	payload := strings.Repeat("jxl-stream-", 100)

	t.Run("small chunks", func(t *testing.T) {
		buf, err := utils.DrainReader(strings.NewReader(payload), 7)
		if err != nil {
			t.Fatalf("DrainReader: %v", err)
		}
		defer utils.ReleaseBuffer(buf)
		if buf.String() != payload {
			t.Error("drained bytes differ from source")
		}
	})

	t.Run("default chunk size", func(t *testing.T) {
		buf, err := utils.DrainReader(strings.NewReader(payload), 0)
		if err != nil {
			t.Fatalf("DrainReader: %v", err)
		}
		defer utils.ReleaseBuffer(buf)
		if buf.Len() != len(payload) {
			t.Errorf("drained %d bytes, want %d", buf.Len(), len(payload))
		}
	})

	t.Run("data with eof in final read", func(t *testing.T) {
		buf, err := utils.DrainReader(iotest.DataErrReader(strings.NewReader(payload)), 64)
		if err != nil {
			t.Fatalf("DrainReader: %v", err)
		}
		defer utils.ReleaseBuffer(buf)
		if buf.String() != payload {
			t.Error("drained bytes differ from source")
		}
	})

	t.Run("read error", func(t *testing.T) {
		boom := stderrors.New("disk gone")
		if _, err := utils.DrainReader(iotest.ErrReader(boom), 16); !stderrors.Is(err, boom) {
			t.Fatalf("error: got %v, want %v", err, boom)
		}
	})
}

func TestCloneBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	dup := utils.CloneBytes(src)
	src[0] = 9
	if dup[0] != 1 {
		t.Error("clone shares backing array with source")
	}
	if got := utils.CloneBytes(nil); len(got) != 0 {
		t.Errorf("nil source: got %d bytes", len(got))
	}
}
