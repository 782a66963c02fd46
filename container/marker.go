// Package container implements fog-pack's on-the-wire framing for
// Documents, Entries, and Queries: a leading compression marker byte,
// an optional clear-text schema-hash header, compressed or uncompressed
// body bytes, and (for Documents/Entries) a signed tail.
package container

import "github.com/fogpack/fogpack/errs"

// Framing identifies which of the four wire shapes a Document or Entry
// uses.
type Framing byte

const (
	// Uncompressed carries the raw encoded body followed by the signed
	// tail, with no compression.
	Uncompressed Framing = 0
	// CompressedNoSchema compresses body‖signed_tail as a single block.
	CompressedNoSchema Framing = 1
	// Compressed leaves the outer object marker and the ("", schema_hash)
	// field in the clear, compressing only the remaining fields and the
	// signed tail. Valid for Documents only.
	Compressed Framing = 2
	// DictCompressed is CompressedNoSchema or Compressed, using the
	// schema's embedded compression dictionary.
	DictCompressed Framing = 3
)

// AlgoCode identifies the compression algorithm named by a marker byte's
// high 5 bits. zstd is the only algorithm fog-pack's reference adapter
// implements; the field exists so the wire format can add algorithms
// without a breaking change.
type AlgoCode byte

// AlgoZstd is the only algorithm code this implementation supports.
const AlgoZstd AlgoCode = 0

// marker packs algo (5 bits) and framing (2 bits) into a single byte as
// `0 XXXXX YY`.
func marker(algo AlgoCode, framing Framing) byte {
	return (byte(algo) << 2) | byte(framing)
}

func parseMarker(b byte) (AlgoCode, Framing, error) {
	if b&0x80 != 0 {
		return 0, 0, errs.NewParseError(errs.ErrBadHeader, 0, "compression marker's top bit must be zero")
	}
	algo := AlgoCode(b >> 2)
	framing := Framing(b & 0x03)
	if algo != AlgoZstd {
		return 0, 0, errs.NewParseError(errs.ErrBadHeader, 0, "unsupported compression algorithm code")
	}
	return algo, framing, nil
}
