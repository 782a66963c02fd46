// Package compress adapts a third-party compression library behind the
// small interface fog-pack's container framing needs: compress at a
// level, decompress with a hard output-size ceiling, and the same pair
// of operations with a shared dictionary for small, repetitive payloads
// (e.g. a family of documents sharing a schema).
package compress

import (
	"errors"

	"github.com/klauspost/compress/zstd"

	"github.com/fogpack/fogpack/errs"
)

// Codec is the interface fog-pack's container layer compresses and
// decompresses through. The core treats the codec as memory-safe and
// reports any internal failure as errs.ErrFailDecompress.
type Codec interface {
	Compress(level int, in []byte) ([]byte, error)
	Decompress(maxOutSize int, in []byte) ([]byte, error)
	CompressDict(level int, dict, in []byte) ([]byte, error)
	DecompressDict(maxOutSize int, dict, in []byte) ([]byte, error)
}

// ZstdCodec implements Codec over github.com/klauspost/compress/zstd.
type ZstdCodec struct{}

// NewZstdCodec returns the zstd-backed Codec implementation.
func NewZstdCodec() *ZstdCodec { return &ZstdCodec{} }

func encoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Compress compresses in at the given level with no dictionary.
func (ZstdCodec) Compress(level int, in []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel(level)))
	if err != nil {
		return nil, errs.NewParseError(errs.ErrFailDecompress, 0, "zstd encoder init failed: "+err.Error())
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

// Decompress decompresses in, failing with errs.ErrBadSize if the
// decompressed output would exceed maxOutSize.
func (ZstdCodec) Decompress(maxOutSize int, in []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxOutSize)))
	if err != nil {
		return nil, errs.NewParseError(errs.ErrFailDecompress, 0, "zstd decoder init failed: "+err.Error())
	}
	defer dec.Close()

	out, err := dec.DecodeAll(in, make([]byte, 0, min(maxOutSize, 1<<16)))
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, errs.NewParseError(errs.ErrBadSize, 0, "decompressed size exceeds configured limit")
		}
		return nil, errs.NewParseError(errs.ErrFailDecompress, 0, "zstd decode failed: "+err.Error())
	}
	if len(out) > maxOutSize {
		return nil, errs.NewParseError(errs.ErrBadSize, 0, "decompressed size exceeds configured limit")
	}
	return out, nil
}

// CompressDict compresses in using dict as a shared zstd dictionary, for
// payloads too small on their own to benefit from statistical
// compression (e.g. individual log-style Documents sharing a schema).
func (ZstdCodec) CompressDict(level int, dict, in []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(encoderLevel(level)),
		zstd.WithEncoderDict(dict),
	)
	if err != nil {
		return nil, errs.NewParseError(errs.ErrFailDecompress, 0, "zstd dict encoder init failed: "+err.Error())
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

// DecompressDict decompresses in using dict as a shared zstd dictionary,
// failing with errs.ErrBadSize if the output would exceed maxOutSize.
func (ZstdCodec) DecompressDict(maxOutSize int, dict, in []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(uint64(maxOutSize)),
		zstd.WithDecoderDicts(dict),
	)
	if err != nil {
		return nil, errs.NewParseError(errs.ErrFailDecompress, 0, "zstd dict decoder init failed: "+err.Error())
	}
	defer dec.Close()

	out, err := dec.DecodeAll(in, make([]byte, 0, min(maxOutSize, 1<<16)))
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, errs.NewParseError(errs.ErrBadSize, 0, "decompressed size exceeds configured limit")
		}
		return nil, errs.NewParseError(errs.ErrFailDecompress, 0, "zstd dict decode failed: "+err.Error())
	}
	if len(out) > maxOutSize {
		return nil, errs.NewParseError(errs.ErrBadSize, 0, "decompressed size exceeds configured limit")
	}
	return out, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
