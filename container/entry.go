package container

import (
	"bytes"

	"github.com/fogpack/fogpack/codec"
	"github.com/fogpack/fogpack/crypto"
	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// EncodeEntry frames e per opts.Framing and returns the wire bytes. The
// Compressed shape (clear schema-hash prefix) is valid for Documents
// only; an Entry has no embedded schema hash to expose in the clear, so
// requesting it is a caller error.
func EncodeEntry(e *value.Entry, opts EncodeOptions) ([]byte, error) {
	if opts.Framing == Compressed {
		return nil, errs.NewParseError(errs.ErrBadEncode, 0, "Compressed framing is not valid for Entries")
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	var bodyBuf bytes.Buffer
	if err := codec.WriteValue(&bodyBuf, e.Body); err != nil {
		return nil, err
	}
	bodyBytes := bodyBuf.Bytes()
	bodyHash := crypto.Hash(bodyBytes)

	var tail []byte
	tail = encodeTail(tail, bodyHash, e.Signers, e.Signatures)

	switch opts.Framing {
	case Uncompressed:
		out := []byte{marker(AlgoZstd, Uncompressed)}
		out = append(out, bodyBytes...)
		return append(out, tail...), nil

	case CompressedNoSchema, DictCompressed:
		plain := append(append([]byte{}, bodyBytes...), tail...)
		var compressed []byte
		var err error
		if opts.Framing == DictCompressed {
			compressed, err = opts.Codec.CompressDict(opts.Level, opts.Dict, plain)
		} else {
			compressed, err = opts.Codec.Compress(opts.Level, plain)
		}
		if err != nil {
			return nil, err
		}
		out := []byte{marker(AlgoZstd, opts.Framing)}
		return append(out, compressed...), nil

	default:
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "unknown framing")
	}
}

// DecodeEntry parses and signature-verifies an Entry previously produced
// by EncodeEntry. parentDocHash and field are supplied out of band, as
// the encoded entry bytes carry neither.
func DecodeEntry(b []byte, parentDocHash value.Hash, field string, opts DecodeOptions) (*value.Entry, error) {
	if len(b) < 1 {
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "empty entry payload")
	}
	_, framing, err := parseMarker(b[0])
	if err != nil {
		return nil, err
	}
	rest := b[1:]

	var plain []byte
	switch framing {
	case Uncompressed:
		plain = rest
	case CompressedNoSchema:
		plain, err = opts.Codec.Decompress(maxDecompressed(opts.Limits), rest)
	case DictCompressed:
		plain, err = opts.Codec.DecompressDict(maxDecompressed(opts.Limits), opts.Dict, rest)
	case Compressed:
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "Compressed framing is not valid for Entries")
	default:
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "unknown framing")
	}
	if err != nil {
		return nil, err
	}

	body, n, err := codec.ReadValue(plain)
	if err != nil {
		return nil, err
	}
	bodyHash := crypto.Hash(plain[:n])
	signers, sigs, _, err := decodeTail(plain[n:], bodyHash)
	if err != nil {
		return nil, err
	}
	return &value.Entry{
		ParentDocHash: parentDocHash,
		Field:         field,
		Body:          body,
		Signers:       signers,
		Signatures:    sigs,
	}, nil
}
