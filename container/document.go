package container

import (
	"bytes"

	"github.com/fogpack/fogpack/codec"
	"github.com/fogpack/fogpack/compress"
	"github.com/fogpack/fogpack/config"
	"github.com/fogpack/fogpack/crypto"
	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// EncodeOptions configures how Encode{Document,Entry} frame a payload.
type EncodeOptions struct {
	Framing Framing
	Codec   compress.Codec
	// Dict is the compression dictionary used when Framing is
	// DictCompressed; ignored otherwise.
	Dict  []byte
	Level int
}

// DecodeOptions configures how Decode{Document,Entry} bound resource
// usage and locate a compression dictionary.
type DecodeOptions struct {
	Codec  compress.Codec
	Dict   []byte
	Limits config.Limits
}

// EncodeDocument frames doc per opts.Framing and returns the wire bytes.
func EncodeDocument(doc *value.Document, opts EncodeOptions) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	var bodyBuf bytes.Buffer
	if err := codec.WriteValue(&bodyBuf, doc.Body); err != nil {
		return nil, err
	}
	bodyBytes := bodyBuf.Bytes()
	bodyHash := crypto.Hash(bodyBytes)

	var tail []byte
	tail = encodeTail(tail, bodyHash, doc.Signers, doc.Signatures)

	switch opts.Framing {
	case Uncompressed:
		out := []byte{marker(AlgoZstd, Uncompressed)}
		out = append(out, bodyBytes...)
		out = append(out, tail...)
		return out, nil

	case CompressedNoSchema:
		plain := append(append([]byte{}, bodyBytes...), tail...)
		compressed, err := opts.Codec.Compress(opts.Level, plain)
		if err != nil {
			return nil, err
		}
		out := []byte{marker(AlgoZstd, CompressedNoSchema)}
		return append(out, compressed...), nil

	case Compressed:
		if doc.SchemaHash == nil {
			return nil, errs.NewParseError(errs.ErrBadEncode, 0, "Compressed framing requires a schema hash")
		}
		clear, rest, err := splitFirstField(bodyBytes)
		if err != nil {
			return nil, err
		}
		plain := append(append([]byte{}, rest...), tail...)
		compressed, err := opts.Codec.Compress(opts.Level, plain)
		if err != nil {
			return nil, err
		}
		out := []byte{marker(AlgoZstd, Compressed)}
		out = append(out, clear...)
		return append(out, compressed...), nil

	case DictCompressed:
		if doc.SchemaHash != nil {
			clear, rest, err := splitFirstField(bodyBytes)
			if err != nil {
				return nil, err
			}
			plain := append(append([]byte{}, rest...), tail...)
			compressed, err := opts.Codec.CompressDict(opts.Level, opts.Dict, plain)
			if err != nil {
				return nil, err
			}
			out := []byte{marker(AlgoZstd, DictCompressed)}
			out = append(out, clear...)
			return append(out, compressed...), nil
		}
		plain := append(append([]byte{}, bodyBytes...), tail...)
		compressed, err := opts.Codec.CompressDict(opts.Level, opts.Dict, plain)
		if err != nil {
			return nil, err
		}
		out := []byte{marker(AlgoZstd, DictCompressed)}
		return append(out, compressed...), nil

	default:
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "unknown framing")
	}
}

// DecodeDocument parses and signature-verifies a Document previously
// produced by EncodeDocument.
func DecodeDocument(b []byte, opts DecodeOptions) (*value.Document, error) {
	if len(b) < 1 {
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "empty document payload")
	}
	_, framing, err := parseMarker(b[0])
	if err != nil {
		return nil, err
	}
	rest := b[1:]

	switch framing {
	case Uncompressed:
		body, n, err := codec.ReadValue(rest)
		if err != nil {
			return nil, err
		}
		return finishDocument(body, rest[:n], rest[n:])

	case CompressedNoSchema:
		plain, err := opts.Codec.Decompress(maxDecompressed(opts.Limits), rest)
		if err != nil {
			return nil, err
		}
		body, n, err := codec.ReadValue(plain)
		if err != nil {
			return nil, err
		}
		return finishDocument(body, plain[:n], plain[n:])

	case Compressed:
		_, clearField, clearConsumed, err := readClearSchemaField(rest)
		if err != nil {
			return nil, err
		}
		hdr, err := codec.ReadObjHeader(rest)
		if err != nil {
			return nil, err
		}
		compressed := rest[clearConsumed:]
		plain, err := opts.Codec.Decompress(maxDecompressed(opts.Limits), compressed)
		if err != nil {
			return nil, err
		}
		restFields, n, err := codec.ReadFields(plain, hdr.Count-1, clearField.Key, true)
		if err != nil {
			return nil, err
		}
		fields := append([]value.Field{clearField}, restFields...)
		body := value.Value{Kind: value.KindObj, Obj: fields}
		return finishDocument(body, nil, plain[n:])

	case DictCompressed:
		// A schema-carrying Document always uses the clear-prefix shape
		// under dictionary compression, since the dictionary itself is
		// drawn from the schema named by that prefix.
		_, clearField, clearConsumed, err := readClearSchemaField(rest)
		if err != nil {
			plain, derr := opts.Codec.DecompressDict(maxDecompressed(opts.Limits), opts.Dict, rest)
			if derr != nil {
				return nil, err
			}
			body, n, rerr := codec.ReadValue(plain)
			if rerr != nil {
				return nil, rerr
			}
			return finishDocument(body, plain[:n], plain[n:])
		}
		hdr, err := codec.ReadObjHeader(rest)
		if err != nil {
			return nil, err
		}
		compressed := rest[clearConsumed:]
		plain, err := opts.Codec.DecompressDict(maxDecompressed(opts.Limits), opts.Dict, compressed)
		if err != nil {
			return nil, err
		}
		restFields, n, err := codec.ReadFields(plain, hdr.Count-1, clearField.Key, true)
		if err != nil {
			return nil, err
		}
		fields := append([]value.Field{clearField}, restFields...)
		body := value.Value{Kind: value.KindObj, Obj: fields}
		return finishDocument(body, nil, plain[n:])

	default:
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "unknown framing")
	}
}

func maxDecompressed(limits config.Limits) int {
	if limits.MaxDecompressedSize == 0 {
		return int(config.DefaultLimits().MaxDecompressedSize)
	}
	return int(limits.MaxDecompressedSize)
}

func finishDocument(body value.Value, bodyBytesForHash []byte, tailBytes []byte) (*value.Document, error) {
	var bodyHash value.Hash
	if bodyBytesForHash != nil {
		bodyHash = crypto.Hash(bodyBytesForHash)
	} else {
		var buf bytes.Buffer
		if err := codec.WriteValue(&buf, body); err != nil {
			return nil, err
		}
		bodyHash = crypto.Hash(buf.Bytes())
	}

	signers, sigs, _, err := decodeTail(tailBytes, bodyHash)
	if err != nil {
		return nil, err
	}
	return &value.Document{Body: body, SchemaHash: schemaHashFromBody(body), Signers: signers, Signatures: sigs}, nil
}

// schemaHashFromBody recovers the document's declared schema hash from
// its body's leading "" field, per value.Document's invariant, or nil
// if the body carries no such field.
func schemaHashFromBody(body value.Value) *value.Hash {
	if body.Kind != value.KindObj {
		return nil
	}
	schemaVal, ok := body.Get("")
	if !ok || schemaVal.Kind != value.KindHash {
		return nil
	}
	h := schemaVal.Hash
	return &h
}

// splitFirstField splits bodyBytes (a full encoded Obj value whose first
// field is "") into the clear-text prefix (object header + first field)
// and the remaining field bytes.
func splitFirstField(bodyBytes []byte) (clear []byte, rest []byte, err error) {
	hdr, err := codec.ReadObjHeader(bodyBytes)
	if err != nil {
		return nil, nil, err
	}
	if hdr.Count == 0 {
		return nil, nil, errs.NewParseError(errs.ErrBadEncode, 0, "Compressed framing requires a non-empty object body")
	}
	_, fieldConsumed, err := codec.ReadField(bodyBytes[hdr.Consumed:])
	if err != nil {
		return nil, nil, err
	}
	total := hdr.Consumed + fieldConsumed
	return bodyBytes[:total], bodyBytes[total:], nil
}

// readClearSchemaField reads the object header and first ("", hash)
// field from the clear prefix of a Compressed-framed payload.
func readClearSchemaField(b []byte) (schemaHash value.Hash, field value.Field, consumed int, err error) {
	hdr, err := codec.ReadObjHeader(b)
	if err != nil {
		return value.Hash{}, value.Field{}, 0, err
	}
	h, f, n, err := peekClearSchemaField(b, hdr)
	return h, f, hdr.Consumed + n, err
}

func peekClearSchemaField(b []byte, hdr codec.ObjHeader) (value.Hash, value.Field, int, error) {
	f, n, err := codec.ReadField(b[hdr.Consumed:])
	if err != nil {
		return value.Hash{}, value.Field{}, 0, err
	}
	if f.Key != "" || f.Val.Kind != value.KindHash {
		return value.Hash{}, value.Field{}, 0, errs.NewParseError(errs.ErrBadHeader, 0, "Compressed framing's first field must be (\"\", schema hash)")
	}
	return f.Val.Hash, f, n, nil
}
