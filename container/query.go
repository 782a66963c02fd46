package container

import (
	"bytes"

	"github.com/fogpack/fogpack/codec"
	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// EncodeQuery lays out a Query as
// hash_version_and_digest ‖ field_as_encoded_string ‖ query_body_bytes.
// Queries are never compressed and carry no signed tail at this layer.
func EncodeQuery(q *value.Query) ([]byte, error) {
	var out bytes.Buffer
	out.WriteByte(byte(q.ParentDocHash.Version))
	if !q.ParentDocHash.IsEmpty() {
		out.Write(q.ParentDocHash.Digest[:])
	}
	if err := codec.WriteValue(&out, value.NewStr(q.Field)); err != nil {
		return nil, err
	}
	if err := codec.WriteValue(&out, q.Body); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeQuery parses a Query previously produced by EncodeQuery.
func DecodeQuery(b []byte) (*value.Query, error) {
	if len(b) < 1 {
		return nil, errs.NewParseError(errs.ErrBadHeader, 0, "empty query payload")
	}
	version := value.HashVersion(b[0])
	pos := 1
	var h value.Hash
	switch version {
	case value.HashVersionEmpty:
		h = value.EmptyHash
	case value.HashVersionBlake2b:
		if len(b) < 1+32 {
			return nil, errs.NewParseError(errs.ErrBadEncode, len(b)-pos, "truncated query hash")
		}
		var digest [32]byte
		copy(digest[:], b[pos:pos+32])
		pos += 32
		h = value.Hash{Version: version, Digest: digest}
	default:
		return nil, errs.NewParseError(errs.ErrBadEncode, len(b)-pos, "unknown hash version in query")
	}

	fieldVal, n, err := codec.ReadValue(b[pos:])
	if err != nil {
		return nil, err
	}
	if fieldVal.Kind != value.KindStr {
		return nil, errs.NewParseError(errs.ErrBadEncode, len(b)-pos-n, "query field must be a string")
	}
	pos += n

	body, n, err := codec.ReadValue(b[pos:])
	if err != nil {
		return nil, err
	}
	pos += n

	return &value.Query{
		ParentDocHash: h,
		Field:         fieldVal.Str,
		Body:          body,
	}, nil
}
