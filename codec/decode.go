package codec

import (
	"math"
	"unicode/utf8"

	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// decoder is a cursor over an in-memory byte slice, in the style of
// rlp.Stream: a position index advanced as values are consumed, with no
// separate io.Reader plumbing since fog-pack values are always decoded
// from a single already-materialized byte slice.
type decoder struct {
	data  []byte
	pos   int
	depth int
}

// ReadValue decodes a single value from the front of b and returns it
// along with the number of bytes consumed.
func ReadValue(b []byte) (value.Value, int, error) {
	d := &decoder{data: b}
	v, err := d.readValue()
	if err != nil {
		return value.Value{}, 0, err
	}
	return v, d.pos, nil
}

func (d *decoder) fail(reason string) error {
	return errs.NewParseError(errs.ErrBadEncode, len(d.data)-d.pos, reason)
}

func (d *decoder) limitFail(reason string) error {
	return errs.NewParseError(errs.ErrParseLimit, len(d.data)-d.pos, reason)
}

func (d *decoder) need(n int) error {
	if d.pos+n > len(d.data) {
		return d.fail("unexpected end of input")
	}
	return nil
}

func (d *decoder) readByte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) readValue() (value.Value, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > hardDepthLimit {
		return value.Value{}, d.limitFail("nesting too deep")
	}

	marker, err := d.readByte()
	if err != nil {
		return value.Value{}, err
	}

	switch {
	case marker <= mPosFixintMax:
		return value.NewInt(int64(marker)), nil
	case marker >= mNegFixintMin:
		return value.NewInt(int64(int8(marker))), nil
	case marker >= mFixstrBase && marker <= mFixstrMax:
		return d.readStrBody(int(marker & 0x1f))
	case marker >= mFixarrayBase && marker <= mFixarrayMax:
		return d.readArrayBody(int(marker & 0x0f))
	case marker >= mFixmapBase && marker <= mFixmapMax:
		return d.readObjBody(int(marker & 0x0f))
	}

	switch marker {
	case mNull:
		return value.Null, nil
	case mFalse:
		return value.NewBool(false), nil
	case mTrue:
		return value.NewBool(true), nil
	case mBin8, mBin16, mBin32:
		n, err := d.readLen(marker, mBin8)
		if err != nil {
			return value.Value{}, err
		}
		b, err := d.readBytes(n)
		if err != nil {
			return value.Value{}, err
		}
		cp := make([]byte, n)
		copy(cp, b)
		return value.NewBin(cp), nil
	case mExt8, mExt16, mExt32:
		return d.readExt(marker)
	case mF32:
		b, err := d.readBytes(4)
		if err != nil {
			return value.Value{}, err
		}
		bits := getBE32(b)
		return value.NewF32(math.Float32frombits(bits)), nil
	case mF64:
		b, err := d.readBytes(8)
		if err != nil {
			return value.Value{}, err
		}
		bits := getBE64(b)
		return value.NewF64(math.Float64frombits(bits)), nil
	case mUint8:
		b, err := d.readByte()
		if err != nil {
			return value.Value{}, err
		}
		if b <= mPosFixintMax {
			return value.Value{}, d.fail("non-canonical uint8 encoding")
		}
		return value.NewUint(uint64(b)), nil
	case mUint16:
		b, err := d.readBytes(2)
		if err != nil {
			return value.Value{}, err
		}
		u := uint64(getBE16(b))
		if u <= 0xff {
			return value.Value{}, d.fail("non-canonical uint16 encoding")
		}
		return value.NewUint(u), nil
	case mUint32:
		b, err := d.readBytes(4)
		if err != nil {
			return value.Value{}, err
		}
		u := uint64(getBE32(b))
		if u <= 0xffff {
			return value.Value{}, d.fail("non-canonical uint32 encoding")
		}
		return value.NewUint(u), nil
	case mUint64:
		b, err := d.readBytes(8)
		if err != nil {
			return value.Value{}, err
		}
		u := getBE64(b)
		if u <= 0xffffffff {
			return value.Value{}, d.fail("non-canonical uint64 encoding")
		}
		return value.NewUint(u), nil
	case mInt8:
		b, err := d.readByte()
		if err != nil {
			return value.Value{}, err
		}
		n := int64(int8(b))
		if n >= -32 && n <= mPosFixintMax {
			return value.Value{}, d.fail("non-canonical int8 encoding")
		}
		return value.NewInt(n), nil
	case mInt16:
		b, err := d.readBytes(2)
		if err != nil {
			return value.Value{}, err
		}
		n := int64(int16(getBE16(b)))
		if n >= math.MinInt8 && n <= math.MaxInt8 {
			return value.Value{}, d.fail("non-canonical int16 encoding")
		}
		return value.NewInt(n), nil
	case mInt32:
		b, err := d.readBytes(4)
		if err != nil {
			return value.Value{}, err
		}
		n := int64(int32(getBE32(b)))
		if n >= math.MinInt16 && n <= math.MaxInt16 {
			return value.Value{}, d.fail("non-canonical int32 encoding")
		}
		return value.NewInt(n), nil
	case mInt64:
		b, err := d.readBytes(8)
		if err != nil {
			return value.Value{}, err
		}
		n := int64(getBE64(b))
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return value.Value{}, d.fail("non-canonical int64 encoding")
		}
		return value.NewInt(n), nil
	case mStr8, mStr16, mStr32:
		n, err := d.readLen(marker, mStr8)
		if err != nil {
			return value.Value{}, err
		}
		if n <= 31 {
			return value.Value{}, d.fail("non-canonical string length encoding")
		}
		return d.readStrBody(n)
	case mArray16, mArray32:
		n, err := d.readLen(marker, mArray16-1)
		if err != nil {
			return value.Value{}, err
		}
		if marker == mArray16 && n <= 15 {
			return value.Value{}, d.fail("non-canonical array length encoding")
		}
		return d.readArrayBody(n)
	case mMap16, mMap32:
		n, err := d.readLen(marker, mMap16-1)
		if err != nil {
			return value.Value{}, err
		}
		if marker == mMap16 && n <= 15 {
			return value.Value{}, d.fail("non-canonical map length encoding")
		}
		return d.readObjBody(n)
	}

	return value.Value{}, d.fail("unknown marker byte")
}

// readLen reads the explicit-width length field following one of the
// 8/16/32-bit marker families. base identifies the 8-bit variant of the
// family so the width can be derived from marker-base; the array and map
// families have no 8-bit variant, so their callers pass the byte just
// below the 16-bit marker.
func (d *decoder) readLen(marker, base byte) (int, error) {
	switch marker - base {
	case 0:
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		return int(b), nil
	case 1:
		b, err := d.readBytes(2)
		if err != nil {
			return 0, err
		}
		return int(getBE16(b)), nil
	default:
		b, err := d.readBytes(4)
		if err != nil {
			return 0, err
		}
		return int(getBE32(b)), nil
	}
}

func (d *decoder) readStrBody(n int) (value.Value, error) {
	b, err := d.readBytes(n)
	if err != nil {
		return value.Value{}, err
	}
	if !utf8.Valid(b) {
		return value.Value{}, d.fail("invalid UTF-8 in string")
	}
	return value.NewStr(string(b)), nil
}

func (d *decoder) readArrayBody(n int) (value.Value, error) {
	items := make([]value.Value, n)
	for i := 0; i < n; i++ {
		v, err := d.readValue()
		if err != nil {
			return value.Value{}, err
		}
		items[i] = v
	}
	return value.NewArray(items), nil
}

func (d *decoder) readObjBody(n int) (value.Value, error) {
	fields := make([]value.Field, n)
	for i := 0; i < n; i++ {
		key, err := d.readValue()
		if err != nil {
			return value.Value{}, err
		}
		if key.Kind != value.KindStr {
			return value.Value{}, d.fail("object key must be a string")
		}
		if i > 0 && key.Str <= fields[i-1].Key {
			return value.Value{}, d.fail("object keys must be strictly ascending")
		}
		v, err := d.readValue()
		if err != nil {
			return value.Value{}, err
		}
		fields[i] = value.Field{Key: key.Str, Val: v}
	}
	return value.Value{Kind: value.KindObj, Obj: fields}, nil
}

func (d *decoder) readExt(marker byte) (value.Value, error) {
	n, err := d.readLen(marker, mExt8)
	if err != nil {
		return value.Value{}, err
	}
	extType, err := d.readByte()
	if err != nil {
		return value.Value{}, err
	}
	payload, err := d.readBytes(n)
	if err != nil {
		return value.Value{}, err
	}

	switch extType {
	case extHash:
		return d.decodeHash(payload)
	case extIdentity:
		if len(payload) != 32 {
			return value.Value{}, d.fail("identity ext payload must be 32 bytes")
		}
		var id value.Identity
		copy(id[:], payload)
		return value.NewIdentity(id), nil
	case extLockbox:
		cp := make([]byte, len(payload))
		copy(cp, payload)
		return value.NewLockbox(cp), nil
	case extTimestamp:
		if len(payload) != 12 {
			return value.Value{}, d.fail("timestamp ext payload must be 12 bytes")
		}
		ts := value.Timestamp{
			Sec:  int64(getBE64(payload[0:8])),
			Nsec: int32(getBE32(payload[8:12])),
		}
		return value.NewTimestamp(ts), nil
	case extSignature:
		if len(payload) != 64 {
			return value.Value{}, d.fail("signature ext payload must be 64 bytes")
		}
		var sig value.Signature
		copy(sig[:], payload)
		return value.NewSignature(sig), nil
	default:
		return value.Value{}, d.fail("unknown ext type")
	}
}

func (d *decoder) decodeHash(payload []byte) (value.Value, error) {
	if len(payload) == 0 {
		return value.Value{}, d.fail("hash ext payload must carry at least a version byte")
	}
	version := value.HashVersion(payload[0])
	switch version {
	case value.HashVersionEmpty:
		if len(payload) != 1 {
			return value.Value{}, d.fail("empty hash must carry no digest bytes")
		}
		return value.NewHash(value.EmptyHash), nil
	case value.HashVersionBlake2b:
		if len(payload) != 33 {
			return value.Value{}, d.fail("blake2b hash payload must be 33 bytes")
		}
		var digest [32]byte
		copy(digest[:], payload[1:])
		return value.NewHash(value.Hash{Version: version, Digest: digest}), nil
	default:
		return value.Value{}, d.fail("unknown hash version")
	}
}

// ObjHeader describes an object value's marker without decoding any of
// its fields, for callers (the container layer's Compressed framing)
// that need to read the field count before deciding how much of the
// object to treat as cleartext.
type ObjHeader struct {
	Count    int
	Consumed int
}

// ReadObjHeader reads only the object marker byte (and its explicit
// length field, if any) from the front of b.
func ReadObjHeader(b []byte) (ObjHeader, error) {
	d := &decoder{data: b}
	marker, err := d.readByte()
	if err != nil {
		return ObjHeader{}, err
	}
	var n int
	switch {
	case marker >= mFixmapBase && marker <= mFixmapMax:
		n = int(marker & 0x0f)
	case marker == mMap16 || marker == mMap32:
		n, err = d.readLen(marker, mMap16-1)
		if err != nil {
			return ObjHeader{}, err
		}
	default:
		return ObjHeader{}, d.fail("expected an object marker")
	}
	return ObjHeader{Count: n, Consumed: d.pos}, nil
}

// ReadField decodes one object key-value pair from the front of b,
// enforcing that the key is a string. It does not check key ordering
// against a prior field, since it has no prior field to compare to;
// callers reading a full object's worth of fields are responsible for
// that check (ReadFields does this).
func ReadField(b []byte) (value.Field, int, error) {
	d := &decoder{data: b}
	key, err := d.readValue()
	if err != nil {
		return value.Field{}, 0, err
	}
	if key.Kind != value.KindStr {
		return value.Field{}, 0, d.fail("object key must be a string")
	}
	val, err := d.readValue()
	if err != nil {
		return value.Field{}, 0, err
	}
	return value.Field{Key: key.Str, Val: val}, d.pos, nil
}

// ReadFields decodes exactly n object key-value pairs in sequence from
// the front of b, enforcing strictly ascending keys across the whole
// sequence.
func ReadFields(b []byte, n int, prevKey string, havePrev bool) ([]value.Field, int, error) {
	fields := make([]value.Field, n)
	pos := 0
	prior := prevKey
	have := havePrev
	for i := 0; i < n; i++ {
		f, consumed, err := ReadField(b[pos:])
		if err != nil {
			return nil, 0, err
		}
		if have && f.Key <= prior {
			return nil, 0, errs.NewParseError(errs.ErrBadEncode, len(b)-pos, "object keys must be strictly ascending")
		}
		prior, have = f.Key, true
		fields[i] = f
		pos += consumed
	}
	return fields, pos, nil
}

func getBE16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func getBE32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func getBE64(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}
