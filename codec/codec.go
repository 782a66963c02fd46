// Package codec implements fog-pack's self-describing binary value
// format: a single marker byte selects both the type and, for small
// integers/strings/arrays/maps, an inline length, in the manner of
// msgpack. Encoding is canonical — integers in the shortest marker of
// their own signed or unsigned family, map keys sorted and deduplicated —
// so that
// decode(encode(v)) == v and encode(decode(b)) == b for any canonical b.
package codec

import (
	"bytes"
	"math"
	"sort"

	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// hardDepthLimit bounds recursion in ReadValue independent of any
// caller-supplied config, so a maliciously deep byte sequence fails with
// ErrParseLimit instead of overflowing the goroutine stack.
const hardDepthLimit = 10000

// WriteValue appends the canonical encoding of v to out. A signed Int is
// always written with the fixint or signed int markers, even when it is
// non-negative and an unsigned marker would be one byte shorter (200 is
// written as int16, not uint8); only values built with value.NewUint use
// the unsigned markers.
func WriteValue(out *bytes.Buffer, v value.Value) error {
	return writeValue(out, v)
}

func writeValue(out *bytes.Buffer, v value.Value) error {
	switch v.Kind {
	case value.KindNull:
		out.WriteByte(mNull)
	case value.KindBool:
		if v.Bool {
			out.WriteByte(mTrue)
		} else {
			out.WriteByte(mFalse)
		}
	case value.KindInt:
		writeInt(out, v)
	case value.KindF32:
		out.WriteByte(mF32)
		var b [4]byte
		putBE32(b[:], math.Float32bits(v.F32))
		out.Write(b[:])
	case value.KindF64:
		out.WriteByte(mF64)
		var b [8]byte
		putBE64(b[:], math.Float64bits(v.F64))
		out.Write(b[:])
	case value.KindStr:
		writeStr(out, v.Str)
	case value.KindBin:
		writeBin(out, v.Bin)
	case value.KindArray:
		if err := writeArray(out, v.Array); err != nil {
			return err
		}
	case value.KindObj:
		if err := writeObj(out, v.Obj); err != nil {
			return err
		}
	case value.KindHash:
		writeHash(out, v.Hash)
	case value.KindIdentity:
		writeExt(out, extIdentity, v.Identity[:])
	case value.KindLockbox:
		writeExt(out, extLockbox, v.Lockbox)
	case value.KindTimestamp:
		var b [12]byte
		putBE64(b[0:8], uint64(v.Timestamp.Sec))
		putBE32(b[8:12], uint32(v.Timestamp.Nsec))
		writeExt(out, extTimestamp, b[:])
	case value.KindSignature:
		writeExt(out, extSignature, v.Signature[:])
	default:
		return errs.NewParseError(errs.ErrBadEncode, 0, "unknown value kind")
	}
	return nil
}

func writeInt(out *bytes.Buffer, v value.Value) {
	if v.IntUnsigned {
		u := v.IntU
		switch {
		case u <= mPosFixintMax:
			out.WriteByte(byte(u))
		case u <= 0xff:
			out.WriteByte(mUint8)
			out.WriteByte(byte(u))
		case u <= 0xffff:
			out.WriteByte(mUint16)
			var b [2]byte
			putBE16(b[:], uint16(u))
			out.Write(b[:])
		case u <= 0xffffffff:
			out.WriteByte(mUint32)
			var b [4]byte
			putBE32(b[:], uint32(u))
			out.Write(b[:])
		default:
			out.WriteByte(mUint64)
			var b [8]byte
			putBE64(b[:], u)
			out.Write(b[:])
		}
		return
	}
	n := v.Int
	switch {
	case n >= 0 && n <= mPosFixintMax:
		out.WriteByte(byte(n))
	case n < 0 && n >= -32:
		out.WriteByte(byte(int8(n)))
	case n >= math.MinInt8 && n <= math.MaxInt8:
		out.WriteByte(mInt8)
		out.WriteByte(byte(int8(n)))
	case n >= math.MinInt16 && n <= math.MaxInt16:
		out.WriteByte(mInt16)
		var b [2]byte
		putBE16(b[:], uint16(int16(n)))
		out.Write(b[:])
	case n >= math.MinInt32 && n <= math.MaxInt32:
		out.WriteByte(mInt32)
		var b [4]byte
		putBE32(b[:], uint32(int32(n)))
		out.Write(b[:])
	default:
		out.WriteByte(mInt64)
		var b [8]byte
		putBE64(b[:], uint64(n))
		out.Write(b[:])
	}
}

func writeStr(out *bytes.Buffer, s string) {
	n := len(s)
	switch {
	case n <= 31:
		out.WriteByte(byte(mFixstrBase | n))
	case n <= 0xff:
		out.WriteByte(mStr8)
		out.WriteByte(byte(n))
	case n <= 0xffff:
		out.WriteByte(mStr16)
		var b [2]byte
		putBE16(b[:], uint16(n))
		out.Write(b[:])
	default:
		out.WriteByte(mStr32)
		var b [4]byte
		putBE32(b[:], uint32(n))
		out.Write(b[:])
	}
	out.WriteString(s)
}

func writeBin(out *bytes.Buffer, b []byte) {
	n := len(b)
	switch {
	case n <= 0xff:
		out.WriteByte(mBin8)
		out.WriteByte(byte(n))
	case n <= 0xffff:
		out.WriteByte(mBin16)
		var lb [2]byte
		putBE16(lb[:], uint16(n))
		out.Write(lb[:])
	default:
		out.WriteByte(mBin32)
		var lb [4]byte
		putBE32(lb[:], uint32(n))
		out.Write(lb[:])
	}
	out.Write(b)
}

func writeArray(out *bytes.Buffer, items []value.Value) error {
	n := len(items)
	switch {
	case n <= 15:
		out.WriteByte(byte(mFixarrayBase | n))
	case n <= 0xffff:
		out.WriteByte(mArray16)
		var b [2]byte
		putBE16(b[:], uint16(n))
		out.Write(b[:])
	default:
		out.WriteByte(mArray32)
		var b [4]byte
		putBE32(b[:], uint32(n))
		out.Write(b[:])
	}
	for _, item := range items {
		if err := writeValue(out, item); err != nil {
			return err
		}
	}
	return nil
}

func writeObj(out *bytes.Buffer, fields []value.Field) error {
	sorted := make([]value.Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key == sorted[i-1].Key {
			return errs.NewParseError(errs.ErrBadEncode, 0, "duplicate object key")
		}
	}

	n := len(sorted)
	switch {
	case n <= 15:
		out.WriteByte(byte(mFixmapBase | n))
	case n <= 0xffff:
		out.WriteByte(mMap16)
		var b [2]byte
		putBE16(b[:], uint16(n))
		out.Write(b[:])
	default:
		out.WriteByte(mMap32)
		var b [4]byte
		putBE32(b[:], uint32(n))
		out.Write(b[:])
	}
	for _, f := range sorted {
		writeStr(out, f.Key)
		if err := writeValue(out, f.Val); err != nil {
			return err
		}
	}
	return nil
}

func writeHash(out *bytes.Buffer, h value.Hash) {
	if h.IsEmpty() {
		writeExt(out, extHash, []byte{byte(h.Version)})
		return
	}
	payload := make([]byte, 33)
	payload[0] = byte(h.Version)
	copy(payload[1:], h.Digest[:])
	writeExt(out, extHash, payload)
}

func writeExt(out *bytes.Buffer, extType byte, payload []byte) {
	n := len(payload)
	switch {
	case n <= 0xff:
		out.WriteByte(mExt8)
		out.WriteByte(byte(n))
	case n <= 0xffff:
		out.WriteByte(mExt16)
		var b [2]byte
		putBE16(b[:], uint16(n))
		out.Write(b[:])
	default:
		out.WriteByte(mExt32)
		var b [4]byte
		putBE32(b[:], uint32(n))
		out.Write(b[:])
	}
	out.WriteByte(extType)
	out.Write(payload)
}

func putBE16(b []byte, v uint16) { b[0] = byte(v >> 8); b[1] = byte(v) }
func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
func putBE64(b []byte, v uint64) {
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}
