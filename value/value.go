// Package value defines fog-pack's self-describing Value type: a tagged
// variant tree that every other package (codec, validator, container)
// encodes, parses, or checks against a schema.
package value

import (
	"fmt"
	"sort"
)

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindF32
	KindF64
	KindStr
	KindBin
	KindArray
	KindObj
	KindHash
	KindIdentity
	KindLockbox
	KindTimestamp
	KindSignature
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindF32:
		return "F32"
	case KindF64:
		return "F64"
	case KindStr:
		return "Str"
	case KindBin:
		return "Bin"
	case KindArray:
		return "Array"
	case KindObj:
		return "Obj"
	case KindHash:
		return "Hash"
	case KindIdentity:
		return "Identity"
	case KindLockbox:
		return "Lockbox"
	case KindTimestamp:
		return "Timestamp"
	case KindSignature:
		return "Signature"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Timestamp is seconds and nanoseconds since the Unix epoch, kept as two
// plain integers rather than time.Time so the wire encoding (two
// independently-ranged fields) is explicit rather than hidden behind a
// library type.
type Timestamp struct {
	Sec  int64
	Nsec int32
}

// Compare orders two timestamps, seconds first then nanoseconds.
func (t Timestamp) Compare(o Timestamp) int {
	if t.Sec != o.Sec {
		if t.Sec < o.Sec {
			return -1
		}
		return 1
	}
	switch {
	case t.Nsec < o.Nsec:
		return -1
	case t.Nsec > o.Nsec:
		return 1
	default:
		return 0
	}
}

// Field is a single key-value pair of an object Value. Object fields are
// kept in a sorted slice rather than a map so that canonical (sorted,
// deduplicated) ordering is a property of the representation, not
// something re-derived at encode time.
type Field struct {
	Key string
	Val Value
}

// Value is a fog-pack value: a finite tree built from one of 15 tagged
// kinds. Zero value is Null.
type Value struct {
	Kind Kind

	Bool bool
	Int  int64
	// IntUnsigned distinguishes a literal in [2^63, 2^64) from a negative
	// int64 reinterpretation; only meaningful when Kind == KindInt and the
	// raw bit pattern did not fit in an int64 the way a signed read would
	// produce. Most construction paths leave this false.
	IntUnsigned bool
	IntU        uint64

	F32 float32
	F64 float64

	Str string
	Bin []byte

	Array []Value
	Obj   []Field

	Hash      Hash
	Identity  Identity
	Lockbox   []byte
	Timestamp Timestamp
	Signature Signature
}

// Null is the Null value.
var Null = Value{Kind: KindNull}

// NewBool constructs a Bool value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewInt constructs a signed Int value.
func NewInt(i int64) Value { return Value{Kind: KindInt, Int: i} }

// NewUint constructs an Int value in the unsigned half of fog-pack's
// [-2^63, 2^64) integer range.
func NewUint(u uint64) Value { return Value{Kind: KindInt, IntUnsigned: true, IntU: u} }

// NewF32 constructs an F32 value.
func NewF32(f float32) Value { return Value{Kind: KindF32, F32: f} }

// NewF64 constructs an F64 value.
func NewF64(f float64) Value { return Value{Kind: KindF64, F64: f} }

// NewStr constructs a Str value.
func NewStr(s string) Value { return Value{Kind: KindStr, Str: s} }

// NewBin constructs a Bin value. The slice is not copied.
func NewBin(b []byte) Value { return Value{Kind: KindBin, Bin: b} }

// NewArray constructs an Array value.
func NewArray(items []Value) Value { return Value{Kind: KindArray, Array: items} }

// NewHash constructs a Hash value.
func NewHash(h Hash) Value { return Value{Kind: KindHash, Hash: h} }

// NewIdentity constructs an Identity value.
func NewIdentity(id Identity) Value { return Value{Kind: KindIdentity, Identity: id} }

// NewLockbox constructs a Lockbox value. Contents are treated as opaque
// bytes; fog-pack's core never seals or unseals them (spec Non-goals).
func NewLockbox(b []byte) Value { return Value{Kind: KindLockbox, Lockbox: b} }

// NewTimestamp constructs a Timestamp value.
func NewTimestamp(t Timestamp) Value { return Value{Kind: KindTimestamp, Timestamp: t} }

// NewSignature constructs a Signature value.
func NewSignature(s Signature) Value { return Value{Kind: KindSignature, Signature: s} }

// NewObj constructs an Obj value from fields, sorting them by key and
// removing duplicate keys (the last write for a given key wins), matching
// the canonical map-key ordering rule the codec enforces on decode.
func NewObj(fields []Field) Value {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	out := sorted[:0]
	for i, f := range sorted {
		if i > 0 && f.Key == out[len(out)-1].Key {
			out[len(out)-1] = f
			continue
		}
		out = append(out, f)
	}
	return Value{Kind: KindObj, Obj: out}
}

// Get returns the value for key in an Obj value, and whether it was
// present. Lookup is linear; objects used by fog-pack schemas are small
// (tens of fields at most), so a binary search or map would not pay for
// itself.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.Obj {
		if f.Key == key {
			return f.Val, true
		}
	}
	return Value{}, false
}

// Equal reports whether two values are structurally identical. Object
// field order is assumed canonical (sorted) on both sides, as guaranteed
// by NewObj and by the codec's decode-time ordering check.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		if a.IntUnsigned != b.IntUnsigned {
			return false
		}
		if a.IntUnsigned {
			return a.IntU == b.IntU
		}
		return a.Int == b.Int
	case KindF32:
		return a.F32 == b.F32 || (isNaN32(a.F32) && isNaN32(b.F32))
	case KindF64:
		return a.F64 == b.F64 || (isNaN64(a.F64) && isNaN64(b.F64))
	case KindStr:
		return a.Str == b.Str
	case KindBin:
		return bytesEqual(a.Bin, b.Bin)
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindObj:
		if len(a.Obj) != len(b.Obj) {
			return false
		}
		for i := range a.Obj {
			if a.Obj[i].Key != b.Obj[i].Key || !Equal(a.Obj[i].Val, b.Obj[i].Val) {
				return false
			}
		}
		return true
	case KindHash:
		return a.Hash.Equal(b.Hash)
	case KindIdentity:
		return a.Identity == b.Identity
	case KindLockbox:
		return bytesEqual(a.Lockbox, b.Lockbox)
	case KindTimestamp:
		return a.Timestamp.Compare(b.Timestamp) == 0
	case KindSignature:
		return a.Signature == b.Signature
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isNaN32(f float32) bool { return f != f }
func isNaN64(f float64) bool { return f != f }
