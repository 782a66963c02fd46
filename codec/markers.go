package codec

// Single-byte value markers, msgpack-family layout: small values carry
// their length or payload inline in the marker byte itself, larger
// values spill into explicit-width marker ranges.
const (
	mPosFixintMax = 0x7f // 0xxxxxxx, value = low 7 bits
	mNegFixintMin = 0xe0 // 111xxxxx, value = sign-extended low 5 bits

	mFixstrBase = 0xa0 // 101xxxxx, length in low 5 bits
	mFixstrMax  = 0xbf

	mFixarrayBase = 0x90 // 1001xxxx, length in low 4 bits
	mFixarrayMax  = 0x9f

	mFixmapBase = 0x80 // 1000xxxx, length in low 4 bits
	mFixmapMax  = 0x8f

	mNull  = 0xc0
	mFalse = 0xc2
	mTrue  = 0xc3

	mBin8  = 0xc4
	mBin16 = 0xc5
	mBin32 = 0xc6

	mExt8  = 0xc7
	mExt16 = 0xc8
	mExt32 = 0xc9

	mF32 = 0xca
	mF64 = 0xcb

	mUint8  = 0xcc
	mUint16 = 0xcd
	mUint32 = 0xce
	mUint64 = 0xcf

	mInt8  = 0xd0
	mInt16 = 0xd1
	mInt32 = 0xd2
	mInt64 = 0xd3

	mStr8  = 0xd9
	mStr16 = 0xda
	mStr32 = 0xdb

	mArray16 = 0xdc
	mArray32 = 0xdd

	mMap16 = 0xde
	mMap32 = 0xdf
)

// Ext-type bytes identifying which fog-pack type an ext-family value
// carries.
const (
	extHash      = 1
	extIdentity  = 2
	extLockbox   = 3
	extTimestamp = 4
	extSignature = 5
)
