// Package validator implements fog-pack's schema intermediate
// representation: a flat, index-addressed table of per-type constraint
// records (the IR), the parser that builds an IR from a schema or query
// value, and the engine that checks a decoded value against it.
//
// Every cross-validator reference — an object's required field, an
// array's item validator, a Multi's alternatives — is an integer index
// into the owning IR's Types slice rather than a pointer, so recursive
// and mutually-referential schemas form cycles in the index graph without
// ever forming a cycle in Go's object graph.
package validator

import "github.com/fogpack/fogpack/value"

// Kind identifies which of fog-pack's validator variants a Validator
// record holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindValid
	KindNull
	KindBool
	KindInt
	KindStr
	KindF32
	KindF64
	KindBin
	KindArray
	KindObj
	KindHash
	KindIdent
	KindLock
	KindTime
	KindMulti
)

// IndexInvalid and IndexValid are the two reserved slots every IR table
// begins with.
const (
	IndexInvalid = 0
	IndexValid   = 1
)

// Validator is one record in an IR's type table. Which fields are
// meaningful depends on Kind; this mirrors the source schema language's
// own per-type field sets (§6.4) rather than splitting into one Go type
// per kind, since the multi-candidate parser must hold every candidate
// kind open simultaneously while it narrows down which one a schema
// author meant.
type Validator struct {
	Kind Kind

	// Common to every primitive kind.
	In      []value.Value
	Nin     []value.Value
	Default *value.Value
	Query   bool
	Comment string

	// Int / F32 / F64 / Time.
	Min, Max     *value.Value
	ExMin, ExMax bool
	Ord          bool
	BitsSet      *uint64
	BitsClr      *uint64

	// Str.
	MinLen, MaxLen *int
	Matches        string
	RegexOk        bool

	// Bin / Lock.
	SizeOk bool

	// Array.
	Items      []int
	ExtraItems *int
	Contains   []int
	Unique     bool
	ArrayOk    bool
	ContainsOk bool
	UniqueOk   bool

	// Object.
	Req        map[string]int
	Opt        map[string]int
	FieldType  *int
	MinFields  *int
	MaxFields  *int
	UnknownOk  bool
	ObjOk      bool

	// Hash.
	Link      *int
	Schema    []value.Hash
	LinkOk    bool
	SchemaOk  bool

	// Multi.
	AnyOf []int
}

// IR is a parsed schema or query: a flat table of Validator records plus
// the name-to-index map used to resolve TypeAlias references, including
// recursive ones.
type IR struct {
	Types     []Validator
	TypeNames map[string]int
}

// NewIR returns an IR pre-populated with the two reserved slots every
// table carries.
func NewIR() *IR {
	return &IR{
		Types:     []Validator{{Kind: KindInvalid}, {Kind: KindValid}},
		TypeNames: make(map[string]int),
	}
}

// builtinNames lists the type names a bare TypeAlias may resolve to
// without an explicit local definition, each producing a fresh,
// unconstrained validator of that kind.
var builtinNames = map[string]Kind{
	"Null":  KindNull,
	"Bool":  KindBool,
	"Int":   KindInt,
	"Str":   KindStr,
	"F32":   KindF32,
	"F64":   KindF64,
	"Bin":   KindBin,
	"Array": KindArray,
	"Obj":   KindObj,
	"Hash":  KindHash,
	"Ident": KindIdent,
	"Lock":  KindLock,
	"Time":  KindTime,
}

func freshValidator(kind Kind, isQuery bool) Validator {
	v := Validator{Kind: kind, Query: isQuery}
	switch kind {
	case KindObj:
		v.Req = make(map[string]int)
		v.Opt = make(map[string]int)
	}
	return v
}
