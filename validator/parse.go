package validator

import (
	"fmt"
	"strings"

	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// candidate is one still-being-tried interpretation of an object-shaped
// validator during multi-candidate inference. isAlias candidates collect
// a `type` field's string value rather than building a constraint record
// directly, since a bare `{type: "Foo"}` resolves through the IR's name
// table instead of producing a fresh record itself.
type candidate struct {
	kind    Kind
	v       Validator
	isAlias bool
	alias   strings.Builder
	alive   bool
}

// candidateKinds lists every kind multi-candidate inference may guess,
// in the order a schema author's omission of `type` is resolved.
// Lock's field set (min_len/max_len/size) is indistinguishable from
// Bin's, so a Lock validator only wins with an explicit `type: "Lock"`.
var candidateKinds = []Kind{
	KindNull, KindBool, KindInt, KindStr, KindF32, KindF64,
	KindBin, KindArray, KindObj, KindHash, KindIdent, KindLock, KindTime, KindMulti,
}

// Parse builds a Validator record (or resolves a TypeAlias reference)
// from body and appends it to ir, returning its index. isQuery marks
// every produced record's Query-context default, matching the parser's
// is_query threading through nested validator parses.
func Parse(ir *IR, body value.Value, isQuery bool) (int, error) {
	switch body.Kind {
	case value.KindNull:
		return IndexValid, nil
	case value.KindBool:
		return appendConst(ir, Validator{Kind: KindBool, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindInt:
		return appendConst(ir, Validator{Kind: KindInt, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindF32:
		return appendConst(ir, Validator{Kind: KindF32, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindF64:
		return appendConst(ir, Validator{Kind: KindF64, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindStr:
		return appendConst(ir, Validator{Kind: KindStr, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindBin:
		return appendConst(ir, Validator{Kind: KindBin, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindHash:
		return appendConst(ir, Validator{Kind: KindHash, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindIdentity:
		return appendConst(ir, Validator{Kind: KindIdent, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindTimestamp:
		return appendConst(ir, Validator{Kind: KindTime, In: []value.Value{body}, Query: isQuery}), nil
	case value.KindArray:
		return parseArrayConst(ir, body, isQuery)
	case value.KindObj:
		return parseObjectValidator(ir, body, isQuery)
	default:
		return 0, errs.NewParseError(errs.ErrFailValidate, 0, fmt.Sprintf("value kind %s cannot be used as a validator", body.Kind))
	}
}

func appendConst(ir *IR, v Validator) int {
	ir.Types = append(ir.Types, v)
	return len(ir.Types) - 1
}

// parseArrayConst treats a bare array value as a validator requiring
// each position to equal the corresponding element (an array-of-literals
// shorthand used nowhere else in the language but accepted for
// consistency with every other primitive's bare-constant form).
func parseArrayConst(ir *IR, body value.Value, isQuery bool) (int, error) {
	items := make([]int, len(body.Array))
	for i, elem := range body.Array {
		idx, err := Parse(ir, elem, isQuery)
		if err != nil {
			return 0, err
		}
		items[i] = idx
	}
	v := Validator{Kind: KindArray, Query: isQuery, Items: items, MinLen: intPtr(len(items)), MaxLen: intPtr(len(items))}
	return appendConst(ir, v), nil
}

func parseObjectValidator(ir *IR, body value.Value, isQuery bool) (int, error) {
	cands := make([]*candidate, 0, len(candidateKinds)+1)
	alias := &candidate{isAlias: true, alive: true}
	cands = append(cands, alias)
	for _, k := range candidateKinds {
		cands = append(cands, &candidate{kind: k, v: freshValidator(k, isQuery), alive: true})
	}

	typeSeen := false

	for _, f := range body.Obj {
		if f.Key == "comment" {
			continue
		}
		if f.Key == "type" {
			typeSeen = true
		}
		for _, c := range cands {
			if !c.alive {
				continue
			}
			if c.isAlias {
				if f.Key != "type" {
					c.alive = false
					continue
				}
				if f.Val.Kind != value.KindStr {
					c.alive = false
					continue
				}
				c.alias.WriteString(f.Val.Str)
				continue
			}
			if !updateField(&c.v, ir, f.Key, f.Val, isQuery) {
				c.alive = false
			}
		}
	}

	alive := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		if c.alive {
			alive = append(alive, c)
		}
	}

	switch {
	case len(alive) == len(cands):
		return IndexValid, nil
	case len(alive) > 1:
		if alias.alive {
			return resolveAlias(ir, alias.alias.String(), isQuery)
		}
		return 0, errs.NewParseError(errs.ErrFailValidate, 0, "validator isn't specific enough; specify more fields")
	case len(alive) == 1:
		if !typeSeen {
			return 0, errs.NewParseError(errs.ErrFailValidate, 0, "validator needs to include a `type` field")
		}
		winner := alive[0]
		if winner.isAlias {
			return resolveAlias(ir, winner.alias.String(), isQuery)
		}
		ok := finalize(&winner.v)
		if !ok {
			return IndexInvalid, nil
		}
		return appendConst(ir, winner.v), nil
	default:
		return 0, errs.NewParseError(errs.ErrFailValidate, 0, "not a recognized validator")
	}
}

// resolveAlias looks up name in ir.TypeNames. The first time a built-in
// type name is seen it allocates a fresh, unconstrained slot of that
// kind; any other name is recorded as IndexInvalid. Resolving the same
// name again returns the same index, so repeated references never
// allocate again.
func resolveAlias(ir *IR, name string, isQuery bool) (int, error) {
	if idx, ok := ir.TypeNames[name]; ok {
		return idx, nil
	}
	kind, ok := builtinNames[name]
	if !ok {
		if name == "Lock" {
			kind = KindLock
		} else {
			ir.TypeNames[name] = IndexInvalid
			return IndexInvalid, nil
		}
	}
	idx := appendConst(ir, freshValidator(kind, isQuery))
	ir.TypeNames[name] = idx
	return idx, nil
}

func intPtr(n int) *int { return &n }
