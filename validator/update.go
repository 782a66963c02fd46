package validator

import "github.com/fogpack/fogpack/value"

// intValue extracts a nonnegative int from an Int value regardless of
// whether the codec decoded it as the signed or unsigned half of fog-pack's
// integer range (small positive literals decode as signed Int).
func intValue(v value.Value) (int, bool) {
	if v.Kind != value.KindInt {
		return 0, false
	}
	if v.IntUnsigned {
		return int(v.IntU), true
	}
	if v.Int < 0 {
		return 0, false
	}
	return int(v.Int), true
}

// uint64Value extracts a uint64 bit pattern from an Int value regardless
// of signed/unsigned representation, for bitmask fields.
func uint64Value(v value.Value) (uint64, bool) {
	if v.Kind != value.KindInt {
		return 0, false
	}
	if v.IntUnsigned {
		return v.IntU, true
	}
	return uint64(v.Int), true
}

// updateField feeds one object field of a schema validator body into v,
// mutating it in place. It reports whether v still accepts the field at
// all (false kills the candidate in the caller's multi-candidate loop);
// whether the field's value is well-formed for v.Kind is a separate,
// stricter concern left for a later pass — here we only need to decide
// kind-admissibility, since a malformed value for the wrong kind is
// exactly the signal multi-candidate inference uses to rule kinds out.
func updateField(v *Validator, ir *IR, key string, val value.Value, isQuery bool) bool {
	switch key {
	case "type":
		return val.Kind == value.KindStr && val.Str == kindTypeName(v.Kind)
	case "default":
		v.Default = &val
		return true
	case "in":
		if val.Kind != value.KindArray {
			return false
		}
		v.In = val.Array
		return true
	case "nin":
		if val.Kind != value.KindArray {
			return false
		}
		v.Nin = val.Array
		return true
	case "query":
		if val.Kind != value.KindBool {
			return false
		}
		v.Query = val.Bool
		return true
	}

	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return false
	case KindInt, KindF32, KindF64, KindTime:
		return updateOrdered(v, key, val)
	case KindStr:
		return updateStr(v, key, val)
	case KindBin:
		return updateBin(v, key, val)
	case KindArray:
		return updateArray(v, ir, key, val, isQuery)
	case KindObj:
		return updateObj(v, ir, key, val, isQuery)
	case KindHash:
		return updateHash(v, ir, key, val)
	case KindIdent:
		return false
	case KindLock:
		return updateBin(v, key, val)
	case KindMulti:
		return updateMulti(v, ir, key, val, isQuery)
	default:
		return false
	}
}

func kindTypeName(k Kind) string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindStr:
		return "Str"
	case KindF32:
		return "F32"
	case KindF64:
		return "F64"
	case KindBin:
		return "Bin"
	case KindArray:
		return "Array"
	case KindObj:
		return "Obj"
	case KindHash:
		return "Hash"
	case KindIdent:
		return "Ident"
	case KindLock:
		return "Lock"
	case KindTime:
		return "Time"
	case KindMulti:
		return "Multi"
	default:
		return ""
	}
}

func updateOrdered(v *Validator, key string, val value.Value) bool {
	switch key {
	case "min":
		v.Min = &val
		return true
	case "max":
		v.Max = &val
		return true
	case "ex_min":
		if val.Kind != value.KindBool {
			return false
		}
		v.ExMin = val.Bool
		return true
	case "ex_max":
		if val.Kind != value.KindBool {
			return false
		}
		v.ExMax = val.Bool
		return true
	case "ord":
		if val.Kind != value.KindBool {
			return false
		}
		v.Ord = val.Bool
		return true
	case "bits_set":
		if v.Kind != KindInt {
			return false
		}
		u, ok := uint64Value(val)
		if !ok {
			return false
		}
		v.BitsSet = &u
		return true
	case "bits_clr":
		if v.Kind != KindInt {
			return false
		}
		u, ok := uint64Value(val)
		if !ok {
			return false
		}
		v.BitsClr = &u
		return true
	default:
		return false
	}
}

func updateStr(v *Validator, key string, val value.Value) bool {
	switch key {
	case "min_len":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MinLen = &n
		return true
	case "max_len":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MaxLen = &n
		return true
	case "matches":
		if val.Kind != value.KindStr {
			return false
		}
		v.Matches = val.Str
		return true
	case "regex_ok":
		if val.Kind != value.KindBool {
			return false
		}
		v.RegexOk = val.Bool
		return true
	default:
		return false
	}
}

func updateBin(v *Validator, key string, val value.Value) bool {
	switch key {
	case "min_len":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MinLen = &n
		return true
	case "max_len":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MaxLen = &n
		return true
	case "size":
		if val.Kind != value.KindBool {
			return false
		}
		v.SizeOk = val.Bool
		return true
	default:
		return false
	}
}

func updateArray(v *Validator, ir *IR, key string, val value.Value, isQuery bool) bool {
	switch key {
	case "min_len":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MinLen = &n
		return true
	case "max_len":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MaxLen = &n
		return true
	case "items":
		if val.Kind != value.KindArray {
			return false
		}
		items := make([]int, len(val.Array))
		for i, elem := range val.Array {
			idx, err := Parse(ir, elem, isQuery)
			if err != nil {
				return false
			}
			items[i] = idx
		}
		v.Items = items
		return true
	case "extra_items":
		idx, err := Parse(ir, val, isQuery)
		if err != nil {
			return false
		}
		v.ExtraItems = &idx
		return true
	case "contains":
		if val.Kind != value.KindArray {
			return false
		}
		contains := make([]int, len(val.Array))
		for i, elem := range val.Array {
			idx, err := Parse(ir, elem, isQuery)
			if err != nil {
				return false
			}
			contains[i] = idx
		}
		v.Contains = contains
		return true
	case "unique":
		if val.Kind != value.KindBool {
			return false
		}
		v.Unique = val.Bool
		return true
	case "array":
		if val.Kind != value.KindBool {
			return false
		}
		v.ArrayOk = val.Bool
		return true
	case "contains_ok":
		if val.Kind != value.KindBool {
			return false
		}
		v.ContainsOk = val.Bool
		return true
	case "unique_ok":
		if val.Kind != value.KindBool {
			return false
		}
		v.UniqueOk = val.Bool
		return true
	default:
		return false
	}
}

func updateObj(v *Validator, ir *IR, key string, val value.Value, isQuery bool) bool {
	switch key {
	case "req":
		if val.Kind != value.KindObj {
			return false
		}
		for _, f := range val.Obj {
			idx, err := Parse(ir, f.Val, isQuery)
			if err != nil {
				return false
			}
			v.Req[f.Key] = idx
		}
		return true
	case "opt":
		if val.Kind != value.KindObj {
			return false
		}
		for _, f := range val.Obj {
			idx, err := Parse(ir, f.Val, isQuery)
			if err != nil {
				return false
			}
			v.Opt[f.Key] = idx
		}
		return true
	case "field_type":
		idx, err := Parse(ir, val, isQuery)
		if err != nil {
			return false
		}
		v.FieldType = &idx
		return true
	case "min_fields":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MinFields = &n
		return true
	case "max_fields":
		n, ok := intValue(val)
		if !ok {
			return false
		}
		v.MaxFields = &n
		return true
	case "unknown_ok":
		if val.Kind != value.KindBool {
			return false
		}
		v.UnknownOk = val.Bool
		return true
	case "obj_ok":
		if val.Kind != value.KindBool {
			return false
		}
		v.ObjOk = val.Bool
		return true
	default:
		return false
	}
}

func updateHash(v *Validator, ir *IR, key string, val value.Value) bool {
	switch key {
	case "link":
		idx, err := Parse(ir, val, false)
		if err != nil {
			return false
		}
		v.Link = &idx
		return true
	case "schema":
		switch val.Kind {
		case value.KindHash:
			v.Schema = []value.Hash{val.Hash}
			return true
		case value.KindArray:
			hashes := make([]value.Hash, 0, len(val.Array))
			for _, elem := range val.Array {
				if elem.Kind != value.KindHash {
					return false
				}
				hashes = append(hashes, elem.Hash)
			}
			v.Schema = hashes
			return true
		default:
			return false
		}
	case "link_ok":
		if val.Kind != value.KindBool {
			return false
		}
		v.LinkOk = val.Bool
		return true
	case "schema_ok":
		if val.Kind != value.KindBool {
			return false
		}
		v.SchemaOk = val.Bool
		return true
	default:
		return false
	}
}

func updateMulti(v *Validator, ir *IR, key string, val value.Value, isQuery bool) bool {
	switch key {
	case "any_of":
		if val.Kind != value.KindArray {
			return false
		}
		anyOf := make([]int, len(val.Array))
		for i, elem := range val.Array {
			idx, err := Parse(ir, elem, isQuery)
			if err != nil {
				return false
			}
			anyOf[i] = idx
		}
		v.AnyOf = anyOf
		return true
	default:
		return false
	}
}
