package validator

import (
	"bytes"

	"github.com/dlclark/regexp2"

	"github.com/fogpack/fogpack/codec"
	"github.com/fogpack/fogpack/errs"
	"github.com/fogpack/fogpack/value"
)

// Validate checks v against ir.Types[index], queuing any deferred
// cross-document references (Hash validators with link or schema set)
// into cl. It reports the first constraint violated; a nil return means
// v satisfies every constraint the validator at index carries.
func Validate(ir *IR, index int, v value.Value, cl *Checklist) error {
	if index < 0 || index >= len(ir.Types) {
		return errs.NewParseError(errs.ErrFailValidate, 0, "validator index out of range")
	}
	val := &ir.Types[index]

	switch val.Kind {
	case KindInvalid:
		return fail("value rejected by Invalid validator")
	case KindValid:
		return nil
	case KindNull:
		return checkKind(v, value.KindNull, val)
	case KindBool:
		return checkInNin(v, value.KindBool, val)
	case KindInt:
		return validateInt(val, v)
	case KindF32:
		return validateFloat32(val, v)
	case KindF64:
		return validateFloat64(val, v)
	case KindStr:
		return validateStr(val, v)
	case KindBin:
		return validateBinLike(val, v, value.KindBin)
	case KindLock:
		return validateBinLike(val, v, value.KindLockbox)
	case KindArray:
		return validateArray(ir, val, v, cl)
	case KindObj:
		return validateObj(ir, val, v, cl)
	case KindHash:
		return validateHash(ir, val, v, cl)
	case KindIdent:
		return checkInNin(v, value.KindIdentity, val)
	case KindTime:
		return validateTime(val, v)
	case KindMulti:
		return validateMulti(ir, val, v, cl)
	default:
		return fail("unrecognized validator kind")
	}
}

func fail(reason string) error {
	return errs.NewParseError(errs.ErrFailValidate, 0, reason)
}

func checkKind(v value.Value, want value.Kind, val *Validator) error {
	if v.Kind != want {
		return fail("value kind mismatch")
	}
	return checkInNinGeneric(v, val)
}

func checkInNin(v value.Value, want value.Kind, val *Validator) error {
	if v.Kind != want {
		return fail("value kind mismatch")
	}
	return checkInNinGeneric(v, val)
}

func checkInNinGeneric(v value.Value, val *Validator) error {
	if len(val.In) > 0 && !containsValue(val.In, v) {
		return fail("value not in allowed set")
	}
	if containsValue(val.Nin, v) {
		return fail("value in rejected set")
	}
	return nil
}

func validateInt(val *Validator, v value.Value) error {
	if v.Kind != value.KindInt {
		return fail("expected Int")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	if val.Min != nil && compareValues(v, *val.Min) < 0 {
		return fail("below min")
	}
	if val.ExMin && val.Min != nil && compareValues(v, *val.Min) == 0 {
		return fail("equal to exclusive min")
	}
	if val.Max != nil && compareValues(v, *val.Max) > 0 {
		return fail("above max")
	}
	if val.ExMax && val.Max != nil && compareValues(v, *val.Max) == 0 {
		return fail("equal to exclusive max")
	}
	bits, _ := uint64Value(v)
	if val.BitsSet != nil && bits&*val.BitsSet != *val.BitsSet {
		return fail("required bits not set")
	}
	if val.BitsClr != nil && bits&*val.BitsClr != 0 {
		return fail("forbidden bits set")
	}
	return nil
}

func validateFloat32(val *Validator, v value.Value) error {
	if v.Kind != value.KindF32 {
		return fail("expected F32")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	if isNaN32Local(v.F32) && !containsValue(val.In, v) {
		return fail("NaN not explicitly allowed")
	}
	if val.Min != nil && float64(v.F32) < float64(val.Min.F32) {
		return fail("below min")
	}
	if val.Max != nil && float64(v.F32) > float64(val.Max.F32) {
		return fail("above max")
	}
	if val.ExMin && val.Min != nil && v.F32 == val.Min.F32 {
		return fail("equal to exclusive min")
	}
	if val.ExMax && val.Max != nil && v.F32 == val.Max.F32 {
		return fail("equal to exclusive max")
	}
	return nil
}

func validateFloat64(val *Validator, v value.Value) error {
	if v.Kind != value.KindF64 {
		return fail("expected F64")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	if isNaN64Local(v.F64) && !containsValue(val.In, v) {
		return fail("NaN not explicitly allowed")
	}
	if val.Min != nil && v.F64 < val.Min.F64 {
		return fail("below min")
	}
	if val.Max != nil && v.F64 > val.Max.F64 {
		return fail("above max")
	}
	if val.ExMin && val.Min != nil && v.F64 == val.Min.F64 {
		return fail("equal to exclusive min")
	}
	if val.ExMax && val.Max != nil && v.F64 == val.Max.F64 {
		return fail("equal to exclusive max")
	}
	return nil
}

func isNaN32Local(f float32) bool { return f != f }
func isNaN64Local(f float64) bool { return f != f }

func validateStr(val *Validator, v value.Value) error {
	if v.Kind != value.KindStr {
		return fail("expected Str")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	n := len(v.Str)
	if val.MinLen != nil && n < *val.MinLen {
		return fail("string shorter than min_len")
	}
	if val.MaxLen != nil && n > *val.MaxLen {
		return fail("string longer than max_len")
	}
	if val.Matches != "" {
		re, err := regexp2.Compile(val.Matches, regexp2.None)
		if err != nil {
			return fail("invalid matches regex")
		}
		ok, err := re.MatchString(v.Str)
		if err != nil || !ok {
			return fail("string does not match pattern")
		}
	}
	return nil
}

func validateBinLike(val *Validator, v value.Value, want value.Kind) error {
	if v.Kind != want {
		return fail("value kind mismatch")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	n := 0
	if want == value.KindBin {
		n = len(v.Bin)
	} else {
		n = len(v.Lockbox)
	}
	if val.MinLen != nil && n < *val.MinLen {
		return fail("shorter than min_len")
	}
	if val.MaxLen != nil && n > *val.MaxLen {
		return fail("longer than max_len")
	}
	return nil
}

func validateTime(val *Validator, v value.Value) error {
	if v.Kind != value.KindTimestamp {
		return fail("expected Time")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	if val.Min != nil && v.Timestamp.Compare(val.Min.Timestamp) < 0 {
		return fail("before min")
	}
	if val.Max != nil && v.Timestamp.Compare(val.Max.Timestamp) > 0 {
		return fail("after max")
	}
	if val.ExMin && val.Min != nil && v.Timestamp.Compare(val.Min.Timestamp) == 0 {
		return fail("equal to exclusive min")
	}
	if val.ExMax && val.Max != nil && v.Timestamp.Compare(val.Max.Timestamp) == 0 {
		return fail("equal to exclusive max")
	}
	return nil
}

func validateArray(ir *IR, val *Validator, v value.Value, cl *Checklist) error {
	if v.Kind != value.KindArray {
		return fail("expected Array")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	n := len(v.Array)
	if val.MinLen != nil && n < *val.MinLen {
		return fail("array shorter than min_len")
	}
	if val.MaxLen != nil && n > *val.MaxLen {
		return fail("array longer than max_len")
	}
	for i, elem := range v.Array {
		var idx int
		switch {
		case i < len(val.Items):
			idx = val.Items[i]
		case val.ExtraItems != nil:
			idx = *val.ExtraItems
		default:
			idx = IndexValid
		}
		if err := Validate(ir, idx, elem, cl); err != nil {
			return err
		}
	}
	for _, wantIdx := range val.Contains {
		satisfied := false
		for _, elem := range v.Array {
			if Validate(ir, wantIdx, elem, NewChecklist(ir)) == nil {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return fail("contains constraint unsatisfied")
		}
	}
	if val.Unique {
		seen := make(map[string]struct{}, n)
		for _, elem := range v.Array {
			var buf bytes.Buffer
			if err := codec.WriteValue(&buf, elem); err != nil {
				return err
			}
			key := buf.String()
			if _, dup := seen[key]; dup {
				return fail("array elements not unique")
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

func validateObj(ir *IR, val *Validator, v value.Value, cl *Checklist) error {
	if v.Kind != value.KindObj {
		return fail("expected Obj")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	if val.MinFields != nil && len(v.Obj) < *val.MinFields {
		return fail("object has fewer than min_fields")
	}
	if val.MaxFields != nil && len(v.Obj) > *val.MaxFields {
		return fail("object has more than max_fields")
	}

	seen := make(map[string]bool, len(v.Obj))
	for _, f := range v.Obj {
		seen[f.Key] = true
		if idx, ok := val.Req[f.Key]; ok {
			if err := Validate(ir, idx, f.Val, cl); err != nil {
				return err
			}
			continue
		}
		if idx, ok := val.Opt[f.Key]; ok {
			if err := Validate(ir, idx, f.Val, cl); err != nil {
				return err
			}
			continue
		}
		if val.FieldType != nil {
			if err := Validate(ir, *val.FieldType, f.Val, cl); err != nil {
				return err
			}
			continue
		}
		if !val.UnknownOk {
			return fail("unknown object field")
		}
	}
	for name := range val.Req {
		if !seen[name] {
			return fail("missing required field")
		}
	}
	return nil
}

func validateHash(ir *IR, val *Validator, v value.Value, cl *Checklist) error {
	if v.Kind != value.KindHash {
		return fail("expected Hash")
	}
	if err := checkInNinGeneric(v, val); err != nil {
		return err
	}
	if val.Link != nil {
		cl.add(v.Hash, *val.Link)
	}
	if len(val.Schema) > 0 {
		cl.addSchemas(v.Hash, val.Schema)
	}
	return nil
}

func validateMulti(ir *IR, val *Validator, v value.Value, cl *Checklist) error {
	var lastErr error = fail("no alternative in any_of matched")
	for _, idx := range val.AnyOf {
		branch := NewChecklist(ir)
		if err := Validate(ir, idx, v, branch); err == nil {
			cl.Merge(branch)
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// compareValues orders two Int values, honoring the signed/unsigned
// split the codec preserves across the [-2^63, 2^64) range.
func compareValues(a, b value.Value) int {
	switch {
	case a.IntUnsigned && b.IntUnsigned:
		return cmpUint64(a.IntU, b.IntU)
	case !a.IntUnsigned && !b.IntUnsigned:
		return cmpInt64(a.Int, b.Int)
	case a.IntUnsigned && !b.IntUnsigned:
		if b.Int < 0 {
			return 1
		}
		return cmpUint64(a.IntU, uint64(b.Int))
	default:
		if a.Int < 0 {
			return -1
		}
		return cmpUint64(uint64(a.Int), b.IntU)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
