package validator

import "github.com/fogpack/fogpack/value"

// finalize reconciles a validator's in/nin sets and reports whether it
// can still match anything. It is idempotent: calling it again on an
// already-finalized validator is a no-op that returns the same answer.
func finalize(v *Validator) bool {
	if len(v.In) > 0 && len(v.Nin) > 0 {
		kept := v.In[:0:0]
		for _, c := range v.In {
			if !containsValue(v.Nin, c) {
				kept = append(kept, c)
			}
		}
		v.In = kept
	}
	if v.In != nil && len(v.In) == 0 {
		return false
	}

	switch v.Kind {
	case KindInt:
		if v.Min != nil && v.Max != nil && compareValues(*v.Min, *v.Max) > 0 {
			return false
		}
		if v.BitsSet != nil && v.BitsClr != nil && (*v.BitsSet&*v.BitsClr) != 0 {
			return false
		}
	case KindF32:
		if v.Min != nil && v.Max != nil && v.Min.F32 > v.Max.F32 {
			return false
		}
	case KindF64:
		if v.Min != nil && v.Max != nil && v.Min.F64 > v.Max.F64 {
			return false
		}
	case KindTime:
		if v.Min != nil && v.Max != nil && v.Min.Timestamp.Compare(v.Max.Timestamp) > 0 {
			return false
		}
	case KindStr, KindBin, KindLock:
		if v.MinLen != nil && v.MaxLen != nil && *v.MinLen > *v.MaxLen {
			return false
		}
	case KindArray:
		if v.MinLen != nil && v.MaxLen != nil && *v.MinLen > *v.MaxLen {
			return false
		}
	case KindObj:
		if v.MinFields != nil && v.MaxFields != nil && *v.MinFields > *v.MaxFields {
			return false
		}
		for name := range v.Req {
			if _, dup := v.Opt[name]; dup {
				return false
			}
		}
	}

	return true
}

func containsValue(set []value.Value, needle value.Value) bool {
	for _, c := range set {
		if value.Equal(c, needle) {
			return true
		}
	}
	return false
}
