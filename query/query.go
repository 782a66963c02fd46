// Package query implements fog-pack's query-intersection checker: a
// pure predicate over two parsed validator IRs that decides whether a
// query shape is admissible against a schema, without ever touching
// payload bytes or mutating either table.
package query

import "github.com/fogpack/fogpack/validator"

type pairKey struct{ s, q int }

// Check reports whether the query validator at qIR.Types[qIndex] is
// admissible against the schema validator at sIR.Types[sIndex]: every
// constraint category the query uses is one the schema opted into via
// its capability flags, and (for Object/Array/Hash/Multi) every
// referenced child validator recursively intersects as well.
func Check(sIR, qIR *validator.IR, sIndex, qIndex int) bool {
	return check(sIR, qIR, sIndex, qIndex, make(map[pairKey]bool))
}

func check(sIR, qIR *validator.IR, sIndex, qIndex int, visited map[pairKey]bool) bool {
	key := pairKey{sIndex, qIndex}
	if visited[key] {
		return true
	}
	visited[key] = true

	s := &sIR.Types[sIndex]
	q := &qIR.Types[qIndex]

	if s.Kind == validator.KindInvalid {
		return false
	}
	if s.Kind == validator.KindValid {
		return true
	}
	if q.Kind == validator.KindInvalid {
		return false
	}
	if q.Kind == validator.KindValid {
		return true
	}

	if q.Kind == validator.KindMulti {
		for _, alt := range q.AnyOf {
			if !check(sIR, qIR, sIndex, alt, visited) {
				return false
			}
		}
		return true
	}
	if s.Kind == validator.KindMulti {
		for _, alt := range s.AnyOf {
			if check(sIR, qIR, alt, qIndex, visited) {
				return true
			}
		}
		return false
	}

	if s.Kind != q.Kind {
		return false
	}
	if queryUsesConstraints(q) && !s.Query {
		return false
	}

	switch s.Kind {
	case validator.KindNull, validator.KindBool, validator.KindIdent:
		return true
	case validator.KindInt, validator.KindF32, validator.KindF64, validator.KindTime:
		return checkOrdered(s, q)
	case validator.KindStr:
		return checkStr(s, q)
	case validator.KindBin, validator.KindLock:
		return checkBinLike(s, q)
	case validator.KindArray:
		return checkArray(sIR, qIR, s, q, visited)
	case validator.KindObj:
		return checkObj(sIR, qIR, s, q, visited)
	case validator.KindHash:
		return checkHash(sIR, qIR, s, q, visited)
	default:
		return false
	}
}

// queryUsesConstraints reports whether q narrows the field at all,
// beyond the bare in/nin sets every primitive always allows.
func queryUsesConstraints(q *validator.Validator) bool {
	return q.Min != nil || q.Max != nil || q.ExMin || q.ExMax || q.Ord ||
		q.BitsSet != nil || q.BitsClr != nil ||
		q.MinLen != nil || q.MaxLen != nil || q.Matches != "" ||
		len(q.Items) > 0 || q.ExtraItems != nil || len(q.Contains) > 0 || q.Unique ||
		len(q.Req) > 0 || len(q.Opt) > 0 || q.FieldType != nil ||
		q.Link != nil || len(q.Schema) > 0
}

func checkOrdered(s, q *validator.Validator) bool {
	if (q.Min != nil || q.Max != nil || q.ExMin || q.ExMax || q.Ord) && !s.Ord {
		return false
	}
	return true
}

func checkStr(s, q *validator.Validator) bool {
	if q.Matches != "" && !s.RegexOk {
		return false
	}
	return true
}

func checkBinLike(s, q *validator.Validator) bool {
	if (q.MinLen != nil || q.MaxLen != nil) && !s.SizeOk {
		return false
	}
	return true
}

func checkArray(sIR, qIR *validator.IR, s, q *validator.Validator, visited map[pairKey]bool) bool {
	if (len(q.Items) > 0 || q.ExtraItems != nil || q.MinLen != nil || q.MaxLen != nil) && !s.ArrayOk {
		return false
	}
	if len(q.Contains) > 0 && !s.ContainsOk {
		return false
	}
	if q.Unique && !s.UniqueOk {
		return false
	}

	sChildFor := func(i int) (int, bool) {
		switch {
		case i < len(s.Items):
			return s.Items[i], true
		case s.ExtraItems != nil:
			return *s.ExtraItems, true
		default:
			return 0, false
		}
	}
	for i, qChild := range q.Items {
		sChild, ok := sChildFor(i)
		if !ok {
			return false
		}
		if !check(sIR, qIR, sChild, qChild, visited) {
			return false
		}
	}
	if q.ExtraItems != nil {
		if s.ExtraItems == nil {
			return false
		}
		if !check(sIR, qIR, *s.ExtraItems, *q.ExtraItems, visited) {
			return false
		}
	}
	for _, qContains := range q.Contains {
		sChild := s.ExtraItems
		if sChild == nil && len(s.Items) > 0 {
			sChild = &s.Items[0]
		}
		if sChild == nil || !check(sIR, qIR, *sChild, qContains, visited) {
			return false
		}
	}
	return true
}

func checkObj(sIR, qIR *validator.IR, s, q *validator.Validator, visited map[pairKey]bool) bool {
	if (len(q.Req) > 0 || len(q.Opt) > 0) && !s.ObjOk {
		return false
	}
	for name, qChild := range q.Req {
		if !checkObjField(sIR, qIR, s, name, qChild, visited) {
			return false
		}
	}
	for name, qChild := range q.Opt {
		if !checkObjField(sIR, qIR, s, name, qChild, visited) {
			return false
		}
	}
	return true
}

func checkObjField(sIR, qIR *validator.IR, s *validator.Validator, name string, qChild int, visited map[pairKey]bool) bool {
	if sChild, ok := s.Req[name]; ok {
		return check(sIR, qIR, sChild, qChild, visited)
	}
	if sChild, ok := s.Opt[name]; ok {
		return check(sIR, qIR, sChild, qChild, visited)
	}
	if s.FieldType != nil {
		return check(sIR, qIR, *s.FieldType, qChild, visited)
	}
	return false
}

func checkHash(sIR, qIR *validator.IR, s, q *validator.Validator, visited map[pairKey]bool) bool {
	if q.Link != nil {
		if !s.LinkOk || s.Link == nil {
			return false
		}
		if !check(sIR, qIR, *s.Link, *q.Link, visited) {
			return false
		}
	}
	if len(q.Schema) > 0 && !s.SchemaOk {
		return false
	}
	return true
}
