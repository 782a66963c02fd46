package validator

import (
	"testing"

	"github.com/fogpack/fogpack/value"
)

func parseSchema(t *testing.T, body value.Value) (*IR, int) {
	t.Helper()
	ir := NewIR()
	idx, err := Parse(ir, body, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ir, idx
}

func TestValidAcceptsEverything(t *testing.T) {
	ir := NewIR()
	for _, v := range []value.Value{value.Null, value.NewBool(true), value.NewInt(-5), value.NewStr("x")} {
		if err := Validate(ir, IndexValid, v, NewChecklist(ir)); err != nil {
			t.Fatalf("Valid rejected %+v: %v", v, err)
		}
	}
}

func TestInvalidRejectsEverything(t *testing.T) {
	ir := NewIR()
	if err := Validate(ir, IndexInvalid, value.NewBool(true), NewChecklist(ir)); err == nil {
		t.Fatal("Invalid accepted a value")
	}
}

// TestEmptyObjectSchema exercises S1: a schema of `{}` (which multi-candidate
// inference resolves straight to Valid, since no fields narrow it) must
// accept a document body with arbitrary fields.
func TestEmptyObjectSchema(t *testing.T) {
	schema := value.NewObj(nil)
	ir, idx := parseSchema(t, schema)
	if idx != IndexValid {
		t.Fatalf("expected empty object validator to resolve to Valid, got index %d", idx)
	}
	body := value.NewObj([]value.Field{{Key: "name", Val: value.NewStr("x")}})
	if err := Validate(ir, idx, body, NewChecklist(ir)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// TestIntRangeSchema exercises S2.
func TestIntRangeSchema(t *testing.T) {
	fieldSchema := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Int")},
		{Key: "min", Val: value.NewInt(0)},
		{Key: "max", Val: value.NewInt(10)},
	})
	schema := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Obj")},
		{Key: "req", Val: value.NewObj([]value.Field{{Key: "n", Val: fieldSchema}})},
	})
	ir, idx := parseSchema(t, schema)

	pass := value.NewObj([]value.Field{{Key: "n", Val: value.NewInt(5)}})
	if err := Validate(ir, idx, pass, NewChecklist(ir)); err != nil {
		t.Fatalf("expected n=5 to pass: %v", err)
	}

	fail := value.NewObj([]value.Field{{Key: "n", Val: value.NewInt(11)}})
	if err := Validate(ir, idx, fail, NewChecklist(ir)); err == nil {
		t.Fatal("expected n=11 to fail")
	}
}

// TestHashLinkChecklist exercises S3.
func TestHashLinkChecklist(t *testing.T) {
	linkTarget := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Obj")},
		{Key: "req", Val: value.NewObj([]value.Field{
			{Key: "name", Val: value.NewObj([]value.Field{{Key: "type", Val: value.NewStr("Str")}})},
		})},
	})
	refField := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Hash")},
		{Key: "link", Val: linkTarget},
	})
	schema := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Obj")},
		{Key: "req", Val: value.NewObj([]value.Field{{Key: "ref", Val: refField}})},
	})
	ir, idx := parseSchema(t, schema)

	h := value.Hash{Version: value.HashVersionBlake2b}
	h.Digest[0] = 0xAB
	doc := value.NewObj([]value.Field{{Key: "ref", Val: value.NewHash(h)}})

	cl := NewChecklist(ir)
	if err := Validate(ir, idx, doc, cl); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	pending := cl.Pending()
	if len(pending) != 1 || !pending[0].Equal(h) {
		t.Fatalf("expected checklist with exactly hash %v pending, got %+v", h, pending)
	}
	if cl.Complete() {
		t.Fatal("checklist should not be complete before CheckItem")
	}

	good := value.NewObj([]value.Field{{Key: "name", Val: value.NewStr("ok")}})
	if err := cl.CheckItem(h, good, nil); err != nil {
		t.Fatalf("CheckItem with good doc: %v", err)
	}
	if !cl.Complete() {
		t.Fatal("checklist should be complete after successful CheckItem")
	}
}

func TestHashLinkChecklistRejectsBadReferencedDoc(t *testing.T) {
	linkTarget := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Obj")},
		{Key: "req", Val: value.NewObj([]value.Field{
			{Key: "name", Val: value.NewObj([]value.Field{{Key: "type", Val: value.NewStr("Str")}})},
		})},
	})
	refField := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Hash")},
		{Key: "link", Val: linkTarget},
	})
	schema := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Obj")},
		{Key: "req", Val: value.NewObj([]value.Field{{Key: "ref", Val: refField}})},
	})
	ir, idx := parseSchema(t, schema)

	h := value.Hash{Version: value.HashVersionBlake2b}
	h.Digest[0] = 0xCD
	doc := value.NewObj([]value.Field{{Key: "ref", Val: value.NewHash(h)}})

	cl := NewChecklist(ir)
	if err := Validate(ir, idx, doc, cl); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := value.NewObj([]value.Field{{Key: "name", Val: value.NewInt(42)}})
	if err := cl.CheckItem(h, bad, nil); err == nil {
		t.Fatal("expected CheckItem to reject a referenced document with wrong field type")
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	v := Validator{Kind: KindInt, In: []value.Value{value.NewInt(1), value.NewInt(2)}, Nin: []value.Value{value.NewInt(2)}}
	ok1 := finalize(&v)
	snapshot := v
	ok2 := finalize(&v)
	if ok1 != ok2 {
		t.Fatalf("finalize not idempotent: %v then %v", ok1, ok2)
	}
	if len(snapshot.In) != len(v.In) {
		t.Fatalf("finalize mutated state on second call: %+v vs %+v", snapshot.In, v.In)
	}
}

func TestFinalizeUnsatisfiableBecomesInvalid(t *testing.T) {
	body := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Int")},
		{Key: "min", Val: value.NewInt(10)},
		{Key: "max", Val: value.NewInt(5)},
	})
	ir, idx := parseSchema(t, body)
	if idx != IndexInvalid {
		t.Fatalf("expected an unsatisfiable min>max Int validator to resolve to Invalid, got %d", idx)
	}
}

func TestRecursiveTypeAlias(t *testing.T) {
	// Resolving the same type name twice goes through the type name table
	// and returns the same index rather than allocating a second slot.
	ir := NewIR()
	nodeBody := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Node")},
	})
	idx, err := Parse(ir, nodeBody, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	idx2, err := Parse(ir, nodeBody, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if idx != idx2 {
		t.Fatalf("expected repeated alias resolution to return the same index: %d vs %d", idx, idx2)
	}
}

func TestMultiAnyOf(t *testing.T) {
	strType := value.NewObj([]value.Field{{Key: "type", Val: value.NewStr("Str")}})
	intType := value.NewObj([]value.Field{{Key: "type", Val: value.NewStr("Int")}})
	multi := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Multi")},
		{Key: "any_of", Val: value.NewArray([]value.Value{strType, intType})},
	})
	ir, idx := parseSchema(t, multi)

	if err := Validate(ir, idx, value.NewStr("x"), NewChecklist(ir)); err != nil {
		t.Fatalf("expected Str alternative to pass: %v", err)
	}
	if err := Validate(ir, idx, value.NewInt(1), NewChecklist(ir)); err != nil {
		t.Fatalf("expected Int alternative to pass: %v", err)
	}
	if err := Validate(ir, idx, value.NewBool(true), NewChecklist(ir)); err == nil {
		t.Fatal("expected Bool to fail against Multi(Str, Int)")
	}
}

func TestArrayUnique(t *testing.T) {
	intType := value.NewObj([]value.Field{{Key: "type", Val: value.NewStr("Int")}})
	schema := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Array")},
		{Key: "items", Val: value.NewArray([]value.Value{intType, intType, intType})},
		{Key: "unique", Val: value.NewBool(true)},
	})
	ir, idx := parseSchema(t, schema)

	unique := value.NewArray([]value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	if err := Validate(ir, idx, unique, NewChecklist(ir)); err != nil {
		t.Fatalf("expected unique array to pass: %v", err)
	}
	dup := value.NewArray([]value.Value{value.NewInt(1), value.NewInt(1), value.NewInt(3)})
	if err := Validate(ir, idx, dup, NewChecklist(ir)); err == nil {
		t.Fatal("expected duplicate-valued array to fail uniqueness")
	}
}

func TestObjectUnknownFieldRejectedByDefault(t *testing.T) {
	schema := value.NewObj([]value.Field{
		{Key: "type", Val: value.NewStr("Obj")},
		{Key: "req", Val: value.NewObj([]value.Field{
			{Key: "n", Val: value.NewObj([]value.Field{{Key: "type", Val: value.NewStr("Int")}})},
		})},
	})
	ir, idx := parseSchema(t, schema)

	withExtra := value.NewObj([]value.Field{
		{Key: "n", Val: value.NewInt(1)},
		{Key: "surprise", Val: value.NewBool(true)},
	})
	if err := Validate(ir, idx, withExtra, NewChecklist(ir)); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestAmbiguousValidatorWithoutTypeIsRejected(t *testing.T) {
	// `{min: 0}` alone is ambiguous between Int/F32/F64/Time.
	ambiguous := value.NewObj([]value.Field{{Key: "min", Val: value.NewInt(0)}})
	ir := NewIR()
	if _, err := Parse(ir, ambiguous, false); err == nil {
		t.Fatal("expected ambiguous validator without `type` to fail to parse")
	}
}
