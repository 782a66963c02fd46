package value

import "github.com/fogpack/fogpack/errs"

// Document pairs a body value with an optional schema hash and zero or
// more signers. A nil SchemaHash means the document declares no schema
// and validates against nothing but its own well-formedness.
type Document struct {
	SchemaHash *Hash
	Body       Value
	Signers    []Identity
	Signatures []Signature
}

// NewDocument constructs a Document. If schemaHash is non-nil, body must
// be an Obj whose "" key carries exactly that hash as its first encoded
// field (the container layer relies on this to read the schema hash in
// the clear under Compressed framing without decompressing the rest of
// the body); if schemaHash is nil, body must not carry a "" key at all.
func NewDocument(schemaHash *Hash, body Value) (*Document, error) {
	doc := &Document{SchemaHash: schemaHash, Body: body}
	if err := doc.checkSchemaKey(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate re-checks the structural invariants NewDocument enforces at
// construction time, for documents built by other means (e.g. decoded
// off the wire and mutated).
func (d *Document) Validate() error {
	if err := d.checkSchemaKey(); err != nil {
		return err
	}
	if len(d.Signers) != len(d.Signatures) {
		return errs.NewParseError(errs.ErrBadEncode, 0, "signer count does not match signature count")
	}
	return nil
}

func (d *Document) checkSchemaKey() error {
	schemaVal, hasSchemaKey := Value{}, false
	if d.Body.Kind == KindObj {
		schemaVal, hasSchemaKey = d.Body.Get("")
	}
	if d.SchemaHash == nil {
		if hasSchemaKey {
			return errs.NewParseError(errs.ErrBadEncode, 0, "document with no schema must not carry a \"\" body key")
		}
		return nil
	}
	if !hasSchemaKey {
		return errs.NewParseError(errs.ErrBadEncode, 0, "document with a schema must carry a \"\" body key matching it")
	}
	if schemaVal.Kind != KindHash || !schemaVal.Hash.Equal(*d.SchemaHash) {
		return errs.NewParseError(errs.ErrBadEncode, 0, "document's \"\" body key does not match its schema hash")
	}
	if d.Body.Obj[0].Key != "" {
		return errs.NewParseError(errs.ErrBadEncode, 0, "document's \"\" body key must be encoded first")
	}
	return nil
}

// Entry is a piece of data attached to a parent document under a named
// field, itself optionally signed.
type Entry struct {
	ParentDocHash Hash
	Field         string
	Body          Value
	Signers       []Identity
	Signatures    []Signature
}

// Validate checks Entry's structural invariants.
func (e *Entry) Validate() error {
	if len(e.Signers) != len(e.Signatures) {
		return errs.NewParseError(errs.ErrBadEncode, 0, "signer count does not match signature count")
	}
	return nil
}

// Query selects entries attached to a parent document under a named
// field, constrained by a query body that a validator's query-capable
// fields must admit.
type Query struct {
	ParentDocHash Hash
	Field         string
	Body          Value
	Signers       []Identity
	Signatures    []Signature
}

// Validate checks Query's structural invariants.
func (q *Query) Validate() error {
	if len(q.Signers) != len(q.Signatures) {
		return errs.NewParseError(errs.ErrBadEncode, 0, "signer count does not match signature count")
	}
	return nil
}
