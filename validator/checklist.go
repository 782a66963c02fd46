package validator

import "github.com/fogpack/fogpack/value"

// checklistEntry tracks the validator indices a referenced document must
// satisfy and whether every one of them has been confirmed.
type checklistEntry struct {
	Indices []int
	Schemas []value.Hash
	Done    bool
}

// Checklist accumulates deferred cross-document validations discovered
// while validating a value against an IR: every Hash validator carrying
// a link or schema constraint enqueues here instead of being checked
// inline, since the referenced document is not available during the
// primary validate call.
type Checklist struct {
	ir    *IR
	items map[value.Hash]*checklistEntry
}

// NewChecklist returns an empty checklist bound to ir, the table whose
// indices CheckItem will look up when confirming a referenced document.
func NewChecklist(ir *IR) *Checklist {
	return &Checklist{ir: ir, items: make(map[value.Hash]*checklistEntry)}
}

func (c *Checklist) add(h value.Hash, index int) {
	e, ok := c.items[h]
	if !ok {
		e = &checklistEntry{}
		c.items[h] = e
	}
	for _, existing := range e.Indices {
		if existing == index {
			return
		}
	}
	e.Indices = append(e.Indices, index)
}

func (c *Checklist) addSchemas(h value.Hash, schemas []value.Hash) {
	if len(schemas) == 0 {
		return
	}
	e, ok := c.items[h]
	if !ok {
		e = &checklistEntry{}
		c.items[h] = e
	}
	e.Schemas = append(e.Schemas, schemas...)
}

// RequiredSchemas returns the set of schema hashes at least one of
// which the document referenced by h must declare, as collected from
// every Hash validator's schema field that pointed at h. An empty
// result means no schema constraint was registered for h.
func (c *Checklist) RequiredSchemas(h value.Hash) []value.Hash {
	e, ok := c.items[h]
	if !ok {
		return nil
	}
	return e.Schemas
}

// Merge folds another checklist's entries into c, used when a Multi
// validator's passing branch carries its own deferred references.
func (c *Checklist) Merge(other *Checklist) {
	if other == nil {
		return
	}
	for h, e := range other.items {
		for _, idx := range e.Indices {
			c.add(h, idx)
		}
		c.addSchemas(h, e.Schemas)
	}
}

// Pending returns the hashes with at least one unconfirmed validator.
func (c *Checklist) Pending() []value.Hash {
	var out []value.Hash
	for h, e := range c.items {
		if !e.Done {
			out = append(out, h)
		}
	}
	return out
}

// Len reports the number of distinct hash entries in the checklist.
func (c *Checklist) Len() int { return len(c.items) }

// CheckItem validates doc — the document referenced by h, with declared
// schema hash declaredSchema (nil if the document has no schema) —
// against every validator index and schema constraint queued for h,
// marking the entry done only if all of them pass.
func (c *Checklist) CheckItem(h value.Hash, doc value.Value, declaredSchema *value.Hash) error {
	e, ok := c.items[h]
	if !ok {
		return nil
	}
	if len(e.Schemas) > 0 {
		matched := false
		if declaredSchema != nil {
			for _, s := range e.Schemas {
				if s.Equal(*declaredSchema) {
					matched = true
					break
				}
			}
		}
		if !matched {
			return fail("referenced document does not declare an accepted schema")
		}
	}
	for _, idx := range e.Indices {
		if err := Validate(c.ir, idx, doc, NewChecklist(c.ir)); err != nil {
			return err
		}
	}
	e.Done = true
	return nil
}

// Complete reports whether every queued entry has been confirmed via
// CheckItem. A checklist with pending entries can never back a
// successfully validated Entry.
func (c *Checklist) Complete() bool {
	for _, e := range c.items {
		if !e.Done {
			return false
		}
	}
	return true
}
