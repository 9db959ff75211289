package types

// Table provides CRUD operations for the records of a single kind.
// Returned records are copies; mutating them does not affect the store.
type Table interface {
	// Kind reports which collection this table serves.
	Kind() Kind

	// Get returns the record with the given id, reference arrays hydrated.
	// Returns a *NotFoundError if no record exists with that id.
	Get(id string) (*Record, error)

	// List returns every record of the kind in insertion order.
	List() ([]*Record, error)

	// Save creates the record when rec.ID is empty or names no stored
	// record; otherwise it merges rec into the stored record. Non-zero
	// fields overwrite, attributes merge key by key, and an empty attribute
	// value removes the key. UpdatedAt is always stamped. Reference arrays
	// on rec are ignored. Returns the stored record.
	Save(rec *Record) (*Record, error)

	// Replace overwrites the title, content, category, date and attributes
	// of the stored record named by rec.ID with rec's values, so empty
	// values clear. CreatedAt and references are kept; UpdatedAt is
	// stamped. Returns a *NotFoundError if no record exists with that id.
	Replace(rec *Record) (*Record, error)

	// Delete removes the record and strips its id from every reference
	// array that points at it.
	Delete(id string) error
}

// Linker creates and removes symmetric links between records.
type Linker interface {
	// Link adds to.ID to from's reference array for to.Kind and from.ID to
	// to's reference array for from.Kind. Linking a linked pair is a no-op.
	Link(from, to Ref) error

	// Unlink removes both references. Unlinking an unlinked pair is a no-op.
	Unlink(from, to Ref) error

	// Refs returns ref's reference array for kind k.
	Refs(ref Ref, k Kind) ([]string, error)
}
