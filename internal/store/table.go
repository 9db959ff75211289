package store

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

var _ types.Table = (*table)(nil)

// table implements types.Table for a single kind.
type table struct {
	kind  types.Kind
	store *Store
}

func (t *table) Kind() types.Kind { return t.kind }

// Get returns the record with refs hydrated.
func (t *table) Get(id string) (*types.Record, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	r, ok := s.st.get(types.R(t.kind, id))
	if !ok {
		return nil, &types.NotFoundError{Kind: t.kind, ID: id}
	}
	return s.st.hydrate(r), nil
}

// List returns every record of the kind in insertion order.
func (t *table) List() ([]*types.Record, error) {
	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	return s.st.list(t.kind), nil
}

// Save creates or merges rec. See types.Table.
func (t *table) Save(rec *types.Record) (*types.Record, error) {
	if rec == nil {
		return nil, &types.ValidationError{Kind: t.kind, Field: "record", Reason: "must not be nil"}
	}
	if rec.Kind != "" && rec.Kind != t.kind {
		return nil, &types.ValidationError{
			Kind:   t.kind,
			Field:  "kind",
			Reason: fmt.Sprintf("record of kind %s saved to %s table", rec.Kind, t.kind),
		}
	}
	sch, _ := types.Schema(t.kind)

	var saved *types.Record
	err := t.store.mutate(func(st *state, now time.Time) ([]string, error) {
		var next *types.Record
		cur, exists := st.get(types.R(t.kind, rec.ID))
		if rec.ID != "" && exists {
			next = cur.Clone()
			merge(next, rec)
		} else {
			next = rec.Clone()
			next.Kind = t.kind
			next.Refs = nil
			if next.ID == "" {
				next.ID = t.store.newID()
			}
			if next.Category == "" {
				next.Category = sch.DefaultCategory
			}
			next.Attrs = nil
			for k, v := range rec.Attrs {
				next.SetAttr(k, v)
			}
			next.CreatedAt = now
		}
		next.UpdatedAt = now

		if err := next.Validate(); err != nil {
			return nil, err
		}
		st.put(next)
		saved = st.hydrate(next)
		return []string{sch.Tab}, nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Replace overwrites the editable fields of a stored record. See
// types.Table.
func (t *table) Replace(rec *types.Record) (*types.Record, error) {
	if rec == nil {
		return nil, &types.ValidationError{Kind: t.kind, Field: "record", Reason: "must not be nil"}
	}
	if rec.ID == "" {
		return nil, types.ErrInvalidID
	}
	if rec.Kind != "" && rec.Kind != t.kind {
		return nil, &types.ValidationError{
			Kind:   t.kind,
			Field:  "kind",
			Reason: fmt.Sprintf("record of kind %s saved to %s table", rec.Kind, t.kind),
		}
	}
	sch, _ := types.Schema(t.kind)

	var saved *types.Record
	err := t.store.mutate(func(st *state, now time.Time) ([]string, error) {
		cur, ok := st.get(types.R(t.kind, rec.ID))
		if !ok {
			return nil, &types.NotFoundError{Kind: t.kind, ID: rec.ID}
		}
		next := cur.Clone()
		next.Title = rec.Title
		next.Content = rec.Content
		next.Category = rec.Category
		next.Date = rec.Date
		next.Attrs = nil
		for k, v := range rec.Attrs {
			next.SetAttr(k, v)
		}
		next.UpdatedAt = now

		if err := next.Validate(); err != nil {
			return nil, err
		}
		st.put(next)
		saved = st.hydrate(next)
		return []string{sch.Tab}, nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// merge copies the non-zero fields of src onto dst. Attributes merge key by
// key; an empty attribute value removes the key.
func merge(dst, src *types.Record) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Content != "" {
		dst.Content = src.Content
	}
	if src.Category != "" {
		dst.Category = src.Category
	}
	if !src.Date.IsZero() {
		dst.Date = src.Date
	}
	if len(src.Attrs) > 0 {
		for k, v := range src.Attrs {
			dst.SetAttr(k, v)
		}
	}
}

// Delete removes the record and strips its id from every reference array.
// Records that lose a reference get a fresh UpdatedAt.
func (t *table) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	sch, _ := types.Schema(t.kind)
	ref := types.R(t.kind, id)

	return t.store.mutate(func(st *state, now time.Time) ([]string, error) {
		if !st.exists(ref) {
			return nil, &types.NotFoundError{Kind: t.kind, ID: id}
		}
		st.remove(ref)
		touched := st.rel.Strip(ref)
		if len(touched) == 0 {
			return []string{sch.Tab}, nil
		}
		for _, n := range touched {
			st.touch(n, now)
		}
		t.store.logger.Debug("cascade stripped references", "ref", ref.String(), "touched", len(touched))
		return tabsOf(append([]types.Ref{ref}, touched...)...), nil
	})
}
