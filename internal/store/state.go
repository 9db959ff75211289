package store

import (
	"slices"
	"time"

	"github.com/mesh-intelligence/deskboard/internal/graph"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// collection holds the records of one kind. Records are never mutated in
// place once stored: updates replace the pointer, so a shallow copy of the
// collection is an independent snapshot.
type collection struct {
	order []string
	byID  map[string]*types.Record
}

// state is everything the store holds in memory.
type state struct {
	cols map[types.Kind]*collection
	rel  *graph.Relation
}

func newState() *state {
	st := &state{
		cols: make(map[types.Kind]*collection),
		rel:  graph.New(),
	}
	for _, k := range types.Kinds() {
		st.cols[k] = &collection{byID: make(map[string]*types.Record)}
	}
	return st
}

func (st *state) clone() *state {
	c := &state{
		cols: make(map[types.Kind]*collection, len(st.cols)),
		rel:  st.rel.Clone(),
	}
	for k, col := range st.cols {
		byID := make(map[string]*types.Record, len(col.byID))
		for id, r := range col.byID {
			byID[id] = r
		}
		c.cols[k] = &collection{order: slices.Clone(col.order), byID: byID}
	}
	return c
}

func (st *state) get(ref types.Ref) (*types.Record, bool) {
	col := st.cols[ref.Kind]
	if col == nil {
		return nil, false
	}
	r, ok := col.byID[ref.ID]
	return r, ok
}

func (st *state) exists(ref types.Ref) bool {
	_, ok := st.get(ref)
	return ok
}

// put stores r, appending it to the kind's order when new.
func (st *state) put(r *types.Record) {
	col := st.cols[r.Kind]
	if _, ok := col.byID[r.ID]; !ok {
		col.order = append(col.order, r.ID)
	}
	col.byID[r.ID] = r
}

func (st *state) remove(ref types.Ref) {
	col := st.cols[ref.Kind]
	delete(col.byID, ref.ID)
	col.order = slices.DeleteFunc(col.order, func(id string) bool { return id == ref.ID })
}

// touch replaces the stored record with a copy whose UpdatedAt is now.
func (st *state) touch(ref types.Ref, now time.Time) {
	r, ok := st.get(ref)
	if !ok {
		return
	}
	c := r.Clone()
	c.UpdatedAt = now
	st.put(c)
}

// hydrate returns a copy of r with its reference arrays filled in from the
// link relation.
func (st *state) hydrate(r *types.Record) *types.Record {
	c := r.Clone()
	c.Refs = st.rel.RefsOf(r.Ref())
	return c
}

// list returns hydrated copies of every record of kind k in insertion order.
func (st *state) list(k types.Kind) []*types.Record {
	col := st.cols[k]
	out := make([]*types.Record, 0, len(col.order))
	for _, id := range col.order {
		out = append(out, st.hydrate(col.byID[id]))
	}
	return out
}
