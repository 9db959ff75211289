// Package graph holds the link relation between records: an undirected
// adjacency keyed by (kind, id, kind) that keeps both directions of every
// link in one place so symmetry cannot drift.
package graph

import (
	"slices"
	"time"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// Relation is the set of links between records. Each node's neighbor list
// per kind preserves insertion order. The zero value is not usable; call
// New.
type Relation struct {
	adj   map[types.Ref]map[types.Kind][]string
	edges []types.Link
}

// New returns an empty relation.
func New() *Relation {
	return &Relation{adj: make(map[types.Ref]map[types.Kind][]string)}
}

// Has reports whether a and b are linked.
func (r *Relation) Has(a, b types.Ref) bool {
	return slices.Contains(r.adj[a][b.Kind], b.ID)
}

// Add links a and b in both directions. It returns false without change
// when the pair is already linked or a == b.
func (r *Relation) Add(a, b types.Ref, at time.Time) bool {
	if a == b || r.Has(a, b) {
		return false
	}
	r.push(a, b)
	r.push(b, a)
	r.edges = append(r.edges, types.Link{From: a, To: b, CreatedAt: at})
	return true
}

// Remove unlinks a and b in both directions. It returns false when they
// were not linked.
func (r *Relation) Remove(a, b types.Ref) bool {
	if !r.Has(a, b) {
		return false
	}
	r.drop(a, b)
	r.drop(b, a)
	r.edges = slices.DeleteFunc(r.edges, func(l types.Link) bool {
		return (l.From == a && l.To == b) || (l.From == b && l.To == a)
	})
	return true
}

// Strip removes every link touching n and returns the former neighbors in
// link order.
func (r *Relation) Strip(n types.Ref) []types.Ref {
	var touched []types.Ref
	r.edges = slices.DeleteFunc(r.edges, func(l types.Link) bool {
		switch n {
		case l.From:
			touched = append(touched, l.To)
		case l.To:
			touched = append(touched, l.From)
		default:
			return false
		}
		return true
	})
	for _, m := range touched {
		r.drop(m, n)
	}
	delete(r.adj, n)
	return touched
}

// Neighbors returns a copy of n's reference array for kind k. Never nil.
func (r *Relation) Neighbors(n types.Ref, k types.Kind) []string {
	ids := r.adj[n][k]
	if len(ids) == 0 {
		return []string{}
	}
	return slices.Clone(ids)
}

// RefsOf returns a copy of every non-empty reference array of n.
func (r *Relation) RefsOf(n types.Ref) map[types.Kind][]string {
	out := make(map[types.Kind][]string, len(r.adj[n]))
	for k, ids := range r.adj[n] {
		if len(ids) > 0 {
			out[k] = slices.Clone(ids)
		}
	}
	return out
}

// Links returns every link in creation order.
func (r *Relation) Links() []types.Link {
	return slices.Clone(r.edges)
}

// Len returns the number of links.
func (r *Relation) Len() int { return len(r.edges) }

// Clone returns an independent copy of r.
func (r *Relation) Clone() *Relation {
	c := &Relation{
		adj:   make(map[types.Ref]map[types.Kind][]string, len(r.adj)),
		edges: slices.Clone(r.edges),
	}
	for n, byKind := range r.adj {
		m := make(map[types.Kind][]string, len(byKind))
		for k, ids := range byKind {
			m[k] = slices.Clone(ids)
		}
		c.adj[n] = m
	}
	return c
}

func (r *Relation) push(from, to types.Ref) {
	byKind := r.adj[from]
	if byKind == nil {
		byKind = make(map[types.Kind][]string)
		r.adj[from] = byKind
	}
	byKind[to.Kind] = append(byKind[to.Kind], to.ID)
}

func (r *Relation) drop(from, to types.Ref) {
	byKind := r.adj[from]
	if byKind == nil {
		return
	}
	byKind[to.Kind] = slices.DeleteFunc(byKind[to.Kind], func(id string) bool { return id == to.ID })
	if len(byKind[to.Kind]) == 0 {
		delete(byKind, to.Kind)
	}
	if len(byKind) == 0 {
		delete(r.adj, from)
	}
}
