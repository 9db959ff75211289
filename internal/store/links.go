package store

import (
	"time"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

var _ types.Linker = (*LinkManager)(nil)

// LinkManager creates and removes links. Both reference arrays of a link
// change together or not at all.
type LinkManager struct {
	store *Store
}

// Link adds the pair to the relation. Linking a linked pair is a no-op and
// does not stamp either record.
func (lm *LinkManager) Link(from, to types.Ref) error {
	if err := checkPair(from, to); err != nil {
		return err
	}
	return lm.store.mutate(func(st *state, now time.Time) ([]string, error) {
		if err := requireBoth(st, from, to); err != nil {
			return nil, err
		}
		if !st.rel.Add(from, to, now) {
			return nil, nil
		}
		st.touch(from, now)
		st.touch(to, now)
		lm.store.logger.Debug("linked", "from", from.String(), "to", to.String())
		return tabsOf(from, to), nil
	})
}

// Unlink removes the pair from the relation. Unlinking an unlinked pair is
// a no-op.
func (lm *LinkManager) Unlink(from, to types.Ref) error {
	if err := checkPair(from, to); err != nil {
		return err
	}
	return lm.store.mutate(func(st *state, now time.Time) ([]string, error) {
		if err := requireBoth(st, from, to); err != nil {
			return nil, err
		}
		if !st.rel.Remove(from, to) {
			return nil, nil
		}
		st.touch(from, now)
		st.touch(to, now)
		lm.store.logger.Debug("unlinked", "from", from.String(), "to", to.String())
		return tabsOf(from, to), nil
	})
}

// Refs returns ref's reference array for kind k.
func (lm *LinkManager) Refs(ref types.Ref, k types.Kind) ([]string, error) {
	if !ref.Kind.Valid() || !k.Valid() {
		return nil, types.ErrUnknownKind
	}
	s := lm.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	if !s.st.exists(ref) {
		return nil, &types.NotFoundError{Kind: ref.Kind, ID: ref.ID}
	}
	return s.st.rel.Neighbors(ref, k), nil
}

// Links returns every link in creation order.
func (lm *LinkManager) Links() ([]types.Link, error) {
	s := lm.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	return s.st.rel.Links(), nil
}

func checkPair(from, to types.Ref) error {
	for _, r := range []types.Ref{from, to} {
		if !r.Kind.Valid() {
			return &types.ValidationError{Field: "kind", Reason: "unknown kind " + string(r.Kind)}
		}
		if r.ID == "" {
			return types.ErrInvalidID
		}
	}
	if from == to {
		return &types.ValidationError{Kind: from.Kind, Field: "link", Reason: "a record cannot link to itself"}
	}
	return nil
}

func requireBoth(st *state, from, to types.Ref) error {
	for _, r := range []types.Ref{from, to} {
		if !st.exists(r) {
			return &types.NotFoundError{Kind: r.Kind, ID: r.ID}
		}
	}
	return nil
}
