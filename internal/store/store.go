// Package store implements the deskboard entity store: one collection per
// entity kind, a symmetric link relation between records, and persistence
// of both to a backing sheet.
//
// Every mutation is applied to a copy of the in-memory state. The copy is
// installed only when the mutation succeeds and, under the immediate sync
// strategy, only when the affected tabs were written to the sheet. A failed
// write leaves memory exactly as it was before the call.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/deskboard/internal/sheet"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// DefaultSaveTimeout bounds a single flush to the sheet.
const DefaultSaveTimeout = 30 * time.Second

// Store holds every collection and the link relation.
type Store struct {
	mu     sync.RWMutex
	closed bool
	st     *state
	dirty  map[string]bool
	sheet  sheet.Sheet

	// saveMu keeps at most one write to the sheet outstanding.
	saveMu sync.Mutex

	syncStrategy string
	saveTimeout  time.Duration
	now          func() time.Time
	newID        func() string
	logger       *slog.Logger

	tables map[types.Kind]*table
	links  *LinkManager
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces UUID v7 generation for new records.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithSyncStrategy selects types.SyncImmediate (default) or
// types.SyncOnClose.
func WithSyncStrategy(strategy string) Option {
	return func(s *Store) { s.syncStrategy = strategy }
}

// WithSaveTimeout bounds each flush triggered by a mutation.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) { s.saveTimeout = d }
}

// Open loads every tab from sh and returns a ready store. The store owns sh
// and closes it in Close.
func Open(ctx context.Context, sh sheet.Sheet, opts ...Option) (*Store, error) {
	s := &Store{
		st:           newState(),
		dirty:        make(map[string]bool),
		sheet:        sh,
		syncStrategy: types.SyncImmediate,
		saveTimeout:  DefaultSaveTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        newUUID,
		logger:       slog.New(slog.DiscardHandler),
		tables:       make(map[types.Kind]*table),
	}
	for _, opt := range opts {
		opt(s)
	}
	switch s.syncStrategy {
	case types.SyncImmediate, types.SyncOnClose:
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrSyncStrategyUnknown, s.syncStrategy)
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	for _, k := range types.Kinds() {
		s.tables[k] = &table{kind: k, store: s}
	}
	s.links = &LinkManager{store: s}
	return s, nil
}

// newUUID generates a UUID v7, falling back to v4 if v7 generation fails.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// load reads every entity tab and the links tab into a fresh state.
func (s *Store) load(ctx context.Context) error {
	st := newState()
	var legacy []legacyRef
	for _, k := range types.Kinds() {
		sch, _ := types.Schema(k)
		g, err := s.sheet.Read(ctx, sch.Tab)
		if err != nil {
			return &types.PersistenceError{Op: "read", Tab: sch.Tab, Err: err}
		}
		if err := requireColumns(g, colID); err != nil {
			return &types.PersistenceError{Op: "read", Tab: sch.Tab, Err: err}
		}
		recs, refs := decodeRecords(k, g, s.logger)
		for _, r := range recs {
			st.put(r)
		}
		legacy = append(legacy, refs...)
	}

	g, err := s.sheet.Read(ctx, LinksTab)
	if err != nil {
		return &types.PersistenceError{Op: "read", Tab: LinksTab, Err: err}
	}
	if err := requireColumns(g, "from_kind", "from_id", "to_kind", "to_id"); err != nil {
		return &types.PersistenceError{Op: "read", Tab: LinksTab, Err: err}
	}
	for _, l := range decodeLinks(g, s.logger) {
		if !st.exists(l.From) || !st.exists(l.To) {
			s.logger.Warn("dropping dangling link", "from", l.From.String(), "to", l.To.String())
			s.dirty[LinksTab] = true
			continue
		}
		st.rel.Add(l.From, l.To, l.CreatedAt)
	}

	for _, ref := range legacy {
		if !st.exists(ref.to) {
			s.logger.Warn("dropping dangling reference", "from", ref.from.String(), "to", ref.to.String())
			continue
		}
		st.rel.Add(ref.from, ref.to, s.now())
	}
	if len(legacy) > 0 {
		// Rewrite every tab so the reference columns move into the links tab.
		for _, k := range types.Kinds() {
			sch, _ := types.Schema(k)
			s.dirty[sch.Tab] = true
		}
		s.dirty[LinksTab] = true
	}

	s.st = st
	s.logger.Info("store loaded", "links", st.rel.Len(), "dirty_tabs", len(s.dirty))
	return nil
}

// Table returns the accessor for kind k.
func (s *Store) Table(k types.Kind) (types.Table, error) {
	t, ok := s.tables[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownKind, k)
	}
	return t, nil
}

// Links returns the link manager.
func (s *Store) Links() *LinkManager { return s.links }

// Dirty returns the tabs with changes not yet written to the sheet.
func (s *Store) Dirty() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirtyTabsLocked()
}

// Flush writes every dirty tab to the sheet.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	return s.flushLocked(ctx)
}

// Rewrite marks every tab dirty and flushes, so the sheet holds every tab
// in canonical column order. Empty kinds get a header-only tab.
func (s *Store) Rewrite(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	for _, k := range types.Kinds() {
		sch, _ := types.Schema(k)
		s.dirty[sch.Tab] = true
	}
	s.dirty[LinksTab] = true
	return s.flushLocked(ctx)
}

// Close flushes pending changes and closes the sheet. Close is idempotent.
// If the flush fails the store stays open so the caller can retry.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.flushLocked(ctx); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if err := s.sheet.Close(); err != nil {
		return &types.PersistenceError{Op: "close", Err: err}
	}
	s.closed = true
	s.logger.Info("store closed")
	return nil
}

// mutate runs fn against a copy of the state. fn returns the tabs it
// changed; an empty list means nothing changed. The copy replaces the live
// state on success. Under the immediate strategy the changed tabs are then
// flushed, and a flush failure restores the previous state.
func (s *Store) mutate(fn func(st *state, now time.Time) ([]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}

	next := s.st.clone()
	tabs, err := fn(next, s.now())
	if err != nil {
		return err
	}
	if len(tabs) == 0 {
		return nil
	}

	prev := s.st
	s.st = next
	for _, tab := range tabs {
		s.dirty[tab] = true
	}
	if s.syncStrategy == types.SyncOnClose {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.flushLocked(ctx); err != nil {
		// Tabs written before the failure now disagree with prev; they stay
		// dirty so the next flush rewrites them.
		s.st = prev
		for _, tab := range tabs {
			s.dirty[tab] = true
		}
		s.logger.Warn("mutation rolled back", "tabs", tabs, "error", err)
		return err
	}
	return nil
}

// flushLocked writes dirty tabs in a fixed order, entity tabs first. The
// caller must hold s.mu.
func (s *Store) flushLocked(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	for _, tab := range s.dirtyTabsLocked() {
		g, err := s.encodeTab(tab)
		if err != nil {
			return err
		}
		if err := s.sheet.Write(ctx, tab, g); err != nil {
			return &types.PersistenceError{Op: "write", Tab: tab, Err: err}
		}
		delete(s.dirty, tab)
		s.logger.Debug("tab written", "tab", tab, "rows", len(g.Rows))
	}
	return nil
}

func (s *Store) dirtyTabsLocked() []string {
	order := make([]string, 0, len(s.dirty))
	for _, k := range types.Kinds() {
		sch, _ := types.Schema(k)
		if s.dirty[sch.Tab] {
			order = append(order, sch.Tab)
		}
	}
	if s.dirty[LinksTab] {
		order = append(order, LinksTab)
	}
	return slices.Clip(order)
}

func (s *Store) encodeTab(tab string) (sheet.Grid, error) {
	if tab == LinksTab {
		return encodeLinks(s.st.rel), nil
	}
	for _, k := range types.Kinds() {
		sch, _ := types.Schema(k)
		if sch.Tab == tab {
			col := s.st.cols[k]
			recs := make([]*types.Record, 0, len(col.order))
			for _, id := range col.order {
				recs = append(recs, col.byID[id])
			}
			return encodeRecords(recs), nil
		}
	}
	return sheet.Grid{}, fmt.Errorf("no kind for tab %q", tab)
}

// tabsOf returns the entity tabs of the given refs plus the links tab.
func tabsOf(refs ...types.Ref) []string {
	var tabs []string
	for _, r := range refs {
		sch, _ := types.Schema(r.Kind)
		if !slices.Contains(tabs, sch.Tab) {
			tabs = append(tabs, sch.Tab)
		}
	}
	return append(tabs, LinksTab)
}
