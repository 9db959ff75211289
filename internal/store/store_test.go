package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/deskboard/internal/sheet"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// fakeClock advances one minute on every call.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

// flakySheet wraps a Memory sheet and fails writes to one tab while failTab
// is set.
type flakySheet struct {
	*sheet.Memory
	mu      sync.Mutex
	failTab string
	writes  []string
}

var errDiskFull = errors.New("disk full")

func (f *flakySheet) Write(ctx context.Context, tab string, g sheet.Grid) error {
	f.mu.Lock()
	fail := f.failTab == tab
	f.writes = append(f.writes, tab)
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.Memory.Write(ctx, tab, g)
}

func (f *flakySheet) setFail(tab string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failTab = tab
}

func openStore(t *testing.T, sh sheet.Sheet, opts ...Option) *Store {
	t.Helper()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	s, err := Open(context.Background(), sh, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func tableOf(t *testing.T, s *Store, k types.Kind) types.Table {
	t.Helper()
	tbl, err := s.Table(k)
	require.NoError(t, err)
	return tbl
}

// seed creates one record per (kind, id) pair with a valid title and date.
func seed(t *testing.T, s *Store, refs ...types.Ref) {
	t.Helper()
	for _, r := range refs {
		rec := &types.Record{ID: r.ID, Title: "record " + r.ID}
		if r.Kind == types.KindMeeting {
			rec.Date = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		}
		_, err := tableOf(t, s, r.Kind).Save(rec)
		require.NoError(t, err)
	}
}

func refIDs(t *testing.T, s *Store, ref types.Ref, k types.Kind) []string {
	t.Helper()
	ids, err := s.Links().Refs(ref, k)
	require.NoError(t, err)
	return ids
}

func allLinks(t *testing.T, s *Store) []types.Link {
	t.Helper()
	links, err := s.Links().Links()
	require.NoError(t, err)
	return links
}

var (
	m1 = types.R(types.KindMeeting, "m1")
	t1 = types.R(types.KindTicket, "t1")
	t2 = types.R(types.KindTicket, "t2")
	p1 = types.R(types.KindProject, "p1")
)

func TestLinkMeetingTicketExample(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1, t1)

	require.NoError(t, s.Links().Link(m1, t1))
	assert.Equal(t, []string{"t1"}, refIDs(t, s, m1, types.KindTicket))
	assert.Equal(t, []string{"m1"}, refIDs(t, s, t1, types.KindMeeting))

	meeting, err := tableOf(t, s, types.KindMeeting).Get("m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, meeting.RefIDs(types.KindTicket))

	require.NoError(t, s.Links().Unlink(m1, t1))
	assert.Empty(t, refIDs(t, s, m1, types.KindTicket))
	assert.Empty(t, refIDs(t, s, t1, types.KindMeeting))
}

func TestLinkIsIdempotent(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1, t1)

	require.NoError(t, s.Links().Link(m1, t1))
	before, err := tableOf(t, s, types.KindMeeting).Get("m1")
	require.NoError(t, err)

	require.NoError(t, s.Links().Link(m1, t1))
	require.NoError(t, s.Links().Link(t1, m1))

	after, err := tableOf(t, s, types.KindMeeting).Get("m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, after.RefIDs(types.KindTicket))
	assert.Equal(t, []string{"m1"}, refIDs(t, s, t1, types.KindMeeting))
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "no-op link must not stamp")
}

func TestLinkUnlinkRoundTrip(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1, t1, t2, p1)
	require.NoError(t, s.Links().Link(m1, t2))
	require.NoError(t, s.Links().Link(t1, p1))

	beforeM := refIDs(t, s, m1, types.KindTicket)
	beforeT := refIDs(t, s, t1, types.KindMeeting)

	require.NoError(t, s.Links().Link(m1, t1))
	require.NoError(t, s.Links().Unlink(m1, t1))

	assert.Equal(t, beforeM, refIDs(t, s, m1, types.KindTicket))
	assert.Equal(t, beforeT, refIDs(t, s, t1, types.KindMeeting))
	assert.Equal(t, []string{"p1"}, refIDs(t, s, t1, types.KindProject))
}

func TestUnlinkUnlinkedPairIsNoop(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1, t1)
	before, err := tableOf(t, s, types.KindTicket).Get("t1")
	require.NoError(t, err)

	require.NoError(t, s.Links().Unlink(m1, t1))

	after, err := tableOf(t, s, types.KindTicket).Get("t1")
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Empty(t, s.Dirty())
}

func TestLinkMissingEntityFailsWithoutMutation(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1)

	err := s.Links().Link(m1, t1)
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, t1.Kind, nf.Kind)
	assert.Equal(t, "t1", nf.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.Empty(t, refIDs(t, s, m1, types.KindTicket))
	assert.Empty(t, allLinks(t, s))

	err = s.Links().Unlink(t1, m1)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLinkRejectsSelfAndUnknownKind(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, t1)

	err := s.Links().Link(t1, t1)
	assert.ErrorIs(t, err, types.ErrValidation)

	err = s.Links().Link(t1, types.R("invoice", "i1"))
	assert.ErrorIs(t, err, types.ErrValidation)

	err = s.Links().Link(t1, types.R(types.KindMeeting, ""))
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestLinkStampsBothRecords(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1, t1)
	m, _ := tableOf(t, s, types.KindMeeting).Get("m1")
	tk, _ := tableOf(t, s, types.KindTicket).Get("t1")

	require.NoError(t, s.Links().Link(m1, t1))

	m2, _ := tableOf(t, s, types.KindMeeting).Get("m1")
	tk2, _ := tableOf(t, s, types.KindTicket).Get("t1")
	assert.True(t, m2.UpdatedAt.After(m.UpdatedAt))
	assert.True(t, tk2.UpdatedAt.After(tk.UpdatedAt))
	assert.Equal(t, m.CreatedAt, m2.CreatedAt)
}

func TestDeleteCascadesReferences(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1, t1, t2, p1)
	require.NoError(t, s.Links().Link(m1, t1))
	require.NoError(t, s.Links().Link(m1, t2))
	require.NoError(t, s.Links().Link(p1, t1))

	require.NoError(t, tableOf(t, s, types.KindTicket).Delete("t1"))

	_, err := tableOf(t, s, types.KindTicket).Get("t1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, []string{"t2"}, refIDs(t, s, m1, types.KindTicket))
	assert.Empty(t, refIDs(t, s, p1, types.KindTicket))

	// No record anywhere still points at t1.
	for _, k := range types.Kinds() {
		recs, err := tableOf(t, s, k).List()
		require.NoError(t, err)
		for _, r := range recs {
			assert.NotContains(t, r.RefIDs(types.KindTicket), "t1", "%s/%s", k, r.ID)
		}
	}
	for _, l := range allLinks(t, s) {
		assert.NotEqual(t, t1, l.From)
		assert.NotEqual(t, t1, l.To)
	}
}

func TestDeleteMissing(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	err := tableOf(t, s, types.KindTicket).Delete("nope")
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = tableOf(t, s, types.KindTicket).Delete("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestSaveCreatesWithDefaults(t *testing.T) {
	n := 0
	s := openStore(t, sheet.NewMemory(), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}))

	got, err := tableOf(t, s, types.KindTicket).Save(&types.Record{
		Title: "Printer jam",
		Attrs: map[string]string{"customer": "Acme", "empty": ""},
		Refs:  map[types.Kind][]string{types.KindMeeting: {"m9"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", got.ID)
	assert.Equal(t, types.KindTicket, got.Kind)
	assert.Equal(t, "open", got.Category, "default status applied")
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Equal(t, map[string]string{"customer": "Acme"}, got.Attrs)
	assert.Empty(t, got.RefIDs(types.KindMeeting), "refs on input are ignored")
}

func TestSaveMergesAndStamps(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	tickets := tableOf(t, s, types.KindTicket)
	created, err := tickets.Save(&types.Record{
		ID:      "t1",
		Title:   "Printer jam",
		Content: "Tray 2",
		Attrs:   map[string]string{"customer": "Acme", "priority": "low"},
	})
	require.NoError(t, err)

	updated, err := tickets.Save(&types.Record{
		ID:       "t1",
		Category: "resolved",
		Attrs:    map[string]string{"priority": "high", "customer": ""},
	})
	require.NoError(t, err)

	assert.Equal(t, "Printer jam", updated.Title, "zero fields keep their value")
	assert.Equal(t, "Tray 2", updated.Content)
	assert.Equal(t, "resolved", updated.Category)
	assert.Equal(t, map[string]string{"priority": "high"}, updated.Attrs)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	recs, err := tickets.List()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSaveValidationLeavesStoreUnchanged(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	tickets := tableOf(t, s, types.KindTicket)

	_, err := tickets.Save(&types.Record{Title: ""})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = tickets.Save(&types.Record{ID: "t1", Title: "ok"})
	require.NoError(t, err)
	_, err = tickets.Save(&types.Record{ID: "t1", Category: "archived"})
	assert.ErrorIs(t, err, types.ErrValidation)

	got, err := tickets.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "open", got.Category)

	_, err = tableOf(t, s, types.KindMeeting).Save(&types.Record{Title: "Sync"})
	assert.ErrorIs(t, err, types.ErrValidation, "meetings require a date")

	_, err = tickets.Save(&types.Record{Kind: types.KindProject, Title: "wrong table"})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = tickets.Save(nil)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestReplaceOverwritesEditableFields(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, m1, t1)
	require.NoError(t, s.Links().Link(m1, t1))
	tickets := tableOf(t, s, types.KindTicket)
	_, err := tickets.Save(&types.Record{ID: "t1", Content: "secret", Attrs: map[string]string{"customer": "Acme"}})
	require.NoError(t, err)

	cur, err := tickets.Get("t1")
	require.NoError(t, err)
	cur.Content = ""
	cur.Attrs = map[string]string{"priority": "high"}
	got, err := tickets.Replace(cur)
	require.NoError(t, err)

	assert.Empty(t, got.Content)
	assert.Equal(t, map[string]string{"priority": "high"}, got.Attrs)
	assert.Equal(t, cur.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(cur.UpdatedAt))
	assert.Equal(t, []string{"m1"}, got.RefIDs(types.KindMeeting), "references kept")

	stored, err := tickets.Get("t1")
	require.NoError(t, err)
	assert.Empty(t, stored.Content)

	_, err = tickets.Replace(&types.Record{ID: "nope", Title: "x"})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = tickets.Replace(&types.Record{Title: "x"})
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = tickets.Replace(&types.Record{ID: "t1"})
	assert.ErrorIs(t, err, types.ErrValidation, "title is required")
}

func TestGetReturnsCopies(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	seed(t, s, t1)
	tickets := tableOf(t, s, types.KindTicket)

	got, err := tickets.Get("t1")
	require.NoError(t, err)
	got.Title = "mutated"
	got.SetAttr("x", "y")

	again, err := tickets.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "record t1", again.Title)
	assert.Empty(t, again.Attrs)
}

func TestUnknownKindTable(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	_, err := s.Table("invoice")
	assert.ErrorIs(t, err, types.ErrUnknownKind)
}

func TestPersistAndReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	csvSheet, err := sheet.NewCSV(dir)
	require.NoError(t, err)
	s, err := Open(ctx, csvSheet, WithClock(newFakeClock().Now))
	require.NoError(t, err)

	seed(t, s, m1, t1, t2, p1)
	_, err = tableOf(t, s, types.KindTicket).Save(&types.Record{
		ID:      "t1",
		Content: "multi\nline, \"quoted\"",
		Attrs:   map[string]string{"customer": "Acme"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Links().Link(m1, t2))
	require.NoError(t, s.Links().Link(m1, t1))
	require.NoError(t, s.Links().Link(p1, m1))

	wantTickets, err := tableOf(t, s, types.KindTicket).List()
	require.NoError(t, err)
	wantMeeting, err := tableOf(t, s, types.KindMeeting).Get("m1")
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	reopened, err := sheet.NewCSV(dir)
	require.NoError(t, err)
	s2 := openStore(t, reopened)

	gotTickets, err := tableOf(t, s2, types.KindTicket).List()
	require.NoError(t, err)
	assert.Equal(t, wantTickets, gotTickets)

	gotMeeting, err := tableOf(t, s2, types.KindMeeting).Get("m1")
	require.NoError(t, err)
	assert.Equal(t, wantMeeting, gotMeeting)
	assert.Equal(t, []string{"t2", "t1"}, gotMeeting.RefIDs(types.KindTicket), "link order survives reload")
	assert.Empty(t, s2.Dirty())
}

func TestImmediateFlushFailureRollsBack(t *testing.T) {
	fs := &flakySheet{Memory: sheet.NewMemory()}
	s := openStore(t, fs)
	seed(t, s, m1, t1)
	before, err := tableOf(t, s, types.KindMeeting).Get("m1")
	require.NoError(t, err)

	fs.setFail(LinksTab)
	err = s.Links().Link(m1, t1)
	var perr *types.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, LinksTab, perr.Tab)
	assert.ErrorIs(t, err, errDiskFull)
	assert.ErrorIs(t, err, types.ErrPersistence)

	// Neither side was linked and the stamp was undone.
	assert.Empty(t, refIDs(t, s, m1, types.KindTicket))
	assert.Empty(t, refIDs(t, s, t1, types.KindMeeting))
	after, err := tableOf(t, s, types.KindMeeting).Get("m1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The entity tabs were already written with the stamped records; they
	// stay dirty until the next successful flush rewrites them.
	assert.ElementsMatch(t, []string{"tickets", "meetings", LinksTab}, s.Dirty())

	fs.setFail("")
	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, s.Dirty())

	g, err := fs.Read(context.Background(), "meetings")
	require.NoError(t, err)
	recs, _ := decodeRecords(types.KindMeeting, g, s.logger)
	require.Len(t, recs, 1)
	assert.Equal(t, before.UpdatedAt, recs[0].UpdatedAt, "sheet matches memory again")
}

func TestSaveFailureRollsBack(t *testing.T) {
	fs := &flakySheet{Memory: sheet.NewMemory()}
	s := openStore(t, fs)
	fs.setFail("tickets")

	_, err := tableOf(t, s, types.KindTicket).Save(&types.Record{ID: "t1", Title: "x"})
	assert.ErrorIs(t, err, types.ErrPersistence)

	_, err = tableOf(t, s, types.KindTicket).Get("t1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestOnCloseDefersWrites(t *testing.T) {
	fs := &flakySheet{Memory: sheet.NewMemory()}
	s := openStore(t, fs, WithSyncStrategy(types.SyncOnClose))
	seed(t, s, m1, t1)
	require.NoError(t, s.Links().Link(m1, t1))

	assert.Empty(t, fs.writes, "nothing written before flush")
	assert.Equal(t, []string{"tickets", "meetings", LinksTab}, s.Dirty())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []string{"tickets", "meetings", LinksTab}, fs.writes)
	assert.Empty(t, s.Dirty())
}

func TestCloseFlushFailureKeepsStoreOpen(t *testing.T) {
	ctx := context.Background()
	fs := &flakySheet{Memory: sheet.NewMemory()}
	s, err := Open(ctx, fs, WithSyncStrategy(types.SyncOnClose))
	require.NoError(t, err)
	seed(t, s, t1)

	fs.setFail("tickets")
	assert.ErrorIs(t, s.Close(ctx), types.ErrPersistence)

	_, err = tableOf(t, s, types.KindTicket).Get("t1")
	require.NoError(t, err, "store still usable after failed close")

	fs.setFail("")
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx), "close is idempotent")

	_, err = tableOf(t, s, types.KindTicket).Get("t1")
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	assert.ErrorIs(t, s.Links().Link(t1, m1), types.ErrStoreClosed)
	_, err = s.Links().Links()
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func TestLoadCSVWithByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tickets.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffid,title,category\nt1,Printer,open\n"), 0o644))

	csvSheet, err := sheet.NewCSV(dir)
	require.NoError(t, err)
	s := openStore(t, csvSheet)

	recs, err := tableOf(t, s, types.KindTicket).List()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "t1", recs[0].ID)
	assert.Equal(t, "Printer", recs[0].Title)
}

func TestLoadRefusesTabWithoutIDColumn(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "tickets.csv")
	original := []byte("ticket,title\nt1,Printer\n")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	csvSheet, err := sheet.NewCSV(dir)
	require.NoError(t, err)
	_, err = Open(ctx, csvSheet)
	assert.ErrorIs(t, err, types.ErrPersistence)
	var pe *types.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "tickets", pe.Tab)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got, "user data left untouched")
}

func TestLoadAcceptsHeaderOnlyTabWithoutIDColumn(t *testing.T) {
	ctx := context.Background()
	mem := sheet.NewMemory()
	require.NoError(t, mem.Write(ctx, "tickets", sheet.Grid{Header: []string{"name"}}))
	openStore(t, mem)
}

func TestOpenRejectsUnknownSyncStrategy(t *testing.T) {
	_, err := Open(context.Background(), sheet.NewMemory(), WithSyncStrategy("batch"))
	assert.ErrorIs(t, err, types.ErrSyncStrategyUnknown)
}

func TestLoadFoldsLegacyReferenceColumns(t *testing.T) {
	ctx := context.Background()
	mem := sheet.NewMemory()
	require.NoError(t, mem.Write(ctx, "meetings", sheet.Grid{
		Header: []string{"id", "title", "date", "ticketIds", "featureIds"},
		Rows: [][]string{
			{"m1", "Kickoff", "2026-02-01", "t1, t2", "f-missing"},
		},
	}))
	require.NoError(t, mem.Write(ctx, "tickets", sheet.Grid{
		Header: []string{"id", "title", "meetingIds"},
		Rows: [][]string{
			{"t1", "One", "m1"},
			{"t2", "Two", ""},
		},
	}))

	s := openStore(t, mem)
	assert.Equal(t, []string{"t1", "t2"}, refIDs(t, s, m1, types.KindTicket))
	assert.Equal(t, []string{"m1"}, refIDs(t, s, t1, types.KindMeeting))
	assert.Empty(t, refIDs(t, s, m1, types.KindFeature), "dangling reference dropped")
	assert.Len(t, allLinks(t, s), 2, "both directions fold into one link")

	m, err := tableOf(t, s, types.KindMeeting).Get("m1")
	require.NoError(t, err)
	assert.Empty(t, m.Attrs, "reference columns are not attributes")
	assert.Contains(t, s.Dirty(), LinksTab)
	assert.Contains(t, s.Dirty(), "meetings")

	require.NoError(t, s.Flush(ctx))
	g, err := mem.Read(ctx, "meetings")
	require.NoError(t, err)
	assert.NotContains(t, g.Header, "ticketIds")
}

func TestLoadDropsDanglingLinkRows(t *testing.T) {
	ctx := context.Background()
	mem := sheet.NewMemory()
	require.NoError(t, mem.Write(ctx, "tickets", sheet.Grid{
		Header: []string{"id", "title"},
		Rows:   [][]string{{"t1", "One"}, {"", "no id"}, {"t1", "dup"}},
	}))
	require.NoError(t, mem.Write(ctx, LinksTab, sheet.Grid{
		Header: linkColumns,
		Rows: [][]string{
			{"ticket", "t1", "meeting", "m404", ""},
			{"bogus", "x", "ticket", "t1", ""},
		},
	}))

	s := openStore(t, mem)
	recs, err := tableOf(t, s, types.KindTicket).List()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "One", recs[0].Title)
	assert.Empty(t, allLinks(t, s))
	assert.Equal(t, []string{LinksTab}, s.Dirty())
}

func TestLinksAcrossAllKinds(t *testing.T) {
	s := openStore(t, sheet.NewMemory())
	var refs []types.Ref
	for _, k := range types.Kinds() {
		refs = append(refs, types.R(k, string(k)+"-1"))
	}
	seed(t, s, refs...)

	for i := range refs {
		for j := i + 1; j < len(refs); j++ {
			require.NoError(t, s.Links().Link(refs[i], refs[j]))
		}
	}
	// Symmetry holds for every pair.
	for _, a := range refs {
		for _, b := range refs {
			if a == b {
				continue
			}
			assert.Contains(t, refIDs(t, s, a, b.Kind), b.ID)
			assert.Contains(t, refIDs(t, s, b, a.Kind), a.ID)
		}
	}

	feature := types.R(types.KindFeature, "feature-1")
	require.NoError(t, tableOf(t, s, types.KindFeature).Delete(feature.ID))
	for _, r := range refs {
		assert.NotContains(t, refIDs(t, s, r, types.KindFeature), feature.ID)
	}
}

func TestRewriteWritesEveryTab(t *testing.T) {
	mem := sheet.NewMemory()
	s := openStore(t, mem)
	require.NoError(t, s.Rewrite(context.Background()))

	want := []string{LinksTab}
	for _, k := range types.Kinds() {
		sch, _ := types.Schema(k)
		want = append(want, sch.Tab)
	}
	assert.ElementsMatch(t, want, mem.Tabs())

	g, err := mem.Read(context.Background(), "dealerships")
	require.NoError(t, err)
	assert.Equal(t, entityColumns, g.Header)
	assert.Empty(t, g.Rows)
}
