package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

func at(day int) time.Time { return time.Date(2026, 4, day, 12, 0, 0, 0, time.UTC) }

func ticket(id, title, status string, updated int, attrs map[string]string) *types.Record {
	return &types.Record{
		ID: id, Kind: types.KindTicket, Title: title, Category: status,
		CreatedAt: at(1), UpdatedAt: at(updated), Attrs: attrs,
	}
}

func ids(recs []*types.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func ticketSchema(t *testing.T) types.KindSchema {
	t.Helper()
	sch, ok := types.Schema(types.KindTicket)
	require.True(t, ok)
	return sch
}

func TestApplyEmptyQueryReturnsAllNewestFirst(t *testing.T) {
	recs := []*types.Record{
		ticket("a", "A", "open", 3, nil),
		ticket("b", "B", "closed", 9, nil),
		ticket("c", "C", "open", 5, nil),
	}
	got, err := Apply(ticketSchema(t), Query{Category: types.CategoryAll}, recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(got))
	assert.Equal(t, []string{"a", "b", "c"}, ids(recs), "input untouched")
}

func TestApplyIsStableForTies(t *testing.T) {
	recs := []*types.Record{
		ticket("a", "A", "open", 4, nil),
		ticket("b", "B", "open", 4, nil),
		ticket("c", "C", "open", 4, nil),
	}
	got, err := Apply(ticketSchema(t), Query{}, recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestApplyFilters(t *testing.T) {
	recs := []*types.Record{
		ticket("a", "Printer jam", "open", 3, map[string]string{"customer": "Acme"}),
		ticket("b", "Login broken", "resolved", 4, map[string]string{"customer": "Globex", "notes": "printer"}),
		ticket("c", "ΟΔΟΣ sign", "open", 5, nil),
		{ID: "d", Kind: types.KindTicket, Title: "VPN", Content: "Remote PRINTER queue", Category: "open", UpdatedAt: at(6)},
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"search title case-insensitive", Query{Search: "printer"}, []string{"d", "a"}},
		{"search attr in schema", Query{Search: "acme"}, []string{"a"}},
		{"search second attr", Query{Search: "globex"}, []string{"b"}},
		{"unicode folding", Query{Search: "οδος"}, []string{"c"}},
		{"category", Query{Category: "resolved"}, []string{"b"}},
		{"category and search", Query{Category: "open", Search: "jam"}, []string{"a"}},
		{"no match", Query{Search: "zzz"}, []string{}},
		{"whitespace search ignored", Query{Search: "  "}, []string{"d", "c", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(ticketSchema(t), tt.q, recs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplySortByDate(t *testing.T) {
	sch, _ := types.Schema(types.KindTask)
	recs := []*types.Record{
		{ID: "undated", Kind: types.KindTask, Title: "x", UpdatedAt: at(10)},
		{ID: "early", Kind: types.KindTask, Title: "x", Date: at(2), UpdatedAt: at(20)},
		{ID: "late", Kind: types.KindTask, Title: "x", Date: at(15), UpdatedAt: at(1)},
	}
	got, err := Apply(sch, Query{Sort: types.SortDate}, recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "undated", "early"}, ids(got))

	got, err = Apply(sch, Query{Sort: types.SortUpdated}, recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "undated", "late"}, ids(got))

	_, err = Apply(sch, Query{Sort: "priority"}, recs)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestApplyDefaultSortIsLastModified(t *testing.T) {
	for _, k := range types.Kinds() {
		sch, _ := types.Schema(k)
		recs := []*types.Record{
			{ID: "old-edit", Kind: k, Title: "x", Date: at(20), UpdatedAt: at(1)},
			{ID: "new-edit", Kind: k, Title: "x", Date: at(2), UpdatedAt: at(25)},
		}
		got, err := Apply(sch, Query{Category: types.CategoryAll}, recs)
		require.NoError(t, err)
		assert.Equal(t, []string{"new-edit", "old-edit"}, ids(got), string(k))
	}
}

func TestSummarize(t *testing.T) {
	recs := []*types.Record{
		ticket("a", "A", "open", 1, nil),
		ticket("b", "B", "open", 1, nil),
		ticket("c", "C", "closed", 1, nil),
		ticket("d", "D", "legacy", 1, nil),
		ticket("e", "E", "", 1, nil),
	}
	s := Summarize(ticketSchema(t), recs)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, "status", s.Label)
	assert.Equal(t, []CategoryCount{
		{"open", 2},
		{"in_progress", 0},
		{"waiting", 0},
		{"resolved", 0},
		{"closed", 1},
		{"legacy", 1},
		{"", 1},
	}, s.Counts)
}

func TestSummaryFormat(t *testing.T) {
	s := Summary{
		Kind:   types.KindTicket,
		Label:  "status",
		Total:  1234,
		Counts: []CategoryCount{{"open", 1234}, {"", 0}},
	}
	want := "" +
		"status  count\n" +
		"open    1,234\n" +
		"(none)  0\n" +
		"total   1,234\n"
	assert.Equal(t, want, s.Format(language.English))
}
