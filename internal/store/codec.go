package store

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/mesh-intelligence/deskboard/internal/graph"
	"github.com/mesh-intelligence/deskboard/internal/sheet"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// LinksTab is the sheet tab holding the link relation.
const LinksTab = "links"

// Fixed entity columns, in sheet order. Attribute columns follow, sorted.
const (
	colID        = "id"
	colTitle     = "title"
	colContent   = "content"
	colCategory  = "category"
	colDate      = "date"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
)

var errBadHeader = errors.New("unrecognized header")

var entityColumns = []string{colID, colTitle, colContent, colCategory, colDate, colCreatedAt, colUpdatedAt}

// Links tab columns.
var linkColumns = []string{"from_kind", "from_id", "to_kind", "to_id", "created_at"}

// legacyRef is a reference found in a "<kind>Ids" column of an entity tab.
// Sheets maintained by hand carry references this way; they are folded
// into the link relation on load and dropped on the next write.
type legacyRef struct {
	from types.Ref
	to   types.Ref
}

// encodeRecords renders records of one kind as a grid.
func encodeRecords(recs []*types.Record) sheet.Grid {
	attrSet := map[string]bool{}
	for _, r := range recs {
		for k := range r.Attrs {
			attrSet[k] = true
		}
	}
	attrs := make([]string, 0, len(attrSet))
	for k := range attrSet {
		attrs = append(attrs, k)
	}
	slices.Sort(attrs)

	g := sheet.Grid{
		Header: append(slices.Clone(entityColumns), attrs...),
		Rows:   make([][]string, 0, len(recs)),
	}
	for _, r := range recs {
		row := []string{
			r.ID,
			r.Title,
			r.Content,
			r.Category,
			formatDate(r.Date),
			formatTime(r.CreatedAt),
			formatTime(r.UpdatedAt),
		}
		for _, k := range attrs {
			row = append(row, r.Attrs[k])
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// requireColumns fails when a tab holding rows lacks one of cols. Loading
// such a tab would drop every row, and the next write would erase them.
func requireColumns(g sheet.Grid, cols ...string) error {
	if len(g.Rows) == 0 {
		return nil
	}
	idx := g.Index()
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			return fmt.Errorf("%w: header has no %q column", errBadHeader, c)
		}
	}
	return nil
}

// decodeRecords parses an entity tab. Rows without an id and duplicate ids
// are skipped with a warning; malformed timestamps are left zero.
func decodeRecords(k types.Kind, g sheet.Grid, logger *slog.Logger) ([]*types.Record, []legacyRef) {
	idx := g.Index()
	col := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok {
			return ""
		}
		return sheet.Cell(row, i)
	}

	fixed := map[string]bool{}
	for _, c := range entityColumns {
		fixed[c] = true
	}

	var (
		out    []*types.Record
		legacy []legacyRef
		seen   = map[string]bool{}
	)
	for n, row := range g.Rows {
		id := strings.TrimSpace(col(row, colID))
		if id == "" {
			logger.Warn("skipping row without id", "kind", k, "row", n+1)
			continue
		}
		if seen[id] {
			logger.Warn("skipping duplicate id", "kind", k, "id", id, "row", n+1)
			continue
		}
		seen[id] = true

		r := &types.Record{
			ID:       id,
			Kind:     k,
			Title:    col(row, colTitle),
			Content:  col(row, colContent),
			Category: col(row, colCategory),
		}
		var err error
		if r.Date, err = types.ParseDate(col(row, colDate)); err != nil {
			logger.Warn("ignoring malformed date", "kind", k, "id", id, "error", err)
		}
		if r.CreatedAt, err = parseTime(col(row, colCreatedAt)); err != nil {
			logger.Warn("ignoring malformed created_at", "kind", k, "id", id, "error", err)
		}
		if r.UpdatedAt, err = parseTime(col(row, colUpdatedAt)); err != nil {
			logger.Warn("ignoring malformed updated_at", "kind", k, "id", id, "error", err)
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}

		for i, name := range g.Header {
			if fixed[name] || name == "" {
				continue
			}
			value := sheet.Cell(row, i)
			if target, ok := types.KindForRefField(name); ok {
				for _, to := range splitIDs(value) {
					legacy = append(legacy, legacyRef{from: r.Ref(), to: types.R(target, to)})
				}
				continue
			}
			r.SetAttr(name, value)
		}
		out = append(out, r)
	}
	return out, legacy
}

// encodeLinks renders the link relation in creation order.
func encodeLinks(rel *graph.Relation) sheet.Grid {
	links := rel.Links()
	g := sheet.Grid{Header: slices.Clone(linkColumns), Rows: make([][]string, 0, len(links))}
	for _, l := range links {
		g.Rows = append(g.Rows, []string{
			string(l.From.Kind), l.From.ID,
			string(l.To.Kind), l.To.ID,
			formatTime(l.CreatedAt),
		})
	}
	return g
}

// decodeLinks parses the links tab. Rows naming an unknown kind are skipped.
func decodeLinks(g sheet.Grid, logger *slog.Logger) []types.Link {
	recs := g.Records()
	out := make([]types.Link, 0, len(recs))
	for n, rec := range recs {
		l := types.Link{
			From: types.R(types.Kind(rec["from_kind"]), rec["from_id"]),
			To:   types.R(types.Kind(rec["to_kind"]), rec["to_id"]),
		}
		if !l.From.Kind.Valid() || !l.To.Kind.Valid() || l.From.ID == "" || l.To.ID == "" {
			logger.Warn("skipping malformed link row", "row", n+1)
			continue
		}
		var err error
		if l.CreatedAt, err = parseTime(rec["created_at"]); err != nil {
			logger.Warn("ignoring malformed link created_at", "row", n+1, "error", err)
		}
		out = append(out, l)
	}
	return out
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q: %w", s, err)
	}
	return t.UTC(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(types.DateLayout)
}
