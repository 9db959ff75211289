package view

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// CategoryCount is the number of records in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary counts the records of one kind per category.
type Summary struct {
	Kind   types.Kind      `json:"kind"`
	Label  string          `json:"label"`
	Total  int             `json:"total"`
	Counts []CategoryCount `json:"counts"`
}

// Summarize counts recs per category. Categories from the kind's schema
// come first, in schema order, including empty ones. Values outside the
// schema (free-form kinds, hand-edited sheets) follow alphabetically, and
// records with no category are counted last under "".
func Summarize(sch types.KindSchema, recs []*types.Record) Summary {
	counts := map[string]int{}
	for _, r := range recs {
		counts[r.Category]++
	}

	s := Summary{Kind: sch.Kind, Label: sch.CategoryLabel, Total: len(recs)}
	for _, c := range sch.Categories {
		s.Counts = append(s.Counts, CategoryCount{Category: c, Count: counts[c]})
		delete(counts, c)
	}
	var extra []string
	for c := range counts {
		if c != "" {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	for _, c := range extra {
		s.Counts = append(s.Counts, CategoryCount{Category: c, Count: counts[c]})
	}
	if n := counts[""]; n > 0 {
		s.Counts = append(s.Counts, CategoryCount{Count: n})
	}
	return s
}

// Format renders the summary as aligned text, with counts formatted for
// the given language.
func (s Summary) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	width := len(s.Label)
	for _, c := range s.Counts {
		width = max(width, len(displayCategory(c.Category)))
	}

	var b strings.Builder
	p.Fprintf(&b, "%-*s  %s\n", width, s.Label, "count")
	for _, c := range s.Counts {
		p.Fprintf(&b, "%-*s  %d\n", width, displayCategory(c.Category), c.Count)
	}
	p.Fprintf(&b, "%-*s  %d\n", width, "total", s.Total)
	return b.String()
}

func displayCategory(c string) string {
	if c == "" {
		return "(none)"
	}
	return c
}
