package view

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// Query narrows and orders the records shown for one kind.
type Query struct {
	// Search is matched case-insensitively against the title, the content
	// and the kind's searchable attributes. Empty matches everything.
	Search string
	// Category filters on the category column. Empty or types.CategoryAll
	// matches everything.
	Category string
	// Sort is types.SortUpdated or types.SortDate. Empty sorts by last
	// modification.
	Sort string
}

// sortField validates q.Sort.
func (q Query) sortField(sch types.KindSchema) (string, error) {
	switch q.Sort {
	case "":
		return types.SortUpdated, nil
	case types.SortUpdated, types.SortDate:
		return q.Sort, nil
	}
	return "", &types.ValidationError{
		Kind:   sch.Kind,
		Field:  "sort",
		Reason: fmt.Sprintf("unknown sort %q, want %s or %s", q.Sort, types.SortUpdated, types.SortDate),
	}
}

// Apply filters recs by q and sorts the survivors newest first. Ties keep
// their input order. recs is not modified.
func Apply(sch types.KindSchema, q Query, recs []*types.Record) ([]*types.Record, error) {
	field, err := q.sortField(sch)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Search))
	out := make([]*types.Record, 0, len(recs))
	for _, r := range recs {
		if !matchCategory(r, q.Category) {
			continue
		}
		if needle != "" && !matchSearch(fold, sch, r, needle) {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b *types.Record) int {
		return b.SortTime(field).Compare(a.SortTime(field))
	})
	return out, nil
}

func matchCategory(r *types.Record, category string) bool {
	if category == "" || category == types.CategoryAll {
		return true
	}
	return r.Category == category
}

func matchSearch(fold cases.Caser, sch types.KindSchema, r *types.Record, needle string) bool {
	haystack := []string{r.Title, r.Content}
	for _, key := range sch.SearchAttrs {
		haystack = append(haystack, r.Attr(key))
	}
	for _, h := range haystack {
		if h != "" && strings.Contains(fold.String(h), needle) {
			return true
		}
	}
	return false
}
