package types

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// DateLayout is the format of Record.Date in the sheet and on the CLI.
const DateLayout = "2006-01-02"

// ParseDate accepts a plain date (DateLayout) or a full RFC 3339
// timestamp. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Record is one entity of any kind. Type-specific columns live in Attrs.
// Refs holds the reference arrays derived from the link relation; the
// store fills it on read and ignores it on write.
type Record struct {
	ID        string
	Kind      Kind
	Title     string
	Content   string
	Category  string
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Attrs     map[string]string
	Refs      map[Kind][]string
}

// Ref returns the address of r.
func (r *Record) Ref() Ref { return Ref{Kind: r.Kind, ID: r.ID} }

// RefIDs returns a copy of the reference array for kind k. Never nil.
func (r *Record) RefIDs(k Kind) []string {
	ids := r.Refs[k]
	if len(ids) == 0 {
		return []string{}
	}
	return slices.Clone(ids)
}

// Attr returns the attribute value for key, or "".
func (r *Record) Attr(key string) string { return r.Attrs[key] }

// SetAttr sets an attribute. An empty value removes the key.
func (r *Record) SetAttr(key, value string) {
	if value == "" {
		delete(r.Attrs, key)
		return
	}
	if r.Attrs == nil {
		r.Attrs = make(map[string]string)
	}
	r.Attrs[key] = value
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Attrs = maps.Clone(r.Attrs)
	if r.Refs != nil {
		c.Refs = make(map[Kind][]string, len(r.Refs))
		for k, ids := range r.Refs {
			c.Refs[k] = slices.Clone(ids)
		}
	}
	return &c
}

// SortTime returns the timestamp r is ordered by for the given sort field.
// Records without a date fall back to UpdatedAt.
func (r *Record) SortTime(field string) time.Time {
	if field == SortDate && !r.Date.IsZero() {
		return r.Date
	}
	return r.UpdatedAt
}

// Validate checks r against its kind's schema.
func (r *Record) Validate() error {
	sch, ok := Schema(r.Kind)
	if !ok {
		return &ValidationError{Field: "kind", Reason: "unknown kind " + string(r.Kind)}
	}
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Kind: r.Kind, Field: sch.TitleLabel, Reason: "must not be empty"}
	}
	if !sch.AllowsCategory(r.Category) {
		return &ValidationError{
			Kind:   r.Kind,
			Field:  sch.CategoryLabel,
			Reason: "must be one of " + strings.Join(sch.Categories, ", "),
		}
	}
	if sch.RequireDate && r.Date.IsZero() {
		return &ValidationError{Kind: r.Kind, Field: "date", Reason: "must be set"}
	}
	return nil
}

// MarshalJSON flattens the record into the shape the admin views consume:
// reference arrays appear as "<kind>Ids" fields.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":         r.ID,
		"kind":       r.Kind,
		"title":      r.Title,
		"content":    r.Content,
		"category":   r.Category,
		"created_at": r.CreatedAt.Format(time.RFC3339),
		"updated_at": r.UpdatedAt.Format(time.RFC3339),
	}
	if !r.Date.IsZero() {
		out["date"] = r.Date.Format(DateLayout)
	}
	if len(r.Attrs) > 0 {
		out["attrs"] = r.Attrs
	}
	for _, k := range Kinds() {
		sch, _ := Schema(k)
		out[sch.RefField] = r.RefIDs(k)
	}
	return json.Marshal(out)
}
