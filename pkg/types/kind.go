package types

import (
	"fmt"
	"strings"
)

// Kind identifies one entity collection.
type Kind string

// Entity kinds. Each kind has its own tab in the backing sheet.
const (
	KindTicket     Kind = "ticket"
	KindProject    Kind = "project"
	KindTask       Kind = "task"
	KindMeeting    Kind = "meeting"
	KindDealership Kind = "dealership"
	KindFeature    Kind = "feature"
	KindCurator    Kind = "curator"
)

// Sort fields a kind can be ordered by.
const (
	SortUpdated = "updated"
	SortDate    = "date"
)

// CategoryAll is the category filter value that matches every record.
const CategoryAll = "all"

// KindSchema describes how one kind is stored, validated, and displayed.
type KindSchema struct {
	Kind Kind

	// Tab is the sheet tab holding rows of this kind.
	Tab string

	// RefField is the name of the reference array other records use for
	// ids of this kind, e.g. "ticketIds".
	RefField string

	// TitleLabel is the display name of the Title column ("title", "name").
	TitleLabel string

	// CategoryLabel is the display name of the Category column.
	CategoryLabel string

	// Categories lists the allowed category values in display order.
	// An empty list means the category is free-form.
	Categories []string

	// DefaultCategory is applied on create when Category is empty.
	DefaultCategory string

	// RequireDate rejects records without a Date.
	RequireDate bool

	// SearchAttrs lists attribute keys included in free-text search.
	SearchAttrs []string
}

var kindSchemas = []KindSchema{
	{
		Kind:            KindTicket,
		Tab:             "tickets",
		RefField:        "ticketIds",
		TitleLabel:      "title",
		CategoryLabel:   "status",
		Categories:      []string{"open", "in_progress", "waiting", "resolved", "closed"},
		DefaultCategory: "open",
		SearchAttrs:     []string{"customer", "assignee", "priority"},
	},
	{
		Kind:            KindProject,
		Tab:             "projects",
		RefField:        "projectIds",
		TitleLabel:      "name",
		CategoryLabel:   "status",
		Categories:      []string{"planning", "active", "on_hold", "completed"},
		DefaultCategory: "planning",
		SearchAttrs:     []string{"owner", "client"},
	},
	{
		Kind:            KindTask,
		Tab:             "tasks",
		RefField:        "taskIds",
		TitleLabel:      "title",
		CategoryLabel:   "status",
		Categories:      []string{"todo", "in_progress", "done"},
		DefaultCategory: "todo",
		SearchAttrs:     []string{"assignee"},
	},
	{
		Kind:          KindMeeting,
		Tab:           "meetings",
		RefField:      "meetingIds",
		TitleLabel:    "title",
		CategoryLabel: "type",
		Categories:    []string{"internal", "client", "dealer", "review"},
		RequireDate:   true,
		SearchAttrs:   []string{"attendees", "location"},
	},
	{
		Kind:          KindDealership,
		Tab:           "dealerships",
		RefField:      "dealershipIds",
		TitleLabel:    "name",
		CategoryLabel: "region",
		SearchAttrs:   []string{"contact", "email", "phone", "city"},
	},
	{
		Kind:            KindFeature,
		Tab:             "features",
		RefField:        "featureIds",
		TitleLabel:      "title",
		CategoryLabel:   "status",
		Categories:      []string{"proposed", "planned", "in_progress", "shipped"},
		DefaultCategory: "proposed",
		SearchAttrs:     []string{"area"},
	},
	{
		Kind:            KindCurator,
		Tab:             "curator",
		RefField:        "curatorIds",
		TitleLabel:      "title",
		CategoryLabel:   "category",
		DefaultCategory: "general",
		SearchAttrs:     []string{"author", "tags"},
	},
}

var schemaByKind = func() map[Kind]*KindSchema {
	m := make(map[Kind]*KindSchema, len(kindSchemas))
	for i := range kindSchemas {
		m[kindSchemas[i].Kind] = &kindSchemas[i]
	}
	return m
}()

// Kinds returns every entity kind in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kindSchemas))
	for i, s := range kindSchemas {
		out[i] = s.Kind
	}
	return out
}

// Schema returns the schema for k. The second result is false for an
// unknown kind.
func Schema(k Kind) (KindSchema, bool) {
	s, ok := schemaByKind[k]
	if !ok {
		return KindSchema{}, false
	}
	return *s, true
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := schemaByKind[k]
	return ok
}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// ParseKind resolves a user-supplied kind name. It accepts the singular
// kind, the tab name, and the reference field name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sch := range kindSchemas {
		if s == string(sch.Kind) || s == sch.Tab || s == strings.ToLower(sch.RefField) {
			return sch.Kind, nil
		}
	}
	return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", s)}
}

// KindForRefField returns the kind whose reference array is named field.
func KindForRefField(field string) (Kind, bool) {
	for _, sch := range kindSchemas {
		if sch.RefField == field {
			return sch.Kind, true
		}
	}
	return "", false
}

// AllowsCategory reports whether value is acceptable for this kind. Empty
// values are always allowed; free-form kinds accept anything.
func (s KindSchema) AllowsCategory(value string) bool {
	if value == "" || len(s.Categories) == 0 {
		return true
	}
	for _, c := range s.Categories {
		if c == value {
			return true
		}
	}
	return false
}
