// Package view holds the interaction state for browsing one entity kind:
// the current query, the selected record, and the edit form.
package view

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// Controller errors.
var (
	ErrNoSelection = errors.New("no record selected")
	ErrNotEditing  = errors.New("no edit in progress")
)

// Controller drives the list, detail and edit views of one kind. It is not
// safe for concurrent use.
type Controller struct {
	schema types.KindSchema
	table  types.Table
	links  types.Linker
	logger *slog.Logger

	query    Query
	selected string
	draft    *types.Record
	editing  bool // true for BeginEdit, false for BeginCreate
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a controller for the table's kind.
func New(table types.Table, links types.Linker, opts ...Option) (*Controller, error) {
	sch, ok := types.Schema(table.Kind())
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownKind, table.Kind())
	}
	c := &Controller{
		schema: sch,
		table:  table,
		links:  links,
		logger: slog.New(slog.DiscardHandler),
		query:  Query{Category: types.CategoryAll, Sort: types.SortUpdated},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Kind returns the controlled kind.
func (c *Controller) Kind() types.Kind { return c.schema.Kind }

// Schema returns the controlled kind's schema.
func (c *Controller) Schema() types.KindSchema { return c.schema }

// Query returns the current query.
func (c *Controller) Query() Query { return c.query }

// SetQuery replaces the current query after checking its sort field.
func (c *Controller) SetQuery(q Query) error {
	if _, err := q.sortField(c.schema); err != nil {
		return err
	}
	c.query = q
	return nil
}

// Visible returns the records matching the current query, sorted.
func (c *Controller) Visible() ([]*types.Record, error) {
	recs, err := c.table.List()
	if err != nil {
		return nil, err
	}
	return Apply(c.schema, c.query, recs)
}

// Summary counts every record of the kind per category.
func (c *Controller) Summary() (Summary, error) {
	recs, err := c.table.List()
	if err != nil {
		return Summary{}, err
	}
	return Summarize(c.schema, recs), nil
}

// Select makes id the selected record, replacing any previous selection.
func (c *Controller) Select(id string) (*types.Record, error) {
	r, err := c.table.Get(id)
	if err != nil {
		return nil, err
	}
	c.selected = id
	return r, nil
}

// Selected returns a fresh copy of the selected record. A selection whose
// record has disappeared is cleared.
func (c *Controller) Selected() (*types.Record, error) {
	if c.selected == "" {
		return nil, ErrNoSelection
	}
	r, err := c.table.Get(c.selected)
	if errors.Is(err, types.ErrNotFound) {
		c.selected = ""
		return nil, ErrNoSelection
	}
	return r, err
}

// ClearSelection drops the selection.
func (c *Controller) ClearSelection() { c.selected = "" }

// Delete removes the record. Deleting the selected record clears the
// selection, and deleting the record being edited cancels the edit.
func (c *Controller) Delete(id string) error {
	if err := c.table.Delete(id); err != nil {
		return err
	}
	if c.selected == id {
		c.selected = ""
	}
	if c.editing && c.draft != nil && c.draft.ID == id {
		c.Cancel()
	}
	c.logger.Debug("record deleted", "kind", c.schema.Kind, "id", id)
	return nil
}

// LinkSelected links the selected record to ref.
func (c *Controller) LinkSelected(ref types.Ref) error {
	if c.selected == "" {
		return ErrNoSelection
	}
	return c.links.Link(types.R(c.schema.Kind, c.selected), ref)
}

// UnlinkSelected removes the link between the selected record and ref.
func (c *Controller) UnlinkSelected(ref types.Ref) error {
	if c.selected == "" {
		return ErrNoSelection
	}
	return c.links.Unlink(types.R(c.schema.Kind, c.selected), ref)
}

// BeginCreate opens an empty form with the kind's default category.
func (c *Controller) BeginCreate() {
	c.draft = &types.Record{Kind: c.schema.Kind, Category: c.schema.DefaultCategory}
	c.editing = false
}

// BeginCreateWithID opens an empty form for a record with the given id.
// An empty id behaves like BeginCreate; an id already in use is a
// validation error.
func (c *Controller) BeginCreateWithID(id string) error {
	if id != "" {
		_, err := c.table.Get(id)
		if err == nil {
			return &types.ValidationError{Kind: c.schema.Kind, Field: "id", Reason: fmt.Sprintf("%q already exists", id)}
		}
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
	}
	c.BeginCreate()
	c.draft.ID = id
	return nil
}

// BeginEdit opens a form holding a copy of record id.
func (c *Controller) BeginEdit(id string) error {
	r, err := c.table.Get(id)
	if err != nil {
		return err
	}
	r.Refs = nil
	c.draft = r
	c.editing = true
	return nil
}

// Editing reports whether a form is open.
func (c *Controller) Editing() bool { return c.draft != nil }

// Draft returns a copy of the open form, or nil.
func (c *Controller) Draft() *types.Record {
	if c.draft == nil {
		return nil
	}
	return c.draft.Clone()
}

// SetField sets one form field. Field names are the fixed columns (title,
// content, category, date), the kind's display labels for title and
// category, or an attribute key. An empty attribute value removes the
// attribute when the form is committed.
func (c *Controller) SetField(name, value string) error {
	if c.draft == nil {
		return ErrNotEditing
	}
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "":
		return &types.ValidationError{Kind: c.schema.Kind, Field: "field", Reason: "name must not be empty"}
	case "id", "kind", "created_at", "updated_at":
		return &types.ValidationError{Kind: c.schema.Kind, Field: key, Reason: "is read-only"}
	case "title", c.schema.TitleLabel:
		c.draft.Title = value
	case "content":
		c.draft.Content = value
	case "category", c.schema.CategoryLabel:
		c.draft.Category = value
	case "date":
		d, err := types.ParseDate(value)
		if err != nil {
			return &types.ValidationError{Kind: c.schema.Kind, Field: "date", Reason: err.Error()}
		}
		c.draft.Date = d
	default:
		if _, ok := types.KindForRefField(name); ok {
			return &types.ValidationError{Kind: c.schema.Kind, Field: name, Reason: "references change through link and unlink"}
		}
		if c.draft.Attrs == nil {
			c.draft.Attrs = make(map[string]string)
		}
		c.draft.Attrs[name] = value
	}
	return nil
}

// Commit saves the form. A form opened by BeginEdit replaces the stored
// fields, so cleared fields stay cleared. On success the form closes and
// the saved record becomes the selection. A validation failure leaves the form open and is
// returned unchanged so the caller can point at the field.
func (c *Controller) Commit() (*types.Record, error) {
	if c.draft == nil {
		return nil, ErrNotEditing
	}
	save := c.table.Save
	if c.editing {
		save = c.table.Replace
	}
	saved, err := save(c.draft)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("record saved", "kind", c.schema.Kind, "id", saved.ID, "edit", c.editing)
	c.draft = nil
	c.editing = false
	c.selected = saved.ID
	return saved, nil
}

// Cancel discards the form.
func (c *Controller) Cancel() {
	c.draft = nil
	c.editing = false
}
