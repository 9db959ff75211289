// Package importer loads seed workbooks: YAML files holding records per
// kind and the links between them. Seeds are checked against an embedded
// JSON Schema, then written through the store so every record passes
// validation and every link is symmetric.
package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// Seed is a parsed seed workbook.
type Seed struct {
	// Records maps a kind, tab or reference field name to its records.
	Records map[string][]SeedRecord `yaml:"records"`
	Links   []SeedLink              `yaml:"links"`
}

// SeedRecord is one record in a seed. An empty ID lets the store generate
// one; such records cannot be linked from the seed.
type SeedRecord struct {
	ID       string            `yaml:"id"`
	Title    string            `yaml:"title"`
	Content  string            `yaml:"content"`
	Category string            `yaml:"category"`
	Date     string            `yaml:"date"`
	Attrs    map[string]string `yaml:"attrs"`
}

// SeedLink joins two records written as "kind/id".
type SeedLink struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Parse validates data against the seed schema and decodes it.
func Parse(data []byte) (*Seed, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, &types.ValidationError{Field: "seed", Reason: err.Error()}
	}
	return &seed, nil
}

// ParseFile reads and parses the seed at path.
func ParseFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	seed, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}

// Tables resolves a kind to its table. *store.Store satisfies it.
type Tables interface {
	Table(k types.Kind) (types.Table, error)
}

// Result counts what an import wrote.
type Result struct {
	Records map[types.Kind]int `json:"records"`
	Links   int                `json:"links"`
}

// Total is the number of records written.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Records {
		n += c
	}
	return n
}

// Importer writes seeds into a store.
type Importer struct {
	tables Tables
	links  types.Linker
	logger *slog.Logger
}

// New returns an importer writing through tables and links. A nil logger
// discards output.
func New(tables Tables, links types.Linker, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{tables: tables, links: links, logger: logger}
}

type kindGroup struct {
	kind types.Kind
	key  string
	tbl  types.Table
	recs []*types.Record
}

// plan is a seed resolved against the store and checked, ready to write.
type plan struct {
	groups []kindGroup
	links  [][2]types.Ref
}

// Apply saves every record, kind by kind in schema order, then creates
// every link. Records whose id already exists are merged, so importing the
// same seed twice is harmless. The whole seed is checked before the first
// write: field values, categories, required dates and link endpoints. A
// failure while writing stops Apply; records and links written before it
// stay written.
func (im *Importer) Apply(seed *Seed) (Result, error) {
	res := Result{Records: make(map[types.Kind]int)}

	p, err := im.plan(seed)
	if err != nil {
		return res, err
	}

	for _, g := range p.groups {
		for i, rec := range g.recs {
			saved, err := g.tbl.Save(rec)
			if err != nil {
				return res, fmt.Errorf("saving %s[%d]: %w", g.key, i, err)
			}
			res.Records[g.kind]++
			im.logger.Debug("record imported", "kind", g.kind, "id", saved.ID)
		}
	}

	for _, l := range p.links {
		if err := im.links.Link(l[0], l[1]); err != nil {
			return res, fmt.Errorf("linking %s to %s: %w", l[0], l[1], err)
		}
		res.Links++
	}

	im.logger.Info("seed imported", "records", res.Total(), "links", res.Links)
	return res, nil
}

func (im *Importer) plan(seed *Seed) (*plan, error) {
	p := &plan{groups: make([]kindGroup, 0, len(seed.Records))}
	for key, srs := range seed.Records {
		k, err := types.ParseKind(key)
		if err != nil {
			return nil, fmt.Errorf("records %q: %w", key, err)
		}
		tbl, err := im.tables.Table(k)
		if err != nil {
			return nil, err
		}
		g := kindGroup{kind: k, key: key, tbl: tbl, recs: make([]*types.Record, 0, len(srs))}
		for i, sr := range srs {
			rec, err := sr.record(k)
			if err != nil {
				return nil, fmt.Errorf("records %s[%d]: %w", key, i, err)
			}
			g.recs = append(g.recs, rec)
		}
		p.groups = append(p.groups, g)
	}
	order := types.Kinds()
	slices.SortFunc(p.groups, func(a, b kindGroup) int {
		if c := slices.Index(order, a.kind) - slices.Index(order, b.kind); c != 0 {
			return c
		}
		return strings.Compare(a.key, b.key)
	})

	// known holds every id that exists once the records are written.
	known := make(map[types.Ref]bool)
	for _, g := range p.groups {
		sch, _ := types.Schema(g.kind)
		for i, rec := range g.recs {
			ref := types.R(g.kind, rec.ID)
			exists := rec.ID != "" && known[ref]
			if rec.ID != "" && !exists {
				_, err := g.tbl.Get(rec.ID)
				switch {
				case err == nil:
					exists = true
				case !errors.Is(err, types.ErrNotFound):
					return nil, err
				}
			}
			// An existing record keeps its title and date under a merge,
			// so only the category can turn it invalid.
			if exists {
				if !sch.AllowsCategory(rec.Category) {
					return nil, fmt.Errorf("records %s[%d]: %w", g.key, i, &types.ValidationError{
						Kind:   g.kind,
						Field:  sch.CategoryLabel,
						Reason: "must be one of " + strings.Join(sch.Categories, ", "),
					})
				}
			} else if err := rec.Validate(); err != nil {
				return nil, fmt.Errorf("records %s[%d]: %w", g.key, i, err)
			}
			if rec.ID != "" {
				known[ref] = true
			}
		}
	}

	for i, sl := range seed.Links {
		from, err := ParseRef(sl.From)
		if err != nil {
			return nil, fmt.Errorf("links[%d].from: %w", i, err)
		}
		to, err := ParseRef(sl.To)
		if err != nil {
			return nil, fmt.Errorf("links[%d].to: %w", i, err)
		}
		for _, ref := range []types.Ref{from, to} {
			if known[ref] {
				continue
			}
			if err := im.exists(ref); err != nil {
				return nil, fmt.Errorf("links[%d]: %w", i, err)
			}
		}
		p.links = append(p.links, [2]types.Ref{from, to})
	}
	return p, nil
}

func (im *Importer) exists(ref types.Ref) error {
	tbl, err := im.tables.Table(ref.Kind)
	if err != nil {
		return err
	}
	_, err = tbl.Get(ref.ID)
	return err
}

func (sr SeedRecord) record(k types.Kind) (*types.Record, error) {
	date, err := types.ParseDate(sr.Date)
	if err != nil {
		return nil, &types.ValidationError{Kind: k, Field: "date", Reason: err.Error()}
	}
	r := &types.Record{
		ID:       sr.ID,
		Kind:     k,
		Title:    sr.Title,
		Content:  sr.Content,
		Category: sr.Category,
		Date:     date,
	}
	for key, v := range sr.Attrs {
		r.SetAttr(key, v)
	}
	return r, nil
}

// ParseRef parses "kind/id". The kind may be any name ParseKind accepts.
func ParseRef(s string) (types.Ref, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || id == "" {
		return types.Ref{}, &types.ValidationError{Field: "ref", Reason: fmt.Sprintf("%q is not kind/id", s)}
	}
	k, err := types.ParseKind(kind)
	if err != nil {
		return types.Ref{}, err
	}
	return types.R(k, id), nil
}
