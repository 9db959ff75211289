package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printRecords writes one line per record.
func printRecords(w io.Writer, sch types.KindSchema, recs []*types.Record) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "ID\t%s\t%s\tDATE\tUPDATED\n", strings.ToUpper(sch.TitleLabel), strings.ToUpper(sch.CategoryLabel))
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, oneLine(r.Title), dash(r.Category), dash(formatDate(r.Date)), formatStamp(r.UpdatedAt))
	}
	return tw.Flush()
}

// printRecord writes every field of r, attributes and references last.
func printRecord(w io.Writer, r *types.Record) error {
	sch, _ := types.Schema(r.Kind)
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "id:\t%s\n", r.ID)
	fmt.Fprintf(tw, "kind:\t%s\n", r.Kind)
	fmt.Fprintf(tw, "%s:\t%s\n", sch.TitleLabel, r.Title)
	fmt.Fprintf(tw, "%s:\t%s\n", sch.CategoryLabel, dash(r.Category))
	if !r.Date.IsZero() {
		fmt.Fprintf(tw, "date:\t%s\n", formatDate(r.Date))
	}
	fmt.Fprintf(tw, "created:\t%s\n", formatStamp(r.CreatedAt))
	fmt.Fprintf(tw, "updated:\t%s\n", formatStamp(r.UpdatedAt))

	keys := make([]string, 0, len(r.Attrs))
	for k := range r.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s:\t%s\n", k, r.Attrs[k])
	}
	for _, k := range types.Kinds() {
		if ids := r.RefIDs(k); len(ids) > 0 {
			ks, _ := types.Schema(k)
			fmt.Fprintf(tw, "%s:\t%s\n", ks.RefField, strings.Join(ids, ", "))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if r.Content != "" {
		fmt.Fprintf(w, "\n%s\n", r.Content)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(types.DateLayout)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	s, _, _ = strings.Cut(s, "\n")
	return s
}
