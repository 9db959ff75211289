package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/deskboard/internal/view"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// editFlags are the field flags shared by create and update.
type editFlags struct {
	title    string
	content  string
	category string
	date     string
	set      []string
}

func (ef *editFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&ef.title, "title", "t", "", "title (or name)")
	f.StringVar(&ef.content, "content", "", "free text body")
	f.StringVarP(&ef.category, "category", "c", "", "category (status, type or region, per kind)")
	f.StringVar(&ef.date, "date", "", "date as YYYY-MM-DD")
	f.StringArrayVar(&ef.set, "set", nil, "attribute as key=value; an empty value removes it (repeatable)")
}

// apply copies the flags the user gave onto the controller's form.
func (ef *editFlags) apply(cmd *cobra.Command, c *view.Controller) error {
	for _, fv := range []struct{ flag, field, value string }{
		{"title", "title", ef.title},
		{"content", "content", ef.content},
		{"category", "category", ef.category},
		{"date", "date", ef.date},
	} {
		if !cmd.Flags().Changed(fv.flag) {
			continue
		}
		if err := c.SetField(fv.field, fv.value); err != nil {
			return err
		}
	}
	for _, kv := range ef.set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return usageErrorf("--set %q: want key=value", kv)
		}
		if err := c.SetField(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) printSaved(verb string, r *types.Record) error {
	if a.flagJSON {
		return a.printJSON(r)
	}
	fmt.Fprintf(a.out, "%s %s %s\n", verb, r.Kind, r.ID)
	return nil
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		ef editFlags
		id string
	)
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create a record",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := types.ParseKind(args[0])
			if err != nil {
				return err
			}
			c, err := a.controller(cmd.Context(), k)
			if err != nil {
				return err
			}
			if err := c.BeginCreateWithID(id); err != nil {
				return err
			}
			if err := ef.apply(cmd, c); err != nil {
				return err
			}
			r, err := c.Commit()
			if err != nil {
				return err
			}
			return a.printSaved("Created", r)
		},
	}
	ef.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "record id (default: generated)")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var ef editFlags
	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Change fields of a record; flags not given keep their value",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := types.ParseKind(args[0])
			if err != nil {
				return err
			}
			c, err := a.controller(cmd.Context(), k)
			if err != nil {
				return err
			}
			if err := c.BeginEdit(args[1]); err != nil {
				return err
			}
			if err := ef.apply(cmd, c); err != nil {
				return err
			}
			r, err := c.Commit()
			if err != nil {
				return err
			}
			return a.printSaved("Updated", r)
		},
	}
	ef.register(cmd)
	return cmd
}
