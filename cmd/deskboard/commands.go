package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/deskboard/internal/importer"
	"github.com/mesh-intelligence/deskboard/internal/view"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deskboard version",
		Args:  exactArgs(0),
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flagJSON {
				return a.printJSON(map[string]string{"version": version})
			}
			fmt.Fprintln(a.out, "deskboard", version)
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and every sheet tab",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Rewrite(cmd.Context()); err != nil {
				return err
			}
			if a.flagJSON {
				return a.printJSON(map[string]string{
					"config_dir": a.configDir,
					"data_dir":   a.cfg.DataDir,
					"backend":    a.cfg.Backend,
				})
			}
			fmt.Fprintln(a.out, "deskboard initialized")
			fmt.Fprintln(a.out, "  config: ", a.configDir)
			fmt.Fprintln(a.out, "  data:   ", a.cfg.DataDir)
			fmt.Fprintln(a.out, "  backend:", a.cfg.Backend)
			return nil
		},
	}
}

type kindInfo struct {
	Kind          types.Kind `json:"kind"`
	Tab           string     `json:"tab"`
	TitleLabel    string     `json:"title_label"`
	CategoryLabel string     `json:"category_label"`
	Categories    []string   `json:"categories"`
}

func newKindsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List entity kinds and their categories",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []kindInfo
			for _, k := range types.Kinds() {
				sch, _ := types.Schema(k)
				infos = append(infos, kindInfo{
					Kind:          k,
					Tab:           sch.Tab,
					TitleLabel:    sch.TitleLabel,
					CategoryLabel: sch.CategoryLabel,
					Categories:    append([]string{}, sch.Categories...),
				})
			}
			if a.flagJSON {
				return a.printJSON(infos)
			}
			tw := newTabWriter(a.out)
			fmt.Fprintln(tw, "KIND\tTAB\tCATEGORY\tVALUES")
			for _, in := range infos {
				values := strings.Join(in.Categories, ", ")
				if values == "" {
					values = "(free-form)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", in.Kind, in.Tab, in.CategoryLabel, values)
			}
			return tw.Flush()
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var q view.Query
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List records of a kind, newest first",
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
			if err := c.SetQuery(q); err != nil {
				return err
			}
			recs, err := c.Visible()
			if err != nil {
				return err
			}
			if a.flagJSON {
				return a.printJSON(recs)
			}
			return printRecords(a.out, c.Schema(), recs)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Search, "search", "s", "", "case-insensitive text to look for")
	f.StringVarP(&q.Category, "category", "c", types.CategoryAll, "category to show, or all")
	f.StringVar(&q.Sort, "sort", types.SortUpdated, "sort by updated or date")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show one record with its links",
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
			r, err := c.Select(args[1])
			if err != nil {
				return err
			}
			if a.flagJSON {
				return a.printJSON(r)
			}
			return printRecord(a.out, r)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a record and remove it from every link",
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
			if err := c.Delete(args[1]); err != nil {
				return err
			}
			if a.flagJSON {
				return a.printJSON(map[string]string{"deleted": types.R(k, args[1]).String()})
			}
			fmt.Fprintf(a.out, "Deleted %s %s\n", k, args[1])
			return nil
		},
	}
}

// newLinkCmd builds link (add) or unlink (!add).
func newLinkCmd(a *app, add bool) *cobra.Command {
	use, short, verb := "link", "Link two records in both directions", "Linked"
	if !add {
		use, short, verb = "unlink", "Remove the link between two records", "Unlinked"
	}
	return &cobra.Command{
		Use:   use + " <kind> <id> <kind> <id>",
		Short: short,
		Args:  exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromKind, err := types.ParseKind(args[0])
			if err != nil {
				return err
			}
			toKind, err := types.ParseKind(args[2])
			if err != nil {
				return err
			}
			to := types.R(toKind, args[3])

			c, err := a.controller(cmd.Context(), fromKind)
			if err != nil {
				return err
			}
			if _, err := c.Select(args[1]); err != nil {
				return err
			}
			if add {
				err = c.LinkSelected(to)
			} else {
				err = c.UnlinkSelected(to)
			}
			if err != nil {
				return err
			}

			from := types.R(fromKind, args[1])
			if a.flagJSON {
				return a.printJSON(map[string]types.Ref{"from": from, "to": to})
			}
			fmt.Fprintf(a.out, "%s %s and %s\n", verb, from, to)
			return nil
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <kind>",
		Short: "Count records per category",
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
			sum, err := c.Summary()
			if err != nil {
				return err
			}
			if a.flagJSON {
				return a.printJSON(sum)
			}
			fmt.Fprint(a.out, sum.Format(language.English))
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Load records and links from a YAML seed file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := importer.ParseFile(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			res, err := importer.New(s, s.Links(), a.logger).Apply(seed)
			if err != nil {
				return err
			}
			if a.flagJSON {
				return a.printJSON(res)
			}
			fmt.Fprintf(a.out, "Imported %d records and %d links\n", res.Total(), res.Links)
			return nil
		},
	}
}
