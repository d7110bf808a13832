package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zoobzio/dynql"
	"github.com/zoobzio/dynql/schema"
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	out io.Writer
	log *logrus.Logger
	cfg *Config
}

// NewRootCommand builds the dynql command tree writing to out. Logs and
// errors go to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, log: logrus.New()}
	a.log.SetOutput(errOut)
	a.log.SetLevel(logrus.WarnLevel)

	root := &cobra.Command{
		Use:           "dynql",
		Short:         "Inspect and query a database by its live schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			if a.cfg, err = configFrom(v); err != nil {
				return err
			}
			if a.cfg.Verbose {
				a.log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("driver", "sqlite", "database driver: "+strings.Join(Drivers, ", "))
	pf.String("dsn", "", "data source name or connection URL")
	pf.BoolP("verbose", "v", false, "log generated statements")

	root.AddCommand(
		a.tablesCommand(),
		a.describeCommand(),
		a.sqlCommand(),
		a.findCommand(),
		a.countCommand(),
	)
	return root
}

// Execute runs the command tree with the process arguments and reports
// any error on errOut.
func Execute(ctx context.Context, out, errOut io.Writer) error {
	root := NewRootCommand(out, errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		printError(errOut, err)
		return err
	}
	return nil
}

func (a *app) withDatabase(ctx context.Context, fn func(*dynql.Database) error) error {
	db, err := open(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func (a *app) tablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables and views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDatabase(cmd.Context(), func(db *dynql.Database) error {
				tables, err := db.Schema().Tables()
				if err != nil {
					return err
				}
				sort.Slice(tables, func(i, j int) bool {
					return tables[i].Name().String() < tables[j].Name().String()
				})
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				for _, t := range tables {
					kind := "table"
					if t.Type == schema.View {
						kind = "view"
					}
					fmt.Fprintf(tw, "%s\t%s\n", t.Name(), kind)
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) describeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the columns, key and relations of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(db *dynql.Database) error {
				t, err := db.Schema().FindTable(args[0])
				if err != nil {
					return err
				}
				printHeader(a.out, "%s", t.Name())

				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				for _, c := range t.Columns() {
					var flags []string
					if c.IsIdentity {
						flags = append(flags, "identity")
					} else if !c.IsWriteable {
						flags = append(flags, "read-only")
					}
					typ := c.DbType.String()
					if c.MaxLength > 0 {
						typ = fmt.Sprintf("%s(%d)", typ, c.MaxLength)
					}
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.ActualName, typ, strings.Join(flags, ","))
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				if pk := t.PrimaryKey(); len(pk) > 0 {
					keyColor.Fprint(a.out, "primary key")
					fmt.Fprintf(a.out, " (%s)\n", strings.Join(pk, ", "))
				}
				for _, fk := range t.ForeignKeys() {
					keyColor.Fprint(a.out, "references")
					fmt.Fprintf(a.out, " %s(%s) via (%s)\n",
						fk.MasterTable, strings.Join(fk.UniqueColumns, ", "), strings.Join(fk.Columns, ", "))
				}
				return nil
			})
		},
	}
}

// queryFlags are shared by sql, find and count.
type queryFlags struct {
	where []string
	with  []string
	order string
	desc  bool
	skip  int
	take  int
}

func (f *queryFlags) register(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringArrayVarP(&f.where, "where", "w", nil, "condition column<op>value, op one of = != > >= < <= ~ (repeatable)")
	if !paging {
		return
	}
	cmd.Flags().StringArrayVar(&f.with, "with", nil, "eager-load a relation such as posts (repeatable)")
	cmd.Flags().StringVarP(&f.order, "order", "o", "", "order by column")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "order descending")
	cmd.Flags().IntVar(&f.skip, "skip", 0, "rows to skip")
	cmd.Flags().IntVar(&f.take, "take", -1, "rows to return")
}

// builder translates the flags into a query on table.
func (f *queryFlags) builder(db *dynql.Database, table string) (*dynql.Builder, error) {
	b := db.From(table)
	if len(f.where) > 0 {
		where, err := criteria(db.Schema(), table, f.where)
		if err != nil {
			return nil, err
		}
		b = b.Where(where)
	}
	for _, rel := range f.with {
		b = b.With(dynql.Col(table + "." + rel))
	}
	if f.order != "" {
		ref := dynql.Col(table + "." + f.order)
		if f.desc {
			b = b.OrderByDescending(ref)
		} else {
			b = b.OrderBy(ref)
		}
	}
	if f.skip > 0 {
		b = b.Skip(f.skip)
	}
	if f.take >= 0 {
		b = b.Take(f.take)
	}
	return b, b.Err()
}

func (a *app) sqlCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "sql <table>",
		Short: "Print the statement a query would run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(db *dynql.Database) error {
				b, err := flags.builder(db, args[0])
				if err != nil {
					return err
				}
				c, err := b.SQL()
				if err != nil {
					return err
				}
				printCommand(a.out, c)
				return nil
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (a *app) findCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "find <table>",
		Short: "Run a query and print the rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(db *dynql.Database) error {
				b, err := flags.builder(db, args[0])
				if err != nil {
					return err
				}
				rows, err := b.All(cmd.Context())
				if err != nil {
					return err
				}
				return printRows(a.out, rows)
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (a *app) countCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count the rows matching the conditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(db *dynql.Database) error {
				where, err := criteria(db.Schema(), args[0], flags.where)
				if err != nil {
					return err
				}
				n, err := db.Count(cmd.Context(), args[0], where)
				if err != nil {
					return errors.Wrap(err, "counting")
				}
				fmt.Fprintln(a.out, n)
				return nil
			})
		},
	}
	flags.register(cmd, false)
	return cmd
}
