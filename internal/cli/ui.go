package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/zoobzio/dynql"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	keyColor    = color.New(color.FgYellow)
	dimColor    = color.New(color.FgHiBlack)
	errorColor  = color.New(color.FgRed, color.Bold)
)

// printError writes err in red.
func printError(w io.Writer, err error) {
	errorColor.Fprintf(w, "✗ %v\n", err)
}

func printHeader(w io.Writer, format string, args ...any) {
	headerColor.Fprintf(w, format+"\n", args...)
}

// printRows renders rows as an aligned table. Column order follows the
// first row.
func printRows(w io.Writer, rows []dynql.Row) error {
	if len(rows) == 0 {
		dimColor.Fprintln(w, "(no rows)")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rows[0].Columns, "\t"))
	for _, r := range rows {
		cells := make([]string, len(r.Values))
		for i, v := range r.Values {
			cells[i] = cell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	dimColor.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// printCommand writes the SQL text and its parameters by name.
func printCommand(w io.Writer, cmd *dynql.Command) {
	fmt.Fprintln(w, cmd.Text)
	if len(cmd.Params) == 0 {
		return
	}
	for _, p := range cmd.Params {
		keyColor.Fprintf(w, "  %s", p.Name)
		fmt.Fprintf(w, " = %s\n", cell(p.Value))
	}
}
