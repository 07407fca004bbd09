package cmd

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/isogroup/pkg/core"
	"github.com/ChrisMcGann/isogroup/pkg/substitution"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List registered substitution tables",
	Long: `List the registered substitution tables with their row counts, or print
the rows of one table with --show.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showTable != "" {
			return printTable(cmd.OutOrStdout(), showTable)
		}
		return listTables(cmd.OutOrStdout())
	},
}

func listTables(w io.Writer) error {
	for _, name := range substitution.Registered() {
		t, err := substitution.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d rows\t%d substitutions\n", name, t.Len(), len(t.Names()))
	}
	return nil
}

func printTable(w io.Writer, name string) error {
	t, err := substitution.Lookup(name)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tmassDiff\tmass range\tlower bound\tupper bound")
	for _, r := range t {
		fmt.Fprintf(tw, "%s\t%.6f\t(%s, %s]\t%s\t%s\n",
			r.Name, r.MassDiff, formatEnd(r.LeftEnd), formatEnd(r.RightEnd),
			formatLine(r.LowerSlope, r.LowerIntercept), formatLine(r.UpperSlope, r.UpperIntercept))
	}
	return tw.Flush()
}

func formatEnd(v float64) string {
	if math.IsInf(v, 1) {
		return "Inf"
	}
	return fmt.Sprintf("%g", v)
}

// formatLine prints slope*m + intercept with rounded coefficients.
func formatLine(slope, intercept float64) string {
	return fmt.Sprintf("%g*m%+g", core.RoundFloat(slope, 8), core.RoundFloat(intercept, 6))
}
