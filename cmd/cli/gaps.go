package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/types"
)

var (
	gapsFlags  *runFlags
	gapsTarget string
	gapsLimit  int
)

// gapsCmd represents the gaps command
var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "List products a supplier lacks while others have stock",
	Long: `Process the given price lists and list the products the target supplier has
no stock of while at least one other supplier does, with a per-supplier count
of the products and units that cover the gap.`,
	Example: `  price-cli gaps --target droactiva --droactiva ./droactiva.csv --dromarko ./dromarko.csv
  price-cli gaps --target 365 --p365 ./365.xlsx --cobeca ./cobeca.xlsx`,
	Args: cobra.NoArgs,
	RunE: runGaps,
}

func init() {
	rootCmd.AddCommand(gapsCmd)

	gapsFlags = addRunFlags(gapsCmd)
	gapsCmd.Flags().StringVar(&gapsTarget, "target", string(types.SupplierDroactiva), "Supplier to analyze")
	gapsCmd.Flags().IntVar(&gapsLimit, "limit", 50, "Maximum number of products to show")
}

func runGaps(cmd *cobra.Command, args []string) error {
	target, err := types.ParseSupplierID(gapsTarget)
	if err != nil {
		return err
	}

	result, err := gapsFlags.execute(cmd, false)
	if err != nil {
		return err
	}

	eng := result.Engine
	products := eng.GapSummaryBySupplier(target)
	units := eng.GapUnits(target)
	entries := eng.GapProducts(target)

	fmt.Printf("\n%s is missing %d products that other suppliers stock\n", config.Label(target), len(entries))
	fmt.Println(strings.Repeat("-", 72))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Supplier\tProducts\tUnits\n")
	fmt.Fprintf(w, "--------\t--------\t-----\n")
	for _, id := range types.SupplierIDs {
		if n, ok := products[id]; ok {
			fmt.Fprintf(w, "%s\t%d\t%d\n", config.Label(id), n, units[id])
		}
	}
	w.Flush()
	fmt.Println()

	if gapsLimit > 0 && len(entries) > gapsLimit {
		entries = entries[:gapsLimit]
	}
	outputEntries(entries)
	return nil
}
