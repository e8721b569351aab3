package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/types"
)

var (
	searchFlags *runFlags
	searchLimit int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <molecule>",
	Short: "Find the cheapest offers of a molecule across suppliers",
	Long: `Process the given price lists and list every product whose description
contains all words of the molecule, cheapest first. Accents and case are ignored.`,
	Example: `  price-cli search amoxicilina --droactiva ./droactiva.csv --dromarko ./dromarko.csv
  price-cli search "losartan 50" --droactiva ./droactiva.csv --nena ./nena.xlsx --rate 36.5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchFlags = addRunFlags(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of products to show")
}

func runSearch(cmd *cobra.Command, args []string) error {
	keyword := strings.Join(args, " ")

	result, err := searchFlags.execute(cmd, false)
	if err != nil {
		return err
	}

	entries := result.Engine.CheapestByMolecule(keyword)
	fmt.Printf("\n%d products match %q\n", len(entries), keyword)
	fmt.Println(strings.Repeat("-", 72))
	if searchLimit > 0 && len(entries) > searchLimit {
		entries = entries[:searchLimit]
	}
	outputEntries(entries)
	return nil
}

func outputEntries(entries []*catalog.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Barcode\tDescription\tBest\tWinner\tSuppliers\n")
	fmt.Fprintf(w, "-------\t-----------\t----\t------\t---------\n")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n", e.Barcode(), e.Description(), e.BestPrice(), labelOf(e.Winner()), supplierList(e))
	}
	w.Flush()
}

func supplierList(e *catalog.Entry) string {
	ids := e.Suppliers()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s %.2f/%d", config.Label(id), e.NetPriceFor(id), e.StockFor(id))
	}
	return strings.Join(parts, ", ")
}

func labelOf(id types.SupplierID) string {
	if id == "" {
		return "-"
	}
	return config.Label(id)
}

func printLeader(title string, id types.SupplierID) {
	fmt.Printf("%-24s %s\n", title+":", labelOf(id))
}
