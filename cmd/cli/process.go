package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/pipeline"
)

var (
	processOutput string
	processExport bool
	processFlags  *runFlags
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Consolidate supplier price lists and print a summary",
	Long: `Parse every given supplier price list, consolidate the products by barcode,
rank suppliers by net price and print per-supplier statistics. With --export the
comparison report is written to the configured export directory.`,
	Example: `  price-cli process --droactiva ./droactiva.csv --dromarko ./dromarko.csv
  price-cli process --droactiva ./droactiva.csv --nena ./nena.xlsx --rate 36.5 --export
  price-cli process --droactiva ./droactiva.csv --cobeca ./cobeca.zip --strategy full --output json`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processFlags = addRunFlags(processCmd)
	processCmd.Flags().StringVar(&processOutput, "output", "table", "Output format: table or json")
	processCmd.Flags().BoolVar(&processExport, "export", false, "Write the XLSX comparison report")
}

func runProcess(cmd *cobra.Command, args []string) error {
	result, err := processFlags.execute(cmd, processExport)
	if err != nil {
		return err
	}

	switch strings.ToLower(processOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "table":
		outputProcessTable(result, result.Summary)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", processOutput)
	}
}

func outputProcessTable(result *pipeline.Result, summary *engine.Summary) {
	fmt.Printf("\nRun %s (%s)\n", result.RunID, result.Duration.Round(time.Millisecond))
	fmt.Printf("Exchange rate %.4f, margin %.1f%%, strategy %s\n", result.Settings.ExchangeRate, result.Settings.MarginPct, result.Settings.JoinStrategy)
	fmt.Println(strings.Repeat("-", 72))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Supplier\tFile\tRecords\tRows\tSkipped\tStatus\n")
	fmt.Fprintf(w, "--------\t----\t-------\t----\t-------\t------\n")
	for _, rep := range result.Reports {
		skipped := 0
		for _, n := range rep.Skipped {
			skipped += n
		}
		status := "ok"
		if rep.Error != "" {
			status = rep.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", rep.Label, rep.Filename, rep.Records, rep.TotalRows, skipped, status)
	}
	w.Flush()

	fmt.Printf("\nProducts %d, comparable %d\n", summary.TotalProducts, summary.ComparableProducts)
	fmt.Println(strings.Repeat("-", 72))

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Supplier\tProducts\tWins\tLosses\tStock\tOffers\tAvg Net\tAvg Offer %%\n")
	fmt.Fprintf(w, "--------\t--------\t----\t------\t-----\t------\t-------\t-----------\n")
	for _, st := range summary.Suppliers {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\n",
			config.Label(st.Supplier), st.Products, st.Wins, st.Losses, st.TotalStock, st.OfferCount, st.AvgNetPrice, st.AvgOfferPct)
	}
	w.Flush()

	fmt.Println()
	printLeader("Most wins", summary.MostWins)
	printLeader("Most losses", summary.MostLosses)
	printLeader("Best average discount", summary.BestAvgDiscount)
	printLeader("Worst average discount", summary.WorstAvgDiscount)

	if result.ReportPath != "" {
		fmt.Printf("\nReport written to %s\n", result.ReportPath)
	}
}
