package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/adapters/registry"
	"github.com/farmaintel/price-service/internal/ingestion/zip"
	"github.com/farmaintel/price-service/internal/types"
)

var (
	parseSupplier string
	parseOutput   string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a local file using a supplier's parser",
	Long: `Parse a local price list (CSV, XLSX or a ZIP holding one) with the specified
supplier's parser. The output shows the detected header row, row counts, skip
reasons and a sample of the parsed records.`,
	Example: `  price-cli parse ./data/droactiva.csv --supplier droactiva
  price-cli parse ./data/lista365.xlsx --supplier 365
  price-cli parse ./data/cobeca.zip --supplier cobeca --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseSupplier, "supplier", "", "Supplier ID (required)")
	parseCmd.Flags().StringVar(&parseOutput, "output", "table", "Output format: table or json")
	parseCmd.MarkFlagRequired("supplier")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	supplier, err := types.ParseSupplierID(parseSupplier)
	if err != nil {
		return fmt.Errorf("%w\nValid suppliers: %s", err, strings.Join(validSuppliers(), ", "))
	}

	parser, err := registry.GetAdapter(supplier)
	if err != nil {
		return fmt.Errorf("failed to get parser for %s: %w", supplier, err)
	}

	log.Info().Str("file", filePath).Msg("Reading file")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	filename := filepath.Base(filePath)

	if zip.IsZip(filename, content) {
		files, err := zip.ExpandInMemory(cmd.Context(), content, filename)
		if err != nil {
			return fmt.Errorf("failed to expand %s: %w", filename, err)
		}
		supplierCfg, _ := config.GetSupplierConfig(supplier)
		picked, err := zip.PickPriceList(files, supplierCfg.PrimaryFileType)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		log.Info().Str("archive", filename).Str("file", picked.InnerFilename).Msg("Using price list from archive")
		content, filename = picked.Content, picked.InnerFilename
	}

	result, err := parser.Parse(content, filename)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	switch strings.ToLower(parseOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "table":
		outputParseTable(supplier, result)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", parseOutput)
	}
}

func outputParseTable(supplier types.SupplierID, result *types.ParseResult) {
	fmt.Printf("\nParse Results for %s\n", config.Label(supplier))
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Metric\tValue\n")
	fmt.Fprintf(w, "------\t-----\n")
	fmt.Fprintf(w, "Header Row\t%d\n", result.HeaderRow+1)
	fmt.Fprintf(w, "Total Rows\t%d\n", result.TotalRows)
	fmt.Fprintf(w, "Valid Rows\t%d\n", result.ValidRows)
	fmt.Fprintf(w, "Skipped Rows\t%d\n", len(result.Skipped))
	fmt.Fprintf(w, "Warnings\t%d\n", len(result.Warnings))
	w.Flush()

	if len(result.Skipped) > 0 {
		fmt.Printf("\nFirst %d Skipped Rows:\n", min(len(result.Skipped), 10))
		fmt.Println(strings.Repeat("-", 60))
		for _, s := range result.Skipped[:min(len(result.Skipped), 10)] {
			fmt.Printf("Row %d: %s %s\n", s.RowNumber, s.Reason, s.Detail)
		}
		if len(result.Skipped) > 10 {
			fmt.Printf("... and %d more\n", len(result.Skipped)-10)
		}
	}

	if len(result.Records) > 0 {
		fmt.Printf("\nSample Records (first %d):\n", min(len(result.Records), 5))
		fmt.Println(strings.Repeat("-", 60))
		for i, r := range result.Records[:min(len(result.Records), 5)] {
			fmt.Printf("%d. %s - %s (base %.2f, offer %.2f%%, net %.2f, stock %d)\n",
				i+1, r.Barcode, r.Description, r.BasePrice, r.OfferPct, r.NetPrice, r.Stock)
		}
	}
}

func validSuppliers() []string {
	out := make([]string, len(types.SupplierIDs))
	for i, id := range types.SupplierIDs {
		out[i] = string(id)
	}
	return out
}
