package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/farmaintel/price-service/config"
	"github.com/farmaintel/price-service/internal/app"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "price-cli",
	Short: "Price CLI - Supplier price list consolidation tool",
	Long: `A CLI tool for parsing and comparing wholesale pharmacy price lists.
Supports six suppliers: Droactiva, Dromarko, Cobeca, Nena, F24 and 365.
Files are consolidated by barcode, ranked by net price and can be exported
to an XLSX comparison report.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

// persistentPreRun loads configuration and initializes the logger
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// logs go to stderr so command output stays pipeable
	app.InitLogger(cfg.Logging, os.Stderr)
	return nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
