package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farmaintel/price-service/internal/app"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Fetch the official USD exchange rate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rateCfg := cfg.Rate
		rateCfg.Enabled = true
		if rateCfg.URL == "" {
			return errors.New("rate.url is not configured")
		}

		rate, err := app.RateFetcher(rateCfg).FetchRate(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch exchange rate: %w", err)
		}
		fmt.Printf("%.4f\n", rate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rateCmd)
}
