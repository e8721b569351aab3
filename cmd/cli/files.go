package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/app"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/types"
)

// runFlags are the flags shared by every command that runs the pipeline
type runFlags struct {
	paths     map[types.SupplierID]*string
	margin    float64
	strategy  string
	rate      float64
	fetchRate bool
}

func addRunFlags(cmd *cobra.Command) *runFlags {
	f := &runFlags{paths: make(map[types.SupplierID]*string, len(types.SupplierIDs))}
	for _, id := range types.SupplierIDs {
		f.paths[id] = cmd.Flags().String(string(id), "", fmt.Sprintf("%s price list (CSV, XLSX or ZIP)", config.Label(id)))
	}
	cmd.Flags().Float64Var(&f.margin, "margin", -1, "Margin percentage for the sale price simulation (default from config)")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Join strategy: anchor or full (default from config)")
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "Exchange rate in local currency per USD (default from config)")
	cmd.Flags().BoolVar(&f.fetchRate, "fetch-rate", false, "Fetch the official exchange rate before processing")
	return f
}

// sources reads every given path. A path that cannot be read becomes a
// failed supplier report and the other suppliers still run; the error is
// only returned when no file could be read at all.
func (f *runFlags) sources() (map[types.SupplierID]pipeline.Source, []pipeline.SupplierReport, error) {
	files := make(map[types.SupplierID]pipeline.Source)
	var failed []pipeline.SupplierReport
	for _, id := range types.SupplierIDs {
		path := *f.paths[id]
		if path == "" {
			continue
		}
		src, err := pipeline.ReadSource(path)
		if err != nil {
			failed = append(failed, pipeline.SupplierReport{
				Supplier: id,
				Label:    config.Label(id),
				Filename: filepath.Base(path),
				Error:    err.Error(),
			})
			continue
		}
		files[id] = src
	}
	if len(files) == 0 {
		if len(failed) > 0 {
			msgs := make([]string, len(failed))
			for i, rep := range failed {
				msgs[i] = rep.Error
			}
			return nil, failed, fmt.Errorf("no supplier file could be read: %s", strings.Join(msgs, "; "))
		}
		names := make([]string, len(types.SupplierIDs))
		for i, id := range types.SupplierIDs {
			names[i] = "--" + string(id)
		}
		return nil, nil, fmt.Errorf("no supplier files given, use one or more of %s", strings.Join(names, ", "))
	}
	return files, failed, nil
}

func (f *runFlags) settings(cmd *cobra.Command) (pipeline.Settings, error) {
	s, err := cfg.Settings()
	if err != nil {
		return s, err
	}
	s.FetchRate = f.fetchRate
	if cmd.Flags().Changed("margin") {
		s = s.WithMargin(f.margin)
	}
	if f.strategy != "" {
		strategy, err := engine.ParseJoinStrategy(f.strategy)
		if err != nil {
			return s, err
		}
		s = s.WithJoinStrategy(strategy)
	}
	if f.rate > 0 {
		s = s.WithExchangeRate(f.rate)
	}
	return s, s.Validate()
}

// progressPrinter reports run progress on stderr
type progressPrinter struct{}

func (progressPrinter) OnProgress(message string, pct int) {
	fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", pct, message)
}

func (progressPrinter) OnError(stage, message string) {
	fmt.Fprintf(os.Stderr, "error (%s): %s\n", stage, message)
}

func (progressPrinter) OnComplete(*pipeline.Result) {}

// execute runs the pipeline with the files and settings from the flags
func (f *runFlags) execute(cmd *cobra.Command, export bool) (*pipeline.Result, error) {
	files, unreadable, err := f.sources()
	if err != nil {
		return nil, err
	}
	settings, err := f.settings(cmd)
	if err != nil {
		return nil, err
	}
	settings.Export = export

	runner, err := app.NewOrchestrator(cfg, nil)
	if err != nil {
		return nil, err
	}
	printer := progressPrinter{}
	for _, rep := range unreadable {
		printer.OnError(rep.Label, rep.Error)
	}
	result, err := runner.Run(cmd.Context(), files, settings, printer)
	if err != nil {
		return nil, err
	}
	result.Reports = mergeReports(result.Reports, unreadable)
	return result, nil
}

// mergeReports adds the reports of unreadable files to a run's reports,
// keeping supplier declaration order
func mergeReports(reports, unreadable []pipeline.SupplierReport) []pipeline.SupplierReport {
	out := append(reports, unreadable...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Supplier.Order() < out[j].Supplier.Order()
	})
	return out
}
