// Package pipeline runs one processing pass: exchange rate, per-supplier
// parsing, currency conversion, consolidation and the optional export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/adapters/registry"
	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/currency"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/ingestion/zip"
	"github.com/farmaintel/price-service/internal/metrics"
	"github.com/farmaintel/price-service/internal/storage"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoSupplierData is returned when no supplier file produced records
var ErrNoSupplierData = errors.New("no supplier file could be parsed")

// Source is one uploaded supplier file. ZIP archives are expanded and the
// price list inside them is parsed.
type Source struct {
	Filename string
	Content  []byte
}

// ReadSource loads a Source from disk
func ReadSource(path string) (Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Source{Filename: filepath.Base(path), Content: content}, nil
}

// RateSource provides the current exchange rate
type RateSource interface {
	FetchRate(ctx context.Context) (float64, error)
}

// Exporter writes a catalog report and returns where it went
type Exporter interface {
	Export(ctx context.Context, c *catalog.Catalog, rate float64) (string, error)
}

// SupplierReport summarises the parse of one supplier file
type SupplierReport struct {
	Supplier  types.SupplierID         `json:"supplier"`
	Label     string                   `json:"label"`
	Filename  string                   `json:"filename"`
	Records   int                      `json:"records"`
	TotalRows int                      `json:"totalRows"`
	HeaderRow int                      `json:"headerRow"`
	Skipped   map[types.SkipReason]int `json:"skipped,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Duration  time.Duration            `json:"duration"`
}

// Result is the outcome of a completed run
type Result struct {
	RunID      string           `json:"runId"`
	Settings   Settings         `json:"settings"`
	Engine     *engine.Engine   `json:"-"`
	Summary    *engine.Summary  `json:"summary"`
	Reports    []SupplierReport `json:"reports"`
	Converted  int              `json:"converted"`
	ReportPath string           `json:"reportPath,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	Duration   time.Duration    `json:"duration"`
}

// Failed returns the reports of suppliers whose file could not be parsed
func (r *Result) Failed() []SupplierReport {
	var out []SupplierReport
	for _, rep := range r.Reports {
		if rep.Error != "" {
			out = append(out, rep)
		}
	}
	return out
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRegistry sets the parser registry
func WithRegistry(r *registry.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithRateSource sets where fresh exchange rates come from
func WithRateSource(rs RateSource) Option {
	return func(o *Orchestrator) { o.rates = rs }
}

// WithExporter sets the report exporter
func WithExporter(x Exporter) Option {
	return func(o *Orchestrator) { o.exporter = x }
}

// WithStorage archives every uploaded file under the run id
func WithStorage(s storage.Storage) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator runs processing passes. A single Orchestrator may run
// passes concurrently; each run owns its engine.
type Orchestrator struct {
	registry *registry.Registry
	rates    RateSource
	exporter Exporter
	store    storage.Storage
	metrics  *metrics.Recorder
	tracer   trace.Tracer
	now      func() time.Time
}

// New creates an orchestrator using the default registry
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry.DefaultRegistry,
		metrics:  metrics.NewRecorder(),
		tracer:   otel.Tracer("github.com/farmaintel/price-service/internal/pipeline"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one pass over files. Per-supplier failures are reported to
// the listener and the run carries on without that supplier. Any other
// failure, including a panic, is reported once as StageGeneral and returned;
// OnComplete is not called in that case.
func (o *Orchestrator) Run(ctx context.Context, files map[types.SupplierID]Source, settings Settings, l Listener) (*Result, error) {
	if l == nil {
		l = Funcs{}
	}
	started := o.now()
	runID := uuid.NewString()

	ctx, span := o.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.files", len(files)),
	))
	defer span.End()

	logger := log.With().Str("runId", runID).Logger()
	logger.Info().Int("files", len(files)).Float64("marginPct", settings.MarginPct).
		Str("strategy", string(settings.JoinStrategy)).Msg("Starting processing run")

	result, err := o.safeRun(ctx, runID, files, settings, l)
	duration := o.now().Sub(started)
	o.metrics.RecordRun(duration, err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Dur("duration", duration).Msg("Processing run failed")
		l.OnError(StageGeneral, err.Error())
		return nil, err
	}

	result.StartedAt = started
	result.Duration = duration
	logger.Info().
		Int("products", result.Engine.Catalog().Len()).
		Int("failed", len(result.Failed())).
		Dur("duration", duration).
		Msg("Processing run complete")

	l.OnComplete(result)
	return result, nil
}

func (o *Orchestrator) safeRun(ctx context.Context, runID string, files map[types.SupplierID]Source, settings Settings, l Listener) (result *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("processing run panicked: %v", rec)
		}
	}()
	return o.run(ctx, runID, files, settings, l)
}

func (o *Orchestrator) run(ctx context.Context, runID string, files map[types.SupplierID]Source, settings Settings, l Listener) (*Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if settings.Anchor == "" {
		settings.Anchor = types.SupplierDroactiva
	}

	l.OnProgress("Fetching exchange rate", 5)
	settings = o.resolveRate(ctx, settings, l)
	l.OnProgress(fmt.Sprintf("Exchange rate: %.4f", settings.ExchangeRate), 10)
	o.metrics.RecordExchangeRate(settings.ExchangeRate)

	result := &Result{RunID: runID, Settings: settings}
	raw := make(engine.RawData, len(files))

	ordered := orderedSuppliers(files)
	for i, id := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := config.Label(id)
		l.OnProgress("Parsing "+label, 10+(i+1)*60/len(ordered))

		rep, records := o.parseSupplier(ctx, runID, id, files[id])
		result.Reports = append(result.Reports, rep)
		if rep.Error != "" {
			l.OnError(label, rep.Error)
			continue
		}
		raw[id] = records
	}
	if len(raw) == 0 {
		return nil, ErrNoSupplierData
	}

	result.Converted = currency.ConvertAll(raw, settings.ExchangeRate)
	if result.Converted > 0 {
		log.Info().Int("records", result.Converted).Float64("rate", settings.ExchangeRate).Msg("Converted local-currency prices")
	}

	l.OnProgress("Consolidating catalog", 75)
	_, span := o.tracer.Start(ctx, "pipeline.Consolidate")
	eng := engine.New(engine.WithAnchor(settings.Anchor))
	err := eng.Process(raw, settings.MarginPct, settings.JoinStrategy)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("consolidate: %w", err)
	}
	result.Engine = eng
	result.Summary = eng.Summary()

	l.OnProgress("Analyzing competitiveness", 85)
	o.metrics.RecordCatalog(eng.Catalog().Len(), eng.Universal().Len(), eng.ComparableProducts())

	if settings.Export && o.exporter != nil {
		l.OnProgress("Exporting report", 90)
		path, err := o.exporter.Export(ctx, eng.Catalog(), settings.ExchangeRate)
		if err != nil {
			return nil, fmt.Errorf("export report: %w", err)
		}
		result.ReportPath = path
		o.archiveReport(ctx, runID, path)
	}

	l.OnProgress("Done", 100)
	return result, nil
}

// orderedSuppliers lists the suppliers of files in declaration order
func orderedSuppliers(files map[types.SupplierID]Source) []types.SupplierID {
	ids := make([]types.SupplierID, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if oi, oj := ids[i].Order(), ids[j].Order(); oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// resolveRate returns settings with the fetched rate when fetching is
// requested and succeeds. On failure the snapshot rate stays; a warning is
// reported when that rate cannot convert anything.
func (o *Orchestrator) resolveRate(ctx context.Context, settings Settings, l Listener) Settings {
	if !settings.FetchRate || o.rates == nil {
		return settings
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.FetchRate")
	defer span.End()

	rate, err := o.rates.FetchRate(ctx)
	if err == nil && rate > 0 {
		o.metrics.RecordRateFetch(true)
		return settings.WithExchangeRate(rate)
	}

	o.metrics.RecordRateFetch(false)
	if err != nil {
		span.RecordError(err)
	}
	if !currency.IsUsable(settings.ExchangeRate) {
		l.OnError(StageRate, "Could not fetch the exchange rate; local-currency prices will not be converted")
	}
	return settings
}

// parseSupplier archives, expands and parses one source. Failures are
// returned in the report, never as a panic or error.
func (o *Orchestrator) parseSupplier(ctx context.Context, runID string, id types.SupplierID, src Source) (rep SupplierReport, records []*types.SupplierRecord) {
	started := o.now()
	rep = SupplierReport{Supplier: id, Label: config.Label(id), Filename: src.Filename}

	ctx, span := o.tracer.Start(ctx, "pipeline.Parse", trace.WithAttributes(
		attribute.String("supplier", string(id)),
		attribute.String("filename", src.Filename),
	))
	defer func() {
		if rec := recover(); rec != nil {
			rep.Error = fmt.Sprintf("parser panicked: %v", rec)
			records = nil
		}
		rep.Duration = o.now().Sub(started)
		if rep.Error != "" {
			span.SetStatus(codes.Error, rep.Error)
			o.metrics.RecordParseError(string(id))
			log.Warn().Str("supplier", string(id)).Str("file", src.Filename).Str("error", rep.Error).Msg("Supplier file failed")
		}
		span.End()
	}()

	if !id.Valid() {
		rep.Error = fmt.Sprintf("unknown supplier %q", id)
		return rep, nil
	}
	if len(src.Content) == 0 {
		rep.Error = "empty file"
		return rep, nil
	}

	filename, content, err := o.unpack(ctx, runID, id, src)
	if err != nil {
		rep.Error = err.Error()
		return rep, nil
	}
	rep.Filename = filename

	parser, err := o.registry.GetOrInit(id)
	if err != nil {
		rep.Error = err.Error()
		return rep, nil
	}

	parsed, err := parser.Parse(content, filename)
	if err != nil {
		rep.Error = err.Error()
		return rep, nil
	}

	rep.Records = len(parsed.Records)
	rep.TotalRows = parsed.TotalRows
	rep.HeaderRow = parsed.HeaderRow
	rep.Skipped = parsed.SkipCounts()
	for _, w := range parsed.Warnings {
		rep.Warnings = append(rep.Warnings, w.Message)
	}

	skipped := make(map[string]int, len(rep.Skipped))
	for reason, n := range rep.Skipped {
		skipped[string(reason)] = n
	}
	o.metrics.RecordParse(string(id), o.now().Sub(started), rep.Records, skipped)
	if rep.Records == 0 {
		rep.Error = fmt.Sprintf("no valid price rows in %d rows", rep.TotalRows)
		return rep, nil
	}

	log.Info().
		Str("supplier", string(id)).
		Str("file", filename).
		Int("records", rep.Records).
		Int("rows", rep.TotalRows).
		Int("skipped", len(parsed.Skipped)).
		Msg("Parsed supplier file")

	return rep, parsed.Records
}

// archiveReport copies an exported report next to the run's uploads.
// Failures only cost the archive copy.
func (o *Orchestrator) archiveReport(ctx context.Context, runID, path string) {
	if o.store == nil || path == "" {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read exported report")
		return
	}
	date := o.now()
	name := filepath.Base(path)
	key := storage.BuildReportKey(runID, date, name)
	meta := &storage.Metadata{
		ContentType:  zip.DetectContentType(name),
		OriginalName: name,
		RunID:        runID,
		ReceivedAt:   date,
	}
	if err := o.store.Put(ctx, key, content, meta); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to archive report")
	}
}

// unpack archives the upload and, for ZIP archives, picks the price list
// inside it
func (o *Orchestrator) unpack(ctx context.Context, runID string, id types.SupplierID, src Source) (string, []byte, error) {
	date := o.now()
	if o.store != nil {
		key := storage.BuildUploadKey(id, runID, date, src.Filename)
		meta := &storage.Metadata{
			ContentType:  zip.DetectContentType(src.Filename),
			OriginalName: src.Filename,
			Supplier:     id,
			RunID:        runID,
			ReceivedAt:   date,
		}
		if err := o.store.Put(ctx, key, src.Content, meta); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to archive upload")
		}
	}

	if !zip.IsZip(src.Filename, src.Content) {
		return src.Filename, src.Content, nil
	}

	expanded, err := zip.NewExpander(o.store, zip.DefaultExpandOptions()).
		ExpandAndStore(ctx, src.Content, id, runID, date, src.Filename)
	if err != nil {
		return "", nil, err
	}

	preferred := types.FileTypeXLSX
	if cfg, ok := config.GetSupplierConfig(id); ok {
		preferred = cfg.PrimaryFileType
	}
	file, err := zip.PickPriceList(expanded, preferred)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", src.Filename, err)
	}
	return file.InnerFilename, file.Content, nil
}
