// Package pipeline orchestrates one analysis run: read rows from the
// archive, enrich them, aggregate, render charts, and write the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/accident-insights/internal/analysis"
	"github.com/couchcryptid/accident-insights/internal/domain"
	"github.com/couchcryptid/accident-insights/internal/observability"
)

// RowReader yields raw CSV rows from the source archive. Read returns io.EOF
// when the source is exhausted or the row cap is reached.
type RowReader interface {
	Header() []string
	Read() (domain.RawRow, error)
	Close() error
}

// Exporter publishes enriched records to a downstream destination.
type Exporter interface {
	ExportBatch(ctx context.Context, records []domain.AccidentRecord) error
}

// ChartRenderer turns an aggregate summary into chart files.
type ChartRenderer interface {
	RenderAll(s *analysis.Summary) ([]string, error)
}

// Reporter writes the text summary for a finished run.
type Reporter interface {
	Write(ctx context.Context, s *analysis.Summary, chartFiles []string, outDir string) (string, error)
}

// Result describes what one run produced.
type Result struct {
	RowsRead        int
	RowsWithoutTime int
	RecordsExported int
	ChartFiles      []string
	ReportFile      string
}

// Pipeline runs the load-aggregate-render-report sequence. The exporter is
// optional; a nil exporter disables the export stage.
type Pipeline struct {
	reader          RowReader
	exporter        Exporter
	renderer        ChartRenderer
	reporter        Reporter
	outDir          string
	exportBatchSize int
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(reader RowReader, exporter Exporter, renderer ChartRenderer, reporter Reporter,
	outDir string, exportBatchSize int, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		reader:          reader,
		exporter:        exporter,
		renderer:        renderer,
		reporter:        reporter,
		outDir:          outDir,
		exportBatchSize: exportBatchSize,
		logger:          logger,
		metrics:         metrics,
	}
}

// Run executes one full analysis pass.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	agg, err := p.loadAndAggregate(ctx, result)
	if err != nil {
		return nil, err
	}
	if result.RowsRead == 0 {
		return nil, errors.New("source contains no data rows")
	}

	summary := p.timeSummary(agg)

	start := time.Now()
	charts, err := p.renderer.RenderAll(summary)
	p.metrics.StageDuration.WithLabelValues("render").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	result.ChartFiles = charts

	start = time.Now()
	reportFile, err := p.reporter.Write(ctx, summary, charts, p.outDir)
	p.metrics.StageDuration.WithLabelValues("report").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	result.ReportFile = reportFile

	p.logger.Info("analysis complete",
		"rows", result.RowsRead,
		"charts", len(result.ChartFiles),
		"report", result.ReportFile,
	)
	return result, nil
}

// loadAndAggregate drains the reader, enriching rows into the aggregator and
// exporting them in batches when an exporter is configured.
func (p *Pipeline) loadAndAggregate(ctx context.Context, result *Result) (*analysis.Aggregator, error) {
	start := time.Now()
	defer func() {
		p.metrics.StageDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	}()
	defer p.reader.Close()

	agg := analysis.NewAggregator(p.reader.Header())

	var exportBatch []domain.AccidentRecord
	if p.exporter != nil {
		exportBatch = make([]domain.AccidentRecord, 0, p.exportBatchSize)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := domain.EnrichAccident(domain.ParseRow(row))
		result.RowsRead++
		p.metrics.RowsRead.Inc()
		if !rec.HasTime {
			result.RowsWithoutTime++
			p.metrics.RowsWithoutTime.Inc()
		}

		agg.Add(rec)

		if p.exporter != nil {
			exportBatch = append(exportBatch, rec)
			if len(exportBatch) >= p.exportBatchSize {
				p.flushExport(ctx, exportBatch, result)
				exportBatch = exportBatch[:0]
			}
		}
	}

	if p.exporter != nil && len(exportBatch) > 0 {
		p.flushExport(ctx, exportBatch, result)
	}

	return agg, nil
}

// flushExport publishes one batch. Export failures are logged and counted but
// never fail the run; the analysis outputs do not depend on the export.
func (p *Pipeline) flushExport(ctx context.Context, batch []domain.AccidentRecord, result *Result) {
	start := time.Now()
	err := p.exporter.ExportBatch(ctx, batch)
	p.metrics.StageDuration.WithLabelValues("export").Observe(time.Since(start).Seconds())
	if err != nil {
		p.logger.Error("export batch failed", "error", err, "batch_size", len(batch))
		p.metrics.ExportErrors.Inc()
		return
	}
	result.RecordsExported += len(batch)
	p.metrics.RecordsExported.Add(float64(len(batch)))
}

func (p *Pipeline) timeSummary(agg *analysis.Aggregator) *analysis.Summary {
	start := time.Now()
	summary := agg.Summary()
	p.metrics.StageDuration.WithLabelValues("aggregate").Observe(time.Since(start).Seconds())
	return summary
}
