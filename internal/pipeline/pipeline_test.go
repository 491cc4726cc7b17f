package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-insights/internal/analysis"
	"github.com/couchcryptid/accident-insights/internal/domain"
	"github.com/couchcryptid/accident-insights/internal/observability"
	"github.com/couchcryptid/accident-insights/internal/pipeline"
)

// --- mocks ---

type sliceReader struct {
	header []string
	rows   []domain.RawRow
	index  int
	closed bool
}

func (r *sliceReader) Header() []string { return r.header }

func (r *sliceReader) Read() (domain.RawRow, error) {
	if r.index >= len(r.rows) {
		return domain.RawRow{}, io.EOF
	}
	row := r.rows[r.index]
	r.index++
	return row, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

type mockExporter struct {
	batches [][]string // record IDs per ExportBatch call
	err     error
}

func (m *mockExporter) ExportBatch(_ context.Context, records []domain.AccidentRecord) error {
	if m.err != nil {
		return m.err
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	m.batches = append(m.batches, ids)
	return nil
}

type stubRenderer struct {
	files   []string
	err     error
	summary *analysis.Summary
}

func (s *stubRenderer) RenderAll(sum *analysis.Summary) ([]string, error) {
	s.summary = sum
	return s.files, s.err
}

type stubReporter struct {
	charts []string
	outDir string
	err    error
}

func (s *stubReporter) Write(_ context.Context, _ *analysis.Summary, chartFiles []string, outDir string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.charts = chartFiles
	s.outDir = outDir
	return "analysis_summary.txt", nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

var testHeader = []string{domain.ColID, domain.ColSeverity, domain.ColStartTime}

func makeRow(line int, id, severity, startTime string) domain.RawRow {
	return domain.RawRow{
		Line: line,
		Fields: map[string]string{
			domain.ColID:        id,
			domain.ColSeverity:  severity,
			domain.ColStartTime: startTime,
		},
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	reader := &sliceReader{
		header: testHeader,
		rows: []domain.RawRow{
			makeRow(2, "A-1", "2", "2024-04-26 08:30:00"),
			makeRow(3, "A-2", "3", "2024-04-26 17:05:00"),
			makeRow(4, "A-3", "2", "not-a-timestamp"),
		},
	}
	renderer := &stubRenderer{files: []string{"time_pattern_analysis.png", "severity_analysis.png"}}
	reporter := &stubReporter{}

	p := pipeline.New(reader, nil, renderer, reporter, "/tmp/out", 100, slog.Default(), newTestMetrics())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.RowsRead)
	assert.Equal(t, 1, result.RowsWithoutTime)
	assert.Equal(t, 0, result.RecordsExported)
	assert.Equal(t, renderer.files, result.ChartFiles)
	assert.Equal(t, "analysis_summary.txt", result.ReportFile)
	assert.True(t, reader.closed)

	require.NotNil(t, renderer.summary)
	assert.Equal(t, 3, renderer.summary.TotalRows)
	assert.Equal(t, 2, renderer.summary.TimedRows)

	assert.Equal(t, renderer.files, reporter.charts)
	assert.Equal(t, "/tmp/out", reporter.outDir)
}

func TestPipeline_Run_ExportBatching(t *testing.T) {
	reader := &sliceReader{
		header: testHeader,
		rows: []domain.RawRow{
			makeRow(2, "A-1", "2", "2024-04-26 08:30:00"),
			makeRow(3, "A-2", "3", "2024-04-26 09:30:00"),
			makeRow(4, "A-3", "4", "2024-04-26 10:30:00"),
		},
	}
	exporter := &mockExporter{}

	p := pipeline.New(reader, exporter, &stubRenderer{}, &stubReporter{}, t.TempDir(), 2, slog.Default(), newTestMetrics())

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.RecordsExported)
	want := [][]string{{"A-1", "A-2"}, {"A-3"}}
	if diff := cmp.Diff(want, exporter.batches); diff != "" {
		t.Errorf("export batches mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Run_ExportFailureDoesNotFailRun(t *testing.T) {
	reader := &sliceReader{
		header: testHeader,
		rows:   []domain.RawRow{makeRow(2, "A-1", "2", "2024-04-26 08:30:00")},
	}
	exporter := &mockExporter{err: errors.New("broker unreachable")}

	p := pipeline.New(reader, exporter, &stubRenderer{}, &stubReporter{}, t.TempDir(), 10, slog.Default(), newTestMetrics())

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsRead)
	assert.Equal(t, 0, result.RecordsExported)
	assert.Equal(t, "analysis_summary.txt", result.ReportFile)
}

func TestPipeline_Run_EmptySource(t *testing.T) {
	reader := &sliceReader{header: testHeader}

	p := pipeline.New(reader, nil, &stubRenderer{}, &stubReporter{}, t.TempDir(), 10, slog.Default(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
	assert.True(t, reader.closed)
}

func TestPipeline_Run_ContextCancelled(t *testing.T) {
	reader := &sliceReader{
		header: testHeader,
		rows:   []domain.RawRow{makeRow(2, "A-1", "2", "2024-04-26 08:30:00")},
	}

	p := pipeline.New(reader, nil, &stubRenderer{}, &stubReporter{}, t.TempDir(), 10, slog.Default(), newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Run_RenderErrorPropagates(t *testing.T) {
	reader := &sliceReader{
		header: testHeader,
		rows:   []domain.RawRow{makeRow(2, "A-1", "2", "2024-04-26 08:30:00")},
	}
	renderer := &stubRenderer{err: errors.New("disk full")}

	p := pipeline.New(reader, nil, renderer, &stubReporter{}, t.TempDir(), 10, slog.Default(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render charts")
}

func TestPipeline_Run_ReportErrorPropagates(t *testing.T) {
	reader := &sliceReader{
		header: testHeader,
		rows:   []domain.RawRow{makeRow(2, "A-1", "2", "2024-04-26 08:30:00")},
	}
	reporter := &stubReporter{err: errors.New("permission denied")}

	p := pipeline.New(reader, nil, &stubRenderer{}, reporter, t.TempDir(), 10, slog.Default(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write report")
}
