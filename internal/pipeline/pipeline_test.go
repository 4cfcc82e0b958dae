package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsheet/internal/analytics"
	"factsheet/internal/config"
	reporterrors "factsheet/internal/errors"
	"factsheet/internal/funds"
	"factsheet/internal/linkcode"
	"factsheet/internal/render"
	"factsheet/internal/report"
	"factsheet/internal/shared/testutil"
	"factsheet/pkg/contracts/domain"
)

// recordingSink keeps every status update; nil marks a Clear.
type recordingSink struct {
	mu      sync.Mutex
	entries []*string
}

func (s *recordingSink) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &text)
}

func (s *recordingSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, nil)
}

func (s *recordingSink) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.entries {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func (s *recordingSink) cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries) > 0 && s.entries[len(s.entries)-1] == nil
}

type fakeHost struct {
	mu        sync.Mutex
	renders   []render.RenderRequest
	exports   []render.ExportRequest
	renderErr error
	exportErr error
	closed    int
}

func (h *fakeHost) Render(_ context.Context, req render.RenderRequest) (render.Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renders = append(h.renders, req)
	if h.renderErr != nil {
		return nil, h.renderErr
	}
	if err := os.WriteFile(req.OutputPath, []byte("xlsx"), 0644); err != nil {
		return nil, err
	}
	return &fakeDocument{host: h, path: req.OutputPath}, nil
}

func (h *fakeHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

type fakeDocument struct {
	host *fakeHost
	path string
}

func (d *fakeDocument) Path() string { return d.path }

func (d *fakeDocument) Export(_ context.Context, req render.ExportRequest) error {
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	d.host.exports = append(d.host.exports, req)
	if d.host.exportErr != nil {
		return d.host.exportErr
	}
	return os.WriteFile(req.Path, []byte("%PDF-1.4"), 0644)
}

type countingData struct {
	DataSource
	mu    sync.Mutex
	funds []domain.FundID
}

func (c *countingData) LoadFund(ctx context.Context, fd domain.FundDir) (domain.RawFundData, error) {
	c.mu.Lock()
	c.funds = append(c.funds, fd.Fund)
	c.mu.Unlock()
	return c.DataSource.LoadFund(ctx, fd)
}

type fakePublisher struct {
	calls []string
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, path string, fund domain.FundID, upload bool) (bool, error) {
	if !upload {
		return false, nil
	}
	p.calls = append(p.calls, path)
	if p.err != nil {
		return false, reporterrors.Publish(fund.String(), p.err)
	}
	return true, nil
}

type harness struct {
	layout    config.Layout
	host      *fakeHost
	hostCalls int
	data      *countingData
	publisher *fakePublisher
	sink      *recordingSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	layout := config.NewLayout(t.TempDir())
	require.NoError(t, os.MkdirAll(layout.FundsDir, 0755))
	require.NoError(t, funds.WriteDocx(layout.IntroFile(), []string{"# Welcome", "Our funds."}))
	testutil.WriteFile(t, layout.DisclaimerFile(), "*Past performance is no guarantee.*")

	return &harness{
		layout:    layout,
		host:      &fakeHost{},
		data:      &countingData{DataSource: funds.NewAcquirer(layout, nil)},
		publisher: &fakePublisher{},
		sink:      &recordingSink{},
	}
}

func (h *harness) addFund(t *testing.T, name string) {
	testutil.WriteFund(t, h.layout.FundsDir, name, testutil.SampleHoldingsCSV, testutil.SampleHistoryCSV)
}

func (h *harness) addBrokenFund(t *testing.T, name string) {
	testutil.WriteFund(t, h.layout.FundsDir, name, testutil.SampleHoldingsCSV,
		"Date,Fund\n2021-01-31,0\n2021-02-28,10\n")
}

func (h *harness) pipeline(policy BatchPolicy) *Pipeline {
	style := linkcode.Style{FinderColor: "#15a43a", Scale: 2}
	return New(Deps{
		Layout:   h.layout,
		Selector: funds.NewSelector(h.layout.FundsDir, nil),
		Data:     h.data,
		Deriver:  analytics.NewDeriver(nil),
		Links: func(dir string) LinkGenerator {
			return linkcode.NewGenerator("www.xlwings.org", style, linkcode.StaticPolicy(domain.ArtifactPNG), dir, nil)
		},
		Assembler: report.NewAssembler(report.TextPolicy{HeadingSize: 11, HeadingColor: "#15a43a"}, nil),
		Hosts: func(context.Context) (render.Host, error) {
			h.hostCalls++
			return h.host, nil
		},
		Publisher: h.publisher,
		Sink:      h.sink,
	}, policy)
}

func TestRunAllFunds(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")
	h.addFund(t, "Fund B")

	result, err := h.pipeline(AbortOnError).Run(context.Background(), domain.Settings{FundSelection: domain.AllFunds})

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{
		filepath.Join(h.layout.PDFDir, "Fund A.pdf"),
		filepath.Join(h.layout.PDFDir, "Fund B.pdf"),
	}, result.Documents())
	for _, doc := range result.Documents() {
		assert.FileExists(t, doc)
	}
	assert.FileExists(t, filepath.Join(h.layout.XLSXDir, "Fund A.xlsx"))

	assert.Equal(t, 1, h.hostCalls, "one host per run")
	assert.Equal(t, 1, h.host.closed)
	assert.Empty(t, h.publisher.calls)

	texts := h.sink.texts()
	for _, fund := range []string{"Fund A", "Fund B"} {
		want := []string{
			"Preparing Data: " + fund,
			"Creating Excel Report: " + fund,
			"Creating PDF Report: " + fund,
			"Finished: " + fund,
		}
		assert.Equal(t, want, subsequence(texts, want), "status sequence for %s", fund)
	}
	assert.True(t, h.sink.cleared(), "status cleared on exit")

	m, err := ReadManifest(h.layout.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, ManifestCompleted, m.Status)
	assert.Len(t, m.Funds, 2)
}

func TestRunPassesBundleAndPaths(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")

	_, err := h.pipeline(AbortOnError).Run(context.Background(),
		domain.Settings{FundSelection: "Fund A", OpenExportedDocument: true})
	require.NoError(t, err)

	require.Len(t, h.host.renders, 1)
	req := h.host.renders[0]
	assert.Equal(t, h.layout.TemplateFile(), req.TemplatePath)
	assert.Equal(t, "Fund A", req.Values[domain.ValueFundName])
	assert.Equal(t, "0.2100", req.Values[domain.ValueFundReturn].(decimal.Decimal).StringFixed(4))

	artifact := req.Values[domain.ValueQRCode].(domain.LinkArtifact)
	assert.Equal(t, "https://www.xlwings.org/funds/Fund-A", artifact.URL)

	require.Len(t, h.host.exports, 1)
	assert.Equal(t, h.layout.PageLayoutFile(), h.host.exports[0].LayoutPath)
	assert.True(t, h.host.exports[0].Show)
}

func TestRunUnknownFundFailsBeforeAcquisition(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")

	result, err := h.pipeline(AbortOnError).Run(context.Background(), domain.Settings{FundSelection: "Fund C"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, reporterrors.ErrNotFound))
	assert.Empty(t, h.data.funds)
	assert.Equal(t, 0, h.hostCalls)
	assert.Empty(t, result.Outcomes)
	assert.NoDirExists(t, h.layout.PDFDir)
	assert.NoFileExists(t, h.layout.ManifestPath())
	assert.True(t, h.sink.cleared())
}

func TestRunInvalidSettings(t *testing.T) {
	h := newHarness(t)

	result, err := h.pipeline(AbortOnError).Run(context.Background(), domain.Settings{FundSelection: "../etc"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, reporterrors.KindInvalidSettings, reporterrors.KindOf(err))
	assert.True(t, h.sink.cleared())
}

func TestRunAbortOnError(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")
	h.addBrokenFund(t, "Fund B")
	h.addFund(t, "Fund C")

	result, err := h.pipeline(AbortOnError).Run(context.Background(), domain.Settings{FundSelection: domain.AllFunds})

	require.Error(t, err)
	assert.True(t, errors.Is(err, reporterrors.ErrInvalidData))
	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].OK())
	assert.Equal(t, StagePreprocessing, result.Outcomes[1].FailedStage)
	assert.Equal(t, []domain.FundID{"Fund A", "Fund B"}, h.data.funds)
	assert.NoFileExists(t, h.layout.DocumentPath("Fund C"))
	assert.Equal(t, 1, h.host.closed, "host released on failure")
	assert.True(t, h.sink.cleared())

	var re *reporterrors.ReportError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Fund B", re.Fund)
}

func TestRunContinueOnError(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")
	h.addBrokenFund(t, "Fund B")
	h.addFund(t, "Fund C")

	result, err := h.pipeline(ContinueOnError).Run(context.Background(), domain.Settings{FundSelection: domain.AllFunds})

	require.Error(t, err)
	assert.True(t, errors.Is(err, reporterrors.ErrInvalidData))
	require.Len(t, result.Outcomes, 3)
	assert.Len(t, result.Failed(), 1)
	assert.FileExists(t, h.layout.DocumentPath("Fund A"))
	assert.FileExists(t, h.layout.DocumentPath("Fund C"))

	m, err := ReadManifest(h.layout.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, ManifestPartial, m.Status)
	assert.Equal(t, string(reporterrors.KindInvalidData), m.Funds[1].ErrorKind)
}

func TestRunPublishFailureKeepsDocument(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")
	h.publisher.err = errors.New("bucket unavailable")

	result, err := h.pipeline(AbortOnError).Run(context.Background(),
		domain.Settings{FundSelection: "Fund A", UploadExportedDocument: true})

	require.Error(t, err)
	assert.True(t, reporterrors.IsPublish(err))
	require.Len(t, result.Outcomes, 1)
	out := result.Outcomes[0]
	assert.True(t, out.Exported)
	assert.Contains(t, out.Digest, "blake2b-256:")
	assert.False(t, out.Published)
	assert.Equal(t, StagePublishing, out.FailedStage)
	assert.FileExists(t, out.Document)
	assert.Contains(t, h.sink.texts(), "Uploading: Fund A")
	assert.NotContains(t, h.sink.texts(), "Finished: Fund A")
}

func TestRunPublishes(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")

	result, err := h.pipeline(AbortOnError).Run(context.Background(),
		domain.Settings{FundSelection: "Fund A", UploadExportedDocument: true})

	require.NoError(t, err)
	assert.True(t, result.Outcomes[0].Published)
	assert.Equal(t, []string{h.layout.DocumentPath("Fund A")}, h.publisher.calls)
}

func TestRunRenderAndExportErrors(t *testing.T) {
	tests := []struct {
		name      string
		renderErr error
		exportErr error
		kind      reporterrors.Kind
		stage     Stage
	}{
		{"render", errors.New("bad template"), nil, reporterrors.KindRender, StageRendering},
		{"export", nil, errors.New("printer crashed"), reporterrors.KindExport, StageExporting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.addFund(t, "Fund A")
			h.host.renderErr = tt.renderErr
			h.host.exportErr = tt.exportErr

			result, err := h.pipeline(AbortOnError).Run(context.Background(), domain.Settings{FundSelection: "Fund A"})

			require.Error(t, err)
			assert.Equal(t, tt.kind, reporterrors.KindOf(err))
			assert.False(t, reporterrors.IsPublish(err))
			assert.Equal(t, tt.stage, result.Outcomes[0].FailedStage)
			assert.False(t, result.Outcomes[0].Exported)
		})
	}
}

func TestRunMissingBoilerplate(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")
	require.NoError(t, os.Remove(h.layout.DisclaimerFile()))

	_, err := h.pipeline(AbortOnError).Run(context.Background(), domain.Settings{FundSelection: domain.AllFunds})

	require.Error(t, err)
	assert.True(t, errors.Is(err, reporterrors.ErrMissingInput))
	assert.Empty(t, h.data.funds)
	assert.Equal(t, 0, h.hostCalls)
}

func TestRunCancelledBetweenFunds(t *testing.T) {
	h := newHarness(t)
	h.addFund(t, "Fund A")
	h.addFund(t, "Fund B")

	ctx, cancel := context.WithCancel(context.Background())
	p := h.pipeline(ContinueOnError)
	p.sink = MultiSink{h.sink, StatusFunc(func(text string) {
		if text == "Finished: Fund A" {
			cancel()
		}
	})}

	result, err := p.Run(ctx, domain.Settings{FundSelection: domain.AllFunds})

	require.Error(t, err)
	assert.True(t, errors.Is(err, reporterrors.ErrCancelled))
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, domain.FundID("Fund A"), result.Outcomes[0].Fund)
	assert.Equal(t, 1, h.host.closed)
}

func TestRunEmptySelection(t *testing.T) {
	h := newHarness(t)

	result, err := h.pipeline(AbortOnError).Run(context.Background(), domain.Settings{FundSelection: domain.AllFunds})

	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, h.hostCalls)
}

func TestPolicyFromConfig(t *testing.T) {
	assert.Equal(t, AbortOnError, PolicyFromConfig(config.BatchConfig{}))
	assert.Equal(t, ContinueOnError, PolicyFromConfig(config.BatchConfig{ContinueOnError: true}))
	assert.Equal(t, "abort", AbortOnError.String())
	assert.Equal(t, "continue", ContinueOnError.String())
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Root = t.TempDir()

	p, err := NewFromConfig(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, AbortOnError, p.Policy())

	cfg.Link.Format = "gif"
	_, err = NewFromConfig(cfg, nil, nil, nil)
	assert.Error(t, err)
}

// subsequence returns the elements of want that appear in texts in order.
func subsequence(texts, want []string) []string {
	var got []string
	i := 0
	for _, text := range texts {
		if i < len(want) && text == want[i] {
			got = append(got, text)
			i++
		}
	}
	return got
}
