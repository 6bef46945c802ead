package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/receipt-normalizer/internal/redact"
	"github.com/ginjaninja78/receipt-normalizer/pkg/utils"
)

const goodPayload = `{
	"id": "r-100",
	"total_price": 20,
	"store": {"phone": "02 9000 1234"},
	"basket": {"items": [{"name": "Socks", "quantity_purchased": 2, "unit_price": 10}]},
	"payments": [{"method": "VISA (**** 1234)", "amount": 20}]
}`

type workspace struct {
	input, output, archive string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{
		input:   filepath.Join(root, "input"),
		output:  filepath.Join(root, "output"),
		archive: filepath.Join(root, "input_archive"),
	}
	for _, dir := range []string{ws.input, ws.output} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return ws
}

func (ws workspace) payload(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(ws.input, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func (ws workspace) runner(opts Options) *Runner {
	opts.OutputDir = ws.output
	fm := utils.NewFileManager(ws.input, ws.output, ws.archive, "")
	return NewRunner(opts, fm, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunWritesReceiptsAndLogs(t *testing.T) {
	ws := newWorkspace(t)
	good := ws.payload(t, "good.json", goodPayload)
	bad := ws.payload(t, "bad.json", `{"id": `)

	summary, err := ws.runner(Options{ContinueOnError: true, MaxConcurrency: 2}).
		Run(context.Background(), []string{good, bad})
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, 1, summary.Failed())

	ok := summary.Results[0]
	require.True(t, ok.Success, "%v", ok.Error)
	assert.True(t, strings.HasPrefix(filepath.Base(ok.OutputFile), "good_"))
	assert.FileExists(t, ok.OutputFile)
	assert.FileExists(t, ok.ReportFile)
	assert.Equal(t, filepath.Join(ws.archive, "good.json"), ok.ArchivePath)
	assert.NoFileExists(t, good)
	assert.Equal(t, summary.RunID, *ok.Receipt.Meta.RunID)
	assert.Equal(t, 1, ok.Stats.Items)
	assert.Equal(t, 0, ok.Stats.Issues)

	failed := summary.Results[1]
	assert.False(t, failed.Success)
	assert.Equal(t, StageDecode, failed.Stage)
	assert.FileExists(t, bad, "failed payloads stay in place")

	assert.FileExists(t, summary.ErrorLog)
	assert.FileExists(t, summary.SummaryLog)
	assert.Len(t, summary.Receipts(), 1)
}

func TestRunStopsOnError(t *testing.T) {
	ws := newWorkspace(t)
	bad := ws.payload(t, "a.json", `not json`)
	good := ws.payload(t, "b.json", goodPayload)

	summary, err := ws.runner(Options{MaxConcurrency: 1}).Run(context.Background(), []string{bad, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.json")
	assert.Equal(t, StageDecode, summary.Results[0].Stage)
	assert.Equal(t, StageCanceled, summary.Results[1].Stage)
	assert.FileExists(t, good)
}

func TestProcessFileStrict(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.payload(t, "mismatch.json", strings.Replace(goodPayload, `"total_price": 20`, `"total_price": 25`, 1))

	res := ws.runner(Options{Strict: true}).ProcessFile("run-1", path)
	assert.False(t, res.Success)
	assert.Equal(t, StageStrict, res.Stage)
	assert.True(t, errors.Is(res.Error, ErrRejected))
	assert.NotEmpty(t, res.Report.Issues)

	lenient := ws.runner(Options{}).ProcessFile("run-1", path)
	assert.True(t, lenient.Success, "issues alone do not fail a receipt")
	assert.Equal(t, 2, lenient.Stats.Issues)
}

func TestProcessFileRedaction(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.payload(t, "good.json", goodPayload)

	res := ws.runner(Options{Redact: true, DryRun: true}).ProcessFile("run-1", path)
	require.True(t, res.Success)
	assert.Equal(t, "****1234", *res.Receipt.Merchant.Phone)
	assert.Equal(t, "**** 1234", *res.Receipt.Payments[0].MaskedCard)

	leaky := ws.payload(t, "leaky.json", strings.Replace(goodPayload, `VISA (**** 1234)`, `VISA 4111 1111 1111 1111`, 1))
	res = ws.runner(Options{EnforceRedaction: true, DryRun: true}).ProcessFile("run-1", leaky)
	assert.False(t, res.Success)
	assert.Equal(t, StageRedact, res.Stage)
	assert.True(t, errors.Is(res.Error, redact.ErrPIIViolation))
}

func TestRunYAMLOutput(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.payload(t, "good.json", goodPayload)

	summary, err := ws.runner(Options{OutputFormat: "yaml", OutputNameFormat: "{receipt}"}).
		Run(context.Background(), []string{path})
	require.NoError(t, err)

	res := summary.Results[0]
	require.True(t, res.Success, "%v", res.Error)
	assert.Equal(t, filepath.Join(ws.output, "r-100.yaml"), res.OutputFile)
	assert.Equal(t, filepath.Join(ws.output, "r-100.report.yaml"), res.ReportFile)

	data, err := os.ReadFile(res.OutputFile)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "meta")
	assert.Contains(t, doc, "aggregatedItems")

	data, err = os.ReadFile(res.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "validationSuccess: true")
}

func TestRunReceiptIDStaysInOutputDir(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.payload(t, "escape.json", `{"id": "../escaped", "total_price": 0}`)

	summary, err := ws.runner(Options{OutputNameFormat: "{receipt}"}).Run(context.Background(), []string{path})
	require.NoError(t, err)

	res := summary.Results[0]
	require.True(t, res.Success, "%v", res.Error)
	assert.Equal(t, ws.output, filepath.Dir(res.OutputFile))
	assert.Equal(t, ".._escaped.json", filepath.Base(res.OutputFile))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(ws.output), "escaped.json"))
}

func TestRunOutputNameFormatCannotEscape(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.payload(t, "good.json", goodPayload)

	res := ws.runner(Options{OutputNameFormat: "../{receipt}"}).ProcessFile("run-1", path)
	assert.False(t, res.Success)
	assert.Equal(t, StageWrite, res.Stage)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(ws.output), "r-100.json"))
}

func TestRunDryRun(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.payload(t, "good.json", goodPayload)

	summary, err := ws.runner(Options{DryRun: true}).Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.True(t, summary.Results[0].Success)
	assert.Empty(t, summary.Results[0].OutputFile)
	assert.Empty(t, summary.SummaryLog)
	assert.FileExists(t, path)

	entries, err := os.ReadDir(ws.output)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunCanceledContext(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.payload(t, "good.json", goodPayload)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := ws.runner(Options{ContinueOnError: true, DryRun: true}).Run(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StageCanceled, summary.Results[0].Stage)
}
