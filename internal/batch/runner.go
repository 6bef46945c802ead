// =============================================================================
// Receipt Normalizer - Batch Runner
// =============================================================================
//
// This module drives the pipeline over a set of payload files.
//
// PROCESSING STEPS (per file):
//   1. Read the payload file
//   2. Decode the raw JSON
//   3. Assemble the receipt (run id stamped into meta.runId)
//   4. Validate structure and integrity
//   5. Strict gate: reject receipts with issues when strict mode is on
//   6. Redact (and optionally enforce redaction)
//   7. Encode the receipt and its report (JSON or YAML)
//   8. Write both to the output directory
//   9. Archive the payload and the written receipt
//
// CONCURRENCY:
//   Files are processed in parallel, bounded by MaxConcurrency. With
//   ContinueOnError off, the first failure cancels files not yet started.
//
// =============================================================================

package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/receipt-normalizer/internal/converter"
	"github.com/ginjaninja78/receipt-normalizer/internal/redact"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
	"github.com/ginjaninja78/receipt-normalizer/internal/validation"
	"github.com/ginjaninja78/receipt-normalizer/pkg/utils"
)

// ErrRejected is returned for receipts refused by the strict gate.
var ErrRejected = errors.New("receipt rejected by strict validation")

// Stage names the pipeline step at which a file failed.
type Stage string

const (
	StageRead     Stage = "read"
	StageDecode   Stage = "decode"
	StageStrict   Stage = "strict"
	StageRedact   Stage = "redaction"
	StageEncode   Stage = "encode"
	StageWrite    Stage = "write"
	StageCanceled Stage = "canceled"
)

// =============================================================================
// OPTIONS AND RESULTS
// =============================================================================

// Options controls a batch run.
type Options struct {
	// OutputDir receives receipts, reports and run logs.
	OutputDir string

	// OutputFormat is "json" or "yaml". Default: "json"
	OutputFormat string

	// OutputNameFormat is passed to utils.GenerateOutputFileName.
	// Default: "{original}_{uuid}"
	OutputNameFormat string

	// SchemaVersion overrides meta.schemaVersion.
	SchemaVersion string

	// MaxConcurrency bounds the number of files processed at once.
	// Default: 1
	MaxConcurrency int

	// ContinueOnError keeps processing other files after one fails.
	ContinueOnError bool

	// Strict fails receipts whose report has any issue.
	Strict bool

	// Redact masks sensitive fields before output.
	Redact bool

	// EnforceRedaction fails receipts that still expose sensitive digits.
	// It implies Redact.
	EnforceRedaction bool

	// DryRun processes files without writing, archiving or logging to disk.
	DryRun bool
}

// Result contains the outcome of processing one file.
type Result struct {
	// FilePath is the payload file that was processed.
	FilePath string

	// Success is true when the receipt was produced (and written, unless
	// dry-running).
	Success bool

	// Stage is the step that failed, empty on success.
	Stage Stage

	// Error is the failure, nil on success.
	Error error

	// OutputFile is the written receipt path.
	OutputFile string

	// ReportFile is the written report path.
	ReportFile string

	// ArchivePath is where the payload was moved to.
	ArchivePath string

	// Receipt and Report are set once assembly succeeded.
	Receipt *types.Receipt
	Report  validation.Report

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about one file.
type ProcessingStats struct {
	Items           int
	AggregatedItems int
	Issues          int
	ProcessingTime  time.Duration
}

// Summary is the outcome of a whole run.
type Summary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Results   []Result

	// ErrorLog and SummaryLog are the run log paths, empty on dry runs.
	ErrorLog   string
	SummaryLog string
}

// Failed returns the number of failed files.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// Receipts returns the receipts of successful files, in input order.
func (s *Summary) Receipts() []*types.Receipt {
	var receipts []*types.Receipt
	for _, r := range s.Results {
		if r.Success && r.Receipt != nil {
			receipts = append(receipts, r.Receipt)
		}
	}
	return receipts
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner processes payload files.
type Runner struct {
	opts   Options
	files  *utils.FileManager
	logger *slog.Logger

	// Now is the clock used for meta.fetchedAtISO. Default: time.Now
	Now func() time.Time
}

// NewRunner creates a Runner. files may be nil when nothing is archived.
func NewRunner(opts Options, files *utils.FileManager, logger *slog.Logger) *Runner {
	if opts.OutputFormat == "" {
		opts.OutputFormat = "json"
	}
	if opts.OutputNameFormat == "" {
		opts.OutputNameFormat = "{original}_{uuid}"
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.EnforceRedaction {
		opts.Redact = true
	}
	if files == nil {
		files = utils.NewFileManager("", opts.OutputDir, "", "")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{opts: opts, files: files, logger: logger, Now: time.Now}
}

// Run processes files and returns a summary with one result per file, in
// input order. The error is non-nil only when ContinueOnError is off and a
// file failed, or when ctx was canceled.
func (r *Runner) Run(ctx context.Context, files []string) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Results:   make([]Result, len(files)),
	}
	logger := r.logger.With("run_id", summary.RunID)
	logger.Info("batch started", "files", len(files), "concurrency", r.opts.MaxConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				summary.Results[i] = Result{FilePath: file, Stage: StageCanceled, Error: err}
				return nil
			}

			res := r.ProcessFile(summary.RunID, file)
			summary.Results[i] = res
			r.logResult(logger, res)

			if !res.Success && !r.opts.ContinueOnError {
				return fmt.Errorf("%s: %w", file, res.Error)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	summary.EndTime = time.Now()

	if !r.opts.DryRun && len(files) > 0 {
		r.writeLogs(logger, summary)
	}

	logger.Info("batch finished",
		"files", len(files),
		"failed", summary.Failed(),
		"duration", summary.EndTime.Sub(summary.StartTime))
	return summary, err
}

// ProcessFile runs the pipeline on one payload file.
func (r *Runner) ProcessFile(runID, path string) Result {
	start := time.Now()
	res := Result{FilePath: path}
	fail := func(stage Stage, err error) Result {
		res.Stage = stage
		res.Error = err
		res.Stats.ProcessingTime = time.Since(start)
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(StageRead, fmt.Errorf("failed to read payload: %w", err))
	}

	raw, err := converter.DecodePayload(data)
	if err != nil {
		return fail(StageDecode, err)
	}

	receipt := converter.Transform(raw, converter.Options{
		SchemaVersion: r.opts.SchemaVersion,
		RunID:         runID,
		Now:           r.Now,
	})
	report := validation.ValidateReceipt(receipt)

	res.Receipt = receipt
	res.Report = report
	res.Stats.Items = len(receipt.Items)
	res.Stats.AggregatedItems = len(receipt.AggregatedItems)
	res.Stats.Issues = len(report.Issues)

	if r.opts.Strict && !report.Clean() {
		return fail(StageStrict, fmt.Errorf("%w: %d issues", ErrRejected, len(report.Issues)))
	}

	if r.opts.Redact {
		if err := redact.Redact(receipt, redact.Options{Enforce: r.opts.EnforceRedaction}); err != nil {
			return fail(StageRedact, err)
		}
	}

	receiptData, err := r.encode(receipt)
	if err != nil {
		return fail(StageEncode, fmt.Errorf("failed to encode receipt: %w", err))
	}
	reportData, err := r.encode(report)
	if err != nil {
		return fail(StageEncode, fmt.Errorf("failed to encode report: %w", err))
	}

	if !r.opts.DryRun {
		if err := r.write(&res, receiptData, reportData); err != nil {
			return fail(StageWrite, err)
		}
		r.archive(&res)
	}

	res.Success = true
	res.Stats.ProcessingTime = time.Since(start)
	return res
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (r *Runner) encode(v any) ([]byte, error) {
	if r.opts.OutputFormat == "yaml" {
		return yaml.Marshal(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (r *Runner) extension() string {
	if r.opts.OutputFormat == "yaml" {
		return ".yaml"
	}
	return ".json"
}

// write stores the receipt and its report side by side.
func (r *Runner) write(res *Result, receiptData, reportData []byte) error {
	original := strings.TrimSuffix(filepath.Base(res.FilePath), filepath.Ext(res.FilePath))
	receiptID := original
	if id := res.Receipt.Identities.ReceiptID; id != nil {
		receiptID = *id
	}

	ext := r.extension()
	name := utils.GenerateOutputFileName(r.opts.OutputNameFormat, ext, map[string]string{
		"original": original,
		"receipt":  receiptID,
	})
	outputPath := filepath.Join(r.opts.OutputDir, name)
	if rel, err := filepath.Rel(r.opts.OutputDir, outputPath); err != nil || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output name %q leaves the output directory", name)
	}
	reportPath := strings.TrimSuffix(outputPath, ext) + ".report" + ext

	if err := os.WriteFile(outputPath, receiptData, 0644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	if err := os.WriteFile(reportPath, reportData, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	res.OutputFile = outputPath
	res.ReportFile = reportPath
	return nil
}

// archive moves the payload and copies the receipt. Archival problems are
// logged, never fatal.
func (r *Runner) archive(res *Result) {
	archived, err := r.files.ArchiveInputFile(res.FilePath)
	if err != nil {
		r.logger.Warn("failed to archive payload", "file", res.FilePath, "error", err)
	} else {
		res.ArchivePath = archived
	}

	if _, err := r.files.ArchiveOutputFile(res.OutputFile); err != nil {
		r.logger.Warn("failed to archive receipt", "file", res.OutputFile, "error", err)
	}
}

func (r *Runner) logResult(logger *slog.Logger, res Result) {
	if !res.Success {
		logger.Error("receipt failed",
			"file", res.FilePath,
			"stage", string(res.Stage),
			"error", res.Error)
		return
	}

	for _, issue := range res.Report.Issues {
		logger.Debug("validation issue", "file", res.FilePath, "issue", issue)
	}
	logger.Info("receipt processed",
		"file", res.FilePath,
		"output", res.OutputFile,
		"items", res.Stats.Items,
		"issues", res.Stats.Issues,
		"duration", res.Stats.ProcessingTime)
}

// writeLogs stores the error log and run summary in the output directory.
func (r *Runner) writeLogs(logger *slog.Logger, summary *Summary) {
	var entries []utils.ErrorLogEntry
	report := utils.ProcessingSummary{
		RunID:      summary.RunID,
		StartTime:  summary.StartTime,
		EndTime:    summary.EndTime,
		TotalFiles: len(summary.Results),
	}

	for _, res := range summary.Results {
		if !res.Success {
			report.FailedFiles++
			report.FailedFilesList = append(report.FailedFilesList, utils.FailedFileInfo{
				InputFile:    res.FilePath,
				ErrorMessage: errorText(res.Error),
				ErrorType:    string(res.Stage),
			})

			entry := utils.ErrorLogEntry{
				Timestamp:    summary.EndTime,
				FileName:     res.FilePath,
				ErrorType:    string(res.Stage),
				ErrorMessage: errorText(res.Error),
			}
			if res.Stage == StageStrict {
				entry.Issues = res.Report.Issues
			}
			if res.Receipt != nil && res.Receipt.Identities.ReceiptID != nil {
				entry.ReceiptID = *res.Receipt.Identities.ReceiptID
			}
			entries = append(entries, entry)
			continue
		}

		report.SuccessfulFiles++
		report.TotalItems += res.Stats.Items
		report.TotalIssues += res.Stats.Issues
		info := utils.ProcessedFileInfo{
			InputFile:   res.FilePath,
			OutputFile:  res.OutputFile,
			ArchivePath: res.ArchivePath,
			Items:       res.Stats.Items,
			Issues:      res.Stats.Issues,
			ProcessTime: res.Stats.ProcessingTime,
		}
		if id := res.Receipt.Identities.ReceiptID; id != nil {
			info.ReceiptID = *id
		}
		report.ProcessedFiles = append(report.ProcessedFiles, info)
	}

	if path, err := utils.WriteErrorLog(entries, r.opts.OutputDir); err != nil {
		logger.Warn("failed to write error log", "error", err)
	} else {
		summary.ErrorLog = path
	}

	if path, err := utils.WriteSummaryLog(report, r.opts.OutputDir); err != nil {
		logger.Warn("failed to write summary", "error", err)
	} else {
		summary.SummaryLog = path
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
