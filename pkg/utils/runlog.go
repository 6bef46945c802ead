package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// RUN LOGS
// =============================================================================
//
// A batch run leaves two files in the output directory:
//
//   errors_<stamp>.jsonl   one JSON object per failed file
//   summary_<stamp>.yaml   counts plus per-file outcomes
//
// <stamp> is the local time the log was written, YYYYMMDD_HHMMSS.
//
// =============================================================================

const logStampLayout = "20060102_150405"

// ErrorLogEntry is one line of the error log.
type ErrorLogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	FileName     string    `json:"file"`
	ErrorType    string    `json:"errorType"`
	ErrorMessage string    `json:"message"`
	ReceiptID    string    `json:"receiptId,omitempty"`
	Issues       []string  `json:"issues,omitempty"`
}

// WriteErrorLog writes entries as JSON Lines into outputDir and returns the
// file path. No file is created for an empty run.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	path := logPath(outputDir, "errors", ".jsonl")
	err := writeLogFile(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetEscapeHTML(false)
		for i := range entries {
			if err := enc.Encode(&entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}
	return path, nil
}

// ProcessingSummary describes a finished batch run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalItems      int
	TotalIssues     int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo is the outcome of one file that produced a receipt.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	ReceiptID   string
	Items       int
	Issues      int
	ProcessTime time.Duration
}

// FailedFileInfo is the outcome of one file that did not.
type FailedFileInfo struct {
	InputFile    string `yaml:"input"`
	ErrorType    string `yaml:"type"`
	ErrorMessage string `yaml:"error"`
}

// summaryDocument is the YAML layout of a ProcessingSummary.
type summaryDocument struct {
	RunID     string           `yaml:"runId"`
	Started   string           `yaml:"started"`
	Finished  string           `yaml:"finished"`
	Duration  string           `yaml:"duration"`
	Files     summaryCounts    `yaml:"files"`
	Items     int              `yaml:"items"`
	Issues    int              `yaml:"issues"`
	Succeeded []summaryFile    `yaml:"succeeded,omitempty"`
	Failed    []FailedFileInfo `yaml:"failed,omitempty"`
}

type summaryCounts struct {
	Total     int `yaml:"total"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
}

type summaryFile struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output,omitempty"`
	Archived  string `yaml:"archived,omitempty"`
	ReceiptID string `yaml:"receiptId,omitempty"`
	Items     int    `yaml:"items"`
	Issues    int    `yaml:"issues"`
	Took      string `yaml:"took"`
}

func newSummaryDocument(s ProcessingSummary) summaryDocument {
	doc := summaryDocument{
		RunID:    s.RunID,
		Started:  s.StartTime.Format(time.RFC3339),
		Finished: s.EndTime.Format(time.RFC3339),
		Duration: s.EndTime.Sub(s.StartTime).String(),
		Files: summaryCounts{
			Total:     s.TotalFiles,
			Succeeded: s.SuccessfulFiles,
			Failed:    s.FailedFiles,
		},
		Items:  s.TotalItems,
		Issues: s.TotalIssues,
		Failed: s.FailedFilesList,
	}
	for _, pf := range s.ProcessedFiles {
		doc.Succeeded = append(doc.Succeeded, summaryFile{
			Input:     pf.InputFile,
			Output:    pf.OutputFile,
			Archived:  pf.ArchivePath,
			ReceiptID: pf.ReceiptID,
			Items:     pf.Items,
			Issues:    pf.Issues,
			Took:      pf.ProcessTime.String(),
		})
	}
	return doc
}

// WriteSummaryLog writes summary as YAML into outputDir and returns the file
// path.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	path := logPath(outputDir, "summary", ".yaml")
	err := writeLogFile(path, func(f *os.File) error {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(newSummaryDocument(summary)); err != nil {
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

func logPath(dir, kind, ext string) string {
	return filepath.Join(dir, kind+"_"+time.Now().Format(logStampLayout)+ext)
}

// writeLogFile creates path and hands it to write, reporting the first of
// the write and close errors.
func writeLogFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
