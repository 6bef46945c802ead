// =============================================================================
// Receipt Normalizer - File Manager Utility
// =============================================================================
//
// Filesystem helpers for batch runs: finding payloads, archiving what a run
// consumed or produced, and naming output files. Run logs live in runlog.go.
//
// ARCHIVAL:
//   input_archive   payloads are moved here once their receipt is written
//   output_archive  written receipts are copied here
//
// An empty archive directory turns that half of archival off. Payloads that
// fail stay where they were found so they can be fixed and rerun.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager knows the directories of a batch run.
type FileManager struct {
	InputDir  string
	OutputDir string

	// Archive roots. Empty disables archival for that side.
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs files archived copies under YYYY/MM/DD.
	UseTimestampSubdirs bool

	// Now is the clock used for archive subdirectories. Default: time.Now
	Now func() time.Time
}

// NewFileManager returns a FileManager for the given directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		Now:              time.Now,
	}
}

func (fm *FileManager) clock() time.Time {
	if fm.Now != nil {
		return fm.Now()
	}
	return time.Now()
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists regular files directly under InputDir whose name
// matches pattern ("*.json" when empty), in name order.
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.json"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", fm.InputDir, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			matches = append(matches, filepath.Join(fm.InputDir, entry.Name()))
		}
	}
	return matches, nil
}

// DiscoverInputFilesRecursive walks InputDir for files ending in extension,
// compared without regard to case. An empty extension matches every file.
func (fm *FileManager) DiscoverInputFilesRecursive(extension string) ([]string, error) {
	var matches []string

	walk := func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			return nil
		case extension == "" || hasSuffixFold(path, extension):
			matches = append(matches, path)
		}
		return nil
	}
	if err := filepath.WalkDir(fm.InputDir, walk); err != nil {
		return nil, fmt.Errorf("failed to walk input directory %s: %w", fm.InputDir, err)
	}
	return matches, nil
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a processed payload into InputArchiveDir and returns
// where it ended up.
func (fm *FileManager) ArchiveInputFile(path string) (string, error) {
	return fm.archive(fm.InputArchiveDir, path, true)
}

// ArchiveOutputFile copies a written receipt into OutputArchiveDir. The
// receipt itself stays in the output directory.
func (fm *FileManager) ArchiveOutputFile(path string) (string, error) {
	return fm.archive(fm.OutputArchiveDir, path, false)
}

func (fm *FileManager) archive(root, path string, move bool) (string, error) {
	if root == "" {
		return path, nil
	}

	dest := filepath.Join(fm.archiveDir(root), filepath.Base(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("archive %s: %w", path, err)
	}

	if move && os.Rename(path, dest) == nil {
		return dest, nil
	}

	// Copy when asked to, or when rename cannot cross filesystems.
	if err := copyFile(path, dest); err != nil {
		return "", fmt.Errorf("archive %s: %w", path, err)
	}
	if move {
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("archive %s: remove source: %w", path, err)
		}
	}
	return dest, nil
}

func (fm *FileManager) archiveDir(root string) string {
	if !fm.UseTimestampSubdirs {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(fm.clock().Format("2006/01/02")))
}

// copyFile writes a copy of src to dst, keeping the source permissions.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders in format and appends ext
// unless the result already carries it.
//
// Built-in placeholders are {uuid}, {timestamp} (YYYYMMDD_HHMMSS), {date}
// (YYYYMMDD) and {time} (HHMMSS). Each params key adds one more, so
// {"original": "order-88412"} makes {original} expand to order-88412.
// Params values are reduced to a single path element first, so a value such
// as "../x" cannot move the file out of its directory.
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	pairs := []string{
		"{uuid}", uuid.NewString(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", nameElement(value))
	}

	name := strings.NewReplacer(pairs...).Replace(format)
	if ext != "" && !hasSuffixFold(name, ext) {
		name += ext
	}
	return name
}

var unsafeNameChars = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

// nameElement makes value safe to use as part of a file name.
func nameElement(value string) string {
	value = unsafeNameChars.Replace(value)
	if strings.Trim(value, ".") == "" {
		return strings.Repeat("_", len(value))
	}
	return value
}
