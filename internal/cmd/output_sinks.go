package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/internal/output"
)

// outputSink is where a command writes its rendered output: stdout by
// default, or a file when --out/--out-dir is given.
type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

func outputExtension(format output.Format) string {
	switch format {
	case output.FormatJSON:
		return "json"
	case output.FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// sanitizeFilename turns arbitrary values (package codes, region names) into
// a safe lowercase file stem.
func sanitizeFilename(value string) string {
	stem := strings.ToLower(strings.TrimSpace(value))
	stem = unsafeFilenameChars.ReplaceAllString(stem, "-")
	if stem = strings.Trim(stem, "-."); stem == "" {
		return "output"
	}
	return stem
}

func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("output-format")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(value)
}

// resolveOutputTargets reads --out and --out-dir, which are mutually
// exclusive.
func resolveOutputTargets(cmd *cobra.Command) (outPath string, outDir string, err error) {
	if outPath, err = cmd.Flags().GetString("out"); err != nil {
		return "", "", err
	}
	if outDir, err = cmd.Flags().GetString("out-dir"); err != nil {
		return "", "", err
	}

	outPath = strings.TrimSpace(outPath)
	outDir = strings.TrimSpace(outDir)
	if outPath != "" && outDir != "" {
		return "", "", fmt.Errorf("--out and --out-dir are mutually exclusive")
	}
	return outPath, outDir, nil
}

// openSink opens the output destination. Empty path and "-" both mean
// stdout; anything else is created as a file, with parent directories made
// on demand.
func openSink(path string) (*outputSink, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return &outputSink{writer: os.Stdout, close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: path}, nil
}

// ensureOutDir creates the --out-dir target and returns its absolute path so
// commands can report where files landed.
func ensureOutDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs, nil
	}
	return dir, nil
}
