package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/output"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List purchasable data packages",
	Long:  "List the package catalog, optionally narrowed to a region or a single package code.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sandbox, err := cmd.Flags().GetBool("sandbox")
		if err != nil {
			return err
		}
		region, err := cmd.Flags().GetString("region")
		if err != nil {
			return err
		}
		packageCode, err := cmd.Flags().GetString("package")
		if err != nil {
			return err
		}

		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		filter := driver.PackageFilter{
			RegionCode:  strings.TrimSpace(region),
			PackageCode: strings.TrimSpace(packageCode),
		}

		packages, err := provider.Packages(cmd.Context(), filter)
		if err != nil {
			return err
		}

		return renderPackages(cmd, packages, "packages")
	},
}

// renderPackages writes a package listing through the standard output sinks.
func renderPackages(cmd *cobra.Command, packages []driver.Package, baseName string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	outPath, outDir, err := resolveOutputTargets(cmd)
	if err != nil {
		return err
	}
	if outDir != "" {
		outDir, err = ensureOutDir(outDir)
		if err != nil {
			return err
		}
		outPath = filepath.Join(outDir, fmt.Sprintf("%s.%s", sanitizeFilename(baseName), outputExtension(format)))
	}

	sink, err := openSink(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	var rendered string
	switch format {
	case output.FormatJSON:
		rendered, err = output.RenderJSON(packages)
		if err != nil {
			return err
		}
	case output.FormatMarkdown:
		rendered = output.PackagesMarkdown(packages)
	default:
		rendered = output.PackagesTable(packages)
	}

	_, err = fmt.Fprintln(sink.writer, rendered)
	return err
}

func init() {
	rootCmd.AddCommand(packagesCmd)

	packagesCmd.Flags().Bool("sandbox", false, "Use the sandbox backend")
	packagesCmd.Flags().String("region", "", "Filter by region code (e.g. JP, EU)")
	packagesCmd.Flags().String("package", "", "Filter by exact package code")
	packagesCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	packagesCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	packagesCmd.Flags().String("out-dir", "", "Write output to a directory")
}
