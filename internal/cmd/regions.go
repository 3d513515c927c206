package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/internal/output"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List destination regions",
	Long:  "List the destinations eSIM packages can be purchased for, including member countries of multi-country bundles.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sandbox, err := cmd.Flags().GetBool("sandbox")
		if err != nil {
			return err
		}

		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		regions, err := provider.Regions(cmd.Context())
		if err != nil {
			return err
		}

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
			outPath = filepath.Join(outDir, fmt.Sprintf("regions.%s", outputExtension(format)))
		}

		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		var rendered string
		switch format {
		case output.FormatJSON:
			rendered, err = output.RenderJSON(regions)
			if err != nil {
				return err
			}
		case output.FormatMarkdown:
			rendered = output.RegionsMarkdown(regions)
		default:
			rendered = output.RegionsTable(regions)
		}

		_, err = fmt.Fprintln(sink.writer, rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)

	regionsCmd.Flags().Bool("sandbox", false, "Use the sandbox backend")
	regionsCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	regionsCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	regionsCmd.Flags().String("out-dir", "", "Write output to a directory")
}
