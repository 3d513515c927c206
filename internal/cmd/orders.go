package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/internal/output"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List the local order history",
	Long:  "List orders recorded locally, newest first. Use 'roamsim status' to refresh a single order from the provider.",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		orders, err := db.ListOrders(ctx, limit)
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
			outPath = filepath.Join(outDir, fmt.Sprintf("orders.%s", outputExtension(format)))
		}

		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		var rendered string
		switch format {
		case output.FormatJSON:
			rendered, err = output.RenderJSON(orders)
			if err != nil {
				return err
			}
		case output.FormatMarkdown:
			rendered = output.OrdersMarkdown(orders)
		default:
			rendered = output.OrdersTable(orders)
		}

		_, err = fmt.Fprintln(sink.writer, rendered)
		return err
	},
}

func init() {
	rootCmd.AddCommand(ordersCmd)

	ordersCmd.Flags().Int("limit", 0, "Maximum number of orders to list (0 uses the default)")
	ordersCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	ordersCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	ordersCmd.Flags().String("out-dir", "", "Write output to a directory")
}
