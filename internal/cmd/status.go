package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roamsim/roamsim/internal/observability"
	"github.com/roamsim/roamsim/internal/output"
	"github.com/roamsim/roamsim/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status <order-no>",
	Short: "Show order status and profiles",
	Long:  "Fetch the profiles of an order from the provider and refresh the local record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderNo := strings.TrimSpace(args[0])
		if orderNo == "" {
			return fmt.Errorf("order number is required")
		}

		sandbox, err := cmd.Flags().GetBool("sandbox")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		// The stored record remembers which backend the order was placed on.
		record, storeErr := db.GetOrder(ctx, orderNo)
		if storeErr != nil && !errors.Is(storeErr, store.ErrOrderNotFound) {
			observability.CLILogger.Warn("Failed to load local order record", zap.Error(storeErr))
		}
		if record != nil {
			sandbox = record.TestMode
		}

		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		profiles, err := provider.OrderProfiles(ctx, orderNo)
		if err != nil {
			return err
		}

		if record != nil && len(profiles) > 0 && profiles[0].Status != "" {
			first := profiles[0]
			if updateErr := db.UpdateOrderStatus(ctx, orderNo, first.Status, first.TranNo, first.ICCID); updateErr != nil {
				observability.CLILogger.Warn("Failed to refresh local order record", zap.Error(updateErr))
			}
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		switch format {
		case output.FormatJSON:
			rendered, err := output.RenderJSON(profiles)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
		case output.FormatMarkdown:
			fmt.Println(output.ProfilesMarkdown(profiles))
		default:
			if len(profiles) == 0 {
				fmt.Println("No profiles released yet; the provider is still fulfilling the order.")
				return nil
			}
			fmt.Println(output.ProfilesTable(profiles))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("sandbox", false, "Use the sandbox backend (overridden by the local order record)")
	statusCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
}
