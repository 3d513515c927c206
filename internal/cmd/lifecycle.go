package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/observability"
	"github.com/roamsim/roamsim/internal/store"
)

var suspendCmd = &cobra.Command{
	Use:   "suspend <tran-no>",
	Short: "Suspend service on an eSIM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(cmd, args[0], "suspend", func(p driver.Provider, ref driver.EsimRef) error {
			return p.Suspend(cmd.Context(), ref)
		})
	},
}

var unsuspendCmd = &cobra.Command{
	Use:   "unsuspend <tran-no>",
	Short: "Resume service on a suspended eSIM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(cmd, args[0], "unsuspend", func(p driver.Provider, ref driver.EsimRef) error {
			return p.Unsuspend(cmd.Context(), ref)
		})
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <tran-no>",
	Short: "Permanently retire an eSIM",
	Long:  "Permanently retire an eSIM profile. This cannot be undone; the profile cannot be reinstalled afterwards.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			return err
		}
		if !yes {
			confirmed, err := confirm(fmt.Sprintf("Revoke eSIM %s permanently? This cannot be undone [y/N]: ", strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}
		return runLifecycle(cmd, args[0], "revoke", func(p driver.Provider, ref driver.EsimRef) error {
			return p.Revoke(cmd.Context(), ref)
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <order-no>",
	Short: "Cancel an unactivated order",
	Long:  "Cancel an order whose eSIM has not been activated. Activated profiles are retired with 'roamsim revoke' instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderNo := strings.TrimSpace(args[0])
		if orderNo == "" {
			return fmt.Errorf("order number is required")
		}

		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			return err
		}
		if !yes {
			confirmed, err := confirm(fmt.Sprintf("Cancel order %s? [y/N]: ", orderNo))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
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

		if err := provider.Cancel(ctx, orderNo); err != nil {
			return err
		}

		if record != nil {
			if updateErr := db.UpdateOrderStatus(ctx, orderNo, "CANCEL", "", ""); updateErr != nil {
				observability.CLILogger.Warn("Failed to refresh local order record", zap.Error(updateErr))
			}
		}

		fmt.Printf("Order %s cancelled.\n", orderNo)
		return nil
	},
}

func runLifecycle(cmd *cobra.Command, rawTranNo, action string, fn func(driver.Provider, driver.EsimRef) error) error {
	tranNo := strings.TrimSpace(rawTranNo)
	if tranNo == "" {
		return fmt.Errorf("transaction number is required")
	}

	sandbox, err := cmd.Flags().GetBool("sandbox")
	if err != nil {
		return err
	}

	provider, err := pickProvider(sandbox)
	if err != nil {
		return err
	}

	if err := fn(provider, driver.EsimRef{TranNo: tranNo}); err != nil {
		return err
	}

	fmt.Printf("eSIM %s: %s succeeded.\n", tranNo, action)
	return nil
}

func confirm(prompt string) (bool, error) {
	value, err := promptForValue(prompt)
	if err != nil {
		return false, err
	}
	value = strings.ToLower(value)
	return value == "y" || value == "yes", nil
}

func init() {
	rootCmd.AddCommand(suspendCmd)
	rootCmd.AddCommand(unsuspendCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(cancelCmd)

	for _, c := range []*cobra.Command{suspendCmd, unsuspendCmd, revokeCmd, cancelCmd} {
		c.Flags().Bool("sandbox", false, "Use the sandbox backend")
	}
	revokeCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	cancelCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
