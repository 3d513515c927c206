package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/observability"
	"github.com/roamsim/roamsim/internal/output"
	"github.com/roamsim/roamsim/internal/store"
)

var orderCmd = &cobra.Command{
	Use:   "order <package-code>",
	Short: "Order a new eSIM",
	Long: `Assign a new eSIM for the given package code.

Activation details are frequently not in the synchronous response; run
'roamsim status <order-no>' to poll until the profile is released.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		packageCode := strings.TrimSpace(args[0])
		if packageCode == "" {
			return fmt.Errorf("package code is required")
		}

		sandbox, err := cmd.Flags().GetBool("sandbox")
		if err != nil {
			return err
		}
		email, err := cmd.Flags().GetString("email")
		if err != nil {
			return err
		}
		transactionID, err := cmd.Flags().GetString("transaction-id")
		if err != nil {
			return err
		}
		if strings.TrimSpace(transactionID) == "" {
			transactionID = uuid.New().String()
		}

		ctx := cmd.Context()
		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		result, err := provider.Order(ctx, &driver.OrderRequest{
			PackageCode:   packageCode,
			Email:         strings.TrimSpace(email),
			TransactionID: transactionID,
		})
		if err != nil {
			return err
		}

		record := &store.Order{
			OrderNo:       result.OrderNo,
			TransactionID: transactionID,
			PackageCode:   packageCode,
			Email:         strings.TrimSpace(email),
			Status:        "PENDING",
			TestMode:      sandbox,
		}
		if len(result.Profiles) > 0 {
			first := result.Profiles[0]
			record.TranNo = first.TranNo
			record.ICCID = first.ICCID
			if first.Status != "" {
				record.Status = first.Status
			}
		}
		if storeErr := db.RecordOrder(ctx, record); storeErr != nil {
			observability.CLILogger.Warn("Failed to record order locally", zap.Error(storeErr))
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(result)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
			return nil
		}

		fmt.Printf("Order placed: %s (transaction %s)\n", result.OrderNo, transactionID)
		if len(result.Profiles) == 0 {
			fmt.Println("Profiles pending; run 'roamsim status " + result.OrderNo + "' to check.")
			return nil
		}
		fmt.Println(output.ProfilesTable(result.Profiles))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)

	orderCmd.Flags().Bool("sandbox", false, "Use the sandbox backend")
	orderCmd.Flags().String("email", "", "Buyer email forwarded to the provider")
	orderCmd.Flags().String("transaction-id", "", "Correlation ID echoed in provider callbacks (generated when empty)")
	orderCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}
