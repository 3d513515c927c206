package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/output"
)

var topupCmd = &cobra.Command{
	Use:   "topup <tran-no> <package-code>",
	Short: "Top up an existing eSIM",
	Long: `Add data and validity to an existing eSIM.

Validity extends from the later of the current expiry and now, so topping up
a lapsed eSIM starts counting from today rather than the lapsed date.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tranNo := strings.TrimSpace(args[0])
		packageCode := strings.TrimSpace(args[1])
		if tranNo == "" || packageCode == "" {
			return fmt.Errorf("transaction number and package code are required")
		}

		sandbox, err := cmd.Flags().GetBool("sandbox")
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

		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		result, err := provider.TopUp(cmd.Context(), &driver.TopUpRequest{
			Ref:           driver.EsimRef{TranNo: tranNo},
			PackageCode:   packageCode,
			TransactionID: transactionID,
		})
		if err != nil {
			return err
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

		fmt.Printf("Topped up %s with %s", tranNo, packageCode)
		if result.AddedDays > 0 {
			fmt.Printf(" (+%d days)", result.AddedDays)
		}
		fmt.Println()
		if !result.ExpiredAt.IsZero() {
			fmt.Printf("New expiry: %s\n", result.ExpiredAt.UTC().Format("2006-01-02"))
		}
		if result.VolumeBytes > 0 {
			fmt.Printf("Total data: %s\n", output.FormatVolume(result.VolumeBytes))
		}
		return nil
	},
}

var topupPackagesCmd = &cobra.Command{
	Use:   "topup-packages <tran-no>",
	Short: "List packages eligible for topping up an eSIM",
	Long:  "List the packages that can be applied to an existing eSIM. Packages sold only with a new eSIM are excluded.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tranNo := strings.TrimSpace(args[0])
		if tranNo == "" {
			return fmt.Errorf("transaction number is required")
		}

		sandbox, err := cmd.Flags().GetBool("sandbox")
		if err != nil {
			return err
		}
		region, err := cmd.Flags().GetString("region")
		if err != nil {
			return err
		}

		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		packages, err := provider.TopUpPackages(cmd.Context(),
			driver.EsimRef{TranNo: tranNo},
			driver.PackageFilter{RegionCode: strings.TrimSpace(region)})
		if err != nil {
			return err
		}

		return renderPackages(cmd, packages, "topup-packages")
	},
}

func init() {
	rootCmd.AddCommand(topupCmd)
	rootCmd.AddCommand(topupPackagesCmd)

	topupCmd.Flags().Bool("sandbox", false, "Use the sandbox backend")
	topupCmd.Flags().String("transaction-id", "", "Correlation ID echoed in provider callbacks (generated when empty)")
	topupCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")

	topupPackagesCmd.Flags().Bool("sandbox", false, "Use the sandbox backend")
	topupPackagesCmd.Flags().String("region", "", "Filter by region code")
	topupPackagesCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	topupPackagesCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	topupPackagesCmd.Flags().String("out-dir", "", "Write output to a directory")
}
