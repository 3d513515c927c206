package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roamsim/roamsim/internal/output"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the reseller account balance",
	Long:  "Query the remaining prepaid balance on the reseller account at the provider.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sandbox, err := cmd.Flags().GetBool("sandbox")
		if err != nil {
			return err
		}

		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		balance, err := provider.Balance(cmd.Context())
		if err != nil {
			return err
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(balance)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
			return nil
		}

		fmt.Printf("Balance: %.2f %s\n", balance.Amount, balance.Currency)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().Bool("sandbox", false, "Use the sandbox backend")
	balanceCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}
