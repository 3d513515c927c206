package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/observability"
	"github.com/roamsim/roamsim/internal/output"
	"github.com/roamsim/roamsim/internal/store"
)

var usageCmd = &cobra.Command{
	Use:   "usage <tran-no> [tran-no...]",
	Short: "Query data usage",
	Long: fmt.Sprintf(`Query consumption totals for up to %d eSIMs in one call.

With --realtime, query live remaining balances for a single eSIM instead.
Not every operator supports live queries; those fall back to the periodic
usage totals.`, driver.MaxUsageBatch),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sandbox, err := cmd.Flags().GetBool("sandbox")
		if err != nil {
			return err
		}
		realtime, err := cmd.Flags().GetBool("realtime")
		if err != nil {
			return err
		}

		tranNos := make([]string, 0, len(args))
		for _, arg := range args {
			if trimmed := strings.TrimSpace(arg); trimmed != "" {
				tranNos = append(tranNos, trimmed)
			}
		}

		ctx := cmd.Context()
		provider, err := pickProvider(sandbox)
		if err != nil {
			return err
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		if realtime {
			if len(tranNos) != 1 {
				return fmt.Errorf("--realtime takes exactly one transaction number")
			}

			balance, err := provider.RealtimeBalance(ctx, tranNos[0])
			if err != nil {
				return err
			}
			if balance == nil {
				fmt.Println("Live balance not supported by this operator; showing periodic usage instead.")
			} else {
				if format == output.FormatJSON {
					rendered, err := output.RenderJSON(balance)
					if err != nil {
						return err
					}
					fmt.Println(rendered)
					return nil
				}
				printRealtimeBalance(balance)
				return nil
			}
		}

		if err := driver.ValidateUsageBatch(tranNos); err != nil {
			return err
		}

		records, err := provider.Usage(ctx, tranNos)
		if err != nil {
			return err
		}

		snapshotUsage(cmd, records)

		switch format {
		case output.FormatJSON:
			rendered, err := output.RenderJSON(records)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
		case output.FormatMarkdown:
			fmt.Println(output.UsageMarkdown(records))
		default:
			fmt.Println(output.UsageTable(records))
		}
		return nil
	},
}

func printRealtimeBalance(balance *driver.RealtimeBalance) {
	if balance.Data != nil {
		fmt.Printf("Data:  %s remaining of %s\n",
			output.FormatVolume(balance.Data.Remaining), output.FormatVolume(balance.Data.Total))
	}
	if balance.SMS != nil {
		fmt.Printf("SMS:   %d remaining of %d\n", balance.SMS.Remaining, balance.SMS.Total)
	}
	if balance.Voice != nil {
		fmt.Printf("Voice: %d min remaining of %d\n", balance.Voice.Remaining, balance.Voice.Total)
	}
}

// snapshotUsage records returned usage locally so history survives provider
// outages. Failures are logged, never fatal.
func snapshotUsage(cmd *cobra.Command, records []driver.UsageRecord) {
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		observability.CLILogger.Warn("Failed to open store for usage snapshots", zap.Error(err))
		return
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	for _, record := range records {
		snap := &store.UsageSnapshot{
			TranNo:     record.TranNo,
			UsedBytes:  record.UsedBytes,
			TotalBytes: record.TotalBytes,
			ReportedAt: record.LastUpdated,
		}
		if err := db.RecordUsage(ctx, snap); err != nil {
			observability.CLILogger.Warn("Failed to snapshot usage",
				zap.String("tran_no", record.TranNo),
				zap.Error(err))
		}
	}
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().Bool("sandbox", false, "Use the sandbox backend")
	usageCmd.Flags().Bool("realtime", false, "Query live remaining balances (single eSIM)")
	usageCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
}
