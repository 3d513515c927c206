package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roamsim/roamsim/internal/config"
	errwrap "github.com/roamsim/roamsim/internal/errors"
	"github.com/roamsim/roamsim/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify the application can start: version metadata, configuration, and local store access.",
	Run: func(cmd *cobra.Command, args []string) {
		observability.CLILogger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Version information missing",
				errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		observability.CLILogger.Info("✅ Version information available",
			zap.String("version", versionInfo.Version))

		cfg, err := config.Load()
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration invalid",
				errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration failed to load"))
			return
		}
		observability.CLILogger.Info("✅ Configuration loaded",
			zap.String("store_driver", cfg.Store.Driver))

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		db, err := openStore(ctx)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Store unavailable",
				errwrap.WrapDatabaseError(ctx, err, "store failed to open"))
			return
		}
		defer func() { _ = db.Close() }()

		if err := db.CheckHealth(ctx); err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Store ping failed",
				errwrap.WrapDatabaseError(ctx, err, "store health check failed"))
			return
		}
		observability.CLILogger.Info("✅ Store reachable")

		observability.CLILogger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
