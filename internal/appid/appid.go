// Package appid resolves the application identity (binary name, env prefix,
// config name) used to brand the CLI and scope configuration.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/roamsim/roamsim/internal/assets/appidentity"
)

// The embedded identity is registered at init so binaries copied out of the
// repo still resolve an identity. Explicit overrides (Options.ExplicitPath
// and FULMEN_APP_IDENTITY_PATH) stay authoritative over the embedded copy.
func init() {
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get resolves the current application identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}
