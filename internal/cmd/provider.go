package cmd

import (
	"fmt"

	"github.com/roamsim/roamsim/internal/config"
	"github.com/roamsim/roamsim/internal/esim"
	"github.com/roamsim/roamsim/internal/esim/driver"
)

func openProviders() (*esim.Selector, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return esim.NewSelector(cfg.Provider), nil
}

// pickProvider resolves the backend for one command invocation. Sandbox mode
// is always an explicit flag, never sniffed from the environment.
func pickProvider(sandbox bool) (driver.Provider, error) {
	selector, err := openProviders()
	if err != nil {
		return nil, err
	}
	return selector.Pick(sandbox), nil
}
