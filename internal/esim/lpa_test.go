package esim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

func TestBuildLPA(t *testing.T) {
	got := BuildLPA("rsp.example.com", "A1B2-C3D4")
	require.Equal(t, "LPA:1$rsp.example.com$A1B2-C3D4", got)
}

func TestActivationString(t *testing.T) {
	prof := driver.Profile{SMDPAddress: "rsp.example.com", ActivationCode: "CODE99"}
	require.Equal(t, "LPA:1$rsp.example.com$CODE99", ActivationString(prof))

	require.Empty(t, ActivationString(driver.Profile{SMDPAddress: "rsp.example.com"}))
	require.Empty(t, ActivationString(driver.Profile{ActivationCode: "CODE99"}))
	require.Empty(t, ActivationString(driver.Profile{}))
}
