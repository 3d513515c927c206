package esim

import (
	"fmt"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

// BuildLPA assembles the LPA activation string an eSIM-capable device
// consumes, from the SM-DP+ address and the activation code. The "1" is the
// activation code format version.
func BuildLPA(smdpAddress, activationCode string) string {
	return fmt.Sprintf("LPA:1$%s$%s", smdpAddress, activationCode)
}

// ActivationString returns the profile's LPA string, or "" while the provider
// has not yet delivered activation details.
func ActivationString(p driver.Profile) string {
	if p.SMDPAddress == "" || p.ActivationCode == "" {
		return ""
	}
	return BuildLPA(p.SMDPAddress, p.ActivationCode)
}
