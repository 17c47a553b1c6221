package watermark

import (
	"os"
	"strconv"
	"strings"

	"studio/internal/domain"
)

// BypassEnvKey names the environment switch that disables the visible
// overlay for every tier. Intended for test and staging environments.
const BypassEnvKey = "WATERMARK_DISABLE_VISIBLE"

// Policy decides whether an export gets the visible overlay.
type Policy struct {
	// Bypass, when set and returning true, disables the overlay for all tiers.
	Bypass func() bool
}

// ShouldShowVisible reports whether exports for tier must carry the visible
// overlay. The bypass switch is checked first.
func (p Policy) ShouldShowVisible(tier domain.Tier) bool {
	if p.Bypass != nil && p.Bypass() {
		return false
	}
	return tier == domain.TierFree
}

// EnvBypass returns a bypass that reads key from the environment on every
// call. Values accepted by strconv.ParseBool are honored; anything else
// counts as false.
func EnvBypass(key string) func() bool {
	return func() bool {
		v, ok := os.LookupEnv(key)
		if !ok {
			return false
		}
		on, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && on
	}
}
