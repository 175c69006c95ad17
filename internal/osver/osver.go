// Package osver detects the running OS version and decides whether the
// Windows XP build of a patch is needed.
package osver

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"

	"github.com/distantorigin/unreal-installer/internal/games"
)

// Vista is the first Windows version served by the modern patch builds
const Vista = "6.0"

var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// LeadingNumber returns the major.minor prefix of a version string, or "0"
// when s does not start with a number
func LeadingNumber(s string) string {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return "0"
	}
	return m[1]
}

// IsLegacy reports whether ver is older than Vista
func IsLegacy(ver string) bool {
	current, err := version.NewVersion(LeadingNumber(ver))
	if err != nil {
		return true
	}
	return current.LessThan(version.Must(version.NewVersion(Vista)))
}

// LegacyTarget reports whether game should get its Windows XP build on ver
func LegacyTarget(game games.GameConfig, ver string) bool {
	return game.LegacyBuilds && IsLegacy(ver)
}

// Describe renders the comparison outcome the way it is logged
func Describe(legacy bool) string {
	if legacy {
		return fmt.Sprintf("Compare with Vista version (%s): Use WindowsXP build", Vista)
	}
	return fmt.Sprintf("Compare with Vista version (%s): Use build for modern Windows (Vista or above)", Vista)
}
