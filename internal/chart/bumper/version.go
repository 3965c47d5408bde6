package bumper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ChartVersion is a MAJOR.MINOR.PATCH chart version.
type ChartVersion struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// ParseVersion parses s as exactly three dot-separated decimal components.
// Pre-release suffixes, build metadata, a "v" prefix and two-part versions
// are all rejected.
func ParseVersion(s string) (ChartVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ChartVersion{}, fmt.Errorf("%w: %q: expected major.minor.patch (e.g. 1.2.3)", ErrInvalidVersion, s)
	}

	var nums [3]uint64

	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return ChartVersion{}, fmt.Errorf("%w: %q: component %q is not a number", ErrInvalidVersion, s, p)
		}

		nums[i] = n
	}

	return ChartVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// IncPatch returns the version with the patch component incremented.
func (v ChartVersion) IncPatch() ChartVersion {
	next := semver.New(v.Major, v.Minor, v.Patch, "", "").IncPatch()

	return ChartVersion{Major: next.Major(), Minor: next.Minor(), Patch: next.Patch()}
}

// String formats the version as MAJOR.MINOR.PATCH.
func (v ChartVersion) String() string {
	return semver.New(v.Major, v.Minor, v.Patch, "", "").String()
}
