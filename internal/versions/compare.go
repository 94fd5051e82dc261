// Package versions orders and filters Minecraft game version strings.
package versions

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// releasePattern matches MAJOR.MINOR or MAJOR.MINOR.PATCH and nothing else.
// Snapshots (24w46a), pre-releases (1.21.4-pre3), release candidates and legacy
// betas (b1.7.3) are rejected.
var releasePattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// IsRelease reports whether v is a plain release version.
func IsRelease(v string) bool {
	return releasePattern.MatchString(v)
}

// Release returns v when it is a plain release version, or nil otherwise.
func Release(v string) *string {
	if !IsRelease(v) {
		return nil
	}
	return &v
}

// Latest returns the numerically greatest release version in vs, or nil when vs
// holds no release version.
func Latest(vs []string) *string {
	var (
		best   string
		bestSV *semver.Version
	)
	for _, v := range vs {
		if !IsRelease(v) {
			continue
		}
		sv, err := semver.NewVersion(v)
		if err != nil {
			continue
		}
		if bestSV == nil || sv.GreaterThan(bestSV) {
			best, bestSV = v, sv
		}
	}
	if bestSV == nil {
		return nil
	}
	return &best
}

// LastRelease returns the last element of vs when it is a release version.
// Registries that list tested versions in ascending order put the newest last;
// when the last entry is not a release the result is nil rather than an older
// entry, which would be wrong.
func LastRelease(vs []string) *string {
	if len(vs) == 0 {
		return nil
	}
	return Release(vs[len(vs)-1])
}
