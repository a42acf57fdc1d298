package launcher

import (
	"os/exec"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// minVersions holds the oldest launcher releases known to place ranks
// correctly for multi-node mesh extraction. Empty means no known floor.
var minVersions = map[LauncherType]string{
	LauncherSrun:   "17.02.0", // --ntasks-per-node placement fixes
	LauncherMpirun: "1.10.0",  // Open MPI binding defaults
}

var versionTokenRe = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// Version probes the launcher binary for its version string. Returns the
// raw first line and the extracted numeric version (empty if none found).
func (l *Launcher) Version() (raw string, version string, err error) {
	cmd := exec.Command(l.bin, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", "", err
	}

	raw = strings.TrimSpace(string(output))
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		raw = raw[:idx]
	}
	version = versionTokenRe.FindString(raw)
	return raw, version, nil
}

// MinimumVersion returns the minimum known-good version for the launcher
// flavor, or empty when no floor applies.
func (l *Launcher) MinimumVersion() string {
	return minVersions[l.typ]
}

// MeetsMinimum reports whether version satisfies the launcher's minimum.
// Unparseable versions pass: an exotic vendor string should not block a
// submission the user asked for.
func (l *Launcher) MeetsMinimum(version string) bool {
	min := l.MinimumVersion()
	if min == "" || version == "" {
		return true
	}
	return compareVersions(version, min) >= 0
}

// compareVersions compares two dotted numeric versions, returning -1, 0,
// or 1.
func compareVersions(v1, v2 string) int {
	c1 := semver.Canonical(normalizeVersion(v1))
	c2 := semver.Canonical(normalizeVersion(v2))
	if c1 == "" || c2 == "" {
		// Unparseable versions are treated as equal
		return 0
	}
	return semver.Compare(c1, c2)
}

// normalizeVersion rewrites a dotted numeric version into valid semver
// input. SLURM releases carry zero-padded components ("15.08.2") which
// semver rejects, so each component is stripped of leading zeros; the
// required 'v' prefix is added when missing.
func normalizeVersion(v string) string {
	v = strings.TrimPrefix(v, "v")
	parts := strings.Split(v, ".")
	for i, part := range parts {
		trimmed := strings.TrimLeft(part, "0")
		if trimmed == "" && part != "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return "v" + strings.Join(parts, ".")
}
