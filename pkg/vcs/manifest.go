package vcs

import (
	"regexp"
	"strings"

	"golang.org/x/mod/modfile"
)

// requireRE is the line-level fallback for manifests modfile rejects.
var requireRE = regexp.MustCompile(`[\s/]+([^\s(]+)\s+v([^\s]+)`)

// ParseManifest extracts module path → version from go.mod content.
// Versions are stored without their leading "v". Content that cannot be
// parsed at all yields an empty map, never an error.
func ParseManifest(content string) map[string]string {
	deps := make(map[string]string)
	if strings.TrimSpace(content) == "" {
		return deps
	}

	if f, err := modfile.ParseLax("go.mod", []byte(content), nil); err == nil {
		for _, req := range f.Require {
			deps[req.Mod.Path] = strings.TrimPrefix(req.Mod.Version, "v")
		}
		return deps
	}

	for _, m := range requireRE.FindAllStringSubmatch(content, -1) {
		deps[m[1]] = m[2]
	}
	return deps
}
