package ecosystem

import (
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

// purlTypes maps package-url types onto ecosystem ids.
var purlTypes = map[string]string{
	packageurl.TypePyPi:   Python,
	packageurl.TypeNPM:    JavaScript,
	packageurl.TypeGolang: Go,
}

// PURL is a package reference decoded from a package URL.
type PURL struct {
	Ecosystem string
	Name      string
	Version   string
}

// ParsePURL decodes a package URL such as "pkg:npm/react@17.0.2" or
// "pkg:golang/github.com/spf13/cobra@v1.8.0" into an ecosystem id, the
// registry package name and an optional version.
//
// npm scopes are kept as "@scope/name"; golang namespaces are joined back
// into the module path.
func ParsePURL(s string) (PURL, error) {
	p, err := packageurl.FromString(strings.TrimSpace(s))
	if err != nil {
		return PURL{}, errors.Wrap(errors.ErrCodeInvalidPackage, err, "invalid package url %q", s)
	}

	eco, ok := purlTypes[p.Type]
	if !ok {
		return PURL{}, errors.New(errors.ErrCodeUnsupportedEcosystem, "unsupported package url type %q", p.Type)
	}

	name := p.Name
	if p.Namespace != "" {
		switch eco {
		case JavaScript:
			name = "@" + strings.TrimPrefix(p.Namespace, "@") + "/" + p.Name
		default:
			name = p.Namespace + "/" + p.Name
		}
	}
	if name == "" {
		return PURL{}, errors.New(errors.ErrCodeInvalidPackage, "package url %q has no name", s)
	}

	return PURL{Ecosystem: eco, Name: name, Version: p.Version}, nil
}
