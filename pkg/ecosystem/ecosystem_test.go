package ecosystem

import (
	"testing"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

func lookup(t *testing.T, name string) Descriptor {
	t.Helper()
	set, err := NewSet(Defaults())
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	d, err := set.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	return d
}

func TestBuildURL(t *testing.T) {
	python := lookup(t, Python)
	npm := lookup(t, JavaScript)
	golang := lookup(t, Go)

	tests := []struct {
		name    string
		desc    Descriptor
		pkg     string
		version string
		want    string
	}{
		{"python with version", python, "pkg", "1.2.3", "https://pypi.org/pypi/pkg/1.2.3/json"},
		{"python without version", python, "pkg", "", "https://pypi.org/pypi/pkg/json"},
		{"npm latest", npm, "react", "", "https://registry.npmjs.org/react"},
		{"npm pinned", npm, "react", "17.0.2", "https://registry.npmjs.org/react/17.0.2"},
		{"npm scoped", npm, "@types/node", "", "https://registry.npmjs.org/@types/node"},
		{"go latest", golang, "github.com/spf13/cobra", "", "https://pkg.go.dev/github.com/spf13/cobra"},
		{"go pinned", golang, "github.com/spf13/cobra", "v1.8.0", "https://pkg.go.dev/github.com/spf13/cobra@v1.8.0"},
		{"trailing slash stripped", Descriptor{BaseURL: "https://x.test/", Suffix: "/"}, "p/", "", "https://x.test/p"},
		{"version ignored", Descriptor{BaseURL: "https://x.test", VersionStyle: VersionNone}, "p", "1", "https://x.test/p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.desc.BuildURL(tt.pkg, tt.version)
			if got != tt.want {
				t.Errorf("BuildURL(%q, %q) = %q, want %q", tt.pkg, tt.version, got, tt.want)
			}
			if again := tt.desc.BuildURL(tt.pkg, tt.version); again != got {
				t.Errorf("BuildURL not deterministic: %q vs %q", got, again)
			}
		})
	}
}

func TestSet_LookupAliases(t *testing.T) {
	tests := map[string]string{
		"python":     Python,
		"PyPI":       Python,
		"registryA":  Python,
		"npm":        JavaScript,
		"registryB":  JavaScript,
		"golang":     Go,
		" registryc": Go,
	}
	for name, want := range tests {
		if got := lookup(t, name).ID; got != want {
			t.Errorf("Lookup(%q).ID = %q, want %q", name, got, want)
		}
	}
}

func TestSet_LookupUnsupported(t *testing.T) {
	set, _ := NewSet(Defaults())
	_, err := set.Lookup("cobol")
	if !errors.Is(err, errors.ErrCodeUnsupportedEcosystem) {
		t.Fatalf("expected UNSUPPORTED_ECOSYSTEM, got %v", err)
	}
}

func TestNewSet_DuplicateAlias(t *testing.T) {
	descs := Defaults()
	descs[1].Aliases = append(descs[1].Aliases, "pypi")
	if _, err := NewSet(descs); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestDescriptor_Validate(t *testing.T) {
	good := Defaults()[0]

	noID := good
	noID.ID = ""
	badURL := good
	badURL.BaseURL = "ftp://pypi"
	badStyle := good
	badStyle.VersionStyle = "query"
	goNoSel := Defaults()[2]
	goNoSel.Selectors.Imports = Selector{}

	for name, d := range map[string]Descriptor{"no id": noID, "bad url": badURL, "bad style": badStyle, "go without selector": goNoSel} {
		if err := d.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("%s: expected INVALID_CONFIG, got %v", name, err)
		}
	}
	for _, d := range Defaults() {
		if err := d.Validate(); err != nil {
			t.Errorf("default %s invalid: %v", d.ID, err)
		}
	}
}

func TestDescriptor_IsNotFound(t *testing.T) {
	golang := lookup(t, Go)
	if !golang.IsNotFound(400) || !golang.IsNotFound(404) || golang.IsNotFound(500) {
		t.Error("go should treat 400 and 404 as not found")
	}
	if (Descriptor{}).IsNotFound(400) {
		t.Error("default not-found set should be 404 only")
	}
}

func TestDescriptor_ValidatePackage(t *testing.T) {
	tests := []struct {
		eco     string
		pkg     string
		wantErr bool
	}{
		{Python, "aiohttp", false},
		{Python, "../etc", true},
		{JavaScript, "@types/node", false},
		{JavaScript, "React", true},
		{Go, "github.com/spf13/cobra", false},
		{Go, "https://github.com/acme/tool", false},
		{Go, "mod@latest", true},
	}
	for _, tt := range tests {
		err := lookup(t, tt.eco).ValidatePackage(tt.pkg)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s/%s: err = %v, wantErr %v", tt.eco, tt.pkg, err, tt.wantErr)
		}
	}
}

func TestSelector_Text(t *testing.T) {
	var s Selector
	if err := s.UnmarshalText([]byte("h1.UnitHeader-titleHeading")); err != nil {
		t.Fatal(err)
	}
	if s.Tag != "h1" || s.Class != "UnitHeader-titleHeading" {
		t.Errorf("parsed %+v", s)
	}
	if s.CSS() != "h1.UnitHeader-titleHeading" {
		t.Errorf("CSS() = %q", s.CSS())
	}

	if err := s.UnmarshalText([]byte("li")); err != nil || s.CSS() != "li" {
		t.Errorf("bare tag: %v %q", err, s.CSS())
	}
	if err := s.UnmarshalText([]byte("div > a")); err == nil {
		t.Error("expected error for combinator selector")
	}
}

func TestParsePURL(t *testing.T) {
	tests := []struct {
		in      string
		want    PURL
		wantErr errors.Code
	}{
		{"pkg:npm/react@17.0.2", PURL{JavaScript, "react", "17.0.2"}, ""},
		{"pkg:npm/%40types/node", PURL{JavaScript, "@types/node", ""}, ""},
		{"pkg:pypi/aiohttp@3.7.2", PURL{Python, "aiohttp", "3.7.2"}, ""},
		{"pkg:golang/github.com/spf13/cobra@v1.8.0", PURL{Go, "github.com/spf13/cobra", "v1.8.0"}, ""},
		{"pkg:cargo/serde", PURL{}, errors.ErrCodeUnsupportedEcosystem},
		{"react", PURL{}, errors.ErrCodeInvalidPackage},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePURL(tt.in)
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %s, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
