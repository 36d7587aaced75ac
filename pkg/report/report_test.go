package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/record"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

func sampleResults() resolver.Results {
	return resolver.Results{
		{ID: "react", Record: &record.Record{
			Name:         "react",
			Version:      "17.0.2",
			License:      "MIT",
			Dependencies: record.Constraints(map[string]string{"loose-envify": "^1.1.0", "object-assign": "^4.1.1"}),
		}},
		{ID: "github.com/acme/tool", Record: &record.Record{
			Name:         "github.com/acme/tool",
			License:      "Apache 2",
			Dependencies: record.Names([]string{"fmt", "react"}),
		}},
		{ID: "nope", Err: errors.New(errors.ErrCodeNotFound, "nope: status 404")},
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"json", "TABLE", " dot ", "svg"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("xml: %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleResults()); err != nil {
		t.Fatal(err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if !strings.Contains(string(got["react"]), `"record"`) {
		t.Errorf("react entry = %s", got["react"])
	}
	if !strings.Contains(string(got["nope"]), `"code": "NOT_FOUND"`) {
		t.Errorf("nope entry = %s", got["nope"])
	}
}

func TestNewErrorBody_Uncoded(t *testing.T) {
	body := NewErrorBody(bytes.ErrTooLarge)
	if body.Code != errors.ErrCodeInternal {
		t.Errorf("code = %q", body.Code)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleResults())

	for _, want := range []string{
		`"react" [label="react\n17.0.2\nMIT"];`,
		`"react" -> "object-assign" [label="^4.1.1", fontsize=10];`,
		`"github.com/acme/tool" -> "fmt";`,
		`"github.com/acme/tool" [label="github.com/acme/tool\n(no release)\nApache 2"];`,
		`"nope" [label="nope\nNOT_FOUND", color=red, fontcolor=red];`,
		`"fmt" [shape=ellipse`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"react" [shape=ellipse`) {
		t.Error("requested package drawn as a bare dependency")
	}
}

func TestTable(t *testing.T) {
	out := Table(sampleResults())
	for _, want := range []string{"Package", "react", "17.0.2", "MIT", "(no release)", "NOT_FOUND"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q\n%s", want, out)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(sampleResults()))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0`)) {
		t.Errorf("unexpected SVG root: %.200s", svg)
	}
}
