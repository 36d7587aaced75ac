package report

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

// ToDOT draws every requested package as a node labelled with its version
// and license, with an edge to each declared dependency. Dependencies that
// were not themselves requested are drawn as plain ellipses; failed
// packages are drawn in red with their error code.
func ToDOT(results resolver.Results) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	requested := make(map[string]bool, len(results))
	for _, r := range results {
		requested[r.ID] = true
	}

	type edge struct{ from, to, label string }
	var edges []edge
	deps := make(map[string]bool)

	for _, r := range results {
		if r.Err != nil {
			label := r.ID + "\n" + string(errorCode(r.Err))
			fmt.Fprintf(&buf, "  %q [label=%q, color=red, fontcolor=red];\n", r.ID, label)
			continue
		}
		rec := r.Record
		label := r.ID + "\n" + versionLabel(rec.Version) + "\n" + rec.License
		fmt.Fprintf(&buf, "  %q [label=%q];\n", r.ID, label)

		if rec.Dependencies.IsList() {
			for _, d := range rec.Dependencies.List() {
				edges = append(edges, edge{r.ID, d, ""})
				deps[d] = true
			}
			continue
		}
		m := rec.Dependencies.Map()
		for _, d := range rec.Dependencies.List() {
			edges = append(edges, edge{r.ID, d, m[d]})
			deps[d] = true
		}
	}

	for _, d := range slices.Sorted(maps.Keys(deps)) {
		if !requested[d] {
			fmt.Fprintf(&buf, "  %q [shape=ellipse, style=\"\", fontsize=12];\n", d)
		}
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if e.label == "" {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=10];\n", e.from, e.to, e.label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func versionLabel(v string) string {
	if v == "" {
		return "(no release)"
	}
	return v
}

func errorCode(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}

// RenderSVG lays out a DOT graph with Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// that scales.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
