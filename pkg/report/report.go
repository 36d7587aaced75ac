// Package report renders batch results for people and tools.
//
// Formats:
//
//   - json: map of package id to {"record": ...} or {"error": {...}}
//   - table: lipgloss table for terminals
//   - dot: Graphviz DOT graph of packages and their dependencies
//   - svg: the DOT graph laid out by Graphviz
package report

import (
	"encoding/json"
	"io"
	"slices"
	"strings"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/record"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

// Format selects an output renderer.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatDOT   Format = "dot"
	FormatSVG   Format = "svg"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatTable, FormatDOT, FormatSVG}

// ParseFormat validates a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want json, table, dot or svg)", s)
	}
	return f, nil
}

// Entry is the JSON form of one batch result.
type Entry struct {
	Record *record.Record `json:"record,omitempty"`
	Error  *ErrorBody     `json:"error,omitempty"`
}

// ErrorBody is the JSON form of a failed resolution.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// NewErrorBody describes err for clients. Errors without a code are
// reported as INTERNAL_ERROR.
func NewErrorBody(err error) *ErrorBody {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return &ErrorBody{Code: code, Message: err.Error()}
}

// Entries converts results to their JSON form keyed by package id.
func Entries(results resolver.Results) map[string]Entry {
	out := make(map[string]Entry, len(results))
	for _, r := range results {
		if r.Err != nil {
			out[r.ID] = Entry{Error: NewErrorBody(r.Err)}
			continue
		}
		out[r.ID] = Entry{Record: r.Record}
	}
	return out
}

// Write renders results in format f.
func Write(w io.Writer, f Format, results resolver.Results) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Entries(results))
	case FormatTable:
		_, err := io.WriteString(w, Table(results)+"\n")
		return err
	case FormatDOT:
		_, err := io.WriteString(w, ToDOT(results))
		return err
	case FormatSVG:
		svg, err := RenderSVG(ToDOT(results))
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", f)
	}
}
