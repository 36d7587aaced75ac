// Package htmlx extracts structured metadata from registry HTML pages.
//
// Lookups are driven by (tag, class) selectors and never fail on a missing
// element: absent content yields an empty string, an empty map or an empty
// list, and callers decide whether that is fatal.
package htmlx

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
)

// kvRE matches "Key: value" pairs in free text.
var kvRE = regexp.MustCompile(`([^ \n:]+): ([a-zA-Z0-9-_ ,.]+)`)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse parses an HTML page. Malformed markup is tolerated the way browsers
// tolerate it; only a read failure is reported.
func Parse(body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// Text returns the trimmed text of the first element matching sel.
func (d *Document) Text(sel ecosystem.Selector) string {
	if sel.IsZero() {
		return ""
	}
	return strings.TrimSpace(d.doc.Find(sel.CSS()).First().Text())
}

// KeyValues scans the text of the first element matching sel for
// "Key: value" pairs. The first occurrence of a key wins; values are trimmed.
func (d *Document) KeyValues(sel ecosystem.Selector) map[string]string {
	return KeyValues(d.Text(sel))
}

// List returns the trimmed text of every element matching sel in document
// order, dropping empty entries.
func (d *Document) List(sel ecosystem.Selector) []string {
	out := []string{}
	if sel.IsZero() {
		return out
	}
	d.doc.Find(sel.CSS()).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// HeaderName returns a display name from the header element matching sel.
// Headers like "module github.com/spf13/cobra" yield their last token,
// single-token headers are returned whole, and an empty header yields fallback.
func (d *Document) HeaderName(sel ecosystem.Selector, fallback string) string {
	return HeaderName(d.Text(sel), fallback)
}

// KeyValues extracts "Key: value" pairs from text.
func KeyValues(text string) map[string]string {
	out := make(map[string]string)
	for _, m := range kvRE.FindAllStringSubmatch(text, -1) {
		key := m[1]
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = strings.TrimSpace(m[2])
	}
	return out
}

// HeaderName applies the header naming rule to already-extracted text.
func HeaderName(text, fallback string) string {
	fields := strings.Fields(text)
	switch len(fields) {
	case 0:
		return fallback
	case 1:
		return fields[0]
	default:
		return fields[len(fields)-1]
	}
}

// FirstToken returns the first whitespace-separated token of s.
func FirstToken(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
