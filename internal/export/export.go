// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders content items for use outside the pipeline: the
// plain-text research format authors can edit and re-import, and YAML or
// JSON snapshots of whole items.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Format selects an export encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q: use text, yaml, or json", s)
}

// Section headings of the research text format.
const (
	headingResearch = "Research"
	headingInsights = "Insights"
)

const (
	pointPrefix  = "- "
	textIndent   = "  "
	notePrefix   = "  - Note: "
	noteIndent   = "    "
	titlePrefix  = "# "
	headingLevel = "## "
)

// ErrMalformed is returned by Parse for lines outside the format.
var ErrMalformed = errors.New("malformed research text")

// Research holds the lists recovered by Parse.
type Research struct {
	Hook     string
	Research []types.ResearchPoint
	Insights []types.ResearchPoint
}

// FormatResearch renders the hook, research and insights in the text format.
func FormatResearch(item types.ContentItem) string {
	var b strings.Builder
	b.WriteString(titlePrefix + item.Hook + "\n\n")
	writeSection(&b, headingResearch, item.Research)
	b.WriteString("\n")
	writeSection(&b, headingInsights, item.Insights)
	return b.String()
}

func writeSection(b *strings.Builder, heading string, points []types.ResearchPoint) {
	b.WriteString(headingLevel + heading + "\n")
	for _, p := range points {
		writeIndented(b, pointPrefix, textIndent, p.Text)
		for _, n := range p.Notes {
			writeIndented(b, notePrefix, noteIndent, n)
		}
	}
}

// writeIndented writes the first line after prefix and the rest after indent.
func writeIndented(b *strings.Builder, prefix, indent, text string) {
	lines := strings.Split(text, "\n")
	b.WriteString(prefix + lines[0] + "\n")
	for _, l := range lines[1:] {
		b.WriteString(indent + l + "\n")
	}
}

// Parse reads the text format back into points. Title and blank lines carry
// no points; a continuation line whose content starts with "- Note: " is
// read as a note.
func Parse(r io.Reader) (Research, error) {
	var (
		out     Research
		list    *[]types.ResearchPoint
		inNote  bool
		lineNum int
	)
	current := func() *types.ResearchPoint {
		if list == nil || len(*list) == 0 {
			return nil
		}
		return &(*list)[len(*list)-1]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), "\r")

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, headingLevel):
			inNote = false
			switch strings.TrimSpace(strings.TrimPrefix(line, headingLevel)) {
			case headingResearch:
				if out.Research == nil {
					out.Research = []types.ResearchPoint{}
				}
				list = &out.Research
			case headingInsights:
				if out.Insights == nil {
					out.Insights = []types.ResearchPoint{}
				}
				list = &out.Insights
			default:
				return Research{}, fmt.Errorf("line %d: unknown section %q: %w", lineNum, line, ErrMalformed)
			}

		case strings.HasPrefix(line, titlePrefix):
			out.Hook = strings.TrimPrefix(line, titlePrefix)

		case strings.HasPrefix(line, pointPrefix):
			if list == nil {
				return Research{}, fmt.Errorf("line %d: point outside a section: %w", lineNum, ErrMalformed)
			}
			*list = append(*list, types.ResearchPoint{Text: strings.TrimPrefix(line, pointPrefix)})
			inNote = false

		case strings.HasPrefix(line, notePrefix):
			p := current()
			if p == nil {
				return Research{}, fmt.Errorf("line %d: note without a point: %w", lineNum, ErrMalformed)
			}
			p.Notes = append(p.Notes, strings.TrimPrefix(line, notePrefix))
			inNote = true

		case inNote && strings.HasPrefix(line, noteIndent):
			p := current()
			p.Notes[len(p.Notes)-1] += "\n" + strings.TrimPrefix(line, noteIndent)

		case !inNote && strings.HasPrefix(line, textIndent):
			p := current()
			if p == nil {
				return Research{}, fmt.Errorf("line %d: continuation without a point: %w", lineNum, ErrMalformed)
			}
			p.Text += "\n" + strings.TrimPrefix(line, textIndent)

		default:
			return Research{}, fmt.Errorf("line %d: %w", lineNum, ErrMalformed)
		}
	}
	if err := sc.Err(); err != nil {
		return Research{}, fmt.Errorf("reading research text: %w", err)
	}
	return out, nil
}

// WriteYAML writes items as a YAML document.
func WriteYAML(w io.Writer, items []types.ContentItem) error {
	data, err := yaml.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteJSON writes items as indented JSON.
func WriteJSON(w io.Writer, items []types.ContentItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Write renders items in format. The text format needs exactly one item.
func Write(w io.Writer, format Format, items []types.ContentItem) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, items)
	case FormatJSON:
		return WriteJSON(w, items)
	case FormatText:
		if len(items) != 1 {
			return fmt.Errorf("text export takes one item, got %d", len(items))
		}
		_, err := io.WriteString(w, FormatResearch(items[0]))
		return err
	}
	return fmt.Errorf("unknown export format %q", format)
}
