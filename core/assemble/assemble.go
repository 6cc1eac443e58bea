// Package assemble compiles chart source into a resolved chart.Chart.
//
// Compile drives the whole front end: it classifies lines, extracts the
// metadata block, parses text and chord lines, resolves repeats with one
// accumulator for the whole document, and groups the result into sections.
// The first hard error halts compilation and no partial chart is returned.
package assemble

import (
	"strings"

	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/lexer"
	"github.com/FocuswithJustin/cleanchart/core/parser"
	"github.com/FocuswithJustin/cleanchart/core/resolve"
)

// Options configures compilation.
type Options struct {
	Resolve resolve.Options
	// Qualities is the chord quality table. Nil means chart.DefaultQualities.
	Qualities chart.QualitySet
}

// DefaultOptions returns the default compile options.
func DefaultOptions() Options {
	return Options{
		Resolve:   resolve.DefaultOptions(),
		Qualities: chart.DefaultQualities(),
	}
}

// item is one parsed body line awaiting section grouping.
type item struct {
	header string // set for "[Name]" lines
	isHead bool
	text   *chart.TextLine
	row    *chart.Row
}

// Compile compiles src with default options.
func Compile(src string) (*chart.Chart, []cerrors.Diagnostic, error) {
	return CompileWithOptions(src, DefaultOptions())
}

// CompileWithOptions compiles src with the given options.
func CompileWithOptions(src string, opts Options) (*chart.Chart, []cerrors.Diagnostic, error) {
	if opts.Qualities == nil {
		opts.Qualities = chart.DefaultQualities()
	}

	var (
		meta  = newMetadata()
		items []item
		diags []cerrors.Diagnostic
		acc   resolve.State
		body  bool
	)

	for _, l := range lexer.Split(src) {
		switch l.Kind {
		case lexer.KindBlank, lexer.KindComment:
			continue
		case lexer.KindMeta:
			if body {
				return nil, nil, cerrors.NewParse(l.Number, 1, "metadata %q after the first section", l.Name)
			}
			diags = append(diags, meta.add(l)...)
		case lexer.KindHeader:
			if l.Name == "" {
				return nil, nil, cerrors.NewParse(l.Number, 1, "empty section name")
			}
			body = true
			items = append(items, item{header: l.Name, isHead: true})
		case lexer.KindText:
			tokens, err := lexer.LexText(l.Number, l.Raw)
			if err != nil {
				return nil, nil, err
			}
			tl, err := parser.ParseText(tokens)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, item{text: tl})
		case lexer.KindChord:
			tokens, err := lexer.LexChord(l.Number, l.Raw)
			if err != nil {
				return nil, nil, err
			}
			cl, pd, err := parser.ParseChord(l.Number, tokens, opts.Qualities)
			if err != nil {
				return nil, nil, err
			}
			row, next, rd, err := resolve.Resolve(cl, acc, opts.Resolve)
			if err != nil {
				return nil, nil, err
			}
			acc = next
			diags = append(diags, pd...)
			diags = append(diags, rd...)
			body = true
			items = append(items, item{row: row})
		}
	}

	c, err := meta.chart()
	if err != nil {
		return nil, nil, err
	}
	c.Sections = group(items)
	return c, diags, nil
}

// group splits items into sections. A "[Name]" line always starts a
// section; an H3 text line with a single Left zone starts one when the next
// body line is a chord line.
func group(items []item) []chart.Section {
	sections := []chart.Section{{}}
	for i, it := range items {
		cur := &sections[len(sections)-1]
		switch {
		case it.isHead:
			sections = append(sections, chart.Section{Name: it.header})
		case it.text != nil && isSectionHeader(it.text) && i+1 < len(items) && items[i+1].row != nil:
			sections = append(sections, chart.Section{
				Name:   strings.TrimSpace(it.text.Zones[0].Text()),
				Header: it.text,
			})
		case it.text != nil:
			cur.Elements = append(cur.Elements, it.text)
		case it.row != nil:
			cur.Elements = append(cur.Elements, it.row)
		}
	}
	if len(sections[0].Elements) == 0 {
		sections = sections[1:]
	}
	return sections
}

func isSectionHeader(t *chart.TextLine) bool {
	if t.Weight != chart.H3 || len(t.Zones) != 1 {
		return false
	}
	z := t.Zones[0]
	return z.Alignment == chart.Left && z.Text() != ""
}
