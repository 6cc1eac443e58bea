package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/cleanchart/core/canvas"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/layout"
	"github.com/FocuswithJustin/cleanchart/core/pdf"
	"github.com/FocuswithJustin/cleanchart/core/svg"
	"github.com/FocuswithJustin/cleanchart/internal/archive"
)

// Format is an output format.
type Format string

const (
	// FormatSVG writes one SVG document per page.
	FormatSVG Format = "svg"
	// FormatPDF writes one paginated PDF document.
	FormatPDF Format = "pdf"
	// FormatOps writes the recorded draw operations as JSON.
	FormatOps Format = "ops"
)

// Formats lists the supported formats.
var Formats = []Format{FormatSVG, FormatPDF, FormatOps}

// ParseFormat parses a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", cerrors.NewUnsupported("format", fmt.Sprintf("%q", s))
}

// emit encodes geo in format. Files are named after base; multi-page SVG
// output numbers its pages from 1.
func emit(format Format, base string, geo *layout.Geometry) ([]archive.Entry, error) {
	switch format {
	case FormatSVG:
		docs := svg.Render(geo)
		if len(docs) == 1 {
			return []archive.Entry{{Name: base + ".svg", Data: docs[0]}}, nil
		}
		entries := make([]archive.Entry, len(docs))
		for i, doc := range docs {
			entries[i] = archive.Entry{Name: fmt.Sprintf("%s-%d.svg", base, i+1), Data: doc}
		}
		return entries, nil
	case FormatPDF:
		doc, err := pdf.Render(geo)
		if err != nil {
			return nil, err
		}
		return []archive.Entry{{Name: base + ".pdf", Data: doc}}, nil
	case FormatOps:
		rec := canvas.NewRecorder()
		canvas.Emit(geo, rec)
		data, err := json.MarshalIndent(rec.Ops, "", "  ")
		if err != nil {
			return nil, err
		}
		return []archive.Entry{{Name: base + ".ops.json", Data: append(data, '\n')}}, nil
	default:
		return nil, cerrors.NewUnsupported("format", fmt.Sprintf("%q", string(format)))
	}
}
