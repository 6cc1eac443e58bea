// Package layout turns a resolved chart into positioned drawing primitives.
//
// Layout is a pure function: the same chart, config and metrics always
// produce the same geometry. Text widths come from an injected TextMetrics
// so the engine carries no font data. Lines that demand more width than the
// page offers are shrunk according to Config.Overflow; nothing is clipped.
package layout

import (
	"strings"

	"github.com/FocuswithJustin/cleanchart/core/chart"
)

// metaSeparator joins the key, time and extra fields of the header line.
const metaSeparator = "  ·  "

type engine struct {
	cfg  Config
	m    TextMetrics
	geo  *Geometry
	page *Page
	y    float64
}

// Layout computes the geometry of c. A nil metrics uses EstimateMetrics.
func Layout(c *chart.Chart, cfg Config, m TextMetrics) *Geometry {
	if m == nil {
		m = EstimateMetrics{}
	}
	cfg = cfg.withDefaults()
	e := &engine{
		cfg: cfg,
		m:   m,
		geo: &Geometry{Title: c.Title, FontFamily: cfg.FontFamily},
	}
	e.newPage()
	e.header(c)
	for _, s := range c.Sections {
		e.section(s)
	}
	return e.geo
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	setf := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	setf(&c.PageWidth, d.PageWidth)
	setf(&c.PageHeight, d.PageHeight)
	setf(&c.BaseFontSize, d.BaseFontSize)
	setf(&c.LineHeight, d.LineHeight)
	setf(&c.H1Scale, d.H1Scale)
	setf(&c.H2Scale, d.H2Scale)
	setf(&c.H3Scale, d.H3Scale)
	setf(&c.RowHeight, d.RowHeight)
	setf(&c.ChordFontSize, d.ChordFontSize)
	setf(&c.AnnotationFontSize, d.AnnotationFontSize)
	if c.MeasuresPerRow <= 0 {
		c.MeasuresPerRow = d.MeasuresPerRow
	}
	if c.Overflow != ShrinkProportional && c.Overflow != ShrinkLargest {
		c.Overflow = DefaultOverflow
	}
	if c.FontFamily == "" {
		c.FontFamily = d.FontFamily
	}
	if c.Background == "" {
		c.Background = d.Background
	}
	return c
}

func (e *engine) newPage() {
	p := &Page{
		Index:  len(e.geo.Pages),
		Width:  e.cfg.PageWidth,
		Height: e.cfg.PageHeight,
	}
	p.Items = append(p.Items, &Rect{Width: p.Width, Height: p.Height, Fill: e.cfg.Background})
	e.geo.Pages = append(e.geo.Pages, p)
	e.page = p
	e.y = e.cfg.MarginY
}

func (e *engine) add(it Item) { e.page.Items = append(e.page.Items, it) }

func (e *engine) atTop() bool { return e.y <= e.cfg.MarginY }

// reserve starts a new page when a block of height h does not fit. A block
// taller than a whole page is placed anyway.
func (e *engine) reserve(h float64) {
	if e.y+h > e.cfg.PageHeight-e.cfg.MarginY && !e.atTop() {
		e.newPage()
	}
}

// header lays out the title and a metadata line with Key, Time and extra
// fields on the left and the composer on the right.
func (e *engine) header(c *chart.Chart) {
	title := &chart.TextLine{Weight: chart.H1, Zones: []chart.Zone{{
		Alignment: chart.Center,
		Runs:      []chart.StyledRun{{Text: c.Title, Bold: true}},
	}}}
	e.textLine(title, RoleTitle)

	var parts []string
	if c.Key != "" {
		parts = append(parts, "Key: "+c.Key)
	}
	parts = append(parts, "Time: "+c.Time.String())
	for _, f := range c.Extra {
		parts = append(parts, f.Name+": "+f.Value)
	}
	meta := &chart.TextLine{Weight: chart.H3, Zones: []chart.Zone{{
		Alignment: chart.Left,
		Runs:      []chart.StyledRun{{Text: strings.Join(parts, metaSeparator)}},
	}}}
	if c.Composer != "" {
		meta.Zones = append(meta.Zones, chart.Zone{
			Alignment: chart.Right,
			Runs:      []chart.StyledRun{{Text: c.Composer, Italic: true}},
		})
	}
	e.textLine(meta, RoleText)
}

func (e *engine) section(s chart.Section) {
	head := s.Header
	if head == nil && s.Name != "" {
		head = &chart.TextLine{Weight: chart.H3, Zones: []chart.Zone{{
			Alignment: chart.Left,
			Runs:      []chart.StyledRun{{Text: s.Name, Bold: true}},
		}}}
	}

	if !e.atTop() {
		e.y += e.cfg.SectionGap
	}
	if head != nil {
		// Keep the header on the same page as the first element.
		need := e.cfg.LineAdvance(head.Weight)
		if len(s.Elements) > 0 {
			need += e.elementHeight(s.Elements[0])
		}
		e.reserve(need)
		e.textLine(head, RoleSection)
	}

	for _, el := range s.Elements {
		switch el := el.(type) {
		case *chart.TextLine:
			e.textLine(el, RoleText)
		case *chart.Row:
			e.row(el)
		}
	}
}

// elementHeight is the height of the first block an element places.
func (e *engine) elementHeight(el chart.Element) float64 {
	switch el := el.(type) {
	case *chart.TextLine:
		return e.cfg.LineAdvance(el.Weight)
	case *chart.Row:
		n := min(len(el.Measures), e.cfg.MeasuresPerRow)
		return e.rowHeight(el.Measures[:n])
	}
	return 0
}

// textLine places one line of zones.
func (e *engine) textLine(tl *chart.TextLine, role Role) {
	adv := e.cfg.LineAdvance(tl.Weight)
	e.reserve(adv)
	size := e.cfg.FontSize(tl.Weight)
	baseline := e.y + 0.75*adv

	for _, z := range e.placeZones(tl.Zones, size) {
		x := z.x
		for i, r := range z.zone.Runs {
			w := z.natural[i] * z.scale
			e.add(&TextRun{
				X:      x,
				Y:      baseline,
				Text:   r.Text,
				Weight: tl.Weight,
				Size:   size,
				Bold:   r.Bold,
				Italic: r.Italic,
				Align:  z.zone.Alignment,
				Width:  w,
				Scale:  z.scale,
				Role:   role,
			})
			x += w
		}
	}
	e.y += adv
}
