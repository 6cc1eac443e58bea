package layout

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/cleanchart/core/assemble"
	"github.com/FocuswithJustin/cleanchart/core/chart"
)

// monoMetrics gives every rune half an em.
type monoMetrics struct{}

func (monoMetrics) Measure(text string, s Style) Size {
	return Size{Width: float64(utf8.RuneCountInString(text)) * s.Size * 0.5, Height: s.Size}
}

func compile(t *testing.T, src string) *chart.Chart {
	t.Helper()
	c, _, err := assemble.Compile(src)
	require.NoError(t, err)
	return c
}

const eps = 1e-9

func runsWithRole(g *Geometry, role Role) []*TextRun {
	var out []*TextRun
	for _, p := range g.Pages {
		for _, r := range p.TextRuns() {
			if r.Role == role {
				out = append(out, r)
			}
		}
	}
	return out
}

func findRun(t *testing.T, g *Geometry, text string) *TextRun {
	t.Helper()
	for _, p := range g.Pages {
		for _, r := range p.TextRuns() {
			if r.Text == text {
				return r
			}
		}
	}
	t.Fatalf("no run with text %q", text)
	return nil
}

func TestLayoutDeterministic(t *testing.T) {
	c := compile(t, "Title: T\nComposer: C\n= <<a <<>>b >>c\n(Am G) 3x F\n")
	a := Layout(c, DefaultConfig(), EstimateMetrics{})
	b := Layout(c, DefaultConfig(), EstimateMetrics{})
	assert.Equal(t, a, b)
}

func TestLayoutPageBackground(t *testing.T) {
	g := Layout(compile(t, "Title: T\nC\n"), DefaultConfig(), nil)
	require.Len(t, g.Pages, 1)
	bg, ok := g.Pages[0].Items[0].(*Rect)
	require.True(t, ok, "first item must be the background")
	assert.Equal(t, 595.0, bg.Width)
	assert.Equal(t, 842.0, bg.Height)
	assert.Equal(t, "#ffffff", bg.Fill)
}

func TestLayoutHeader(t *testing.T) {
	cfg := DefaultConfig()
	g := Layout(compile(t, "Title: Blue Bossa\nComposer: Kenny Dorham\nKey: Cm\nC\n"), cfg, monoMetrics{})

	title := findRun(t, g, "Blue Bossa")
	assert.Equal(t, RoleTitle, title.Role)
	assert.True(t, title.Bold)
	assert.InDelta(t, cfg.PageWidth/2, title.X+title.Width/2, eps)

	composer := findRun(t, g, "Kenny Dorham")
	assert.InDelta(t, cfg.PageWidth-cfg.MarginX, composer.X+composer.Width, eps)

	meta := findRun(t, g, "Key: Cm"+metaSeparator+"Time: 4/4")
	assert.Equal(t, cfg.MarginX, meta.X)
}

func TestLayoutZones(t *testing.T) {
	cfg := DefaultConfig()
	g := Layout(compile(t, "Title: T\n= <<Left <<>>Mid >>Right\n"), cfg, monoMetrics{})

	left := findRun(t, g, "Left")
	mid := findRun(t, g, "Mid")
	right := findRun(t, g, "Right")

	assert.Equal(t, chart.Left, left.Align)
	assert.Equal(t, chart.Center, mid.Align)
	assert.Equal(t, chart.Right, right.Align)

	assert.Equal(t, cfg.MarginX, left.X)
	assert.InDelta(t, cfg.PageWidth/2, mid.X+mid.Width/2, eps)
	assert.InDelta(t, cfg.PageWidth-cfg.MarginX, right.X+right.Width, eps)
	assert.Equal(t, 1.0, left.Scale)
	assert.Equal(t, left.Y, right.Y, "zones of one line share a baseline")
}

func TestLayoutRunsWithinZone(t *testing.T) {
	g := Layout(compile(t, "Title: T\n= plain **bold** tail\n"), DefaultConfig(), monoMetrics{})
	plain := findRun(t, g, "plain ")
	bold := findRun(t, g, "bold")
	tail := findRun(t, g, " tail")
	assert.InDelta(t, plain.X+plain.Width, bold.X, eps)
	assert.InDelta(t, bold.X+bold.Width, tail.X, eps)
	assert.True(t, bold.Bold)
}

func TestLayoutOverflowProportional(t *testing.T) {
	cfg := DefaultConfig()
	long := strings.Repeat("x", 60)
	src := "Title: T\n=== <<" + long + " <<>>" + long + " >>" + long + "\n"
	g := Layout(compile(t, src), cfg, monoMetrics{})

	text := runsWithRole(g, RoleText)
	require.Len(t, text, 4, "meta line plus three zones")
	l, mid, r := text[1], text[2], text[3]

	for _, run := range []*TextRun{l, mid, r} {
		assert.Less(t, run.Scale, 1.0)
		assert.GreaterOrEqual(t, run.X, cfg.MarginX-eps)
		assert.LessOrEqual(t, run.X+run.Width, cfg.PageWidth-cfg.MarginX+eps)
	}
	assert.InDelta(t, l.Scale, mid.Scale, eps, "equal demands shrink equally")
	assert.InDelta(t, l.Scale, r.Scale, eps)
	assert.LessOrEqual(t, l.X+l.Width+cfg.ZoneGap, mid.X+eps, "no overlap")
	assert.LessOrEqual(t, mid.X+mid.Width+cfg.ZoneGap, r.X+eps, "no overlap")

	total := l.Width + mid.Width + r.Width + 2*cfg.ZoneGap
	assert.InDelta(t, cfg.ContentWidth(), total, 1e-6)
}

func TestLayoutOverflowLargest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overflow = ShrinkLargest
	long := strings.Repeat("y", 120)
	g := Layout(compile(t, "Title: T\n= <<short >>"+long+"\n"), cfg, monoMetrics{})

	short := findRun(t, g, "short")
	wide := findRun(t, g, long)
	assert.Equal(t, 1.0, short.Scale, "narrow zone keeps its width")
	assert.Less(t, wide.Scale, 1.0)
	assert.InDelta(t, cfg.PageWidth-cfg.MarginX, wide.X+wide.Width, eps)
	assert.LessOrEqual(t, short.X+short.Width+cfg.ZoneGap, wide.X+eps)
}

func TestLayoutCenterPushedByLeft(t *testing.T) {
	cfg := DefaultConfig()
	g := Layout(compile(t, "Title: T\n= <<"+strings.Repeat("a", 80)+" <<>>mid\n"), cfg, monoMetrics{})
	left := findRun(t, g, strings.Repeat("a", 80))
	mid := findRun(t, g, "mid")
	assert.GreaterOrEqual(t, mid.X, left.X+left.Width+cfg.ZoneGap-eps)
}

func TestLayoutWeights(t *testing.T) {
	g := Layout(compile(t, "Title: T\n=== big\n== mid\n= small\n"), DefaultConfig(), monoMetrics{})
	big, mid, small := findRun(t, g, "big"), findRun(t, g, "mid"), findRun(t, g, "small")
	assert.Greater(t, big.Size, mid.Size)
	assert.Greater(t, mid.Size, small.Size)
	assert.Greater(t, mid.Y-big.Y, 0.0)
	assert.Equal(t, chart.H1, big.Weight)
}

func TestLayoutBarLines(t *testing.T) {
	cfg := DefaultConfig()
	g := Layout(compile(t, "Title: T\nA B C D E F\n"), cfg, monoMetrics{})
	lines := g.Pages[0].Lines()
	require.Len(t, lines, 5+3, "two rows: 4 measures then 2")

	colW := cfg.ContentWidth() / 4
	for i := 0; i < 5; i++ {
		assert.InDelta(t, cfg.MarginX+float64(i)*colW, lines[i].X1, eps)
		assert.Equal(t, BarLine, lines[i].Kind)
		assert.Equal(t, lines[i].X1, lines[i].X2)
	}
	assert.Greater(t, lines[5].Y1, lines[0].Y1, "second row below the first")
}

func TestLayoutBeatPositions(t *testing.T) {
	cfg := DefaultConfig()
	g := Layout(compile(t, "Title: T\nC_G\n"), cfg, monoMetrics{})
	colW := cfg.ContentWidth() / 4

	chords := runsWithRole(g, RoleChord)
	require.Len(t, chords, 2)
	assert.InDelta(t, cfg.MarginX+colW/4, chords[0].X+chords[0].Width/2, eps)
	assert.InDelta(t, cfg.MarginX+3*colW/4, chords[1].X+chords[1].Width/2, eps)
	assert.Equal(t, chords[0].Y, chords[1].Y)
}

func TestLayoutChordShrink(t *testing.T) {
	cfg := DefaultConfig()
	g := Layout(compile(t, "Title: T\nCmaj7_Dm7_Em7_Fmaj7_G7_Am7_Bm7b5_Cmaj7\n"), cfg, monoMetrics{})
	sub := cfg.ContentWidth() / 4 / 8
	for _, r := range runsWithRole(g, RoleChord) {
		assert.LessOrEqual(t, r.Width, sub-2*cfg.BeatPadding+eps, r.Text)
		assert.True(t, r.Shrunk(), r.Text)
	}
}

func TestLayoutEndingsAndAnnotations(t *testing.T) {
	g := Layout(compile(t, "Title: T\n(C 1. D 2. E) \"fine\" F\n"), DefaultConfig(), monoMetrics{})

	endings := runsWithRole(g, RoleEnding)
	require.Len(t, endings, 2)
	assert.Equal(t, "1.", endings[0].Text)
	assert.Equal(t, "2.", endings[1].Text)

	notes := runsWithRole(g, RoleAnnotation)
	require.Len(t, notes, 1)
	assert.Equal(t, "fine", notes[0].Text)
	assert.True(t, notes[0].Italic)

	var bracket int
	for _, l := range g.Pages[0].Lines() {
		if l.Kind == EndingLine {
			bracket++
		}
	}
	assert.Equal(t, 4, bracket, "one rule and one tick per ending")
}

func TestLayoutPageBreaks(t *testing.T) {
	cfg := DefaultConfig()
	src := "Title: T\n" + strings.Repeat("A B C D\n", 40)
	g := Layout(compile(t, src), cfg, monoMetrics{})
	require.Greater(t, len(g.Pages), 1)

	for i, p := range g.Pages {
		assert.Equal(t, i, p.Index)
		_, ok := p.Items[0].(*Rect)
		assert.True(t, ok, "page %d starts with background", i)
		for _, l := range p.Lines() {
			assert.LessOrEqual(t, l.Y2, cfg.PageHeight-cfg.MarginY+eps, "page %d", i)
			assert.GreaterOrEqual(t, l.Y1, cfg.MarginY-eps, "page %d", i)
		}
	}

	var bars int
	for _, p := range g.Pages {
		bars += len(p.Lines())
	}
	assert.Equal(t, 40*5, bars, "no row lost across pages")
}

func TestLayoutSectionHeaderKeptWithRow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageHeight = 200
	g := Layout(compile(t, "Title: T\nA\nB\n[Next]\nC\n"), cfg, monoMetrics{})
	head := findRun(t, g, "Next")
	c := findRun(t, g, "C")
	var headPage, cPage int
	for i, p := range g.Pages {
		for _, r := range p.TextRuns() {
			if r == head {
				headPage = i
			}
			if r == c {
				cPage = i
			}
		}
	}
	assert.Equal(t, headPage, cPage)
	assert.Equal(t, RoleSection, head.Role)
}

func TestBeatLabel(t *testing.T) {
	c := &chart.Chord{Root: "G", Quality: "7"}
	tests := []struct {
		beat   chart.Beat
		text   string
		italic bool
	}{
		{chart.Beat{Kind: chart.BeatChord, Chord: c}, "G7", false},
		{chart.Beat{Kind: chart.BeatChord, Chord: &chart.Chord{Root: "G", Decorations: chart.Push}}, "^G", false},
		{chart.Beat{Kind: chart.BeatChord, Chord: &chart.Chord{Root: "G", Decorations: chart.Accent}}, ">G", false},
		{chart.Beat{Kind: chart.BeatChord, Chord: &chart.Chord{Root: "G", Decorations: chart.Ghost}}, "(G)", true},
		{chart.Beat{Kind: chart.BeatRest}, RestLabel, false},
		{chart.Beat{Kind: chart.BeatNoChord}, NoChordLabel, false},
		{chart.Beat{Kind: chart.BeatFermata}, FermataLabel, false},
	}
	for _, tt := range tests {
		text, _, italic := BeatLabel(tt.beat)
		assert.Equal(t, tt.text, text)
		assert.Equal(t, tt.italic, italic, tt.text)
	}
}

func TestShrink(t *testing.T) {
	got := shrink([]float64{100, 300}, 200, ShrinkProportional)
	assert.InDelta(t, 50, got[0], eps)
	assert.InDelta(t, 150, got[1], eps)

	got = shrink([]float64{50, 300, 400}, 450, ShrinkLargest)
	assert.InDelta(t, 50, got[0], eps)
	assert.InDelta(t, 200, got[1], eps)
	assert.InDelta(t, 200, got[2], eps)

	got = shrink([]float64{10, 20}, 100, ShrinkProportional)
	assert.Equal(t, []float64{10, 20}, got)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.MeasuresPerRow = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MarginX = 300
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.H2Scale = 2
	assert.Error(t, bad.Validate())
}

func TestOverflowPolicyText(t *testing.T) {
	var p OverflowPolicy
	require.NoError(t, p.UnmarshalText([]byte("largest")))
	assert.Equal(t, ShrinkLargest, p)
	b, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "largest", string(b))
	assert.Error(t, p.UnmarshalText([]byte("squash")))
}

func TestEstimateMetrics(t *testing.T) {
	m := EstimateMetrics{}
	plain := m.Measure("Hello", Style{Size: 10})
	bold := m.Measure("Hello", Style{Size: 10, Bold: true})
	assert.Greater(t, plain.Width, 0.0)
	assert.Greater(t, bold.Width, plain.Width)
	assert.Less(t, m.Measure("ii", Style{Size: 10}).Width, m.Measure("MM", Style{Size: 10}).Width)
	assert.False(t, math.IsNaN(m.Measure("", Style{Size: 10}).Width))
}
