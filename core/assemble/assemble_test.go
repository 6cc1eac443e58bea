package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/resolve"
)

const autumn = `Title: Autumn Leaves
Composer: Joseph Kosma
Key: Gm
Time: 4/4
Tempo: 120

# comment lines are skipped
=== <<>>Autumn Leaves

= Verse
(Cm7 F7 Bbmaj7 Ebmaj7) 2x
Am7b5 D7 Gm %

[Bridge]
== <<>>*slowly*
Am7b5 D7 Gm *
`

func TestCompileChart(t *testing.T) {
	c, diags, err := Compile(autumn)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, "Autumn Leaves", c.Title)
	assert.Equal(t, "Joseph Kosma", c.Composer)
	assert.Equal(t, "Gm", c.Key)
	assert.Equal(t, chart.CommonTime, c.Time)
	require.Len(t, c.Extra, 1)
	assert.Equal(t, chart.Field{Name: "Tempo", Value: "120", Line: 5}, c.Extra[0])

	require.Len(t, c.Sections, 3)

	preface := c.Sections[0]
	assert.Empty(t, preface.Name)
	require.Len(t, preface.Elements, 1)
	assert.IsType(t, &chart.TextLine{}, preface.Elements[0])

	verse := c.Sections[1]
	assert.Equal(t, "Verse", verse.Name)
	require.NotNil(t, verse.Header)
	assert.Equal(t, 10, verse.Header.Line)
	require.Len(t, verse.Elements, 2)
	assert.Len(t, verse.Elements[0].(*chart.Row).Measures, 8)
	assert.Len(t, verse.Elements[1].(*chart.Row).Measures, 4)

	bridge := c.Sections[2]
	assert.Equal(t, "Bridge", bridge.Name)
	assert.Nil(t, bridge.Header)
	require.Len(t, bridge.Elements, 2)

	assert.Equal(t, 16, c.MeasureCount())
}

func TestCompileEndToEnd(t *testing.T) {
	c, _, err := Compile("Title: T\nAm %\n")
	require.NoError(t, err)
	require.Len(t, c.Sections, 1)
	row := c.Sections[0].Elements[0].(*chart.Row)
	require.Len(t, row.Measures, 2)
	for _, m := range row.Measures {
		require.Len(t, m.Beats, 1)
		assert.Equal(t, "A", m.Beats[0].Chord.Root)
		assert.Equal(t, "minor", m.Beats[0].Chord.QualityName)
	}

	// "_" joins beats, so "F _ G" is one measure: 4 x 4 from the group, then
	// Am and fermata make 18.
	c, _, err = Compile("Title: T\n(Am G F F _ G) 4x Am fermata\n")
	require.NoError(t, err)
	assert.Equal(t, 18, c.MeasureCount())
}

func TestCompileMissingTitle(t *testing.T) {
	c, _, err := Compile("Composer: X\nAm G\n")
	assert.Nil(t, c, "no partial chart on a hard error")
	var ve *cerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Title", ve.Field)

	assert.Equal(t, 1, ve.Line)
	assert.Contains(t, err.Error(), "line 1")

	_, _, err = Compile("Composer: X\nKey: C\n\nAm G\n")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 2, ve.Line, "after the last metadata line")

	_, _, err = Compile("\n\nAm G\n")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Line)

	_, _, err = Compile("Key: C\nTitle:   \nAm\n")
	assert.ErrorIs(t, err, cerrors.ErrValidation)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 2, ve.Line, "at the empty Title line")
}

func TestCompileTime(t *testing.T) {
	tests := []struct {
		value   string
		want    chart.TimeSignature
		wantErr bool
	}{
		{"3/4", chart.TimeSignature{Numerator: 3, Denominator: 4}, false},
		{"6 / 8", chart.TimeSignature{Numerator: 6, Denominator: 8}, false},
		{"C", chart.CommonTime, false},
		{"C|", chart.TimeSignature{Numerator: 2, Denominator: 2}, false},
		{"4/3", chart.TimeSignature{}, true},
		{"0/4", chart.TimeSignature{}, true},
		{"waltz", chart.TimeSignature{}, true},
	}
	for _, tt := range tests {
		c, _, err := Compile("Title: T\nTime: " + tt.value + "\nC\n")
		if tt.wantErr {
			assert.ErrorIs(t, err, cerrors.ErrValidation, tt.value)
			continue
		}
		require.NoError(t, err, tt.value)
		assert.Equal(t, tt.want, c.Time, tt.value)
	}
}

func TestCompileMetadataCase(t *testing.T) {
	c, diags, err := Compile("title: lower\nTITLE: upper\nC\n")
	require.NoError(t, err)
	assert.Equal(t, "upper", c.Title)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "duplicate metadata")
}

func TestCompileMetadataAfterBody(t *testing.T) {
	_, _, err := Compile("Title: T\nC\nKey: G\n")
	var pe *cerrors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
}

func TestCompileSectionRules(t *testing.T) {
	src := "Title: T\n= Not a header\n= Still not\n== Verse\nC\n= Chorus\nG\n"
	c, _, err := Compile(src)
	require.NoError(t, err)
	require.Len(t, c.Sections, 2)

	preface := c.Sections[0]
	require.Len(t, preface.Elements, 4, "H2 lines and H3 lines not followed by chords stay in place")
	assert.Equal(t, "Chorus", c.Sections[1].Name)
}

func TestCompileDiagnostics(t *testing.T) {
	c, diags, err := Compile("Title: T\nCzz (D 3. E)\n")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0].Message, "unknown chord quality")
	assert.Contains(t, diags[1].Message, "ending 3")
}

func TestCompileErrorsHalt(t *testing.T) {
	tests := []struct {
		src  string
		base error
		line int
	}{
		{"Title: T\n==== too big\n", cerrors.ErrLex, 2},
		{"Title: T\nC\n(A B\n", cerrors.ErrParse, 3},
		{"Title: T\n= *open\n", cerrors.ErrParse, 2},
		{"Title: T\n%\n", cerrors.ErrResolution, 2},
		{"Title: T\n[]\n", cerrors.ErrParse, 2},
	}
	for _, tt := range tests {
		c, _, err := Compile(tt.src)
		assert.Nil(t, c, tt.src)
		assert.ErrorIs(t, err, tt.base, tt.src)
		assert.Contains(t, err.Error(), "line ", tt.src)
	}
}

func TestCompileAccumulatorAcrossLines(t *testing.T) {
	c, _, err := Compile("Title: T\n[A]\nC G\n[B]\n% *\n")
	require.NoError(t, err)
	row := c.Sections[1].Elements[0].(*chart.Row)
	assert.Equal(t, "G", row.Measures[0].Beats[0].Chord.Symbol())
	assert.Equal(t, "G", row.Measures[1].Beats[0].Chord.Symbol())
}

func TestCompileCeilingOption(t *testing.T) {
	opts := DefaultOptions()
	opts.Resolve = resolve.Options{MaxMeasures: 3}
	_, _, err := CompileWithOptions("Title: T\nC D\nE F\n", opts)
	assert.ErrorIs(t, err, cerrors.ErrResolution)
}

func TestCompileDeterministic(t *testing.T) {
	a, _, err := Compile(autumn)
	require.NoError(t, err)
	b, _, err := Compile(autumn)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
