package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightFromMarkers(t *testing.T) {
	tests := []struct {
		n      int
		want   Weight
		wantOK bool
	}{
		{1, H3, true},
		{2, H2, true},
		{3, H1, true},
		{0, 0, false},
		{4, 0, false},
	}
	for _, tt := range tests {
		got, ok := WeightFromMarkers(tt.n)
		assert.Equal(t, tt.wantOK, ok, "n=%d", tt.n)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
	}
	assert.True(t, H1 > H2 && H2 > H3, "weights must order H1 > H2 > H3")
}

func TestDecoration(t *testing.T) {
	d := Push | Ghost
	assert.True(t, d.Has(Push))
	assert.True(t, d.Has(Ghost))
	assert.False(t, d.Has(Accent))
	assert.False(t, d.Has(0))
	assert.Equal(t, "push+ghost", d.String())
	assert.Equal(t, "", Decoration(0).String())
}

func TestChordSymbol(t *testing.T) {
	c := Chord{Root: "F#", Quality: "m7b5", Bass: "C"}
	assert.Equal(t, "F#m7b5/C", c.Symbol())
	assert.False(t, c.KnownQuality())

	c.QualityName = "half-diminished"
	assert.True(t, c.KnownQuality())
}

func TestBeatString(t *testing.T) {
	am := &Chord{Root: "A", Quality: "m"}
	assert.Equal(t, "Am", Beat{Kind: BeatChord, Chord: am}.String())
	assert.Equal(t, ",", Beat{Kind: BeatRest}.String())
	assert.Equal(t, "N.C.", Beat{Kind: BeatNoChord}.String())
	assert.True(t, Beat{Kind: BeatChord, Chord: am}.Sounding())
	assert.False(t, Beat{Kind: BeatFermata}.Sounding())
}

func TestDefaultQualities(t *testing.T) {
	q := DefaultQualities()

	name, ok := q.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, "minor", name)

	name, ok = q.Lookup("")
	require.True(t, ok)
	assert.Equal(t, "major", name)

	_, ok = q.Lookup("zz")
	assert.False(t, ok)

	ext := q.With(map[string]string{"zz": "custom"})
	_, ok = ext.Lookup("zz")
	assert.True(t, ok)
	_, ok = q.Lookup("zz")
	assert.False(t, ok, "With must not modify the receiver")

	tails := q.Tails()
	require.NotEmpty(t, tails)
	assert.Equal(t, "", tails[0])
}

func TestMeasureCount(t *testing.T) {
	c := &Chart{
		Sections: []Section{
			{Elements: []Element{
				&TextLine{Line: 1, Weight: H3},
				&Row{Line: 2, Measures: make([]Measure, 3)},
			}},
			{Name: "Verse", Elements: []Element{&Row{Line: 5, Measures: make([]Measure, 4)}}},
		},
	}
	assert.Equal(t, 7, c.MeasureCount())
	assert.Equal(t, 2, c.Sections[0].Elements[1].SourceLine())
}

func TestZoneText(t *testing.T) {
	z := Zone{Alignment: Center, Runs: []StyledRun{{Text: "a "}, {Text: "b", Bold: true}}}
	assert.Equal(t, "a b", z.Text())
	assert.Equal(t, "center", z.Alignment.String())
	assert.Equal(t, "4/4", CommonTime.String())
}
