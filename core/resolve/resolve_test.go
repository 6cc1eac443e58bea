package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/lexer"
	"github.com/FocuswithJustin/cleanchart/core/parser"
)

func structural(t *testing.T, raw string) *chart.ChordLine {
	t.Helper()
	tokens, err := lexer.LexChord(1, raw)
	require.NoError(t, err)
	line, _, err := parser.ParseChord(1, tokens, nil)
	require.NoError(t, err)
	return line
}

func resolveLine(t *testing.T, raw string) (*chart.Row, []cerrors.Diagnostic, error) {
	t.Helper()
	row, _, diags, err := Resolve(structural(t, raw), State{}, DefaultOptions())
	return row, diags, err
}

func symbols(row *chart.Row) []string {
	var out []string
	for _, m := range row.Measures {
		s := ""
		for i, b := range m.Beats {
			if i > 0 {
				s += " "
			}
			s += b.String()
		}
		out = append(out, s)
	}
	return out
}

func TestResolveRepeatBar(t *testing.T) {
	row, diags, err := resolveLine(t, "Am %")
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, row.Measures, 2)
	for _, m := range row.Measures {
		require.Len(t, m.Beats, 1)
		assert.Equal(t, "A", m.Beats[0].Chord.Root)
		assert.Equal(t, "minor", m.Beats[0].Chord.QualityName)
	}
	assert.NotSame(t, row.Measures[0].Beats[0].Chord, row.Measures[1].Beats[0].Chord)
}

func TestResolveGroupWithTrailing(t *testing.T) {
	row, _, err := resolveLine(t, "(Am G F F _ G) 4x Am fermata")
	require.NoError(t, err)
	require.Len(t, row.Measures, 4*4+2)

	last := row.Measures[len(row.Measures)-1]
	require.Len(t, last.Beats, 1)
	assert.Equal(t, chart.BeatFermata, last.Beats[0].Kind)
	assert.Equal(t, "F G", symbols(row)[3])
}

func TestResolveLengthCorrect(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"(A B) 3x", 6},
		{"(A B)", 4},
		{"((A B) 2x C) 3x", 15},
		{"A (B) 1x C", 3},
	}
	for _, tt := range tests {
		row, _, err := resolveLine(t, tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Len(t, row.Measures, tt.want, tt.raw)
	}
}

func TestResolveEndings(t *testing.T) {
	row, diags, err := resolveLine(t, "(C D 1. E 2. F G) 2x")
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"C", "D", "E", "C", "D", "F", "G"}, symbols(row))
	assert.Equal(t, 1, row.Measures[2].Ending)
	assert.Equal(t, 2, row.Measures[5].Ending)
	assert.Equal(t, 0, row.Measures[3].Ending)
}

func TestResolveUnmatchedEnding(t *testing.T) {
	row, diags, err := resolveLine(t, "(C 1. D 4. F 3. E) 2x")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D", "C", "E", "F"}, symbols(row))
	require.Len(t, diags, 2)
	assert.Equal(t, cerrors.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "ending 3")
	assert.Contains(t, diags[1].Message, "ending 4")
}

func TestResolveRepeatChord(t *testing.T) {
	row, _, err := resolveLine(t, "C,* ?* N.C. *")
	require.NoError(t, err)
	require.Len(t, row.Measures, 4)

	assert.Equal(t, "C , C", symbols(row)[0])

	ghost := row.Measures[1].Beats[0]
	assert.Equal(t, "C", ghost.Chord.Symbol())
	assert.True(t, ghost.Chord.Decorations.Has(chart.Ghost))

	assert.Equal(t, "C", symbols(row)[3], "'*' skips N.C.")
	assert.Zero(t, row.Measures[3].Beats[0].Chord.Decorations)
}

func TestResolveErrors(t *testing.T) {
	for _, raw := range []string{"%", "*", "N.C. *"} {
		_, _, err := resolveLine(t, raw)
		var re *cerrors.ResolutionError
		require.ErrorAs(t, err, &re, raw)
		assert.Equal(t, 1, re.Line)
	}
	_, _, err := resolveLine(t, "%")
	assert.Contains(t, err.Error(), "no previous bar to repeat")
}

func TestResolveCeiling(t *testing.T) {
	_, _, err := resolveLine(t, "(A) 5000x")
	assert.ErrorIs(t, err, cerrors.ErrResolution)

	_, _, err = resolveLine(t, "(A B) 3000x")
	assert.ErrorIs(t, err, cerrors.ErrResolution)
	assert.Contains(t, err.Error(), "more than 4096 measures")

	_, _, err = resolveLine(t, "(A) 99999999999999999999999x")
	assert.ErrorIs(t, err, cerrors.ErrResolution)

	row, _, _, err := Resolve(structural(t, "(A B C D) 3x"), State{}, Options{MaxMeasures: 12})
	require.NoError(t, err)
	assert.Len(t, row.Measures, 12)

	_, _, _, err = Resolve(structural(t, "(A B C D) 3x"), State{}, Options{MaxMeasures: 11})
	assert.ErrorIs(t, err, cerrors.ErrResolution)
}

func TestResolveAccumulator(t *testing.T) {
	first, acc, _, err := Resolve(structural(t, "C G7"), State{}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, first.Measures, 2)
	assert.Equal(t, 2, acc.Emitted)

	second, acc, _, err := Resolve(structural(t, "% *"), acc, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"G7", "G7"}, symbols(second))
	assert.Equal(t, 4, acc.Emitted)

	_, _, _, err = Resolve(structural(t, "(A B) 3x"), State{Emitted: 4095}, DefaultOptions())
	assert.ErrorIs(t, err, cerrors.ErrResolution, "ceiling applies to the whole chart")
}

func TestResolveAnnotationOnce(t *testing.T) {
	row, _, err := resolveLine(t, `("head" A B) 2x`)
	require.NoError(t, err)
	require.Len(t, row.Measures, 4)
	assert.Equal(t, "head", row.Measures[0].Annotation)
	assert.Empty(t, row.Measures[2].Annotation)
}

func TestResolveSourceUnchanged(t *testing.T) {
	line := structural(t, "C ^* %")
	_, _, _, err := Resolve(line, State{}, DefaultOptions())
	require.NoError(t, err)

	star := line.Nodes[1].(*chart.Measure).Beats[0]
	assert.Equal(t, chart.BeatRepeatChord, star.Kind)
	assert.True(t, line.Nodes[2].(*chart.Measure).RepeatsPrevious)
}
