package chart

import "sort"

// QualitySet maps a written quality tail to its canonical name.
type QualitySet map[string]string

// DefaultQualities returns the recognised chord qualities.
func DefaultQualities() QualitySet {
	return QualitySet{
		"":      "major",
		"maj":   "major",
		"M":     "major",
		"m":     "minor",
		"min":   "minor",
		"-":     "minor",
		"5":     "power",
		"6":     "major sixth",
		"m6":    "minor sixth",
		"69":    "six nine",
		"6/9":   "six nine",
		"7":     "dominant seventh",
		"maj7":  "major seventh",
		"M7":    "major seventh",
		"Δ":     "major seventh",
		"Δ7":    "major seventh",
		"m7":    "minor seventh",
		"min7":  "minor seventh",
		"-7":    "minor seventh",
		"mM7":   "minor major seventh",
		"mmaj7": "minor major seventh",
		"9":     "dominant ninth",
		"maj9":  "major ninth",
		"m9":    "minor ninth",
		"11":    "dominant eleventh",
		"m11":   "minor eleventh",
		"13":    "dominant thirteenth",
		"maj13": "major thirteenth",
		"m13":   "minor thirteenth",
		"7b9":   "dominant seventh flat nine",
		"7#9":   "dominant seventh sharp nine",
		"7b5":   "dominant seventh flat five",
		"7#5":   "dominant seventh sharp five",
		"7#11":  "dominant seventh sharp eleven",
		"7sus4": "dominant seventh suspended fourth",
		"dim":   "diminished",
		"°":     "diminished",
		"o":     "diminished",
		"dim7":  "diminished seventh",
		"°7":    "diminished seventh",
		"o7":    "diminished seventh",
		"m7b5":  "half-diminished",
		"ø":     "half-diminished",
		"ø7":    "half-diminished",
		"aug":   "augmented",
		"+":     "augmented",
		"aug7":  "augmented seventh",
		"+7":    "augmented seventh",
		"sus":   "suspended fourth",
		"sus2":  "suspended second",
		"sus4":  "suspended fourth",
		"add9":  "added ninth",
		"add2":  "added second",
		"madd9": "minor added ninth",
	}
}

// Lookup returns the canonical name for a quality tail.
func (q QualitySet) Lookup(tail string) (string, bool) {
	name, ok := q[tail]
	return name, ok
}

// With returns a copy of q extended with extra entries.
func (q QualitySet) With(extra map[string]string) QualitySet {
	out := make(QualitySet, len(q)+len(extra))
	for k, v := range q {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Tails returns all recognised tails in sorted order.
func (q QualitySet) Tails() []string {
	tails := make([]string, 0, len(q))
	for k := range q {
		tails = append(tails, k)
	}
	sort.Strings(tails)
	return tails
}
