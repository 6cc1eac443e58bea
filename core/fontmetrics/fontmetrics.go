// Package fontmetrics measures text with the Go font family so layout can
// use real advance widths instead of the built-in estimate.
package fontmetrics

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/FocuswithJustin/cleanchart/core/layout"
)

// dpi makes one pixel equal one point.
const dpi = 72

type variant int

const (
	regular variant = iota
	bold
	italic
	boldItalic
)

func variantOf(s layout.Style) variant {
	switch {
	case s.Bold && s.Italic:
		return boldItalic
	case s.Bold:
		return bold
	case s.Italic:
		return italic
	default:
		return regular
	}
}

type faceKey struct {
	v    variant
	size float64
}

// Metrics implements layout.TextMetrics. Faces are created lazily per
// variant and size; the cache and every face are guarded by mu, so a
// Metrics may be shared between goroutines.
type Metrics struct {
	fonts [4]*opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

var _ layout.TextMetrics = (*Metrics)(nil)

// New parses the embedded Go fonts.
func New() (*Metrics, error) {
	m := &Metrics{faces: make(map[faceKey]font.Face)}
	for v, ttf := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF} {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parsing Go font %d: %w", v, err)
		}
		m.fonts[v] = f
	}
	return m, nil
}

// Measure implements layout.TextMetrics.
func (m *Metrics) Measure(text string, s layout.Style) layout.Size {
	if s.Size <= 0 {
		return layout.Size{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	face, err := m.face(faceKey{v: variantOf(s), size: s.Size})
	if err != nil {
		return layout.EstimateMetrics{}.Measure(text, s)
	}
	adv := font.MeasureString(face, text)
	met := face.Metrics()
	return layout.Size{
		Width:  float64(adv) / 64,
		Height: float64(met.Height) / 64,
	}
}

// face returns the cached face for k. The caller holds mu.
func (m *Metrics) face(k faceKey) (font.Face, error) {
	if f, ok := m.faces[k]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.fonts[k.v], &opentype.FaceOptions{
		Size:    k.size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[k] = f
	return f, nil
}

// CachedFaces returns the number of faces created so far.
func (m *Metrics) CachedFaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.faces)
}

// Close releases every cached face.
func (m *Metrics) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for k, f := range m.faces {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.faces, k)
	}
	return first
}
