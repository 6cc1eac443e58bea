package layout

import (
	"sort"

	"github.com/FocuswithJustin/cleanchart/core/chart"
)

// placedZone is a zone with its measured run widths and final position.
type placedZone struct {
	zone    chart.Zone
	natural []float64
	width   float64
	scale   float64
	x       float64
}

// placeZones measures the non-empty zones of a line, shrinks them if they
// overflow the content width, and positions them. Left zones pack from the
// left margin, Right zones from the right margin, and Center zones sit at
// the midpoint, pushed inward if they would collide with either side.
func (e *engine) placeZones(zones []chart.Zone, size float64) []placedZone {
	var placed []placedZone
	for _, z := range zones {
		if len(z.Runs) == 0 {
			continue
		}
		pz := placedZone{zone: z, scale: 1}
		for _, r := range z.Runs {
			w := e.m.Measure(r.Text, Style{Size: size, Bold: r.Bold, Italic: r.Italic}).Width
			pz.natural = append(pz.natural, w)
			pz.width += w
		}
		placed = append(placed, pz)
	}
	if len(placed) == 0 {
		return nil
	}

	avail := e.cfg.ContentWidth()
	gap := e.cfg.ZoneGap
	gaps := gap * float64(len(placed)-1)
	if gaps >= avail {
		gap, gaps = 0, 0
	}

	var demand float64
	for _, z := range placed {
		demand += z.width
	}
	if demand+gaps > avail {
		widths := make([]float64, len(placed))
		for i, z := range placed {
			widths[i] = z.width
		}
		fitted := shrink(widths, avail-gaps, e.cfg.Overflow)
		for i := range placed {
			if placed[i].width > 0 {
				placed[i].scale = fitted[i] / placed[i].width
			}
			placed[i].width = fitted[i]
		}
	}

	left := e.cfg.MarginX
	right := e.cfg.PageWidth - e.cfg.MarginX
	for i := range placed {
		if placed[i].zone.Alignment == chart.Left {
			placed[i].x = left
			left += placed[i].width + gap
		}
	}
	for i := len(placed) - 1; i >= 0; i-- {
		if placed[i].zone.Alignment == chart.Right {
			placed[i].x = right - placed[i].width
			right = placed[i].x - gap
		}
	}

	var centerWidth float64
	n := 0
	for _, z := range placed {
		if z.zone.Alignment == chart.Center {
			centerWidth += z.width
			n++
		}
	}
	if n > 0 {
		centerWidth += gap * float64(n-1)
		start := e.cfg.PageWidth/2 - centerWidth/2
		if start < left {
			start = left
		}
		if start+centerWidth > right {
			start = right - centerWidth
		}
		for i := range placed {
			if placed[i].zone.Alignment == chart.Center {
				placed[i].x = start
				start += placed[i].width + gap
			}
		}
	}
	return placed
}

// shrink fits widths into target according to policy.
func shrink(widths []float64, target float64, policy OverflowPolicy) []float64 {
	out := make([]float64, len(widths))
	var total float64
	for _, w := range widths {
		total += w
	}
	if total <= target || total == 0 {
		copy(out, widths)
		return out
	}

	switch policy {
	case ShrinkLargest:
		// Find the cap L with sum(min(w, L)) == target.
		order := make([]int, len(widths))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return widths[order[a]] < widths[order[b]] })
		limit := 0.0
		remaining := target
		for k, idx := range order {
			share := remaining / float64(len(order)-k)
			if widths[idx] <= share {
				remaining -= widths[idx]
				continue
			}
			limit = share
			break
		}
		for i, w := range widths {
			out[i] = min(w, limit)
		}
	default:
		f := target / total
		for i, w := range widths {
			out[i] = w * f
		}
	}
	return out
}
