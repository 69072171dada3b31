package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/efreitasn/papertrader/internal/domain"
)

const (
	defaultChartWidth  = 900
	defaultChartHeight = 300
	chartPadX          = 80
	chartPadY          = 60
)

// Marker highlights a fill on the equity chart.
type Marker struct {
	TS   float64
	Side domain.Side
}

// EquitySVG renders the equity curve as a polyline chart. Markers are
// placed on the curve at the first point at or after their timestamp. An
// empty curve renders the frame and title only.
func EquitySVG(w, h int, points []domain.EquityPoint, marks []Marker, title string) []byte {
	if w <= chartPadX {
		w = defaultChartWidth
	}
	if h <= chartPadY {
		h = defaultChartHeight
	}
	plotW := float64(w - chartPadX)
	plotH := float64(h - chartPadY)

	var b bytes.Buffer
	fmt.Fprintf(&b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d'>", w, h, w, h)
	b.WriteString("<rect width='100%' height='100%' fill='#0b0f17'/>")
	b.WriteString("<g transform='translate(40,20)'>")
	fmt.Fprintf(&b, "<line x1='0' y1='0' x2='0' y2='%.0f' stroke='#1f2837'/>", plotH)
	fmt.Fprintf(&b, "<line x1='0' y1='%.0f' x2='%.0f' y2='%.0f' stroke='#1f2837'/>", plotH, plotW, plotH)

	if len(points) > 0 {
		minx, maxx := points[0].TS, points[len(points)-1].TS
		miny, maxy := points[0].Equity, points[0].Equity
		for _, p := range points {
			miny = min(miny, p.Equity)
			maxy = max(maxy, p.Equity)
		}
		sx := plotW / (maxx - minx + 1e-9)
		sy := plotH / (maxy - miny + 1e-9)
		project := func(p domain.EquityPoint) (float64, float64) {
			return (p.TS - minx) * sx, plotH - (p.Equity-miny)*sy
		}

		b.WriteString("<polyline fill='none' stroke='#59a6ff' stroke-width='1.5' points='")
		for i, p := range points {
			x, y := project(p)
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%.2f,%.2f", x, y)
		}
		b.WriteString("'/>")

		for _, m := range marks {
			p, ok := pointAt(points, m.TS)
			if !ok {
				continue
			}
			x, y := project(p)
			color := "#8bff9b"
			if m.Side == domain.SideSell {
				color = "#ff7a7a"
			}
			fmt.Fprintf(&b, "<circle cx='%.2f' cy='%.2f' r='3' fill='%s'/>", x, y, color)
		}
	}

	b.WriteString("</g>")
	fmt.Fprintf(&b, "<text x='16' y='18' fill='#e6edf3' font-family='sans-serif' font-size='14'>%s</text>", html.EscapeString(title))
	b.WriteString("</svg>")
	return b.Bytes()
}

func pointAt(points []domain.EquityPoint, ts float64) (domain.EquityPoint, bool) {
	for _, p := range points {
		if p.TS >= ts {
			return p, true
		}
	}
	return domain.EquityPoint{}, false
}
