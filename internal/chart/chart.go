// Package chart lays out the sensitivity series as SVG line-chart geometry
// for the dashboard template.
package chart

import (
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/profitlevers/internal/profit"
)

// Tick is an axis label at a pixel position.
type Tick struct {
	Pos   float64 `json:"pos"`
	Value float64 `json:"value"`
}

// Line is a laid-out chart.
type Line struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
	// Points is the SVG polyline "points" attribute.
	Points string `json:"points"`
	// ZeroY is the y pixel of the break-even line; HasZero is false when
	// zero lies outside the plotted range.
	ZeroY   float64 `json:"zero_y"`
	HasZero bool    `json:"has_zero"`
	// MarkerX is the x pixel of the current external sales; HasMarker is
	// false when it lies outside the sweep.
	MarkerX   float64 `json:"marker_x"`
	HasMarker bool    `json:"has_marker"`
	XTicks    []Tick  `json:"x_ticks"`
	YTicks    []Tick  `json:"y_ticks"`
}

// Layout fits series into a width x height box with padding on every side.
// scale converts values (AUD '000) into the display currency. An empty
// series, or one whose ranges cannot be represented, yields an empty Line.
func Layout(series []profit.Point, current float64, width, height, padding float64, scale func(float64) float64) Line {
	line := Line{Width: width, Height: height, Padding: padding}
	if len(series) == 0 {
		return line
	}
	if scale == nil {
		scale = func(v float64) float64 { return v }
	}

	minX, maxX := series[0].ExternalSales, series[len(series)-1].ExternalSales
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range series {
		minY = math.Min(minY, p.NetProfit)
		maxY = math.Max(maxY, p.NetProfit)
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		minY, maxY = minY-1, maxY+1
	}

	if maxX <= minX || maxY <= minY || !finite(maxX-minX) || !finite(maxY-minY) {
		return line
	}

	plotW := width - 2*padding
	plotH := height - 2*padding
	x := func(v float64) float64 { return padding + (v-minX)/(maxX-minX)*plotW }
	y := func(v float64) float64 { return padding + (maxY-v)/(maxY-minY)*plotH }

	var sb strings.Builder
	for i, p := range series {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(coord(x(p.ExternalSales)))
		sb.WriteByte(',')
		sb.WriteString(coord(y(p.NetProfit)))
	}
	line.Points = sb.String()

	if minY <= 0 && maxY >= 0 {
		line.ZeroY = y(0)
		line.HasZero = true
	}
	if current >= minX && current <= maxX {
		line.MarkerX = x(current)
		line.HasMarker = true
	}

	const ticks = 4
	for i := 0; i <= ticks; i++ {
		f := float64(i) / ticks
		xv := minX + f*(maxX-minX)
		yv := minY + f*(maxY-minY)
		if sx := scale(xv); finite(sx) {
			line.XTicks = append(line.XTicks, Tick{Pos: x(xv), Value: sx})
		}
		if sy := scale(yv); finite(sy) {
			line.YTicks = append(line.YTicks, Tick{Pos: y(yv), Value: sy})
		}
	}

	return line
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
