package charts

import (
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bikeshare-dashboard/internal/modules/rentals/analysis"
)

var ErrNoData = analysis.ErrNoData

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}
	return chart.SVG
}

type Name string

const (
	Hourly      Name = "hourly"
	DayType     Name = "daytype"
	Weekday     Name = "weekday"
	Temperature Name = "temperature"
)

var Names = []Name{Hourly, DayType, Weekday, Temperature}

// ParseFile splits a chart file name such as "hourly.png" into its chart and
// format.
func ParseFile(file string) (Name, Format, error) {
	base, ext, ok := strings.Cut(file, ".")
	if !ok {
		return "", "", fmt.Errorf("chart %q: missing extension", file)
	}
	f := Format(ext)
	if f != FormatSVG && f != FormatPNG {
		return "", "", fmt.Errorf("chart %q: unsupported format %q", file, ext)
	}
	for _, n := range Names {
		if Name(base) == n {
			return n, f, nil
		}
	}
	return "", "", fmt.Errorf("unknown chart %q", base)
}

const (
	width  = 720
	height = 360
)

var (
	lineColor = drawing.ColorFromHex("1f77b4")
	barColor  = drawing.ColorFromHex("f08080")
	pieColors = []drawing.Color{drawing.ColorFromHex("66b3ff"), drawing.ColorFromHex("ff9999")}
)

var background = chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}

// RenderHourly draws mean rentals per hour of day as a line with markers.
func RenderHourly(w io.Writer, f Format, points []analysis.HourPoint) error {
	if len(points) == 0 {
		return ErrNoData
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Hour)
		ys[i] = p.Mean
	}

	ticks := make([]chart.Tick, 0, 7)
	for h := 0; h <= 24; h += 4 {
		ticks = append(ticks, chart.Tick{Value: float64(h), Label: fmt.Sprintf("%d", h)})
	}

	ch := chart.Chart{
		Title:      "Average rentals by hour",
		Width:      width,
		Height:     height,
		Background: background,
		XAxis: chart.XAxis{
			Name:  "Hour",
			Range: &chart.ContinuousRange{Min: 0, Max: 24},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Rentals",
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(ys)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Average rentals",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: 2,
					StrokeColor: lineColor,
					DotWidth:    4,
					DotColor:    lineColor,
				},
			},
		},
	}
	return render(ch.Render, w, f, "hourly")
}

// RenderDayType draws the weekday/weekend split of days as a pie.
func RenderDayType(w io.Writer, f Format, shares []analysis.DayTypeShare) error {
	values := make([]chart.Value, 0, len(shares))
	for i, s := range shares {
		if s.Days == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(s.Days),
			Label: s.Label + " " + s.PercentLabel(),
			Style: chart.Style{FillColor: pieColors[i%len(pieColors)]},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}
	pie := chart.PieChart{
		Title:  "Weekday vs weekend days",
		Width:  height,
		Height: height,
		Values: values,
	}
	return render(pie.Render, w, f, "daytype")
}

// RenderWeekday draws mean rentals per day of week.
func RenderWeekday(w io.Writer, f Format, avgs []analysis.WeekdayAverage) error {
	days := 0
	bars := make([]chart.Value, 0, len(avgs))
	for _, a := range avgs {
		days += a.Days
		bars = append(bars, bar(a.Label[:3], a.Mean))
	}
	if days == 0 {
		return ErrNoData
	}
	return renderBars(w, f, "weekday", "Average rentals by day of week", bars)
}

// RenderTemperature draws mean rentals per temperature band.
func RenderTemperature(w io.Writer, f Format, bands []analysis.TemperatureBand) error {
	days := 0
	bars := make([]chart.Value, 0, len(bands))
	for _, b := range bands {
		days += b.Days
		bars = append(bars, bar(b.Label, b.Mean))
	}
	if days == 0 {
		return ErrNoData
	}
	return renderBars(w, f, "temperature", "Average rentals by temperature", bars)
}

func bar(label string, v float64) chart.Value {
	return chart.Value{
		Label: label,
		Value: v,
		Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
	}
}

func renderBars(w io.Writer, f Format, name, title string, bars []chart.Value) error {
	ys := make([]float64, len(bars))
	for i, b := range bars {
		ys[i] = b.Value
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: background,
		BarWidth:   60,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(ys)},
		},
		Bars: bars,
	}
	return render(bc.Render, w, f, name)
}

func render(fn func(chart.RendererProvider, io.Writer) error, w io.Writer, f Format, name string) error {
	if err := fn(f.provider(), w); err != nil {
		return fmt.Errorf("render %s chart: %w", name, err)
	}
	return nil
}

// upperBound leaves headroom above the largest value and keeps the range
// non-empty when every value is zero.
func upperBound(vals []float64) float64 {
	max := 0.0
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return 1
	}
	return max * 1.1
}
