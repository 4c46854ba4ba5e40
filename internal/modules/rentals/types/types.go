package types

import "time"

// DateLayout is the canonical dteday format used in frames, SQL and query strings.
const DateLayout = "2006-01-02"

type DailyRecord struct {
	Date    time.Time `json:"dteday"`
	Season  int       `json:"season"`
	Weather int       `json:"weathersit"`
	Weekday int       `json:"weekday"`
	Temp    float64   `json:"temp"`
	Count   int       `json:"cnt"`
}

type HourlyRecord struct {
	Date    time.Time `json:"dteday"`
	Hour    int       `json:"hr"`
	Season  int       `json:"season"`
	Weather int       `json:"weathersit"`
	Weekday int       `json:"weekday"`
	Temp    float64   `json:"temp"`
	Count   int       `json:"cnt"`
}

// Option is one selectable season or weather condition.
type Option struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

var seasonLabels = map[int]string{
	1: "Winter",
	2: "Spring",
	3: "Summer",
	4: "Fall",
}

var weatherLabels = map[int]string{
	1: "Clear",
	2: "Cloudy",
	3: "Light Rain",
	4: "Heavy Rain",
}

var weekdayLabels = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// WeekOrder is the display order of the weekly averages chart.
var WeekOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func SeasonLabel(code int) (string, bool) {
	l, ok := seasonLabels[code]
	return l, ok
}

func WeatherLabel(code int) (string, bool) {
	l, ok := weatherLabels[code]
	return l, ok
}

// WeekdayLabel maps the dataset's 0=Sunday encoding to a day name.
func WeekdayLabel(code int) (string, bool) {
	if code < 0 || code >= len(weekdayLabels) {
		return "", false
	}
	return weekdayLabels[code], true
}

// Labels returns the labels of opts in order.
func Labels(opts []Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Label)
	}
	return out
}
