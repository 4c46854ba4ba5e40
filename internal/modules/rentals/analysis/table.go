package analysis

import (
	"github.com/go-gota/gota/dataframe"

	"bikeshare-dashboard/internal/modules/rentals/dataset"
	"bikeshare-dashboard/internal/modules/rentals/types"
)

const unknownLabel = "Unknown"

// TableRow is one line of the filtered daily table.
type TableRow struct {
	Date    string `json:"dteday"`
	Season  string `json:"season"`
	Weather string `json:"weather"`
	Count   int    `json:"cnt"`
}

// Table lists the rows of a daily frame with season and weather labels.
func Table(daily dataframe.DataFrame) ([]TableRow, error) {
	if daily.Err != nil {
		return nil, daily.Err
	}
	seasons, err := ints(daily, dataset.ColSeason)
	if err != nil {
		return nil, err
	}
	weathers, err := ints(daily, dataset.ColWeather)
	if err != nil {
		return nil, err
	}
	cnts, err := ints(daily, dataset.ColCount)
	if err != nil {
		return nil, err
	}
	dates := daily.Col(dataset.ColDate).Records()

	out := make([]TableRow, len(dates))
	for i := range dates {
		out[i] = TableRow{
			Date:    dates[i],
			Season:  labelOr(types.SeasonLabel, seasons[i]),
			Weather: labelOr(types.WeatherLabel, weathers[i]),
			Count:   cnts[i],
		}
	}
	return out, nil
}

func labelOr(label func(int) (string, bool), code int) string {
	if l, ok := label(code); ok {
		return l
	}
	return unknownLabel
}
