package types

const (
	KindDaily  = "daily"
	KindHourly = "hourly"
)

// RentalMessage is the MQTT payload carrying one daily or hourly row.
type RentalMessage struct {
	Kind    string  `json:"kind"`
	Date    string  `json:"dteday"`
	Hour    *int    `json:"hr,omitempty"`
	Season  int     `json:"season"`
	Weather int     `json:"weathersit"`
	Weekday int     `json:"weekday"`
	Temp    float64 `json:"temp"`
	Count   int     `json:"cnt"`
}
