package ephemeris

import "time"

// natalChartRequest тело запроса расчёта натальной карты
type natalChartRequest struct {
	BirthDate          time.Time `json:"birth_date"`
	BirthTimeSpecified bool      `json:"birth_time_specified"`
	City               string    `json:"city"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Timezone           string    `json:"timezone"`
}
