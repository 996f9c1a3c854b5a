package dataset

import (
	"math"
	"math/rand"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// Synthetic generates n labeled records deterministically from seed.
//
// Long-term rentals are made more likely on days off, around midday, in warm
// and dry weather; commute hours and storms favour short-term rentals. The
// relationship is noisy but learnable, which makes the set useful as a test
// fixture and as stand-in training data.
func Synthetic(n int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	records := make([]RawRecord, n)
	for i := range records {
		records[i] = syntheticRecord(rng)
	}
	return &Dataset{records: records}
}

var seasonBaseTemp = [5]float64{0, 5, 15, 25, 14}

func syntheticRecord(rng *rand.Rand) RawRecord {
	month := rng.Intn(12) + 1
	season := (month%12)/3 + 1
	weekday := rng.Intn(7)
	holiday := 0
	if rng.Float64() < 0.03 {
		holiday = 1
	}
	workingDay := 0
	if weekday >= 1 && weekday <= 5 && holiday == 0 {
		workingDay = 1
	}

	r := RawRecord{
		Season:           season,
		Month:            month,
		Hour:             rng.Intn(24),
		Holiday:          holiday,
		Weekday:          weekday,
		WorkingDay:       workingDay,
		WeatherCondition: syntheticWeather(rng),
		Temperature:      round1(math.Max(0, seasonBaseTemp[season]+rng.NormFloat64()*5)),
		Humidity:         round1(40 + rng.Float64()*55),
		Windspeed:        round1(math.Abs(rng.NormFloat64() * 8)),
	}

	z := -1.0
	if r.WorkingDay == 0 {
		z += 1.6
	}
	switch {
	case r.Hour >= 10 && r.Hour <= 16:
		z += 1.2
	case (r.Hour >= 7 && r.Hour <= 9) || (r.Hour >= 17 && r.Hour <= 19):
		z -= 0.8
	}
	z += 0.06 * (r.Temperature - 15)
	if r.WeatherCondition >= 3 {
		z -= 0.7
	}
	z -= 0.02 * (r.Humidity - 60)
	z -= 0.03 * r.Windspeed

	return r.Labeled(rng.Float64() < bkerrors.Sigmoid(z))
}

func syntheticWeather(rng *rand.Rand) int {
	u := rng.Float64()
	switch {
	case u < 0.60:
		return 1
	case u < 0.85:
		return 2
	case u < 0.98:
		return 3
	default:
		return 4
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SampleRecords returns the two reference inputs used for demonstration
// predictions: a summer weekday evening and a cold, cloudy winter afternoon.
func SampleRecords() []RawRecord {
	return []RawRecord{
		{Season: 3, Month: 7, Hour: 17, Holiday: 0, Weekday: 3, WorkingDay: 1,
			WeatherCondition: 1, Temperature: 25.0, Humidity: 65.0, Windspeed: 10.0},
		{Season: 1, Month: 1, Hour: 14, Holiday: 0, Weekday: 3, WorkingDay: 1,
			WeatherCondition: 2, Temperature: 2.0, Humidity: 85.0, Windspeed: 5.0},
	}
}
