// Package dataset は自転車レンタルの生レコードと、その不変なコレクションを提供します。
package dataset

import (
	"math"

	"github.com/rs/zerolog"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// Columns is the fixed CSV column order. The trailing label column is
// optional for inference input.
var Columns = []string{
	"season", "month", "hour", "holiday", "weekday", "working_day",
	"weather_condition", "temperature", "humidity", "windspeed", "rental_type",
}

// NumFeatureColumns is the number of columns before the label.
const NumFeatureColumns = 10

// RawRecord は一件の観測行です。RentalType は HasLabel が true の場合のみ意味を持ちます。
type RawRecord struct {
	Season           int // 1-4
	Month            int // 1-12
	Hour             int // 0-23
	Holiday          int // 0/1
	Weekday          int // 0-6
	WorkingDay       int // 0/1
	WeatherCondition int // 1-4
	Temperature      float64
	Humidity         float64
	Windspeed        float64

	// RentalType: false = short-term, true = long-term
	RentalType bool
	HasLabel   bool
}

// Labeled returns a copy of r carrying the given label.
func (r RawRecord) Labeled(longTerm bool) RawRecord {
	r.RentalType = longTerm
	r.HasLabel = true
	return r
}

// Unlabeled returns a copy of r with the label stripped.
func (r RawRecord) Unlabeled() RawRecord {
	r.RentalType = false
	r.HasLabel = false
	return r
}

// Validate checks field domains and returns a DataError naming the first
// offending field.
func (r RawRecord) Validate() error {
	field, reason := r.check()
	if field == "" {
		return nil
	}
	return bkerrors.NewDataError("", 0, field, reason, nil)
}

func (r RawRecord) check() (field, reason string) {
	ints := []struct {
		name     string
		v, lo, hi int
	}{
		{"season", r.Season, 1, 4},
		{"month", r.Month, 1, 12},
		{"hour", r.Hour, 0, 23},
		{"holiday", r.Holiday, 0, 1},
		{"weekday", r.Weekday, 0, 6},
		{"working_day", r.WorkingDay, 0, 1},
		{"weather_condition", r.WeatherCondition, 1, 4},
	}
	for _, c := range ints {
		if c.v < c.lo || c.v > c.hi {
			return c.name, "value out of range"
		}
	}

	floats := []struct {
		name string
		v    float64
	}{
		{"temperature", r.Temperature},
		{"humidity", r.Humidity},
		{"windspeed", r.Windspeed},
	}
	for _, c := range floats {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return c.name, "value is not finite"
		}
		if c.v < 0 {
			return c.name, "value must be non-negative"
		}
	}
	return "", ""
}

// MarshalZerologObject はレコードを構造化ログに埋め込むためのメソッドです。
func (r RawRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Int("season", r.Season).
		Int("month", r.Month).
		Int("hour", r.Hour).
		Int("holiday", r.Holiday).
		Int("weekday", r.Weekday).
		Int("working_day", r.WorkingDay).
		Int("weather_condition", r.WeatherCondition).
		Float64("temperature", r.Temperature).
		Float64("humidity", r.Humidity).
		Float64("windspeed", r.Windspeed)
	if r.HasLabel {
		e.Bool("rental_type", r.RentalType)
	}
}
