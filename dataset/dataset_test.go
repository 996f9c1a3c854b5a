package dataset

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

func validRecord() RawRecord {
	return RawRecord{Season: 2, Month: 5, Hour: 9, Holiday: 0, Weekday: 1, WorkingDay: 1,
		WeatherCondition: 1, Temperature: 18.5, Humidity: 55, Windspeed: 7}
}

func TestRawRecord_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawRecord)
		field  string
	}{
		{"valid", func(*RawRecord) {}, ""},
		{"season zero", func(r *RawRecord) { r.Season = 0 }, "season"},
		{"month 13", func(r *RawRecord) { r.Month = 13 }, "month"},
		{"hour 24", func(r *RawRecord) { r.Hour = 24 }, "hour"},
		{"holiday 2", func(r *RawRecord) { r.Holiday = 2 }, "holiday"},
		{"weekday 7", func(r *RawRecord) { r.Weekday = 7 }, "weekday"},
		{"weather 5", func(r *RawRecord) { r.WeatherCondition = 5 }, "weather_condition"},
		{"negative humidity", func(r *RawRecord) { r.Humidity = -1 }, "humidity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := r.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var de *bkerrors.DataError
			require.True(t, bkerrors.As(err, &de))
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestDataset_ImmutableAccessors(t *testing.T) {
	src := []RawRecord{validRecord().Labeled(true), validRecord().Labeled(false)}
	ds, err := New(src)
	require.NoError(t, err)

	src[0].Season = 4
	assert.Equal(t, 2, ds.At(0).Season, "New must copy its input")

	recs := ds.Records()
	recs[1].Hour = 23
	assert.Equal(t, 9, ds.At(1).Hour, "Records must return a copy")

	labels, err := ds.Labels()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, labels)
	assert.InDelta(t, 0.5, ds.PositiveRate(), 1e-12)
	assert.True(t, ds.IsLabeled())
}

func TestDataset_NewRejectsInvalidRow(t *testing.T) {
	bad := validRecord()
	bad.Month = 0
	_, err := New([]RawRecord{validRecord(), bad})
	var de *bkerrors.DataError
	require.True(t, bkerrors.As(err, &de))
	assert.Equal(t, 2, de.Row)
}

func TestDataset_LabelsRequireLabel(t *testing.T) {
	ds := MustNew([]RawRecord{validRecord().Labeled(true), validRecord()})
	assert.False(t, ds.IsLabeled())
	_, err := ds.Labels()
	var de *bkerrors.DataError
	require.True(t, bkerrors.As(err, &de))
	assert.Equal(t, 2, de.Row)
}

func TestDataset_Subset(t *testing.T) {
	ds := Synthetic(10, 1)
	sub, err := ds.Subset([]int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, ds.At(3), sub.At(0))
	assert.Equal(t, ds.At(1), sub.At(1))

	_, err = ds.Subset([]int{10})
	var ve *bkerrors.ValueError
	assert.True(t, bkerrors.As(err, &ve))
}

func TestSynthetic_Deterministic(t *testing.T) {
	a := Synthetic(200, 42)
	b := Synthetic(200, 42)
	c := Synthetic(200, 43)
	assert.Equal(t, a.Records(), b.Records())
	assert.NotEqual(t, a.Records(), c.Records())

	for i := 0; i < a.Len(); i++ {
		assert.NoError(t, a.At(i).Validate())
		assert.True(t, a.At(i).HasLabel)
	}
	rate := a.PositiveRate()
	assert.Greater(t, rate, 0.1)
	assert.Less(t, rate, 0.9)
}

func TestCSVSource_ParsesLabeledAndUnlabeled(t *testing.T) {
	input := strings.Join([]string{
		strings.Join(Columns, ","),
		"3,7,17,0,3,1,1,25.0,65.0,10.0,1",
		"1,1,14,0,3,1,2,2,85,5,false",
		"1.0,1,14,0,3,1,2,2,85,5",
		"",
	}, "\n")

	ds, err := Collect(NewCSVSource(strings.NewReader(input), "inline", true))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	first := ds.At(0)
	assert.Equal(t, 3, first.Season)
	assert.Equal(t, 17, first.Hour)
	assert.InDelta(t, 25.0, first.Temperature, 1e-12)
	assert.True(t, first.HasLabel)
	assert.True(t, first.RentalType)

	assert.True(t, ds.At(1).HasLabel)
	assert.False(t, ds.At(1).RentalType)
	assert.False(t, ds.At(2).HasLabel)
	assert.Equal(t, 1, ds.At(2).Season)
}

func TestCSVSource_Errors(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		field string
	}{
		{"short row", "3,7,17", ""},
		{"bad code", "x,7,17,0,3,1,1,25,65,10,1", "season"},
		{"fractional code", "3,7.5,17,0,3,1,1,25,65,10,1", "month"},
		{"bad float", "3,7,17,0,3,1,1,warm,65,10,1", "temperature"},
		{"bad label", "3,7,17,0,3,1,1,25,65,10,maybe", "rental_type"},
		{"out of range", "3,7,25,0,3,1,1,25,65,10,1", "hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewCSVSource(strings.NewReader(tt.line), "inline", false)
			_, err := src.Next()
			var de *bkerrors.DataError
			require.True(t, bkerrors.As(err, &de), "got %v", err)
			assert.Equal(t, 1, de.Row)
			assert.Equal(t, tt.field, de.Field)
			assert.Equal(t, "inline", de.Source)
		})
	}
}

func TestOpenCSV_MissingFile(t *testing.T) {
	_, err := OpenCSV(filepath.Join(t.TempDir(), "missing.csv"), true)
	var de *bkerrors.DataError
	require.True(t, bkerrors.As(err, &de))
	assert.True(t, bkerrors.Is(err, os.ErrNotExist))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	ds := Synthetic(50, 7)
	records := ds.Records()
	records = append(records, SampleRecords()...)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	path := filepath.Join(t.TempDir(), "rentals.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	loaded, err := LoadCSV(path, true)
	require.NoError(t, err)
	assert.Equal(t, records, loaded.Records())
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]RawRecord{validRecord()})
	r, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, validRecord(), r)
	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}
