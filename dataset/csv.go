package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// CSVSource reads RawRecords from comma-separated input in Columns order.
// Rows with ten columns (or an empty eleventh) are unlabeled.
type CSVSource struct {
	name      string
	reader    *csv.Reader
	closer    io.Closer
	hasHeader bool
	row       int
}

// NewCSVSource wraps r. name is used in DataError messages.
func NewCSVSource(r io.Reader, name string, hasHeader bool) *CSVSource {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return &CSVSource{name: name, reader: reader, hasHeader: hasHeader}
}

// OpenCSV opens path for reading. A missing file is a DataError since the
// training input is absent; other open failures are IOErrors.
func OpenCSV(path string, hasHeader bool) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, bkerrors.NewDataError(path, 0, "", "CSV file not found", err)
		}
		return nil, bkerrors.NewIOError("open", path, err)
	}
	src := NewCSVSource(f, path, hasHeader)
	src.closer = f
	return src, nil
}

// LoadCSV is OpenCSV followed by Collect.
func LoadCSV(path string, hasHeader bool) (*Dataset, error) {
	src, err := OpenCSV(path, hasHeader)
	if err != nil {
		return nil, err
	}
	return Collect(src)
}

// Next implements Source.
func (s *CSVSource) Next() (RawRecord, error) {
	for {
		fields, err := s.reader.Read()
		if err == io.EOF {
			return RawRecord{}, io.EOF
		}
		s.row++
		if err != nil {
			return RawRecord{}, bkerrors.NewDataError(s.name, s.row, "", "malformed CSV", err)
		}
		if s.hasHeader && s.row == 1 {
			continue
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		return s.parse(fields)
	}
}

// Close releases the underlying file, if any.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *CSVSource) parse(fields []string) (RawRecord, error) {
	if len(fields) != NumFeatureColumns && len(fields) != NumFeatureColumns+1 {
		return RawRecord{}, bkerrors.NewDataError(s.name, s.row, "",
			"expected "+strconv.Itoa(NumFeatureColumns)+" or "+strconv.Itoa(NumFeatureColumns+1)+
				" columns, got "+strconv.Itoa(len(fields)), nil)
	}

	var r RawRecord
	ints := []*int{&r.Season, &r.Month, &r.Hour, &r.Holiday, &r.Weekday, &r.WorkingDay, &r.WeatherCondition}
	for i, dst := range ints {
		v, err := parseCode(fields[i])
		if err != nil {
			return RawRecord{}, bkerrors.NewDataError(s.name, s.row, Columns[i], "invalid integer code", err)
		}
		*dst = v
	}

	floats := []*float64{&r.Temperature, &r.Humidity, &r.Windspeed}
	for j, dst := range floats {
		i := len(ints) + j
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return RawRecord{}, bkerrors.NewDataError(s.name, s.row, Columns[i], "invalid number", err)
		}
		*dst = v
	}

	if len(fields) == NumFeatureColumns+1 && strings.TrimSpace(fields[NumFeatureColumns]) != "" {
		label, err := ParseLabel(fields[NumFeatureColumns])
		if err != nil {
			return RawRecord{}, bkerrors.NewDataError(s.name, s.row, "rental_type", "invalid label", err)
		}
		r = r.Labeled(label)
	}

	if field, reason := r.check(); field != "" {
		return RawRecord{}, bkerrors.NewDataError(s.name, s.row, field, reason, nil)
	}
	return r, nil
}

// parseCode accepts "3" and "3.0" but rejects fractional codes.
func parseCode(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, errors.Newf("%q is not an integer", s)
	}
	return int(f), nil
}

// ParseLabel accepts 0/1 (also 0.0/1.0) and true/false, case-insensitively.
func ParseLabel(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true":
		return true, nil
	case "0", "0.0", "false":
		return false, nil
	}
	return false, errors.Newf("unrecognised label %q", s)
}

// WriteCSV writes records with a header row. Unlabeled records leave the
// label column empty.
func WriteCSV(w io.Writer, records []RawRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return errors.WithStack(err)
	}
	for _, r := range records {
		label := ""
		if r.HasLabel {
			label = "0"
			if r.RentalType {
				label = "1"
			}
		}
		row := []string{
			strconv.Itoa(r.Season), strconv.Itoa(r.Month), strconv.Itoa(r.Hour),
			strconv.Itoa(r.Holiday), strconv.Itoa(r.Weekday), strconv.Itoa(r.WorkingDay),
			strconv.Itoa(r.WeatherCondition),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.FormatFloat(r.Humidity, 'f', -1, 64),
			strconv.FormatFloat(r.Windspeed, 'f', -1, 64),
			label,
		}
		if err := cw.Write(row); err != nil {
			return errors.WithStack(err)
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}
