package dataset

import (
	"io"

	"github.com/YuminosukeSato/bikerental/pkg/log"
)

// Source yields records one at a time. Next returns io.EOF after the last
// record. Implementations that hold resources also implement io.Closer.
type Source interface {
	Next() (RawRecord, error)
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []RawRecord
	pos     int
}

// NewSliceSource returns a Source over a copy of records.
func NewSliceSource(records []RawRecord) *SliceSource {
	own := make([]RawRecord, len(records))
	copy(own, records)
	return &SliceSource{records: own}
}

// Next implements Source.
func (s *SliceSource) Next() (RawRecord, error) {
	if s.pos >= len(s.records) {
		return RawRecord{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Collect drains src into a Dataset. Any non-EOF error is returned as is;
// the source is closed when it implements io.Closer.
func Collect(src Source) (*Dataset, error) {
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	var records []RawRecord
	for {
		r, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	ds, err := New(records)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("dataset").Debug("Dataset collected",
		log.SamplesKey, ds.Len(),
		log.PositiveRateKey, ds.PositiveRate(),
	)
	return ds, nil
}
