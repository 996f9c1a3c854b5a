package dataset

import (
	"fmt"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// Dataset is an ordered, immutable sequence of RawRecord. Accessors hand out
// copies so callers cannot mutate the underlying table.
type Dataset struct {
	records []RawRecord
}

// New validates and copies records into a Dataset.
func New(records []RawRecord) (*Dataset, error) {
	own := make([]RawRecord, len(records))
	for i, r := range records {
		if field, reason := r.check(); field != "" {
			return nil, bkerrors.NewDataError("dataset", i+1, field, reason, nil)
		}
		own[i] = r
	}
	return &Dataset{records: own}, nil
}

// MustNew is New for fixtures known to be valid.
func MustNew(records []RawRecord) *Dataset {
	ds, err := New(records)
	if err != nil {
		panic(err)
	}
	return ds
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the i-th record.
func (d *Dataset) At(i int) RawRecord {
	return d.records[i]
}

// Records returns a copy of all records in order.
func (d *Dataset) Records() []RawRecord {
	out := make([]RawRecord, len(d.records))
	copy(out, d.records)
	return out
}

// IsLabeled reports whether every record carries a label.
func (d *Dataset) IsLabeled() bool {
	for _, r := range d.records {
		if !r.HasLabel {
			return false
		}
	}
	return len(d.records) > 0
}

// Labels returns the labels in record order. An unlabeled record yields a
// DataError naming its 1-based row.
func (d *Dataset) Labels() ([]bool, error) {
	out := make([]bool, len(d.records))
	for i, r := range d.records {
		if !r.HasLabel {
			return nil, bkerrors.NewDataError("dataset", i+1, "rental_type", "record has no label", nil)
		}
		out[i] = r.RentalType
	}
	return out, nil
}

// PositiveRate returns the share of labeled records whose RentalType is true.
func (d *Dataset) PositiveRate() float64 {
	var pos, n int
	for _, r := range d.records {
		if !r.HasLabel {
			continue
		}
		n++
		if r.RentalType {
			pos++
		}
	}
	return bkerrors.SafeDivide(float64(pos), float64(n))
}

// Subset returns a new Dataset holding the records at indices, in the given
// order. Indices may repeat.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	out := make([]RawRecord, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(d.records) {
			return nil, bkerrors.NewValueError("Subset",
				fmt.Sprintf("index %d out of range [0, %d)", idx, len(d.records)))
		}
		out[i] = d.records[idx]
	}
	return &Dataset{records: out}, nil
}
