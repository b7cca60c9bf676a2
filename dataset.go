package gbt

import "math"

// NumberColumn is a dense numeric feature column. A non-finite value
// (NaN or +-Inf) represents a missing observation.
type NumberColumn []float32

// EnumColumn is a dense categorical feature column. Values are 1-indexed
// variant ids in [1, VariantCount]; 0 means the observation is missing
// or the variant was unseen at training time.
type EnumColumn struct {
	VariantCount int
	Values       []int32
}

// Column is a tagged union over the two feature column kinds a Features
// table may hold. Exactly one of Number/Enum is non-nil.
type Column struct {
	Number NumberColumn
	Enum   *EnumColumn
}

func (c Column) isEnum() bool { return c.Enum != nil }

func (c Column) len() int {
	if c.Enum != nil {
		return len(c.Enum.Values)
	}
	return len(c.Number)
}

// Features is a column-wise view over a training or prediction table.
// Loading a table from a file or database is out of scope for this
// package; callers construct Features directly.
type Features struct {
	Columns      []Column
	ColumnNames  []string
	NExamples    int
}

func (f *Features) validate() error {
	if f.NExamples <= 0 {
		return newError(InvalidInput, "Features.NExamples must be positive, got %d", f.NExamples)
	}
	for i, col := range f.Columns {
		if col.len() != f.NExamples {
			return newError(InvalidInput, "column %d has length %d, want %d", i, col.len(), f.NExamples)
		}
		if col.isEnum() {
			for _, v := range col.Enum.Values {
				if v < 0 || int(v) > col.Enum.VariantCount {
					return newError(InvalidInput, "column %d: variant %d out of range [0, %d]", i, v, col.Enum.VariantCount)
				}
			}
		}
	}
	return nil
}

// RegressionLabels holds one finite float32 target per example.
type RegressionLabels []float32

func (l RegressionLabels) validate() error {
	for i, v := range l {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return newError(InvalidInput, "label at example %d is not finite", i)
		}
	}
	return nil
}

// EnumLabels holds one 0-indexed class id per example, used for binary
// and multiclass classification. Unlike EnumColumn, 0 is a valid class,
// not a missing-value sentinel: labels are required, never missing.
type EnumLabels struct {
	VariantCount int
	VariantNames []string
	Values       []int32
}

func (l *EnumLabels) validate() error {
	if l.VariantCount < 2 {
		return newError(InvalidInput, "EnumLabels.VariantCount must be at least 2, got %d", l.VariantCount)
	}
	for i, v := range l.Values {
		if v < 0 || int(v) >= l.VariantCount {
			return newError(InvalidInput, "label at example %d: class %d out of range [0, %d)", i, v, l.VariantCount)
		}
	}
	return nil
}
