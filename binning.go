package gbt

import (
	"sort"

	"github.com/unixpickle/essentials"
)

// BinningInstruction records how one feature's raw values are mapped to
// bin indices. Bin 0 is always reserved for missing/invalid values; a
// Number instruction with N thresholds produces N+1 valid bins (N+2 in
// all), and an Enum instruction with V variants produces V+1 bins (variant ids are
// already 1-indexed, so they slot directly above the missing bin).
type BinningInstruction struct {
	Enum         bool
	Thresholds   []float32 // Number: ascending, distinct.
	VariantCount int       // Enum.
}

// NBins returns the total number of bins this instruction produces,
// including the reserved missing/invalid bin 0.
func (b *BinningInstruction) NBins() int {
	if b.Enum {
		return b.VariantCount + 1
	}
	return len(b.Thresholds) + 2
}

// Bin maps one raw numeric observation to a bin index. Invalid values
// (NaN, Inf) map to bin 0. The mapping uses lower_bound semantics: a
// value equal to Thresholds[i] lands in bin i+1, matching
// original_source's binary_search_by(partial_cmp) + unwrap_or_else(id)
// routing (an exact match and its insertion point coincide at the same
// index under that comparator).
func (b *BinningInstruction) Bin(v float32) int {
	if isInvalid(v) {
		return 0
	}
	idx := sort.Search(len(b.Thresholds), func(i int) bool { return b.Thresholds[i] >= v })
	return idx + 1
}

// BinEnum maps one raw categorical observation (0 = missing, else
// 1-indexed variant) directly to a bin index; the encoding already
// matches the bin layout.
func (b *BinningInstruction) BinEnum(v int32) int { return int(v) }

func isInvalid(v float32) bool {
	return v != v || v > maxFinite32 || v < -maxFinite32
}

const maxFinite32 = 3.4028235e38

// computeBinningInstructions derives one BinningInstruction per feature
// column, following original_source's compute_binning_instructions:
// numeric thresholds are quantile boundaries over a deterministic
// subsample, capped at MaxValidBinsForNumberFeatures; enum features get
// one bin per variant unconditionally.
func computeBinningInstructions(features *Features, opts *TrainOptions) []BinningInstruction {
	out := make([]BinningInstruction, len(features.Columns))
	for i, col := range features.Columns {
		if col.isEnum() {
			out[i] = BinningInstruction{Enum: true, VariantCount: col.Enum.VariantCount}
			continue
		}
		out[i] = BinningInstruction{Thresholds: computeNumberThresholds(col.Number, opts)}
	}
	return out
}

// computeNumberThresholds subsamples up to MaxExamplesForComputingBinThresholds
// values with a fixed stride (deterministic across runs), collects the
// finite ones, and picks up to MaxValidBinsForNumberFeatures-1 quantile
// thresholds. When the column has few enough distinct finite values,
// the thresholds are the distinct values themselves (minus the largest,
// which needs no separating threshold).
func computeNumberThresholds(col NumberColumn, opts *TrainOptions) []float32 {
	sample := subsampleFinite(col, opts.MaxExamplesForComputingBinThresholds)
	if len(sample) == 0 {
		return nil
	}
	sort.Slice(sample, func(i, j int) bool { return sample[i] < sample[j] })
	unique := dedupSorted(sample)

	maxBins := essentials.MaxInt(opts.MaxValidBinsForNumberFeatures, 2)
	if len(unique) <= maxBins {
		if len(unique) <= 1 {
			return nil
		}
		return unique[:len(unique)-1]
	}

	nThresholds := maxBins - 1
	thresholds := make([]float32, 0, nThresholds)
	for i := 1; i <= nThresholds; i++ {
		pos := float64(i) / float64(nThresholds+1) * float64(len(unique)-1)
		lo := int(pos)
		hi := essentials.MinInt(lo+1, len(unique)-1)
		frac := pos - float64(lo)
		v := float32(float64(unique[lo])*(1-frac) + float64(unique[hi])*frac)
		if len(thresholds) == 0 || thresholds[len(thresholds)-1] != v {
			thresholds = append(thresholds, v)
		}
	}
	return thresholds
}

func subsampleFinite(col NumberColumn, max int) []float32 {
	n := len(col)
	if n == 0 {
		return nil
	}
	stride := 1
	if n > max {
		stride = (n + max - 1) / max
	}
	out := make([]float32, 0, essentials.MinInt(n, max)+1)
	for i := 0; i < n; i += stride {
		if !isInvalid(col[i]) {
			out = append(out, col[i])
		}
	}
	return out
}

func dedupSorted(values []float32) []float32 {
	if len(values) == 0 {
		return values
	}
	out := values[:1]
	for _, v := range values[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
