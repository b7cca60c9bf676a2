package gbt

import "testing"

func TestComputeIsSplittable(t *testing.T) {
	if !computeIsSplittable([]int{0, 10, 10}, 20, 5) {
		t.Error("expected splittable: both sides have >= 5 examples after bin 1")
	}
	if computeIsSplittable([]int{0, 18, 2}, 20, 5) {
		t.Error("expected not splittable: cutting after bin 1 leaves only 2 on the right")
	}
}

func TestColumnMajorDropsUnsplittableFeature(t *testing.T) {
	n := 20
	constant := make(NumberColumn, n)
	varying := make(NumberColumn, n)
	for i := range varying {
		constant[i] = 1
		if i < n/2 {
			varying[i] = 0
		} else {
			varying[i] = 1
		}
	}
	features := &Features{Columns: []Column{{Number: constant}, {Number: varying}}, NExamples: n}
	opts := DefaultTrainOptions()
	opts.MinExamplesPerNode = 3
	instructions := computeBinningInstructions(features, &opts)
	bf := computeBinnedFeaturesColumnMajor(features, instructions, &opts)
	if len(bf.UsedFeatureIndexes()) != 1 || bf.UsedFeatureIndexes()[0] != 1 {
		t.Errorf("used feature indexes = %v, want [1]", bf.UsedFeatureIndexes())
	}
}

func TestComputeLayoutAutoPrefersRowMajorForWideTables(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.BinnedFeaturesLayout = LayoutAuto
	if got := computeLayout(&opts, 100000, 5); got != LayoutColumnMajor {
		t.Errorf("computeLayout = %v, want LayoutColumnMajor", got)
	}
	if got := computeLayout(&opts, 100, 50); got != LayoutRowMajor {
		t.Errorf("computeLayout = %v, want LayoutRowMajor", got)
	}
}

func TestComputeLayoutDefaultIsColumnMajorRegardlessOfShape(t *testing.T) {
	opts := DefaultTrainOptions()
	if got := computeLayout(&opts, 100000, 5); got != LayoutColumnMajor {
		t.Errorf("computeLayout with default options = %v, want LayoutColumnMajor", got)
	}
}

func TestRowMajorBinRoundTrip(t *testing.T) {
	n := 10
	col := make(NumberColumn, n)
	for i := range col {
		col[i] = float32(i)
	}
	features := &Features{Columns: []Column{{Number: col}}, NExamples: n}
	opts := DefaultTrainOptions()
	instructions := computeBinningInstructions(features, &opts)
	rm := computeBinnedFeaturesRowMajor(features, instructions)
	for i := 0; i < n; i++ {
		want := instructions[0].Bin(col[i])
		if got := rm.Bin(0, i); got != want {
			t.Errorf("Bin(0, %d) = %d, want %d", i, got, want)
		}
	}
}
