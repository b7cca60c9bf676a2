package gbt

import "testing"

func TestBinningInstructionBin(t *testing.T) {
	b := &BinningInstruction{Thresholds: []float32{1, 3, 5}}
	cases := []struct {
		v    float32
		want int
	}{
		{v: -10, want: 1},
		{v: 1, want: 1},
		{v: 2, want: 2},
		{v: 3, want: 2},
		{v: 4, want: 3},
		{v: 5, want: 3},
		{v: 100, want: 4},
	}
	for _, c := range cases {
		if got := b.Bin(c.v); got != c.want {
			t.Errorf("Bin(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestBinningInstructionBinInvalid(t *testing.T) {
	b := &BinningInstruction{Thresholds: []float32{1, 3, 5}}
	for _, v := range []float32{float32(nan()), float32(inf())} {
		if got := b.Bin(v); got != 0 {
			t.Errorf("Bin(%v) = %d, want 0", v, got)
		}
	}
}

func TestNBins(t *testing.T) {
	num := &BinningInstruction{Thresholds: []float32{1, 2, 3}}
	if got := num.NBins(); got != 5 {
		t.Errorf("NBins() = %d, want 5", got)
	}
	enum := &BinningInstruction{Enum: true, VariantCount: 5}
	if got := enum.NBins(); got != 6 {
		t.Errorf("NBins() = %d, want 6", got)
	}
}

func TestComputeNumberThresholdsSmallCardinality(t *testing.T) {
	opts := DefaultTrainOptions()
	col := NumberColumn{1, 1, 2, 2, 3, 3}
	thresholds := computeNumberThresholds(col, &opts)
	if len(thresholds) != 2 {
		t.Fatalf("got %d thresholds, want 2: %v", len(thresholds), thresholds)
	}
	if thresholds[0] != 1 || thresholds[1] != 2 {
		t.Errorf("thresholds = %v, want [1 2]", thresholds)
	}
}

func nan() float64 { var z float64; return z / z }
func inf() float64 { var z float64; return 1 / z }
