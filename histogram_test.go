package gbt

import "testing"

type fakeBinnedFeatures struct {
	bins  [][]int // bins[feature][example]
	nbins []int
}

func (f *fakeBinnedFeatures) NExamples() int           { return len(f.bins[0]) }
func (f *fakeBinnedFeatures) NFeatures() int            { return len(f.bins) }
func (f *fakeBinnedFeatures) UsedFeatureIndexes() []int { return []int{0, 1} }
func (f *fakeBinnedFeatures) Bin(tf, ex int) int        { return f.bins[tf][ex] }
func (f *fakeBinnedFeatures) NBins(tf int) int          { return f.nbins[tf] }

func TestBuildAndSubtractHistogram(t *testing.T) {
	bf := &fakeBinnedFeatures{
		bins:  [][]int{{0, 1, 1, 2}, {1, 1, 0, 0}},
		nbins: []int{3, 2},
	}
	gradients := []float64{1, 2, 3, 4}
	hessians := []float64{1, 1, 1, 1}
	exampleIndex := []int{0, 1, 2, 3}

	full := buildHistogram(bf, exampleIndex, gradients, hessians)
	left := buildHistogram(bf, exampleIndex[:2], gradients, hessians)
	right := subtractHistogram(full, left)

	rightDirect := buildHistogram(bf, exampleIndex[2:], gradients, hessians)
	for tf := 0; tf < 2; tf++ {
		for b := 0; b < bf.NBins(tf); b++ {
			if right.gradients[tf][b] != rightDirect.gradients[tf][b] {
				t.Errorf("feature %d bin %d: subtract gave %v, want %v", tf, b, right.gradients[tf][b], rightDirect.gradients[tf][b])
			}
			if right.counts[tf][b] != rightDirect.counts[tf][b] {
				t.Errorf("feature %d bin %d: count %d, want %d", tf, b, right.counts[tf][b], rightDirect.counts[tf][b])
			}
		}
	}

	total := full.totalStats(0)
	if total.Count != 4 {
		t.Errorf("totalStats.Count = %d, want 4", total.Count)
	}
	if total.SumGradients != 10 {
		t.Errorf("totalStats.SumGradients = %v, want 10", total.SumGradients)
	}
}

func BenchmarkBuildHistogram(b *testing.B) {
	n := 20000
	bins := make([]int, n)
	for i := range bins {
		bins[i] = i % 16
	}
	bf := &fakeBinnedFeatures{bins: [][]int{bins}, nbins: []int{16}}
	gradients := make([]float64, n)
	hessians := make([]float64, n)
	exampleIndex := make([]int, n)
	for i := range exampleIndex {
		exampleIndex[i] = i
		gradients[i] = float64(i % 7)
		hessians[i] = 1
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buildHistogram(bf, exampleIndex, gradients, hessians)
	}
}
