package gbt

import (
	"github.com/unixpickle/essentials"
)

// SplitDirection names which child a routed example goes to.
type SplitDirection int

const (
	Left SplitDirection = iota
	Right
)

// BranchSplit is the sum type of the two ways a tree node can split
// examples: Continuous compares a numeric feature against a threshold;
// Discrete looks up a bitset indexed by the categorical feature's bin.
// Exactly one of Continuous/Discrete is non-nil, mirroring
// original_source's BranchSplit::Continuous/Discrete enum.
type BranchSplit struct {
	Continuous *BranchSplitContinuous
	Discrete   *BranchSplitDiscrete
}

// BranchSplitContinuous routes by comparing the raw feature value
// against SplitValue; InvalidValuesDirection decides where missing
// values go, chosen at training time by whichever side produces the
// higher gain.
type BranchSplitContinuous struct {
	FeatureIndex            int
	SplitValue               float32
	InvalidValuesDirection   SplitDirection
}

// BranchSplitDiscrete routes a categorical feature by bin membership: a
// LSB-first bit per bin (bin 0 = missing included) records whether that
// bin goes left (0) or right (1).
type BranchSplitDiscrete struct {
	FeatureIndex int
	Directions   *Bitset
}

// Bitset is a LSB-first-packed boolean array, matching the
// BitVec<Lsb0, u8> layout original_source serializes discrete splits
// with (see codec.go).
type Bitset struct {
	Bits []bool
}

func NewBitset(n int) *Bitset { return &Bitset{Bits: make([]bool, n)} }

func (b *Bitset) Get(i int) bool  { return b.Bits[i] }
func (b *Bitset) Set(i int, v bool) { b.Bits[i] = v }
func (b *Bitset) Len() int        { return len(b.Bits) }

// Pack returns the bits packed LSB-first into bytes.
func (b *Bitset) Pack() []byte {
	out := make([]byte, (len(b.Bits)+7)/8)
	for i, bit := range b.Bits {
		if bit {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// Unpack fills n bits LSB-first from packed bytes.
func UnpackBitset(packed []byte, n int) *Bitset {
	b := NewBitset(n)
	for i := 0; i < n; i++ {
		b.Bits[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return b
}

// splitCandidate is the split finder's internal representation of one
// candidate split on one feature, before it's turned into a
// BranchSplit and committed to the growing tree.
type splitCandidate struct {
	featureIndex int // index into UsedFeatureIndexes, not the raw column
	gain         float64
	continuous   *BranchSplitContinuous
	// continuousCutBin is the highest valid bin index routed left by a
	// continuous split; bins 1..continuousCutBin go left, the rest
	// (except bin 0, routed by InvalidValuesDirection) go right.
	continuousCutBin int
	discrete         *BranchSplitDiscrete
	leftStats        NodeStats
	rightStats       NodeStats
}

func splitLoss(g, h, l2 float64) float64 {
	if h <= 0 {
		return 0
	}
	return (g * g) / (h + l2)
}

// findBestSplit scans every used feature's histogram for the node and
// returns the highest-gain split, or nil if none clears
// MinGainToSplit/MinExamplesPerNode/MinSumHessiansPerNode. Continuous
// (Number) features are scanned left to right with running sums;
// discrete (Enum) features are swept after sorting bins by gradient/
// Hessian score, following spec.md's §4.4 design.
func findBestSplit(bf BinnedFeatures, h *Histogram, instructions []BinningInstruction, isEnum []bool, opts *TrainOptions) *splitCandidate {
	var best *splitCandidate
	for tf := 0; tf < bf.NFeatures(); tf++ {
		var cand *splitCandidate
		if isEnum[tf] {
			cand = findBestDiscreteSplit(tf, h, opts)
		} else {
			cand = findBestContinuousSplit(tf, h, instructions[tf].Thresholds, opts)
		}
		if cand == nil {
			continue
		}
		if best == nil || betterSplit(cand, best) {
			best = cand
		}
	}
	return best
}

// betterSplit implements the tie-break: higher gain wins; on an exact
// gain tie, the lower feature index wins, then (for two continuous
// candidates) the lower split value.
func betterSplit(a, b *splitCandidate) bool {
	if a.gain != b.gain {
		return a.gain > b.gain
	}
	if a.featureIndex != b.featureIndex {
		return a.featureIndex < b.featureIndex
	}
	if a.continuous != nil && b.continuous != nil {
		return a.continuous.SplitValue < b.continuous.SplitValue
	}
	return false
}

func findBestContinuousSplit(tf int, hist *Histogram, thresholds []float32, opts *TrainOptions) *splitCandidate {
	g := hist.gradients[tf]
	he := hist.hessians[tf]
	c := hist.counts[tf]
	nbins := len(g)
	if nbins < 2 {
		return nil
	}
	total := hist.totalStats(tf)
	if total.Count < 2*opts.MinExamplesPerNode {
		return nil
	}
	l2 := opts.L2RegularizationForContinuousSplits
	parentLoss := splitLoss(total.SumGradients, total.SumHessians, l2)

	// Bin 0 (missing) can route either direction; try both and let the
	// running scan below pick whichever is better per cut point.
	var best *splitCandidate
	for _, missingLeft := range []bool{true, false} {
		var leftG, leftH float64
		var leftN int
		if missingLeft {
			leftG, leftH, leftN = g[0], he[0], c[0]
		}
		// Scan cuts after valid bin b (1-indexed bins 1..nbins-2), i.e.
		// thresholds[b-1] is the split value (the upper threshold of
		// the left side, per spec.md's reproducibility resolution).
		for b := 1; b < nbins-1; b++ {
			leftG += g[b]
			leftH += he[b]
			leftN += c[b]
			rightG := total.SumGradients - leftG
			rightH := total.SumHessians - leftH
			rightN := total.Count - leftN
			if leftN < opts.MinExamplesPerNode || rightN < opts.MinExamplesPerNode {
				continue
			}
			if leftH < opts.MinSumHessiansPerNode || rightH < opts.MinSumHessiansPerNode {
				continue
			}
			gain := 0.5*(splitLoss(leftG, leftH, l2)+splitLoss(rightG, rightH, l2)-parentLoss) - opts.MinGainToSplit
			if gain <= 0 {
				continue
			}
			dir := Left
			if !missingLeft {
				dir = Right
			}
			cand := &splitCandidate{
				featureIndex: tf,
				gain:         gain,
				continuous: &BranchSplitContinuous{
					FeatureIndex:           tf,
					SplitValue:             thresholds[b-1],
					InvalidValuesDirection: dir,
				},
				continuousCutBin: b,
				leftStats:        NodeStats{SumGradients: leftG, SumHessians: leftH, Count: leftN},
				rightStats:       NodeStats{SumGradients: rightG, SumHessians: rightH, Count: rightN},
			}
			if best == nil || betterSplit(cand, best) {
				best = cand
			}
		}
	}
	return best
}

// discreteBinScore orders an Enum feature's bins for the discrete split
// sweep: bins are sorted by ascending gradient/(Hessian+smoothing)
// ratio, so the bins with the lowest ratio (most negative
// pseudo-residual per unit curvature) are swept into the left side first,
// following the standard "sort categories by g/h, then find the best
// prefix" discrete split algorithm spec.md §4.4 calls for. The smoothing
// term damps the ratio for low-count bins whose Hessian sum is near
// zero, which would otherwise dominate the sort order.
func discreteBinScore(g, h float64, smoothing float64) float64 {
	return g / (h + smoothing)
}

func findBestDiscreteSplit(tf int, hist *Histogram, opts *TrainOptions) *splitCandidate {
	g := hist.gradients[tf]
	he := hist.hessians[tf]
	c := hist.counts[tf]
	nbins := len(g)
	if nbins < 2 {
		return nil
	}
	total := hist.totalStats(tf)
	if total.Count < 2*opts.MinExamplesPerNode {
		return nil
	}
	order := make([]int, nbins)
	scores := make([]float64, nbins)
	for b := 0; b < nbins; b++ {
		order[b] = b
		scores[b] = discreteBinScore(g[b], he[b], opts.SmoothingFactorForDiscreteBinSorting)
	}
	essentials.VoodooSort(scores, func(i, j int) bool { return scores[i] < scores[j] }, order)

	l2 := opts.L2RegularizationForDiscreteSplits
	parentLoss := splitLoss(total.SumGradients, total.SumHessians, l2)

	var best *splitCandidate
	var leftG, leftH float64
	var leftN int
	for i := 0; i < nbins-1; i++ {
		b := order[i]
		leftG += g[b]
		leftH += he[b]
		leftN += c[b]
		rightG := total.SumGradients - leftG
		rightH := total.SumHessians - leftH
		rightN := total.Count - leftN
		if leftN < opts.MinExamplesPerNode || rightN < opts.MinExamplesPerNode {
			continue
		}
		if leftH < opts.MinSumHessiansPerNode || rightH < opts.MinSumHessiansPerNode {
			continue
		}
		gain := 0.5*(splitLoss(leftG, leftH, l2)+splitLoss(rightG, rightH, l2)-parentLoss) - opts.MinGainToSplit
		if gain <= 0 {
			continue
		}
		directions := NewBitset(nbins)
		for j := 0; j <= i; j++ {
			directions.Set(order[j], false) // false = Left
		}
		for j := i + 1; j < nbins; j++ {
			directions.Set(order[j], true) // true = Right
		}
		cand := &splitCandidate{
			featureIndex: tf,
			gain:         gain,
			discrete: &BranchSplitDiscrete{
				FeatureIndex: tf,
				Directions:   directions,
			},
			leftStats:  NodeStats{SumGradients: leftG, SumHessians: leftH, Count: leftN},
			rightStats: NodeStats{SumGradients: rightG, SumHessians: rightH, Count: rightN},
		}
		if best == nil || betterSplit(cand, best) {
			best = cand
		}
	}
	return best
}
