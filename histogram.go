package gbt

// NodeStats summarizes the gradient/Hessian statistics of every example
// routed to one tree node. Accumulated in float64, the same width as
// the gradients/Hessians the boosting loop produces, to keep the
// running sums numerically stable across many bins and rounds.
type NodeStats struct {
	SumGradients float64
	SumHessians  float64
	Count        int
}

// Histogram holds, for one tree node and every used feature, the
// per-bin (gradient sum, Hessian sum, count) triples the split finder
// scans. One Histogram is built per node during tree growth; see
// buildHistogram and subtractHistogram for how siblings avoid redundant
// work.
type Histogram struct {
	gradients [][]float64
	hessians  [][]float64
	counts    [][]int
}

func newHistogram(bf BinnedFeatures) *Histogram {
	nf := bf.NFeatures()
	h := &Histogram{
		gradients: make([][]float64, nf),
		hessians:  make([][]float64, nf),
		counts:    make([][]int, nf),
	}
	for tf := 0; tf < nf; tf++ {
		nbins := bf.NBins(tf)
		h.gradients[tf] = make([]float64, nbins)
		h.hessians[tf] = make([]float64, nbins)
		h.counts[tf] = make([]int, nbins)
	}
	return h
}

// buildHistogram accumulates gradient/Hessian/count sums per (feature,
// bin) over the examples named by exampleIndex, one parallelFor task per
// feature. parallelFor runs serially when there are fewer than
// parallelThreshold features; the number of examples does not affect
// whether the build runs in parallel.
func buildHistogram(bf BinnedFeatures, exampleIndex []int, gradients, hessians []float64) *Histogram {
	h := newHistogram(bf)
	parallelFor(bf.NFeatures(), func(tf int) {
		g := h.gradients[tf]
		he := h.hessians[tf]
		c := h.counts[tf]
		for _, ex := range exampleIndex {
			bin := bf.Bin(tf, ex)
			g[bin] += float64(gradients[ex])
			he[bin] += float64(hessians[ex])
			c[bin]++
		}
	})
	return h
}

// subtractHistogram computes the sibling's histogram as parent minus
// child, avoiding a second full scan of its (larger) example range —
// the standard histogram-subtraction trick in leaf-wise GBDT growth.
func subtractHistogram(parent, child *Histogram) *Histogram {
	nf := len(parent.gradients)
	out := &Histogram{
		gradients: make([][]float64, nf),
		hessians:  make([][]float64, nf),
		counts:    make([][]int, nf),
	}
	for tf := 0; tf < nf; tf++ {
		nbins := len(parent.gradients[tf])
		g := make([]float64, nbins)
		he := make([]float64, nbins)
		c := make([]int, nbins)
		for b := 0; b < nbins; b++ {
			g[b] = parent.gradients[tf][b] - child.gradients[tf][b]
			he[b] = parent.hessians[tf][b] - child.hessians[tf][b]
			c[b] = parent.counts[tf][b] - child.counts[tf][b]
		}
		out.gradients[tf] = g
		out.hessians[tf] = he
		out.counts[tf] = c
	}
	return out
}

// totalStats sums a histogram's per-bin entries for one feature into a
// single NodeStats, used by the split finder as the node's total
// (needed to compute the "no split" baseline and the right-child
// remainder when scanning left to right).
func (h *Histogram) totalStats(tf int) NodeStats {
	var s NodeStats
	for b := range h.gradients[tf] {
		s.SumGradients += h.gradients[tf][b]
		s.SumHessians += h.hessians[tf][b]
		s.Count += h.counts[tf][b]
	}
	return s
}
