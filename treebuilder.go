package gbt

import "container/heap"

// buildContext bundles everything the tree builder needs that doesn't
// change across the one tree it's growing: the binned training matrix,
// the binning instructions aligned to its used-feature indexing, and
// the options that bound growth.
type buildContext struct {
	bf           BinnedFeatures
	instructions []BinningInstruction // aligned to bf's train-feature indexing
	isEnum       []bool
	opts         *TrainOptions
}

func newBuildContext(bf BinnedFeatures, allInstructions []BinningInstruction, opts *TrainOptions) *buildContext {
	used := bf.UsedFeatureIndexes()
	instr := make([]BinningInstruction, len(used))
	isEnum := make([]bool, len(used))
	for i, fi := range used {
		instr[i] = allInstructions[fi]
		isEnum[i] = allInstructions[fi].Enum
	}
	return &buildContext{bf: bf, instructions: instr, isEnum: isEnum, opts: opts}
}

// growingLeaf is one not-yet-finalized leaf during leaf-wise tree
// growth: its placeholder node index, its range within the shared
// exampleIndex permutation, its stats, its histogram, and (once
// computed) the best split it could make.
type growingLeaf struct {
	nodeIndex  int
	start, end int
	depth      int
	stats      NodeStats
	hist       *Histogram
	split      *splitCandidate
}

// leafQueue is a container/heap priority queue ordered by descending
// split gain — the leaf-wise growth strategy always expands whichever
// leaf promises the most gain next, unlike a depth-first or
// breadth-first level-order grower.
type leafQueue []*growingLeaf

func (q leafQueue) Len() int { return len(q) }
func (q leafQueue) Less(i, j int) bool {
	return q[i].split.gain > q[j].split.gain
}
func (q leafQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *leafQueue) Push(x interface{}) { *q = append(*q, x.(*growingLeaf)) }
func (q *leafQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// buildTree grows one tree over the examples named by exampleIndex
// (mutated in place by the rearranger), using precomputed gradients
// and Hessians keyed by raw example index.
func buildTree(ctx *buildContext, exampleIndex []int, gradients, hessians []float64) *Tree {
	nExamples := len(exampleIndex)
	tree := &Tree{Nodes: []Node{{Leaf: &LeafNode{}}}}

	rootStats := sumStats(exampleIndex, gradients, hessians)
	root := &growingLeaf{nodeIndex: 0, start: 0, end: nExamples, depth: 0, stats: rootStats}
	root.hist = buildHistogram(ctx.bf, exampleIndex[root.start:root.end], gradients, hessians)
	root.split = findBestSplit(ctx.bf, root.hist, ctx.instructions, ctx.isEnum, ctx.opts)

	q := &leafQueue{}
	if canGrow(ctx, root) {
		heap.Push(q, root)
	}

	numLeaves := 1
	for q.Len() > 0 && numLeaves < ctx.opts.MaxLeafNodes {
		leaf := heap.Pop(q).(*growingLeaf)
		split := leaf.split

		midpoint := rearrangeExamplesIndex(exampleIndex, leaf.start, leaf.end, func(example int) bool {
			return splitGoesLeft(split, ctx.bf, example)
		})

		leftN := midpoint - leaf.start
		rightN := leaf.end - midpoint
		var leftHist, rightHist *Histogram
		if leftN <= rightN {
			leftHist = buildHistogram(ctx.bf, exampleIndex[leaf.start:midpoint], gradients, hessians)
			rightHist = subtractHistogram(leaf.hist, leftHist)
		} else {
			rightHist = buildHistogram(ctx.bf, exampleIndex[midpoint:leaf.end], gradients, hessians)
			leftHist = subtractHistogram(leaf.hist, rightHist)
		}

		leftNodeIndex := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{Leaf: &LeafNode{Value: leafValue(split.leftStats, ctx.opts)}})
		rightNodeIndex := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{Leaf: &LeafNode{Value: leafValue(split.rightStats, ctx.opts)}})

		branchSplit := toBranchSplit(split)
		// The stored split is evaluated against raw Features, so it
		// records the original column index, not the training index.
		used := ctx.bf.UsedFeatureIndexes()
		if branchSplit.Continuous != nil {
			c := *branchSplit.Continuous
			c.FeatureIndex = used[c.FeatureIndex]
			branchSplit.Continuous = &c
		} else {
			d := *branchSplit.Discrete
			d.FeatureIndex = used[d.FeatureIndex]
			branchSplit.Discrete = &d
		}
		tree.Nodes[leaf.nodeIndex] = Node{Branch: &BranchNode{
			LeftChildIndex:   leftNodeIndex,
			RightChildIndex:  rightNodeIndex,
			Split:            branchSplit,
			ExamplesFraction: float32(leaf.stats.Count) / float32(nExamples),
			Gain:             float32(split.gain),
		}}
		numLeaves++ // one leaf consumed, two produced: net +1

		left := &growingLeaf{nodeIndex: leftNodeIndex, start: leaf.start, end: midpoint, depth: leaf.depth + 1, stats: split.leftStats, hist: leftHist}
		right := &growingLeaf{nodeIndex: rightNodeIndex, start: midpoint, end: leaf.end, depth: leaf.depth + 1, stats: split.rightStats, hist: rightHist}

		for _, child := range []*growingLeaf{left, right} {
			child.split = findBestSplit(ctx.bf, child.hist, ctx.instructions, ctx.isEnum, ctx.opts)
			if canGrow(ctx, child) {
				heap.Push(q, child)
			} else {
				tree.Nodes[child.nodeIndex].Leaf.ExamplesFraction = float32(child.stats.Count) / float32(nExamples)
			}
		}
	}

	for _, open := range *q {
		tree.Nodes[open.nodeIndex].Leaf.ExamplesFraction = float32(open.stats.Count) / float32(nExamples)
	}
	for i := range tree.Nodes {
		if tree.Nodes[i].Leaf != nil && tree.Nodes[i].Leaf.ExamplesFraction == 0 && i == 0 {
			tree.Nodes[i].Leaf.ExamplesFraction = 1
		}
	}
	return tree
}

func canGrow(ctx *buildContext, leaf *growingLeaf) bool {
	if leaf.split == nil {
		return false
	}
	if ctx.opts.MaxDepth >= 0 && leaf.depth >= ctx.opts.MaxDepth {
		return false
	}
	return true
}

func splitGoesLeft(split *splitCandidate, bf BinnedFeatures, example int) bool {
	if split.continuous != nil {
		bin := bf.Bin(split.continuous.FeatureIndex, example)
		if bin == 0 {
			return split.continuous.InvalidValuesDirection == Left
		}
		return bin <= split.continuousCutBin
	}
	bin := bf.Bin(split.discrete.FeatureIndex, example)
	return !split.discrete.Directions.Get(bin)
}

func toBranchSplit(s *splitCandidate) BranchSplit {
	if s.continuous != nil {
		return BranchSplit{Continuous: s.continuous}
	}
	return BranchSplit{Discrete: s.discrete}
}

func sumStats(exampleIndex []int, gradients, hessians []float64) NodeStats {
	var s NodeStats
	for _, ex := range exampleIndex {
		s.SumGradients += gradients[ex]
		s.SumHessians += hessians[ex]
		s.Count++
	}
	return s
}

// leafValue computes the Newton-step leaf output from accumulated
// gradient/Hessian sums: -G/(H+lambda_leaf), the standard GBDT
// closed-form optimum for a squared-loss-in-gradient-space leaf weight.
// lambda_leaf is l2_regularization_for_continuous_splits, the same
// lambda used in the continuous-split gain computation.
func leafValue(stats NodeStats, opts *TrainOptions) float64 {
	l2 := opts.L2RegularizationForContinuousSplits
	if stats.SumHessians+l2 == 0 {
		return 0
	}
	return -stats.SumGradients / (stats.SumHessians + l2) * opts.Shrinkage
}
