package gbt

// ShapResult is the output of computing TreeSHAP feature contributions
// for one example: BaselineValue + sum(FeatureContributions) ==
// OutputValue, exactly reproducing the tree ensemble's raw prediction.
type ShapResult struct {
	BaselineValue         float64
	OutputValue           float64
	FeatureContributions  []float64
}

// ComputeShapValues computes TreeSHAP feature contributions for one
// example across an ensemble of trees sharing one bias, following
// compute_shap_values_for_example: the baseline is bias plus each
// tree's expected value (computeExpectation), and every tree's
// path-enumeration attribution (treeShap) is accumulated into one
// feature-contribution vector.
func ComputeShapValues(row func(featureIndex int) (float32, bool, int32), trees []Tree, bias float64, nFeatures int) ShapResult {
	baseline := bias
	for t := range trees {
		baseline += computeExpectation(&trees[t], 0)
	}
	phi := make([]float64, nFeatures)
	for t := range trees {
		treeShap(row, &trees[t], phi)
	}
	var total float64
	for _, v := range phi {
		total += v
	}
	return ShapResult{BaselineValue: baseline, OutputValue: baseline + total, FeatureContributions: phi}
}

// computeExpectation is the SHAP baseline: the tree's output averaged
// over training examples, computed recursively by weighting each
// child's contribution by its share of the parent's examples_fraction
// — this is the "supplemented feature" noted in SPEC_FULL.md, a direct
// port of compute_expectation in shap.rs.
func computeExpectation(tree *Tree, nodeIndex int) float64 {
	node := tree.Nodes[nodeIndex]
	if node.Leaf != nil {
		return node.Leaf.Value
	}
	b := node.Branch
	left := tree.Nodes[b.LeftChildIndex]
	right := tree.Nodes[b.RightChildIndex]
	leftValue := computeExpectation(tree, b.LeftChildIndex)
	rightValue := computeExpectation(tree, b.RightChildIndex)
	leftFrac := float64(examplesFraction(left)) / float64(b.ExamplesFraction)
	rightFrac := float64(examplesFraction(right)) / float64(b.ExamplesFraction)
	return leftFrac*leftValue + rightFrac*rightValue
}

func examplesFraction(n Node) float32 {
	if n.Leaf != nil {
		return n.Leaf.ExamplesFraction
	}
	return n.Branch.ExamplesFraction
}

// pathItem is one entry of the SHAP "unique path": the feature that
// branched at this depth and the fraction of background samples that
// would have taken the "zero" (excluded) vs. "one" (included) branch,
// plus the Shapley pweight accumulated by extendPath/unwindPath.
type pathItem struct {
	featureIndex int // -1 means "unset", matching Rust's Option<usize>::None
	zeroFraction float64
	oneFraction  float64
	pweight      float64
}

// treeShap is the entry point for one tree's path-enumeration
// attribution, a direct port of tree_shap/tree_shap_recursive in
// shap.rs (itself a port of Lundberg's independent TreeSHAP).
func treeShap(row func(int) (float32, bool, int32), tree *Tree, phi []float64) {
	depth := maxDepth(tree, 0, 0) + 2
	uniquePath := make([]pathItem, depth*(depth+1)/2)
	for i := range uniquePath {
		uniquePath[i].featureIndex = -1
	}
	treeShapRecursive(row, tree, 0, uniquePath, 0, 1.0, 1.0, -1, phi)
}

func maxDepth(tree *Tree, nodeIndex, depth int) int {
	node := tree.Nodes[nodeIndex]
	if node.Leaf != nil {
		return depth
	}
	left := maxDepth(tree, node.Branch.LeftChildIndex, depth+1)
	right := maxDepth(tree, node.Branch.RightChildIndex, depth+1)
	if left > right {
		return left + 1
	}
	return right + 1
}

func treeShapRecursive(
	row func(int) (float32, bool, int32),
	tree *Tree,
	nodeIndex int,
	uniquePath []pathItem,
	uniqueDepth int,
	parentZeroFraction, parentOneFraction float64,
	parentFeatureIndex int,
	phi []float64,
) {
	extendPath(uniquePath, uniqueDepth, parentZeroFraction, parentOneFraction, parentFeatureIndex)

	node := tree.Nodes[nodeIndex]
	if node.Leaf != nil {
		for pathIndex := 1; pathIndex <= uniqueDepth; pathIndex++ {
			weight := unwoundPathSum(uniquePath, uniqueDepth, pathIndex)
			item := uniquePath[pathIndex]
			scale := weight * (item.oneFraction - item.zeroFraction)
			phi[item.featureIndex] += scale * node.Leaf.Value
		}
		return
	}

	b := node.Branch
	hotChild, coldChild := computeHotColdChild(b, row)
	hotZeroFraction := float64(examplesFraction(tree.Nodes[hotChild])) / float64(b.ExamplesFraction)
	coldZeroFraction := float64(examplesFraction(tree.Nodes[coldChild])) / float64(b.ExamplesFraction)
	incomingZeroFraction := 1.0
	incomingOneFraction := 1.0
	currentFeatureIndex := branchFeatureIndex(b.Split)

	depth := uniqueDepth
	pathIndex := -1
	for i := 1; i <= depth; i++ {
		if uniquePath[i].featureIndex == currentFeatureIndex {
			pathIndex = i
			break
		}
	}
	if pathIndex != -1 {
		incomingZeroFraction = uniquePath[pathIndex].zeroFraction
		incomingOneFraction = uniquePath[pathIndex].oneFraction
		unwindPath(uniquePath, depth, pathIndex)
		depth--
	}

	parentPath := uniquePath[:depth+1]
	childPath := uniquePath[depth+1:]
	copy(childPath[:len(parentPath)], parentPath)
	treeShapRecursive(row, tree, hotChild, childPath, depth+1,
		hotZeroFraction*incomingZeroFraction, incomingOneFraction, currentFeatureIndex, phi)

	copy(childPath[:len(parentPath)], parentPath)
	treeShapRecursive(row, tree, coldChild, childPath, depth+1,
		coldZeroFraction*incomingZeroFraction, 0.0, currentFeatureIndex, phi)
}

// extendPath grows the unique path by one (feature, zero/one-fraction)
// step and rebalances every existing entry's pweight, a direct port of
// extend_path in shap.rs.
func extendPath(uniquePath []pathItem, uniqueDepth int, zeroFraction, oneFraction float64, featureIndex int) {
	pweight := 0.0
	if uniqueDepth == 0 {
		pweight = 1.0
	}
	uniquePath[uniqueDepth] = pathItem{featureIndex: featureIndex, zeroFraction: zeroFraction, oneFraction: oneFraction, pweight: pweight}
	if uniqueDepth == 0 {
		return
	}
	for i := uniqueDepth - 1; i >= 0; i-- {
		uniquePath[i+1].pweight += oneFraction * uniquePath[i].pweight * float64(i+1) / float64(uniqueDepth+1)
		uniquePath[i].pweight = zeroFraction * uniquePath[i].pweight * float64(uniqueDepth-i) / float64(uniqueDepth+1)
	}
}

// unwindPath removes pathIndex's feature from the path, redistributing
// pweight among the remaining entries — a direct port of unwind_path.
func unwindPath(uniquePath []pathItem, uniqueDepth, pathIndex int) {
	oneFraction := uniquePath[pathIndex].oneFraction
	zeroFraction := uniquePath[pathIndex].zeroFraction
	nextOnePortion := uniquePath[uniqueDepth].pweight

	for i := uniqueDepth - 1; i >= 0; i-- {
		if oneFraction != 0 {
			tmp := uniquePath[i].pweight
			uniquePath[i].pweight = nextOnePortion * float64(uniqueDepth+1) / (float64(i+1) * oneFraction)
			nextOnePortion = tmp - uniquePath[i].pweight*zeroFraction*float64(uniqueDepth-i)/float64(uniqueDepth+1)
		} else {
			uniquePath[i].pweight = uniquePath[i].pweight * float64(uniqueDepth+1) / (zeroFraction * float64(uniqueDepth-i))
		}
	}
	for i := pathIndex; i < uniqueDepth; i++ {
		uniquePath[i].featureIndex = uniquePath[i+1].featureIndex
		uniquePath[i].zeroFraction = uniquePath[i+1].zeroFraction
		uniquePath[i].oneFraction = uniquePath[i+1].oneFraction
	}
}

// unwoundPathSum computes the Shapley weight contributed by excluding
// pathIndex's feature from the path, without mutating it — a direct
// port of unwound_path_sum.
func unwoundPathSum(uniquePath []pathItem, uniqueDepth, pathIndex int) float64 {
	oneFraction := uniquePath[pathIndex].oneFraction
	zeroFraction := uniquePath[pathIndex].zeroFraction
	nextOnePortion := uniquePath[uniqueDepth].pweight
	total := 0.0
	if oneFraction != 0 {
		for i := uniqueDepth - 1; i >= 0; i-- {
			tmp := nextOnePortion / (float64(i+1) * oneFraction)
			total += tmp
			nextOnePortion = uniquePath[i].pweight - tmp*zeroFraction*float64(uniqueDepth-i)
		}
	} else {
		for i := uniqueDepth - 1; i >= 0; i-- {
			total += uniquePath[i].pweight / (zeroFraction * float64(uniqueDepth-i))
		}
	}
	return total * float64(uniqueDepth+1)
}

// computeHotColdChild returns (hot, cold) child node indexes: hot is
// the child the example actually routes to, cold is the other —
// TreeSHAP needs both to weight the path correctly.
func computeHotColdChild(b *BranchNode, row func(int) (float32, bool, int32)) (hot, cold int) {
	if routeLeft(b.Split, row) {
		return b.LeftChildIndex, b.RightChildIndex
	}
	return b.RightChildIndex, b.LeftChildIndex
}
