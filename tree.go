package gbt

// Tree is one boosted decision tree: a flat array of Nodes, root at
// index 0. Children are referenced by index, not pointer, so a Tree is
// trivially serializable and mmap-friendly (see codec.go) — following
// original_source's Node-index (not reference) design.
type Tree struct {
	Nodes []Node
}

// Node is the sum type of the two kinds of tree node. Exactly one of
// Branch/Leaf is non-nil.
type Node struct {
	Branch *BranchNode
	Leaf   *LeafNode
}

// BranchNode routes an example to LeftChildIndex or RightChildIndex
// according to Split. ExamplesFraction is the proportion of training
// examples that reached this node, used by TreeSHAP's baseline
// expectation (see shap.go). Gain is the split gain this branch was
// chosen for (see split.go's splitCandidate.gain), used by
// FeatureImportances.
type BranchNode struct {
	LeftChildIndex   int
	RightChildIndex  int
	Split            BranchSplit
	ExamplesFraction float32
	Gain             float32
}

// LeafNode holds the output value this leaf contributes to a
// prediction: a raw score in link space (identity for regression,
// logit for binary classification, unnormalized log-odds per class for
// multiclass).
type LeafNode struct {
	Value            float64
	ExamplesFraction float32
}

// predictLeaf walks the tree for one example's raw feature row,
// returning the leaf it lands in. row is keyed by original column
// index (not the training-time used-feature index), since a trained
// Tree is evaluated against raw Features at prediction time.
func (t *Tree) predictLeaf(row func(featureIndex int) (value float32, isEnum bool, enumValue int32)) int {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Leaf != nil {
			return idx
		}
		b := n.Branch
		if routeLeft(b.Split, row) {
			idx = b.LeftChildIndex
		} else {
			idx = b.RightChildIndex
		}
	}
}

// routeLeft decides whether one example goes to the left child of a
// branch, given an accessor for raw (unbinned) feature values.
func routeLeft(split BranchSplit, row func(featureIndex int) (float32, bool, int32)) bool {
	if split.Continuous != nil {
		c := split.Continuous
		v, _, _ := row(c.FeatureIndex)
		if isInvalid(v) {
			return c.InvalidValuesDirection == Left
		}
		return v <= c.SplitValue
	}
	d := split.Discrete
	_, _, enumValue := row(d.FeatureIndex)
	bin := int(enumValue)
	if bin >= d.Directions.Len() {
		bin = 0
	}
	return !d.Directions.Get(bin)
}

// Predict evaluates the tree for one example, returning the leaf
// value it lands in.
func (t *Tree) Predict(row func(featureIndex int) (value float32, isEnum bool, enumValue int32)) float64 {
	leaf := t.predictLeaf(row)
	return t.Nodes[leaf].Leaf.Value
}

// rowAccessor builds the accessor Tree.Predict/predictLeaf expect from
// one example index into a Features table.
func rowAccessor(features *Features, example int) func(int) (float32, bool, int32) {
	return func(featureIndex int) (float32, bool, int32) {
		col := features.Columns[featureIndex]
		if col.isEnum() {
			return 0, true, col.Enum.Values[example]
		}
		return col.Number[example], false, 0
	}
}
