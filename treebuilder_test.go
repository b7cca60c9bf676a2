package gbt

import "testing"

func TestBuildTreeSplitsOnObviousSignal(t *testing.T) {
	features := &Features{
		Columns: []Column{{Number: NumberColumn{
			0, 0, 0, 0, 0, 10, 10, 10, 10, 10,
		}}},
		NExamples: 10,
	}
	opts := DefaultTrainOptions()
	opts.MinExamplesPerNode = 2
	opts.MaxLeafNodes = 4
	instructions := computeBinningInstructions(features, &opts)
	bf := computeBinnedFeatures(features, instructions, &opts)
	ctx := newBuildContext(bf, instructions, &opts)

	gradients := []float64{-1, -1, -1, -1, -1, 1, 1, 1, 1, 1}
	hessians := make([]float64, 10)
	for i := range hessians {
		hessians[i] = 1
	}
	exampleIndex := identityPermutation(10)
	tree := buildTree(ctx, exampleIndex, gradients, hessians)

	if len(tree.Nodes) < 3 {
		t.Fatalf("expected at least one split, got %d nodes", len(tree.Nodes))
	}
	root := tree.Nodes[0]
	if root.Branch == nil {
		t.Fatal("expected root to be a branch")
	}
	leftLeaf := tree.Nodes[root.Branch.LeftChildIndex]
	rightLeaf := tree.Nodes[root.Branch.RightChildIndex]
	if leftLeaf.Leaf == nil || rightLeaf.Leaf == nil {
		t.Fatal("expected both children to be leaves for this shallow tree")
	}
	if leftLeaf.Leaf.Value <= 0 {
		t.Errorf("left leaf value = %v, want positive (low-feature examples had negative gradient)", leftLeaf.Leaf.Value)
	}
	if rightLeaf.Leaf.Value >= 0 {
		t.Errorf("right leaf value = %v, want negative (high-feature examples had positive gradient)", rightLeaf.Leaf.Value)
	}
}

func TestBuildTreeNoSplitWhenNoGain(t *testing.T) {
	features := &Features{
		Columns:   []Column{{Number: NumberColumn{1, 2, 3, 4, 5, 6}}},
		NExamples: 6,
	}
	opts := DefaultTrainOptions()
	opts.MinExamplesPerNode = 10 // impossible to satisfy with 6 examples
	instructions := computeBinningInstructions(features, &opts)
	bf := computeBinnedFeatures(features, instructions, &opts)
	ctx := newBuildContext(bf, instructions, &opts)

	gradients := []float64{1, 1, 1, -1, -1, -1}
	hessians := []float64{1, 1, 1, 1, 1, 1}
	tree := buildTree(ctx, identityPermutation(6), gradients, hessians)

	if len(tree.Nodes) != 1 {
		t.Fatalf("expected a single leaf node, got %d", len(tree.Nodes))
	}
}
