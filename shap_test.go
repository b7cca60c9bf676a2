package gbt

import (
	"math"
	"testing"
)

func TestComputeShapValuesSumsToOutput(t *testing.T) {
	// A single stump tree: x0 <= 5 -> 1.0, else -> 2.0.
	tree := Tree{Nodes: []Node{
		{Branch: &BranchNode{
			LeftChildIndex:  1,
			RightChildIndex: 2,
			Split: BranchSplit{Continuous: &BranchSplitContinuous{
				FeatureIndex: 0, SplitValue: 5, InvalidValuesDirection: Left,
			}},
			ExamplesFraction: 1.0,
		}},
		{Leaf: &LeafNode{Value: 1.0, ExamplesFraction: 0.5}},
		{Leaf: &LeafNode{Value: 2.0, ExamplesFraction: 0.5}},
	}}
	row := func(featureIndex int) (float32, bool, int32) { return 10, false, 0 }
	result := ComputeShapValues(row, []Tree{tree}, 0, 1)

	if math.Abs(result.OutputValue-2.0) > 1e-9 {
		t.Errorf("OutputValue = %v, want 2.0", result.OutputValue)
	}
	sum := result.BaselineValue
	for _, v := range result.FeatureContributions {
		sum += v
	}
	if math.Abs(sum-result.OutputValue) > 1e-9 {
		t.Errorf("baseline + contributions = %v, want OutputValue %v", sum, result.OutputValue)
	}
}

func TestComputeExpectationIsWeightedAverage(t *testing.T) {
	tree := Tree{Nodes: []Node{
		{Branch: &BranchNode{
			LeftChildIndex: 1, RightChildIndex: 2,
			Split:            BranchSplit{Continuous: &BranchSplitContinuous{FeatureIndex: 0, SplitValue: 0}},
			ExamplesFraction: 1.0,
		}},
		{Leaf: &LeafNode{Value: 10.0, ExamplesFraction: 0.25}},
		{Leaf: &LeafNode{Value: 0.0, ExamplesFraction: 0.75}},
	}}
	got := computeExpectation(&tree, 0)
	want := 0.25*10.0 + 0.75*0.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("computeExpectation = %v, want %v", got, want)
	}
}
