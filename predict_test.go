package gbt

import "testing"

func TestFeatureImportancesWeightsByGainNotExamplesFraction(t *testing.T) {
	// Feature 0 carries a low-traffic, high-gain split; feature 1 carries
	// a high-traffic, low-gain split. Importance should favor feature 0.
	trees := []Tree{{Nodes: []Node{
		{Branch: &BranchNode{
			LeftChildIndex:  1,
			RightChildIndex: 2,
			Split:           BranchSplit{Continuous: &BranchSplitContinuous{FeatureIndex: 0}},
			ExamplesFraction: 0.1,
			Gain:             100,
		}},
		{Leaf: &LeafNode{}},
		{Branch: &BranchNode{
			LeftChildIndex:  3,
			RightChildIndex: 4,
			Split:           BranchSplit{Continuous: &BranchSplitContinuous{FeatureIndex: 1}},
			ExamplesFraction: 0.9,
			Gain:             1,
		}},
		{Leaf: &LeafNode{}},
		{Leaf: &LeafNode{}},
	}}}
	importances := FeatureImportances(trees, 2)
	if importances[0] <= importances[1] {
		t.Errorf("importances = %v, want feature 0 (high gain) to dominate feature 1 (high traffic, low gain)", importances)
	}
}

func TestBinaryClassifierPredictClassesUsesThreshold(t *testing.T) {
	// bias = -2 gives p = sigmoid(-2) ~= 0.119 for every example.
	model := &BinaryClassifier{Bias: -2, Trees: nil}
	features := &Features{Columns: []Column{{Number: NumberColumn{0, 0}}}, NExamples: 2}
	classes := make([]bool, 2)

	model.PredictClasses(features, nil, classes)
	if classes[0] {
		t.Errorf("with default 0.5 threshold and p~=0.119, expected negative, got positive")
	}

	lowThreshold := 0.1
	model.PredictClasses(features, &PredictOptions{Threshold: &lowThreshold}, classes)
	if !classes[0] {
		t.Errorf("with threshold 0.1 and p~=0.119, expected positive, got negative")
	}
}
