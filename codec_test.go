package gbt

import (
	"os"
	"path/filepath"
	"testing"
)

func buildSampleTree() Tree {
	return Tree{Nodes: []Node{
		{Branch: &BranchNode{
			LeftChildIndex:  1,
			RightChildIndex: 2,
			Split: BranchSplit{Discrete: &BranchSplitDiscrete{
				FeatureIndex: 2,
				Directions:   NewBitset(4),
			}},
			ExamplesFraction: 1,
		}},
		{Leaf: &LeafNode{Value: 1.5, ExamplesFraction: 0.4}},
		{Leaf: &LeafNode{Value: -2.5, ExamplesFraction: 0.6}},
	}}
}

func TestRegressorSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.gbt")
	original := &Regressor{Bias: 0.25, Trees: []Tree{buildSampleTree()}}
	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadRegressor(path)
	if err != nil {
		t.Fatalf("LoadRegressor: %v", err)
	}
	if loaded.Bias != original.Bias {
		t.Errorf("Bias = %v, want %v", loaded.Bias, original.Bias)
	}
	if len(loaded.Trees) != 1 || len(loaded.Trees[0].Nodes) != 3 {
		t.Fatalf("unexpected tree shape: %+v", loaded.Trees)
	}
	if loaded.Trees[0].Nodes[1].Leaf.Value != 1.5 {
		t.Errorf("leaf value = %v, want 1.5", loaded.Trees[0].Nodes[1].Leaf.Value)
	}
}

func TestBinaryClassifierSaveLoadMmap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.gbt")
	original := &BinaryClassifier{Bias: -0.1, VariantNames: []string{"no", "yes"}, Trees: []Tree{buildSampleTree()}}
	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, closer, err := LoadBinaryClassifierMmap(path)
	if err != nil {
		t.Fatalf("LoadBinaryClassifierMmap: %v", err)
	}
	defer closer.Close()
	if len(loaded.VariantNames) != 2 || loaded.VariantNames[1] != "yes" {
		t.Errorf("VariantNames = %v", loaded.VariantNames)
	}
	if loaded.Bias != original.Bias {
		t.Errorf("Bias = %v, want %v", loaded.Bias, original.Bias)
	}
}

func TestLoadRegressorRejectsWrongTask(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.gbt")
	bc := &BinaryClassifier{Trees: []Tree{buildSampleTree()}}
	if err := bc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := LoadRegressor(path); err == nil {
		t.Error("expected an error loading a binary classifier file as a Regressor")
	}
}

func TestLoadRegressorRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.gbt")
	if err := os.WriteFile(path, []byte("not a model file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegressor(path); err == nil {
		t.Error("expected an error loading a non-model file")
	}
}
