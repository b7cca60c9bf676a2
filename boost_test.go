package gbt

import (
	"math"
	"math/rand"
	"testing"
)

func syntheticRegressionData(n int, rng *rand.Rand) (*Features, RegressionLabels) {
	x := make(NumberColumn, n)
	labels := make(RegressionLabels, n)
	for i := 0; i < n; i++ {
		x[i] = float32(rng.NormFloat64())
		labels[i] = x[i]*2 + 1
	}
	return &Features{Columns: []Column{{Number: x}}, NExamples: n}, labels
}

func TestTrainRegressorReducesError(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	features, labels := syntheticRegressionData(2000, rng)
	opts := DefaultTrainOptions()
	opts.MaxRounds = 30
	model, err := TrainRegressor(features, labels, opts, nil)
	if err != nil {
		t.Fatalf("TrainRegressor: %v", err)
	}
	predictions := make([]float64, features.NExamples)
	model.Predict(features, predictions)
	var sumSq float64
	for i, p := range predictions {
		d := p - float64(labels[i])
		sumSq += d * d
	}
	mse := sumSq / float64(len(predictions))
	if mse > 1.0 {
		t.Errorf("mse = %v, want well under 1.0 on a near-linear signal", mse)
	}
}

func TestTrainRegressorCancellation(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	features, labels := syntheticRegressionData(500, rng)
	opts := DefaultTrainOptions()
	opts.MaxRounds = 1000
	kill := &KillChip{}
	rounds := 0
	progress := &Progress{Kill: kill, Callback: func(e Event) {
		if e.Phase == PhaseTraining {
			rounds++
			if rounds == 3 {
				kill.Kill()
			}
		}
	}}
	model, err := TrainRegressor(features, labels, opts, progress)
	if err != nil {
		t.Fatalf("TrainRegressor: %v", err)
	}
	if !model.Truncated {
		t.Error("expected Truncated to be true after cancellation")
	}
	if len(model.Trees) >= opts.MaxRounds {
		t.Errorf("expected training to stop early, got %d trees", len(model.Trees))
	}
}

func TestTrainBinaryClassifierConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 2000
	x := make(NumberColumn, n)
	values := make([]int32, n)
	for i := 0; i < n; i++ {
		x[i] = float32(rng.NormFloat64())
		if x[i] > 0 {
			values[i] = 1
		}
	}
	features := &Features{Columns: []Column{{Number: x}}, NExamples: n}
	labels := &EnumLabels{VariantCount: 2, Values: values}
	opts := DefaultTrainOptions()
	opts.MaxRounds = 30
	model, err := TrainBinaryClassifier(features, labels, opts, nil)
	if err != nil {
		t.Fatalf("TrainBinaryClassifier: %v", err)
	}
	probs := make([]float64, n)
	model.Predict(features, probs)
	correct := 0
	for i := range probs {
		predicted := 0
		if probs[i] > 0.5 {
			predicted = 1
		}
		if int32(predicted) == values[i] {
			correct++
		}
	}
	if acc := float64(correct) / float64(n); acc < 0.9 {
		t.Errorf("accuracy = %v, want at least 0.9 on a trivially separable signal", acc)
	}
}

func TestTrainMulticlassClassifierConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := 1500
	x := make(NumberColumn, n)
	values := make([]int32, n)
	for i := 0; i < n; i++ {
		x[i] = float32(rng.NormFloat64() * 3)
		switch {
		case x[i] < -1:
			values[i] = 0
		case x[i] > 1:
			values[i] = 2
		default:
			values[i] = 1
		}
	}
	features := &Features{Columns: []Column{{Number: x}}, NExamples: n}
	labels := &EnumLabels{VariantCount: 3, Values: values}
	opts := DefaultTrainOptions()
	opts.MaxRounds = 30
	model, err := TrainMulticlassClassifier(features, labels, opts, nil)
	if err != nil {
		t.Fatalf("TrainMulticlassClassifier: %v", err)
	}
	probs := make([][]float64, n)
	model.Predict(features, probs)
	correct := 0
	for i := range probs {
		best := 0
		for k := 1; k < 3; k++ {
			if probs[i][k] > probs[i][best] {
				best = k
			}
		}
		if int32(best) == values[i] {
			correct++
		}
	}
	if acc := float64(correct) / float64(n); acc < 0.8 {
		t.Errorf("accuracy = %v, want at least 0.8", acc)
	}
}

func TestTrainOptionsValidateRejectsBadConfig(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.MaxLeafNodes = 1
	if err := opts.Validate(); err == nil {
		t.Error("expected an error for MaxLeafNodes=1")
	}
}

func TestSigmoidMonotonic(t *testing.T) {
	if sigmoid(-10) >= sigmoid(0) || sigmoid(0) >= sigmoid(10) {
		t.Error("sigmoid should be strictly increasing")
	}
	if math.Abs(sigmoid(0)-0.5) > 1e-9 {
		t.Errorf("sigmoid(0) = %v, want 0.5", sigmoid(0))
	}
}
