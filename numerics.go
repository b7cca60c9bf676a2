package gbt

import "math"

// minimizeUnary minimizes f over [minX, maxX] by golden-section search,
// adapted from the teacher's 1D line-search helper: only guaranteed to
// find a local minimum, which is sufficient for the unimodal-in-
// practice loss-vs-shrinkage curves TuneShrinkage searches over.
func minimizeUnary(minX, maxX float64, iters int, f func(x float64) float64) float64 {
	var midValue1, midValue2 *float64
	for i := 0; i < iters; i++ {
		mid1 := maxX - (maxX-minX)/math.Phi
		mid2 := minX + (maxX-minX)/math.Phi
		if midValue1 == nil {
			x := f(mid1)
			midValue1 = &x
		}
		if midValue2 == nil {
			x := f(mid2)
			midValue2 = &x
		}
		if *midValue2 < *midValue1 {
			minX = mid1
			midValue1 = midValue2
			midValue2 = nil
		} else {
			maxX = mid2
			midValue2 = midValue1
			midValue1 = nil
		}
	}
	return (minX + maxX) / 2
}

// TuneShrinkage searches [minShrinkage, maxShrinkage] for the value
// that minimizes held-out regression loss after training a small probe
// ensemble at each candidate, using golden-section search rather than
// a grid sweep since the loss-vs-shrinkage curve is typically unimodal
// over a reasonable range. probeRounds should be small (this trains
// one full probe model per iteration).
func TuneShrinkage(features *Features, labels RegressionLabels, base TrainOptions, minShrinkage, maxShrinkage float64, iters, probeRounds int) (float64, error) {
	var firstErr error
	best := minimizeUnary(minShrinkage, maxShrinkage, iters, func(shrinkage float64) float64 {
		opts := base
		opts.Shrinkage = shrinkage
		opts.MaxRounds = probeRounds
		model, err := TrainRegressor(features, labels, opts, nil)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return math.Inf(1)
		}
		predictions := make([]float64, features.NExamples)
		model.Predict(features, predictions)
		var sum float64
		for i, v := range predictions {
			d := v - float64(labels[i])
			sum += d * d
		}
		return sum / float64(len(predictions))
	})
	if firstErr != nil {
		return 0, firstErr
	}
	return best, nil
}
