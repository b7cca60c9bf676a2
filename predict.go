package gbt

// Predict fills out[i] with the regression's prediction for example i,
// in parallel across examples.
func (r *Regressor) Predict(features *Features, out []float64) {
	parallelFor(features.NExamples, func(i int) {
		out[i] = r.Bias
		row := rowAccessor(features, i)
		for t := range r.Trees {
			out[i] += r.Trees[t].Predict(row)
		}
	})
}

// PredictOne returns the regression's prediction for a single example.
func (r *Regressor) PredictOne(row func(featureIndex int) (float32, bool, int32)) float64 {
	v := r.Bias
	for t := range r.Trees {
		v += r.Trees[t].Predict(row)
	}
	return v
}

// Predict fills probabilityOfPositive[i] with P(class=1) for example i.
func (c *BinaryClassifier) Predict(features *Features, probabilityOfPositive []float64) {
	parallelFor(features.NExamples, func(i int) {
		logit := c.Bias
		row := rowAccessor(features, i)
		for t := range c.Trees {
			logit += c.Trees[t].Predict(row)
		}
		probabilityOfPositive[i] = sigmoid(logit)
	})
}

// PredictClasses fills classes[i] with the predicted class for example i:
// positive iff probabilityOfPositive(i) >= threshold, per opts.Threshold
// (defaulting to 0.5 when opts or opts.Threshold is nil).
func (c *BinaryClassifier) PredictClasses(features *Features, opts *PredictOptions, classes []bool) {
	threshold := 0.5
	if opts != nil && opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	probabilityOfPositive := make([]float64, features.NExamples)
	c.Predict(features, probabilityOfPositive)
	for i, p := range probabilityOfPositive {
		classes[i] = p >= threshold
	}
}

// Predict fills probabilities[i] with one probability distribution over
// classes per example (len(probabilities[i]) == number of classes).
func (c *MulticlassClassifier) Predict(features *Features, probabilities [][]float64) {
	nClasses := len(c.Biases)
	parallelFor(features.NExamples, func(i int) {
		logits := make([]float64, nClasses)
		copy(logits, c.Biases)
		row := rowAccessor(features, i)
		for round := range c.Trees {
			for k := 0; k < nClasses; k++ {
				logits[k] += c.Trees[round][k].Predict(row)
			}
		}
		probabilities[i] = softmax(logits)
	})
}

// FeatureImportances reports, for every original feature column, the
// fraction of total split gain attributed to splits on that feature
// across every tree — a cheap, commonly used alternative to full
// TreeSHAP attribution (see shap.go) that needs only the trained model.
func FeatureImportances(trees []Tree, nFeatures int) []float64 {
	gain := make([]float64, nFeatures)
	var total float64
	for t := range trees {
		for _, node := range trees[t].Nodes {
			if node.Branch == nil {
				continue
			}
			fi := branchFeatureIndex(node.Branch.Split)
			g := float64(node.Branch.Gain)
			gain[fi] += g
			total += g
		}
	}
	if total == 0 {
		return gain
	}
	for i := range gain {
		gain[i] /= total
	}
	return gain
}

func branchFeatureIndex(split BranchSplit) int {
	if split.Continuous != nil {
		return split.Continuous.FeatureIndex
	}
	return split.Discrete.FeatureIndex
}
