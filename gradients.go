package gbt

import "math"

// computeRegressionGradients fills gradients/hessians in place for
// squared-error regression: gradient is the negative residual,
// Hessian is constant (the loss is quadratic in the prediction).
func computeRegressionGradients(labels RegressionLabels, predictions []float64, gradients, hessians []float64) {
	for i := range labels {
		gradients[i] = predictions[i] - float64(labels[i])
		hessians[i] = 1
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// computeBinaryGradients fills gradients/hessians for binary logistic
// loss: gradient is (predicted probability - label), Hessian is
// p*(1-p), the standard logistic-loss curvature.
func computeBinaryGradients(labels *EnumLabels, predictions []float64, gradients, hessians []float64) {
	for i, label := range labels.Values {
		p := sigmoid(predictions[i])
		gradients[i] = p - float64(label)
		h := p * (1 - p)
		if h < 1e-12 {
			h = 1e-12
		}
		hessians[i] = h
	}
}

// softmaxLossGrad computes the softmax cross-entropy gradient and a
// diagonal Hessian approximation (p*(1-p) per class) for one example's
// logits, in plain float64 arithmetic. This reimplements the closed
// form the teacher's softmax.go computed through an autodiff graph
// (SoftmaxLossGrad over anyvec64.Vector) by hand: the derivative of
// softmax cross-entropy w.r.t. logit k is p_k - 1{k == label}, so no
// computation graph is needed.
func softmaxLossGrad(logits []float64, label int, gradOut, hessOut []float64) {
	probs := softmax(logits)
	for k, p := range probs {
		target := 0.0
		if k == label {
			target = 1.0
		}
		gradOut[k] = p - target
		h := p * (1 - p)
		if h < 1e-12 {
			h = 1e-12
		}
		hessOut[k] = h
	}
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// computeMulticlassGradients fills one gradients/hessians slice per
// class (indexed [class][example]) from the current per-class logits.
func computeMulticlassGradients(labels *EnumLabels, predictions [][]float64, gradients, hessians [][]float64) {
	nClasses := labels.VariantCount
	logits := make([]float64, nClasses)
	grad := make([]float64, nClasses)
	hess := make([]float64, nClasses)
	for i, label := range labels.Values {
		for k := 0; k < nClasses; k++ {
			logits[k] = predictions[k][i]
		}
		softmaxLossGrad(logits, int(label), grad, hess)
		for k := 0; k < nClasses; k++ {
			gradients[k][i] = grad[k]
			hessians[k][i] = hess[k]
		}
	}
}
