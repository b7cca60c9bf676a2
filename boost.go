package gbt

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Regressor is a trained single-output GBDT model for squared-error
// regression.
type Regressor struct {
	Bias      float64
	Trees     []Tree
	Truncated bool
}

// BinaryClassifier is a trained GBDT model predicting one of two
// classes, scored in logit space.
type BinaryClassifier struct {
	Bias         float64
	Trees        []Tree
	VariantNames []string
	Truncated    bool
}

// MulticlassClassifier is a trained GBDT model predicting one of N
// classes; one tree is grown per class per round.
type MulticlassClassifier struct {
	Biases       []float64
	Trees        [][]Tree // Trees[round][class]
	VariantNames []string
	Truncated    bool
}

// earlyStoppingSplit deterministically partitions example indices into
// a training set and a held-out set, the first EarlyStoppingFraction
// of examples (in original order) held out — deterministic so repeated
// Train calls on the same data produce the same split.
func earlyStoppingSplit(n int, frac float64) (train, heldOut []int) {
	nHeld := int(float64(n) * frac)
	if nHeld < 1 {
		nHeld = 1
	}
	heldOut = make([]int, nHeld)
	for i := 0; i < nHeld; i++ {
		heldOut[i] = i
	}
	train = make([]int, n-nHeld)
	for i := nHeld; i < n; i++ {
		train[i-nHeld] = i
	}
	return train, heldOut
}

// boostState tracks the shared bookkeeping of the boosting loop across
// all three tasks: current predictions, early-stopping patience, and
// cancellation.
type boostState struct {
	opts          *TrainOptions
	trainIdx      []int
	heldOutIdx    []int
	bestMetric    float64
	roundsSinceImprovement int
	logger        *logrus.Entry
}

func newBoostState(opts *TrainOptions, nExamples int) *boostState {
	s := &boostState{opts: opts, bestMetric: math.Inf(1), logger: logrus.WithField("component", "gbt")}
	if opts.EarlyStoppingOptions != nil {
		s.trainIdx, s.heldOutIdx = earlyStoppingSplit(nExamples, opts.EarlyStoppingOptions.EarlyStoppingFraction)
	} else {
		s.trainIdx = identityPermutation(nExamples)
	}
	return s
}

func identityPermutation(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// shouldStop reports whether the patience window has been exhausted,
// updating the best-seen metric as a side effect.
func (s *boostState) shouldStop(metric float64) bool {
	es := s.opts.EarlyStoppingOptions
	if es == nil {
		return false
	}
	if metric < s.bestMetric*(1-es.Threshold) {
		s.bestMetric = metric
		s.roundsSinceImprovement = 0
		return false
	}
	s.roundsSinceImprovement++
	return s.roundsSinceImprovement >= es.N
}

// TrainRegressor fits a GBDT regression model. progress may be nil.
func TrainRegressor(features *Features, labels RegressionLabels, opts TrainOptions, progress *Progress) (*Regressor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := features.validate(); err != nil {
		return nil, err
	}
	if len(labels) != features.NExamples {
		return nil, newError(InvalidInput, "labels has %d entries, want %d", len(labels), features.NExamples)
	}
	if err := labels.validate(); err != nil {
		return nil, err
	}

	instructions := computeBinningInstructions(features, &opts)
	bf := computeBinnedFeatures(features, instructions, &opts)
	progress.emit(Event{Phase: PhaseBinningDone, Round: -1})
	ctx := newBuildContext(bf, instructions, &opts)

	mean := meanOf(labels)
	predictions := make([]float64, features.NExamples)
	for i := range predictions {
		predictions[i] = mean
	}

	state := newBoostState(&opts, features.NExamples)
	model := &Regressor{Bias: mean}
	gradients := make([]float64, features.NExamples)
	hessians := make([]float64, features.NExamples)

	for round := 0; round < opts.MaxRounds; round++ {
		if progress.killed() {
			model.Truncated = true
			break
		}
		computeRegressionGradients(labels, predictions, gradients, hessians)
		tree := buildTree(ctx, append([]int(nil), state.trainIdx...), gradients, hessians)
		model.Trees = append(model.Trees, *tree)
		applyTreeUpdate(tree, features, predictions)

		loss := math.NaN()
		if opts.ComputeLosses || opts.EarlyStoppingOptions != nil {
			loss = meanSquaredError(labels, predictions, state)
		}
		progress.emit(Event{Phase: PhaseTraining, Round: round, Trees: len(model.Trees), Loss: loss})
		state.logger.WithField("round", round).WithField("loss", loss).Debug("round complete")
		if state.shouldStop(loss) {
			break
		}
	}
	progress.emit(Event{Phase: PhaseTrainingDone, Trees: len(model.Trees)})
	return model, nil
}

// TrainBinaryClassifier fits a GBDT binary classification model.
func TrainBinaryClassifier(features *Features, labels *EnumLabels, opts TrainOptions, progress *Progress) (*BinaryClassifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := features.validate(); err != nil {
		return nil, err
	}
	if labels.VariantCount != 2 {
		return nil, newError(InvalidInput, "binary classifier requires exactly 2 label variants, got %d", labels.VariantCount)
	}
	if len(labels.Values) != features.NExamples {
		return nil, newError(InvalidInput, "labels has %d entries, want %d", len(labels.Values), features.NExamples)
	}
	if err := labels.validate(); err != nil {
		return nil, err
	}

	instructions := computeBinningInstructions(features, &opts)
	bf := computeBinnedFeatures(features, instructions, &opts)
	progress.emit(Event{Phase: PhaseBinningDone, Round: -1})
	ctx := newBuildContext(bf, instructions, &opts)

	prior := classPrior(labels.Values, 1)
	bias := logit(prior)
	predictions := make([]float64, features.NExamples)
	for i := range predictions {
		predictions[i] = bias
	}

	state := newBoostState(&opts, features.NExamples)
	model := &BinaryClassifier{Bias: bias, VariantNames: labels.VariantNames}
	gradients := make([]float64, features.NExamples)
	hessians := make([]float64, features.NExamples)

	for round := 0; round < opts.MaxRounds; round++ {
		if progress.killed() {
			model.Truncated = true
			break
		}
		computeBinaryGradients(labels, predictions, gradients, hessians)
		tree := buildTree(ctx, append([]int(nil), state.trainIdx...), gradients, hessians)
		model.Trees = append(model.Trees, *tree)
		applyTreeUpdate(tree, features, predictions)

		loss := math.NaN()
		if opts.ComputeLosses || opts.EarlyStoppingOptions != nil {
			loss = binaryCrossEntropy(labels, predictions, state)
		}
		progress.emit(Event{Phase: PhaseTraining, Round: round, Trees: len(model.Trees), Loss: loss})
		if state.shouldStop(loss) {
			break
		}
	}
	progress.emit(Event{Phase: PhaseTrainingDone, Trees: len(model.Trees)})
	return model, nil
}

// TrainMulticlassClassifier fits a GBDT multiclass classification
// model, growing one tree per class per round.
func TrainMulticlassClassifier(features *Features, labels *EnumLabels, opts TrainOptions, progress *Progress) (*MulticlassClassifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := features.validate(); err != nil {
		return nil, err
	}
	if labels.VariantCount < 2 {
		return nil, newError(InvalidInput, "multiclass classifier requires at least 2 label variants")
	}
	if len(labels.Values) != features.NExamples {
		return nil, newError(InvalidInput, "labels has %d entries, want %d", len(labels.Values), features.NExamples)
	}
	if err := labels.validate(); err != nil {
		return nil, err
	}

	instructions := computeBinningInstructions(features, &opts)
	bf := computeBinnedFeatures(features, instructions, &opts)
	progress.emit(Event{Phase: PhaseBinningDone, Round: -1})
	ctx := newBuildContext(bf, instructions, &opts)

	nClasses := labels.VariantCount
	biases := make([]float64, nClasses)
	for k := 0; k < nClasses; k++ {
		biases[k] = math.Log(classPrior(labels.Values, int32(k)) + 1e-12)
	}
	predictions := make([][]float64, nClasses)
	for k := range predictions {
		predictions[k] = make([]float64, features.NExamples)
		for i := range predictions[k] {
			predictions[k][i] = biases[k]
		}
	}

	state := newBoostState(&opts, features.NExamples)
	model := &MulticlassClassifier{Biases: biases, VariantNames: labels.VariantNames}
	gradients := make([][]float64, nClasses)
	hessians := make([][]float64, nClasses)
	for k := range gradients {
		gradients[k] = make([]float64, features.NExamples)
		hessians[k] = make([]float64, features.NExamples)
	}

	for round := 0; round < opts.MaxRounds; round++ {
		if progress.killed() {
			model.Truncated = true
			break
		}
		computeMulticlassGradients(labels, predictions, gradients, hessians)
		roundTrees := make([]Tree, nClasses)
		for k := 0; k < nClasses; k++ {
			tree := buildTree(ctx, append([]int(nil), state.trainIdx...), gradients[k], hessians[k])
			roundTrees[k] = *tree
			applyTreeUpdate(tree, features, predictions[k])
		}
		model.Trees = append(model.Trees, roundTrees)

		loss := math.NaN()
		if opts.ComputeLosses || opts.EarlyStoppingOptions != nil {
			loss = crossEntropy(labels, predictions, state)
		}
		progress.emit(Event{Phase: PhaseTraining, Round: round, Trees: len(model.Trees) * nClasses, Loss: loss})
		if state.shouldStop(loss) {
			break
		}
	}
	progress.emit(Event{Phase: PhaseTrainingDone, Trees: len(model.Trees) * nClasses})
	return model, nil
}

func applyTreeUpdate(tree *Tree, features *Features, predictions []float64) {
	parallelFor(features.NExamples, func(i int) {
		predictions[i] += tree.Predict(rowAccessor(features, i))
	})
}

func meanOf(labels RegressionLabels) float64 {
	var sum float64
	for _, v := range labels {
		sum += float64(v)
	}
	return sum / float64(len(labels))
}

func classPrior(values []int32, class int32) float64 {
	var count int
	for _, v := range values {
		if v == class {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func logit(p float64) float64 {
	if p <= 0 {
		p = 1e-12
	}
	if p >= 1 {
		p = 1 - 1e-12
	}
	return math.Log(p / (1 - p))
}

func meanSquaredError(labels RegressionLabels, predictions []float64, state *boostState) float64 {
	idx := evalIndexes(state)
	var sum float64
	for _, i := range idx {
		d := predictions[i] - float64(labels[i])
		sum += d * d
	}
	return sum / float64(len(idx))
}

func binaryCrossEntropy(labels *EnumLabels, predictions []float64, state *boostState) float64 {
	idx := evalIndexes(state)
	var sum float64
	for _, i := range idx {
		p := sigmoid(predictions[i])
		y := float64(labels.Values[i])
		sum -= y*math.Log(p+1e-12) + (1-y)*math.Log(1-p+1e-12)
	}
	return sum / float64(len(idx))
}

func crossEntropy(labels *EnumLabels, predictions [][]float64, state *boostState) float64 {
	idx := evalIndexes(state)
	logits := make([]float64, len(predictions))
	var sum float64
	for _, i := range idx {
		for k := range predictions {
			logits[k] = predictions[k][i]
		}
		probs := softmax(logits)
		sum -= math.Log(probs[labels.Values[i]] + 1e-12)
	}
	return sum / float64(len(idx))
}

func evalIndexes(state *boostState) []int {
	if state.opts.EarlyStoppingOptions != nil {
		return state.heldOutIdx
	}
	return state.trainIdx
}
