package gbt

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LinearOptions configures the companion SGD learner (C10): a linear
// model trained in parallel to the tree learner over the same task
// taxonomy, for callers who want a fast, interpretable baseline
// alongside the boosted model.
type LinearOptions struct {
	LearningRate      float64
	L2Regularization  float64
	MaxEpochs         int
	BatchSize         int
	EarlyStoppingOptions *EarlyStoppingOptions
	// Seed controls the deterministic mini-batch shuffle order; two
	// Train calls with the same Seed and data produce the same model.
	Seed int64
}

func DefaultLinearOptions() LinearOptions {
	return LinearOptions{
		LearningRate:     0.01,
		L2Regularization: 1e-4,
		MaxEpochs:        100,
		BatchSize:        128,
		Seed:             42,
	}
}

func (o *LinearOptions) Validate() error {
	switch {
	case o.LearningRate <= 0:
		return newError(ConfigError, "LearningRate must be positive")
	case o.L2Regularization < 0:
		return newError(ConfigError, "L2Regularization must be non-negative")
	case o.MaxEpochs <= 0:
		return newError(ConfigError, "MaxEpochs must be positive")
	case o.BatchSize <= 0:
		return newError(ConfigError, "BatchSize must be positive")
	}
	return nil
}

// LinearModel is a trained single-output linear model (regression or
// binary classification, in the latter case scored in logit space).
// FeatureMeans supports the feature-contribution schema
// w_i*(x_i - mean_i), the linear analogue of TreeSHAP attribution.
type LinearModel struct {
	Bias         float64
	Weights      []float64
	FeatureMeans []float64
}

func (m *LinearModel) score(x []float64) float64 {
	v := m.Bias
	for i, w := range m.Weights {
		v += w * (x[i] - m.FeatureMeans[i])
	}
	return v
}

// FeatureContributions returns w_i*(x_i - mean_i) per feature,
// summing with Bias to exactly reproduce the model's raw score.
func (m *LinearModel) FeatureContributions(x []float64) []float64 {
	out := make([]float64, len(m.Weights))
	for i, w := range m.Weights {
		out[i] = w * (x[i] - m.FeatureMeans[i])
	}
	return out
}

// LinearMulticlassModel is one linear model per class, softmax-
// normalized at prediction time exactly like MulticlassClassifier.
type LinearMulticlassModel struct {
	Biases       []float64
	Weights      [][]float64
	FeatureMeans []float64
}

func numericMatrix(features *Features) ([][]float64, error) {
	rows := make([][]float64, features.NExamples)
	for i := range rows {
		rows[i] = make([]float64, len(features.Columns))
	}
	for fi, col := range features.Columns {
		if col.isEnum() {
			return nil, newError(InvalidInput, "linear learner requires numeric features; column %d is categorical (pre-encode it)", fi)
		}
		for i, v := range col.Number {
			if isInvalid(v) {
				rows[i][fi] = 0
			} else {
				rows[i][fi] = float64(v)
			}
		}
	}
	return rows, nil
}

func columnMeans(rows [][]float64, nFeatures int) []float64 {
	means := make([]float64, nFeatures)
	col := make([]float64, len(rows))
	for fi := 0; fi < nFeatures; fi++ {
		for i, row := range rows {
			col[i] = row[fi]
		}
		means[fi] = stat.Mean(col, nil)
	}
	return means
}

// TrainLinearRegressor fits a linear model by mini-batch SGD on
// squared-error loss.
func TrainLinearRegressor(features *Features, labels RegressionLabels, opts LinearOptions, progress *Progress) (*LinearModel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows, err := numericMatrix(features)
	if err != nil {
		return nil, err
	}
	nFeatures := len(features.Columns)
	means := columnMeans(rows, nFeatures)
	model := &LinearModel{Weights: make([]float64, nFeatures), FeatureMeans: means}
	rng := rand.New(rand.NewSource(opts.Seed))

	for epoch := 0; epoch < opts.MaxEpochs; epoch++ {
		if progress.killed() {
			break
		}
		order := rng.Perm(len(rows))
		for start := 0; start < len(order); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]
			n := len(batch)
			localGradW := make([][]float64, n)
			localGradB := make([]float64, n)
			parallelFor(n, func(i int) {
				idx := batch[i]
				x := rows[idx]
				centered := make([]float64, nFeatures)
				for j := range centered {
					centered[j] = x[j] - means[j]
				}
				pred := model.Bias + floats.Dot(model.Weights, centered)
				errTerm := pred - float64(labels[idx])
				scaled := make([]float64, nFeatures)
				floats.AddScaled(scaled, errTerm, centered)
				localGradW[i] = scaled
				localGradB[i] = errTerm
			})
			gradW := make([]float64, nFeatures)
			gradB := 0.0
			for i := 0; i < n; i++ {
				floats.Add(gradW, localGradW[i])
				gradB += localGradB[i]
			}
			nf := float64(n)
			for i := range gradW {
				gradW[i] = gradW[i]/nf + opts.L2Regularization*model.Weights[i]
			}
			floats.AddScaled(model.Weights, -opts.LearningRate, gradW)
			model.Bias -= opts.LearningRate * gradB / nf
		}
		progress.emit(Event{Phase: PhaseTraining, Round: epoch, Loss: math.NaN()})
	}
	return model, nil
}

// TrainLinearBinaryClassifier fits a linear model by mini-batch SGD on
// logistic loss.
func TrainLinearBinaryClassifier(features *Features, labels *EnumLabels, opts LinearOptions, progress *Progress) (*LinearModel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if labels.VariantCount != 2 {
		return nil, newError(InvalidInput, "binary linear classifier requires exactly 2 label variants")
	}
	rows, err := numericMatrix(features)
	if err != nil {
		return nil, err
	}
	nFeatures := len(features.Columns)
	means := columnMeans(rows, nFeatures)
	model := &LinearModel{Weights: make([]float64, nFeatures), FeatureMeans: means}
	rng := rand.New(rand.NewSource(opts.Seed))

	for epoch := 0; epoch < opts.MaxEpochs; epoch++ {
		if progress.killed() {
			break
		}
		order := rng.Perm(len(rows))
		for start := 0; start < len(order); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]
			n := len(batch)
			localGradW := make([][]float64, n)
			localGradB := make([]float64, n)
			parallelFor(n, func(i int) {
				idx := batch[i]
				x := rows[idx]
				centered := make([]float64, nFeatures)
				for j := range centered {
					centered[j] = x[j] - means[j]
				}
				p := sigmoid(model.Bias + floats.Dot(model.Weights, centered))
				errTerm := p - float64(labels.Values[idx])
				scaled := make([]float64, nFeatures)
				floats.AddScaled(scaled, errTerm, centered)
				localGradW[i] = scaled
				localGradB[i] = errTerm
			})
			gradW := make([]float64, nFeatures)
			gradB := 0.0
			for i := 0; i < n; i++ {
				floats.Add(gradW, localGradW[i])
				gradB += localGradB[i]
			}
			nf := float64(n)
			for i := range gradW {
				gradW[i] = gradW[i]/nf + opts.L2Regularization*model.Weights[i]
			}
			floats.AddScaled(model.Weights, -opts.LearningRate, gradW)
			model.Bias -= opts.LearningRate * gradB / nf
		}
		progress.emit(Event{Phase: PhaseTraining, Round: epoch, Loss: math.NaN()})
	}
	return model, nil
}

// TrainLinearMulticlassClassifier fits one linear model per class by
// mini-batch SGD on softmax cross-entropy loss.
func TrainLinearMulticlassClassifier(features *Features, labels *EnumLabels, opts LinearOptions, progress *Progress) (*LinearMulticlassModel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows, err := numericMatrix(features)
	if err != nil {
		return nil, err
	}
	nFeatures := len(features.Columns)
	nClasses := labels.VariantCount
	means := columnMeans(rows, nFeatures)
	model := &LinearMulticlassModel{
		Biases:       make([]float64, nClasses),
		Weights:      make([][]float64, nClasses),
		FeatureMeans: means,
	}
	for k := range model.Weights {
		model.Weights[k] = make([]float64, nFeatures)
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	for epoch := 0; epoch < opts.MaxEpochs; epoch++ {
		if progress.killed() {
			break
		}
		order := rng.Perm(len(rows))
		for start := 0; start < len(order); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]
			n := len(batch)
			localGradW := make([][][]float64, n)
			localGradB := make([][]float64, n)
			parallelFor(n, func(i int) {
				idx := batch[i]
				x := rows[idx]
				centered := make([]float64, nFeatures)
				for j := range centered {
					centered[j] = x[j] - means[j]
				}
				logits := make([]float64, nClasses)
				for k := 0; k < nClasses; k++ {
					logits[k] = model.Biases[k] + floats.Dot(model.Weights[k], centered)
				}
				probs := softmax(logits)
				gradWi := make([][]float64, nClasses)
				gradBi := make([]float64, nClasses)
				for k := 0; k < nClasses; k++ {
					target := 0.0
					if int32(k) == labels.Values[idx] {
						target = 1.0
					}
					errTerm := probs[k] - target
					scaled := make([]float64, nFeatures)
					floats.AddScaled(scaled, errTerm, centered)
					gradWi[k] = scaled
					gradBi[k] = errTerm
				}
				localGradW[i] = gradWi
				localGradB[i] = gradBi
			})
			gradW := make([][]float64, nClasses)
			gradB := make([]float64, nClasses)
			for k := range gradW {
				gradW[k] = make([]float64, nFeatures)
			}
			for i := 0; i < n; i++ {
				for k := 0; k < nClasses; k++ {
					floats.Add(gradW[k], localGradW[i][k])
					gradB[k] += localGradB[i][k]
				}
			}
			nf := float64(n)
			for k := 0; k < nClasses; k++ {
				for i := range gradW[k] {
					gradW[k][i] = gradW[k][i]/nf + opts.L2Regularization*model.Weights[k][i]
				}
				floats.AddScaled(model.Weights[k], -opts.LearningRate, gradW[k])
				model.Biases[k] -= opts.LearningRate * gradB[k] / nf
			}
		}
		progress.emit(Event{Phase: PhaseTraining, Round: epoch, Loss: math.NaN()})
	}
	return model, nil
}

// Predict fills out[i] with the linear regressor's prediction.
func (m *LinearModel) Predict(rows [][]float64, out []float64) {
	parallelFor(len(rows), func(i int) { out[i] = m.score(rows[i]) })
}

// PredictProbability fills out[i] with P(class=1) for a linear binary
// classifier.
func (m *LinearModel) PredictProbability(rows [][]float64, out []float64) {
	parallelFor(len(rows), func(i int) { out[i] = sigmoid(m.score(rows[i])) })
}

// Predict fills probabilities[i] with a softmax distribution over
// classes for a linear multiclass model.
func (m *LinearMulticlassModel) Predict(rows [][]float64, probabilities [][]float64) {
	nClasses := len(m.Biases)
	parallelFor(len(rows), func(i int) {
		logits := make([]float64, nClasses)
		for k := 0; k < nClasses; k++ {
			centered := make([]float64, len(rows[i]))
			for j := range centered {
				centered[j] = rows[i][j] - m.FeatureMeans[j]
			}
			logits[k] = m.Biases[k] + floats.Dot(m.Weights[k], centered)
		}
		probabilities[i] = softmax(logits)
	})
}
