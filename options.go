package gbt

// BinnedFeaturesLayout selects how the binned training matrix is stored.
// LayoutAuto defers to the heuristic in computeLayout.
type BinnedFeaturesLayout int

const (
	LayoutAuto BinnedFeaturesLayout = iota
	LayoutRowMajor
	LayoutColumnMajor
)

// EarlyStoppingOptions configures the held-out truncation check that
// boosting rounds are measured against.
type EarlyStoppingOptions struct {
	// EarlyStoppingFraction is the fraction of training examples held
	// out to measure the early-stopping metric. Must be in (0, 1).
	EarlyStoppingFraction float64
	// N is the patience window: training stops once N consecutive
	// rounds fail to improve the held-out metric.
	N int
	// Threshold is the minimum relative improvement that counts as
	// "improved" for patience purposes.
	Threshold float64
}

// TrainOptions configures a Train call. Use DefaultTrainOptions as a
// starting point and override individual fields.
type TrainOptions struct {
	MaxRounds                            int
	MaxLeafNodes                         int
	MaxDepth                             int
	MinExamplesPerNode                   int
	MinGainToSplit                       float64
	MinSumHessiansPerNode                float64
	L2RegularizationForContinuousSplits  float64
	L2RegularizationForDiscreteSplits    float64
	SmoothingFactorForDiscreteBinSorting float64
	Shrinkage                            float64
	MaxValidBinsForNumberFeatures        int
	MaxExamplesForComputingBinThresholds int
	BinnedFeaturesLayout                 BinnedFeaturesLayout
	EarlyStoppingOptions                 *EarlyStoppingOptions
	ComputeLosses                        bool
}

// DefaultTrainOptions mirrors the defaults in original_source's
// TrainOptions::default, adjusted to Go field names.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		MaxRounds:                            100,
		MaxLeafNodes:                         31,
		MaxDepth:                             -1,
		MinExamplesPerNode:                   20,
		MinGainToSplit:                       0.0,
		MinSumHessiansPerNode:                1e-3,
		L2RegularizationForContinuousSplits:  0.0,
		L2RegularizationForDiscreteSplits:    10.0,
		SmoothingFactorForDiscreteBinSorting: 10.0,
		Shrinkage:                            0.1,
		MaxValidBinsForNumberFeatures:        255,
		MaxExamplesForComputingBinThresholds: 200_000,
		BinnedFeaturesLayout:                 LayoutColumnMajor,
		EarlyStoppingOptions:                 nil,
		ComputeLosses:                        false,
	}
}

// Validate returns a ConfigError-kind *Error describing the first
// conflicting or out-of-range field it finds, or nil.
func (o *TrainOptions) Validate() error {
	switch {
	case o.MaxRounds <= 0:
		return newError(ConfigError, "MaxRounds must be positive, got %d", o.MaxRounds)
	case o.MaxLeafNodes < 2:
		return newError(ConfigError, "MaxLeafNodes must be at least 2, got %d", o.MaxLeafNodes)
	case o.MinExamplesPerNode < 1:
		return newError(ConfigError, "MinExamplesPerNode must be at least 1, got %d", o.MinExamplesPerNode)
	case o.MinSumHessiansPerNode < 0:
		return newError(ConfigError, "MinSumHessiansPerNode must be non-negative")
	case o.Shrinkage <= 0 || o.Shrinkage > 1:
		return newError(ConfigError, "Shrinkage must be in (0, 1], got %v", o.Shrinkage)
	case o.MaxValidBinsForNumberFeatures < 2:
		return newError(ConfigError, "MaxValidBinsForNumberFeatures must be at least 2")
	case o.MaxExamplesForComputingBinThresholds < 1:
		return newError(ConfigError, "MaxExamplesForComputingBinThresholds must be positive")
	case o.L2RegularizationForContinuousSplits < 0 || o.L2RegularizationForDiscreteSplits < 0:
		return newError(ConfigError, "L2 regularization terms must be non-negative")
	case o.SmoothingFactorForDiscreteBinSorting < 0:
		return newError(ConfigError, "SmoothingFactorForDiscreteBinSorting must be non-negative")
	}
	if o.EarlyStoppingOptions != nil {
		es := o.EarlyStoppingOptions
		if es.EarlyStoppingFraction <= 0 || es.EarlyStoppingFraction >= 1 {
			return newError(ConfigError, "EarlyStoppingFraction must be in (0, 1), got %v", es.EarlyStoppingFraction)
		}
		if es.N < 1 {
			return newError(ConfigError, "EarlyStoppingOptions.N must be at least 1")
		}
	}
	return nil
}

// PredictOptions configures BinaryClassifier.PredictClasses. Threshold
// is binary-classification-only: when non-nil, the predicted class is
// positive iff p >= *Threshold. ComputeFeatureContributions is not read
// by any prediction method in this package; TreeSHAP contributions are
// computed separately with ComputeShapValues.
type PredictOptions struct {
	ComputeFeatureContributions bool
	Threshold                   *float64
}
