package gbt

import "testing"

func TestDefaultTrainOptionsValidates(t *testing.T) {
	opts := DefaultTrainOptions()
	if err := opts.Validate(); err != nil {
		t.Errorf("DefaultTrainOptions().Validate() = %v, want nil", err)
	}
}

func TestTrainOptionsValidateCatchesEarlyStoppingRange(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.EarlyStoppingOptions = &EarlyStoppingOptions{EarlyStoppingFraction: 1.5, N: 1}
	err := opts.Validate()
	if err == nil {
		t.Fatal("expected an error for EarlyStoppingFraction=1.5")
	}
	gbtErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gbtErr.Kind != ConfigError {
		t.Errorf("Kind = %v, want ConfigError", gbtErr.Kind)
	}
}

func TestDefaultLinearOptionsValidates(t *testing.T) {
	opts := DefaultLinearOptions()
	if err := opts.Validate(); err != nil {
		t.Errorf("DefaultLinearOptions().Validate() = %v, want nil", err)
	}
}

func TestTrainOptionsValidateCatchesNegativeSmoothingFactor(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.SmoothingFactorForDiscreteBinSorting = -1
	if err := opts.Validate(); err == nil {
		t.Fatal("expected an error for a negative SmoothingFactorForDiscreteBinSorting")
	}
}

func TestDefaultTrainOptionsLayoutIsColumnMajor(t *testing.T) {
	opts := DefaultTrainOptions()
	if opts.BinnedFeaturesLayout != LayoutColumnMajor {
		t.Errorf("BinnedFeaturesLayout = %v, want LayoutColumnMajor", opts.BinnedFeaturesLayout)
	}
}
