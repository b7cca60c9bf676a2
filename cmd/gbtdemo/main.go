// Command gbtdemo trains a small regression ensemble on a synthetic
// dataset and reports round-by-round progress through a logrus-backed
// Progress callback, in the spirit of the teacher's train_mnist example:
// hardcoded constants, plain log.Printf summary lines, one end-to-end run.
package main

import (
	"log"
	"math/rand"
	"os"

	"github.com/kestrelml/gbt"
	"github.com/sirupsen/logrus"
)

const (
	nExamples = 5000
	nFeatures = 8
)

func main() {
	rng := rand.New(rand.NewSource(1))
	features := syntheticFeatures(rng)
	labels := syntheticLabels(features)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})

	opts := gbt.DefaultTrainOptions()
	opts.MaxRounds = 50
	opts.EarlyStoppingOptions = &gbt.EarlyStoppingOptions{
		EarlyStoppingFraction: 0.1,
		N:                     5,
		Threshold:             0.001,
	}
	opts.ComputeLosses = true

	progress := &gbt.Progress{
		Kill: &gbt.KillChip{},
		Callback: func(e gbt.Event) {
			if e.Phase == gbt.PhaseTraining {
				logger.WithFields(logrus.Fields{
					"round": e.Round,
					"trees": e.Trees,
					"loss":  e.Loss,
				}).Info("round complete")
			}
		},
	}

	model, err := gbt.TrainRegressor(features, labels, opts, progress)
	if err != nil {
		log.Fatalf("train: %v", err)
	}
	log.Printf("trained %d trees, truncated=%v", len(model.Trees), model.Truncated)

	predictions := make([]float64, features.NExamples)
	model.Predict(features, predictions)
	var sumAbsErr float64
	for i, p := range predictions {
		d := p - float64(labels[i])
		if d < 0 {
			d = -d
		}
		sumAbsErr += d
	}
	log.Printf("mean absolute error: %f", sumAbsErr/float64(len(predictions)))

	if err := model.Save(os.DevNull); err != nil {
		log.Fatalf("save: %v", err)
	}
}

func syntheticFeatures(rng *rand.Rand) *gbt.Features {
	columns := make([]gbt.Column, nFeatures)
	for i := range columns {
		col := make(gbt.NumberColumn, nExamples)
		for j := range col {
			col[j] = float32(rng.NormFloat64())
		}
		columns[i] = gbt.Column{Number: col}
	}
	return &gbt.Features{Columns: columns, NExamples: nExamples}
}

func syntheticLabels(features *gbt.Features) gbt.RegressionLabels {
	labels := make(gbt.RegressionLabels, features.NExamples)
	for i := 0; i < features.NExamples; i++ {
		var sum float32
		for _, col := range features.Columns {
			sum += col.Number[i]
		}
		labels[i] = sum
	}
	return labels
}
