package gbt

import "sync/atomic"

// Phase identifies which stage of training an Event was emitted from.
type Phase int

const (
	PhaseBinning Phase = iota
	PhaseBinningDone
	PhaseTraining
	PhaseTrainingDone
)

func (p Phase) String() string {
	switch p {
	case PhaseBinning:
		return "binning"
	case PhaseBinningDone:
		return "binning_done"
	case PhaseTraining:
		return "training"
	case PhaseTrainingDone:
		return "training_done"
	default:
		return "unknown"
	}
}

// Event is delivered to a Progress callback once when binning finishes
// (PhaseBinningDone), once per boosting round or linear-learner epoch
// (PhaseTraining), and, for the tree learners, once when training
// finishes (PhaseTrainingDone).
type Event struct {
	Phase Phase
	// Round is the 0-indexed boosting round this event belongs to, or
	// -1 during the binning phase.
	Round int
	// Trees is the cumulative number of trees trained so far.
	Trees int
	// Loss is the loss for the round just completed, computed when
	// TrainOptions.ComputeLosses or TrainOptions.EarlyStoppingOptions is
	// set: on the held-out examples when early stopping is enabled, on
	// the training examples otherwise. It is NaN when neither is set, and
	// always NaN for the linear learners.
	Loss float64
}

// KillChip is a cooperative cancellation flag polled at round
// boundaries by the boosting loop and at epoch boundaries by the linear
// learners. Zero value is "not killed."
type KillChip struct {
	flag int32
}

// Kill marks the chip as killed. Safe to call from any goroutine.
func (k *KillChip) Kill() { atomic.StoreInt32(&k.flag, 1) }

// Killed reports whether Kill has been called.
func (k *KillChip) Killed() bool { return atomic.LoadInt32(&k.flag) != 0 }

// Progress bundles a cancellation flag and a callback used to report
// training progress. The zero value is a valid no-op Progress.
type Progress struct {
	Kill     *KillChip
	Callback func(Event)
}

func (p *Progress) emit(e Event) {
	if p == nil || p.Callback == nil {
		return
	}
	p.Callback(e)
}

func (p *Progress) killed() bool {
	if p == nil || p.Kill == nil {
		return false
	}
	return p.Kill.Killed()
}
