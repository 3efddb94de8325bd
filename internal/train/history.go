package train

// EpochStats summarizes one pass over the training set.
type EpochStats struct {
	Epoch      int
	Iterations int     // iterations completed at the end of the epoch
	Loss       float32 // mean training loss
	Accuracy   float32 // training accuracy in [0, 1]
}

// Evaluation is a held-out measurement taken during training.
type Evaluation struct {
	Iteration int
	TrainLoss float32 // loss of the batch just trained on
	TestLoss  float32
	Accuracy  float32 // in [0, 1]
}

// History collects everything a training run reports.
type History struct {
	Epochs      []EpochStats
	Evaluations []Evaluation
}

// LastEvaluation returns the most recent evaluation, if any.
func (h *History) LastEvaluation() (Evaluation, bool) {
	if h == nil || len(h.Evaluations) == 0 {
		return Evaluation{}, false
	}
	return h.Evaluations[len(h.Evaluations)-1], true
}

// Losses returns the mean training loss of every epoch in order.
func (h *History) Losses() []float32 {
	out := make([]float32, len(h.Epochs))
	for i, e := range h.Epochs {
		out[i] = e.Loss
	}
	return out
}
