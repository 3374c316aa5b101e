package deepar

import "strconv"

// Hyperparameters of the remote training algorithm. The zero value is not
// useful; start from DefaultHyperparameters.
type Hyperparameters struct {
	PredictionLength int
	ContextLength    int
	Epochs           int
	LearningRate     float64
	NumLayers        int
	NumCells         int
}

// DefaultHyperparameters returns the tuning used for hourly occupancy data:
// a one-week context predicting one day ahead.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		PredictionLength: 24,
		ContextLength:    168,
		Epochs:           100,
		LearningRate:     0.001,
		NumLayers:        3,
		NumCells:         40,
	}
}

// Map renders the hyperparameters in the string form the training API
// expects. The series frequency is fixed to hourly.
func (h Hyperparameters) Map() map[string]string {
	return map[string]string{
		"time_freq":         "H",
		"prediction_length": strconv.Itoa(h.PredictionLength),
		"context_length":    strconv.Itoa(h.ContextLength),
		"epochs":            strconv.Itoa(h.Epochs),
		"learning_rate":     strconv.FormatFloat(h.LearningRate, 'f', -1, 64),
		"num_layers":        strconv.Itoa(h.NumLayers),
		"num_cells":         strconv.Itoa(h.NumCells),
	}
}

// MinHistory is the shortest series the assembler should accept for these
// hyperparameters: enough rows to fill the context window plus the held-out
// forecast horizon.
func (h Hyperparameters) MinHistory() int {
	return h.ContextLength + h.PredictionLength
}
