package emissions

import "errors"

var (
	// ErrInvalidDataset indicates a dataset file could not be parsed
	ErrInvalidDataset = errors.New("invalid dataset")
	// ErrInsufficientData indicates the dataset has no series long enough to fit
	ErrInsufficientData = errors.New("insufficient data to train")
	// ErrUnknownState indicates the requested state has no trained model
	ErrUnknownState = errors.New("unknown state")
)
