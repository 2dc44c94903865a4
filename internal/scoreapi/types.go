package scoreapi

import (
	"github.com/neuralign-labs/neuralign/internal/assemblyapi"
)

// EvaluateRequest carries the candidate and reference assemblies plus engine
// options for one evaluation.
type EvaluateRequest struct {
	Source  assemblyapi.PackagedAssembly `json:"source"`
	Target  assemblyapi.PackagedAssembly `json:"target"`
	Options EvaluateOptions              `json:"options"`
}

// EvaluateOptions mirrors the engine knobs; zero values fall back to the
// configured defaults.
type EvaluateOptions struct {
	Splits      int     `json:"splits"`
	TrainRatio  float64 `json:"train_ratio"`
	Seed        uint64  `json:"seed"`
	Parallelism int     `json:"parallelism"`
}

// EvaluateResponse is the score of one evaluation.
type EvaluateResponse struct {
	Center    float64   `json:"center"`
	Error     float64   `json:"error"`
	PerSplit  []float64 `json:"per_split"`
	SplitDims []string  `json:"split_dims"`
}

// StdResponse is the standard envelope, matching the assembly store's.
type StdResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

func okResponse[T any](data T) StdResponse[T] {
	return StdResponse[T]{Success: true, Data: data}
}

func errResponse(err error) StdResponse[struct{}] {
	return StdResponse[struct{}]{Success: false, Error: err.Error()}
}
