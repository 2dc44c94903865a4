package metric

import (
	"errors"
	"fmt"
)

// ErrAlreadyCeiled rejects ceiling normalization of a score that already
// carries a raw pre-ceiling score. Re-ceiling is not idempotent and must not
// be silently allowed.
var ErrAlreadyCeiled = errors.New("metric: score is already ceiling-normalized")

// AlignmentError signals a data coverage mismatch between source and target
// after subsetting: the filtered source axis does not match the target axis.
// Fatal for the comparison, never retried.
type AlignmentError struct {
	Dim       string
	SourceLen int
	TargetLen int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("metric: source dim %q has %d entries after subsetting, target has %d",
		e.Dim, e.SourceLen, e.TargetLen)
}

// InconsistentOutputShapeError signals that two adjacent-combination results
// disagree in shape and cannot be merged.
type InconsistentOutputShapeError struct {
	Want int
	Got  int
}

func (e *InconsistentOutputShapeError) Error() string {
	return fmt.Sprintf("metric: adjacent combination produced %d values, expected %d", e.Got, e.Want)
}

// MisalignedFoldInputError signals that source and target slices disagree on
// an identity or stratification label at some position.
type MisalignedFoldInputError struct {
	Coord    string
	Position int
}

func (e *MisalignedFoldInputError) Error() string {
	return fmt.Sprintf("metric: source and target disagree on coord %q at position %d", e.Coord, e.Position)
}

// SplitMismatchError signals that a score and its ceiling were computed over
// different split sets.
type SplitMismatchError struct {
	ScoreSplits   int
	CeilingSplits int
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("metric: score has %d splits, ceiling has %d, split identifiers differ",
		e.ScoreSplits, e.CeilingSplits)
}
