package search

import (
	"errors"
	"strings"
)

// ErrAllStrategiesFailed is the sentinel matched by errors.Is when every
// applicable strategy failed or was skipped. Distinct from a legitimate
// zero-match result.
var ErrAllStrategiesFailed = errors.New("all search strategies failed")

// AllStrategiesFailedError carries the union of per-strategy failure reasons.
type AllStrategiesFailedError struct {
	Reasons []string
}

func (e *AllStrategiesFailedError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrAllStrategiesFailed.Error()
	}
	return ErrAllStrategiesFailed.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *AllStrategiesFailedError) Is(target error) bool {
	return target == ErrAllStrategiesFailed
}
