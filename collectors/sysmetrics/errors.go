package sysmetrics

import "errors"

var (
	// ErrSourceUnavailable means a counter source could not be opened, read,
	// parsed, or did not answer within the read timeout.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidMetric means the source was read but its values cannot form a
	// percentage: a zero denominator, a used figure outside [0,total], or a
	// counter that went backwards.
	ErrInvalidMetric = errors.New("invalid metric")

	// ErrWarmingUp is returned by the CPU tracker on its first sample, when
	// there is no previous snapshot to take a delta against.
	ErrWarmingUp = errors.New("no previous sample")
)

// errorKind returns a short label for logs and warnings.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrInvalidMetric):
		return "invalid_metric"
	case errors.Is(err, ErrWarmingUp):
		return "warming_up"
	default:
		return "unknown"
	}
}
