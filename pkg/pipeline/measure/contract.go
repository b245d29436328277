package measure

import "time"

// Measure collects one Metric per dataflow stage.
type Measure interface {
	AddMetric(name string, concurrent int) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric accumulates the timings of a dataflow stage.
type Metric interface {
	// AddDuration records the time spent in the stage function for one element.
	AddDuration(elapsed time.Duration)
	// AddTransportDuration records the time an element took to arrive from inputStepName.
	AddTransportDuration(inputStepName string, elapsed time.Duration)
	AVGDuration() time.Duration
	AVGTransportDuration() map[string]time.Duration
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
	Count() int64
}
