package measure

import (
	"sync"
	"time"
)

type transport struct {
	elapsed time.Duration
	total   int64
}

type DefaultMetric struct {
	mu          sync.Mutex
	transports  map[string]*transport
	endDuration time.Duration
	stepElapsed time.Duration
	total       int64
	concurrent  int
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = max(mt.endDuration, endDuration)
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

func (mt *DefaultMetric) AddTransportDuration(inputStepName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	tr, ok := mt.transports[inputStepName]
	if !ok {
		tr = &transport{}
		mt.transports[inputStepName] = tr
	}
	tr.elapsed += elapsed
	tr.total++
}

func (mt *DefaultMetric) Count() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.total
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.total == 0 {
		return 0
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

// AVGTransportDuration returns the average wait per input stage, spread over the concurrent goroutines of the stage.
func (mt *DefaultMetric) AVGTransportDuration() map[string]time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	avg := make(map[string]time.Duration, len(mt.transports))
	for name, tr := range mt.transports {
		if tr.total == 0 {
			continue
		}
		avg[name] = round(time.Duration(float64(tr.elapsed) / float64(tr.total) / float64(mt.concurrent)))
	}

	return avg
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		return d.Round(time.Minute)
	case d > time.Second:
		return d.Round(time.Millisecond)
	case d > time.Millisecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}
