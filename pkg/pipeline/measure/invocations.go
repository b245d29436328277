package measure

import (
	"slices"
	"sync"
	"time"

	"github.com/askiada/go-docpipeline/pkg/executor"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// StepStats summarises the invocations of one step of the chain.
type StepStats struct {
	Name     string
	Ordinal  int
	Outcomes map[executor.Outcome]int64
	// Elapsed sums the duration of the invocations that started a process.
	Elapsed time.Duration
}

// Total counts every Submit, skipped ones included.
func (s StepStats) Total() int64 {
	var total int64
	for _, count := range s.Outcomes {
		total += count
	}

	return total
}

// Runs counts the invocations that were not skipped.
func (s StepStats) Runs() int64 {
	return s.Total() - s.Outcomes[executor.OutcomeSkipped]
}

// Failed counts the runs that did not succeed.
func (s StepStats) Failed() int64 {
	return s.Runs() - s.Outcomes[executor.OutcomeSucceeded]
}

func (s StepStats) AVGDuration() time.Duration {
	runs := s.Runs()
	if runs == 0 {
		return 0
	}

	return round(time.Duration(float64(s.Elapsed) / float64(runs)))
}

// FailureRatio is the share of runs that failed the document.
func (s StepStats) FailureRatio() float64 {
	runs := s.Runs()
	if runs == 0 {
		return 0
	}

	return float64(s.Failed()) / float64(runs)
}

// Invocations gathers StepStats. It implements executor.Observer.
type Invocations struct {
	mu    sync.Mutex
	steps map[string]*StepStats
}

func NewInvocations() *Invocations {
	return &Invocations{steps: make(map[string]*StepStats)}
}

func (inv *Invocations) OnInvocation(step model.StepDescriptor, _ string, outcome executor.Outcome, elapsed time.Duration) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	stats, ok := inv.steps[step.Name]
	if !ok {
		stats = &StepStats{Name: step.Name, Ordinal: step.Ordinal, Outcomes: make(map[executor.Outcome]int64)}
		inv.steps[step.Name] = stats
	}
	stats.Outcomes[outcome]++
	if outcome != executor.OutcomeSkipped {
		stats.Elapsed += elapsed
	}
}

// Snapshot returns a copy of the stats ordered by ordinal.
func (inv *Invocations) Snapshot() []StepStats {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	all := make([]StepStats, 0, len(inv.steps))
	for _, stats := range inv.steps {
		cp := *stats
		cp.Outcomes = make(map[executor.Outcome]int64, len(stats.Outcomes))
		for outcome, count := range stats.Outcomes {
			cp.Outcomes[outcome] = count
		}
		all = append(all, cp)
	}
	slices.SortFunc(all, func(a, b StepStats) int {
		return a.Ordinal - b.Ordinal
	})

	return all
}

var _ executor.Observer = (*Invocations)(nil)
