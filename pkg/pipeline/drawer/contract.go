package drawer

import (
	"time"

	"github.com/askiada/go-docpipeline/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStep adds a step to the pipeline drawer.
	AddStep(stepName string) error
	// AddLink adds a link between parent and children steps.
	AddLink(parentStepName, childrenStepName string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime sets the total time for the step.
	SetTotalTime(stepName string, startTime time.Time) error
	// AddMeasure labels stages and links with the measured timings.
	AddMeasure(measure measure.Measure) error
	// AddChain hangs the step chain under parent, one vertex per step coloured by its failure ratio.
	AddChain(parent string, stats []measure.StepStats) error
}
