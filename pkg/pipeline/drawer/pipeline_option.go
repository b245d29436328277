package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/measure"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m           measure.Measure
	chainParent string
	invocations *measure.Invocations
	startTime   time.Time
}

type Option func(pd *pipelineDrawer)

// WithChain draws the step chain under the parent stage once the pipeline is finished.
func WithChain(parent string, invocations *measure.Invocations) Option {
	return func(pd *pipelineDrawer) {
		pd.chainParent = parent
		pd.invocations = invocations
	}
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStep.Details.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = pd.AddStep(model.EndStep.Details.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) link(parentStep, step *model.StepInfo) error {
	err := pd.AddStep(step.Name)
	if err != nil {
		return err
	}

	return pd.AddLink(parentStep.Name, step.Name)
}

func (pd *pipelineDrawer) PrepareStep(parentStep, step *model.StepInfo) error {
	return pd.link(parentStep, step)
}

func (pd *pipelineDrawer) PrepareSplitter(parentStep, splitterStep *model.StepInfo) error {
	return pd.link(parentStep, splitterStep)
}

func (pd *pipelineDrawer) PrepareSink(parentStep, step *model.StepInfo) error {
	err := pd.link(parentStep, step)
	if err != nil {
		return err
	}

	return pd.AddLink(step.Name, model.EndStep.Details.Name)
}

func (pd *pipelineDrawer) Finish() error {
	err := pd.SetTotalTime(model.EndStep.Details.Name, pd.startTime)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	if pd.invocations != nil {
		err = pd.AddChain(pd.chainParent, pd.invocations.Snapshot())
		if err != nil {
			return errors.Wrap(err, "unable to add step chain")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

func (pd *pipelineDrawer) OnStepOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnSplitterOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnSinkOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) AfterSink(_ *model.StepInfo, _ time.Duration) error {
	return nil
}

// PipelineDrawer draws the dataflow when the pipeline finishes. msr may be nil.
func PipelineDrawer(drawer Drawer, msr measure.Measure, opts ...Option) model.PipelineOption {
	pd := &pipelineDrawer{Drawer: drawer, m: msr, startTime: time.Now()}
	for _, opt := range opts {
		opt(pd)
	}

	return pd
}
