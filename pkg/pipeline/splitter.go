package pipeline

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// Splitter routes the elements of one step to several branches.
type Splitter[I any] struct {
	mu            sync.Mutex
	currIdx       int
	mainStep      *model.Step[I]
	splittedSteps []*model.Step[I]
	bufferSize    int
	Total         int
}

// Get returns the next unclaimed branch, in the order of the splitter functions.
func (s *Splitter[I]) Get() (*model.Step[I], bool) {
	s.mu.Lock()
	defer func() {
		s.currIdx++
		s.mu.Unlock()
	}()
	if s.currIdx >= len(s.splittedSteps) {
		return nil, false
	}

	return s.splittedSteps[s.currIdx], true
}

// SplitterFn tells whether an element belongs to a branch.
type SplitterFn[I any] func(input I) (bool, error)

// AddSplitterFn adds a splitter with one branch per function. An element is sent to every branch whose function
// accepts it. Every branch must be consumed.
func AddSplitterFn[I any](pipe *Pipeline, name string, input *model.Step[I], fns []SplitterFn[I], opts ...SplitterOption[I]) (*Splitter[I], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	total := len(fns)
	if total == 0 {
		return nil, ErrSplitterTotal
	}

	splitter := &Splitter[I]{
		Total: total,
		mainStep: &model.Step[I]{
			Details: &model.StepInfo{
				Type:       model.SplitterStepType,
				Name:       name,
				Concurrent: 1,
			},
		},
	}
	for _, opt := range opts {
		opt(splitter)
	}
	if splitter.bufferSize < 1 {
		splitter.bufferSize = 1
	}
	splitter.mainStep.Details.BufferSize = splitter.bufferSize

	splitter.splittedSteps = make([]*model.Step[I], total)
	for i := range total {
		splitter.splittedSteps[i] = &model.Step[I]{
			Details: splitter.mainStep.Details,
			Output:  make(chan I, splitter.bufferSize),
		}
	}

	parent := parentDetails(input)
	for _, opt := range pipe.opts {
		err := opt.PrepareSplitter(parent, splitter.mainStep.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run prepare splitter function")
		}
	}

	errC := make(chan error, 1)

	go func() {
		defer func() {
			for _, step := range splitter.splittedSteps {
				close(step.Output)
			}
			close(errC)
		}()

		err := dispatch(pipe, parent, splitter, input, fns)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(newErrorChan(name, errC))

	return splitter, nil
}

func dispatch[I any](pipe *Pipeline, parent *model.StepInfo, splitter *Splitter[I], input *model.Step[I], fns []SplitterFn[I]) error {
	for {
		startIter := time.Now()
		select {
		case <-pipe.ctx.Done():
			return pipe.ctx.Err() //nolint:wrapcheck
		case entry, ok := <-input.Output:
			if !ok {
				return nil
			}

			startFn := time.Now()
			for i, fn := range fns {
				accepted, err := fn(entry)
				if err != nil {
					return errors.Wrap(err, "unable to run splitter function")
				}
				if !accepted {
					continue
				}

				select {
				case <-pipe.ctx.Done():
					return pipe.ctx.Err() //nolint:wrapcheck
				case splitter.splittedSteps[i].Output <- entry:
				}
			}
			endFn := time.Since(startFn)

			for _, opt := range pipe.opts {
				err := opt.OnSplitterOutput(parent, splitter.mainStep.Details, time.Since(startIter)-endFn, endFn)
				if err != nil {
					return errors.Wrap(err, "unable to run splitter output function")
				}
			}
		}
	}
}
