package pipeline

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorChansAddConcurrently(t *testing.T) {
	t.Parallel()

	ecs := errorChans{}
	want := make([]*errorChan, 20)

	var wg sync.WaitGroup
	for i := range want {
		want[i] = newErrorChan("stage", nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ecs.add(want[i])
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, want, ecs.list)
}

var (
	errRead  = errors.New("read failed")
	errWrite = errors.New("write failed")
)

// stageErrors returns a closed channel holding errs.
func stageErrors(errs ...error) chan error {
	c := make(chan error, len(errs))
	for _, err := range errs {
		c <- err
	}
	close(c)

	return c
}

func TestMergeErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		stages []*errorChan
		want   []string
	}{
		"no stage": {},
		"nil channels": {
			stages: []*errorChan{newErrorChan("read", nil), newErrorChan("write", nil)},
		},
		"silent stage": {
			stages: []*errorChan{newErrorChan("read", stageErrors())},
		},
		"one failing stage": {
			stages: []*errorChan{newErrorChan("read", nil), newErrorChan("write", stageErrors(errWrite))},
			want:   []string{"write: write failed"},
		},
		"every stage failing": {
			stages: []*errorChan{newErrorChan("read", stageErrors(errRead)), newErrorChan("write", stageErrors(errWrite))},
			want:   []string{"read: read failed", "write: write failed"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got []string
			for err := range mergeErrors(tc.stages...) {
				require.Error(t, err)
				got = append(got, err.Error())
			}

			assert.ElementsMatch(t, tc.want, got)
		})
	}
}

func TestMergeErrorsKeepsCause(t *testing.T) {
	t.Parallel()

	err := <-mergeErrors(newErrorChan("read", stageErrors(errRead)))
	require.ErrorIs(t, err, errRead)
}

func TestWaitForPipelineReturnsFirstError(t *testing.T) {
	t.Parallel()

	// the second stage never closes: the first error must still be returned
	blocked := make(chan error)
	t.Cleanup(func() { close(blocked) })

	err := waitForPipeline(newErrorChan("read", stageErrors(errRead)), newErrorChan("write", blocked))
	require.ErrorIs(t, err, errRead)
}
