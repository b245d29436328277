package batch_test

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-docpipeline/pkg/batch"
	"github.com/askiada/go-docpipeline/pkg/driver"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
	"github.com/askiada/go-docpipeline/pkg/records"
)

// rejectStep is a pipeline option refusing to prepare one stage.
type rejectStep struct {
	name string
}

func (r rejectStep) New() error { return nil }

func (r rejectStep) PrepareStep(_, step *model.StepInfo) error {
	if step.Name == r.name {
		return errors.New("rejected")
	}

	return nil
}

func (r rejectStep) OnStepOutput(_, _ *model.StepInfo, _, _ time.Duration) error     { return nil }
func (r rejectStep) PrepareSplitter(_, _ *model.StepInfo) error                      { return nil }
func (r rejectStep) OnSplitterOutput(_, _ *model.StepInfo, _, _ time.Duration) error { return nil }
func (r rejectStep) PrepareSink(_, _ *model.StepInfo) error                          { return nil }
func (r rejectStep) OnSinkOutput(_, _ *model.StepInfo, _, _ time.Duration) error     { return nil }
func (r rejectStep) AfterSink(_ *model.StepInfo, _ time.Duration) error              { return nil }
func (r rejectStep) Finish() error                                                   { return nil }

// watchedSource reports when Each returns.
type watchedSource struct {
	records.SliceSource
	done chan error
}

func (s watchedSource) Each(ctx context.Context, fn func(rec model.Record) error) error {
	err := s.SliceSource.Each(ctx, fn)
	s.done <- err

	return err
}

// upperSubmitter upper-cases content and fails documents whose content contains "bad".
type upperSubmitter struct {
	calls atomic.Int64
}

func (s *upperSubmitter) Submit(_ context.Context, _ model.StepDescriptor, doc model.Document) model.Document {
	if doc.Failed {
		return doc
	}
	s.calls.Add(1)
	if bytes.Contains(doc.Content, []byte("bad")) {
		return doc.Fail()
	}

	return doc.WithContent(bytes.ToUpper(doc.Content))
}

type memorySink struct {
	mu      sync.Mutex
	records []model.Record
	err     error
}

func (s *memorySink) Write(rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)

	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) sorted() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.records)
	slices.SortFunc(out, func(a, b model.Record) int { return strings.Compare(a.Name, b.Name) })

	return out
}

var steps = []model.StepDescriptor{
	{Name: "upper", Ordinal: 0},
}

func source() records.SliceSource {
	return records.SliceSource{
		{Name: "doc1", Content: []byte("hello")},
		{Name: "doc2", Content: []byte("bad input")},
		{Name: "doc3", Content: []byte("world")},
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	sub := &upperSubmitter{}
	run := batch.New(driver.New(sub), steps, batch.WithWorkers(2))

	success, failure := &memorySink{}, &memorySink{}
	summary, err := run.Run(t.Context(), source(), success, failure)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.EqualValues(t, 3, summary.Total)
	assert.EqualValues(t, 2, summary.Succeeded)
	assert.EqualValues(t, 1, summary.Failed)
	assert.Zero(t, summary.Resumed)

	assert.Equal(t, []model.Record{
		{Name: "doc1", Content: []byte("HELLO")},
		{Name: "doc3", Content: []byte("WORLD")},
	}, success.sorted())
	assert.Equal(t, []model.Record{
		{Name: "doc2", Content: []byte("bad input")},
	}, failure.sorted())
	assert.EqualValues(t, 3, sub.calls.Load())
}

func TestRunEmptySource(t *testing.T) {
	t.Parallel()

	run := batch.New(driver.New(&upperSubmitter{}), steps)

	summary, err := run.Run(t.Context(), records.SliceSource{}, &memorySink{}, &memorySink{})
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

func TestRunCheckpointResume(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint")

	first := &upperSubmitter{}
	_, err := batch.New(driver.New(first), steps, batch.WithCheckpoint(path, false)).
		Run(t.Context(), source()[:2], &memorySink{}, &memorySink{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, first.calls.Load())

	ckpt, err := records.LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Len(t, ckpt, 2)
	assert.True(t, ckpt["doc2"].Failed)

	second := &upperSubmitter{}
	success, failure := &memorySink{}, &memorySink{}
	summary, err := batch.New(driver.New(second), steps, batch.WithCheckpoint(path, true)).
		Run(t.Context(), source(), success, failure)
	require.NoError(t, err)

	assert.EqualValues(t, 1, second.calls.Load())
	assert.EqualValues(t, 3, summary.Total)
	assert.EqualValues(t, 2, summary.Resumed)
	assert.Len(t, success.sorted(), 2)
	assert.Equal(t, []model.Record{{Name: "doc2", Content: []byte("bad input")}}, failure.sorted())

	ckpt, err = records.LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Len(t, ckpt, 3)
}

func TestRunSourceError(t *testing.T) {
	t.Parallel()

	errSource := errors.New("source")
	run := batch.New(driver.New(&upperSubmitter{}), steps)

	_, err := run.Run(t.Context(), failingSource{err: errSource}, &memorySink{}, &memorySink{})
	require.ErrorIs(t, err, errSource)
}

func TestRunSinkError(t *testing.T) {
	t.Parallel()

	errSink := errors.New("sink")
	run := batch.New(driver.New(&upperSubmitter{}), steps)

	_, err := run.Run(t.Context(), source(), &memorySink{err: errSink}, &memorySink{})
	require.ErrorIs(t, err, errSink)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	path := filepath.Join(t.TempDir(), "checkpoint")
	run := batch.New(driver.New(&upperSubmitter{}), steps, batch.WithCheckpoint(path, false))

	_, err := run.Run(ctx, source(), &memorySink{}, &memorySink{})
	require.ErrorIs(t, err, context.Canceled)

	ckpt, err := records.LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Empty(t, ckpt)
}

type failingSource struct {
	err error
}

func (s failingSource) Each(_ context.Context, fn func(rec model.Record) error) error {
	if err := fn(model.Record{Name: "first"}); err != nil {
		return err
	}

	return s.err
}

func TestRunSetupErrorStopsReading(t *testing.T) {
	t.Parallel()

	src := watchedSource{SliceSource: source(), done: make(chan error, 1)}
	run := batch.New(driver.New(&upperSubmitter{}), steps,
		batch.WithPipelineOptions(rejectStep{name: batch.ProcessStepName}))

	_, err := run.Run(t.Context(), src, &memorySink{}, &memorySink{})
	require.Error(t, err)

	select {
	case err := <-src.done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("source still reading after Run returned")
	}
}
