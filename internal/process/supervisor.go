package process

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// Command is one invocation of an external program.
type Command struct {
	Path string
	// Interpreter, when set, is executed with Path as its first argument.
	Interpreter string
	Args        []string
	Dir         string
	// Env is the child environment. Nil inherits the parent's.
	Env   []string
	Stdin []byte
	// DocumentFile writes Stdin to a uniquely named file in ScratchDir and appends its path to Args.
	DocumentFile bool
	ScratchDir   string
	// GracePeriod between SIGTERM and SIGKILL when the context is done. Zero sends SIGKILL right away.
	GracePeriod time.Duration
}

// Supervisor runs commands as child processes.
type Supervisor struct{}

// New creates a supervisor.
func New() *Supervisor {
	return &Supervisor{}
}

// Run starts the command and blocks until the child has exited and its three streams are drained.
//
// A non-zero exit status is not an error: it is reported in ExecutionResult.ExitCode.
// When ctx expires the process group is killed and ErrProcessTimeout is returned.
func (s *Supervisor) Run(ctx context.Context, command Command) (*model.ExecutionResult, error) {
	args := append([]string(nil), command.Args...)

	if command.DocumentFile {
		docPath, err := writeDocumentFile(command.ScratchDir, command.Stdin)
		if err != nil {
			return nil, err
		}
		defer os.Remove(docPath) //nolint:errcheck

		args = append(args, docPath)
	}

	name := command.Path
	if command.Interpreter != "" {
		name = command.Interpreter
		args = append([]string{command.Path}, args...)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = command.Dir
	cmd.Env = command.Env
	configureProcessGroup(cmd, command.GracePeriod)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "stderr pipe: %v", err)
	}

	start := time.Now()
	err = cmd.Start()
	if err != nil {
		if ctx.Err() != nil {
			return nil, interrupted(ctx, name, time.Since(start))
		}

		return nil, errors.Wrapf(ErrProcessLaunch, "start %s: %v", name, err)
	}

	// Unblock the readers once the invocation is cancelled, even if a process outside the group still holds the
	// write end of a pipe.
	stopClosing := context.AfterFunc(runCtx, func() {
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stopClosing()

	var stdoutBuf, stderrBuf bytes.Buffer

	grp := new(errgroup.Group)
	grp.Go(func() error {
		return feed(runCtx, cancelRun, stdin, command.Stdin)
	})
	grp.Go(func() error {
		return drain(runCtx, cancelRun, "stdout", &stdoutBuf, stdout)
	})
	grp.Go(func() error {
		return drain(runCtx, cancelRun, "stderr", &stderrBuf, stderr)
	})

	copyErr := grp.Wait()
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return nil, interrupted(ctx, name, elapsed)
	}

	if copyErr != nil {
		return nil, copyErr
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, errors.Wrapf(ErrIO, "wait %s: %v", name, waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &model.ExecutionResult{
		Stdout:   stdoutBuf.Bytes(),
		Stderr:   stderrBuf.Bytes(),
		ExitCode: exitCode,
		Duration: elapsed,
	}, nil
}

func interrupted(ctx context.Context, name string, elapsed time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrapf(ErrProcessTimeout, "%s killed after %s", name, elapsed)
	}

	return errors.Wrapf(ctx.Err(), "%s interrupted after %s", name, elapsed)
}

// feed writes the input to the child then closes its stdin.
// A child that exits without reading its input is not a failure.
func feed(ctx context.Context, cancel context.CancelFunc, stdin io.WriteCloser, input []byte) error {
	defer stdin.Close() //nolint:errcheck

	_, err := io.Copy(stdin, bytes.NewReader(input))
	if err == nil || isBrokenPipe(err) || ctx.Err() != nil {
		return nil
	}
	cancel()

	return errors.Wrapf(ErrIO, "stdin: %v", err)
}

func drain(ctx context.Context, cancel context.CancelFunc, stream string, dst *bytes.Buffer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	if err == nil || ctx.Err() != nil {
		return nil
	}
	cancel()

	return errors.Wrapf(ErrIO, "%s: %v", stream, err)
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}

func writeDocumentFile(scratchDir string, content []byte) (string, error) {
	if scratchDir == "" {
		return "", errors.Wrap(ErrIO, "document file requires a scratch directory")
	}

	path := filepath.Join(scratchDir, uuid.NewString())

	err := os.WriteFile(path, content, 0o600)
	if err != nil {
		return "", errors.Wrapf(ErrIO, "write document file: %v", err)
	}

	return path, nil
}
