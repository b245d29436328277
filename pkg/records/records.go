package records

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

var ErrInvalidName = errors.New("invalid record name")

// Source yields records in a stable order. Each stops at the first error returned by fn.
type Source interface {
	Each(ctx context.Context, fn func(rec model.Record) error) error
}

// Sink receives records. Implementations must be safe for concurrent use.
type Sink interface {
	Write(rec model.Record) error
	Close() error
}

// SliceSource serves records from memory.
type SliceSource []model.Record

func (s SliceSource) Each(ctx context.Context, fn func(rec model.Record) error) error {
	for _, rec := range s {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
}

// checkName rejects names that would escape the output directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}

	return nil
}
