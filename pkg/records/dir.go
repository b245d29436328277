package records

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// DirSource reads every regular file of a directory, sorted by name.
type DirSource struct {
	Dir string
}

func (s DirSource) Each(ctx context.Context, fn func(rec model.Record) error) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return errors.Wrapf(err, "unable to list %s", s.Dir)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck
		}

		content, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return errors.Wrapf(err, "unable to read record %s", entry.Name())
		}

		err = fn(model.Record{Name: entry.Name(), Content: content})
		if err != nil {
			return err
		}
	}

	return nil
}

// DirSink writes each record to a file named after it.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", dir)
	}

	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Write(rec model.Record) error {
	if err := checkName(rec.Name); err != nil {
		return err
	}

	err := os.WriteFile(filepath.Join(s.dir, rec.Name), rec.Content, 0o644) //nolint:gosec
	if err != nil {
		return errors.Wrapf(err, "unable to write record %s", rec.Name)
	}

	return nil
}

func (s *DirSink) Close() error { return nil }
